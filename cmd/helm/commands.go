package main

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/helm/internal/catalog"
	"github.com/kalambet/helm/internal/command"
	"github.com/kalambet/helm/internal/config"
	"github.com/kalambet/helm/internal/nav"
	"github.com/kalambet/helm/internal/recognition"
	"github.com/kalambet/helm/internal/search"
	"github.com/kalambet/helm/internal/session"
	"github.com/kalambet/helm/internal/storage"
)

// --- say ---

var sayCmd = &cobra.Command{
	Use:   "say <command...>",
	Short: "Run a command as if it had been spoken",
	Long: `Run a command as if it had been spoken.

Examples:
  helm say show projects in machine learning
  helm say search in data science dashboard
  helm say next expertise`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		out, err := client.Submit(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cmd.OutOrStdout(), out)
		}
		printOutcome(out)
		return nil
	},
}

func printOutcome(out session.Outcome) {
	if out.Intent.Kind == command.KindUnrecognized {
		printWarning("Command not recognized: %s", out.Intent.Raw)
	} else {
		printSuccess("%s", out.Intent)
	}
	for _, e := range out.Effects {
		switch e.Kind {
		case command.EffectPerformSearch:
			printStep("searching for %q", e.Query)
		case command.EffectDisplayHelp:
			printStep("help shown; run `helm state` to list commands")
		case command.EffectReportUnrecognized:
		default:
			printStep("%s", e.Kind)
		}
	}
	printStatus("State", "%s", stateLine(out.State))
}

func stateLine(s nav.State) string {
	parts := []string{string(s.Section)}
	if s.ActiveExpertiseID != "" {
		parts = append(parts, "area="+s.ActiveExpertiseID)
	}
	if s.SearchQuery != "" {
		q := fmt.Sprintf("search=%q", s.SearchQuery)
		if s.SearchScopeID != "" {
			q += " in " + s.SearchScopeID
		}
		parts = append(parts, q)
	}
	return strings.Join(parts, " ")
}

// --- state ---

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show what the control panel currently displays",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		snap, err := client.Snapshot(cmd.Context())
		if err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cmd.OutOrStdout(), snap)
		}

		printStatus("View", "%s", crumbLine(snap))
		printStatus("Voice", "%s", voiceLine(snap.Voice))
		if snap.LastCommand != "" {
			printStatus("Last command", "%q", snap.LastCommand)
		}
		if snap.Prompt != nil {
			printStatus("Prompt", "%s", snap.Prompt.Text)
		}
		if snap.State.SearchQuery != "" {
			if snap.Searching {
				printStatus("Search", "%q (searching...)", snap.State.SearchQuery)
			} else {
				printStatus("Search", "%q, %d result(s)", snap.State.SearchQuery, len(snap.Results))
				printResults(snap.Results)
			}
		}
		if snap.HelpVisible {
			for _, h := range snap.Help {
				fmt.Printf("  %-28s %s\n", colorize(colorBold, h.Command), h.Description)
			}
		}
		for _, e := range snap.Log {
			fmt.Fprintf(os.Stderr, "  %s %s %s\n", colorize(colorDim, e.Time.Format("15:04:05")), e.Level, e.Message)
		}
		return nil
	},
}

func printResults(results []search.Result) {
	for _, r := range results {
		fmt.Printf("  %s  %s\n", colorize(colorBold, r.Project.Title), colorize(colorDim, r.AreaName))
		if r.Snippet != "" {
			fmt.Printf("    %s\n", r.Snippet)
		}
	}
}

// --- search ---

var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Search projects and documents without changing the panel",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scope, _ := cmd.Flags().GetString("scope")
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.get(cmd.Context(), searchPath(strings.Join(args, " "), scope))
		if err != nil {
			return err
		}
		var results []search.Result
		if err := decodeJSON(resp, &results); err != nil {
			return err
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return printJSON(cmd.OutOrStdout(), results)
		}
		if len(results) == 0 {
			printWarning("No results")
			return nil
		}
		printResults(results)
		return nil
	},
}

// --- voice ---

var voiceCmd = &cobra.Command{
	Use:   "voice",
	Short: "Control voice recognition",
}

var voiceEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Enable voice control",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/voice/enable", nil)
		if err != nil {
			return err
		}
		var rs recognition.Session
		if err := decodeJSON(resp, &rs); err != nil {
			return err
		}
		printSuccess("Voice control on (session %s, %s)", rs.ID, rs.Status)
		return nil
	},
}

var voiceDisableCmd = &cobra.Command{
	Use:   "disable",
	Short: "Disable voice control",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/voice/disable", nil)
		if err != nil {
			return err
		}
		var result map[string]bool
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		if !result["was_enabled"] {
			printWarning("Voice control was already off")
			return nil
		}
		printSuccess("Voice control off")
		return nil
	},
}

var voiceEventCmd = &cobra.Command{
	Use:   "event <session-id> <start|result|end|error> [text...]",
	Short: "Deliver a speech capability event",
	Long: `Deliver a speech capability event, as a speech host would.

Examples:
  helm voice event 3f2a... start
  helm voice event 3f2a... result show education
  helm voice event 3f2a... error microphone unplugged`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ev := session.VoiceEvent{SessionID: args[0], Type: args[1]}
		rest := strings.Join(args[2:], " ")
		switch ev.Type {
		case "result":
			ev.Text = rest
		case "error":
			ev.Reason = rest
		case "start", "end":
		default:
			return fmt.Errorf("unknown event type %q", ev.Type)
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/voice/events", ev)
		if err != nil {
			return err
		}
		var result map[string]bool
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		if !result["accepted"] {
			printWarning("Event ignored: %s is not the active recognition session", ev.SessionID)
			return nil
		}
		printSuccess("Delivered %s event", ev.Type)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{sayCmd, stateCmd, searchCmd} {
		c.Flags().Bool("json", false, "print raw JSON")
	}
	searchCmd.Flags().String("scope", "", "restrict the search to an expertise area id")

	voiceCmd.AddCommand(voiceEnableCmd, voiceDisableCmd, voiceEventCmd)
}

// --- docs ---

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "Manage case-study documents attached to expertise areas",
}

var docsAddCmd = &cobra.Command{
	Use:   "add <area-id>",
	Short: "Attach a document to an expertise area",
	Long: `Attach a document to an expertise area. Its text becomes searchable
once the ingest worker has processed it.

Examples:
  helm docs add ml --title "Drift notes" --text "Canary rollouts with shadow traffic"
  helm docs add ai --url https://example.com/case-study
  helm docs add data-science --file ./report.pdf --project "Predictive Analytics Dashboard"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := documentRequest(cmd, args[0])
		if err != nil {
			return err
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.post(cmd.Context(), "/documents", req)
		if err != nil {
			return err
		}
		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		printSuccess("Queued document %s", result["id"])
		return nil
	},
}

func documentRequest(cmd *cobra.Command, areaID string) (map[string]string, error) {
	text, _ := cmd.Flags().GetString("text")
	link, _ := cmd.Flags().GetString("url")
	file, _ := cmd.Flags().GetString("file")
	title, _ := cmd.Flags().GetString("title")
	project, _ := cmd.Flags().GetString("project")

	req := map[string]string{"area_id": areaID, "title": title, "project_title": project}
	switch {
	case text != "":
		req["kind"] = storage.KindText
		req["content"] = text
	case link != "":
		if _, err := url.ParseRequestURI(link); err != nil {
			return nil, fmt.Errorf("invalid --url: %w", err)
		}
		req["kind"] = storage.KindURL
		req["url"] = link
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading file: %w", err)
		}
		if strings.EqualFold(filepath.Ext(file), ".pdf") {
			req["kind"] = storage.KindPDF
			req["content"] = base64.StdEncoding.EncodeToString(data)
		} else {
			req["kind"] = storage.KindText
			req["content"] = string(data)
		}
		if title == "" {
			req["title"] = filepath.Base(file)
		}
	default:
		return nil, errors.New("one of --text, --url, or --file is required")
	}
	return req, nil
}

var docsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List attached documents, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		area, _ := cmd.Flags().GetString("area")
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}
		v := url.Values{}
		v.Set("limit", fmt.Sprint(limit))
		if area != "" {
			v.Set("area", area)
		}
		resp, err := client.get(cmd.Context(), "/documents?"+v.Encode())
		if err != nil {
			return err
		}
		var docs []storage.Document
		if err := decodeJSON(resp, &docs); err != nil {
			return err
		}
		if len(docs) == 0 {
			printWarning("No documents")
			return nil
		}
		for _, d := range docs {
			status := d.Status
			switch d.Status {
			case storage.DocumentIndexed:
				status = colorize(colorGreen, status)
			case storage.DocumentFailed:
				status = colorize(colorRed, status+": "+d.LastError)
			}
			fmt.Printf("  %s  %-14s %-5s %s  %s\n", colorize(colorDim, shortID(d.ID)), d.AreaID, d.Kind, colorize(colorBold, d.Title), status)
		}
		return nil
	},
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

var docsRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		resp, err := client.delete(cmd.Context(), "/documents/"+url.PathEscape(args[0]))
		if err != nil {
			return err
		}
		var result map[string]string
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		printSuccess("Removed document %s", args[0])
		return nil
	},
}

func init() {
	docsAddCmd.Flags().String("text", "", "text content")
	docsAddCmd.Flags().String("url", "", "page or PDF to fetch")
	docsAddCmd.Flags().String("file", "", "local text or PDF file")
	docsAddCmd.Flags().String("title", "", "document title")
	docsAddCmd.Flags().String("project", "", "title of the project the document describes")

	docsListCmd.Flags().String("area", "", "only documents attached to this area id")
	docsListCmd.Flags().Int("limit", 20, "maximum number of documents")

	docsCmd.AddCommand(docsAddCmd, docsListCmd, docsRmCmd)
}

// --- catalog ---

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Print the expertise catalog",
	Long: `Print the expertise catalog. With --file, the file is validated and
printed without contacting the server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")

		var (
			cat *catalog.Catalog
			err error
		)
		if file != "" {
			cat, err = catalog.Load(file)
		} else {
			var client *apiClient
			if client, err = newAPIClient(); err == nil {
				cat, err = client.catalog(cmd.Context())
			}
		}
		if err != nil {
			return err
		}

		for _, a := range cat.Areas {
			fmt.Printf("%s  %s\n", colorize(colorBold, a.Name), colorize(colorDim, a.ID))
			if len(a.Aliases) > 0 {
				fmt.Printf("  aliases: %s\n", strings.Join(a.Aliases, ", "))
			}
			for _, p := range a.Projects {
				fmt.Printf("  - %s\n", p.Title)
			}
		}
		return nil
	},
}

func init() {
	catalogCmd.Flags().String("file", "", "validate and print a catalog YAML file")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		for _, k := range config.ShowAll(cfg) {
			fmt.Printf("  %s = %s  %s\n", colorize(colorBold, k.Key), k.Value, colorize(colorDim, k.EnvVar))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value. Valid keys: " + strings.Join(config.ValidKeys(), ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if err := config.SetKey(key, value); err != nil {
			return err
		}
		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd, configSetCmd)
}
