package command

import (
	"fmt"
	"time"
)

// EffectKind tags an Effect.
type EffectKind int

const (
	EffectPerformSearch EffectKind = iota + 1
	EffectDisplayHelp
	EffectDisableVoiceControl
	EffectReportUnrecognized
	EffectShowPrompt
)

var effectNames = map[EffectKind]string{
	EffectPerformSearch:       "perform_search",
	EffectDisplayHelp:         "display_help",
	EffectDisableVoiceControl: "disable_voice_control",
	EffectReportUnrecognized:  "report_unrecognized",
	EffectShowPrompt:          "show_prompt",
}

func (k EffectKind) String() string {
	if name, ok := effectNames[k]; ok {
		return name
	}
	return fmt.Sprintf("effect(%d)", int(k))
}

func (k EffectKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *EffectKind) UnmarshalText(b []byte) error {
	for kind, name := range effectNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown effect kind %q", string(b))
}

// Effect is a side action requested by the executor or the recognition
// controller and carried out by the session or the rendering layer.
type Effect struct {
	Kind     EffectKind    `json:"kind"`
	Query    string        `json:"query,omitempty"`
	ScopeID  string        `json:"scope_id,omitempty"`
	Raw      string        `json:"raw,omitempty"`
	Text     string        `json:"text,omitempty"`
	Hint     string        `json:"hint,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

// PerformSearch requests a search; an empty scope searches everything.
func PerformSearch(query, scope string) Effect {
	return Effect{Kind: EffectPerformSearch, Query: query, ScopeID: scope}
}

func DisplayHelp() Effect {
	return Effect{Kind: EffectDisplayHelp}
}

func DisableVoiceControl() Effect {
	return Effect{Kind: EffectDisableVoiceControl}
}

func ReportUnrecognized(raw string) Effect {
	return Effect{Kind: EffectReportUnrecognized, Raw: raw}
}

// ShowPrompt is a transient notice the rendering layer dismisses after d.
func ShowPrompt(text, hint string, d time.Duration) Effect {
	return Effect{Kind: EffectShowPrompt, Text: text, Hint: hint, Duration: d}
}
