package ingest

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"golang.org/x/net/html"

	"github.com/kalambet/helm/internal/storage"
)

// MaxBodyBytes caps how much of a fetched document is read.
const MaxBodyBytes = 4 << 20

// Extractor turns a stored document into searchable plain text.
type Extractor struct {
	client  *http.Client
	maxBody int64
	pdfText func([]byte) (string, error)
}

// NewExtractor creates an Extractor. A nil client uses one with a 30s timeout.
func NewExtractor(client *http.Client) *Extractor {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Extractor{client: client, maxBody: MaxBodyBytes, pdfText: PDFText}
}

// Extract returns the text of doc: text documents as-is, PDFs via the PDF
// reader, URLs fetched and converted according to their content type.
func (e *Extractor) Extract(ctx context.Context, doc storage.Document) (string, error) {
	switch doc.Kind {
	case storage.KindText:
		return collapse(string(doc.Content)), nil
	case storage.KindPDF:
		return e.pdfText(doc.Content)
	case storage.KindURL:
		return e.fetch(ctx, doc.Source)
	default:
		return "", fmt.Errorf("unknown document kind %q", doc.Kind)
	}
}

func (e *Extractor) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/html,text/plain,application/pdf;q=0.9,*/*;q=0.5")

	resp, err := e.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetching %s: HTTP %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBody))
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", url, err)
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	switch {
	case mediaType == "application/pdf":
		return e.pdfText(body)
	case mediaType == "text/plain", mediaType == "text/markdown":
		return collapse(string(body)), nil
	default:
		return HTMLText(bytes.NewReader(body))
	}
}

// HTMLText returns the visible text of an HTML document.
func HTMLText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parsing html: %w", err)
	}
	var sb strings.Builder
	visibleText(doc, &sb)
	return collapse(sb.String()), nil
}

func visibleText(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		sb.WriteString(n.Data)
		sb.WriteByte(' ')
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "template", "svg", "iframe", "head":
			return
		}
	case html.CommentNode:
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		visibleText(c, sb)
	}
}

// PDFText returns the plain text of every page of a PDF.
func PDFText(data []byte) (_ string, err error) {
	// The pdf package panics on some malformed inputs.
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("reading pdf: %v", p)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	text, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, text); err != nil {
		return "", fmt.Errorf("reading pdf text: %w", err)
	}
	return collapse(buf.String()), nil
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
