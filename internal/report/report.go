// Package report renders a ranked board to files and terminals.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/yuin/goldmark"

	"github.com/ppiankov/strata/internal/model"
)

// Renderer turns a board into JSON, Markdown, HTML or a terminal summary
type Renderer struct {
	includeFooter bool
	now           func() time.Time
}

// Option configures a Renderer
type Option func(*Renderer)

// WithFooter toggles the generator footer in Markdown and HTML output
func WithFooter(enabled bool) Option {
	return func(r *Renderer) { r.includeFooter = enabled }
}

// WithClock overrides the reference time used for relative timestamps
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) { r.now = now }
}

// NewRenderer creates a renderer
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		includeFooter: true,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RenderJSON writes the board as indented JSON
func (r *Renderer) RenderJSON(board *model.Board, path string) error {
	data, err := json.MarshalIndent(board, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal board: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

// RenderMarkdown writes the Markdown board to path
func (r *Renderer) RenderMarkdown(board *model.Board, path string) error {
	return writeFile(path, []byte(r.Markdown(board)))
}

// RenderHTML writes a standalone HTML page to path
func (r *Renderer) RenderHTML(board *model.Board, path string) error {
	page, err := r.HTML(board)
	if err != nil {
		return err
	}
	return writeFile(path, page)
}

// Markdown returns the board as a Markdown document
func (r *Renderer) Markdown(board *model.Board) string {
	var b strings.Builder

	b.WriteString("# Strategic Board\n\n")
	if !board.GeneratedAt.IsZero() {
		fmt.Fprintf(&b, "Generated %s (%s)", r.relative(board.GeneratedAt), board.GeneratedAt.UTC().Format(time.RFC3339))
		if board.Backend != "" {
			fmt.Fprintf(&b, " using `%s`", board.Backend)
		}
		b.WriteString("\n\n")
	}

	if len(board.Stories) == 0 {
		b.WriteString("_No stories were ranked this cycle._\n\n")
	}

	for i, s := range board.Stories {
		fmt.Fprintf(&b, "## %d. %s\n\n", i+1, s.Title)
		fmt.Fprintf(&b, "**%s** · composite %.2f", s.Tier.Label(), s.CompositeScore)
		if s.Category != "" {
			fmt.Fprintf(&b, " · %s", s.Category)
		}
		b.WriteString("\n\n")

		if s.Takeaway != "" {
			fmt.Fprintf(&b, "> %s\n\n", s.Takeaway)
		}

		b.WriteString("| Impact | Timing | Players | Precedent |\n")
		b.WriteString("|---|---|---|---|\n")
		fmt.Fprintf(&b, "| %.2f | %.2f | %.2f | %.2f |\n\n",
			s.Scores.Impact, s.Scores.Timing, s.Scores.Players, s.Scores.Precedent)

		writeField(&b, "What", s.Breakdown.What)
		writeField(&b, "Why it matters", s.Breakdown.WhyItMatters)
		writeField(&b, "Timing", s.Breakdown.Timing)
		writeField(&b, "Implications", s.Breakdown.Implications)
		if len(s.Breakdown.Connected) > 0 {
			fmt.Fprintf(&b, "- **Connected:** %s\n", strings.Join(s.Breakdown.Connected, ", "))
		}
		b.WriteString("\n")

		if s.Source != "" {
			fmt.Fprintf(&b, "Source: <%s>", s.Source)
			if when := r.published(s.Timestamp); when != "" {
				fmt.Fprintf(&b, " · published %s", when)
			}
			b.WriteString("\n\n")
		}
	}

	if len(board.Sources) > 0 {
		b.WriteString("## Sources\n\n")
		b.WriteString("| Source | Kind | Stories | Status |\n")
		b.WriteString("|---|---|---|---|\n")
		for _, src := range board.Sources {
			status := "ok"
			if src.Failed() {
				status = "failed: " + strings.ReplaceAll(src.Error, "|", "/")
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", src.Name, src.Kind, humanize.Comma(int64(src.Stories)), status)
		}
		b.WriteString("\n")
	}

	if d := board.Dropped; d.Total() > 0 {
		fmt.Fprintf(&b, "Dropped %s stories: %d duplicate, %d malformed, %d rejected analyses, %d backend failures.\n\n",
			humanize.Comma(int64(d.Total())), d.Duplicate, d.Normalization, d.Extraction, d.Backend)
	}

	if r.includeFooter {
		b.WriteString("---\n\n")
		b.WriteString("_Scores are model estimates. Read the linked source before acting on them._\n")
	}

	return b.String()
}

// HTML renders the Markdown board through goldmark and wraps it in a page
func (r *Renderer) HTML(board *model.Board) ([]byte, error) {
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(r.Markdown(board)), &body); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&page, "<title>%s</title>\n", html.EscapeString("Strategic Board"))
	page.WriteString("</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}

// RenderSummary prints a compact ranking table to w
func (r *Renderer) RenderSummary(w io.Writer, board *model.Board) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintln(w, "  Strategic Board")
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintln(w)

	for i, s := range board.Stories {
		fmt.Fprintf(w, "  %2d. [%.2f] %-8s %s\n", i+1, s.CompositeScore, s.Tier, s.Title)
	}
	if len(board.Stories) == 0 {
		fmt.Fprintln(w, "  (no stories ranked)")
	}
	fmt.Fprintln(w)

	for _, src := range board.Sources {
		if src.Failed() {
			fmt.Fprintf(w, "  ✗ %s: %s\n", src.Name, src.Error)
		} else {
			fmt.Fprintf(w, "  ✓ %s: %d stories\n", src.Name, src.Stories)
		}
	}
	if d := board.Dropped; d.Total() > 0 {
		fmt.Fprintf(w, "  Dropped: %d (duplicate %d, normalization %d, extraction %d, backend %d)\n",
			d.Total(), d.Duplicate, d.Normalization, d.Extraction, d.Backend)
	}
	fmt.Fprintln(w)
}

func (r *Renderer) relative(t time.Time) string {
	return humanize.RelTime(t, r.now(), "ago", "from now")
}

// published formats an analysis timestamp; unparseable text is shown as is
func (r *Renderer) published(ts string) string {
	if ts == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return r.relative(t)
}

func writeField(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "- **%s:** %s\n", label, value)
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
