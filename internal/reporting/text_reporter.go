// internal/reporting/text_reporter.go
package reporting

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// TextReporter writes an indented geometry table per document as soon as
// it is written. Colors are only used when the writer is a terminal.
type TextReporter struct {
	writer io.WriteCloser
	mu     sync.Mutex

	title lipgloss.Style
	node  lipgloss.Style
	kind  lipgloss.Style
	rect  lipgloss.Style
	warn  lipgloss.Style
	faint lipgloss.Style
}

func NewTextReporter(writer io.WriteCloser) *TextReporter {
	// The renderer inspects the underlying file to detect a terminal.
	var out io.Writer = writer
	if nop, ok := writer.(*nopWriteCloser); ok {
		out = nop.Writer
	}
	re := lipgloss.NewRenderer(out)
	return &TextReporter{
		writer: writer,
		title:  re.NewStyle().Bold(true).Underline(true),
		node:   re.NewStyle().Foreground(lipgloss.Color("12")),
		kind:   re.NewStyle().Width(10),
		rect:   re.NewStyle().Foreground(lipgloss.Color("10")),
		warn:   re.NewStyle().Foreground(lipgloss.Color("11")),
		faint:  re.NewStyle().Faint(true),
	}
}

func (r *TextReporter) Write(report *Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var b strings.Builder
	b.WriteString(r.title.Render(fmt.Sprintf("%s (%s)", report.Document, report.Format)))
	b.WriteString(r.faint.Render(fmt.Sprintf("  viewport %gx%g %s, restyled %d, measured %d, arranged %d",
		report.Viewport.Width, report.Viewport.Height, report.Units,
		report.Stats.Restyled, report.Stats.Measured, report.Stats.Arranged)))
	b.WriteByte('\n')

	width := 0
	labels := make([]string, len(report.Nodes))
	for i, e := range report.Nodes {
		labels[i] = strings.Repeat("  ", e.Depth) + label(e)
		if w := lipgloss.Width(labels[i]); w > width {
			width = w
		}
	}
	for i, e := range report.Nodes {
		pad := strings.Repeat(" ", width-lipgloss.Width(labels[i])+2)
		b.WriteString(r.node.Render(labels[i]))
		b.WriteString(pad)
		b.WriteString(r.kind.Render(e.Kind))
		b.WriteString(r.rect.Render(fmt.Sprintf("%g,%g %gx%g", e.Bounds.X, e.Bounds.Y, e.Bounds.Width, e.Bounds.Height)))
		if e.Content != nil {
			b.WriteString(r.faint.Render(fmt.Sprintf("  content %gx%g", e.Content.Width, e.Content.Height)))
		}
		if e.Hidden {
			b.WriteString(r.faint.Render("  hidden"))
		}
		b.WriteByte('\n')
	}
	for _, u := range report.Unresolved {
		b.WriteString(r.warn.Render("unresolved: " + u))
		b.WriteByte('\n')
	}
	for _, w := range report.Warnings {
		b.WriteString(r.warn.Render("warning: " + w))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	if _, err := io.WriteString(r.writer, b.String()); err != nil {
		return fmt.Errorf("failed to write text report: %w", err)
	}
	return nil
}

func (r *TextReporter) Close() error {
	if err := r.writer.Close(); err != nil {
		return fmt.Errorf("failed to close output writer: %w", err)
	}
	return nil
}

// label renders a node as tag#name.class1.class2:state.
func label(e Entry) string {
	var b strings.Builder
	tag := e.Tag
	if tag == "" {
		tag = e.Kind
	}
	b.WriteString(tag)
	if e.Name != "" {
		b.WriteString("#" + e.Name)
	}
	for _, c := range e.Classes {
		b.WriteString("." + c)
	}
	if e.State != "" {
		b.WriteString(":" + e.State)
	}
	if e.Tag == "#text" && e.Text != "" {
		t := e.Text
		if len([]rune(t)) > 16 {
			t = string([]rune(t)[:16]) + "…"
		}
		b.WriteString(fmt.Sprintf(" %q", t))
	}
	return b.String()
}
