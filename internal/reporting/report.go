// internal/reporting/report.go
package reporting

import (
	"github.com/xkilldash9x/boxflow/internal/document"
	"github.com/xkilldash9x/boxflow/internal/layout"
	"github.com/xkilldash9x/boxflow/internal/style"
)

// Entry is the geometry of one node.
type Entry struct {
	ID      string   `json:"id"`
	Name    string   `json:"name,omitempty"`
	Tag     string   `json:"tag,omitempty"`
	Kind    string   `json:"kind"`
	Classes []string `json:"classes,omitempty"`
	State   string   `json:"state,omitempty"`
	Depth   int      `json:"depth"`
	Text    string   `json:"text,omitempty"`

	// Bounds is relative to the parent's border box, Absolute to the root.
	Bounds   Rect    `json:"bounds"`
	Absolute Rect    `json:"absolute"`
	Content  *Extent `json:"content,omitempty"`
	Hidden   bool    `json:"hidden,omitempty"`
}

type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Extent struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Stats mirrors the counters of the pass that produced the report.
type Stats struct {
	Restyled int `json:"restyled"`
	Measured int `json:"measured"`
	Arranged int `json:"arranged"`
}

// Report is the laid-out state of one document.
type Report struct {
	Document   string   `json:"document"`
	Format     string   `json:"format"`
	Viewport   Extent   `json:"viewport"`
	Units      string   `json:"units"`
	Stats      Stats    `json:"stats"`
	Unresolved []string `json:"unresolved,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
	Nodes      []Entry  `json:"nodes"`
}

// Options controls what Collect records.
type Options struct {
	// Pixels scales every rectangle by the context scale factor.
	Pixels bool
	// Hidden includes nodes removed from layout and their subtrees.
	Hidden bool
}

// Collect snapshots the geometry of a laid-out document.
func Collect(doc *document.Document, lctx *layout.Context, res layout.Result, opts Options) *Report {
	if lctx == nil {
		lctx = &layout.Context{}
	}
	conv := func(r layout.Rect) Rect {
		if opts.Pixels {
			r = lctx.ToPixels(r)
		}
		return Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
	}

	rep := &Report{
		Document: doc.Name(),
		Format:   doc.Format().String(),
		Viewport: Extent{Width: lctx.Viewport.Width, Height: lctx.Viewport.Height},
		Units:    "layout",
		Stats:    Stats{Restyled: res.Restyled, Measured: res.Measured, Arranged: res.Arranged},
		Nodes:    []Entry{},
	}
	if opts.Pixels {
		rep.Units = "px"
	}
	for _, u := range res.Unresolved {
		rep.Unresolved = append(rep.Unresolved, u.String())
	}
	for _, w := range doc.Warnings() {
		rep.Warnings = append(rep.Warnings, w.Error())
	}

	doc.Root().Walk(func(n *layout.Box, depth int) bool {
		hidden := !n.Style().Visible()
		if hidden && !opts.Hidden {
			return false
		}
		e := Entry{
			ID:       n.ID().String(),
			Name:     n.Name(),
			Tag:      doc.Tag(n),
			Kind:     n.Kind().String(),
			Classes:  n.Classes(),
			Depth:    depth,
			Text:     n.Text(),
			Bounds:   conv(n.Bounds()),
			Absolute: conv(n.AbsoluteBounds()),
			Hidden:   hidden,
		}
		if st := n.State(); st != style.StateNormal {
			e.State = st.String()
		}
		if n.Kind().Has(layout.Scrollable) {
			c := conv(layout.Rect{Width: n.ContentExtent().Width, Height: n.ContentExtent().Height})
			e.Content = &Extent{Width: c.Width, Height: c.Height}
		}
		rep.Nodes = append(rep.Nodes, e)
		return true
	})
	return rep
}
