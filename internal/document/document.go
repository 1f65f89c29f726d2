// internal/document/document.go
package document

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/antchfx/htmlquery"
	"github.com/beevik/etree"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/xkilldash9x/boxflow/internal/layout"
	"github.com/xkilldash9x/boxflow/internal/style"
)

var (
	// ErrUnknownElement is recorded as a warning for elements outside the view vocabulary.
	ErrUnknownElement = errors.New("document: unknown element")
	// ErrUnsupportedFormat is returned for files that are neither markup nor XML.
	ErrUnsupportedFormat = errors.New("document: unsupported format")
	// ErrEmptyDocument is returned when a document has no view element.
	ErrEmptyDocument = errors.New("document: no view element")
)

// Format is the source syntax of a document.
type Format int

const (
	FormatHTML Format = iota
	FormatXML
)

func (f Format) String() string {
	if f == FormatXML {
		return "xml"
	}
	return "html"
}

// DetectFormat picks the format from a file extension.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm", ".xhtml":
		return FormatHTML, nil
	case ".xml", ".view":
		return FormatXML, nil
	}
	return FormatHTML, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
}

// Option configures a Document.
type Option func(*options)

type options struct {
	logger *zap.Logger
	policy layout.Policy
	name   string
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithPolicy sets the dirty propagation policy of the document's scheduler.
func WithPolicy(p layout.Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithName labels the document in logs and reports. Load uses the file path.
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// Document is a view tree loaded from markup, together with its style
// sheet and the scheduler that lays it out. A Document is not safe for
// concurrent use; distinct documents are independent.
type Document struct {
	name   string
	format Format
	logger *zap.Logger

	root  *layout.Box
	sheet *style.Sheet
	sched *layout.Scheduler

	htmlRoot *html.Node
	xmlDoc   *etree.Document

	bySource map[any]*layout.Box
	byID     map[string]*layout.Box
	tags     map[*layout.Box]string
	styles   []string
	warnings []error
}

// Load reads a document from disk, choosing the parser from the extension.
func Load(path string, opts ...Option) (*Document, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	defer f.Close()

	opts = append([]Option{WithName(path)}, opts...)
	switch format {
	case FormatXML:
		return ParseXML(f, opts...)
	default:
		return ParseHTML(f, opts...)
	}
}

func newDocument(format Format, opts []Option) *Document {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger.Named("document")
	if o.name != "" {
		logger = logger.With(zap.String("document", o.name))
	}
	return &Document{
		name:     o.name,
		format:   format,
		logger:   logger,
		sheet:    style.NewSheet(o.logger),
		bySource: make(map[any]*layout.Box),
		byID:     make(map[string]*layout.Box),
		tags:     make(map[*layout.Box]string),
	}
}

// finish compiles the collected style elements, builds the box tree from
// the neutral element tree and wires the scheduler.
func (d *Document) finish(top *item, opts []Option) (*Document, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	for _, src := range d.styles {
		if err := d.sheet.AddSource(src); err != nil {
			for _, e := range multierr.Errors(err) {
				d.warn(fmt.Errorf("style element: %w", e))
			}
		}
	}

	root := d.build(top)
	if root == nil {
		return nil, ErrEmptyDocument
	}
	d.root = root
	d.sched = layout.NewScheduler(root, d.sheet,
		layout.WithLogger(d.logger), layout.WithPolicy(o.policy))

	d.logger.Debug("Document loaded",
		zap.Stringer("format", d.format),
		zap.Int("nodes", len(d.tags)),
		zap.Int("rules", d.sheet.Len()),
		zap.Int("warnings", len(d.warnings)))
	return d, nil
}

func (d *Document) warn(err error) {
	d.warnings = append(d.warnings, err)
	d.logger.Warn("Document problem", zap.Error(err))
}

func (d *Document) Name() string                 { return d.name }
func (d *Document) Format() Format               { return d.format }
func (d *Document) Root() *layout.Box            { return d.root }
func (d *Document) Sheet() *style.Sheet          { return d.sheet }
func (d *Document) Scheduler() *layout.Scheduler { return d.sched }

// Warnings returns every recoverable problem found while loading.
func (d *Document) Warnings() []error {
	out := make([]error, len(d.warnings))
	copy(out, d.warnings)
	return out
}

// Lookup returns the node declared with the given id attribute.
func (d *Document) Lookup(id string) *layout.Box { return d.byID[id] }

// Tag returns the element name a node was created from. Implicit text
// nodes report "#text".
func (d *Document) Tag(b *layout.Box) string { return d.tags[b] }

// Nodes returns every node in pre-order.
func (d *Document) Nodes() []*layout.Box {
	var out []*layout.Box
	d.root.Walk(func(n *layout.Box, _ int) bool {
		out = append(out, n)
		return true
	})
	return out
}

// AddStylesheet appends rules to the document's sheet. Every node is
// restyled on the next layout pass.
func (d *Document) AddStylesheet(src string) error {
	return d.sheet.AddSource(src)
}

// Layout runs a layout pass over the document.
func (d *Document) Layout(lctx *layout.Context) (layout.Result, error) {
	res, err := d.sched.Layout(lctx)
	if err != nil {
		return res, fmt.Errorf("layout of %s failed: %w", d.describe(), err)
	}
	return res, nil
}

// Query returns the nodes selected by expr: an XPath expression for markup
// documents, an etree path for XML documents. Selected elements that are
// not part of the view tree (style elements, unknown tags) are skipped.
func (d *Document) Query(expr string) ([]*layout.Box, error) {
	var out []*layout.Box
	switch d.format {
	case FormatXML:
		path, err := etree.CompilePath(expr)
		if err != nil {
			return nil, fmt.Errorf("invalid path %q: %w", expr, err)
		}
		for _, el := range d.xmlDoc.FindElementsPath(path) {
			if b, ok := d.bySource[el]; ok {
				out = append(out, b)
			}
		}
	default:
		nodes, err := htmlquery.QueryAll(d.htmlRoot, expr)
		if err != nil {
			return nil, fmt.Errorf("invalid xpath %q: %w", expr, err)
		}
		for _, n := range nodes {
			if b, ok := d.bySource[n]; ok {
				out = append(out, b)
			}
		}
	}
	return out, nil
}

func (d *Document) describe() string {
	if d.name != "" {
		return d.name
	}
	return d.format.String() + " document"
}
