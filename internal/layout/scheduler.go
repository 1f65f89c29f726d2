// internal/layout/scheduler.go
package layout

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/boxflow/internal/style"
)

// ErrNotRoot is returned when the scheduler's root was attached under another node.
var ErrNotRoot = errors.New("layout: scheduler root is no longer a root")

// Policy decides how far dirtiness travels up the tree.
type Policy int

const (
	// PropagateToBoundary stops at the first laid-out ancestor whose size
	// does not depend on its content. That ancestor is re-laid out alone.
	PropagateToBoundary Policy = iota
	// PropagateToRoot always re-lays out from the root.
	PropagateToRoot
)

func (p Policy) String() string {
	if p == PropagateToRoot {
		return "root"
	}
	return "boundary"
}

// ParsePolicy accepts "boundary" and "root".
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "boundary":
		return PropagateToBoundary, nil
	case "root":
		return PropagateToRoot, nil
	}
	return PropagateToBoundary, fmt.Errorf("unknown dirty propagation policy %q", s)
}

// Context carries everything a pass needs from the host.
type Context struct {
	Viewport Extent
	// Scale converts layout units to physical pixels. Zero means 1.
	Scale float64
	// Measurer sizes measurable leaves. Nil falls back to IntrinsicMeasurer.
	Measurer Measurer
	// Debug logs every unresolvable constraint at Warn level.
	Debug bool
}

func (c *Context) scale() float64 {
	if c == nil || c.Scale <= 0 || math.IsNaN(c.Scale) || math.IsInf(c.Scale, 0) {
		return 1
	}
	return c.Scale
}

// ToPixels converts a rectangle in layout units to physical pixels.
func (c *Context) ToPixels(r Rect) Rect {
	return r.Scale(c.scale())
}

// UnresolvedConstraint records a parent-relative size that had no definite
// parent extent to resolve against and was treated as zero.
type UnresolvedConstraint struct {
	Box      *Box
	Property style.Property
	Size     style.Size
}

func (u UnresolvedConstraint) String() string {
	return fmt.Sprintf("%s: %s=%s against an indefinite parent extent", u.Box, u.Property, u.Size)
}

// Result summarizes a layout pass.
type Result struct {
	Restyled   int
	Measured   int
	Arranged   int
	Unresolved []UnresolvedConstraint
}

// Option configures a Scheduler.
type Option func(*Scheduler)

func WithPolicy(p Policy) Option {
	return func(s *Scheduler) { s.policy = p }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

type mutationKey struct {
	box *Box
	op  string
}

type queuedMutation struct {
	key mutationKey
	op  func()
}

// Scheduler drives two-pass layout of one tree. It is single-threaded and
// non-reentrant: Layout must not be called from a Measurer, and mutations
// made while a pass runs are queued for the next pass.
type Scheduler struct {
	root   *Box
	sheet  *style.Sheet
	policy Policy
	logger *zap.Logger

	inPass   bool
	released bool
	queue    []queuedMutation
	coalesce map[mutationKey]int

	pending map[*Box]struct{}

	ran          bool
	sheetGen     uint64
	lastViewport Extent
}

// NewScheduler takes ownership of root. A nil sheet behaves as an empty one.
func NewScheduler(root *Box, sheet *style.Sheet, opts ...Option) *Scheduler {
	if sheet == nil {
		sheet = style.NewSheet(nil)
	}
	s := &Scheduler{
		root:     root,
		sheet:    sheet,
		logger:   zap.NewNop(),
		coalesce: make(map[mutationKey]int),
		pending:  make(map[*Box]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("layout")

	if root.sched != nil {
		root.sched.release()
	}
	root.sched = s
	s.pending[root] = struct{}{}
	return s
}

func (s *Scheduler) Root() *Box          { return s.root }
func (s *Scheduler) Sheet() *style.Sheet { return s.sheet }
func (s *Scheduler) Policy() Policy      { return s.policy }

// Queued returns the number of mutations waiting for the next pass.
func (s *Scheduler) Queued() int { return len(s.queue) }

// InPass reports whether a pass is running.
func (s *Scheduler) InPass() bool { return s.inPass }

func (s *Scheduler) release() {
	s.released = true
	if s.root != nil && s.root.sched == s {
		s.root.sched = nil
	}
}

func (s *Scheduler) enqueue(key mutationKey, op func()) {
	if key.box != nil {
		if i, ok := s.coalesce[key]; ok {
			s.queue[i].op = op
			return
		}
		s.coalesce[key] = len(s.queue)
	}
	s.queue = append(s.queue, queuedMutation{key: key, op: op})
}

func (s *Scheduler) drain() int {
	q := s.queue
	s.queue = nil
	s.coalesce = make(map[mutationKey]int)
	for _, m := range q {
		m.op()
	}
	return len(q)
}

// schedule registers n as the top of a dirty region.
func (s *Scheduler) schedule(n *Box) {
	s.pending[n] = struct{}{}
}

// Layout runs one pass that resolves every dirty region. Geometry of
// settled subtrees is left untouched.
func (s *Scheduler) Layout(lctx *Context) (Result, error) {
	if s.inPass {
		return Result{}, ErrReentrantLayout
	}
	if s.released || s.root.parent != nil {
		return Result{}, ErrNotRoot
	}
	if lctx == nil {
		lctx = &Context{}
	}
	vp := Extent{Width: sanitize(lctx.Viewport.Width), Height: sanitize(lctx.Viewport.Height)}

	start := time.Now()
	applied := s.drain()

	s.inPass = true
	defer func() { s.inPass = false }()

	p := &pass{sched: s, lctx: lctx, logger: s.logger, measurer: lctx.Measurer}
	if p.measurer == nil {
		p.measurer = IntrinsicMeasurer{}
	}

	if gen := s.sheet.Generation(); !s.ran || gen != s.sheetGen {
		s.root.Walk(func(n *Box, _ int) bool {
			n.styleDirty = true
			n.phase = PhaseDirty
			return true
		})
		s.sheetGen = gen
		s.pending[s.root] = struct{}{}
	}
	if !s.ran || vp != s.lastViewport {
		s.pending[s.root] = struct{}{}
	}

	for _, n := range s.regions() {
		if n == s.root {
			p.layoutRoot(vp)
			continue
		}
		if n.phase != PhaseSettled {
			p.relayout(n)
		}
	}
	s.pending = make(map[*Box]struct{})
	s.ran = true
	s.lastViewport = vp

	s.logger.Debug("Layout pass complete",
		zap.Int("mutations_applied", applied),
		zap.Int("restyled", p.res.Restyled),
		zap.Int("measured", p.res.Measured),
		zap.Int("arranged", p.res.Arranged),
		zap.Int("unresolved", len(p.res.Unresolved)),
		zap.Duration("elapsed", time.Since(start)))
	return p.res, nil
}

// regions returns pending dirty-region tops still attached to this tree,
// shallowest first so that an enclosing region settles its descendants.
func (s *Scheduler) regions() []*Box {
	type entry struct {
		n     *Box
		depth int
	}
	entries := make([]entry, 0, len(s.pending))
	for n := range s.pending {
		if n.Root() != s.root {
			continue
		}
		entries = append(entries, entry{n, n.Depth()})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].depth != entries[j].depth {
			return entries[i].depth < entries[j].depth
		}
		return entries[i].n.id.String() < entries[j].n.id.String()
	})
	out := make([]*Box, len(entries))
	for i, e := range entries {
		out[i] = e.n
	}
	return out
}

// pass holds the state of one Layout call.
type pass struct {
	sched    *Scheduler
	lctx     *Context
	logger   *zap.Logger
	measurer Measurer
	res      Result
}

func (p *pass) unresolved(b *Box, prop style.Property, sz style.Size) {
	p.res.Unresolved = append(p.res.Unresolved, UnresolvedConstraint{Box: b, Property: prop, Size: sz})
	if p.lctx.Debug {
		p.logger.Warn("Unresolvable constraint treated as zero",
			zap.Stringer("node", b),
			zap.String("property", prop.String()),
			zap.Stringer("value", sz))
	}
}

func (p *pass) restyle(b *Box) {
	if b.styleDirty {
		b.restyle(p.sched.sheet)
		p.res.Restyled++
	}
}

// -- Measure pass (bottom-up) --

// measure computes b's border-box size under a loose hypothesis. avail is
// the parent's inner extent (+Inf when unbounded); def tells whether each
// axis of it may be used to resolve parent-relative sizes.
func (p *pass) measure(b *Box, avail Extent, def [2]bool) Extent {
	p.restyle(b)
	if (b.phase == PhaseSettled || b.phase == PhaseMeasured) && b.measureAvail == avail && b.measureDef == def {
		return b.measured
	}
	b.phase = PhaseMeasuring
	b.measureAvail, b.measureDef = avail, def

	if !b.computed.Visible() {
		b.measured = Extent{}
		b.phase = PhaseMeasured
		p.res.Measured++
		return b.measured
	}

	margin, pad := b.margins(), b.paddings()
	var size Extent
	var known [2]bool
	for _, ax := range [...]Axis{Horizontal, Vertical} {
		sz := b.sizeStyle(ax)
		a := avail.Get(ax)
		if v, ok := sz.Resolve(a, def[ax], margin.Sum(ax)); ok {
			size.Set(ax, b.clampLimits(ax, v, a, def[ax]))
			known[ax] = true
		} else if sz.IsParentRelative() {
			size.Set(ax, b.clampLimits(ax, 0, a, def[ax]))
			known[ax] = true
		}
	}

	// Children see this node's inner extent: exact where known, otherwise
	// the loose bound inherited from avail.
	var inner Extent
	for _, ax := range [...]Axis{Horizontal, Vertical} {
		if known[ax] {
			inner.Set(ax, math.Max(0, size.Get(ax)-pad.Sum(ax)))
		} else if a := avail.Get(ax); !isUnbounded(a) {
			inner.Set(ax, math.Max(0, a-margin.Sum(ax)-pad.Sum(ax)))
		} else {
			inner.Set(ax, math.Inf(1))
		}
	}
	for _, c := range b.children {
		p.restyle(c)
	}
	children := b.visibleChildren()
	for _, c := range children {
		p.measure(c, inner, known)
	}

	if !known[Horizontal] || !known[Vertical] {
		var content Extent
		if b.kind.Has(Measurable) && len(children) == 0 {
			w, h := p.measurer.MeasureContent(b, inner.Width, inner.Height)
			content = Extent{Width: sanitize(w), Height: sanitize(h)}
		} else {
			content = p.contentExtent(b, inner, known)
		}
		for _, ax := range [...]Axis{Horizontal, Vertical} {
			if !known[ax] {
				size.Set(ax, b.clampLimits(ax, content.Get(ax)+pad.Sum(ax), avail.Get(ax), def[ax]))
			}
		}
	}

	b.measured = size
	b.phase = PhaseMeasured
	p.res.Measured++
	return size
}

// -- Arrange pass (top-down) --

// layoutRoot sizes the root against the viewport and arranges the tree.
func (p *pass) layoutRoot(vp Extent) {
	r := p.sched.root
	full := [2]bool{true, true}
	p.measure(r, vp, full)

	margin := r.margins()
	var rect Rect
	var def [2]bool
	for _, ax := range [...]Axis{Horizontal, Vertical} {
		sz := r.sizeStyle(ax)
		v, ok := sz.Resolve(vp.Get(ax), true, margin.Sum(ax))
		if !ok {
			v = r.measured.Get(ax)
		}
		rect.SetLength(ax, r.clampLimits(ax, v, vp.Get(ax), true))
		rect.SetStart(ax, margin.Leading(ax))
		def[ax] = ok
	}
	r.bounds = rect
	r.definite = def
	p.arrange(r)
}

// relayout re-lays out a boundary in place: its size is independent of
// its content, so its own rectangle is kept.
func (p *pass) relayout(b *Box) {
	p.measure(b, b.measureAvail, b.measureDef)
	p.arrange(b)
}

// assign gives c its rectangle and arranges it unless nothing it depends on changed.
func (p *pass) assign(c *Box, r Rect, def [2]bool) {
	unchanged := c.phase == PhaseSettled && c.laidOut &&
		c.bounds.Size() == r.Size() && c.definite == def
	c.bounds = r
	if unchanged {
		return
	}
	c.definite = def
	p.arrange(c)
}

func (p *pass) arrange(b *Box) {
	b.phase = PhaseArranging
	if b.computed.Visible() {
		pad := b.paddings()
		inner := Extent{
			Width:  math.Max(0, b.bounds.Width-pad.Sum(Horizontal)),
			Height: math.Max(0, b.bounds.Height-pad.Sum(Vertical)),
		}
		p.layoutFlex(b, inner, pad)
		if b.kind.Has(Scrollable) {
			b.content = scrollExtent(b, pad)
		}
	}
	b.laidOut = true
	b.phase = PhaseSettled
	p.res.Arranged++
}

// scrollExtent is the union of the children's margin boxes, padded, and
// never smaller than the node itself.
func scrollExtent(b *Box, pad Edges) Extent {
	ext := Extent{Width: b.bounds.Width, Height: b.bounds.Height}
	for _, c := range b.children {
		if !c.computed.Visible() {
			continue
		}
		m := c.margins()
		ext.Width = math.Max(ext.Width, c.bounds.X+c.bounds.Width+m.Right+pad.Right)
		ext.Height = math.Max(ext.Height, c.bounds.Y+c.bounds.Height+m.Bottom+pad.Bottom)
	}
	return ext
}
