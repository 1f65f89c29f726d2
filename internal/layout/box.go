// internal/layout/box.go
package layout

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/xkilldash9x/boxflow/internal/style"
)

var (
	// ErrReentrantLayout is returned when Layout is called while a pass is running.
	ErrReentrantLayout = errors.New("layout: pass already in progress")
	// ErrCyclicMutation is the panic value (wrapped) when a node would become its own ancestor.
	ErrCyclicMutation = errors.New("layout: cyclic structural mutation")
)

// Phase is the per-node layout state.
type Phase uint8

const (
	PhaseDirty Phase = iota
	PhaseMeasuring
	PhaseMeasured
	PhaseArranging
	PhaseSettled
)

func (p Phase) String() string {
	switch p {
	case PhaseMeasuring:
		return "measuring"
	case PhaseMeasured:
		return "measured"
	case PhaseArranging:
		return "arranging"
	case PhaseSettled:
		return "settled"
	}
	return "dirty"
}

// Box is a node of the view tree. A Box is owned by its parent; the tree
// is owned by the root, which a Scheduler drives.
//
// Boxes are not safe for concurrent use.
type Box struct {
	id   uuid.UUID
	name string
	kind Kind

	classes  style.ClassSet
	state    style.State
	inline   style.PropertyMap
	computed style.PropertyMap

	parent   *Box
	children []*Box
	sched    *Scheduler // set on the root only

	text      string
	intrinsic Extent

	phase      Phase
	styleDirty bool
	laidOut    bool

	// Measure pass cache.
	measured     Extent
	measureAvail Extent
	measureDef   [2]bool

	// Arrange pass output.
	bounds   Rect
	definite [2]bool
	content  Extent
}

// NewBox creates a detached node.
func NewBox(kind Kind, name string, classes ...string) *Box {
	return &Box{
		id:         uuid.New(),
		name:       name,
		kind:       kind,
		classes:    style.NewClassSet(classes...),
		state:      style.StateNormal,
		computed:   style.PropertyMap{},
		styleDirty: true,
	}
}

func (b *Box) ID() uuid.UUID           { return b.id }
func (b *Box) Name() string            { return b.name }
func (b *Box) Kind() Kind              { return b.kind }
func (b *Box) Classes() style.ClassSet { return b.classes }
func (b *Box) State() style.State      { return b.state }
func (b *Box) Parent() *Box            { return b.parent }
func (b *Box) Text() string            { return b.text }
func (b *Box) IntrinsicSize() Extent   { return b.intrinsic }
func (b *Box) Phase() Phase            { return b.phase }

// Dirty reports whether the geometry is stale.
func (b *Box) Dirty() bool { return b.phase != PhaseSettled }

// Children returns a copy of the child list.
func (b *Box) Children() []*Box {
	out := make([]*Box, len(b.children))
	copy(out, b.children)
	return out
}

// Style returns a copy of the resolved properties (cascade plus inline).
func (b *Box) Style() style.PropertyMap { return b.computed.Clone() }

// Inline returns a copy of the inline declarations.
func (b *Box) Inline() style.PropertyMap { return b.inline.Clone() }

// Bounds is the border box relative to the parent's border box.
func (b *Box) Bounds() Rect { return b.bounds }

// AbsoluteBounds is the border box relative to the root's origin.
func (b *Box) AbsoluteBounds() Rect {
	r := b.bounds
	for p := b.parent; p != nil; p = p.parent {
		r = r.Translate(p.bounds.X, p.bounds.Y)
	}
	return r
}

// ContentExtent is the extent of the children's margin boxes plus padding.
// Only recorded for scrollable kinds.
func (b *Box) ContentExtent() Extent { return b.content }

// Depth is 0 for the root.
func (b *Box) Depth() int {
	d := 0
	for p := b.parent; p != nil; p = p.parent {
		d++
	}
	return d
}

func (b *Box) Root() *Box {
	r := b
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// Walk visits b and its descendants in pre-order. Returning false skips the subtree.
func (b *Box) Walk(fn func(n *Box, depth int) bool) {
	b.walk(fn, 0)
}

func (b *Box) walk(fn func(n *Box, depth int) bool, depth int) {
	if !fn(b, depth) {
		return
	}
	for _, c := range b.children {
		c.walk(fn, depth+1)
	}
}

// HitTest returns the deepest visible node containing the point. The point
// is in the coordinate space of b's parent (the viewport for the root).
func (b *Box) HitTest(x, y float64) *Box {
	if !b.computed.Visible() || !b.bounds.Contains(x, y) {
		return nil
	}
	lx, ly := x-b.bounds.X, y-b.bounds.Y
	for i := len(b.children) - 1; i >= 0; i-- {
		if hit := b.children[i].HitTest(lx, ly); hit != nil {
			return hit
		}
	}
	return b
}

func (b *Box) String() string {
	if b.name != "" {
		return fmt.Sprintf("%s#%s", b.kind, b.name)
	}
	return fmt.Sprintf("%s@%s", b.kind, b.id.String()[:8])
}

// -- Mutation API --
//
// Every mutation marks the node dirty. While the owning scheduler is inside
// a pass, mutations are queued and applied at the start of the next one.

func (b *Box) scheduler() *Scheduler {
	return b.Root().sched
}

// deferred reports whether the operation was queued instead of applied.
func (b *Box) deferred(key mutationKey, op func()) bool {
	s := b.scheduler()
	if s == nil || !s.inPass {
		return false
	}
	s.enqueue(key, op)
	return true
}

func (b *Box) AddClass(token string) {
	if b.deferred(mutationKey{}, func() { b.AddClass(token) }) {
		return
	}
	next := b.classes.With(token)
	if len(next) == len(b.classes) {
		return
	}
	b.classes = next
	b.invalidateStyle()
}

func (b *Box) RemoveClass(token string) {
	if b.deferred(mutationKey{}, func() { b.RemoveClass(token) }) {
		return
	}
	next := b.classes.Without(token)
	if len(next) == len(b.classes) {
		return
	}
	b.classes = next
	b.invalidateStyle()
}

// SetClasses replaces the class set.
func (b *Box) SetClasses(tokens ...string) {
	if b.deferred(mutationKey{}, func() { b.SetClasses(tokens...) }) {
		return
	}
	b.classes = style.NewClassSet(tokens...)
	b.invalidateStyle()
}

// SetState changes the pseudo-state. Queued calls for the same node coalesce.
func (b *Box) SetState(st style.State) {
	if st == style.StateNone {
		st = style.StateNormal
	}
	if b.deferred(mutationKey{box: b, op: "state"}, func() { b.SetState(st) }) {
		return
	}
	if st == b.state {
		return
	}
	b.state = st
	b.invalidateStyle()
}

// SetInline replaces the inline declarations, which override the cascade.
func (b *Box) SetInline(props style.PropertyMap) {
	props = props.Clone()
	if b.deferred(mutationKey{box: b, op: "inline"}, func() { b.SetInline(props) }) {
		return
	}
	b.inline = props
	b.invalidateStyle()
}

// SetText changes the text content of a node.
func (b *Box) SetText(text string) {
	if b.deferred(mutationKey{box: b, op: "text"}, func() { b.SetText(text) }) {
		return
	}
	if text == b.text {
		return
	}
	b.text = text
	b.markDirty()
}

// SetIntrinsicSize sets the natural size reported for images.
func (b *Box) SetIntrinsicSize(e Extent) {
	if b.deferred(mutationKey{box: b, op: "intrinsic"}, func() { b.SetIntrinsicSize(e) }) {
		return
	}
	if e == b.intrinsic {
		return
	}
	b.intrinsic = e
	b.markDirty()
}

// AppendChild attaches child as the last child, detaching it from any
// previous parent. It panics with ErrCyclicMutation if child is b or an
// ancestor of b.
func (b *Box) AppendChild(child *Box) {
	b.insert(-1, child)
}

// InsertChild attaches child at index, clamped to the valid range.
func (b *Box) InsertChild(index int, child *Box) {
	if index < 0 {
		index = 0
	}
	b.insert(index, child)
}

// insert appends when index is negative.
func (b *Box) insert(index int, child *Box) {
	b.checkCycle(child)
	if b.deferred(mutationKey{}, func() { b.insert(index, child) }) {
		return
	}
	if old := child.parent; old != nil {
		old.detach(child)
		old.markDirty()
	}
	if child.sched != nil {
		child.sched.release()
	}
	if index < 0 || index > len(b.children) {
		index = len(b.children)
	}
	b.children = append(b.children, nil)
	copy(b.children[index+1:], b.children[index:])
	b.children[index] = child
	child.parent = b

	child.Walk(func(n *Box, _ int) bool {
		n.phase = PhaseDirty
		n.styleDirty = true
		n.laidOut = false
		return true
	})
	b.markDirty()
}

// RemoveChild detaches child. It is a no-op if child is not a child of b.
func (b *Box) RemoveChild(child *Box) {
	if b.deferred(mutationKey{}, func() { b.RemoveChild(child) }) {
		return
	}
	if child.parent != b {
		return
	}
	b.detach(child)
	b.markDirty()
}

func (b *Box) detach(child *Box) {
	for i, c := range b.children {
		if c == child {
			b.children = append(b.children[:i], b.children[i+1:]...)
			break
		}
	}
	child.parent = nil
	child.laidOut = false
}

func (b *Box) checkCycle(child *Box) {
	for n := b; n != nil; n = n.parent {
		if n == child {
			panic(fmt.Errorf("%w: %s cannot become a child of its descendant %s", ErrCyclicMutation, child, b))
		}
	}
}

func (b *Box) invalidateStyle() {
	b.styleDirty = true
	b.markDirty()
}

// markDirty sets b dirty and propagates to ancestors according to the
// scheduler's policy. Without a scheduler dirtiness reaches the root.
func (b *Box) markDirty() {
	b.phase = PhaseDirty
	s := b.scheduler()
	policy := PropagateToRoot
	if s != nil {
		policy = s.policy
	}

	n := b
	for p := b.parent; p != nil; p = p.parent {
		p.phase = PhaseDirty
		n = p
		if policy == PropagateToBoundary && p.isLayoutBoundary() {
			break
		}
	}
	if s != nil {
		s.schedule(n)
	}
}

// isLayoutBoundary reports whether the node's own size cannot be affected
// by changes inside its subtree.
func (b *Box) isLayoutBoundary() bool {
	if !b.laidOut || b.styleDirty {
		return false
	}
	w := b.computed.Size(style.PropWidth)
	h := b.computed.Size(style.PropHeight)
	if w.IsContentSized() || h.IsContentSized() {
		return false
	}
	basis := b.computed.Size(style.PropFlexBasis)
	return basis.Kind != style.SizeWrap && basis.Kind != style.SizeNone
}

// restyle recomputes the resolved properties from the sheet and inline map.
func (b *Box) restyle(sheet *style.Sheet) {
	var m style.PropertyMap
	if sheet != nil {
		m = sheet.Resolve(b.classes, b.state)
	} else {
		m = style.PropertyMap{}
	}
	m.Merge(b.inline)
	b.computed = m
	b.styleDirty = false
}

func (b *Box) margins() Edges {
	return Edges{
		Top:    b.computed.Length(style.PropMarginTop),
		Right:  b.computed.Length(style.PropMarginRight),
		Bottom: b.computed.Length(style.PropMarginBottom),
		Left:   b.computed.Length(style.PropMarginLeft),
	}
}

func (b *Box) paddings() Edges {
	return Edges{
		Top:    b.computed.Length(style.PropPaddingTop),
		Right:  b.computed.Length(style.PropPaddingRight),
		Bottom: b.computed.Length(style.PropPaddingBottom),
		Left:   b.computed.Length(style.PropPaddingLeft),
	}
}

func sizeProp(axis Axis) style.Property {
	if axis == Horizontal {
		return style.PropWidth
	}
	return style.PropHeight
}

func (b *Box) sizeStyle(axis Axis) style.Size {
	return b.computed.Size(sizeProp(axis))
}

// clampLimits applies min/max for axis. Ratio limits need a known parent extent.
func (b *Box) clampLimits(axis Axis, v, parentExtent float64, parentKnown bool) float64 {
	minP, maxP := style.PropMinWidth, style.PropMaxWidth
	if axis == Vertical {
		minP, maxP = style.PropMinHeight, style.PropMaxHeight
	}
	if hi, ok := b.computed.Size(maxP).Resolve(parentExtent, parentKnown, 0); ok && v > hi {
		v = hi
	}
	if lo, ok := b.computed.Size(minP).Resolve(parentExtent, parentKnown, 0); ok && v < lo {
		v = lo
	}
	if v < 0 {
		v = 0
	}
	return v
}

func (b *Box) visibleChildren() []*Box {
	out := make([]*Box, 0, len(b.children))
	for _, c := range b.children {
		if c.computed.Visible() {
			out = append(out, c)
		}
	}
	return out
}
