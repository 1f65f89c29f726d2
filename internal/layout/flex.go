// internal/layout/flex.go
package layout

import (
	"math"

	"github.com/xkilldash9x/boxflow/internal/style"
)

// -- Flex container algorithm --

// flexFrame maps a container's direction and wrap mode onto physical axes.
type flexFrame struct {
	main, cross  Axis
	reverse      bool // row-reverse / column-reverse
	crossReverse bool // wrap-reverse
	wrap         style.FlexWrap
}

func newFlexFrame(m style.PropertyMap) flexFrame {
	dir := m.Direction()
	f := flexFrame{main: Horizontal, cross: Vertical, reverse: dir.IsReverse(), wrap: m.Wrap()}
	if !dir.IsRow() {
		f.main, f.cross = Vertical, Horizontal
	}
	f.crossReverse = f.wrap == style.WrapReverse
	return f
}

type flexItem struct {
	box    *Box
	margin Edges

	base float64 // flex base size, may be negative
	hypo float64 // base clamped by min/max and floored at zero
	main float64 // final main size

	cross        float64
	crossContent bool // cross size comes from content, so stretch applies

	mainPos float64 // offset from the container's border box on the main axis

	mainFixed  bool
	crossFixed bool
	flexed     bool
	stretched  bool
}

func (it *flexItem) outerMain(axis Axis) float64 {
	return it.main + it.margin.Sum(axis)
}

type flexLine struct {
	items      []*flexItem
	cross      float64
	crossStart float64
}

// alignMode is the shared vocabulary of justify-content and align-content.
type alignMode uint8

const (
	modeStart alignMode = iota
	modeEnd
	modeCenter
	modeBetween
	modeAround
	modeEvenly
)

func justifyMode(j style.Justify) alignMode {
	switch j {
	case style.JustifyEnd:
		return modeEnd
	case style.JustifyCenter:
		return modeCenter
	case style.JustifySpaceBetween:
		return modeBetween
	case style.JustifySpaceAround:
		return modeAround
	case style.JustifySpaceEvenly:
		return modeEvenly
	}
	return modeStart
}

func contentMode(c style.ContentAlign) alignMode {
	switch c {
	case style.ContentEnd:
		return modeEnd
	case style.ContentCenter:
		return modeCenter
	case style.ContentSpaceBetween:
		return modeBetween
	case style.ContentSpaceAround:
		return modeAround
	case style.ContentSpaceEvenly:
		return modeEvenly
	}
	return modeStart
}

// distribute returns the leading offset and the gap inserted between
// count consecutive elements sharing free space. With negative free space
// the spacing modes degrade: between packs at the start, around and evenly
// center the overflow.
func distribute(mode alignMode, count int, free float64) (offset, gap float64) {
	if count == 0 {
		return 0, 0
	}
	n := float64(count)
	switch mode {
	case modeEnd:
		return free, 0
	case modeCenter:
		return free / 2, 0
	case modeBetween:
		if count == 1 || free < 0 {
			return 0, 0
		}
		return 0, free / (n - 1)
	case modeAround:
		if free < 0 {
			return free / 2, 0
		}
		gap = free / n
		return gap / 2, gap
	case modeEvenly:
		if free < 0 {
			return free / 2, 0
		}
		gap = free / (n + 1)
		return gap, gap
	}
	return 0, 0
}

// collectLines breaks items greedily into lines no longer than limit.
// An item that alone exceeds the limit still gets a line of its own.
func collectLines(items []*flexItem, wrap style.FlexWrap, limit float64, axis Axis) []*flexLine {
	if len(items) == 0 {
		return nil
	}
	if wrap == style.NoWrap || isUnbounded(limit) {
		return []*flexLine{{items: items}}
	}

	var lines []*flexLine
	current := &flexLine{}
	used := 0.0
	for _, it := range items {
		occ := math.Max(0, it.hypo) + it.margin.Sum(axis)
		if len(current.items) > 0 && used+occ > limit+epsilon {
			lines = append(lines, current)
			current = &flexLine{}
			used = 0
		}
		current.items = append(current.items, it)
		used += occ
	}
	return append(lines, current)
}

// resolveFlexibleLengths distributes the free space of one line. It is a
// single pass: space a min/max limit refuses is not handed to siblings,
// and shrink never takes an item below zero.
func resolveFlexibleLengths(line *flexLine, available float64, axis Axis, canShrink bool) {
	used := 0.0
	totalGrow, totalShrink := 0.0, 0.0
	for _, it := range line.items {
		it.main = it.hypo
		used += it.hypo + it.margin.Sum(axis)
		totalGrow += it.box.computed.Number(style.PropFlexGrow)
		totalShrink += it.box.computed.Number(style.PropFlexShrink) * math.Max(0, it.base)
	}

	free := available - used
	switch {
	case free > epsilon && totalGrow > 0:
		for _, it := range line.items {
			g := it.box.computed.Number(style.PropFlexGrow)
			if g == 0 {
				continue
			}
			it.main = it.hypo + free*g/totalGrow
			it.flexed = true
		}
	case free < -epsilon && totalShrink > 0 && canShrink:
		for _, it := range line.items {
			w := it.box.computed.Number(style.PropFlexShrink) * math.Max(0, it.base)
			if w == 0 {
				continue
			}
			it.main = math.Max(0, it.hypo+free*w/totalShrink)
			it.flexed = true
		}
	}
}

// flexBasis resolves the hypothetical main size of child against the
// container's inner main extent: explicit flex-basis, then the main size
// property, then the measured content size.
func (p *pass) flexBasis(child *Box, axis Axis, inner float64, definite bool, margin Edges, record bool) (float64, bool) {
	basis := child.computed.Size(style.PropFlexBasis)
	switch basis.Kind {
	case style.SizeAuto:
	case style.SizeWrap, style.SizeNone:
		return child.measured.Get(axis), false
	default:
		if v, ok := basis.Resolve(inner, definite, margin.Sum(axis)); ok {
			return v, true
		}
		if record {
			p.unresolved(child, style.PropFlexBasis, basis)
		}
		return 0, true
	}
	return p.resolveSize(child, axis, inner, definite, margin, record)
}

// resolveSize resolves the width or height property. Parent-relative sizes
// against an indefinite extent degrade to zero.
func (p *pass) resolveSize(child *Box, axis Axis, inner float64, definite bool, margin Edges, record bool) (float64, bool) {
	sz := child.sizeStyle(axis)
	if v, ok := sz.Resolve(inner, definite, margin.Sum(axis)); ok {
		return v, true
	}
	if sz.IsParentRelative() {
		if record {
			p.unresolved(child, sizeProp(axis), sz)
		}
		return 0, true
	}
	return child.measured.Get(axis), false
}

// newItems builds the flex items of a container for a given inner extent.
func (p *pass) newItems(children []*Box, f flexFrame, inner Extent, def [2]bool, record bool) []*flexItem {
	items := make([]*flexItem, 0, len(children))
	innerMain, innerCross := inner.Get(f.main), inner.Get(f.cross)
	for _, c := range children {
		it := &flexItem{box: c, margin: c.margins()}
		it.base, it.mainFixed = p.flexBasis(c, f.main, innerMain, def[f.main], it.margin, record)
		it.hypo = c.clampLimits(f.main, it.base, innerMain, def[f.main])

		it.cross, it.crossFixed = p.resolveSize(c, f.cross, innerCross, def[f.cross], it.margin, record)
		it.crossContent = !it.crossFixed
		it.cross = c.clampLimits(f.cross, it.cross, innerCross, def[f.cross])
		items = append(items, it)
	}
	return items
}

// contentExtent is the size a container needs for its visible children
// when its own size comes from content.
func (p *pass) contentExtent(b *Box, inner Extent, def [2]bool) Extent {
	children := b.visibleChildren()
	if len(children) == 0 {
		return Extent{}
	}
	f := newFlexFrame(b.computed)
	items := p.newItems(children, f, inner, def, false)

	limit := math.Inf(1)
	if def[f.main] {
		limit = inner.Get(f.main)
	}

	var out Extent
	mainMax, crossSum := 0.0, 0.0
	for _, line := range collectLines(items, f.wrap, limit, f.main) {
		mainSum, crossMax := 0.0, 0.0
		for _, it := range line.items {
			mainSum += math.Max(0, it.hypo) + it.margin.Sum(f.main)
			crossMax = math.Max(crossMax, it.cross+it.margin.Sum(f.cross))
		}
		mainMax = math.Max(mainMax, mainSum)
		crossSum += crossMax
	}
	out.Set(f.main, mainMax)
	out.Set(f.cross, crossSum)
	return out
}

// layoutFlex assigns the rectangles of b's children and arranges them.
// inner is b's padding box shrunk by its paddings.
func (p *pass) layoutFlex(b *Box, inner Extent, pad Edges) {
	for _, c := range b.children {
		if !c.computed.Visible() {
			c.bounds = Rect{}
			c.laidOut = true
			c.phase = PhaseSettled
		}
	}
	children := b.visibleChildren()
	if len(children) == 0 {
		return
	}

	f := newFlexFrame(b.computed)
	def := b.definite
	items := p.newItems(children, f, inner, def, true)
	innerMain, innerCross := inner.Get(f.main), inner.Get(f.cross)

	lines := collectLines(items, f.wrap, innerMain, f.main)
	canShrink := !b.kind.Has(Scrollable)
	for _, line := range lines {
		resolveFlexibleLengths(line, innerMain, f.main, canShrink)
		for _, it := range line.items {
			it.main = it.box.clampLimits(f.main, it.main, innerMain, def[f.main])
		}
	}

	// Cross size of each line.
	if f.wrap == style.NoWrap {
		lines[0].cross = innerCross
	} else {
		for _, line := range lines {
			for _, it := range line.items {
				line.cross = math.Max(line.cross, it.cross+it.margin.Sum(f.cross))
			}
		}
		p.alignContent(b, lines, innerCross, f)
	}

	alignItems := b.computed.AlignItems()
	justify := justifyMode(b.computed.JustifyContent())
	for _, line := range lines {
		p.alignCrossAxis(line, alignItems, f, innerCross, def[f.cross])
		p.alignMainAxis(line, justify, f, innerMain, pad)
		for _, it := range line.items {
			p.place(it, f, line, pad, def)
		}
	}
}

// alignContent positions lines along the cross axis of a multi-line container.
func (p *pass) alignContent(b *Box, lines []*flexLine, innerCross float64, f flexFrame) {
	total := 0.0
	for _, line := range lines {
		total += line.cross
	}
	free := innerCross - total

	var offset, gap float64
	if ac := b.computed.AlignContent(); ac == style.ContentStretch {
		if free > epsilon {
			extra := free / float64(len(lines))
			for _, line := range lines {
				line.cross += extra
			}
		}
	} else {
		offset, gap = distribute(contentMode(ac), len(lines), free)
	}

	pos := offset
	for _, line := range lines {
		line.crossStart = pos
		pos += line.cross + gap
		if f.crossReverse {
			line.crossStart = innerCross - line.crossStart - line.cross
		}
	}
}

// alignCrossAxis stretches the items of one line that align-self /
// align-items ask to fill the line. Offsets are computed in place.
func (p *pass) alignCrossAxis(line *flexLine, alignItems style.ItemAlign, f flexFrame, innerCross float64, crossDefinite bool) {
	for _, it := range line.items {
		align := it.box.computed.AlignSelf()
		if align == style.AlignAuto {
			align = alignItems
		}
		if align == style.AlignStretch && it.crossContent {
			target := math.Max(0, line.cross-it.margin.Sum(f.cross))
			it.cross = it.box.clampLimits(f.cross, target, innerCross, crossDefinite)
			it.stretched = true
		}
	}
}

// alignMainAxis applies justify-content to one line.
func (p *pass) alignMainAxis(line *flexLine, mode alignMode, f flexFrame, innerMain float64, pad Edges) {
	used := 0.0
	for _, it := range line.items {
		used += it.outerMain(f.main)
	}
	offset, gap := distribute(mode, len(line.items), innerMain-used)

	pos := offset
	for _, it := range line.items {
		lead, trail := it.margin.Leading(f.main), it.margin.Trailing(f.main)
		if f.reverse {
			lead, trail = trail, lead
		}
		logical := pos + lead
		x := logical
		if f.reverse {
			x = innerMain - logical - it.main
		}
		it.mainPos = pad.Leading(f.main) + x
		pos = logical + it.main + trail + gap
	}
}

// place finalizes the item rectangle and recurses into it when needed.
func (p *pass) place(it *flexItem, f flexFrame, line *flexLine, pad Edges, containerDef [2]bool) {
	c := it.box

	align := c.computed.AlignSelf()
	if align == style.AlignAuto {
		align = c.parent.computed.AlignItems()
	}
	lead, trail := it.margin.Leading(f.cross), it.margin.Trailing(f.cross)
	if f.crossReverse {
		lead, trail = trail, lead
	}
	var off float64
	switch align {
	case style.AlignEnd:
		off = line.cross - it.cross - trail
	case style.AlignCenter:
		off = lead + (line.cross-it.cross-lead-trail)/2
	default:
		off = lead
	}
	if f.crossReverse {
		off = line.cross - off - it.cross
	}

	var r Rect
	r.SetStart(f.main, it.mainPos)
	r.SetStart(f.cross, pad.Leading(f.cross)+line.crossStart+off)
	r.SetLength(f.main, sanitize(it.main))
	r.SetLength(f.cross, sanitize(it.cross))

	var def [2]bool
	def[f.main] = it.mainFixed || (it.flexed && containerDef[f.main])
	def[f.cross] = it.crossFixed || (it.stretched && containerDef[f.cross])

	p.assign(c, r, def)
}
