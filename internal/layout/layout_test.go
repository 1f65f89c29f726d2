// internal/layout/layout_test.go
package layout

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/boxflow/internal/style"
)

var viewport = &Context{Viewport: Extent{Width: 800, Height: 600}}

// node builds a box with inline declarations and children.
func node(t *testing.T, kind Kind, name, inline string, children ...*Box) *Box {
	t.Helper()
	b := NewBox(kind, name)
	if inline != "" {
		props, err := style.ParseInline(inline)
		require.NoError(t, err)
		b.SetInline(props)
	}
	for _, c := range children {
		b.AppendChild(c)
	}
	return b
}

func box(t *testing.T, name, inline string, children ...*Box) *Box {
	t.Helper()
	return node(t, KindBox, name, inline, children...)
}

func layoutTree(t *testing.T, root *Box, opts ...Option) (*Scheduler, Result) {
	t.Helper()
	opts = append([]Option{WithLogger(zaptest.NewLogger(t))}, opts...)
	s := NewScheduler(root, nil, opts...)
	res, err := s.Layout(viewport)
	require.NoError(t, err)
	return s, res
}

func snapshot(root *Box) map[string]Rect {
	out := map[string]Rect{}
	root.Walk(func(n *Box, _ int) bool {
		out[n.Name()] = n.Bounds()
		return true
	})
	return out
}

func assertRect(t *testing.T, expected Rect, b *Box) {
	t.Helper()
	got := b.Bounds()
	if !(math.Abs(got.X-expected.X) < 1e-6 && math.Abs(got.Y-expected.Y) < 1e-6 &&
		math.Abs(got.Width-expected.Width) < 1e-6 && math.Abs(got.Height-expected.Height) < 1e-6) {
		t.Errorf("%s: geometry mismatch (-want +got):\n%s", b, cmp.Diff(expected, got))
	}
}

func TestGrowFillsFreeSpace(t *testing.T) {
	a := box(t, "a", "flex-basis: 100; flex-grow: 1")
	b := box(t, "b", "flex-basis: 100; flex-grow: 1")
	c := box(t, "c", "flex-basis: 100; flex-grow: 1")
	root := box(t, "root", "width: 300; height: 100", a, b, c)
	layoutTree(t, root)

	assertRect(t, Rect{X: 0, Y: 0, Width: 100, Height: 100}, a)
	assertRect(t, Rect{X: 100, Y: 0, Width: 100, Height: 100}, b)
	assertRect(t, Rect{X: 200, Y: 0, Width: 100, Height: 100}, c)
}

func TestGrowDistributesProportionally(t *testing.T) {
	a := box(t, "a", "width: 50; flex-grow: 1")
	b := box(t, "b", "width: 50; flex-grow: 3")
	c := box(t, "c", "width: 50")
	root := box(t, "root", "width: 350; height: 10", a, b, c)
	layoutTree(t, root)

	assert.InDelta(t, 100, a.Bounds().Width, 1e-9)
	assert.InDelta(t, 200, b.Bounds().Width, 1e-9)
	assert.InDelta(t, 50, c.Bounds().Width, 1e-9)
	assert.InDelta(t, 350, a.Bounds().Width+b.Bounds().Width+c.Bounds().Width, 1e-9)
}

func TestShrinkEqualBasis(t *testing.T) {
	a := box(t, "a", "flex-basis: 100; flex-shrink: 1")
	b := box(t, "b", "flex-basis: 100; flex-shrink: 1")
	c := box(t, "c", "flex-basis: 100; flex-shrink: 1")
	root := box(t, "root", "width: 210; height: 20", a, b, c)
	layoutTree(t, root)

	assertRect(t, Rect{X: 0, Width: 70, Height: 20}, a)
	assertRect(t, Rect{X: 70, Width: 70, Height: 20}, b)
	assertRect(t, Rect{X: 140, Width: 70, Height: 20}, c)
}

func TestShrinkWeightedByBasis(t *testing.T) {
	a := box(t, "a", "flex-basis: 200")
	b := box(t, "b", "flex-basis: 100")
	c := box(t, "c", "flex-basis: 100; flex-shrink: 0")
	root := box(t, "root", "width: 250; height: 20", a, b, c)
	layoutTree(t, root)

	// 150 of overflow shared 2:1 between a and b; c keeps its basis.
	assert.InDelta(t, 100, a.Bounds().Width, 1e-9)
	assert.InDelta(t, 50, b.Bounds().Width, 1e-9)
	assert.InDelta(t, 100, c.Bounds().Width, 1e-9)
}

func TestShrinkNeverNegative(t *testing.T) {
	a := box(t, "a", "flex-basis: 10; flex-shrink: 50")
	b := box(t, "b", "flex-basis: 400")
	root := box(t, "root", "width: 100; height: 20", a, b)
	layoutTree(t, root)

	assert.GreaterOrEqual(t, a.Bounds().Width, 0.0)
	assert.GreaterOrEqual(t, b.Bounds().Width, 0.0)
}

func TestNegativeBasisStillGrows(t *testing.T) {
	a := box(t, "a", "flex-basis: -50; flex-grow: 1")
	b := box(t, "b", "width: 100")
	root := box(t, "root", "width: 300; height: 20", a, b)
	layoutTree(t, root)

	assert.InDelta(t, 200, a.Bounds().Width, 1e-9)
	assert.InDelta(t, 200, b.Bounds().X, 1e-9)
}

func TestJustifyContent(t *testing.T) {
	tests := []struct {
		justify string
		xs      [2]float64
	}{
		{"flex-start", [2]float64{0, 50}},
		{"flex-end", [2]float64{200, 250}},
		{"center", [2]float64{100, 150}},
		{"space-between", [2]float64{0, 250}},
		{"space-around", [2]float64{50, 200}},
		{"space-evenly", [2]float64{200.0 / 3, 50 + 400.0/3}},
	}
	for _, tt := range tests {
		t.Run(tt.justify, func(t *testing.T) {
			a := box(t, "a", "width: 50")
			b := box(t, "b", "width: 50")
			root := box(t, "root", "width: 300; height: 10; justify-content: "+tt.justify, a, b)
			layoutTree(t, root)
			assert.InDelta(t, tt.xs[0], a.Bounds().X, 1e-9)
			assert.InDelta(t, tt.xs[1], b.Bounds().X, 1e-9)
		})
	}
}

func TestSpaceBetweenThreeChildren(t *testing.T) {
	a := box(t, "a", "width: 50")
	b := box(t, "b", "width: 50")
	c := box(t, "c", "width: 50")
	root := box(t, "root", "width: 300; height: 10; justify-content: space-between", a, b, c)
	layoutTree(t, root)

	assert.Equal(t, []float64{0, 125, 250}, []float64{a.Bounds().X, b.Bounds().X, c.Bounds().X})
}

func TestSpaceBetweenSingleChildAtStart(t *testing.T) {
	a := box(t, "a", "width: 50")
	root := box(t, "root", "width: 300; height: 10; justify-content: space-between", a)
	layoutTree(t, root)

	assertRect(t, Rect{X: 0, Width: 50, Height: 10}, a)
}

func TestDistributeNegativeFreeSpace(t *testing.T) {
	tests := []struct {
		mode   alignMode
		offset float64
		gap    float64
	}{
		{modeStart, 0, 0},
		{modeEnd, -40, 0},
		{modeCenter, -20, 0},
		{modeBetween, 0, 0},
		{modeAround, -20, 0},
		{modeEvenly, -20, 0},
	}
	for _, tt := range tests {
		offset, gap := distribute(tt.mode, 3, -40)
		assert.Equal(t, tt.offset, offset, "mode %d", tt.mode)
		assert.Equal(t, tt.gap, gap, "mode %d", tt.mode)
	}

	offset, gap := distribute(modeAround, 0, 100)
	assert.Zero(t, offset)
	assert.Zero(t, gap)
}

func TestNoWrapKeepsSingleLine(t *testing.T) {
	a := box(t, "a", "width: 200; flex-shrink: 0")
	b := box(t, "b", "width: 200; flex-shrink: 0")
	c := box(t, "c", "width: 200; flex-shrink: 0")
	root := box(t, "root", "width: 300; height: 40", a, b, c)
	layoutTree(t, root)

	for i, n := range []*Box{a, b, c} {
		assert.Equal(t, 0.0, n.Bounds().Y)
		assert.Equal(t, float64(i)*200, n.Bounds().X)
		assert.Equal(t, 40.0, n.Bounds().Height)
	}
}

func TestWrapBreaksLinesAndSizesContainer(t *testing.T) {
	var items []*Box
	for _, name := range []string{"a", "b", "c", "d"} {
		items = append(items, box(t, name, "width: 100; height: 50"))
	}
	root := box(t, "root", "width: 300; flex-wrap: wrap", items...)
	layoutTree(t, root)

	assertRect(t, Rect{X: 0, Y: 0, Width: 300, Height: 100}, root)
	assertRect(t, Rect{X: 200, Y: 0, Width: 100, Height: 50}, items[2])
	assertRect(t, Rect{X: 0, Y: 50, Width: 100, Height: 50}, items[3])
}

func TestWrapOversizedItemGetsOwnLine(t *testing.T) {
	a := box(t, "a", "width: 50; height: 10")
	b := box(t, "b", "width: 500; height: 10; flex-shrink: 0")
	c := box(t, "c", "width: 50; height: 10")
	root := box(t, "root", "width: 300; flex-wrap: wrap", a, b, c)
	layoutTree(t, root)

	assert.Equal(t, []float64{0, 10, 20}, []float64{a.Bounds().Y, b.Bounds().Y, c.Bounds().Y})
}

func TestWrapReverse(t *testing.T) {
	var items []*Box
	for _, name := range []string{"a", "b", "c", "d"} {
		items = append(items, box(t, name, "width: 100; height: 50"))
	}
	root := box(t, "root", "width: 300; height: 100; flex-wrap: wrap-reverse", items...)
	layoutTree(t, root)

	assert.Equal(t, 50.0, items[0].Bounds().Y)
	assert.Equal(t, 50.0, items[2].Bounds().Y)
	assert.Equal(t, 0.0, items[3].Bounds().Y)
}

func TestAlignContent(t *testing.T) {
	tests := []struct {
		align string
		ys    [2]float64
		h     float64
	}{
		{"flex-start", [2]float64{0, 50}, 50},
		{"flex-end", [2]float64{100, 150}, 50},
		{"center", [2]float64{50, 100}, 50},
		{"space-between", [2]float64{0, 150}, 50},
		{"space-around", [2]float64{25, 125}, 50},
		{"stretch", [2]float64{0, 100}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.align, func(t *testing.T) {
			var items []*Box
			for _, name := range []string{"a", "b", "c", "d"} {
				items = append(items, box(t, name, "width: 100; min-height: 50"))
			}
			root := box(t, "root", "width: 200; height: 200; flex-wrap: wrap; align-content: "+tt.align, items...)
			layoutTree(t, root)

			assert.InDelta(t, tt.ys[0], items[0].Bounds().Y, 1e-9)
			assert.InDelta(t, tt.ys[1], items[2].Bounds().Y, 1e-9)
			assert.InDelta(t, tt.h, items[3].Bounds().Height, 1e-9, "stretched items fill their line")
		})
	}
}

func TestAlignItemsAndSelf(t *testing.T) {
	a := box(t, "a", "width: 50; height: 40")
	b := box(t, "b", "width: 50; height: 40; align-self: flex-end")
	c := box(t, "c", "width: 50; align-self: stretch; max-height: 70")
	d := box(t, "d", "width: 50; height: 40; align-self: baseline")
	root := box(t, "root", "width: 300; height: 100; align-items: center", a, b, c, d)
	layoutTree(t, root)

	assertRect(t, Rect{X: 0, Y: 30, Width: 50, Height: 40}, a)
	assertRect(t, Rect{X: 50, Y: 60, Width: 50, Height: 40}, b)
	assertRect(t, Rect{X: 100, Y: 0, Width: 50, Height: 70}, c)
	assertRect(t, Rect{X: 150, Y: 0, Width: 50, Height: 40}, d)
}

func TestColumnDirection(t *testing.T) {
	a := box(t, "a", "width: 50; height: 40")
	b := box(t, "b", "height: 60")
	root := box(t, "root", "flex-direction: column; align-items: center; width: 200; height: 300", a, b)
	layoutTree(t, root)

	assertRect(t, Rect{X: 75, Y: 0, Width: 50, Height: 40}, a)
	assertRect(t, Rect{X: 100, Y: 40, Width: 0, Height: 60}, b)
}

func TestReverseDirections(t *testing.T) {
	a := box(t, "a", "width: 100; margin-left: 10")
	b := box(t, "b", "width: 100")
	root := box(t, "root", "flex-direction: row-reverse; width: 300; height: 10", a, b)
	layoutTree(t, root)
	assert.Equal(t, 200.0, a.Bounds().X)
	assert.Equal(t, 90.0, b.Bounds().X)

	c := box(t, "c", "height: 100")
	d := box(t, "d", "height: 50")
	col := box(t, "col", "flex-direction: column-reverse; width: 10; height: 300", c, d)
	layoutTree(t, col)
	assert.Equal(t, 200.0, c.Bounds().Y)
	assert.Equal(t, 150.0, d.Bounds().Y)
}

func TestMarginsPaddingAndMatchParent(t *testing.T) {
	m := box(t, "m", "width: match; margin: 10")
	root := box(t, "root", "width: 300; height: 100", m)
	layoutTree(t, root)
	assertRect(t, Rect{X: 10, Y: 10, Width: 280, Height: 80}, m)

	g := box(t, "g", "flex-grow: 1")
	padded := box(t, "padded", "width: 300; height: 100; padding: 10 20", g)
	layoutTree(t, padded)
	assertRect(t, Rect{X: 20, Y: 10, Width: 260, Height: 80}, g)
	assert.Equal(t, Rect{X: 20, Y: 10, Width: 260, Height: 80}, g.AbsoluteBounds())
}

func TestRatioAndMinusSizes(t *testing.T) {
	a := box(t, "a", "width: 50%; height: 25%")
	b := box(t, "b", "width: 40!; height: 10")
	root := box(t, "root", "width: 300; height: 200; align-items: flex-start; align-content: flex-start; flex-wrap: wrap", a, b)
	_, res := layoutTree(t, root)

	assertRect(t, Rect{X: 0, Y: 0, Width: 150, Height: 50}, a)
	assertRect(t, Rect{X: 0, Y: 50, Width: 260, Height: 10}, b)
	assert.Empty(t, res.Unresolved)
}

func TestMinMaxLimits(t *testing.T) {
	a := box(t, "a", "flex-grow: 1; max-width: 80")
	b := box(t, "b", "width: 10; min-width: 30")
	c := box(t, "c", "width: 10; min-width: 10%")
	root := box(t, "root", "width: 300; height: 10", a, b, c)
	layoutTree(t, root)

	assert.Equal(t, 80.0, a.Bounds().Width, "grow is capped and not redistributed")
	assert.Equal(t, 30.0, b.Bounds().Width)
	assert.Equal(t, 30.0, c.Bounds().Width)
}

func TestWrapContentParentUsesMeasuredChildren(t *testing.T) {
	a := box(t, "a", "width: 30; height: 20; margin: 5")
	b := box(t, "b", "width: 40; height: 10")
	wrap := box(t, "wrap", "padding: 2", a, b)
	root := box(t, "root", "width: 400; height: 400; align-items: flex-start", wrap)
	layoutTree(t, root)

	assertRect(t, Rect{X: 0, Y: 0, Width: 2 + 40 + 40 + 2, Height: 2 + 30 + 2}, wrap)
	assertRect(t, Rect{X: 7, Y: 7, Width: 30, Height: 20}, a)
	assertRect(t, Rect{X: 42, Y: 2, Width: 40, Height: 10}, b)
}

func TestEmptyContainer(t *testing.T) {
	empty := box(t, "empty", "")
	sized := box(t, "sized", "width: 20; height: 30")
	root := box(t, "root", "width: 400; height: 400; align-items: flex-start", empty, sized)
	layoutTree(t, root)

	assertRect(t, Rect{}, empty)
	assertRect(t, Rect{X: 0, Width: 20, Height: 30}, sized)
}

func TestUnresolvableConstraintIsZeroAndReported(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	g := box(t, "g", "width: 50%; height: 10")
	p := box(t, "p", "", g)
	root := box(t, "root", "width: 300; height: 100", p)

	s := NewScheduler(root, nil, WithLogger(zap.New(core)))
	res, err := s.Layout(&Context{Viewport: Extent{Width: 800, Height: 600}, Debug: true})
	require.NoError(t, err)

	assert.Equal(t, 0.0, g.Bounds().Width)
	assert.Equal(t, 0.0, p.Bounds().Width)
	require.Len(t, res.Unresolved, 1)
	assert.Same(t, g, res.Unresolved[0].Box)
	assert.Equal(t, style.PropWidth, res.Unresolved[0].Property)
	assert.Equal(t, style.Ratio(0.5), res.Unresolved[0].Size)
	assert.Contains(t, res.Unresolved[0].String(), "width=50%")
	assert.Equal(t, 1, logs.FilterMessage("Unresolvable constraint treated as zero").Len())
}

func TestUnresolvableConstraintNotLoggedWithoutDebug(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	g := box(t, "g", "flex-basis: 10%")
	root := box(t, "root", "height: 100", box(t, "p", "", g))

	s := NewScheduler(root, nil, WithLogger(zap.New(core)))
	res, err := s.Layout(viewport)
	require.NoError(t, err)
	require.Len(t, res.Unresolved, 1)
	assert.Equal(t, style.PropFlexBasis, res.Unresolved[0].Property)
	assert.Zero(t, logs.Len())
}

func TestStretchedItemIsDefiniteForChildren(t *testing.T) {
	g := box(t, "g", "width: 50%; height: 10")
	p := box(t, "p", "", g)
	root := box(t, "root", "flex-direction: column; width: 300; height: 100", p)
	_, res := layoutTree(t, root)

	assert.Equal(t, 300.0, p.Bounds().Width)
	assert.Equal(t, 150.0, g.Bounds().Width)
	assert.Empty(t, res.Unresolved)
}

func TestHiddenNodesTakeNoSpace(t *testing.T) {
	a := box(t, "a", "width: 50")
	hidden := box(t, "hidden", "width: 50; visible: false", box(t, "inner", "width: 10"))
	c := box(t, "c", "width: 50")
	root := box(t, "root", "width: 300; height: 10", a, hidden, c)
	layoutTree(t, root)

	assert.Equal(t, 50.0, c.Bounds().X)
	assert.Equal(t, Rect{}, hidden.Bounds())
	assert.False(t, hidden.Dirty())
	assert.Nil(t, root.HitTest(1000, 1000))
}

func TestScrollableRecordsContentExtent(t *testing.T) {
	child := box(t, "child", "height: 300")
	scroller := node(t, KindScroll, "scroller", "flex-direction: column; width: 100; height: 100; padding-bottom: 5", child)
	layoutTree(t, scroller)

	assert.Equal(t, 300.0, child.Bounds().Height, "scrollable containers do not shrink their content")
	assert.Equal(t, Extent{Width: 100, Height: 305}, scroller.ContentExtent())
}

func TestTextMeasurer(t *testing.T) {
	latin := node(t, KindText, "latin", "")
	latin.SetText("hello")
	wide := node(t, KindText, "wide", "")
	wide.SetText("日本語\nab")
	input := node(t, KindInput, "input", "")
	img := node(t, KindImage, "img", "")
	img.SetIntrinsicSize(Extent{Width: 64, Height: 32})

	root := box(t, "root", "width: 400; height: 400; align-items: flex-start; flex-wrap: wrap", latin, wide, input, img)
	s := NewScheduler(root, nil)
	_, err := s.Layout(&Context{Viewport: Extent{Width: 800, Height: 600}, Measurer: NewTextMeasurer(8, 16)})
	require.NoError(t, err)

	assert.Equal(t, Extent{Width: 40, Height: 16}, latin.Bounds().Size())
	assert.Equal(t, Extent{Width: 48, Height: 32}, wide.Bounds().Size())
	assert.Equal(t, Extent{Width: 0, Height: 16}, input.Bounds().Size())
	assert.Equal(t, Extent{Width: 64, Height: 32}, img.Bounds().Size())
}

func TestTextMeasurerFitsAvailableWidth(t *testing.T) {
	m := NewTextMeasurer(0, 0)
	assert.Equal(t, TextMeasurer{CellWidth: 8, LineHeight: 16}, m)

	b := NewBox(KindInput, "in")
	b.SetText("0123456789")
	w, h := m.MeasureContent(b, 50, math.Inf(1))
	assert.Equal(t, 50.0, w)
	assert.Equal(t, 16.0, h)

	para := NewBox(KindText, "para")
	para.SetText("first line\nsecond")
	w, h = m.MeasureContent(para, 24, math.Inf(1))
	assert.Equal(t, 24.0, w)
	assert.Equal(t, 32.0, h, "clamped text keeps its line count")

	empty := NewBox(KindText, "")
	w, h = m.MeasureContent(empty, math.Inf(1), math.Inf(1))
	assert.Zero(t, w)
	assert.Zero(t, h)
}

func TestImageUsesIntrinsicSizeByDefault(t *testing.T) {
	img := node(t, KindImage, "img", "")
	img.SetIntrinsicSize(Extent{Width: 64, Height: 32})
	root := box(t, "root", "width: 400; height: 400; align-items: flex-start", img)
	layoutTree(t, root)
	assert.Equal(t, Extent{Width: 64, Height: 32}, img.Bounds().Size())
}

func TestMeasurerOutputIsSanitized(t *testing.T) {
	leaf := node(t, KindText, "leaf", "")
	root := box(t, "root", "width: 100; height: 100; align-items: flex-start", leaf)
	s := NewScheduler(root, nil)
	_, err := s.Layout(&Context{Measurer: MeasureFunc(func(*Box, float64, float64) (float64, float64) {
		return math.NaN(), -5
	})})
	require.NoError(t, err)
	assert.Equal(t, Extent{}, leaf.Bounds().Size())
}

func TestSecondPassIsIdempotent(t *testing.T) {
	leaf := node(t, KindText, "leaf", "")
	leaf.SetText("abc")
	root := box(t, "root", "width: 300; height: 300; flex-wrap: wrap; justify-content: center",
		box(t, "a", "width: 120; height: 40"),
		box(t, "b", "flex-grow: 1", leaf),
		box(t, "c", "width: 50%; align-self: center"),
	)
	lctx := &Context{Viewport: Extent{Width: 800, Height: 600}, Measurer: NewTextMeasurer(8, 16)}
	s := NewScheduler(root, nil)
	_, err := s.Layout(lctx)
	require.NoError(t, err)
	before := snapshot(root)

	res, err := s.Layout(lctx)
	require.NoError(t, err)
	assert.Equal(t, Result{}, res)
	if diff := cmp.Diff(before, snapshot(root)); diff != "" {
		t.Errorf("geometry changed on an idle pass (-before +after):\n%s", diff)
	}
	root.Walk(func(n *Box, _ int) bool {
		assert.False(t, n.Dirty(), "%s", n)
		assert.Equal(t, PhaseSettled, n.Phase())
		return true
	})
}

func TestViewportChangeRelaysRoot(t *testing.T) {
	child := box(t, "child", "width: 50%")
	root := box(t, "root", "width: match; height: match", child)
	s := NewScheduler(root, nil)

	_, err := s.Layout(&Context{Viewport: Extent{Width: 400, Height: 300}})
	require.NoError(t, err)
	assert.Equal(t, 200.0, child.Bounds().Width)

	res, err := s.Layout(&Context{Viewport: Extent{Width: 600, Height: 300}})
	require.NoError(t, err)
	assert.Equal(t, 300.0, child.Bounds().Width)
	assert.Equal(t, 2, res.Arranged)
	assert.Zero(t, res.Restyled)
}

func dirtyTree(t *testing.T) (root, a, b, c, d *Box) {
	c = node(t, KindText, "c", "")
	c.SetText("hi")
	b = box(t, "b", "", c)
	a = box(t, "a", "width: 100; height: 100", b)
	d = box(t, "d", "width: 50; height: 50")
	root = box(t, "root", "width: 300; height: 300", a, d)
	return
}

func TestDirtyPropagationStopsAtBoundary(t *testing.T) {
	root, a, b, c, d := dirtyTree(t)
	lctx := &Context{Viewport: Extent{Width: 800, Height: 600}, Measurer: NewTextMeasurer(8, 16)}
	s := NewScheduler(root, nil, WithPolicy(PropagateToBoundary))
	_, err := s.Layout(lctx)
	require.NoError(t, err)
	rootBefore := root.Bounds()

	c.SetText("hello")
	assert.True(t, c.Dirty())
	assert.True(t, b.Dirty())
	assert.True(t, a.Dirty(), "the boundary itself is re-laid out")
	assert.False(t, root.Dirty())
	assert.False(t, d.Dirty())

	res, err := s.Layout(lctx)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Arranged)
	assert.Equal(t, 3, res.Measured)
	assert.Equal(t, 40.0, c.Bounds().Width)
	assert.Equal(t, 40.0, b.Bounds().Width)
	assert.Equal(t, rootBefore, root.Bounds())
}

func TestDirtyPropagationToRoot(t *testing.T) {
	root, _, _, c, d := dirtyTree(t)
	lctx := &Context{Viewport: Extent{Width: 800, Height: 600}, Measurer: NewTextMeasurer(8, 16)}
	s := NewScheduler(root, nil, WithPolicy(PropagateToRoot))
	_, err := s.Layout(lctx)
	require.NoError(t, err)

	c.SetText("hello")
	assert.True(t, root.Dirty())
	assert.False(t, d.Dirty())

	res, err := s.Layout(lctx)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Arranged, "the clean sibling keeps its geometry")
	assert.Equal(t, 4, res.Measured)
	assert.Equal(t, 40.0, c.Bounds().Width)
}

func TestContentSizedAncestorsPropagateFurther(t *testing.T) {
	leaf := node(t, KindText, "leaf", "")
	mid := box(t, "mid", "width: 100; align-items: flex-start", leaf) // height depends on content
	root := box(t, "root", "width: 300; height: 300; align-items: flex-start", mid)
	lctx := &Context{Viewport: Extent{Width: 800, Height: 600}, Measurer: NewTextMeasurer(8, 16)}
	s := NewScheduler(root, nil)
	_, err := s.Layout(lctx)
	require.NoError(t, err)

	leaf.SetText("x")
	assert.True(t, mid.Dirty())
	assert.True(t, root.Dirty())
	_, err = s.Layout(lctx)
	require.NoError(t, err)
	assert.Equal(t, 16.0, leaf.Bounds().Height)
	assert.Equal(t, 16.0, mid.Bounds().Height)
}

func TestStyleCascadeDrivesLayout(t *testing.T) {
	sheet := style.NewSheet(zaptest.NewLogger(t))
	require.NoError(t, sheet.AddSource(`
.card { width: 100; height: 50 }
.card:hover { width: 150 }
.wide { width: 200 }
`))
	card := NewBox(KindBox, "card", "card")
	root := box(t, "root", "width: 400; height: 400; align-items: flex-start", card)
	s := NewScheduler(root, sheet, WithLogger(zaptest.NewLogger(t)))

	relayout := func() Result {
		res, err := s.Layout(viewport)
		require.NoError(t, err)
		return res
	}

	relayout()
	assert.Equal(t, 100.0, card.Bounds().Width)

	card.SetState(style.StateHover)
	relayout()
	assert.Equal(t, 150.0, card.Bounds().Width)

	card.AddClass("wide")
	relayout()
	assert.Equal(t, 150.0, card.Bounds().Width, "a pseudo-state outranks classes")

	card.SetState(style.StateNormal)
	relayout()
	assert.Equal(t, 200.0, card.Bounds().Width, "equal specificity, later rule wins")

	card.RemoveClass("wide")
	relayout()
	assert.Equal(t, 100.0, card.Bounds().Width)

	sheet.AddRule(style.NewSelector(style.StateNone, "card"), style.PropertyMap{style.PropWidth: style.Absolute(120)})
	res := relayout()
	assert.Equal(t, 120.0, card.Bounds().Width)
	assert.Equal(t, 2, res.Restyled, "a sheet change restyles every node")
}

func TestInlineOverridesCascade(t *testing.T) {
	sheet := style.NewSheet(nil)
	require.NoError(t, sheet.AddSource(`.card { width: 100; height: 10 }`))
	card := NewBox(KindBox, "card", "card")
	card.SetInline(style.PropertyMap{style.PropWidth: style.Absolute(42)})
	root := box(t, "root", "width: 400; height: 400; align-items: flex-start", card)
	s := NewScheduler(root, sheet)
	_, err := s.Layout(viewport)
	require.NoError(t, err)

	assert.Equal(t, Extent{Width: 42, Height: 10}, card.Bounds().Size())
	assert.Equal(t, style.Absolute(42), card.Style()[style.PropWidth])
}

func TestAddClassSplitsWhitespaceSeparatedTokens(t *testing.T) {
	sheet := style.NewSheet(nil)
	require.NoError(t, sheet.AddSource(`.a.b { width: 30 }`))
	card := NewBox(KindBox, "card", "")
	root := box(t, "root", "width: 400; height: 400; align-items: flex-start", card)
	s := NewScheduler(root, sheet)

	card.AddClass("a b")
	assert.Equal(t, style.ClassSet{"a", "b"}, card.Classes())
	_, err := s.Layout(viewport)
	require.NoError(t, err)
	assert.Equal(t, style.Absolute(30), card.Style()[style.PropWidth])
	assert.Equal(t, 30.0, card.Bounds().Size().Width)

	card.RemoveClass("b a")
	assert.Empty(t, card.Classes())
	_, err = s.Layout(viewport)
	require.NoError(t, err)
	_, hasWidth := card.Style()[style.PropWidth]
	assert.False(t, hasWidth)
}

func TestMutationsDuringPassAreDeferredAndCoalesced(t *testing.T) {
	leaf := node(t, KindText, "leaf", "")
	root := box(t, "root", "width: 100; height: 100", leaf)

	var s *Scheduler
	var reentrant error
	calls := 0
	measurer := MeasureFunc(func(b *Box, _, _ float64) (float64, float64) {
		calls++
		if calls == 1 {
			b.SetState(style.StateHover)
			b.SetState(style.StateActive)
			b.AddClass("x")
			_, reentrant = s.Layout(&Context{})
		}
		return 10, 10
	})
	s = NewScheduler(root, nil, WithLogger(zaptest.NewLogger(t)))
	lctx := &Context{Viewport: Extent{Width: 100, Height: 100}, Measurer: measurer}

	_, err := s.Layout(lctx)
	require.NoError(t, err)
	assert.ErrorIs(t, reentrant, ErrReentrantLayout)
	assert.Equal(t, 2, s.Queued(), "state changes coalesce, class changes queue")
	assert.Equal(t, style.StateNormal, leaf.State())
	assert.Empty(t, leaf.Classes())
	assert.False(t, s.InPass())

	_, err = s.Layout(lctx)
	require.NoError(t, err)
	assert.Zero(t, s.Queued())
	assert.Equal(t, style.StateActive, leaf.State())
	assert.Equal(t, style.ClassSet{"x"}, leaf.Classes())
	assert.False(t, leaf.Dirty())
}

func requireCyclicPanic(t *testing.T, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		err, ok := r.(error)
		require.True(t, ok, "panic value should be an error, got %T", r)
		assert.ErrorIs(t, err, ErrCyclicMutation)
	}()
	fn()
}

func TestCyclicMutationPanics(t *testing.T) {
	leaf := box(t, "leaf", "")
	mid := box(t, "mid", "", leaf)
	root := box(t, "root", "", mid)

	requireCyclicPanic(t, func() { root.AppendChild(root) })
	requireCyclicPanic(t, func() { leaf.AppendChild(root) })
	requireCyclicPanic(t, func() { leaf.InsertChild(0, mid) })

	assert.Equal(t, []*Box{mid}, root.Children(), "tree is untouched after a rejected mutation")
}

func TestStructuralMutations(t *testing.T) {
	a, b, c := box(t, "a", ""), box(t, "b", ""), box(t, "c", "")
	root := box(t, "root", "", a, b)

	root.InsertChild(1, c)
	assert.Equal(t, []*Box{a, c, b}, root.Children())
	root.InsertChild(-3, b)
	assert.Equal(t, []*Box{b, a, c}, root.Children())

	// Reparenting detaches from the old parent.
	c.AppendChild(a)
	assert.Equal(t, []*Box{b, c}, root.Children())
	assert.Same(t, c, a.Parent())
	assert.Equal(t, 2, a.Depth())
	assert.Same(t, root, a.Root())

	root.RemoveChild(a) // not a direct child
	assert.Same(t, c, a.Parent())
	c.RemoveChild(a)
	assert.Nil(t, a.Parent())
	assert.Empty(t, c.Children())
}

func TestRemovedChildIsNotLaidOut(t *testing.T) {
	a := box(t, "a", "width: 50")
	b := box(t, "b", "width: 50")
	root := box(t, "root", "width: 300; height: 10", a, b)
	s, _ := layoutTree(t, root)

	root.RemoveChild(a)
	_, err := s.Layout(viewport)
	require.NoError(t, err)
	assert.Equal(t, 0.0, b.Bounds().X)
}

func TestSchedulerRootAttachedElsewhere(t *testing.T) {
	root := box(t, "root", "")
	s := NewScheduler(root, nil)
	other := box(t, "other", "")
	other.AppendChild(root)

	_, err := s.Layout(viewport)
	assert.ErrorIs(t, err, ErrNotRoot)
}

func TestHitTestAndPixels(t *testing.T) {
	a := box(t, "a", "width: 100")
	b := box(t, "b", "width: 100", box(t, "inner", "width: 10; height: 10"))
	root := box(t, "root", "width: 300; height: 100; padding-left: 5", a, b)
	layoutTree(t, root)

	assert.Same(t, b, root.HitTest(150, 50))
	assert.Equal(t, "inner", root.HitTest(106, 5).Name())
	assert.Nil(t, root.HitTest(350, 50))

	lctx := &Context{Scale: 2}
	assert.Equal(t, Rect{X: 210, Y: 0, Width: 200, Height: 200}, lctx.ToPixels(b.AbsoluteBounds()))
	var nilCtx *Context
	assert.Equal(t, Rect{X: 1, Y: 2, Width: 3, Height: 4}, nilCtx.ToPixels(Rect{X: 1, Y: 2, Width: 3, Height: 4}))
}

func TestKindCapabilities(t *testing.T) {
	assert.True(t, KindTextarea.Has(Measurable|Scrollable|AcceptsText))
	assert.True(t, KindInput.Has(AcceptsText))
	assert.False(t, KindInput.Has(Scrollable))
	assert.False(t, KindBox.Has(Measurable))
	assert.True(t, KindScroll.Has(Scrollable))
	assert.True(t, KindImage.Has(Measurable))

	k, ok := ParseKind("img")
	assert.True(t, ok)
	assert.Equal(t, KindImage, k)
	_, ok = ParseKind("video")
	assert.False(t, ok)
	assert.Equal(t, "textarea", KindTextarea.String())
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("root")
	require.NoError(t, err)
	assert.Equal(t, PropagateToRoot, p)
	p, err = ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PropagateToBoundary, p)
	_, err = ParsePolicy("sideways")
	assert.Error(t, err)
}
