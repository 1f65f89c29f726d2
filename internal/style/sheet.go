// internal/style/sheet.go
package style

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Rule pairs a selector with the declarations it applies.
type Rule struct {
	Selector   Selector
	Properties PropertyMap
	// Order is the insertion index, used to break specificity ties.
	Order int
}

type memoKey struct {
	classes string
	state   State
}

// Sheet is an ordered rule list with a memoized cascade.
// It is safe for concurrent use.
type Sheet struct {
	mu         sync.Mutex
	rules      []Rule
	generation uint64
	memo       map[memoKey]PropertyMap
	logger     *zap.Logger
}

// NewSheet creates an empty sheet. A nil logger disables logging.
func NewSheet(logger *zap.Logger) *Sheet {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sheet{
		memo:   make(map[memoKey]PropertyMap),
		logger: logger.Named("stylesheet"),
	}
}

// AddRule appends a rule. Duplicates are kept; later rules win ties.
func (s *Sheet) AddRule(sel Selector, props PropertyMap) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rules = append(s.rules, Rule{Selector: sel, Properties: props.Clone(), Order: len(s.rules)})
	s.generation++
	if len(s.memo) > 0 {
		s.memo = make(map[memoKey]PropertyMap)
	}
	s.logger.Debug("Rule added",
		zap.Stringer("selector", sel),
		zap.Int("declarations", len(props)),
		zap.Uint64("generation", s.generation))
}

// Generation increases every time the rule list changes.
func (s *Sheet) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

func (s *Sheet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rules)
}

// Rules returns a copy of the rule list in insertion order.
func (s *Sheet) Rules() []Rule {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Rule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Resolve merges every rule matching (classes, state) in ascending
// specificity, later rules overriding earlier ones of equal specificity.
// The returned map belongs to the caller.
func (s *Sheet) Resolve(classes ClassSet, state State) PropertyMap {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := memoKey{classes: classes.Key(), state: state}
	if cached, ok := s.memo[key]; ok {
		return cached.Clone()
	}

	matched := make([]Rule, 0, 8)
	for _, r := range s.rules {
		if r.Selector.Matches(classes, state) {
			matched = append(matched, r)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		si, sj := matched[i].Selector.Specificity(), matched[j].Selector.Specificity()
		if si != sj {
			return si.Less(sj)
		}
		return matched[i].Order < matched[j].Order
	})

	out := make(PropertyMap)
	for _, r := range matched {
		out.Merge(r.Properties)
	}
	s.memo[key] = out
	return out.Clone()
}
