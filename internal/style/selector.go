// internal/style/selector.go
package style

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// State is the interaction pseudo-state of a node.
type State uint8

const (
	// StateNone on a selector means "any state". Nodes never carry it.
	StateNone State = iota
	StateNormal
	StateHover
	StateActive
)

func (s State) String() string {
	switch s {
	case StateNormal:
		return "normal"
	case StateHover:
		return "hover"
	case StateActive:
		return "active"
	}
	return "none"
}

// ParseState maps a pseudo-class name to a State.
func ParseState(name string) (State, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "normal":
		return StateNormal, nil
	case "hover":
		return StateHover, nil
	case "active":
		return StateActive, nil
	}
	return StateNone, fmt.Errorf("%w: unknown state %q", ErrUnsupportedSelector, name)
}

// ClassSet is a sorted, duplicate-free set of class tokens.
// The zero value is the empty set. Methods never modify the receiver.
type ClassSet []string

// NewClassSet normalizes tokens into a set. Each token is split on
// whitespace, so "a b" contributes the two classes a and b.
func NewClassSet(tokens ...string) ClassSet {
	out := make(ClassSet, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, strings.Fields(t)...)
	}
	sort.Strings(out)
	return dedupSorted(out)
}

// ParseClassAttr splits a whitespace separated class attribute.
func ParseClassAttr(attr string) ClassSet {
	return NewClassSet(strings.Fields(attr)...)
}

func dedupSorted(s ClassSet) ClassSet {
	if len(s) < 2 {
		return s
	}
	w := 1
	for r := 1; r < len(s); r++ {
		if s[r] != s[w-1] {
			s[w] = s[r]
			w++
		}
	}
	return s[:w]
}

func (c ClassSet) Contains(token string) bool {
	i := sort.SearchStrings(c, token)
	return i < len(c) && c[i] == token
}

// ContainsAll reports whether every token of sub is in c.
func (c ClassSet) ContainsAll(sub ClassSet) bool {
	i := 0
	for _, t := range sub {
		for i < len(c) && c[i] < t {
			i++
		}
		if i == len(c) || c[i] != t {
			return false
		}
	}
	return true
}

// With returns a set that also contains every whitespace separated class
// in token. The receiver is returned unchanged when nothing is added.
func (c ClassSet) With(token string) ClassSet {
	var added []string
	for _, t := range strings.Fields(token) {
		if !c.Contains(t) {
			added = append(added, t)
		}
	}
	if len(added) == 0 {
		return c
	}
	out := make(ClassSet, 0, len(c)+len(added))
	out = append(out, c...)
	out = append(out, added...)
	sort.Strings(out)
	return dedupSorted(out)
}

// Without returns a set that contains none of the whitespace separated
// classes in token.
func (c ClassSet) Without(token string) ClassSet {
	drop := strings.Fields(token)
	hit := false
	for _, t := range drop {
		if c.Contains(t) {
			hit = true
			break
		}
	}
	if !hit {
		return c
	}
	out := make(ClassSet, 0, len(c))
outer:
	for _, t := range c {
		for _, d := range drop {
			if t == d {
				continue outer
			}
		}
		out = append(out, t)
	}
	return out
}

// Key is a canonical string form, usable as a map key. Tokens are length
// prefixed so distinct sets never share a key.
func (c ClassSet) Key() string {
	var b strings.Builder
	for _, t := range c {
		b.WriteString(strconv.Itoa(len(t)))
		b.WriteByte(':')
		b.WriteString(t)
	}
	return b.String()
}

// Selector matches nodes carrying all of Classes and, when State is not
// StateNone, that exact state. An empty Classes list matches every node.
type Selector struct {
	Classes ClassSet
	State   State
}

// NewSelector builds a selector from class tokens and a state.
func NewSelector(state State, classes ...string) Selector {
	return Selector{Classes: NewClassSet(classes...), State: state}
}

// Matches reports whether a node with the given classes and state is selected.
func (s Selector) Matches(classes ClassSet, state State) bool {
	if s.State != StateNone && s.State != state {
		return false
	}
	return classes.ContainsAll(s.Classes)
}

// Specificity orders selectors: a pseudo-state outranks any number of classes.
type Specificity struct {
	State   int
	Classes int
}

func (s Selector) Specificity() Specificity {
	sp := Specificity{Classes: len(s.Classes)}
	if s.State != StateNone {
		sp.State = 1
	}
	return sp
}

// Less reports whether a has lower priority than b.
func (a Specificity) Less(b Specificity) bool {
	if a.State != b.State {
		return a.State < b.State
	}
	return a.Classes < b.Classes
}

func (s Selector) String() string {
	var b strings.Builder
	if len(s.Classes) == 0 {
		b.WriteString("*")
	}
	for _, c := range s.Classes {
		b.WriteByte('.')
		b.WriteString(c)
	}
	if s.State != StateNone {
		b.WriteByte(':')
		b.WriteString(s.State.String())
	}
	return b.String()
}
