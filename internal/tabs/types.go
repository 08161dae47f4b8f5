package tabs

import "sort"

// Tab is a single browser tab as reported by a tab source.
type Tab struct {
	URL      string  `json:"url"`
	Title    string  `json:"title"`
	WindowID int     `json:"windowId"`
	Index    int     `json:"index"`
	ExtData  *string `json:"extData,omitempty"` // nil when the browser reports none
}

type (
	WindowKey string
	StackKey  string
	HostKey   string
)

// Bucket names used when a dimension is disabled or a tab has no usable value.
const (
	WindowAll WindowKey = "all"
	StackNone StackKey  = "none"
	HostAll   HostKey   = "all"
	HostOther HostKey   = "other"
)

// Dimensions selects which grouping levels are active.
type Dimensions struct {
	Window bool `json:"window"`
	Stack  bool `json:"stack"`
	Host   bool `json:"host"`
}

// Group is a map that remembers the order in which keys were first added.
type Group[K ~string, V any] struct {
	keys  []K
	items map[K]V
}

func newGroup[K ~string, V any]() *Group[K, V] {
	return &Group[K, V]{items: make(map[K]V)}
}

// Keys returns the keys in first-seen order.
func (g *Group[K, V]) Keys() []K {
	out := make([]K, len(g.keys))
	copy(out, g.keys)
	return out
}

func (g *Group[K, V]) Get(key K) (V, bool) {
	v, ok := g.items[key]
	return v, ok
}

func (g *Group[K, V]) Len() int {
	return len(g.keys)
}

// Multi reports whether the level has more than one bucket.
func (g *Group[K, V]) Multi() bool {
	return len(g.keys) > 1
}

func (g *Group[K, V]) set(key K, v V) {
	if _, ok := g.items[key]; !ok {
		g.keys = append(g.keys, key)
	}
	g.items[key] = v
}

type (
	HostGroups  = Group[HostKey, []Tab]
	StackGroups = Group[StackKey, *HostGroups]
	Grouped     = Group[WindowKey, *StackGroups]
)

// Count returns the number of tabs held in the leaf buckets.
func Count(g *Grouped) int {
	n := 0
	for _, wk := range g.keys {
		stacks := g.items[wk]
		for _, sk := range stacks.keys {
			hosts := stacks.items[sk]
			for _, hk := range hosts.keys {
				n += len(hosts.items[hk])
			}
		}
	}
	return n
}

// SortedByIndex returns a copy of ts ordered by Index. Ties keep their input order.
func SortedByIndex(ts []Tab) []Tab {
	out := make([]Tab, len(ts))
	copy(out, ts)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Index < out[j].Index
	})
	return out
}
