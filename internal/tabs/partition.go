package tabs

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

// Partition groups tabs by window, then stack, then host. Every tab lands in
// exactly one leaf bucket. Inputs are never modified.
func Partition(ts []Tab, dims Dimensions) *Grouped {
	out := newGroup[WindowKey, *StackGroups]()
	windows := byWindow(ts, dims.Window)
	for _, wk := range windows.keys {
		stacks := byStack(windows.items[wk], dims.Stack)
		grouped := newGroup[StackKey, *HostGroups]()
		for _, sk := range stacks.keys {
			grouped.set(sk, byHost(stacks.items[sk], dims.Host))
		}
		out.set(wk, grouped)
	}
	return out
}

func byWindow(ts []Tab, enabled bool) *Group[WindowKey, []Tab] {
	g := newGroup[WindowKey, []Tab]()
	if !enabled {
		g.set(WindowAll, append([]Tab(nil), ts...))
		return g
	}
	for _, t := range ts {
		key := WindowKey(strconv.Itoa(t.WindowID))
		cur, _ := g.Get(key)
		g.set(key, append(cur, t))
	}
	return g
}

func byStack(ts []Tab, enabled bool) *Group[StackKey, []Tab] {
	g := newGroup[StackKey, []Tab]()
	if !enabled {
		g.set(StackNone, ts)
		return g
	}
	g.set(StackNone, nil)
	for _, t := range ts {
		key := StackOf(t)
		cur, _ := g.Get(key)
		g.set(key, append(cur, t))
	}
	return g
}

func byHost(ts []Tab, enabled bool) *HostGroups {
	g := newGroup[HostKey, []Tab]()
	if !enabled {
		g.set(HostAll, ts)
		return g
	}
	g.set(HostOther, nil)
	for _, t := range ts {
		key := HostOf(t)
		cur, _ := g.Get(key)
		g.set(key, append(cur, t))
	}
	return g
}

// StackOf returns the stack a tab belongs to, or StackNone when its extData
// is absent, is not a JSON object, or carries no truthy "group" field.
func StackOf(t Tab) StackKey {
	if t.ExtData == nil || *t.ExtData == "" {
		return StackNone
	}
	var parsed any
	if err := json.Unmarshal([]byte(*t.ExtData), &parsed); err != nil {
		return StackNone
	}
	obj, ok := parsed.(map[string]any)
	if !ok {
		return StackNone
	}
	switch v := obj["group"].(type) {
	case string:
		if v != "" {
			return StackKey(v)
		}
	case float64:
		if v != 0 {
			return StackKey(strconv.FormatFloat(v, 'f', -1, 64))
		}
	case bool:
		if v {
			return StackKey("true")
		}
	case map[string]any, []any:
		// objects and arrays are truthy but have no usable name
		if b, err := json.Marshal(v); err == nil {
			return StackKey(b)
		}
	}
	return StackNone
}

// HostOf returns the lower-cased host (with port) of the tab URL, or
// HostOther when the URL cannot be parsed or has no host.
func HostOf(t Tab) HostKey {
	u, err := url.Parse(t.URL)
	if err != nil || u.Host == "" {
		return HostOther
	}
	return HostKey(strings.ToLower(u.Host))
}
