package mux

import "iter"

// Tabs is an ordered list of tabs with an active cursor. Whenever the list
// is non-empty, 0 <= ActiveIndex() < Len().
//
// Tabs is not safe for concurrent use.
type Tabs struct {
	tabs   []*Tab
	active int
}

// Len returns the number of tabs.
func (t *Tabs) Len() int { return len(t.tabs) }

// Push appends a tab without changing the active index.
func (t *Tabs) Push(tab *Tab) {
	t.tabs = append(t.tabs, tab)
}

// ActiveIndex returns the active index, 0 when empty.
func (t *Tabs) ActiveIndex() int { return t.active }

// SetActive makes idx active. Out of range indices are ignored.
func (t *Tabs) SetActive(idx int) bool {
	if idx < 0 || idx >= len(t.tabs) {
		return false
	}
	t.active = idx
	return true
}

// Active returns the active tab, or nil when empty.
func (t *Tabs) Active() *Tab {
	if len(t.tabs) == 0 {
		return nil
	}
	return t.tabs[t.active]
}

// At returns the tab at idx, or nil.
func (t *Tabs) At(idx int) *Tab {
	if idx < 0 || idx >= len(t.tabs) {
		return nil
	}
	return t.tabs[idx]
}

// Find returns the tab with the given id.
func (t *Tabs) Find(id TabID) (*Tab, bool) {
	for _, tab := range t.tabs {
		if tab.id == id {
			return tab, true
		}
	}
	return nil, false
}

// RemoveByID removes the tab with id and keeps the active index in range.
// Tabs after the removed one shift down; if the removed tab was before the
// active one, the same tab stays active.
func (t *Tabs) RemoveByID(id TabID) (*Tab, bool) {
	for i, tab := range t.tabs {
		if tab.id != id {
			continue
		}
		t.tabs = append(t.tabs[:i], t.tabs[i+1:]...)
		if i < t.active || t.active >= len(t.tabs) {
			t.active = max(0, t.active-1)
		}
		return tab, true
	}
	return nil, false
}

// All iterates over the tabs in order.
func (t *Tabs) All() iter.Seq2[int, *Tab] {
	return func(yield func(int, *Tab) bool) {
		for i, tab := range t.tabs {
			if !yield(i, tab) {
				return
			}
		}
	}
}
