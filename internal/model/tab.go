package model

import "fmt"

// Tab identifies one of the four gallery views.
type Tab string

const (
	TabExplore Tab = "explore"
	TabTop     Tab = "top"
	TabLikes   Tab = "likes"
	TabLibrary Tab = "library"
)

// Tabs lists all tabs in display order.
var Tabs = []Tab{TabExplore, TabTop, TabLikes, TabLibrary}

// RequiresAuth reports whether the tab can only be fetched with an
// authenticated session.
func (t Tab) RequiresAuth() bool {
	return t == TabLikes || t == TabLibrary
}

// Valid reports whether t is one of the four known tabs.
func (t Tab) Valid() bool {
	switch t {
	case TabExplore, TabTop, TabLikes, TabLibrary:
		return true
	}
	return false
}

// ParseTab converts a user-supplied tab name.
func ParseTab(s string) (Tab, error) {
	t := Tab(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown tab %q (expected explore, top, likes or library)", s)
	}
	return t, nil
}
