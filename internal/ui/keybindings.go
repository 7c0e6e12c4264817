package ui

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Action is what a key does in the grid.
type Action string

const (
	ActionNone        Action = ""
	ActionUp          Action = "up"
	ActionDown        Action = "down"
	ActionLeft        Action = "left"
	ActionRight       Action = "right"
	ActionNext        Action = "next"
	ActionPrev        Action = "prev"
	ActionHome        Action = "home"
	ActionEnd         Action = "end"
	ActionPageUp      Action = "page_up"
	ActionPageDown    Action = "page_down"
	ActionTop         Action = "top"
	ActionBottom      Action = "bottom"
	ActionEdit        Action = "edit"
	ActionCancel      Action = "cancel"
	ActionToggleGroup Action = "toggle_group"
	ActionCollapseAll Action = "collapse_all"
	ActionExpandAll   Action = "expand_all"
	ActionSort        Action = "sort"
	ActionFilter      Action = "filter"
	ActionSelect      Action = "select"
	ActionUndo        Action = "undo"
	ActionQuit        Action = "quit"
)

var allActions = []Action{
	ActionUp, ActionDown, ActionLeft, ActionRight, ActionNext, ActionPrev,
	ActionHome, ActionEnd, ActionPageUp, ActionPageDown, ActionTop, ActionBottom,
	ActionEdit, ActionCancel, ActionToggleGroup, ActionCollapseAll, ActionExpandAll,
	ActionSort, ActionFilter, ActionSelect, ActionUndo, ActionQuit,
}

// DefaultKeyBindings maps bubbletea key names to actions. Config overrides
// merge on top.
var DefaultKeyBindings = map[string]Action{
	"up":        ActionUp,
	"k":         ActionUp,
	"down":      ActionDown,
	"j":         ActionDown,
	"left":      ActionLeft,
	"h":         ActionLeft,
	"right":     ActionRight,
	"l":         ActionRight,
	"tab":       ActionNext,
	"shift+tab": ActionPrev,
	"home":      ActionHome,
	"0":         ActionHome,
	"end":       ActionEnd,
	"$":         ActionEnd,
	"pgup":      ActionPageUp,
	"ctrl+b":    ActionPageUp,
	"pgdown":    ActionPageDown,
	"ctrl+f":    ActionPageDown,
	"g":         ActionTop,
	"G":         ActionBottom,
	"enter":     ActionEdit,
	"esc":       ActionCancel,
	"space":     ActionToggleGroup,
	"[":         ActionCollapseAll,
	"]":         ActionExpandAll,
	"s":         ActionSort,
	"/":         ActionFilter,
	"x":         ActionSelect,
	"ctrl+z":    ActionUndo,
	"u":         ActionUndo,
	"q":         ActionQuit,
	"ctrl+c":    ActionQuit,
}

// IsValidAction reports whether name is a known action.
func IsValidAction(name string) bool {
	return slices.Contains(allActions, Action(name))
}

// KeyBindings merges overrides (key -> action name) over the defaults. The
// action "none" unbinds a key.
func KeyBindings(overrides map[string]string) (map[string]Action, error) {
	out := maps.Clone(DefaultKeyBindings)
	for key, name := range overrides {
		name = strings.TrimSpace(strings.ToLower(name))
		switch {
		case name == "none" || name == "":
			delete(out, key)
		case IsValidAction(name):
			out[key] = Action(name)
		default:
			return nil, fmt.Errorf("key %q: unknown action %q", key, name)
		}
	}
	return out, nil
}
