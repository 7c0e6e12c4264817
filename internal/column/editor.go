package column

import "github.com/oakwood-commons/kvgrid/internal/item"

// Box is the on-surface rectangle of a cell, used by detached editors.
type Box struct {
	Top, Left, Width, Height int
	Visible                  bool
}

// EditorArgs are handed to an EditorFactory when a cell enters edit mode.
type EditorArgs struct {
	Column   *Column
	Item     item.Item
	Position Box
	// CommitChanges and CancelChanges let the editor end the edit on its own,
	// for example on Enter or Esc.
	CommitChanges func()
	CancelChanges func()
}

// Editor is a live in-place editor. Exactly one instance exists at a time.
type Editor interface {
	Init() error
	Destroy()
	Focus()
	LoadValue(it item.Item)
	SerializeValue() any
	ApplyValue(it item.Item, value any)
	IsValueChanged() bool
	Validate() ValidationResult
}

// Positioner is implemented by editors that draw outside the cell.
type Positioner interface {
	Show()
	Hide()
	Position(box Box)
}

// EditorFactory builds an editor for one edit session.
type EditorFactory func(args EditorArgs) Editor
