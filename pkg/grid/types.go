package grid

import (
	"errors"

	"github.com/oakwood-commons/kvgrid/internal/aggregate"
	"github.com/oakwood-commons/kvgrid/internal/column"
	"github.com/oakwood-commons/kvgrid/internal/dataview"
	"github.com/oakwood-commons/kvgrid/internal/edit"
	"github.com/oakwood-commons/kvgrid/internal/item"
	"github.com/oakwood-commons/kvgrid/internal/render"
	"github.com/oakwood-commons/kvgrid/internal/selection"
	"github.com/oakwood-commons/kvgrid/internal/viewport"
)

// Re-exported types so library users never import internal packages.
type (
	Item             = item.Item
	Column           = column.Column
	Formatter        = column.Formatter
	TotalsFormatter  = column.TotalsFormatter
	Editor           = column.Editor
	EditorArgs       = column.EditorArgs
	EditorFactory    = column.EditorFactory
	ValidationResult = column.ValidationResult
	Metadata         = column.Metadata
	CellMetadata     = column.CellMetadata
	Row              = dataview.Row
	Group            = dataview.Group
	GroupingInfo     = dataview.GroupingInfo
	DataView         = dataview.DataView
	RefreshHints     = dataview.RefreshHints
	Aggregator       = aggregate.Aggregator
	Totals           = aggregate.Totals
	Range            = viewport.Range
	Command          = edit.Command
	CommandHandler   = edit.CommandHandler
	Lock             = edit.Lock
	Position         = selection.Position
	State            = selection.State
	Canvas           = render.Canvas
	Surface          = render.Surface
)

// Constructors re-exported from internal packages.
var (
	NewColumn                = column.New
	NewDataView              = dataview.New
	NewCanvas                = render.NewCanvas
	NewLock                  = edit.NewLock
	DefaultLock              = edit.DefaultLock
	NewRowSelectionModel     = selection.NewRowSelectionModel
	NewGroupMetadataProvider = dataview.NewGroupMetadataProvider
)

// Errors.
var (
	// ErrNoActiveCell is returned by operations that need an active cell.
	ErrNoActiveCell = errors.New("no active cell")
	// ErrNotEditable is returned when the active cell cannot be edited.
	ErrNotEditable = errors.New("cell is not editable")
	// ErrEditCancelled is returned when an OnBeforeEditCell handler vetoed
	// the edit.
	ErrEditCancelled = errors.New("edit cancelled by handler")
	// ErrInvalidCell is returned for a cell that cannot become active.
	ErrInvalidCell = errors.New("cell cannot be activated")
	// ErrCommitRejected is returned when the open edit failed validation and
	// blocks the requested move.
	ErrCommitRejected = errors.New("pending edit failed validation")

	ErrInvalidDirection = selection.ErrInvalidDirection
	ErrNoSelectionModel = selection.ErrNoSelectionModel
	ErrLockHeld         = edit.ErrLockHeld
	ErrNotActive        = edit.ErrNotActive
	ErrNilController    = edit.ErrNilController
	ErrMissingID        = dataview.ErrMissingID
	ErrDuplicateID      = dataview.ErrDuplicateID
	ErrNoSortComparer   = dataview.ErrNoSortComparer
)

// DataProvider is the row source of a Grid. A DataView satisfies it; a
// remote source returns false from Row for rows not loaded yet, which render
// as loading rows.
type DataProvider interface {
	Len() int
	Row(i int) (Row, bool)
	ItemMetadata(i int) *Metadata
}

// ItemUpdater is implemented by providers that must learn about edits
// applied to their items.
type ItemUpdater interface {
	UpdateItem(id any, it Item) error
}
