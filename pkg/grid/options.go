package grid

import (
	"time"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/kvgrid/internal/column"
	"github.com/oakwood-commons/kvgrid/internal/edit"
	"github.com/oakwood-commons/kvgrid/internal/item"
	"github.com/oakwood-commons/kvgrid/internal/loop"
	"github.com/oakwood-commons/kvgrid/internal/selection"
	"github.com/oakwood-commons/kvgrid/internal/viewport"
)

// Options configures a Grid. Start from DefaultOptions.
type Options struct {
	// RowHeight is the height of a row in surface units (terminal lines).
	RowHeight int
	// MaxSupportedHeight is the tallest surface the host can scroll before
	// the grid switches to paged scrolling.
	MaxSupportedHeight int
	// MinRowBuffer rows are kept rendered behind the scroll direction.
	MinRowBuffer int
	// FrozenColumn is the last pinned column, or -1 for none.
	FrozenColumn int

	EnableCellNavigation bool
	Editable             bool
	// AutoEdit opens the editor as soon as a cell becomes active.
	AutoEdit bool
	// EnableAddRow appends a new-row slot after the last data row.
	EnableAddRow bool
	// GenerateIDs fills the id field of new-row items with a UUID.
	GenerateIDs bool
	IDField     string

	AsyncEditorLoading    bool
	AsyncEditorLoadDelay  time.Duration
	EnableAsyncPostRender bool
	AsyncPostRenderDelay  time.Duration
	// ViewportChangedDelay debounces OnViewportChanged.
	ViewportChangedDelay time.Duration
	// RenderDelay is the delay of the trailing render scheduled after a
	// scroll jump larger than a viewport.
	RenderDelay time.Duration
	// ForceSyncScrolling renders on every scroll, however far it jumped.
	ForceSyncScrolling bool

	DefaultFormatter   column.Formatter
	EditCommandHandler edit.CommandHandler
	// Lock is the edit lock. Nil gives the grid a private lock; pass
	// edit.DefaultLock() to share one with other grids.
	Lock           *edit.Lock
	SelectionModel selection.Model

	Logger logr.Logger
	// Loop drives deferred work. Nil creates one on the wall clock; the host
	// must call RunDue on it.
	Loop *loop.Loop
}

// DefaultOptions returns the usual settings for a terminal host.
func DefaultOptions() Options {
	return Options{
		RowHeight:            viewport.DefaultRowHeight,
		MaxSupportedHeight:   viewport.DefaultMaxSupportedHeight,
		MinRowBuffer:         viewport.DefaultMinRowBuffer,
		FrozenColumn:         -1,
		EnableCellNavigation: true,
		IDField:              item.DefaultIDField,
		AsyncEditorLoadDelay: 100 * time.Millisecond,
		AsyncPostRenderDelay: 50 * time.Millisecond,
		ViewportChangedDelay: 20 * time.Millisecond,
		RenderDelay:          50 * time.Millisecond,
		Logger:               logr.Discard(),
	}
}
