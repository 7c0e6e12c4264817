package edit

import (
	"github.com/oakwood-commons/kvgrid/internal/column"
	"github.com/oakwood-commons/kvgrid/internal/item"
)

// Command is a committed edit of one cell.
type Command struct {
	Row                 int
	Cell                int
	SerializedValue     any
	PrevSerializedValue any
	Execute             func()
	Undo                func()
}

// CommandHandler receives commands instead of the grid executing them.
type CommandHandler func(it item.Item, col *column.Column, cmd *Command)

// History executes commands and keeps them for undo.
type History struct {
	limit int
	done  []*Command
}

// NewHistory keeps at most limit commands; zero keeps all.
func NewHistory(limit int) *History {
	return &History{limit: limit}
}

// Handle is a CommandHandler.
func (h *History) Handle(_ item.Item, _ *column.Column, cmd *Command) {
	cmd.Execute()
	h.done = append(h.done, cmd)
	if h.limit > 0 && len(h.done) > h.limit {
		h.done = h.done[len(h.done)-h.limit:]
	}
}

// Undo reverts the most recent command.
func (h *History) Undo() (*Command, bool) {
	if len(h.done) == 0 {
		return nil, false
	}
	cmd := h.done[len(h.done)-1]
	h.done = h.done[:len(h.done)-1]
	cmd.Undo()
	return cmd, true
}

// Len returns the number of undoable commands.
func (h *History) Len() int {
	return len(h.done)
}
