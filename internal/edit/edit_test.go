package edit

import (
	"errors"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakwood-commons/kvgrid/internal/column"
	"github.com/oakwood-commons/kvgrid/internal/item"
)

type controller struct {
	commit, cancel bool
	commits        int
}

func (c *controller) CommitCurrentEdit() bool {
	c.commits++
	return c.commit
}

func (c *controller) CancelCurrentEdit() bool { return c.cancel }

func TestLockExclusivity(t *testing.T) {
	l := NewLock()
	a := &controller{commit: true, cancel: true}
	b := &controller{commit: true, cancel: true}

	assert.True(t, l.CommitCurrentEdit(), "no holder commits trivially")
	assert.True(t, l.CancelCurrentEdit())
	assert.False(t, l.IsActive(nil))

	require.NoError(t, l.Activate(a))
	require.NoError(t, l.Activate(a), "re-activating the holder")
	assert.True(t, l.IsActive(a))
	assert.True(t, l.IsActive(nil))

	err := l.Activate(b)
	assert.True(t, errors.Is(err, ErrLockHeld))
	assert.False(t, l.IsActive(b))

	assert.True(t, errors.Is(l.Deactivate(b), ErrNotActive))
	assert.True(t, errors.Is(l.Activate(nil), ErrNilController))

	a.commit = false
	assert.False(t, l.CommitCurrentEdit())
	assert.Equal(t, 1, a.commits)

	require.NoError(t, l.Deactivate(a))
	require.NoError(t, l.Activate(b))
}

func TestDefaultLockIsShared(t *testing.T) {
	assert.Same(t, DefaultLock(), DefaultLock())
	assert.NotSame(t, NewLock(), NewLock())
}

func TestHistory(t *testing.T) {
	it := item.Item{"v": 1}
	h := NewHistory(2)
	mk := func(v int) *Command {
		prev := it["v"]
		return &Command{
			SerializedValue:     v,
			PrevSerializedValue: prev,
			Execute:             func() { it["v"] = v },
			Undo:                func() { it["v"] = prev },
		}
	}
	h.Handle(it, nil, mk(2))
	h.Handle(it, nil, mk(3))
	h.Handle(it, nil, mk(4))
	assert.Equal(t, 4, it["v"])
	assert.Equal(t, 2, h.Len())

	cmd, ok := h.Undo()
	require.True(t, ok)
	assert.Equal(t, 4, cmd.SerializedValue)
	assert.Equal(t, 3, it["v"])
	h.Undo()
	assert.Equal(t, 2, it["v"])
	_, ok = h.Undo()
	assert.False(t, ok)
}

func newArgs(col column.Column) column.EditorArgs {
	return column.EditorArgs{Column: &col, Position: column.Box{Width: 10}}
}

func TestTextEditor(t *testing.T) {
	col := column.New("name", "", "")
	col.Validator = func(v any) column.ValidationResult {
		if v == "" {
			return column.ValidationResult{Msg: "required"}
		}
		return column.Valid
	}
	e := NewText(newArgs(col)).(*Text)
	require.NoError(t, e.Init())
	it := item.Item{"name": "ada"}
	e.LoadValue(it)
	e.Focus()

	assert.False(t, e.IsValueChanged())
	assert.Equal(t, "ada", e.SerializeValue())

	e.SetValue("")
	assert.True(t, e.IsValueChanged())
	assert.Equal(t, "required", e.Validate().Msg)

	e.SetValue("grace")
	assert.True(t, e.Validate().Valid)
	e.ApplyValue(it, e.SerializeValue())
	assert.Equal(t, "grace", it["name"])
	e.Destroy()
}

func TestNumberEditor(t *testing.T) {
	e := NewNumber(newArgs(column.New("n", "", ""))).(*Number)
	require.NoError(t, e.Init())
	e.LoadValue(item.Item{"n": 2.0})
	assert.Equal(t, 2.0, e.SerializeValue())
	assert.False(t, e.IsValueChanged(), "integral floats load without a fraction")

	e.SetValue("abc")
	assert.False(t, e.Validate().Valid)
	e.SetValue(" 3.5 ")
	assert.True(t, e.Validate().Valid)
	assert.Equal(t, 3.5, e.SerializeValue())
	e.SetValue("")
	assert.Nil(t, e.SerializeValue())
}

func TestCheckboxEditor(t *testing.T) {
	e := NewCheckbox(newArgs(column.New("done", "", ""))).(*Checkbox)
	require.NoError(t, e.Init())
	it := item.Item{"done": "true"}
	e.LoadValue(it)
	assert.Equal(t, "[x]", e.View())

	e.Update(tea.KeyPressMsg{Code: ' ', Text: " "})
	assert.True(t, e.IsValueChanged())
	assert.Equal(t, false, e.SerializeValue())
	e.ApplyValue(it, e.SerializeValue())
	assert.Equal(t, false, it["done"])
}
