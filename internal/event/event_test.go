package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotifyOrderAndCancel(t *testing.T) {
	var e Event[int]
	var seen []int
	e.Observe(func(v int) { seen = append(seen, v) })
	e.Subscribe(func(v int) bool { seen = append(seen, v*10); return v < 5 })

	assert.True(t, e.Notify(1))
	assert.False(t, e.Notify(7))
	assert.Equal(t, []int{1, 10, 7, 70}, seen)
}

func TestUnsubscribe(t *testing.T) {
	var e Event[string]
	calls := 0
	off := e.Observe(func(string) { calls++ })
	e.Notify("a")
	off()
	e.Notify("b")
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, e.Len())
}
