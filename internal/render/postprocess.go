package render

import (
	"fmt"
)

// StartPostProcessing schedules deferred rendering for rows from..to. Rows
// are processed one per loop tick, starting at from when dir is not up and
// at to otherwise. It restarts any pass in progress and does nothing without
// a loop or a PostRenderer source.
func (c *Cache) StartPostProcessing(from, to, dir int) {
	if c.loop == nil {
		return
	}
	if _, ok := c.src.(PostRenderer); !ok {
		return
	}
	c.StopPostProcessing()
	if to < from {
		return
	}
	c.postFrom, c.postTo, c.postDir = from, to, dir
	c.schedulePost()
}

// StopPostProcessing cancels the pass in progress.
func (c *Cache) StopPostProcessing() {
	if c.loop != nil && c.postTask != 0 {
		c.loop.Cancel(c.postTask)
	}
	c.postTask = 0
}

// PostProcessing reports whether a pass is scheduled.
func (c *Cache) PostProcessing() bool {
	return c.loop != nil && c.postTask != 0 && c.loop.Pending(c.postTask)
}

func (c *Cache) schedulePost() {
	c.postTask = c.loop.After(c.postDelay, c.postTick)
}

func (c *Cache) postTick() {
	c.postTask = 0
	for c.postFrom <= c.postTo {
		var row int
		if c.postDir >= 0 {
			row = c.postFrom
			c.postFrom++
		} else {
			row = c.postTo
			c.postTo--
		}
		if _, ok := c.entries[row]; !ok {
			continue
		}
		c.postProcessRow(row)
		break
	}
	if c.postFrom <= c.postTo {
		c.schedulePost()
	}
}

func (c *Cache) postProcessRow(row int) {
	pr := c.src.(PostRenderer)
	c.EnsureCellNodes(row)
	e := c.entries[row]
	done := c.postProcessed[row]
	if done == nil {
		done = map[int]bool{}
		c.postProcessed[row] = done
	}
	for col, node := range e.CellNodesByColumnIdx {
		if done[col] || !pr.HasPostRender(col) {
			continue
		}
		done[col] = true
		m, ok := c.surface.CellMarkup(node)
		if !ok {
			continue
		}
		text, err := c.safePostRender(pr, row, col, m.Text)
		if err != nil {
			c.stats.PostFailures++
			c.log.Error(err, "post render failed", "row", row, "col", col)
			continue
		}
		if text != m.Text {
			m.Text = text
			c.surface.UpdateCell(node, m)
		}
		c.stats.PostRendered++
	}
}

func (c *Cache) safePostRender(pr PostRenderer, row, col int, text string) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("post renderer panicked: %v", r)
		}
	}()
	return pr.PostRender(row, col, text)
}

// PostProcessed reports whether the cell at row, col finished deferred
// rendering.
func (c *Cache) PostProcessed(row, col int) bool {
	return c.postProcessed[row][col]
}
