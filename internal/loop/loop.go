// Package loop is a single-threaded timer queue. Tasks never run on their
// own goroutine: the owner calls RunDue from its event loop (the bubbletea
// update loop, or a test) and due tasks execute on the caller's goroutine.
package loop

import (
	"sort"
	"time"
)

// TaskID identifies a scheduled task. The zero value is never issued.
type TaskID uint64

type task struct {
	id  TaskID
	due time.Time
	fn  func()
}

// Loop holds pending tasks ordered by due time.
type Loop struct {
	now    func() time.Time
	next   TaskID
	tasks  []task
	active map[TaskID]struct{}
}

// New returns a loop reading time from now (time.Now when nil).
func New(now func() time.Time) *Loop {
	if now == nil {
		now = time.Now
	}
	return &Loop{now: now, active: map[TaskID]struct{}{}}
}

// Now returns the loop's current time.
func (l *Loop) Now() time.Time {
	return l.now()
}

// After schedules fn to run once d has elapsed.
func (l *Loop) After(d time.Duration, fn func()) TaskID {
	l.next++
	id := l.next
	t := task{id: id, due: l.now().Add(d), fn: fn}
	i := sort.Search(len(l.tasks), func(i int) bool { return l.tasks[i].due.After(t.due) })
	l.tasks = append(l.tasks, task{})
	copy(l.tasks[i+1:], l.tasks[i:])
	l.tasks[i] = t
	l.active[id] = struct{}{}
	return id
}

// Cancel drops a pending task. Cancelling an unknown or finished task is a
// no-op.
func (l *Loop) Cancel(id TaskID) {
	if id == 0 {
		return
	}
	if _, ok := l.active[id]; !ok {
		return
	}
	delete(l.active, id)
	for i, t := range l.tasks {
		if t.id == id {
			l.tasks = append(l.tasks[:i], l.tasks[i+1:]...)
			return
		}
	}
}

// Pending reports whether id is still scheduled.
func (l *Loop) Pending(id TaskID) bool {
	_, ok := l.active[id]
	return ok
}

// Len returns the number of pending tasks.
func (l *Loop) Len() int {
	return len(l.tasks)
}

// NextDue returns the due time of the earliest task.
func (l *Loop) NextDue() (time.Time, bool) {
	if len(l.tasks) == 0 {
		return time.Time{}, false
	}
	return l.tasks[0].due, true
}

// RunDue runs every task due at the loop's current time, including tasks
// scheduled by other tasks with a zero delay, and returns how many ran.
func (l *Loop) RunDue() int {
	ran := 0
	for len(l.tasks) > 0 {
		now := l.now()
		t := l.tasks[0]
		if t.due.After(now) {
			break
		}
		l.tasks = l.tasks[1:]
		delete(l.active, t.id)
		t.fn()
		ran++
	}
	return ran
}

// Drain runs pending tasks in due order without waiting for them to fall
// due, stopping after limit tasks. It returns how many ran.
func (l *Loop) Drain(limit int) int {
	ran := 0
	for len(l.tasks) > 0 && ran < limit {
		t := l.tasks[0]
		l.tasks = l.tasks[1:]
		delete(l.active, t.id)
		t.fn()
		ran++
	}
	return ran
}
