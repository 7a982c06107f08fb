package bridge

import "time"

// Task names driven by the run loop.
const (
	taskPush      = "push"
	taskDiscovery = "discovery"
)

// Schedule tracks a small set of named recurring tasks, each on its own
// fixed interval. It is passive: the owner asks which tasks are due,
// runs them, and marks them ran. No goroutines, no locks; the run loop
// is the only caller.
type Schedule struct {
	order []string
	tasks map[string]*taskState
}

type taskState struct {
	interval time.Duration
	due      time.Time
	lastRun  time.Time
}

// NewSchedule creates an empty schedule.
func NewSchedule() *Schedule {
	return &Schedule{tasks: make(map[string]*taskState)}
}

// Add registers a task with its interval and first due time. Re-adding
// an existing task replaces its state but keeps its position.
func (s *Schedule) Add(task string, interval time.Duration, firstDue time.Time) {
	if _, exists := s.tasks[task]; !exists {
		s.order = append(s.order, task)
	}
	s.tasks[task] = &taskState{interval: interval, due: firstDue}
}

// Due returns the tasks due at or before now, in registration order.
func (s *Schedule) Due(now time.Time) []string {
	var due []string
	for _, task := range s.order {
		if !s.tasks[task].due.After(now) {
			due = append(due, task)
		}
	}
	return due
}

// Ran records a completed run and schedules the next one a full interval
// from now. Intervals measure from completion, not from the previous
// deadline, so a slow cycle pushes the next run out instead of bunching
// runs together.
func (s *Schedule) Ran(task string, now time.Time) {
	st, ok := s.tasks[task]
	if !ok {
		return
	}
	st.lastRun = now
	st.due = now.Add(st.interval)
}

// NextWake returns how long to sleep until the earliest due task, or
// zero when a task is already due. A schedule with no tasks also
// returns zero; callers always register tasks before waiting.
func (s *Schedule) NextWake(now time.Time) time.Duration {
	var earliest time.Time
	for _, task := range s.order {
		due := s.tasks[task].due
		if earliest.IsZero() || due.Before(earliest) {
			earliest = due
		}
	}
	if earliest.IsZero() {
		return 0
	}
	wait := earliest.Sub(now)
	if wait < 0 {
		return 0
	}
	return wait
}

// LastRun returns when the task last completed, or the zero time if it
// has not run yet.
func (s *Schedule) LastRun(task string) time.Time {
	if st, ok := s.tasks[task]; ok {
		return st.lastRun
	}
	return time.Time{}
}
