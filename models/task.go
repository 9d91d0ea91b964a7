// models/task.go
package models

type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

type TaskStatus string

const (
	TaskStatusActive TaskStatus = "active"
	TaskStatusPaused TaskStatus = "paused"
)

// Recurrence units. Only weekly rules with explicit days affect scheduling.
const (
	UnitDay   = "day"
	UnitWeek  = "week"
	UnitMonth = "month"
)

// Weekday tokens used in Recurrence.DaysOfWeek, indexed by time.Weekday.
var WeekdayTokens = [7]string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

type Recurrence struct {
	Interval   int      `json:"interval"`
	Unit       string   `json:"unit"`
	DaysOfWeek []string `json:"daysOfWeek"`
}

// Weekly reports whether the rule schedules by day of week.
func (r *Recurrence) Weekly() bool {
	return r != nil && r.Unit == UnitWeek && len(r.DaysOfWeek) > 0
}

type Task struct {
	ID         string      `json:"id"`
	UserID     string      `json:"userId"`
	Title      string      `json:"title"`
	Category   string      `json:"category"`
	Icon       string      `json:"icon"`
	Difficulty Difficulty  `json:"difficulty"`
	Completed  bool        `json:"completed"`
	Status     TaskStatus  `json:"status"`
	DueDate    Date        `json:"dueDate"`
	Recurrence *Recurrence `json:"recurrence,omitempty"`
	Time       string      `json:"time,omitempty"` // HH:MM
}

// Active reports whether the task is scheduled at all. Only the exact
// "active" status counts.
func (t Task) Active() bool {
	return t.Status == TaskStatusActive
}
