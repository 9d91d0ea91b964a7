// Package recurrence decides which tasks are due on a given day.
package recurrence

import (
	"slices"
	"time"

	"disciplinebaby/models"
)

// IsDueToday reports whether task should be shown on the calendar day of
// today, evaluated in today's own location.
//
// Only tasks with status "active" can be due. A weekly rule with at least
// one weekday decides on its own and the due date is ignored. Anything else
// is due only on its due date. Weekday tokens must match exactly.
func IsDueToday(task models.Task, today time.Time) bool {
	if !task.Active() {
		return false
	}
	if task.Recurrence.Weekly() {
		return slices.Contains(task.Recurrence.DaysOfWeek, models.WeekdayTokens[today.Weekday()])
	}
	return !task.DueDate.IsZero() && task.DueDate == models.DateOf(today)
}

// FilterDueToday keeps the tasks due today in their original order.
func FilterDueToday(tasks []models.Task, today time.Time) []models.Task {
	due := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if IsDueToday(t, today) {
			due = append(due, t)
		}
	}
	return due
}

// NextDue returns the first day on or after from that the task is due,
// looking at most a week ahead for weekly rules. ok is false for inactive
// tasks and for one-off tasks whose date has passed.
func NextDue(task models.Task, from time.Time) (models.Date, bool) {
	if !task.Active() {
		return models.Date{}, false
	}
	if task.Recurrence.Weekly() {
		for i := 0; i < 7; i++ {
			day := from.AddDate(0, 0, i)
			if IsDueToday(task, day) {
				return models.DateOf(day), true
			}
		}
		return models.Date{}, false
	}
	if task.DueDate.IsZero() || task.DueDate.Before(models.DateOf(from)) {
		return models.Date{}, false
	}
	return task.DueDate, true
}
