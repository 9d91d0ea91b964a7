package services

import (
	"context"

	"disciplinebaby/models"
	"disciplinebaby/repository"
)

// ReportDays is the fixed window of the weekly report.
const ReportDays = 7

type DayCount struct {
	Date      models.Date `json:"date"`
	Weekday   string      `json:"weekday"`
	Completed int         `json:"completed"`
}

type WeeklyReport struct {
	Days           []DayCount `json:"days"`
	TotalCompleted int        `json:"totalCompleted"`
	// CompletionRate is the percentage of tasks dated in the window that
	// are completed.
	CompletionRate int `json:"completionRate"`
	ActiveDays     int `json:"activeDays"`
}

type ReportService struct {
	users *repository.UserRepository
	tasks *repository.TaskRepository
}

func NewReportService(users *repository.UserRepository, tasks *repository.TaskRepository) *ReportService {
	return &ReportService{users: users, tasks: tasks}
}

// Weekly counts completed tasks per day for the seven days ending today,
// oldest first. Tasks are attributed to their due date.
func (s *ReportService) Weekly(ctx context.Context, today models.Date) WeeklyReport {
	return BuildWeeklyReport(s.tasks.Load(ctx), s.users.Load(ctx), today)
}

func BuildWeeklyReport(tasks []models.Task, user models.User, today models.Date) WeeklyReport {
	start := today.AddDays(-(ReportDays - 1))
	report := WeeklyReport{Days: make([]DayCount, ReportDays), ActiveDays: user.ActiveDays}
	index := make(map[models.Date]int, ReportDays)
	for i := range report.Days {
		day := start.AddDays(i)
		report.Days[i] = DayCount{Date: day, Weekday: models.WeekdayTokens[day.Weekday()]}
		index[day] = i
	}

	dated := 0
	for _, t := range tasks {
		i, ok := index[t.DueDate]
		if !ok {
			continue
		}
		dated++
		if t.Completed {
			report.Days[i].Completed++
			report.TotalCompleted++
		}
	}
	if dated > 0 {
		report.CompletionRate = report.TotalCompleted * 100 / dated
	}
	return report
}
