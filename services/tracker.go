package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"disciplinebaby/models"
	"disciplinebaby/progression"
	"disciplinebaby/repository"
)

// CompletionResult describes what a completion toggle did.
type CompletionResult struct {
	Task models.Task `json:"task"`
	User models.User `json:"user"`
	// Changed is false when the task already had the requested flag.
	Changed   bool `json:"changed"`
	XPDelta   int  `json:"xpDelta"`
	LeveledUp bool `json:"leveledUp"`
}

// TrackerService owns task completion: the task flag and the XP it is worth
// change together.
type TrackerService struct {
	users *repository.UserRepository
	tasks *repository.TaskRepository
	log   *slog.Logger

	// mu serializes completions within the process so a double submit
	// cannot award XP twice.
	mu sync.Mutex
}

func NewTrackerService(users *repository.UserRepository, tasks *repository.TaskRepository, log *slog.Logger) *TrackerService {
	return &TrackerService{users: users, tasks: tasks, log: log}
}

// CompleteTask sets the completed flag of task id. XP is awarded or taken
// back only when the flag actually changes. When the profile cannot be
// written the task flag is rolled back.
func (s *TrackerService) CompleteTask(ctx context.Context, id string, completed bool) (CompletionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, changed, err := s.tasks.SetCompleted(ctx, id, completed)
	if err != nil {
		return CompletionResult{}, fmt.Errorf("complete task %s: %w", id, err)
	}
	if !changed {
		return CompletionResult{Task: task, User: s.users.Load(ctx)}, nil
	}

	var before progression.State
	user, err := s.users.Update(ctx, func(u *models.User) {
		before = progression.StateOf(*u)
		progression.ApplyCompletion(before, task.Difficulty, completed).Apply(u)
	})
	if err != nil {
		if _, _, rbErr := s.tasks.SetCompleted(ctx, id, !completed); rbErr != nil {
			s.log.Error("could not roll back task flag", "task", id, "error", rbErr)
		}
		return CompletionResult{}, fmt.Errorf("award xp for task %s: %w", id, err)
	}

	delta := user.XP - before.XP
	if completed {
		delta = progression.XPFor(task.Difficulty)
	}
	result := CompletionResult{
		Task:      task,
		User:      user,
		Changed:   true,
		XPDelta:   delta,
		LeveledUp: user.Level > before.Level,
	}
	s.log.Info("task completion changed", "task", id, "completed", completed, "xpDelta", result.XPDelta, "level", user.Level)
	return result, nil
}
