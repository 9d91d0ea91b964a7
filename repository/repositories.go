package repository

import (
	"context"
	"log/slog"
	"time"

	"disciplinebaby/events"
	"disciplinebaby/models"
	"disciplinebaby/recurrence"
	"disciplinebaby/storage"
)

type TaskRepository struct {
	*Collection[models.Task]
}

func NewTaskRepository(store storage.Store, userID string, bus *events.Bus, log *slog.Logger, clock func() time.Time) *TaskRepository {
	identity := Identity[models.Task]{
		ID: func(t *models.Task) string { return t.ID },
		SetID: func(t *models.Task, id, userID string) {
			t.ID = id
			t.UserID = userID
		},
		Create: func(t *models.Task) {
			if t.Status == "" {
				t.Status = models.TaskStatusActive
			}
		},
	}
	defaults := func() []models.Task {
		now := clock()
		return models.DefaultTasks(userID, models.DateOf(now), now)
	}
	key := storage.Key{Kind: storage.KindTasks, UserID: userID}
	return &TaskRepository{NewCollection(store, key, identity, defaults, bus, log)}
}

// SetCompleted flips the completed flag of task id when it differs from
// completed. changed is false when the stored flag already matched.
func (r *TaskRepository) SetCompleted(ctx context.Context, id string, completed bool) (models.Task, bool, error) {
	return r.Update(ctx, id, func(t *models.Task) bool {
		if t.Completed == completed {
			return false
		}
		t.Completed = completed
		return true
	})
}

// DueOn lists the tasks due on the calendar day of today.
func (r *TaskRepository) DueOn(ctx context.Context, today time.Time) []models.Task {
	return recurrence.FilterDueToday(r.Load(ctx), today)
}

type AchievementRepository struct {
	*Collection[models.Achievement]
}

func NewAchievementRepository(store storage.Store, userID string, bus *events.Bus, log *slog.Logger, clock func() time.Time) *AchievementRepository {
	identity := Identity[models.Achievement]{
		ID: func(a *models.Achievement) string { return a.ID },
		SetID: func(a *models.Achievement, id, userID string) {
			a.ID = id
			a.UserID = userID
		},
	}
	defaults := func() []models.Achievement {
		return models.DefaultAchievements(userID, clock())
	}
	key := storage.Key{Kind: storage.KindAchievements, UserID: userID}
	return &AchievementRepository{NewCollection(store, key, identity, defaults, bus, log)}
}

// Unlock marks achievement id unlocked at the given time. Unlocking twice
// keeps the first date.
func (r *AchievementRepository) Unlock(ctx context.Context, id string, at time.Time) (models.Achievement, bool, error) {
	return r.Update(ctx, id, func(a *models.Achievement) bool {
		if a.Unlocked {
			return false
		}
		stamp := at.UTC()
		a.Unlocked = true
		a.DateUnlocked = &stamp
		return true
	})
}

type RewardRepository struct {
	*Collection[models.Reward]
}

func NewRewardRepository(store storage.Store, userID string, bus *events.Bus, log *slog.Logger) *RewardRepository {
	identity := Identity[models.Reward]{
		ID: func(r *models.Reward) string { return r.ID },
		SetID: func(r *models.Reward, id, userID string) {
			r.ID = id
			r.UserID = userID
		},
	}
	defaults := func() []models.Reward {
		return models.DefaultRewards(userID)
	}
	key := storage.Key{Kind: storage.KindRewards, UserID: userID}
	return &RewardRepository{NewCollection(store, key, identity, defaults, bus, log)}
}
