package services

import (
	"context"
	"time"

	"disciplinebaby/models"
	"disciplinebaby/progression"
	"disciplinebaby/repository"
)

// UserService tracks activity on the profile and reports goal progress.
type UserService struct {
	users        *repository.UserRepository
	tasks        *repository.TaskRepository
	achievements *repository.AchievementRepository
	rewards      *repository.RewardRepository
}

func NewUserService(users *repository.UserRepository, tasks *repository.TaskRepository, achievements *repository.AchievementRepository, rewards *repository.RewardRepository) *UserService {
	return &UserService{users: users, tasks: tasks, achievements: achievements, rewards: rewards}
}

// RecordVisit counts today as an active day the first time it is called on
// a calendar day. counted reports whether the count went up.
func (s *UserService) RecordVisit(ctx context.Context, today models.Date) (models.User, bool, error) {
	u := s.users.Load(ctx)
	if u.LastActiveDate == today {
		return u, false, nil
	}
	u, err := s.users.Update(ctx, func(u *models.User) {
		u.LastActiveDate = today
		u.ActiveDays++
	})
	if err != nil {
		return models.User{}, false, err
	}
	return u, true, nil
}

type RewardStatus struct {
	models.Reward
	Progress progression.Progress `json:"progress"`
}

type AchievementStatus struct {
	models.Achievement
	Progress progression.Progress `json:"progress"`
}

type ProgressOverview struct {
	Level          int                 `json:"level"`
	XP             int                 `json:"xp"`
	XPToNextLevel  int                 `json:"xpToNextLevel"`
	TotalXP        int                 `json:"totalXP"`
	PetStyle       string              `json:"petStyle"`
	ActiveDays     int                 `json:"activeDays"`
	CompletedTasks int                 `json:"completedTasks"`
	Rewards        []RewardStatus      `json:"rewards"`
	Achievements   []AchievementStatus `json:"achievements"`
}

// Progress reports level, totals and how far each reward and achievement is
// from being reached.
func (s *UserService) Progress(ctx context.Context) ProgressOverview {
	u := s.users.Load(ctx)
	stats := progression.StatsOf(u, s.tasks.Load(ctx))

	overview := ProgressOverview{
		Level:          u.Level,
		XP:             u.XP,
		XPToNextLevel:  u.XPToNextLevel,
		TotalXP:        stats.TotalXP,
		PetStyle:       u.PetStyle,
		ActiveDays:     u.ActiveDays,
		CompletedTasks: stats.CompletedTasks,
	}
	for _, r := range s.rewards.Load(ctx) {
		overview.Rewards = append(overview.Rewards, RewardStatus{Reward: r, Progress: progression.RewardProgress(r, stats)})
	}
	for _, a := range s.achievements.Load(ctx) {
		overview.Achievements = append(overview.Achievements, AchievementStatus{Achievement: a, Progress: progression.AchievementProgress(a, stats)})
	}
	return overview
}

// UnlockReached unlocks every achievement whose goal is now met.
func (s *UserService) UnlockReached(ctx context.Context, now time.Time) ([]models.Achievement, error) {
	u := s.users.Load(ctx)
	stats := progression.StatsOf(u, s.tasks.Load(ctx))

	var unlocked []models.Achievement
	for _, a := range s.achievements.Load(ctx) {
		if a.Unlocked {
			continue
		}
		if p, ok := progression.GoalProgress(a.Type, a.TargetValue, stats); !ok || !p.Redeemable {
			continue
		}
		updated, changed, err := s.achievements.Unlock(ctx, a.ID, now)
		if err != nil {
			return unlocked, err
		}
		if changed {
			unlocked = append(unlocked, updated)
		}
	}
	return unlocked, nil
}
