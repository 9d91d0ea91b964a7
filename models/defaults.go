// models/defaults.go
package models

import (
	"fmt"
	"time"
)

// DefaultUser is the profile created the first time a user is loaded.
func DefaultUser(userID string) User {
	return User{
		ID:            userID,
		Name:          "Alex",
		Avatar:        "avatar1",
		PetStyle:      DefaultPetStyle,
		PetName:       "Bubbles",
		Level:         DefaultLevel,
		XP:            75,
		XPToNextLevel: DefaultXPToNextLevel,
		PomodoroSettings: &PomodoroSettings{
			Modes: []PomodoroMode{
				{ID: "work", Name: "Work", Duration: 25},
				{ID: "shortBreak", Name: "Short Break", Duration: 5},
				{ID: "longBreak", Name: "Long Break", Duration: 15},
			},
			LongBreakInterval: 4,
		},
		AppName:            "Discipline Baby",
		LandingTitle:       "Gamify Your Child's Habits",
		LandingDescription: "Turn daily routines and learning into a fun adventure. Motivate your kids with rewards, achievements, and a virtual pet that grows with them.",
		LandingCta:         "Get Started for Free",
		DashboardLink:      "Settings",
	}
}

// DefaultTasks seeds a new user's task list. Both tasks are due on today.
func DefaultTasks(userID string, today Date, now time.Time) []Task {
	stamp := now.UnixMilli()
	return []Task{
		{
			ID:         fmt.Sprintf("default-%d-1", stamp),
			UserID:     userID,
			Title:      "Read for 20 minutes",
			Category:   "Learning",
			Icon:       "Learning",
			Difficulty: DifficultyEasy,
			Status:     TaskStatusActive,
			DueDate:    today,
			Recurrence: &Recurrence{
				Interval:   1,
				Unit:       UnitWeek,
				DaysOfWeek: []string{"mon", "tue", "wed", "thu", "fri"},
			},
			Time: "20:00",
		},
		{
			ID:         fmt.Sprintf("default-%d-2", stamp),
			UserID:     userID,
			Title:      "Practice drawing",
			Category:   "Creative",
			Icon:       "Creative",
			Difficulty: DifficultyMedium,
			Status:     TaskStatusActive,
			DueDate:    today,
			Recurrence: &Recurrence{
				Interval:   1,
				Unit:       UnitWeek,
				DaysOfWeek: []string{"tue", "thu"},
			},
			Time: "16:30",
		},
	}
}

func DefaultAchievements(userID string, now time.Time) []Achievement {
	unlockedAt := now.Add(-24 * time.Hour).UTC()
	return []Achievement{
		{
			ID:           "default-ach-1",
			UserID:       userID,
			Title:        "First Task",
			Description:  "Complete your first task.",
			Icon:         "Trophy",
			Unlocked:     true,
			DateUnlocked: &unlockedAt,
			Type:         GoalTotalTasks,
			TargetValue:  "1",
		},
		{
			ID:          "default-ach-2",
			UserID:      userID,
			Title:       "Task Master",
			Description: "Complete 10 tasks.",
			Icon:        "Star",
			Type:        GoalTotalTasks,
			TargetValue: "10",
		},
		{
			ID:          "default-ach-3",
			UserID:      userID,
			Title:       "Weekly Warrior",
			Description: "Log in for 7 days in a row.",
			Icon:        "Zap",
			Type:        GoalDaysCount,
			TargetValue: "7",
		},
	}
}

func DefaultRewards(userID string) []Reward {
	reward := func(id, title, description, icon string, tasks int) Reward {
		return Reward{
			ID:            id,
			UserID:        userID,
			Title:         title,
			Description:   description,
			Icon:          icon,
			TasksRequired: tasks,
		}
	}
	return []Reward{
		reward("reward-mat-1", "Snack", "Pick a favourite snack.", "Gift", 5),
		reward("reward-mat-2", "Small toy", "A small toy of your choice.", "Gift", 10),
		reward("reward-mat-3", "Stationery", "New pens, stickers or a notebook.", "Brush", 5),
		reward("reward-mat-4", "A book you want", "Choose a new book to read.", "Book", 15),
		reward("reward-mat-5", "Gadget time", "Extra time with an electronic device.", "Zap", 20),
		reward("reward-mat-6", "Eat out", "A family meal at a restaurant.", "Gift", 10),
		reward("reward-exp-1", "Quality time", "An afternoon doing something together.", "Flower", 0),
		reward("reward-exp-2", "Special outing", "A trip to the zoo, museum or park.", "Star", 30),
		reward("reward-exp-3", "Your call", "Decide the plan for one evening.", "Trophy", 5),
	}
}
