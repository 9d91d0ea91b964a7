// database/rows.go - Relational representation of the tracker records
package database

import (
	"encoding/json"
	"fmt"
	"time"

	"disciplinebaby/models"
)

type UserRow struct {
	ID             string      `gorm:"primaryKey;size:64"`
	Name           string      `gorm:"size:100"`
	Avatar         string      `gorm:"type:text"`
	PetStyle       string      `gorm:"size:32;default:pet1"`
	PetName        string      `gorm:"size:100"`
	Level          int         `gorm:"not null;default:1"`
	XP             int         `gorm:"column:xp;not null;default:0"`
	XPToNextLevel  int         `gorm:"column:xp_to_next_level;not null;default:100"`
	ActiveDays     int         `gorm:"not null;default:0"`
	LastActiveDate models.Date `gorm:"type:varchar(10)"`
	AppLogo        string      `gorm:"type:text"`
	FrontendLogo   string      `gorm:"type:text"`
	// PomodoroSettings holds the settings object as JSON text
	PomodoroSettings string `gorm:"type:text"`

	AppName            string `gorm:"type:text"`
	LandingTitle       string `gorm:"type:text"`
	LandingDescription string `gorm:"type:text"`
	LandingCta         string `gorm:"type:text"`
	DashboardLink      string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (UserRow) TableName() string { return "users" }

type TaskRow struct {
	RowID      uint        `gorm:"column:row_id;primaryKey;autoIncrement"`
	TaskID     string      `gorm:"column:task_id;size:64;not null;uniqueIndex:idx_tasks_user_task"`
	UserID     string      `gorm:"size:64;not null;uniqueIndex:idx_tasks_user_task"`
	Position   int         `gorm:"not null"`
	Title      string      `gorm:"not null"`
	Category   string      `gorm:"size:64"`
	Icon       string      `gorm:"size:64"`
	Difficulty string      `gorm:"size:16"`
	Completed  bool        `gorm:"not null;default:false"`
	Status     string      `gorm:"size:16;default:active"`
	DueDate    models.Date `gorm:"type:varchar(10)"`
	// Recurrence holds the rule as JSON text, NULL when absent
	Recurrence *string `gorm:"type:text"`
	Time       string  `gorm:"size:5"`
}

func (TaskRow) TableName() string { return "tasks" }

type AchievementRow struct {
	RowID         uint   `gorm:"column:row_id;primaryKey;autoIncrement"`
	AchievementID string `gorm:"column:achievement_id;size:64;not null;uniqueIndex:idx_achievements_user_achievement"`
	UserID        string `gorm:"size:64;not null;uniqueIndex:idx_achievements_user_achievement"`
	Position      int    `gorm:"not null"`
	Title         string `gorm:"not null"`
	Description   string `gorm:"type:text"`
	Icon          string `gorm:"size:64"`
	Unlocked      bool   `gorm:"not null;default:false"`
	DateUnlocked  *time.Time
	Type          string `gorm:"size:32"`
	TargetValue   string `gorm:"size:64"`
}

func (AchievementRow) TableName() string { return "achievements" }

type RewardRow struct {
	RowID         uint   `gorm:"column:row_id;primaryKey;autoIncrement"`
	RewardID      string `gorm:"column:reward_id;size:64;not null;uniqueIndex:idx_rewards_user_reward"`
	UserID        string `gorm:"size:64;not null;uniqueIndex:idx_rewards_user_reward"`
	Position      int    `gorm:"not null"`
	Title         string `gorm:"not null"`
	Description   string `gorm:"type:text"`
	Icon          string `gorm:"size:64"`
	TasksRequired int    `gorm:"not null;default:0"`
	DaysRequired  int    `gorm:"not null;default:0"`
	Type          string `gorm:"size:32"`
	TargetValue   string `gorm:"size:64"`
}

func (RewardRow) TableName() string { return "rewards" }

// CollectionRow marks that a user's collection of a kind has been written,
// so an emptied list reads back as empty rather than missing.
type CollectionRow struct {
	UserID    string `gorm:"primaryKey;size:64"`
	Kind      string `gorm:"primaryKey;size:32"`
	UpdatedAt time.Time
}

func (CollectionRow) TableName() string { return "collections" }

func UserRowFrom(u models.User) (UserRow, error) {
	row := UserRow{
		ID:                 u.ID,
		Name:               u.Name,
		Avatar:             u.Avatar,
		PetStyle:           u.PetStyle,
		PetName:            u.PetName,
		Level:              u.Level,
		XP:                 u.XP,
		XPToNextLevel:      u.XPToNextLevel,
		ActiveDays:         u.ActiveDays,
		LastActiveDate:     u.LastActiveDate,
		AppLogo:            u.AppLogo,
		FrontendLogo:       u.FrontendLogo,
		AppName:            u.AppName,
		LandingTitle:       u.LandingTitle,
		LandingDescription: u.LandingDescription,
		LandingCta:         u.LandingCta,
		DashboardLink:      u.DashboardLink,
	}
	if u.PomodoroSettings != nil {
		data, err := json.Marshal(u.PomodoroSettings)
		if err != nil {
			return UserRow{}, fmt.Errorf("encode pomodoro settings: %w", err)
		}
		row.PomodoroSettings = string(data)
	}
	return row, nil
}

// ToModel fails only when the stored pomodoro JSON is malformed.
func (r UserRow) ToModel() (models.User, error) {
	u := models.User{
		ID:                 r.ID,
		Name:               r.Name,
		Avatar:             r.Avatar,
		PetStyle:           r.PetStyle,
		PetName:            r.PetName,
		Level:              r.Level,
		XP:                 r.XP,
		XPToNextLevel:      r.XPToNextLevel,
		ActiveDays:         r.ActiveDays,
		LastActiveDate:     r.LastActiveDate,
		AppLogo:            r.AppLogo,
		FrontendLogo:       r.FrontendLogo,
		AppName:            r.AppName,
		LandingTitle:       r.LandingTitle,
		LandingDescription: r.LandingDescription,
		LandingCta:         r.LandingCta,
		DashboardLink:      r.DashboardLink,
	}
	if r.PomodoroSettings != "" {
		var settings models.PomodoroSettings
		if err := json.Unmarshal([]byte(r.PomodoroSettings), &settings); err != nil {
			return models.User{}, fmt.Errorf("decode pomodoro settings: %w", err)
		}
		u.PomodoroSettings = &settings
	}
	return u, nil
}

func TaskRowFrom(t models.Task, userID string, position int) (TaskRow, error) {
	row := TaskRow{
		TaskID:     t.ID,
		UserID:     userID,
		Position:   position,
		Title:      t.Title,
		Category:   t.Category,
		Icon:       t.Icon,
		Difficulty: string(t.Difficulty),
		Completed:  t.Completed,
		Status:     string(t.Status),
		DueDate:    t.DueDate,
		Time:       t.Time,
	}
	if t.Recurrence != nil {
		data, err := json.Marshal(t.Recurrence)
		if err != nil {
			return TaskRow{}, fmt.Errorf("encode recurrence for task %s: %w", t.ID, err)
		}
		s := string(data)
		row.Recurrence = &s
	}
	return row, nil
}

func (r TaskRow) ToModel() (models.Task, error) {
	t := models.Task{
		ID:         r.TaskID,
		UserID:     r.UserID,
		Title:      r.Title,
		Category:   r.Category,
		Icon:       r.Icon,
		Difficulty: models.Difficulty(r.Difficulty),
		Completed:  r.Completed,
		Status:     models.TaskStatus(r.Status),
		DueDate:    r.DueDate,
		Time:       r.Time,
	}
	if r.Recurrence != nil && *r.Recurrence != "" {
		var rec models.Recurrence
		if err := json.Unmarshal([]byte(*r.Recurrence), &rec); err != nil {
			return models.Task{}, fmt.Errorf("decode recurrence for task %s: %w", r.TaskID, err)
		}
		t.Recurrence = &rec
	}
	return t, nil
}

func AchievementRowFrom(a models.Achievement, userID string, position int) AchievementRow {
	return AchievementRow{
		AchievementID: a.ID,
		UserID:        userID,
		Position:      position,
		Title:         a.Title,
		Description:   a.Description,
		Icon:          a.Icon,
		Unlocked:      a.Unlocked,
		DateUnlocked:  a.DateUnlocked,
		Type:          string(a.Type),
		TargetValue:   string(a.TargetValue),
	}
}

func (r AchievementRow) ToModel() models.Achievement {
	return models.Achievement{
		ID:           r.AchievementID,
		UserID:       r.UserID,
		Title:        r.Title,
		Description:  r.Description,
		Icon:         r.Icon,
		Unlocked:     r.Unlocked,
		DateUnlocked: r.DateUnlocked,
		Type:         models.GoalType(r.Type),
		TargetValue:  models.GoalTarget(r.TargetValue),
	}
}

func RewardRowFrom(rw models.Reward, userID string, position int) RewardRow {
	return RewardRow{
		RewardID:      rw.ID,
		UserID:        userID,
		Position:      position,
		Title:         rw.Title,
		Description:   rw.Description,
		Icon:          rw.Icon,
		TasksRequired: rw.TasksRequired,
		DaysRequired:  rw.DaysRequired,
		Type:          string(rw.Type),
		TargetValue:   string(rw.TargetValue),
	}
}

func (r RewardRow) ToModel() models.Reward {
	return models.Reward{
		ID:            r.RewardID,
		UserID:        r.UserID,
		Title:         r.Title,
		Description:   r.Description,
		Icon:          r.Icon,
		TasksRequired: r.TasksRequired,
		DaysRequired:  r.DaysRequired,
		Type:          models.GoalType(r.Type),
		TargetValue:   models.GoalTarget(r.TargetValue),
	}
}
