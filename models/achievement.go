// models/achievement.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

type Achievement struct {
	ID           string     `json:"id"`
	UserID       string     `json:"userId"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Icon         string     `json:"icon"`
	Unlocked     bool       `json:"unlocked"`
	DateUnlocked *time.Time `json:"dateUnlocked,omitempty"`

	// Optional goal used to report progress toward unlocking
	Type        GoalType   `json:"type,omitempty"`
	TargetValue GoalTarget `json:"targetValue,omitempty"`
}

type Reward struct {
	ID            string `json:"id"`
	UserID        string `json:"userId"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	Icon          string `json:"icon"`
	TasksRequired int    `json:"tasksRequired,omitempty"`
	DaysRequired  int    `json:"daysRequired,omitempty"`

	Type        GoalType   `json:"type,omitempty"`
	TargetValue GoalTarget `json:"targetValue,omitempty"`
}

type GoalType string

const (
	GoalTotalTasks   GoalType = "totalTasks"
	GoalDaysCount    GoalType = "daysCount"
	GoalTotalXP      GoalType = "totalXP"
	GoalSpecificTask GoalType = "specificTask"
)

// GoalTarget is either a number (count goals) or a task id (specificTask).
// Both forms are accepted on input and numbers are written back as numbers.
type GoalTarget string

func (g GoalTarget) Int() (int, bool) {
	n, err := strconv.Atoi(string(g))
	if err != nil {
		return 0, false
	}
	return n, true
}

func (g GoalTarget) MarshalJSON() ([]byte, error) {
	if n, ok := g.Int(); ok {
		return []byte(strconv.Itoa(n)), nil
	}
	return json.Marshal(string(g))
}

func (g *GoalTarget) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*g = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*g = GoalTarget(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("targetValue must be a number or string: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*g = GoalTarget(strconv.FormatInt(i, 10))
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return err
	}
	*g = GoalTarget(strconv.Itoa(int(f)))
	return nil
}
