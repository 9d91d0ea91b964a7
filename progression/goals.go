package progression

import "disciplinebaby/models"

// Stats are the running totals goals are measured against.
type Stats struct {
	CompletedTasks int
	ActiveDays     int
	TotalXP        int
	// CompletedTaskIDs is consulted by specificTask goals.
	CompletedTaskIDs map[string]bool
}

// StatsOf derives goal statistics from a profile and its tasks.
func StatsOf(u models.User, tasks []models.Task) Stats {
	s := Stats{
		ActiveDays:       u.ActiveDays,
		TotalXP:          TotalXP(u),
		CompletedTaskIDs: make(map[string]bool),
	}
	for _, t := range tasks {
		if t.Completed {
			s.CompletedTasks++
			s.CompletedTaskIDs[t.ID] = true
		}
	}
	return s
}

// TotalXP is the lifetime XP implied by the current level and progress,
// replaying the threshold growth from level one.
func TotalXP(u models.User) int {
	total := u.XP
	threshold := models.DefaultXPToNextLevel
	for level := 1; level < u.Level; level++ {
		total += threshold
		threshold = grow(threshold)
	}
	return total
}

type Progress struct {
	Percent    int  `json:"percent"`
	Redeemable bool `json:"redeemable"`
}

func percentOf(value, target int) int {
	if target <= 0 {
		return 100
	}
	p := value * 100 / target
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return p
}

// GoalProgress measures an explicit goal. ok is false when the goal type is
// unset or unknown.
func GoalProgress(goal models.GoalType, target models.GoalTarget, s Stats) (Progress, bool) {
	var pct int
	switch goal {
	case models.GoalTotalTasks, models.GoalDaysCount, models.GoalTotalXP:
		n, valid := target.Int()
		if !valid {
			return Progress{}, false
		}
		value := s.CompletedTasks
		if goal == models.GoalDaysCount {
			value = s.ActiveDays
		} else if goal == models.GoalTotalXP {
			value = s.TotalXP
		}
		pct = percentOf(value, n)
	case models.GoalSpecificTask:
		if s.CompletedTaskIDs[string(target)] {
			pct = 100
		}
	default:
		return Progress{}, false
	}
	return Progress{Percent: pct, Redeemable: pct >= 100}, true
}

// RewardProgress uses the reward's explicit goal when present, otherwise its
// task and day thresholds. With several thresholds the least advanced one
// wins; a reward with none is immediately redeemable.
func RewardProgress(r models.Reward, s Stats) Progress {
	if p, ok := GoalProgress(r.Type, r.TargetValue, s); ok {
		return p
	}
	pct := 100
	if r.TasksRequired > 0 {
		pct = min(pct, percentOf(s.CompletedTasks, r.TasksRequired))
	}
	if r.DaysRequired > 0 {
		pct = min(pct, percentOf(s.ActiveDays, r.DaysRequired))
	}
	return Progress{Percent: pct, Redeemable: pct >= 100}
}

// AchievementProgress reports 100 for unlocked achievements regardless of goal.
func AchievementProgress(a models.Achievement, s Stats) Progress {
	if a.Unlocked {
		return Progress{Percent: 100, Redeemable: true}
	}
	p, _ := GoalProgress(a.Type, a.TargetValue, s)
	return p
}
