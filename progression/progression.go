// Package progression turns task completions into XP, levels and pet stages.
// Everything here is pure; persistence is the caller's job.
package progression

import "disciplinebaby/models"

// XP awarded per difficulty. Unknown difficulties award nothing.
var xpByDifficulty = map[models.Difficulty]int{
	models.DifficultyEasy:   5,
	models.DifficultyMedium: 10,
	models.DifficultyHard:   15,
}

// thresholdGrowth is applied to the next-level threshold after every level up.
const thresholdGrowth = 1.2

// State is the slice of a user profile the engine reads and writes.
type State struct {
	XP            int    `json:"xp"`
	Level         int    `json:"level"`
	XPToNextLevel int    `json:"xpToNextLevel"`
	PetStyle      string `json:"petStyle"`
}

func StateOf(u models.User) State {
	return State{XP: u.XP, Level: u.Level, XPToNextLevel: u.XPToNextLevel, PetStyle: u.PetStyle}
}

// Apply copies s onto u.
func (s State) Apply(u *models.User) {
	u.XP = s.XP
	u.Level = s.Level
	u.XPToNextLevel = s.XPToNextLevel
	u.PetStyle = s.PetStyle
}

func XPFor(d models.Difficulty) int {
	return xpByDifficulty[d]
}

// ApplyCompletion returns the state after a task of difficulty d is marked
// completed (or un-marked). Callers must only invoke it when the task's
// completed flag actually changes.
//
// Completing adds XP and levels up while XP reaches the threshold, growing the
// threshold each time. Un-completing subtracts XP clamped at zero; levels are
// never taken away. The pet stage is always derived from the resulting level.
func ApplyCompletion(s State, d models.Difficulty, completed bool) State {
	delta := XPFor(d)
	next := s
	if next.Level < 1 {
		next.Level = models.DefaultLevel
	}
	if next.XPToNextLevel < 1 {
		next.XPToNextLevel = models.DefaultXPToNextLevel
	}

	if !completed {
		next.XP -= delta
		if next.XP < 0 {
			next.XP = 0
		}
		next.PetStyle = PetStageForLevel(next.Level)
		return next
	}

	next.XP += delta
	for next.XP >= next.XPToNextLevel {
		next.Level++
		next.XP -= next.XPToNextLevel
		next.XPToNextLevel = grow(next.XPToNextLevel)
	}
	next.PetStyle = PetStageForLevel(next.Level)
	return next
}

func grow(threshold int) int {
	n := int(float64(threshold) * thresholdGrowth)
	if n < 1 {
		return 1
	}
	return n
}
