// models/user.go
package models

// DefaultUserID is the single fixed identity every record belongs to.
const DefaultUserID = "user_2fP7sW5gR8zX9yB1eA6vC4jK0lM"

const (
	DefaultLevel         = 1
	DefaultXPToNextLevel = 100
	DefaultPetStyle      = "pet1"
)

type User struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Avatar           string            `json:"avatar"`
	PetStyle         string            `json:"petStyle"`
	PetName          string            `json:"petName"`
	Level            int               `json:"level"`
	XP               int               `json:"xp"`
	XPToNextLevel    int               `json:"xpToNextLevel"`
	ActiveDays       int               `json:"activeDays"`
	LastActiveDate   Date              `json:"lastActiveDate"`
	AppLogo          string            `json:"appLogo"`
	FrontendLogo     string            `json:"frontendLogo"`
	PomodoroSettings *PomodoroSettings `json:"pomodoroSettings,omitempty"`

	// Static display text
	AppName            string `json:"appName"`
	LandingTitle       string `json:"landingTitle"`
	LandingDescription string `json:"landingDescription"`
	LandingCta         string `json:"landingCta"`
	DashboardLink      string `json:"dashboardLink"`
}

type PomodoroMode struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Duration int    `json:"duration"` // minutes
}

type PomodoroSettings struct {
	Modes             []PomodoroMode `json:"modes"`
	LongBreakInterval int            `json:"longBreakInterval"`
}
