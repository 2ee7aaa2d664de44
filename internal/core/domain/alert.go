package domain

import "time"

// AlertType classifies a suspicious-activity alert.
type AlertType string

const (
	AlertMultipleLocations AlertType = "multiple_locations"
	AlertMaxSessions       AlertType = "max_sessions"
	AlertRapidSessions     AlertType = "rapid_sessions"
)

// Alert thresholds.
const (
	// MultipleLocationsThreshold is exceeded when more distinct locations are active.
	MultipleLocationsThreshold = 2

	// RapidSessionsThreshold is exceeded when more sessions were created in RapidSessionsWindow.
	RapidSessionsThreshold = 3

	RapidSessionsWindow = 5 * time.Minute
)

// Alert is an informational finding about a user's active sessions.
// Alerts never block or revoke anything by themselves.
type Alert struct {
	Type    AlertType `json:"type"`
	Message string    `json:"message"`
}

var alertMessages = map[AlertType]string{
	AlertMultipleLocations: "Account accessed from multiple locations simultaneously",
	AlertMaxSessions:       "Maximum number of sessions reached",
	AlertRapidSessions:     "Unusual number of recent logins detected",
}

// NewAlert returns the alert of the given type with its canonical message.
func NewAlert(t AlertType) Alert {
	return Alert{Type: t, Message: alertMessages[t]}
}

// SessionStats summarizes a user's sessions.
type SessionStats struct {
	// Total counts every recorded session, active and revoked.
	Total int `json:"total"`

	// Active counts sessions with IsActive set.
	Active int `json:"active"`

	// Devices are the distinct device types among active sessions, sorted.
	Devices []string `json:"devices"`

	// Locations are the distinct non-empty locations among active sessions, sorted.
	Locations []string `json:"locations"`

	// Clients are the distinct "<browser> on <os>" labels among active sessions, sorted.
	Clients []string `json:"clients"`

	// LastActivity is the latest activity among active sessions; nil if none.
	LastActivity *time.Time `json:"last_activity,omitempty"`
}
