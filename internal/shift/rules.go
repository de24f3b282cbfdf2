package shift

import "github.com/atra-dev/aegis-notify/internal/notify"

// Audience role values, as assigned by the account-management subsystem.
const (
	RoleSpecialist = "specialist"
	RoleAnalyst    = "analyst"
	RoleSupervisor = "supervisor"
	RoleAdmin      = "admin"
)

// Shift slot labels.
const (
	SlotMorning        = "morning"
	SlotAfternoon      = "afternoon"
	SlotNight          = "night"
	SlotGraveyardStart = "graveyard-start"
	SlotGraveyardMid   = "graveyard-mid"
)

// DefaultRules returns the production rule table. Four families:
// a daily specialist reminder, two graveyard-shift check-ins, three
// end-of-shift report reminders, and three sensor maintenance checks.
// tolerance applies symmetrically to every window.
func DefaultRules(tolerance int) []Rule {
	return []Rule{
		{
			Name:      "specialist-daily",
			Hour:      16,
			Minute:    30,
			Tolerance: tolerance,
			Kind:      "system",
			Roles:     []string{RoleSpecialist},
			Priority:  notify.PriorityNormal,
			Title:     "Daily Endpoint Review",
			Message:   "Please review today's flagged endpoints before end of day.",
			Link:      "/dashboard/endpoints",
		},
		{
			Name:           "graveyard-checkin-start",
			Hour:           22,
			Minute:         0,
			Tolerance:      tolerance,
			Kind:           "alert",
			Roles:          []string{RoleAnalyst, RoleSupervisor},
			Priority:       notify.PriorityHigh,
			ActionRequired: true,
			TimeSlot:       SlotGraveyardStart,
			Title:          "Graveyard Shift Check-In",
			Message:        "Graveyard shift has started. Confirm monitoring coverage is staffed.",
			Link:           "/dashboard/shifts",
		},
		{
			Name:           "graveyard-checkin-mid",
			Hour:           3,
			Minute:         0,
			Tolerance:      tolerance,
			Kind:           "alert",
			Roles:          []string{RoleAnalyst, RoleSupervisor},
			Priority:       notify.PriorityHigh,
			ActionRequired: true,
			TimeSlot:       SlotGraveyardMid,
			Title:          "Graveyard Shift Check-In",
			Message:        "Mid-shift check-in. Verify alert queues are being worked.",
			Link:           "/dashboard/shifts",
		},
		{
			Name:      "report-prep-morning",
			Hour:      13,
			Minute:    30,
			Tolerance: tolerance,
			Kind:      "report",
			Roles:     []string{RoleAnalyst, RoleSupervisor},
			Priority:  notify.PriorityNormal,
			TimeSlot:  SlotMorning,
			Title:     "Shift Report Preparation",
			Message:   "Morning shift ends soon. Prepare the turnover report.",
			Link:      "/dashboard/reports",
		},
		{
			Name:      "report-prep-afternoon",
			Hour:      21,
			Minute:    30,
			Tolerance: tolerance,
			Kind:      "report",
			Roles:     []string{RoleAnalyst, RoleSupervisor},
			Priority:  notify.PriorityNormal,
			TimeSlot:  SlotAfternoon,
			Title:     "Shift Report Preparation",
			Message:   "Afternoon shift ends soon. Prepare the turnover report.",
			Link:      "/dashboard/reports",
		},
		{
			Name:      "report-prep-night",
			Hour:      5,
			Minute:    30,
			Tolerance: tolerance,
			Kind:      "report",
			Roles:     []string{RoleAnalyst, RoleSupervisor},
			Priority:  notify.PriorityNormal,
			TimeSlot:  SlotNight,
			Title:     "Shift Report Preparation",
			Message:   "Night shift ends soon. Prepare the turnover report.",
			Link:      "/dashboard/reports",
		},
		{
			Name:      "maintenance-check-morning",
			Hour:      6,
			Minute:    10,
			Tolerance: tolerance,
			Kind:      "system",
			Roles:     []string{RoleAdmin},
			Priority:  notify.PriorityNormal,
			TimeSlot:  SlotMorning,
			Title:     "Sensor Maintenance Check",
			Message:   "Run the scheduled sensor health check for the morning shift.",
			Link:      "/dashboard/sensors",
		},
		{
			Name:      "maintenance-check-afternoon",
			Hour:      14,
			Minute:    10,
			Tolerance: tolerance,
			Kind:      "system",
			Roles:     []string{RoleAdmin},
			Priority:  notify.PriorityNormal,
			TimeSlot:  SlotAfternoon,
			Title:     "Sensor Maintenance Check",
			Message:   "Run the scheduled sensor health check for the afternoon shift.",
			Link:      "/dashboard/sensors",
		},
		{
			Name:      "maintenance-check-night",
			Hour:      22,
			Minute:    10,
			Tolerance: tolerance,
			Kind:      "system",
			Roles:     []string{RoleAdmin},
			Priority:  notify.PriorityNormal,
			TimeSlot:  SlotNight,
			Title:     "Sensor Maintenance Check",
			Message:   "Run the scheduled sensor health check for the night shift.",
			Link:      "/dashboard/sensors",
		},
	}
}
