// Package notify owns the notification record model: persistence, the dedup
// check that precedes every scheduled write, and push fan-out to recipient
// devices.
//
// Pipeline per shift rule: dedup check → persist record → multicast push.
// Records are durable regardless of delivery outcome; push failures are
// counted and logged, never retried.
package notify

import "time"

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

// Priority values for a notification record.
const (
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// Record is the persisted notification. This schema is the contract the
// dashboard UI reads.
type Record struct {
	ID             int64     `json:"id"`
	Title          string    `json:"title"`
	Message        string    `json:"message"`
	Kind           string    `json:"kind"`
	Link           string    `json:"link,omitempty"`
	Role           string    `json:"role"`
	Priority       string    `json:"priority"`
	ActionRequired bool      `json:"actionRequired"`
	Read           bool      `json:"read"`
	TimeSlot       *string   `json:"timeSlot"`
	CreatedAt      time.Time `json:"createdAt"`
	CreatedBy      string    `json:"createdBy"`
}

// Recipient is a read-only view of an account that may receive pushes.
// Owned by the account-management subsystem.
type Recipient struct {
	ID            string
	Role          string
	DeliveryToken string // empty when no device is registered
}

// HasToken reports whether the recipient has a registered device.
func (r Recipient) HasToken() bool {
	return r.DeliveryToken != ""
}

// DispatchResult summarizes one multicast push.
type DispatchResult struct {
	SuccessCount int `json:"successCount"`
	FailureCount int `json:"failureCount"`
	Skipped      int `json:"skipped"` // recipients without a delivery token
}
