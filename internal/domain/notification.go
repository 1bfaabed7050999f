package domain

import "time"

type NotificationSeverity string

const (
	NotificationInfo    NotificationSeverity = "INFO"
	NotificationSuccess NotificationSeverity = "SUCCESS"
	NotificationWarning NotificationSeverity = "WARNING"
	NotificationError   NotificationSeverity = "ERROR"
)

// NotificationEvent is the fire-and-forget payload delivered to members
// after every transaction state transition.
type NotificationEvent struct {
	MemberNumber  string               `json:"member_number"`
	Title         string               `json:"title"`
	Message       string               `json:"message"`
	Severity      NotificationSeverity `json:"severity"`
	TransactionID string               `json:"transaction_id,omitempty"`
	Timestamp     time.Time            `json:"timestamp"`
}
