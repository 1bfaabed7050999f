package domain

import "time"

type OutboxMessageStatus string

const (
	OutboxStatusPending OutboxMessageStatus = "PENDING"
	OutboxStatusSent    OutboxMessageStatus = "SENT"
	OutboxStatusFailed  OutboxMessageStatus = "FAILED"
)

// OutboxMessage is a notification event waiting to be published. It is
// written in the same store transaction as the ledger mutation it
// announces, so delivery failures can never affect financial correctness.
type OutboxMessage struct {
	ID            string
	MemberNumber  string
	TransactionID string
	Payload       []byte
	Status        OutboxMessageStatus
	CreatedAt     time.Time
	SentAt        *time.Time
}
