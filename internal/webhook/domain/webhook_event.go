// Package domain defines provider webhook events and how their payloads are read.
package domain

import (
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

// Outcome records what processing decided for an event.
type Outcome string

const (
	// OutcomeConfirmed means the event completed its transaction.
	OutcomeConfirmed Outcome = "confirmed"
	// OutcomeDuplicate means the transaction was already completed.
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeUnmatched means no transaction carries the reference.
	OutcomeUnmatched Outcome = "unmatched"
	// OutcomeRejected means the transaction can no longer be completed or the
	// notified amount does not match.
	OutcomeRejected Outcome = "rejected"
	// OutcomeFailed means the provider reported a failed payment.
	OutcomeFailed Outcome = "failed"
	// OutcomeIgnored means the event type neither completes nor fails a payment.
	OutcomeIgnored Outcome = "ignored"
	// OutcomeMalformed means the payload carried no reference.
	OutcomeMalformed Outcome = "malformed"
)

// Rejection reasons.
const (
	ReasonExpired        = "expired"
	ReasonAmountMismatch = "amount_mismatch"
	ReasonNotPending     = "not_pending"
	ReasonOrderCancelled = "order_cancelled"
)

// WebhookEvent is a provider callback stored verbatim before it is interpreted.
// Processing a (Reference, PayloadHash) pair is applied at most once.
type WebhookEvent struct {
	ID          uuid.UUID
	Reference   string
	EventType   string
	Payload     []byte
	PayloadHash string
	SourceIP    string
	UserAgent   string
	Processed   bool
	ProcessedAt *time.Time
	Outcome     Outcome
	Reason      string
	Attempts    int
	LastError   *string
	ReceivedAt  time.Time
}

// NewWebhookEvent builds an unprocessed event for payload.
func NewWebhookEvent(payload []byte, notification Notification, sourceIP, userAgent string, now time.Time) *WebhookEvent {
	return &WebhookEvent{
		ID:          uuid.Must(uuid.NewV7()),
		Reference:   notification.Reference,
		EventType:   notification.EventType,
		Payload:     payload,
		PayloadHash: HashPayload(payload),
		SourceIP:    sourceIP,
		UserAgent:   userAgent,
		ReceivedAt:  now,
	}
}

// HashPayload returns the hex BLAKE2b-256 digest of payload.
func HashPayload(payload []byte) string {
	sum := blake2b.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Resolve marks the event processed with outcome.
func (e *WebhookEvent) Resolve(outcome Outcome, reason string, now time.Time) {
	e.Processed = true
	e.ProcessedAt = &now
	e.Outcome = outcome
	e.Reason = reason
	e.LastError = nil
}

// RecordFailure counts a processing attempt that rolled back.
func (e *WebhookEvent) RecordFailure(err error) {
	msg := err.Error()
	e.Attempts++
	e.LastError = &msg
}

// ReplayFilter selects unprocessed events for replay.
type ReplayFilter struct {
	ReceivedBefore time.Time
	MaxAttempts    int
	Limit          int
}
