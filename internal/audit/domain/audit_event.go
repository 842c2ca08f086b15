// Package domain defines the audit log entities: hash-chained events recorded for
// every access to or mutation of a user's vault data.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventType classifies what happened to the user's data.
type EventType string

const (
	EventDataCreated    EventType = "data_created"
	EventDataAccessed   EventType = "data_accessed"
	EventDataUpdated    EventType = "data_updated"
	EventDataDeleted    EventType = "data_deleted"
	EventConsentGranted EventType = "consent_granted"
	EventConsentRevoked EventType = "consent_revoked"
	EventDataExported   EventType = "data_exported"
)

// ActorType identifies who performed the audited action.
type ActorType string

const (
	ActorUser   ActorType = "user"
	ActorSystem ActorType = "system"
)

// SystemActorID is the actor recorded for events produced by background jobs.
const SystemActorID = "system"

// AuditEvent is one link of a user's audit chain. PreviousHash is nil for the
// first event of a user; otherwise it equals the CurrentHash of the event that
// precedes it in timestamp order. Events are never updated or deleted.
type AuditEvent struct {
	ID           uuid.UUID
	UserID       string
	EventType    EventType
	Action       string
	ActorID      string
	ActorType    ActorType
	Timestamp    time.Time
	PreviousHash *string
	CurrentHash  string
	Success      bool
	ErrorMessage *string
	Metadata     map[string]any
}

// IsGenesis reports whether the event starts its user's chain.
func (e *AuditEvent) IsGenesis() bool {
	return e.PreviousHash == nil
}

// RecordInput is what callers supply to append an event. Chain fields, ID and
// timestamp are filled in by the append protocol.
type RecordInput struct {
	UserID       string
	EventType    EventType
	Action       string
	ActorID      string
	ActorType    ActorType
	Success      bool
	ErrorMessage string
	Metadata     map[string]any
}

// ChainReport is the verification result for one user's chain.
type ChainReport struct {
	UserID     string
	EventCount int
	Valid      bool
	// BrokenAt is the index of the first event that fails verification, -1 when Valid.
	BrokenAt int
	// BrokenEventID is the ID of the event at BrokenAt, uuid.Nil when Valid.
	BrokenEventID uuid.UUID
}
