// Package service implements the audit hash-chain engine: deterministic event
// hashing that folds in the previous event's hash, and chain verification.
package service

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"encoding/hex"
	"time"

	auditDomain "github.com/allisson/datavault/internal/audit/domain"
)

// GenesisSentinel stands in for the previous hash of a user's first event.
const GenesisSentinel = "genesis"

// ChainInput holds the event fields covered by the chain hash.
type ChainInput struct {
	EventType auditDomain.EventType
	UserID    string
	Timestamp time.Time
	Action    string
}

// InputFromEvent extracts the hashed fields of an event.
func InputFromEvent(event *auditDomain.AuditEvent) ChainInput {
	return ChainInput{
		EventType: event.EventType,
		UserID:    event.UserID,
		Timestamp: event.Timestamp,
		Action:    event.Action,
	}
}

// Hash returns the lowercase hex SHA-256 digest of data.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// CreateAuditHash computes the chain hash for an event whose parent hash is
// previousHash (nil for the first event of a user).
func CreateAuditHash(previousHash *string, input ChainInput) string {
	return Hash(canonicalize(previousHash, input))
}

// canonicalize produces the byte sequence that is hashed:
// prev || event_type || user_id || timestamp_ms || action.
// Strings are length-prefixed so field boundaries cannot shift; the timestamp
// is milliseconds since epoch as a big-endian int64.
func canonicalize(previousHash *string, input ChainInput) []byte {
	prev := GenesisSentinel
	if previousHash != nil {
		prev = *previousHash
	}

	buf := make([]byte, 0, 128+len(prev)+len(input.UserID)+len(input.Action))
	buf = appendLengthPrefixed(buf, []byte(prev))
	buf = appendLengthPrefixed(buf, []byte(input.EventType))
	buf = appendLengthPrefixed(buf, []byte(input.UserID))
	buf = binary.BigEndian.AppendUint64(buf, uint64(input.Timestamp.UnixMilli()))
	buf = appendLengthPrefixed(buf, []byte(input.Action))

	return buf
}

// appendLengthPrefixed adds a 4-byte big-endian length prefix followed by data.
// Panics if data length exceeds uint32 max (4GB).
func appendLengthPrefixed(buf []byte, data []byte) []byte {
	if uint64(len(data)) > 0xFFFFFFFF {
		panic("data length exceeds uint32 max (4GB)")
	}
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(data)))
	return append(buf, data...)
}

// VerifyHashChain reports whether events, in timestamp order, form an unbroken
// chain. An empty sequence is valid.
func VerifyHashChain(events []*auditDomain.AuditEvent) bool {
	return FindChainBreak(events) == -1
}

// FindChainBreak returns the index of the first event that fails verification,
// or -1 if the whole chain verifies. An event fails when its recomputed hash
// differs from CurrentHash, or when its PreviousHash does not link to the
// preceding event (nil for index 0).
func FindChainBreak(events []*auditDomain.AuditEvent) int {
	for i, event := range events {
		if event == nil {
			return i
		}

		if i == 0 {
			if event.PreviousHash != nil {
				return i
			}
		} else if event.PreviousHash == nil || !hashEqual(*event.PreviousHash, events[i-1].CurrentHash) {
			return i
		}

		expected := CreateAuditHash(event.PreviousHash, InputFromEvent(event))
		if !hashEqual(expected, event.CurrentHash) {
			return i
		}
	}

	return -1
}

func hashEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
