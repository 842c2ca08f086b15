package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuditEvent_IsGenesis(t *testing.T) {
	prev := "abc"

	assert.True(t, (&AuditEvent{}).IsGenesis())
	assert.False(t, (&AuditEvent{PreviousHash: &prev}).IsGenesis())
}

func TestErrors(t *testing.T) {
	assert.ErrorContains(t, ErrChainForked, "conflict")
	assert.ErrorContains(t, ErrAuditEventNotFound, "not found")
}
