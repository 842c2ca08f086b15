// Package mocks provides mock implementations of the audit use case interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	auditDomain "github.com/allisson/datavault/internal/audit/domain"
)

// MockAuditEventRepository is a mock implementation of AuditEventRepository.
type MockAuditEventRepository struct {
	mock.Mock
}

// Create mocks the Create method of AuditEventRepository.
func (m *MockAuditEventRepository) Create(ctx context.Context, event *auditDomain.AuditEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// GetLatestByUser mocks the GetLatestByUser method of AuditEventRepository.
func (m *MockAuditEventRepository) GetLatestByUser(
	ctx context.Context,
	userID string,
) (*auditDomain.AuditEvent, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auditDomain.AuditEvent), args.Error(1)
}

// ListByUser mocks the ListByUser method of AuditEventRepository.
func (m *MockAuditEventRepository) ListByUser(
	ctx context.Context,
	userID string,
) ([]*auditDomain.AuditEvent, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*auditDomain.AuditEvent), args.Error(1)
}

// ListUserIDs mocks the ListUserIDs method of AuditEventRepository.
func (m *MockAuditEventRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockAuditUseCase is a mock implementation of AuditUseCase. RecordWith runs fn
// before consulting the expectation, the way the real use case does, and
// returns fn's error without recording the call outcome when fn fails.
type MockAuditUseCase struct {
	mock.Mock
}

// Record mocks the Record method of AuditUseCase.
func (m *MockAuditUseCase) Record(
	ctx context.Context,
	input *auditDomain.RecordInput,
) (*auditDomain.AuditEvent, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auditDomain.AuditEvent), args.Error(1)
}

// RecordWith mocks the RecordWith method of AuditUseCase.
func (m *MockAuditUseCase) RecordWith(
	ctx context.Context,
	input *auditDomain.RecordInput,
	fn func(ctx context.Context) error,
) (*auditDomain.AuditEvent, error) {
	if fn != nil {
		if err := fn(ctx); err != nil {
			return nil, err
		}
	}

	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auditDomain.AuditEvent), args.Error(1)
}

// VerifyUserChain mocks the VerifyUserChain method of AuditUseCase.
func (m *MockAuditUseCase) VerifyUserChain(
	ctx context.Context,
	userID string,
) (*auditDomain.ChainReport, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auditDomain.ChainReport), args.Error(1)
}

// VerifyAll mocks the VerifyAll method of AuditUseCase.
func (m *MockAuditUseCase) VerifyAll(ctx context.Context) ([]*auditDomain.ChainReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*auditDomain.ChainReport), args.Error(1)
}
