package commands

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	vaultDomain "github.com/allisson/datavault/internal/vault/domain"
	vaultMocks "github.com/allisson/datavault/internal/vault/usecase/mocks"
)

type fakeServer struct {
	failWith error
	started  atomic.Bool
}

func (f *fakeServer) Start(ctx context.Context) error {
	f.started.Store(true)
	if f.failWith != nil {
		return f.failWith
	}
	<-ctx.Done()
	return nil
}

func TestRunServices(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	t.Run("stops on cancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		server := &fakeServer{}
		workerDone := make(chan struct{})

		done := make(chan error, 1)
		go func() {
			done <- runServices(ctx, server, func(ctx context.Context) error {
				<-ctx.Done()
				close(workerDone)
				return nil
			})
		}()

		require.Eventually(t, server.started.Load, time.Second, 5*time.Millisecond)
		cancel()

		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Fatal("services did not stop")
		}
		<-workerDone
	})

	t.Run("server failure stops the worker", func(t *testing.T) {
		server := &fakeServer{failWith: errors.New("address already in use")}
		var workerStopped atomic.Bool

		err := runServices(context.Background(), server, func(ctx context.Context) error {
			<-ctx.Done()
			workerStopped.Store(true)
			return nil
		})

		assert.ErrorContains(t, err, "address already in use")
		assert.True(t, workerStopped.Load())
	})

	t.Run("finished worker keeps the server running", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		err := runServices(ctx, &fakeServer{}, func(ctx context.Context) error { return nil })
		assert.NoError(t, err)
		assert.ErrorIs(t, ctx.Err(), context.DeadlineExceeded)
	})
}

func TestMigrationWorker(t *testing.T) {
	cfg := vaultDomain.DefaultMigrationConfig()

	t.Run("completes", func(t *testing.T) {
		uc := &vaultMocks.MockMigrationUseCase{}
		uc.On("ScheduleBackgroundMigration", mock.Anything, cfg).Return(sampleStats(), nil).Once()

		assert.NoError(t, MigrationWorker(uc, cfg, discardLogger())(context.Background()))
		uc.AssertExpectations(t)
	})

	t.Run("cancellation is not an error", func(t *testing.T) {
		uc := &vaultMocks.MockMigrationUseCase{}
		uc.On("ScheduleBackgroundMigration", mock.Anything, cfg).Return(sampleStats(), context.Canceled).Once()

		assert.NoError(t, MigrationWorker(uc, cfg, discardLogger())(context.Background()))
	})

	t.Run("failure is reported", func(t *testing.T) {
		uc := &vaultMocks.MockMigrationUseCase{}
		uc.On("ScheduleBackgroundMigration", mock.Anything, cfg).Return(nil, assert.AnError).Once()

		err := MigrationWorker(uc, cfg, discardLogger())(context.Background())
		assert.ErrorIs(t, err, assert.AnError)
	})
}
