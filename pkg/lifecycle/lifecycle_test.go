package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/craftdeck/craftdeck/pkg/logger"
)

type stubService struct {
	startErr error
	stopped  bool
	block    bool
}

func (s *stubService) Start(ctx context.Context) error {
	if s.block {
		<-ctx.Done()
		return ctx.Err()
	}

	return s.startErr
}

func (s *stubService) Stop(_ context.Context) error {
	s.stopped = true
	return nil
}

func TestRunServerReturnsStartError(t *testing.T) {
	startErr := errors.New("bind failed")
	service := &stubService{startErr: startErr}

	err := RunServer(context.Background(), &ServerOptions{
		ServiceName: "test",
		Service:     service,
		Logger:      logger.NewTestLogger(),
	})

	assert.ErrorIs(t, err, startErr)
	assert.True(t, service.stopped)
}

func TestRunServerStopsOnContextCancel(t *testing.T) {
	service := &stubService{block: true}

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)

	go func() {
		done <- RunServer(ctx, &ServerOptions{
			ServiceName: "test",
			Service:     service,
			Logger:      logger.NewTestLogger(),
		})
	}()

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("RunServer did not return after context cancel")
	}

	assert.True(t, service.stopped)
}
