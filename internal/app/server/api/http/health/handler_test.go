package health

import (
	"context"
	"errors"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"golang.org/x/exp/slog"
)

type fakeStore struct {
	err error
}

func (s *fakeStore) Ping(_ context.Context) error {
	return s.err
}

func TestHandler_healthCheck(t *testing.T) {
	tests := []struct {
		name             string
		pingErr          error
		expectedStatus   string
		expectedDatabase string
	}{
		{
			name:             "store reachable",
			expectedStatus:   "OK",
			expectedDatabase: "up",
		},
		{
			name:             "store unreachable",
			pingErr:          errors.New("dial tcp: connection refused"),
			expectedStatus:   "Degraded",
			expectedDatabase: "down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			handler := NewHandler(&fakeStore{err: tt.pingErr}, slog.Default(), huma.Middlewares{})

			// Act
			output, err := handler.healthCheck(context.Background(), &Input{})

			// Assert
			assert.NoError(t, err)
			assert.NotNil(t, output)
			assert.Equal(t, tt.expectedStatus, output.Body.Status)
			assert.Equal(t, tt.expectedDatabase, output.Body.Database)
		})
	}
}

func TestNewHandler(t *testing.T) {
	// Arrange
	log := slog.Default()
	middleware := huma.Middlewares{}

	// Act
	handler := NewHandler(&fakeStore{}, log, middleware)

	// Assert
	assert.NotNil(t, handler)
	assert.NotNil(t, handler.store)
	assert.NotNil(t, handler.log)
	assert.NotNil(t, handler.middleware)
}
