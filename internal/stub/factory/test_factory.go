package factory

import (
	"time"

	"github.com/bsi-games/bsi/internal/dependencies/mocks"
	"github.com/bsi-games/bsi/internal/stub/services/auth"
	"github.com/bsi-games/bsi/internal/stub/storage/memory"
	"github.com/bsi-games/bsi/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock *mocks.MockClock
}

// NewTestApp creates an App backed by memory storage and a mocked clock
func NewTestApp() *TestApp {
	store := memory.New()
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	app := newWithDependencies(store, mockClock, auth.DefaultConfig(), testutil.NopLogger())

	return &TestApp{
		App:       app,
		MockClock: mockClock,
	}
}
