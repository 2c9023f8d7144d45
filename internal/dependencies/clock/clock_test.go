package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bsi-games/bsi/internal/dependencies/clock"
	"github.com/bsi-games/bsi/internal/dependencies/mocks"
)

func TestRemaining(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clk := mocks.NewMockClock(start)
	deadline := clock.After(clk, time.Minute)

	assert.Equal(t, start.Add(time.Minute), deadline)
	assert.Equal(t, time.Minute, clock.Remaining(clk, deadline))

	clk.Advance(90 * time.Second)
	assert.Zero(t, clock.Remaining(clk, deadline))
}
