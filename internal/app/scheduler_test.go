package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextRun(t *testing.T) {
	loc := time.FixedZone("KST", 9*60*60)
	hours := []int{18, 10}

	at := time.Date(2026, 4, 2, 9, 30, 0, 0, loc)
	assert.Equal(t, time.Date(2026, 4, 2, 10, 0, 0, 0, loc), NextRun(at, hours))

	at = time.Date(2026, 4, 2, 10, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2026, 4, 2, 18, 0, 0, 0, loc), NextRun(at, hours), "a slot that is now is not next")

	at = time.Date(2026, 4, 2, 19, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2026, 4, 3, 10, 0, 0, 0, loc), NextRun(at, hours))

	assert.True(t, NextRun(at, nil).IsZero())
}

func TestScheduleStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ran := false
	err := Schedule(ctx, []int{10}, nil, func(context.Context, time.Time) { ran = true })
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ran)
}
