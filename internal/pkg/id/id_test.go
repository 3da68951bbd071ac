package id

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAt_SameMillisecondStaysOrdered(t *testing.T) {
	ts := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	prev := At(ts)
	for i := 0; i < 50; i++ {
		next := At(ts)
		assert.Less(t, prev, next)
		prev = next
	}
}

func TestTime_RoundTripsMillis(t *testing.T) {
	ts := time.Date(2025, 3, 1, 9, 30, 15, 123_000_000, time.UTC)
	got, err := Time(At(ts))
	require.NoError(t, err)
	assert.True(t, ts.Equal(got.UTC()))
}

func TestTime_RejectsGarbage(t *testing.T) {
	_, err := Time("not-an-id")
	assert.Error(t, err)
}

func TestNew_Length(t *testing.T) {
	assert.Len(t, New(), 26)
}
