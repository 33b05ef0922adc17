package dc

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransitionTable(t *testing.T) {
	allowed := []struct {
		from, to Status
	}{
		{StatusSaved, StatusPending},
		{StatusPending, StatusPending},
		{StatusPending, StatusInTransit},
		{StatusPending, StatusHold},
		{StatusInTransit, StatusCompleted},
		{StatusInTransit, StatusHold},
		{StatusHold, StatusPending},
	}
	for _, tc := range allowed {
		assert.NoError(t, Transition(tc.from, tc.to), "%s -> %s should be allowed", tc.from, tc.to)
	}

	rejected := []struct {
		from, to Status
	}{
		{StatusSaved, StatusInTransit},
		{StatusSaved, StatusCompleted},
		{StatusSaved, StatusHold},
		{StatusPending, StatusCompleted},
		{StatusPending, StatusSaved},
		{StatusInTransit, StatusPending},
		{StatusHold, StatusInTransit},
		{StatusHold, StatusCompleted},
		{StatusCompleted, StatusPending},
		{StatusCompleted, StatusInTransit},
		{StatusCompleted, StatusHold},
	}
	for _, tc := range rejected {
		err := Transition(tc.from, tc.to)
		require.Error(t, err, "%s -> %s should be rejected", tc.from, tc.to)
		assert.ErrorIs(t, err, ErrIllegalTransition)
	}
}

func TestCompletedIsTerminal(t *testing.T) {
	for _, target := range []Status{StatusSaved, StatusPending, StatusInTransit, StatusHold, StatusCompleted} {
		assert.ErrorIs(t, Transition(StatusCompleted, target), ErrIllegalTransition)
	}
}

func TestStatusIsValid(t *testing.T) {
	for _, s := range []Status{StatusSaved, StatusPending, StatusInTransit, StatusCompleted, StatusHold} {
		assert.True(t, s.IsValid())
	}
	assert.False(t, Status("shipped").IsValid())
	assert.False(t, Status("").IsValid())
}

func TestGradeIsValid(t *testing.T) {
	assert.True(t, GradeHot.IsValid())
	assert.True(t, GradeWarm.IsValid())
	assert.True(t, GradeCold.IsValid())
	assert.False(t, Grade("Lukewarm").IsValid())
}

func TestGenerateDCCode(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	code := GenerateDCCode(now)
	require.NotEmpty(t, code)
	assert.Contains(t, code, "DC-")

	// Same-second derivation collides; this is a documented weakness of the
	// time-derived scheme, not a bug in the generator.
	assert.Equal(t, code, GenerateDCCode(now.Add(500*time.Millisecond)))
	assert.NotEqual(t, code, GenerateDCCode(now.Add(time.Second)))
}
