package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daybell/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "daybell.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCustomSoundsRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveCustomSound(ctx, domain.CustomSound{
		UserID:    "user-1",
		Name:      "Birdsong",
		FileURL:   "/sounds/birdsong.mp3",
		CreatedAt: time.Date(2025, time.March, 1, 8, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, store.SaveCustomSound(ctx, domain.CustomSound{
		ID:        "sound-2",
		UserID:    "user-1",
		Name:      "Rainfall",
		FileURL:   "/sounds/rain.mp3",
		CreatedAt: time.Date(2025, time.March, 2, 8, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, store.SaveCustomSound(ctx, domain.CustomSound{
		UserID:  "user-2",
		Name:    "Other user",
		FileURL: "/sounds/other.mp3",
	}))

	sounds, err := store.GetUserCustomSounds(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, sounds, 2)
	assert.Equal(t, "Rainfall", sounds[0].Name)
	assert.Equal(t, "sound-2", sounds[0].ID)
	assert.NotEmpty(t, sounds[1].ID)

	none, err := store.GetUserCustomSounds(ctx, "user-3")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSaveCustomSoundReplacesByID(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	sound := domain.CustomSound{ID: "sound-1", UserID: "user-1", Name: "Before", FileURL: "/a.mp3"}
	require.NoError(t, store.SaveCustomSound(ctx, sound))
	sound.Name = "After"
	require.NoError(t, store.SaveCustomSound(ctx, sound))

	sounds, err := store.GetUserCustomSounds(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, sounds, 1)
	assert.Equal(t, "After", sounds[0].Name)
}

func TestChallengeAttemptHistory(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.RecordChallengeAttempt(ctx, domain.ChallengeAttemptRecord{
		AlarmID:        "alarm-1",
		SessionID:      "session-1",
		ChallengeID:    "challenge-1",
		ChallengeType:  domain.ChallengeMath,
		Successful:     true,
		TimeToComplete: 8500 * time.Millisecond,
		HintsUsed:      1,
		ErrorsMade:     2,
		CreatedAt:      time.Date(2025, time.March, 1, 7, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, store.RecordChallengeAttempt(ctx, domain.ChallengeAttemptRecord{
		AlarmID:       "alarm-1",
		SessionID:     "session-1",
		ChallengeID:   "challenge-2",
		ChallengeType: domain.ChallengeTyping,
		Successful:    false,
		CreatedAt:     time.Date(2025, time.March, 2, 7, 0, 0, 0, time.UTC),
	}))

	records, err := store.ListChallengeAttempts(ctx, "alarm-1")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "challenge-2", records[0].ChallengeID)
	assert.False(t, records[0].Successful)

	assert.Equal(t, domain.ChallengeMath, records[1].ChallengeType)
	assert.Equal(t, 8500*time.Millisecond, records[1].TimeToComplete)
	assert.Equal(t, 1, records[1].HintsUsed)
	assert.Equal(t, 2, records[1].ErrorsMade)
	assert.NotEmpty(t, records[1].ID)

	empty, err := store.ListChallengeAttempts(ctx, "alarm-2")
	require.NoError(t, err)
	assert.Empty(t, empty)
}
