package challenges

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"daybell/internal/domain"
)

func TestStartSessionGeneratesOrderedChallenges(t *testing.T) {
	t.Parallel()

	service := NewService(zap.NewNop(), nil, 3)
	session, err := service.StartSession(context.Background(), domain.Alarm{ID: "alarm-1"})
	require.NoError(t, err)

	require.Len(t, session.Challenges, 3)
	assert.Equal(t, "alarm-1", session.AlarmID)
	assert.NotEmpty(t, session.ID)

	assert.Equal(t, domain.ChallengeMath, session.Challenges[0].Type)
	assert.Equal(t, domain.ChallengeTyping, session.Challenges[1].Type)
	assert.Equal(t, domain.ChallengeMemory, session.Challenges[2].Type)

	for _, challenge := range session.Challenges {
		assert.NotEmpty(t, challenge.ID)
		assert.NotEmpty(t, challenge.Prompt)
	}
	assert.Len(t, session.Challenges[2].Data["sequence"], 6)
}

func TestProcessAttemptFullSession(t *testing.T) {
	t.Parallel()

	recorder := &fakeRecorder{}
	service := NewService(zap.NewNop(), recorder, 2)
	session, err := service.StartSession(context.Background(), domain.Alarm{ID: "alarm-1"})
	require.NoError(t, err)

	first := session.Challenges[0]
	outcome, err := service.ProcessAttempt(context.Background(), session.ID, first.ID, domain.ChallengeAttempt{
		Answer: solveMath(t, first.Prompt),
	})
	require.NoError(t, err)
	assert.False(t, outcome.SessionComplete)
	require.True(t, outcome.ContinueSession)
	require.NotNil(t, outcome.NextChallenge)
	assert.Equal(t, session.Challenges[1].ID, outcome.NextChallenge.ID)

	second := *outcome.NextChallenge
	outcome, err = service.ProcessAttempt(context.Background(), session.ID, second.ID, domain.ChallengeAttempt{
		Answer: strings.TrimPrefix(second.Prompt, "Type this exactly: "),
	})
	require.NoError(t, err)
	assert.True(t, outcome.SessionComplete)
	assert.False(t, outcome.ContinueSession)

	require.Len(t, recorder.records, 2)
	assert.True(t, recorder.records[0].Successful)
	assert.Equal(t, "alarm-1", recorder.records[0].AlarmID)
	assert.Equal(t, session.ID, recorder.records[1].SessionID)

	// Session is gone once complete.
	_, err = service.ProcessAttempt(context.Background(), session.ID, second.ID, domain.ChallengeAttempt{})
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestProcessAttemptWrongAnswerFailsSession(t *testing.T) {
	t.Parallel()

	service := NewService(zap.NewNop(), nil, 2)
	session, err := service.StartSession(context.Background(), domain.Alarm{ID: "alarm-1"})
	require.NoError(t, err)

	outcome, err := service.ProcessAttempt(context.Background(), session.ID, session.Challenges[0].ID, domain.ChallengeAttempt{
		Answer:     "definitely wrong",
		Successful: true, // the service's own scoring must win
	})
	require.NoError(t, err)
	assert.False(t, outcome.SessionComplete)
	assert.False(t, outcome.ContinueSession)
	assert.Nil(t, outcome.NextChallenge)

	_, err = service.ProcessAttempt(context.Background(), session.ID, session.Challenges[0].ID, domain.ChallengeAttempt{})
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestProcessAttemptRejectsStaleChallenge(t *testing.T) {
	t.Parallel()

	service := NewService(zap.NewNop(), nil, 2)
	session, err := service.StartSession(context.Background(), domain.Alarm{ID: "alarm-1"})
	require.NoError(t, err)

	_, err = service.ProcessAttempt(context.Background(), session.ID, session.Challenges[1].ID, domain.ChallengeAttempt{})
	assert.ErrorIs(t, err, ErrUnknownChallenge)
}

func TestProcessAttemptRecorderFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	recorder := &fakeRecorder{err: errors.New("db down")}
	service := NewService(zap.NewNop(), recorder, 1)
	session, err := service.StartSession(context.Background(), domain.Alarm{ID: "alarm-1"})
	require.NoError(t, err)

	first := session.Challenges[0]
	outcome, err := service.ProcessAttempt(context.Background(), session.ID, first.ID, domain.ChallengeAttempt{
		Answer: solveMath(t, first.Prompt),
	})
	require.NoError(t, err)
	assert.True(t, outcome.SessionComplete)
}

func TestAbandonSession(t *testing.T) {
	t.Parallel()

	service := NewService(zap.NewNop(), nil, 1)
	session, err := service.StartSession(context.Background(), domain.Alarm{ID: "alarm-1"})
	require.NoError(t, err)

	require.NoError(t, service.AbandonSession(context.Background(), session.ID))
	assert.ErrorIs(t, service.AbandonSession(context.Background(), session.ID), ErrNoSession)
}

func TestAnswersMatchIsForgiving(t *testing.T) {
	t.Parallel()

	assert.True(t, answersMatch("  42 ", "42"))
	assert.True(t, answersMatch("Coffee First Then Everything Else", "coffee first then everything else"))
	assert.False(t, answersMatch("41", "42"))
}

// solveMath extracts "What is A + B?" and returns the sum.
func solveMath(t *testing.T, prompt string) string {
	t.Helper()
	trimmed := strings.TrimSuffix(strings.TrimPrefix(prompt, "What is "), "?")
	parts := strings.Split(trimmed, " + ")
	require.Len(t, parts, 2)
	a, err := strconv.Atoi(parts[0])
	require.NoError(t, err)
	b, err := strconv.Atoi(parts[1])
	require.NoError(t, err)
	return strconv.Itoa(a + b)
}

type fakeRecorder struct {
	records []domain.ChallengeAttemptRecord
	err     error
}

func (f *fakeRecorder) RecordChallengeAttempt(_ context.Context, record domain.ChallengeAttemptRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, record)
	return nil
}
