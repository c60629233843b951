package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hectoclash/internal/metrics"
	"hectoclash/internal/model"
)

var (
	alice = model.PlayerRef{ID: "u-alice", Username: "alice", ConnID: "c-alice"}
	bob   = model.PlayerRef{ID: "u-bob", Username: "bob", ConnID: "c-bob"}
	carol = model.PlayerRef{ID: "u-carol", Username: "carol", ConnID: "c-carol"}
)

type matchFixture struct {
	match     *MatchService
	notifier  *recordingNotifier
	presence  *PresenceService
	outcomes  *outcomeRecorder
	results   *memoryResults
	questions *fixedQuestions
	metrics   *metrics.Recorder
}

func setupMatch(t *testing.T, cfg MatchConfig) *matchFixture {
	t.Helper()
	n := newRecordingNotifier()
	presence := NewPresenceService(n)
	f := &matchFixture{
		notifier:  n,
		presence:  presence,
		outcomes:  &outcomeRecorder{},
		results:   newMemoryResults(),
		questions: &fixedQuestions{},
		metrics:   metrics.NewRecorder(),
	}
	f.match = NewMatchService(f.questions, n, presence, f.outcomes, f.results, f.metrics, DefaultScoringPolicy(), cfg)

	ids := 0
	f.match.newID = func() string {
		ids++
		return fmt.Sprintf("s%d", ids)
	}

	for _, p := range []model.PlayerRef{alice, bob, carol} {
		_, err := presence.Announce(p, "easy")
		require.NoError(t, err)
	}
	return f
}

// pair queues alice and bob and returns the new session id.
func (f *matchFixture) pair(t *testing.T) string {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.match.JoinQueue(ctx, alice, "HECTOC_GAME", "easy"))
	require.NoError(t, f.match.JoinQueue(ctx, bob, "HECTOC_GAME", "easy"))

	id, ok := f.match.SessionOf(alice.ID)
	require.True(t, ok)
	return id
}

func (f *matchFixture) start(t *testing.T) string {
	t.Helper()
	id := f.pair(t)
	require.NoError(t, f.match.MarkReady(id, alice.ID))
	require.NoError(t, f.match.MarkReady(id, bob.ID))
	return id
}

func payloadMap(t *testing.T, v interface{}) map[string]interface{} {
	t.Helper()
	m, ok := v.(map[string]interface{})
	require.True(t, ok, "payload is %T", v)
	return m
}

func TestJoinQueue_AloneReportsPositionOne(t *testing.T) {
	f := setupMatch(t, MatchConfig{})

	require.NoError(t, f.match.JoinQueue(context.Background(), alice, "HECTOC_GAME", "easy"))

	got := f.notifier.received(alice.ConnID, EventInQueue)
	require.Len(t, got, 1)
	assert.Equal(t, 1, payloadMap(t, got[0])["position"])

	_, inSession := f.match.SessionOf(alice.ID)
	assert.False(t, inSession)
}

func TestJoinQueue_SecondJoinPairsBoth(t *testing.T) {
	f := setupMatch(t, MatchConfig{})
	id := f.pair(t)

	for _, p := range []model.PlayerRef{alice, bob} {
		ready := f.notifier.received(p.ConnID, EventGameReady)
		require.Len(t, ready, 1, p.ID)
		assert.Equal(t, id, payloadMap(t, ready[0])["gameId"])

		got, ok := f.presence.Get(p.ID)
		require.True(t, ok)
		assert.Equal(t, model.PlayerPlaying, got.Status)
	}

	assert.ErrorIs(t, f.match.LeaveQueue(alice.ID), ErrNotQueued)
	assert.ErrorIs(t, f.match.LeaveQueue(bob.ID), ErrNotQueued)

	view, err := f.match.Lookup(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, model.SessionWaiting, view.Session.Status)
	assert.Len(t, view.Session.Players, 2)
}

func TestJoinQueue_SeparatesDifficulties(t *testing.T) {
	f := setupMatch(t, MatchConfig{})
	ctx := context.Background()

	require.NoError(t, f.match.JoinQueue(ctx, alice, "HECTOC_GAME", "easy"))
	require.NoError(t, f.match.JoinQueue(ctx, bob, "HECTOC_GAME", "HARD"))

	assert.Len(t, f.notifier.received(bob.ConnID, EventInQueue), 1)
	assert.Equal(t, 0, f.notifier.count(EventGameReady))
}

func TestJoinQueue_Rejections(t *testing.T) {
	f := setupMatch(t, MatchConfig{})
	ctx := context.Background()

	assert.ErrorIs(t, f.match.JoinQueue(ctx, alice, "CHESS", "easy"), ErrInvalid)
	assert.ErrorIs(t, f.match.JoinQueue(ctx, alice, "HECTOC_GAME", "extreme"), ErrInvalid)

	require.NoError(t, f.match.JoinQueue(ctx, alice, "HECTOC_GAME", "easy"))
	assert.ErrorIs(t, f.match.JoinQueue(ctx, alice, "HECTOC_GAME", "easy"), ErrAlreadyQueued)
	require.NoError(t, f.match.JoinQueue(ctx, bob, "HECTOC_GAME", "easy"))

	assert.ErrorIs(t, f.match.JoinQueue(ctx, bob, "HECTOC_GAME", "easy"), ErrPlayerBusy)
}

func TestJoinQueue_GenerationFailureRequeuesWaitingPlayer(t *testing.T) {
	f := setupMatch(t, MatchConfig{})
	f.questions.err = errors.New("store down")
	ctx := context.Background()

	require.NoError(t, f.match.JoinQueue(ctx, alice, "HECTOC_GAME", "easy"))
	assert.Error(t, f.match.JoinQueue(ctx, bob, "HECTOC_GAME", "easy"))

	got := f.notifier.received(alice.ConnID, EventInQueue)
	require.Len(t, got, 2)
	assert.Equal(t, 1, payloadMap(t, got[1])["position"])
	assert.NoError(t, f.match.LeaveQueue(alice.ID))
	assert.ErrorIs(t, f.match.LeaveQueue(bob.ID), ErrNotQueued)
}

func TestJoinQueue_EmptyQuestionSetDoesNotCreateSession(t *testing.T) {
	f := setupMatch(t, MatchConfig{})
	f.questions.empty = true
	ctx := context.Background()

	require.NoError(t, f.match.JoinQueue(ctx, alice, "HECTOC_GAME", "easy"))
	err := f.match.JoinQueue(ctx, bob, "HECTOC_GAME", "easy")
	assert.ErrorIs(t, err, ErrNoPuzzles)

	_, ok := f.match.SessionOf(alice.ID)
	assert.False(t, ok)
	_, ok = f.match.SessionOf(bob.ID)
	assert.False(t, ok)
	assert.NoError(t, f.match.LeaveQueue(alice.ID))
}

func TestMarkReady_RefusesSessionWithoutQuestions(t *testing.T) {
	f := setupMatch(t, MatchConfig{})
	id := f.pair(t)

	sess, err := f.match.lookup(id)
	require.NoError(t, err)
	sess.mu.Lock()
	sess.questions = nil
	sess.mu.Unlock()

	assert.ErrorIs(t, f.match.MarkReady(id, alice.ID), ErrSessionNotActive)
	assert.Empty(t, f.notifier.received(alice.ConnID, EventGameStart))
}

func TestLeaveQueue_UpdatesPositions(t *testing.T) {
	f := setupMatch(t, MatchConfig{})
	ctx := context.Background()

	require.NoError(t, f.match.JoinQueue(ctx, alice, "MATH_CHALLENGE", "easy"))
	require.NoError(t, f.match.LeaveQueue(alice.ID))
	require.NoError(t, f.match.JoinQueue(ctx, bob, "MATH_CHALLENGE", "easy"))

	got := f.notifier.received(bob.ConnID, EventInQueue)
	require.Len(t, got, 1)
	assert.Equal(t, 1, payloadMap(t, got[0])["position"])
	assert.ErrorIs(t, f.match.LeaveQueue(carol.ID), ErrNotFound)
}

func TestMarkReady_StartsWhenAllReady(t *testing.T) {
	f := setupMatch(t, MatchConfig{})
	id := f.pair(t)

	require.NoError(t, f.match.MarkReady(id, alice.ID))
	assert.Equal(t, 0, f.notifier.count(EventGameStart))
	assert.Len(t, f.notifier.received(bob.ConnID, EventPlayerReady), 1)

	require.NoError(t, f.match.MarkReady(id, bob.ID))
	for _, p := range []model.PlayerRef{alice, bob} {
		start := f.notifier.received(p.ConnID, EventGameStart)
		require.Len(t, start, 1)
		m := payloadMap(t, start[0])
		assert.Equal(t, 180, m["timeLimit"])
		questions, ok := m["questions"].([]model.Question)
		require.True(t, ok)
		assert.Len(t, questions, 2)
	}
	assert.Equal(t, 1, f.metrics.Count(metrics.SessionsStarted))

	assert.ErrorIs(t, f.match.MarkReady(id, alice.ID), ErrSessionNotActive)
	assert.ErrorIs(t, f.match.MarkReady("missing", alice.ID), ErrNotFound)
}

func TestMarkReady_UnknownPlayer(t *testing.T) {
	f := setupMatch(t, MatchConfig{})
	id := f.pair(t)

	assert.ErrorIs(t, f.match.MarkReady(id, carol.ID), ErrPlayerNotFound)
}

func TestSubmitAnswer_ScoresAndBroadcasts(t *testing.T) {
	f := setupMatch(t, MatchConfig{})
	id := f.start(t)

	res, err := f.match.SubmitAnswer(id, alice.ID, 0, "1+2+3+4+5+6", 1000)
	require.NoError(t, err)
	assert.False(t, res.IsValid)
	assert.Contains(t, res.Reason, "not the target value of 100")

	res, err = f.match.SubmitAnswer(id, alice.ID, 0, sampleAnswer, 2000)
	require.NoError(t, err)
	assert.True(t, res.IsValid)

	results := f.notifier.received(alice.ConnID, EventAnswerResult)
	require.Len(t, results, 2)
	last := payloadMap(t, results[1])
	assert.Equal(t, 23, last["points"])
	assert.Equal(t, 23, last["score"])
	assert.Len(t, f.notifier.received(bob.ConnID, EventAnswerResult), 0)

	progress := f.notifier.received(bob.ConnID, EventGameProgress)
	require.Len(t, progress, 2)
	players := payloadMap(t, progress[1])["players"].([]model.PlayerProgress)
	assert.Equal(t, model.PlayerProgress{ID: alice.ID, Username: "alice", Score: 23, Progress: 1, Ready: true}, players[0])

	_, err = f.match.SubmitAnswer(id, alice.ID, 0, sampleAnswer, 2000)
	assert.ErrorIs(t, err, ErrAlreadyAnswered)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.match.SubmitAnswer(id, alice.ID, 5, sampleAnswer, 0)
	assert.ErrorIs(t, err, ErrQuestionNotFound)
	_, err = f.match.SubmitAnswer(id, carol.ID, 0, sampleAnswer, 0)
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestSubmitAnswer_BeforeStartIsSoftSignal(t *testing.T) {
	f := setupMatch(t, MatchConfig{})
	id := f.pair(t)

	_, err := f.match.SubmitAnswer(id, alice.ID, 0, sampleAnswer, 0)
	assert.ErrorIs(t, err, ErrSessionNotActive)
}

func TestSubmitAnswer_AllDoneCompletes(t *testing.T) {
	f := setupMatch(t, MatchConfig{SessionGrace: time.Hour})
	id := f.start(t)

	for i := 0; i < 2; i++ {
		_, err := f.match.SubmitAnswer(id, alice.ID, i, sampleAnswer, 0)
		require.NoError(t, err)
		_, err = f.match.SubmitAnswer(id, bob.ID, i, sampleAnswer, 10000)
		require.NoError(t, err)
	}

	over := f.notifier.received(alice.ConnID, EventGameOver)
	require.Len(t, over, 1)
	result, ok := over[0].(*model.SessionResult)
	require.True(t, ok)
	assert.Equal(t, ReasonCompleted, result.Reason)
	require.Len(t, result.Results, 2)
	assert.Equal(t, alice.ID, result.Results[0].ID)
	assert.Equal(t, 50, result.Results[0].Score)
	assert.True(t, result.Results[0].Winner)
	assert.Equal(t, 40, result.Results[1].Score)
	assert.False(t, result.Results[1].Winner)
	assert.Equal(t, 2, result.Results[1].CorrectAnswers)
	assert.Equal(t, 10.0, result.Results[1].AvgTimePerQuestion)
	require.NotNil(t, result.Winner)
	assert.Equal(t, alice.ID, result.Winner.ID)

	outcomes := f.outcomes.all()
	require.Len(t, outcomes, 1)
	deltas := map[string]int{}
	for _, p := range outcomes[0].Players {
		deltas[p.UserID] = p.RatingDelta
	}
	assert.Equal(t, map[string]int{alice.ID: 10, bob.ID: -5}, deltas)

	for _, p := range []model.PlayerRef{alice, bob} {
		got, _ := f.presence.Get(p.ID)
		assert.Equal(t, model.PlayerAvailable, got.Status)
		_, inSession := f.match.SessionOf(p.ID)
		assert.False(t, inSession)
	}

	cached, err := f.results.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, result, cached)

	_, err = f.match.SubmitAnswer(id, alice.ID, 0, sampleAnswer, 0)
	assert.ErrorIs(t, err, ErrSessionNotActive)
}

func TestSubmitAnswer_ConcurrentPlayersKeepBothUpdates(t *testing.T) {
	for run := 0; run < 20; run++ {
		f := setupMatch(t, MatchConfig{SessionGrace: time.Hour})
		id := f.start(t)

		var wg sync.WaitGroup
		gate := make(chan struct{})
		for _, p := range []model.PlayerRef{alice, bob} {
			wg.Add(1)
			go func(playerID string) {
				defer wg.Done()
				<-gate
				for i := 0; i < 2; i++ {
					_, err := f.match.SubmitAnswer(id, playerID, i, sampleAnswer, 0)
					assert.NoError(t, err)
				}
			}(p.ID)
		}
		close(gate)
		wg.Wait()

		assert.Equal(t, 1, f.notifier.count(EventGameOver))
		view, err := f.match.Lookup(context.Background(), id)
		require.NoError(t, err)
		require.NotNil(t, view.Result)
		for _, r := range view.Result.Results {
			assert.Equal(t, 50, r.Score, r.ID)
			assert.Equal(t, 2, r.CorrectAnswers, r.ID)
		}
		assert.Len(t, f.outcomes.all(), 1)
	}
}

func TestTimer_ForcesEnd(t *testing.T) {
	f := setupMatch(t, MatchConfig{TimeLimit: 30 * time.Millisecond, SessionGrace: time.Hour})
	id := f.start(t)

	_, err := f.match.SubmitAnswer(id, bob.ID, 0, sampleAnswer, 0)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return f.notifier.count(EventGameOver) == 1
	}, time.Second, 5*time.Millisecond)

	over := f.notifier.received(alice.ConnID, EventGameOver)
	require.Len(t, over, 1)
	result := over[0].(*model.SessionResult)
	assert.Equal(t, ReasonTimeUp, result.Reason)
	assert.Equal(t, bob.ID, result.Winner.ID)
	assert.Equal(t, 1, f.metrics.Count(metrics.SessionsCompleted, ReasonTimeUp))
}

func TestTimer_StaleFireIsNoop(t *testing.T) {
	f := setupMatch(t, MatchConfig{SessionGrace: time.Hour})
	id := f.start(t)

	f.match.mu.Lock()
	sess := f.match.sessions[id]
	f.match.mu.Unlock()
	sess.mu.Lock()
	gen := sess.timerGen
	sess.mu.Unlock()

	for i := 0; i < 2; i++ {
		_, err := f.match.SubmitAnswer(id, alice.ID, i, sampleAnswer, 0)
		require.NoError(t, err)
		_, err = f.match.SubmitAnswer(id, bob.ID, i, sampleAnswer, 0)
		require.NoError(t, err)
	}

	f.match.expire(sess, gen)
	assert.Equal(t, 1, f.notifier.count(EventGameOver))
	assert.Len(t, f.outcomes.all(), 1)
}

func TestLeave_WaitingSessionDiscardedWithoutGameOver(t *testing.T) {
	f := setupMatch(t, MatchConfig{})
	id := f.pair(t)

	require.NoError(t, f.match.Leave(id, alice.ID))
	left := f.notifier.received(bob.ConnID, EventPlayerLeft)
	require.Len(t, left, 1)
	remaining := payloadMap(t, left[0])["remainingPlayers"].([]model.PlayerProgress)
	require.Len(t, remaining, 1)
	assert.Equal(t, bob.ID, remaining[0].ID)

	require.NoError(t, f.match.Leave(id, bob.ID))

	assert.Equal(t, 0, f.notifier.count(EventGameOver))
	assert.True(t, f.notifier.isClosed(SessionGroup(id)))
	_, err := f.match.Lookup(context.Background(), id)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, f.outcomes.all())

	got, _ := f.presence.Get(bob.ID)
	assert.Equal(t, model.PlayerAvailable, got.Status)
}

func TestDisconnect_InProgressOpponentWins(t *testing.T) {
	f := setupMatch(t, MatchConfig{SessionGrace: time.Hour})
	id := f.start(t)

	_, err := f.match.SubmitAnswer(id, bob.ID, 0, sampleAnswer, 0)
	require.NoError(t, err)

	f.match.Disconnect(bob.ID, bob.ConnID)

	over := f.notifier.received(alice.ConnID, EventGameOver)
	require.Len(t, over, 1)
	result := over[0].(*model.SessionResult)
	assert.Equal(t, ReasonOpponentLeft, result.Reason)
	assert.Equal(t, alice.ID, result.Winner.ID)
	assert.True(t, result.Results[0].Winner)
	assert.Equal(t, bob.ID, result.Results[1].ID)
	assert.False(t, result.Results[1].Winner)

	view, err := f.match.Lookup(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, model.SessionCompleted, view.Session.Status)

	outcomes := f.outcomes.all()
	require.Len(t, outcomes, 1)
	for _, p := range outcomes[0].Players {
		if p.UserID == alice.ID {
			assert.True(t, p.Won)
			assert.Equal(t, 5, p.RatingDelta)
		} else {
			assert.False(t, p.Won)
			assert.Equal(t, -10, p.RatingDelta)
		}
	}
}

func TestDisconnect_StaleConnectionIgnored(t *testing.T) {
	f := setupMatch(t, MatchConfig{})
	id := f.start(t)

	f.match.Disconnect(bob.ID, "c-old")

	assert.Equal(t, 0, f.notifier.count(EventGameOver))
	view, err := f.match.Lookup(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, model.SessionInProgress, view.Session.Status)
}

func TestDisconnect_WithdrawsFromQueue(t *testing.T) {
	f := setupMatch(t, MatchConfig{})
	require.NoError(t, f.match.JoinQueue(context.Background(), alice, "HECTOC_GAME", "easy"))

	f.match.Disconnect(alice.ID, alice.ConnID)

	assert.ErrorIs(t, f.match.LeaveQueue(alice.ID), ErrNotQueued)
}

func TestSpectate(t *testing.T) {
	f := setupMatch(t, MatchConfig{SessionGrace: time.Hour})
	id := f.start(t)

	require.NoError(t, f.match.Spectate(id, carol))

	snaps := f.notifier.received(carol.ConnID, EventGameInProgress)
	require.Len(t, snaps, 1)
	snap := snaps[0].(model.SessionSnapshot)
	assert.Equal(t, model.SessionInProgress, snap.Status)
	assert.Equal(t, 1, snap.SpectatorCount)
	assert.Greater(t, snap.TimeRemaining, 170)
	assert.LessOrEqual(t, snap.TimeRemaining, 180)

	joined := f.notifier.received(alice.ConnID, EventSpectatorJoin)
	require.Len(t, joined, 1)
	assert.Equal(t, 1, payloadMap(t, joined[0])["spectatorCount"])

	_, err := f.match.SubmitAnswer(id, alice.ID, 0, sampleAnswer, 0)
	require.NoError(t, err)
	assert.Len(t, f.notifier.received(carol.ConnID, EventGameProgress), 1)
	assert.Empty(t, f.notifier.received(carol.ConnID, EventAnswerResult))

	require.NoError(t, f.match.LeaveSpectating(id, carol.ConnID))
	assert.Len(t, f.notifier.received(alice.ConnID, EventSpectatorLeft), 1)
	assert.ErrorIs(t, f.match.LeaveSpectating(id, carol.ConnID), ErrNotSpectating)

	assert.ErrorIs(t, f.match.Spectate(id, alice), ErrAlreadySpectator)
	assert.ErrorIs(t, f.match.Spectate("missing", carol), ErrNotFound)
}

func TestSpectate_CompletedSendsResults(t *testing.T) {
	f := setupMatch(t, MatchConfig{SessionGrace: time.Hour})
	id := f.start(t)
	require.NoError(t, f.match.Leave(id, alice.ID))

	require.NoError(t, f.match.Spectate(id, carol))

	over := f.notifier.received(carol.ConnID, EventGameOver)
	require.Len(t, over, 1)
	assert.Equal(t, bob.ID, over[0].(*model.SessionResult).Winner.ID)
}

func TestReap_ServesCachedResult(t *testing.T) {
	f := setupMatch(t, MatchConfig{SessionGrace: 20 * time.Millisecond})
	id := f.start(t)
	require.NoError(t, f.match.Leave(id, bob.ID))

	assert.Eventually(t, func() bool {
		return f.notifier.isClosed(SessionGroup(id))
	}, time.Second, 5*time.Millisecond)

	view, err := f.match.Lookup(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, view.Session)
	require.NotNil(t, view.Result)
	assert.Equal(t, alice.ID, view.Result.Winner.ID)

	assert.ErrorIs(t, f.match.Spectate(id, carol), ErrNotFound)
}

func TestCreateInvitedSession(t *testing.T) {
	f := setupMatch(t, MatchConfig{})
	require.NoError(t, f.match.JoinQueue(context.Background(), alice, "HECTOC_GAME", "easy"))

	id, err := f.match.CreateInvitedSession(context.Background(), alice, bob, model.DifficultyModerate)
	require.NoError(t, err)

	assert.ErrorIs(t, f.match.LeaveQueue(alice.ID), ErrNotQueued)
	for _, p := range []model.PlayerRef{alice, bob} {
		found := f.notifier.received(p.ConnID, EventMatchFound)
		require.Len(t, found, 1)
		m := payloadMap(t, found[0])
		assert.Equal(t, id, m["gameId"])
		assert.Len(t, m["questions"], 2)
	}

	_, err = f.match.CreateInvitedSession(context.Background(), alice, carol, model.DifficultyEasy)
	assert.ErrorIs(t, err, ErrPlayerBusy)
}
