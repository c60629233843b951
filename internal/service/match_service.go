package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"hectoclash/internal/cache"
	"hectoclash/internal/metrics"
	"hectoclash/internal/model"
)

// QuestionSource builds the question set of a new session.
type QuestionSource interface {
	NewQuestionSet(ctx context.Context, gameType model.GameType, d model.Difficulty) ([]model.Question, error)
}

type MatchConfig struct {
	TimeLimit    time.Duration
	SessionGrace time.Duration
}

type queueKey struct {
	gameType   model.GameType
	difficulty model.Difficulty
}

// SessionView is a live snapshot, a final result, or both.
type SessionView struct {
	Session *model.SessionSnapshot `json:"session,omitempty"`
	Result  *model.SessionResult   `json:"result,omitempty"`
}

// MatchService owns the matchmaking queues and the live session table.
//
// Locks are taken in the order queueMu, mu, session.mu, then the presence
// registry. Notifications for a session are emitted while its lock is held
// so every client sees them in transition order.
type MatchService struct {
	questions QuestionSource
	notifier  Notifier
	presence  *PresenceService
	outcomes  OutcomeSink
	results   cache.ResultCache
	metrics   *metrics.Recorder
	scoring   ScoringPolicy
	cfg       MatchConfig

	now   func() time.Time
	newID func() string

	queueMu sync.Mutex
	queues  map[queueKey][]model.PlayerRef
	queued  map[string]queueKey

	mu            sync.Mutex
	sessions      map[string]*session
	playerSession map[string]string
	spectating    map[string]string // connID -> session id
	// players whose session is being created; false once they departed
	pairing map[string]bool
}

func NewMatchService(
	questions QuestionSource,
	notifier Notifier,
	presence *PresenceService,
	outcomes OutcomeSink,
	results cache.ResultCache,
	rec *metrics.Recorder,
	scoring ScoringPolicy,
	cfg MatchConfig,
) *MatchService {
	if cfg.TimeLimit == 0 {
		cfg.TimeLimit = 180 * time.Second
	}
	if cfg.SessionGrace == 0 {
		cfg.SessionGrace = 60 * time.Second
	}
	return &MatchService{
		questions:     questions,
		notifier:      notifier,
		presence:      presence,
		outcomes:      outcomes,
		results:       results,
		metrics:       rec,
		scoring:       scoring,
		cfg:           cfg,
		now:           time.Now,
		newID:         uuid.NewString,
		queues:        make(map[queueKey][]model.PlayerRef),
		queued:        make(map[string]queueKey),
		sessions:      make(map[string]*session),
		playerSession: make(map[string]string),
		spectating:    make(map[string]string),
		pairing:       make(map[string]bool),
	}
}

// JoinQueue enqueues player. When a second player is waiting for the same
// game type and difficulty both are dequeued and a session is created.
func (s *MatchService) JoinQueue(ctx context.Context, player model.PlayerRef, gameType, difficulty string) error {
	gt, ok := model.ParseGameType(gameType)
	if !ok {
		return ErrInvalidGameType
	}
	d, ok := model.ParseDifficulty(difficulty)
	if !ok {
		return ErrInvalidDifficulty
	}
	key := queueKey{gameType: gt, difficulty: d}

	s.queueMu.Lock()
	if _, ok := s.queued[player.ID]; ok {
		s.queueMu.Unlock()
		return ErrAlreadyQueued
	}
	s.mu.Lock()
	_, inSession := s.playerSession[player.ID]
	_, inPairing := s.pairing[player.ID]
	s.mu.Unlock()
	if inSession || inPairing {
		s.queueMu.Unlock()
		return ErrPlayerBusy
	}

	queue := append(s.queues[key], player)
	if len(queue) < 2 {
		s.queues[key] = queue
		s.queued[player.ID] = key
		s.notifier.SendTo(player.ConnID, EventInQueue, map[string]interface{}{
			"position":   len(queue),
			"gameType":   gt,
			"difficulty": d,
		})
		s.queueMu.Unlock()
		return nil
	}

	pair := []model.PlayerRef{queue[0], queue[1]}
	s.queues[key] = queue[2:]
	delete(s.queued, pair[0].ID)
	s.mu.Lock()
	for _, p := range pair {
		s.pairing[p.ID] = true
	}
	s.mu.Unlock()
	s.queueMu.Unlock()

	log.Info().Str("player", pair[0].ID).Str("opponent", pair[1].ID).Str("difficulty", string(d)).Msg("players paired")

	questions, err := s.questions.NewQuestionSet(ctx, gt, d)
	if err == nil && len(questions) == 0 {
		err = ErrNoPuzzles
	}
	if err != nil {
		s.abortPairing(pair, key)
		return err
	}

	_, err = s.createSession(pair, gt, d, questions, EventGameReady, key)
	return err
}

// abortPairing returns the earlier player to the head of the queue after a
// failed question set.
func (s *MatchService) abortPairing(pair []model.PlayerRef, key queueKey) {
	s.mu.Lock()
	present := s.pairing[pair[0].ID]
	for _, p := range pair {
		delete(s.pairing, p.ID)
	}
	s.mu.Unlock()

	if present {
		s.requeueFront(pair[0], key)
	}
}

func (s *MatchService) requeueFront(player model.PlayerRef, key queueKey) {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()

	if _, ok := s.queued[player.ID]; ok {
		return
	}
	s.queues[key] = append([]model.PlayerRef{player}, s.queues[key]...)
	s.queued[player.ID] = key
	for i, p := range s.queues[key] {
		s.notifier.SendTo(p.ConnID, EventInQueue, map[string]interface{}{
			"position":   i + 1,
			"gameType":   key.gameType,
			"difficulty": key.difficulty,
		})
	}
}

// LeaveQueue withdraws playerID from whichever queue holds it.
func (s *MatchService) LeaveQueue(playerID string) error {
	s.queueMu.Lock()
	defer s.queueMu.Unlock()

	if !s.leaveQueueLocked(playerID) {
		return ErrNotQueued
	}
	return nil
}

// leaveQueueLocked removes playerID and tells the players behind it their
// new position. queueMu must be held.
func (s *MatchService) leaveQueueLocked(playerID string) bool {
	key, ok := s.queued[playerID]
	if !ok {
		return false
	}
	delete(s.queued, playerID)

	queue := s.queues[key]
	for i, p := range queue {
		if p.ID == playerID {
			queue = append(queue[:i:i], queue[i+1:]...)
			break
		}
	}
	if len(queue) == 0 {
		delete(s.queues, key)
		return true
	}
	s.queues[key] = queue
	for i, p := range queue {
		s.notifier.SendTo(p.ConnID, EventInQueue, map[string]interface{}{
			"position":   i + 1,
			"gameType":   key.gameType,
			"difficulty": key.difficulty,
		})
	}
	return true
}

// CreateInvitedSession starts a session for an accepted invitation. Both
// players leave any queue they were in.
func (s *MatchService) CreateInvitedSession(ctx context.Context, from, to model.PlayerRef, d model.Difficulty) (string, error) {
	pair := []model.PlayerRef{from, to}

	s.queueMu.Lock()
	s.mu.Lock()
	for _, p := range pair {
		_, inSession := s.playerSession[p.ID]
		_, inPairing := s.pairing[p.ID]
		if inSession || inPairing {
			s.mu.Unlock()
			s.queueMu.Unlock()
			return "", ErrPlayerBusy
		}
	}
	for _, p := range pair {
		s.pairing[p.ID] = true
	}
	s.mu.Unlock()
	for _, p := range pair {
		s.leaveQueueLocked(p.ID)
	}
	s.queueMu.Unlock()

	questions, err := s.questions.NewQuestionSet(ctx, model.GameTypeHectoc, d)
	if err == nil && len(questions) == 0 {
		err = ErrNoPuzzles
	}
	if err != nil {
		s.mu.Lock()
		for _, p := range pair {
			delete(s.pairing, p.ID)
		}
		s.mu.Unlock()
		return "", err
	}

	sess, err := s.createSession(pair, model.GameTypeHectoc, d, questions, EventMatchFound, queueKey{})
	if err != nil {
		return "", err
	}
	if sess == nil {
		return "", ErrInviteeGone
	}
	return sess.id, nil
}

// createSession registers the players that are still present. If only one
// remains and key names a queue, that player goes back to its head.
func (s *MatchService) createSession(players []model.PlayerRef, gt model.GameType, d model.Difficulty, questions []model.Question, event string, key queueKey) (*session, error) {
	s.mu.Lock()
	present := make([]model.PlayerRef, 0, len(players))
	for _, p := range players {
		if s.pairing[p.ID] {
			present = append(present, p)
		}
		delete(s.pairing, p.ID)
	}
	if len(present) < 2 {
		s.mu.Unlock()
		if len(present) == 1 && key != (queueKey{}) {
			s.requeueFront(present[0], key)
		}
		return nil, nil
	}

	sess := newSession(s.newID(), gt, d, questions, present, s.now())
	s.sessions[sess.id] = sess
	for _, p := range present {
		s.playerSession[p.ID] = sess.id
	}

	sess.mu.Lock()
	s.mu.Unlock()

	group := SessionGroup(sess.id)
	for _, p := range present {
		s.notifier.Join(group, p.ConnID)
	}
	if event == EventMatchFound {
		for _, p := range present {
			s.notifier.SendTo(p.ConnID, EventMatchFound, map[string]interface{}{
				"gameId":     sess.id,
				"gameType":   gt,
				"difficulty": d,
				"players":    sess.progressViews(),
				"questions":  questions,
			})
		}
	} else {
		s.notifier.BroadcastTo(group, EventGameReady, map[string]interface{}{
			"gameId":         sess.id,
			"gameType":       gt,
			"difficulty":     d,
			"players":        sess.progressViews(),
			"totalQuestions": len(questions),
		})
	}
	sess.mu.Unlock()

	ids := make([]string, len(present))
	for i, p := range present {
		ids[i] = p.ID
	}
	s.presence.setStatuses(ids, model.PlayerPlaying)

	log.Info().Str("session", sess.id).Str("gameType", string(gt)).Str("difficulty", string(d)).Msg("session created")
	return sess, nil
}

func (s *MatchService) lookup(sessionID string) (*session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// MarkReady flags playerID ready. The session starts once every
// participant, and at least two, are ready.
func (s *MatchService) MarkReady(sessionID, playerID string) error {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.closed {
		return ErrSessionNotFound
	}
	if sess.status != model.SessionWaiting || len(sess.questions) == 0 {
		return ErrSessionNotActive
	}
	p := sess.participant(playerID)
	if p == nil {
		return ErrPlayerNotFound
	}
	p.ready = true

	group := SessionGroup(sess.id)
	s.notifier.BroadcastTo(group, EventPlayerReady, map[string]interface{}{
		"gameId":   sess.id,
		"playerId": playerID,
		"players":  sess.progressViews(),
	})

	if !sess.allReady() {
		return nil
	}

	sess.status = model.SessionInProgress
	sess.startedAt = s.now()
	s.notifier.BroadcastTo(group, EventGameStart, map[string]interface{}{
		"gameId":     sess.id,
		"gameType":   sess.gameType,
		"difficulty": sess.difficulty,
		"questions":  sess.questions,
		"timeLimit":  int(s.cfg.TimeLimit.Seconds()),
		"startedAt":  sess.startedAt,
	})
	s.armTimer(sess)
	s.metrics.RecordSessionStarted(string(sess.gameType), string(sess.difficulty))
	log.Info().Str("session", sess.id).Msg("session started")
	return nil
}

func (s *MatchService) armTimer(sess *session) {
	sess.timerGen++
	gen := sess.timerGen
	sess.timer = time.AfterFunc(s.cfg.TimeLimit, func() {
		s.expire(sess, gen)
	})
}

func (s *MatchService) expire(sess *session, gen int) {
	sess.mu.Lock()
	if sess.timerGen != gen || sess.status != model.SessionInProgress {
		sess.mu.Unlock()
		return
	}
	c := s.finishLocked(sess, ReasonTimeUp, "")
	sess.mu.Unlock()

	s.afterCompletion(c)
}

// SubmitAnswer checks answer against the question at index. A question
// answered correctly cannot be answered again; an incorrect one can.
func (s *MatchService) SubmitAnswer(sessionID, playerID string, index int, answer string, elapsedMs int64) (model.VerificationResult, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return model.VerificationResult{}, err
	}

	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		return model.VerificationResult{}, ErrSessionNotFound
	}
	if sess.status != model.SessionInProgress {
		sess.mu.Unlock()
		return model.VerificationResult{}, ErrSessionNotActive
	}
	p := sess.participant(playerID)
	if p == nil || p.left {
		sess.mu.Unlock()
		return model.VerificationResult{}, ErrPlayerNotFound
	}
	if index < 0 || index >= len(sess.questions) {
		sess.mu.Unlock()
		return model.VerificationResult{}, ErrQuestionNotFound
	}
	if p.correct[index] {
		sess.mu.Unlock()
		return model.VerificationResult{}, ErrAlreadyAnswered
	}
	if elapsedMs < 0 {
		elapsedMs = 0
	}

	q := sess.questions[index]
	res := CheckAnswer(q, answer)

	points := 0
	if res.IsValid {
		points = s.scoring.Points(sess.gameType, sess.difficulty, elapsedMs)
		p.score += points
		p.correct[index] = true
	}
	p.answers = append(p.answers, model.AnswerRecord{
		QuestionIndex: index,
		QuestionID:    q.ID,
		Expression:    answer,
		IsCorrect:     res.IsValid,
		TimeSpentMs:   elapsedMs,
	})
	if index+1 > p.progress {
		p.progress = index + 1
	}

	s.notifier.SendTo(p.ref.ConnID, EventAnswerResult, map[string]interface{}{
		"gameId":        sess.id,
		"questionIndex": index,
		"questionId":    q.ID,
		"isValid":       res.IsValid,
		"result":        res.Result,
		"reason":        res.Reason,
		"points":        points,
		"score":         p.score,
	})
	s.notifier.BroadcastTo(SessionGroup(sess.id), EventGameProgress, map[string]interface{}{
		"gameId":  sess.id,
		"players": sess.progressViews(),
		"lastAnswer": map[string]interface{}{
			"playerId":      playerID,
			"questionIndex": index,
			"isCorrect":     res.IsValid,
		},
	})

	var c *completion
	if sess.allDone() {
		c = s.finishLocked(sess, ReasonCompleted, "")
	}
	sess.mu.Unlock()

	s.afterCompletion(c)
	return res, nil
}

// Leave removes playerID from a session. A waiting session is discarded
// once empty; leaving an in-progress session ends it in favour of the
// remaining players.
func (s *MatchService) Leave(sessionID, playerID string) error {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		return ErrSessionNotFound
	}
	p := sess.participant(playerID)
	if p == nil || p.left {
		sess.mu.Unlock()
		return ErrPlayerNotFound
	}

	group := SessionGroup(sess.id)
	switch sess.status {
	case model.SessionWaiting:
		sess.remove(playerID)
		s.notifier.Leave(group, p.ref.ConnID)
		discard := len(sess.players) == 0
		if discard {
			sess.closed = true
		} else {
			s.notifier.BroadcastTo(group, EventPlayerLeft, map[string]interface{}{
				"gameId":           sess.id,
				"playerId":         playerID,
				"remainingPlayers": sess.progressViews(),
			})
		}
		sess.mu.Unlock()

		s.mu.Lock()
		if s.playerSession[playerID] == sess.id {
			delete(s.playerSession, playerID)
		}
		if discard && s.sessions[sess.id] == sess {
			delete(s.sessions, sess.id)
		}
		s.mu.Unlock()

		if discard {
			s.notifier.CloseGroup(group)
			log.Info().Str("session", sess.id).Msg("waiting session discarded")
		}
		s.presence.setStatuses([]string{playerID}, model.PlayerAvailable)
		return nil

	case model.SessionInProgress:
		p.left = true
		s.notifier.BroadcastTo(group, EventPlayerLeft, map[string]interface{}{
			"gameId":   sess.id,
			"playerId": playerID,
		})
		c := s.finishLocked(sess, ReasonOpponentLeft, playerID)
		sess.mu.Unlock()

		s.afterCompletion(c)
		return nil
	}

	sess.mu.Unlock()
	return ErrSessionNotActive
}

type completion struct {
	sess    *session
	result  *model.SessionResult
	outcome Outcome
	players []string
}

// finishLocked completes sess exactly once and broadcasts the results. The
// returned completion carries the work that must run without the lock.
func (s *MatchService) finishLocked(sess *session, reason, leaverID string) *completion {
	if sess.status == model.SessionCompleted {
		return nil
	}
	sess.status = model.SessionCompleted
	sess.endedAt = s.now()
	sess.timerGen++
	if sess.timer != nil {
		sess.timer.Stop()
	}

	ranked := sess.results(reason, leaverID)
	result := &model.SessionResult{
		SessionID:  sess.id,
		GameType:   sess.gameType,
		Difficulty: sess.difficulty,
		Reason:     reason,
		Results:    ranked,
		EndedAt:    sess.endedAt,
	}
	if len(ranked) > 0 {
		winner := ranked[0]
		result.Winner = &winner
	}
	sess.result = result

	s.notifier.BroadcastTo(SessionGroup(sess.id), EventGameOver, result)
	s.metrics.RecordSessionCompleted(reason, sess.endedAt.Sub(sess.startedAt))
	log.Info().Str("session", sess.id).Str("reason", reason).Msg("session completed")

	c := &completion{sess: sess, result: result, outcome: Outcome{SessionID: sess.id}}
	won := make(map[string]bool, len(ranked))
	for _, r := range ranked {
		won[r.ID] = r.Winner
	}
	for _, p := range sess.players {
		delta := s.scoring.LoserRating
		switch {
		case reason == ReasonOpponentLeft && p.ref.ID == leaverID:
			delta = s.scoring.AbandonLossRating
		case reason == ReasonOpponentLeft:
			delta = s.scoring.AbandonWinRating
		case won[p.ref.ID]:
			delta = s.scoring.WinnerRating
		}
		answers := make([]model.AnswerRecord, len(p.answers))
		copy(answers, p.answers)
		c.outcome.Players = append(c.outcome.Players, PlayerOutcome{
			UserID:      p.ref.ID,
			Username:    p.ref.Username,
			Won:         won[p.ref.ID],
			RatingDelta: delta,
			Score:       p.score,
			Answers:     answers,
			TotalTimeMs: p.totalTimeMs(),
		})
		c.players = append(c.players, p.ref.ID)
	}
	return c
}

// afterCompletion releases the players, hands the outcome to persistence,
// caches the result and schedules removal from the live table.
func (s *MatchService) afterCompletion(c *completion) {
	if c == nil {
		return
	}

	s.mu.Lock()
	for _, id := range c.players {
		if s.playerSession[id] == c.sess.id {
			delete(s.playerSession, id)
		}
	}
	s.mu.Unlock()

	s.presence.setStatuses(c.players, model.PlayerAvailable)

	if s.outcomes != nil {
		s.outcomes.Submit(c.outcome)
	}

	if s.results != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := s.results.Set(ctx, c.result); err != nil {
			log.Warn().Err(err).Str("session", c.sess.id).Msg("failed to cache session result")
		}
		cancel()
	}

	time.AfterFunc(s.cfg.SessionGrace, func() {
		s.reap(c.sess)
	})
}

func (s *MatchService) reap(sess *session) {
	s.mu.Lock()
	if s.sessions[sess.id] == sess {
		delete(s.sessions, sess.id)
	}
	for connID, id := range s.spectating {
		if id == sess.id {
			delete(s.spectating, connID)
		}
	}
	s.mu.Unlock()

	sess.mu.Lock()
	sess.closed = true
	sess.mu.Unlock()

	s.notifier.CloseGroup(SessionGroup(sess.id))
}

// Spectate adds viewer to the session's broadcast group. An in-progress
// session sends the viewer a snapshot; a completed one sends its results.
func (s *MatchService) Spectate(sessionID string, viewer model.PlayerRef) error {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	if sess.closed {
		sess.mu.Unlock()
		return ErrSessionNotFound
	}
	if sess.participant(viewer.ID) != nil {
		sess.mu.Unlock()
		return ErrAlreadySpectator
	}

	if sess.status == model.SessionCompleted {
		s.notifier.SendTo(viewer.ConnID, EventGameOver, sess.result)
		sess.mu.Unlock()
		return nil
	}

	group := SessionGroup(sess.id)
	sess.spectators[viewer.ConnID] = viewer
	s.notifier.Join(group, viewer.ConnID)
	if sess.status == model.SessionInProgress {
		s.notifier.SendTo(viewer.ConnID, EventGameInProgress, sess.snapshot(s.now(), s.cfg.TimeLimit))
	}
	s.notifier.BroadcastTo(group, EventSpectatorJoin, map[string]interface{}{
		"gameId":         sess.id,
		"spectator":      viewer,
		"spectatorCount": len(sess.spectators),
	})
	sess.mu.Unlock()

	s.mu.Lock()
	prev, had := s.spectating[viewer.ConnID]
	s.spectating[viewer.ConnID] = sess.id
	s.mu.Unlock()

	if had && prev != sess.id {
		_ = s.LeaveSpectating(prev, viewer.ConnID)
	}
	return nil
}

func (s *MatchService) LeaveSpectating(sessionID, connID string) error {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	viewer, ok := sess.spectators[connID]
	if !ok {
		sess.mu.Unlock()
		return ErrNotSpectating
	}
	delete(sess.spectators, connID)

	group := SessionGroup(sess.id)
	s.notifier.Leave(group, connID)
	s.notifier.BroadcastTo(group, EventSpectatorLeft, map[string]interface{}{
		"gameId":         sess.id,
		"spectator":      viewer,
		"spectatorCount": len(sess.spectators),
	})
	sess.mu.Unlock()

	s.mu.Lock()
	if s.spectating[connID] == sess.id {
		delete(s.spectating, connID)
	}
	s.mu.Unlock()
	return nil
}

// Disconnect runs the cascade for a dropped connection: queue withdrawal,
// leaving any session the player joined on that connection, and
// spectating cleanup.
func (s *MatchService) Disconnect(playerID, connID string) {
	s.queueMu.Lock()
	if key, ok := s.queued[playerID]; ok {
		for _, p := range s.queues[key] {
			if p.ID == playerID && p.ConnID == connID {
				s.leaveQueueLocked(playerID)
				break
			}
		}
	}
	s.queueMu.Unlock()

	s.mu.Lock()
	if _, ok := s.pairing[playerID]; ok {
		s.pairing[playerID] = false
	}
	sessionID := s.playerSession[playerID]
	watching, isSpectator := s.spectating[connID]
	s.mu.Unlock()

	if isSpectator {
		_ = s.LeaveSpectating(watching, connID)
	}
	if sessionID == "" {
		return
	}

	sess, err := s.lookup(sessionID)
	if err != nil {
		return
	}
	sess.mu.Lock()
	p := sess.participant(playerID)
	owned := p != nil && p.ref.ConnID == connID
	sess.mu.Unlock()

	if owned {
		if err := s.Leave(sessionID, playerID); err != nil {
			log.Debug().Err(err).Str("session", sessionID).Str("player", playerID).Msg("leave on disconnect")
		}
	}
}

// SessionOf returns the id of the live session playerID participates in.
func (s *MatchService) SessionOf(playerID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.playerSession[playerID]
	return id, ok
}

// Lookup returns the live view of a session, falling back to the cached
// result once it has been removed from the table.
func (s *MatchService) Lookup(ctx context.Context, sessionID string) (*SessionView, error) {
	sess, err := s.lookup(sessionID)
	if err == nil {
		sess.mu.Lock()
		snap := sess.snapshot(s.now(), s.cfg.TimeLimit)
		result := sess.result
		sess.mu.Unlock()
		return &SessionView{Session: &snap, Result: result}, nil
	}

	if s.results == nil {
		return nil, ErrSessionNotFound
	}
	result, err := s.results.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, ErrSessionNotFound
	}
	return &SessionView{Result: result}, nil
}
