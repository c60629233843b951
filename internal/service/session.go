package service

import (
	"math"
	"sort"
	"sync"
	"time"

	"hectoclash/internal/model"
)

// Completion reasons carried by game_over.
const (
	ReasonCompleted    = "completed"
	ReasonTimeUp       = "time_up"
	ReasonOpponentLeft = "opponent_left"
)

type participant struct {
	ref      model.PlayerRef
	ready    bool
	score    int
	progress int
	answers  []model.AnswerRecord
	correct  map[int]bool
	left     bool
}

func (p *participant) view() model.PlayerProgress {
	return model.PlayerProgress{
		ID:       p.ref.ID,
		Username: p.ref.Username,
		Score:    p.score,
		Progress: p.progress,
		Ready:    p.ready,
	}
}

func (p *participant) totalTimeMs() int64 {
	var total int64
	for _, a := range p.answers {
		total += a.TimeSpentMs
	}
	return total
}

// session is one entry of the live session table. mu guards every field
// below it; id, gameType, difficulty and questions never change.
type session struct {
	id         string
	gameType   model.GameType
	difficulty model.Difficulty
	questions  []model.Question

	mu         sync.Mutex
	players    []*participant
	spectators map[string]model.PlayerRef
	status     model.SessionStatus
	closed     bool
	createdAt  time.Time
	startedAt  time.Time
	endedAt    time.Time
	timer      *time.Timer
	timerGen   int
	result     *model.SessionResult
}

func newSession(id string, gameType model.GameType, d model.Difficulty, questions []model.Question, players []model.PlayerRef, now time.Time) *session {
	s := &session{
		id:         id,
		gameType:   gameType,
		difficulty: d,
		questions:  questions,
		spectators: make(map[string]model.PlayerRef),
		status:     model.SessionWaiting,
		createdAt:  now,
	}
	for _, ref := range players {
		s.players = append(s.players, &participant{ref: ref, correct: make(map[int]bool)})
	}
	return s
}

func (s *session) participant(playerID string) *participant {
	for _, p := range s.players {
		if p.ref.ID == playerID {
			return p
		}
	}
	return nil
}

func (s *session) remove(playerID string) {
	for i, p := range s.players {
		if p.ref.ID == playerID {
			s.players = append(s.players[:i], s.players[i+1:]...)
			return
		}
	}
}

func (s *session) progressViews() []model.PlayerProgress {
	out := make([]model.PlayerProgress, len(s.players))
	for i, p := range s.players {
		out[i] = p.view()
	}
	return out
}

func (s *session) allReady() bool {
	if len(s.players) < 2 {
		return false
	}
	for _, p := range s.players {
		if !p.ready {
			return false
		}
	}
	return true
}

func (s *session) allDone() bool {
	for _, p := range s.players {
		if !p.left && p.progress < len(s.questions) {
			return false
		}
	}
	return true
}

func (s *session) timeRemaining(now time.Time, limit time.Duration) int {
	if s.status != model.SessionInProgress {
		return 0
	}
	left := limit - now.Sub(s.startedAt)
	if left < 0 {
		return 0
	}
	return int(math.Ceil(left.Seconds()))
}

func (s *session) snapshot(now time.Time, limit time.Duration) model.SessionSnapshot {
	snap := model.SessionSnapshot{
		ID:             s.id,
		GameType:       s.gameType,
		Difficulty:     s.difficulty,
		Status:         s.status,
		Players:        s.progressViews(),
		TotalQuestions: len(s.questions),
		SpectatorCount: len(s.spectators),
		TimeRemaining:  s.timeRemaining(now, limit),
	}
	if !s.startedAt.IsZero() {
		t := s.startedAt
		snap.StartedAt = &t
	}
	if !s.endedAt.IsZero() {
		t := s.endedAt
		snap.EndedAt = &t
	}
	return snap
}

// results ranks participants by score. Ties keep join order. When
// leaverID is set every other participant wins and the leaver ranks last.
func (s *session) results(reason, leaverID string) []model.PlayerResult {
	out := make([]model.PlayerResult, len(s.players))
	for i, p := range s.players {
		correct := 0
		for _, a := range p.answers {
			if a.IsCorrect {
				correct++
			}
		}
		avg := 0.0
		if len(p.answers) > 0 {
			avg = math.Round(float64(p.totalTimeMs())/float64(len(p.answers))/10) / 100
		}
		out[i] = model.PlayerResult{
			ID:                 p.ref.ID,
			Username:           p.ref.Username,
			Score:              p.score,
			CorrectAnswers:     correct,
			TotalQuestions:     len(s.questions),
			AvgTimePerQuestion: avg,
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if leaverID != "" && (out[i].ID == leaverID) != (out[j].ID == leaverID) {
			return out[j].ID == leaverID
		}
		return out[i].Score > out[j].Score
	})

	if reason == ReasonOpponentLeft {
		for i := range out {
			out[i].Winner = out[i].ID != leaverID
		}
	} else if len(out) > 0 {
		out[0].Winner = true
	}
	return out
}
