package service

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"hectoclash/internal/model"
)

// --- Notifier ---

type delivery struct {
	event      string
	group      string
	payload    interface{}
	recipients []string
}

type recordingNotifier struct {
	mu         sync.Mutex
	deliveries []delivery
	groups     map[string]map[string]bool
	closed     []string
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{groups: make(map[string]map[string]bool)}
}

func (n *recordingNotifier) SendTo(connID, event string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deliveries = append(n.deliveries, delivery{event: event, payload: payload, recipients: []string{connID}})
}

func (n *recordingNotifier) BroadcastTo(group, event string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	var recipients []string
	for connID := range n.groups[group] {
		recipients = append(recipients, connID)
	}
	n.deliveries = append(n.deliveries, delivery{event: event, group: group, payload: payload, recipients: recipients})
}

func (n *recordingNotifier) Join(group, connID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.groups[group] == nil {
		n.groups[group] = make(map[string]bool)
	}
	n.groups[group][connID] = true
}

func (n *recordingNotifier) Leave(group, connID string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.groups[group], connID)
}

func (n *recordingNotifier) CloseGroup(group string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	delete(n.groups, group)
	n.closed = append(n.closed, group)
}

// received returns the payloads of event delivered to connID, in order.
func (n *recordingNotifier) received(connID, event string) []interface{} {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []interface{}
	for _, d := range n.deliveries {
		if d.event != event {
			continue
		}
		for _, r := range d.recipients {
			if r == connID {
				out = append(out, d.payload)
				break
			}
		}
	}
	return out
}

func (n *recordingNotifier) count(event string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, d := range n.deliveries {
		if d.event == event {
			c++
		}
	}
	return c
}

func (n *recordingNotifier) events(connID string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, d := range n.deliveries {
		for _, r := range d.recipients {
			if r == connID {
				out = append(out, d.event)
				break
			}
		}
	}
	return out
}

func (n *recordingNotifier) isClosed(group string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, g := range n.closed {
		if g == group {
			return true
		}
	}
	return false
}

// --- QuestionSource ---

const sampleAnswer = "1+(2+3+4)*(5+6)"

type fixedQuestions struct {
	mu    sync.Mutex
	err   error
	empty bool
	calls int
}

func (f *fixedQuestions) NewQuestionSet(ctx context.Context, gameType model.GameType, d model.Difficulty) ([]model.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.empty {
		return []model.Question{}, nil
	}
	digits := []int{1, 2, 3, 4, 5, 6}
	return []model.Question{
		{ID: "q1", Prompt: "Make 100", Digits: digits, Target: 100, Solution: sampleAnswer},
		{ID: "q2", Prompt: "Make 100", Digits: digits, Target: 100, Solution: sampleAnswer},
	}, nil
}

// --- OutcomeSink ---

type outcomeRecorder struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (o *outcomeRecorder) Submit(out Outcome) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, out)
}

func (o *outcomeRecorder) all() []Outcome {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Outcome(nil), o.outcomes...)
}

// --- ResultCache ---

type memoryResults struct {
	mu      sync.Mutex
	results map[string]*model.SessionResult
}

func newMemoryResults() *memoryResults {
	return &memoryResults{results: make(map[string]*model.SessionResult)}
}

func (m *memoryResults) Set(ctx context.Context, result *model.SessionResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results[result.SessionID] = result
	return nil
}

func (m *memoryResults) Get(ctx context.Context, sessionID string) (*model.SessionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.results[sessionID], nil
}

// --- UserRepo ---

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) IncrementGamesPlayed(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockUserRepo) IncrementGamesWon(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockUserRepo) AdjustRating(ctx context.Context, userID string, delta int) error {
	return m.Called(ctx, userID, delta).Error(0)
}

func (m *MockUserRepo) SetUsername(ctx context.Context, userID, username string) error {
	return m.Called(ctx, userID, username).Error(0)
}

func (m *MockUserRepo) GetByID(ctx context.Context, userID string) (*model.UserStats, error) {
	args := m.Called(ctx, userID)
	stats, _ := args.Get(0).(*model.UserStats)
	return stats, args.Error(1)
}

func (m *MockUserRepo) TopByRating(ctx context.Context, limit int64) ([]model.UserStats, error) {
	args := m.Called(ctx, limit)
	users, _ := args.Get(0).([]model.UserStats)
	return users, args.Error(1)
}

// --- ResultRepo ---

type MockResultRepo struct {
	mock.Mock
}

func (m *MockResultRepo) Create(ctx context.Context, record *model.GameRecord) error {
	return m.Called(ctx, record).Error(0)
}

func (m *MockResultRepo) ListByUser(ctx context.Context, userID string, limit int64) ([]model.GameRecord, error) {
	args := m.Called(ctx, userID, limit)
	records, _ := args.Get(0).([]model.GameRecord)
	return records, args.Error(1)
}
