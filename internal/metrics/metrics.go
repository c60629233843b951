package metrics

import (
	"strconv"
	"sync"
	"time"
)

// Recorder counts game events in memory and forwards them to the
// OpenTelemetry instruments when telemetry is enabled. A nil *Recorder
// is valid and records nothing.
type Recorder struct {
	mu     sync.Mutex
	counts map[string]int
	otel   *otelInstruments
}

func NewRecorder() *Recorder {
	return newRecorder(nil)
}

func newRecorder(otel *otelInstruments) *Recorder {
	return &Recorder{
		counts: make(map[string]int),
		otel:   otel,
	}
}

// Count returns the in-memory total for name, optionally narrowed to one
// label value (e.g. Count(SessionsCompleted, "opponent_left")).
func (r *Recorder) Count(name string, label ...string) int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(label) > 0 {
		return r.counts[name+":"+label[0]]
	}
	return r.counts[name]
}

func (r *Recorder) add(name, label string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[name] += n
	r.counts[name+":"+label] += n
}

func (r *Recorder) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if r == nil {
		return
	}
	r.add(HTTPRequests, strconv.Itoa(status), 1)
	r.otel.recordHTTPRequest(method, path, status, duration)
}

func (r *Recorder) RecordPuzzlesGenerated(difficulty string, n int, duration time.Duration) {
	if r == nil {
		return
	}
	r.add(PuzzlesGenerated, difficulty, n)
	r.otel.recordGeneration(difficulty, n, duration)
}

func (r *Recorder) RecordVerification(valid bool) {
	if r == nil {
		return
	}
	r.add(Verifications, strconv.FormatBool(valid), 1)
	r.otel.recordVerification(valid)
}

func (r *Recorder) RecordSessionStarted(gameType, difficulty string) {
	if r == nil {
		return
	}
	r.add(SessionsStarted, gameType, 1)
	r.otel.recordSessionStarted(gameType, difficulty)
}

func (r *Recorder) RecordSessionCompleted(reason string, duration time.Duration) {
	if r == nil {
		return
	}
	r.add(SessionsCompleted, reason, 1)
	r.otel.recordSessionCompleted(reason, duration)
}

func (r *Recorder) RecordInvitation(outcome string) {
	if r == nil {
		return
	}
	r.add(Invitations, outcome, 1)
	r.otel.recordInvitation(outcome)
}

func (r *Recorder) RecordPersistenceFailure(operation string) {
	if r == nil {
		return
	}
	r.add(PersistenceFailure, operation, 1)
	r.otel.recordPersistenceFailure(operation)
}
