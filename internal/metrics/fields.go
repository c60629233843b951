package metrics

// Attribute keys shared by all instruments.
const (
	AttrMethod     = "method"
	AttrPath       = "path"
	AttrStatus     = "status"
	AttrDifficulty = "difficulty"
	AttrGameType   = "game_type"
	AttrReason     = "reason"
	AttrOutcome    = "outcome"
	AttrValid      = "valid"
	AttrOperation  = "operation"
)

// Counter names used by the in-memory recorder.
const (
	HTTPRequests       = "http_requests"
	PuzzlesGenerated   = "puzzles_generated"
	Verifications      = "verifications"
	SessionsStarted    = "sessions_started"
	SessionsCompleted  = "sessions_completed"
	Invitations        = "invitations"
	PersistenceFailure = "persistence_failures"
)
