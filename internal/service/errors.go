package service

import "errors"

// Error classes. Every error returned by the services that is not an
// infrastructure failure wraps exactly one of these.
var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid request")
	ErrConflict = errors.New("conflict")
)

type serviceError struct {
	kind error
	msg  string
}

func (e *serviceError) Error() string { return e.msg }

func (e *serviceError) Unwrap() error { return e.kind }

func newError(kind error, msg string) error {
	return &serviceError{kind: kind, msg: msg}
}

var (
	ErrSessionNotFound    = newError(ErrNotFound, "game session not found")
	ErrPlayerNotFound     = newError(ErrNotFound, "player not found")
	ErrQuestionNotFound   = newError(ErrNotFound, "question not found")
	ErrPuzzleNotFound     = newError(ErrNotFound, "puzzle not found")
	ErrSolutionNotFound   = newError(ErrNotFound, "solution not found")
	ErrInvitationNotFound = newError(ErrNotFound, "Invitation no longer exists")
	ErrInviteeGone        = newError(ErrNotFound, "Player is no longer available")

	ErrInvalidDifficulty = newError(ErrInvalid, "unknown difficulty")
	ErrInvalidGameType   = newError(ErrInvalid, "unknown game type")
	ErrInvalidStatus     = newError(ErrInvalid, "unknown player status")
	ErrInvalidDigits     = newError(ErrInvalid, "digits must be single digits 0-9 of the configured count")
	ErrEmptySolution     = newError(ErrInvalid, "solution is required")
	ErrInvalidCount      = newError(ErrInvalid, "count must be between 1 and 10")
	ErrSelfInvite        = newError(ErrInvalid, "cannot invite yourself")
	ErrNotInvitee        = newError(ErrInvalid, "invitation was sent to another player")
	ErrAlreadySpectator  = newError(ErrInvalid, "participants cannot spectate their own game")
	ErrNoPuzzles         = newError(ErrInvalid, "no puzzles could be generated")
	ErrSolveTimeout      = newError(ErrInvalid, "no solution found within the time limit")

	ErrAlreadyQueued      = newError(ErrConflict, "already waiting in a queue")
	ErrPlayerBusy         = newError(ErrConflict, "player is already in a game")
	ErrInviteeUnavailable = newError(ErrConflict, "Player is currently unavailable")
	ErrSessionNotActive   = newError(ErrConflict, "game session is not accepting this action")
	ErrAlreadyAnswered    = newError(ErrConflict, "question already answered correctly")
	ErrNotAnnounced       = newError(ErrConflict, "announce presence before inviting")
	ErrSenderUnavailable  = newError(ErrConflict, "You are currently unavailable")
	ErrInvitationPending  = newError(ErrConflict, "An invitation between you is already pending")
)

var (
	ErrNotInviter    = newError(ErrInvalid, "only the sender can cancel an invitation")
	ErrNotSpectating = newError(ErrNotFound, "not spectating this game")
	ErrNotQueued     = newError(ErrNotFound, "not waiting in a queue")
)
