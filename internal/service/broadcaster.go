package service

// Notifier delivers events to connections and named groups of connections.
// Implementations must not block on network I/O; the ws Hub queues
// messages and drops them for a connection whose buffer is full.
type Notifier interface {
	SendTo(connID string, event string, payload interface{})
	BroadcastTo(group string, event string, payload interface{})
	Join(group, connID string)
	Leave(group, connID string)
	CloseGroup(group string)
}

// LobbyGroup receives presence updates.
const LobbyGroup = "lobby"

// SessionGroup names the broadcast group of a session's participants and
// spectators.
func SessionGroup(sessionID string) string {
	return "session:" + sessionID
}

// Outbound event names.
const (
	EventInQueue        = "in_queue"
	EventGameReady      = "game_ready"
	EventPlayerReady    = "player_ready"
	EventGameStart      = "game_start"
	EventAnswerResult   = "answer_result"
	EventGameProgress   = "game_progress"
	EventGameOver       = "game_over"
	EventPlayerLeft     = "player_left"
	EventSpectatorJoin  = "spectator_joined"
	EventSpectatorLeft  = "spectator_left"
	EventGameInProgress = "game_in_progress"

	EventOnlinePlayers       = "onlinePlayersList"
	EventGameInvitation      = "gameInvitation"
	EventInvitationSent      = "invitationSent"
	EventInvitationDeclined  = "invitationDeclined"
	EventInvitationExpired   = "invitationExpired"
	EventInvitationCancelled = "invitationCancelled"
	EventMatchFound          = "matchFound"
)
