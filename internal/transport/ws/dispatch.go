package ws

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"hectoclash/internal/model"
	"hectoclash/internal/service"
)

// Inbound event names.
const (
	EventAnnounce          = "announce"
	EventGetOnlinePlayers  = "get_online_players"
	EventSetStatus         = "set_status"
	EventJoinQueue         = "join_queue"
	EventLeaveQueue        = "leave_queue"
	EventPlayerReady       = "player_ready"
	EventSubmitAnswer      = "submit_answer"
	EventLeaveGame         = "leave_game"
	EventSpectateGame      = "spectate_game"
	EventLeaveSpectating   = "leave_spectating"
	EventInvitePlayer      = "invite_player"
	EventRespondInvitation = "respond_invitation"
	EventCancelInvitation  = "cancel_invitation"
)

// Error events.
const (
	EventError           = "error"
	EventSpectateError   = "spectate_error"
	EventInvitationError = "invitationError"
)

var (
	errMalformed    = errors.New("malformed message")
	errRateLimited  = errors.New("too many messages")
	errUnknownEvent = errors.New("unknown event")
)

type announcePayload struct {
	Difficulty string `json:"difficulty"`
}

type statusPayload struct {
	Status string `json:"status"`
}

type queuePayload struct {
	GameType   string `json:"gameType"`
	Difficulty string `json:"difficulty"`
}

type gamePayload struct {
	GameID string `json:"gameId"`
}

type answerPayload struct {
	GameID        string `json:"gameId"`
	QuestionIndex int    `json:"questionIndex"`
	Answer        string `json:"answer"`
	TimeSpent     int64  `json:"timeSpent"`
}

type invitePayload struct {
	ToPlayerID string `json:"toPlayerId"`
	Difficulty string `json:"difficulty"`
}

type respondPayload struct {
	InvitationID string `json:"invitationId"`
	Accept       bool   `json:"accept"`
}

type invitationPayload struct {
	InvitationID string `json:"invitationId"`
}

func decode(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errMalformed
	}
	return nil
}

func (h *Handler) dispatch(ctx context.Context, conn *Connection, msg Message) error {
	ref := conn.Ref()

	switch msg.Type {
	case EventAnnounce:
		var p announcePayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		_, err := h.svc.Presence.Announce(ref, p.Difficulty)
		return err

	case EventGetOnlinePlayers:
		h.hub.SendTo(conn.ID, service.EventOnlinePlayers, map[string]interface{}{
			"players": h.svc.Presence.OnlinePlayers(conn.UserID),
		})
		return nil

	case EventSetStatus:
		var p statusPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		return h.svc.Presence.SetStatus(conn.UserID, p.Status)

	case EventJoinQueue:
		var p queuePayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		if p.GameType == "" {
			p.GameType = string(model.GameTypeHectoc)
		}
		return h.svc.Matches.JoinQueue(ctx, ref, p.GameType, p.Difficulty)

	case EventLeaveQueue:
		return h.svc.Matches.LeaveQueue(conn.UserID)

	case EventPlayerReady:
		var p gamePayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		return h.svc.Matches.MarkReady(p.GameID, conn.UserID)

	case EventSubmitAnswer:
		var p answerPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		_, err := h.svc.Matches.SubmitAnswer(p.GameID, conn.UserID, p.QuestionIndex, p.Answer, p.TimeSpent)
		return err

	case EventLeaveGame:
		var p gamePayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		return h.svc.Matches.Leave(p.GameID, conn.UserID)

	case EventSpectateGame:
		var p gamePayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		return h.svc.Matches.Spectate(p.GameID, ref)

	case EventLeaveSpectating:
		var p gamePayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		return h.svc.Matches.LeaveSpectating(p.GameID, conn.ID)

	case EventInvitePlayer:
		var p invitePayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		_, err := h.svc.Invitations.Invite(ref, p.ToPlayerID, p.Difficulty)
		return err

	case EventRespondInvitation:
		var p respondPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		_, err := h.svc.Invitations.Respond(ctx, p.InvitationID, ref, p.Accept)
		return err

	case EventCancelInvitation:
		var p invitationPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		return h.svc.Invitations.Cancel(p.InvitationID, conn.UserID)
	}

	return errUnknownEvent
}

// replyError reports a failed inbound event. Spectating and invitation
// failures use their own event names.
func (h *Handler) replyError(conn *Connection, event string, err error) {
	name := EventError
	switch event {
	case EventSpectateGame, EventLeaveSpectating:
		name = EventSpectateError
	case EventInvitePlayer, EventRespondInvitation, EventCancelInvitation:
		name = EventInvitationError
	}

	code, message := classify(err)
	if code == "internal" {
		log.Error().Err(err).Str("conn", conn.ID).Str("event", event).Msg("event failed")
	}
	h.hub.SendTo(conn.ID, name, map[string]string{
		"event":   event,
		"code":    code,
		"message": message,
	})
}

func classify(err error) (code, message string) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return "not_found", err.Error()
	case errors.Is(err, service.ErrInvalid):
		return "invalid", err.Error()
	case errors.Is(err, service.ErrConflict):
		return "conflict", err.Error()
	case errors.Is(err, errRateLimited):
		return "rate_limited", err.Error()
	case errors.Is(err, errMalformed), errors.Is(err, errUnknownEvent):
		return "invalid", err.Error()
	}
	return "internal", "internal error"
}
