package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"hectoclash/internal/metrics"
	"hectoclash/internal/model"
)

const (
	reasonDisconnected = "Player disconnected"
	reasonInGame       = "Player joined another game"
)

type pendingInvitation struct {
	inv   model.Invitation
	timer *time.Timer
}

// InvitationService brokers direct challenges between online players.
// Every pending invitation expires after ttl.
type InvitationService struct {
	mu          sync.Mutex
	invitations map[string]*pendingInvitation
	// accepting holds players whose accepted invitation is still becoming
	// a session.
	accepting   map[string]bool

	presence *PresenceService
	matches  *MatchService
	notifier Notifier
	metrics  *metrics.Recorder
	ttl      time.Duration

	now   func() time.Time
	newID func() string
}

func NewInvitationService(presence *PresenceService, matches *MatchService, notifier Notifier, rec *metrics.Recorder, ttl time.Duration) *InvitationService {
	if ttl == 0 {
		ttl = 30 * time.Second
	}
	return &InvitationService{
		invitations: make(map[string]*pendingInvitation),
		accepting:   make(map[string]bool),
		presence:    presence,
		matches:     matches,
		notifier:    notifier,
		metrics:     rec,
		ttl:         ttl,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// Invite challenges toID on behalf of from. Both players must be online and
// available, and at most one invitation may be open between them.
func (s *InvitationService) Invite(from model.PlayerRef, toID, difficulty string) (model.Invitation, error) {
	d, ok := model.ParseDifficulty(difficulty)
	if !ok {
		return model.Invitation{}, ErrInvalidDifficulty
	}
	if toID == from.ID {
		return model.Invitation{}, ErrSelfInvite
	}
	sender, ok := s.presence.Get(from.ID)
	if !ok {
		return model.Invitation{}, ErrNotAnnounced
	}
	if sender.Status != model.PlayerAvailable {
		return model.Invitation{}, ErrSenderUnavailable
	}
	if _, busy := s.matches.SessionOf(from.ID); busy {
		return model.Invitation{}, ErrSenderUnavailable
	}
	target, ok := s.presence.Get(toID)
	if !ok {
		return model.Invitation{}, ErrInviteeGone
	}
	if target.Status != model.PlayerAvailable {
		return model.Invitation{}, ErrInviteeUnavailable
	}
	if _, busy := s.matches.SessionOf(toID); busy {
		return model.Invitation{}, ErrInviteeUnavailable
	}

	now := s.now()
	inv := model.Invitation{
		ID:         s.newID(),
		From:       from,
		To:         target.Ref(),
		Difficulty: d,
		CreatedAt:  now,
		ExpiresAt:  now.Add(s.ttl),
	}
	pending := &pendingInvitation{inv: inv}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accepting[from.ID] {
		return model.Invitation{}, ErrSenderUnavailable
	}
	if s.accepting[toID] {
		return model.Invitation{}, ErrInviteeUnavailable
	}
	for _, p := range s.invitations {
		if samePair(p.inv, from.ID, toID) {
			return model.Invitation{}, ErrInvitationPending
		}
	}

	s.invitations[inv.ID] = pending
	pending.timer = time.AfterFunc(s.ttl, func() {
		s.expire(pending)
	})

	s.notifier.SendTo(inv.To.ConnID, EventGameInvitation, map[string]interface{}{
		"invitationId": inv.ID,
		"from":         inv.From,
		"difficulty":   inv.Difficulty,
		"expiresAt":    inv.ExpiresAt,
	})
	s.notifier.SendTo(inv.From.ConnID, EventInvitationSent, map[string]interface{}{
		"invitationId": inv.ID,
		"to":           inv.To,
		"difficulty":   inv.Difficulty,
		"expiresAt":    inv.ExpiresAt,
	})
	s.metrics.RecordInvitation("sent")
	log.Info().Str("invitation", inv.ID).Str("player", from.ID).Str("target", toID).Msg("invitation sent")
	return inv, nil
}

func (s *InvitationService) expire(pending *pendingInvitation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.invitations[pending.inv.ID] != pending {
		return
	}
	delete(s.invitations, pending.inv.ID)

	inv := pending.inv
	s.notifier.SendTo(inv.From.ConnID, EventInvitationExpired, map[string]interface{}{
		"invitationId": inv.ID,
		"to":           inv.To,
	})
	s.notifier.SendTo(inv.To.ConnID, EventInvitationExpired, map[string]interface{}{
		"invitationId": inv.ID,
		"from":         inv.From,
	})
	s.metrics.RecordInvitation("expired")
}

// take removes a pending invitation and stops its timer.
func (s *InvitationService) take(id string, owns func(model.Invitation) error) (model.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, ok := s.invitations[id]
	if !ok {
		return model.Invitation{}, ErrInvitationNotFound
	}
	if err := owns(pending.inv); err != nil {
		return model.Invitation{}, err
	}
	delete(s.invitations, id)
	pending.timer.Stop()
	return pending.inv, nil
}

// Respond answers an invitation addressed to responder. Accepting starts a
// session and returns its id; every other invitation involving either
// player is withdrawn first.
func (s *InvitationService) Respond(ctx context.Context, id string, responder model.PlayerRef, accept bool) (string, error) {
	if !accept {
		inv, err := s.take(id, func(inv model.Invitation) error {
			if inv.To.ID != responder.ID {
				return ErrNotInvitee
			}
			return nil
		})
		if err != nil {
			return "", err
		}
		s.notifier.SendTo(inv.From.ConnID, EventInvitationDeclined, map[string]interface{}{
			"invitationId": inv.ID,
			"by":           responder,
		})
		s.metrics.RecordInvitation("declined")
		return "", nil
	}

	inv, err := s.takeForAccept(id, responder.ID)
	if err != nil {
		return "", err
	}
	defer s.doneAccepting(inv)

	sender, ok := s.presence.Get(inv.From.ID)
	if !ok {
		return "", ErrInviteeGone
	}
	sessionID, err := s.matches.CreateInvitedSession(ctx, sender.Ref(), responder, inv.Difficulty)
	if err != nil {
		s.notifier.SendTo(inv.From.ConnID, EventInvitationCancelled, map[string]interface{}{
			"invitationId": inv.ID,
			"reason":       err.Error(),
		})
		s.metrics.RecordInvitation("cancelled")
		return "", err
	}
	s.metrics.RecordInvitation("accepted")
	log.Info().Str("invitation", inv.ID).Str("session", sessionID).Msg("invitation accepted")
	return sessionID, nil
}

// takeForAccept removes the accepted invitation together with every other
// invitation involving either player, and marks both players as accepting
// until the session exists.
func (s *InvitationService) takeForAccept(id, responderID string) (model.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending, ok := s.invitations[id]
	if !ok {
		return model.Invitation{}, ErrInvitationNotFound
	}
	inv := pending.inv
	if inv.To.ID != responderID {
		return model.Invitation{}, ErrNotInvitee
	}
	delete(s.invitations, id)
	pending.timer.Stop()

	for otherID, other := range s.invitations {
		o := other.inv
		if !involves(o, inv.From.ID) && !involves(o, inv.To.ID) {
			continue
		}
		delete(s.invitations, otherID)
		other.timer.Stop()
		for _, party := range []model.PlayerRef{o.From, o.To} {
			s.notifier.SendTo(party.ConnID, EventInvitationCancelled, map[string]interface{}{
				"invitationId": o.ID,
				"reason":       reasonInGame,
			})
		}
		s.metrics.RecordInvitation("cancelled")
	}

	s.accepting[inv.From.ID] = true
	s.accepting[inv.To.ID] = true
	return inv, nil
}

func (s *InvitationService) doneAccepting(inv model.Invitation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.accepting, inv.From.ID)
	delete(s.accepting, inv.To.ID)
}

func involves(inv model.Invitation, playerID string) bool {
	return inv.From.ID == playerID || inv.To.ID == playerID
}

func samePair(inv model.Invitation, a, b string) bool {
	return (inv.From.ID == a && inv.To.ID == b) || (inv.From.ID == b && inv.To.ID == a)
}

// Cancel withdraws an invitation; only its sender may do so.
func (s *InvitationService) Cancel(id, fromID string) error {
	inv, err := s.take(id, func(inv model.Invitation) error {
		if inv.From.ID != fromID {
			return ErrNotInviter
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.notifier.SendTo(inv.To.ConnID, EventInvitationCancelled, map[string]interface{}{
		"invitationId": inv.ID,
		"from":         inv.From,
		"reason":       "Invitation cancelled",
	})
	s.metrics.RecordInvitation("cancelled")
	return nil
}

// CancelFor cancels every invitation playerID is party to on connID and
// tells the other side.
func (s *InvitationService) CancelFor(playerID, connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, pending := range s.invitations {
		inv := pending.inv
		var other model.PlayerRef
		switch {
		case inv.From.ID == playerID && inv.From.ConnID == connID:
			other = inv.To
		case inv.To.ID == playerID && inv.To.ConnID == connID:
			other = inv.From
		default:
			continue
		}
		delete(s.invitations, id)
		pending.timer.Stop()
		s.notifier.SendTo(other.ConnID, EventInvitationCancelled, map[string]interface{}{
			"invitationId": inv.ID,
			"reason":       reasonDisconnected,
		})
		s.metrics.RecordInvitation("cancelled")
	}
}

// Pending reports how many invitations are waiting for an answer.
func (s *InvitationService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.invitations)
}
