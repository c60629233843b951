package service

import (
	"sort"
	"sync"
	"time"

	"hectoclash/internal/model"
)

// PresenceService is the registry of online players. Every change is
// pushed to the lobby group as the list of available players.
type PresenceService struct {
	mu       sync.Mutex
	players  map[string]*model.OnlinePlayer
	notifier Notifier
	now      func() time.Time
}

func NewPresenceService(notifier Notifier) *PresenceService {
	return &PresenceService{
		players:  make(map[string]*model.OnlinePlayer),
		notifier: notifier,
		now:      time.Now,
	}
}

// Announce registers ref on its connection. An empty difficulty means
// easy. A player announcing again from a new connection keeps a playing
// status.
func (s *PresenceService) Announce(ref model.PlayerRef, difficulty string) (model.OnlinePlayer, error) {
	d := model.DifficultyEasy
	if difficulty != "" {
		var ok bool
		if d, ok = model.ParseDifficulty(difficulty); !ok {
			return model.OnlinePlayer{}, ErrInvalidDifficulty
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	status := model.PlayerAvailable
	if prev, ok := s.players[ref.ID]; ok {
		if prev.Status == model.PlayerPlaying {
			status = model.PlayerPlaying
		}
		if prev.ConnID != ref.ConnID {
			s.notifier.Leave(LobbyGroup, prev.ConnID)
		}
	}

	p := &model.OnlinePlayer{
		ID:         ref.ID,
		Username:   ref.Username,
		Difficulty: d,
		Status:     status,
		ConnID:     ref.ConnID,
		LastSeenAt: s.now(),
	}
	s.players[ref.ID] = p
	s.notifier.Join(LobbyGroup, ref.ConnID)
	s.broadcastLocked()
	return *p, nil
}

// OnlinePlayers lists available players other than excludeID, by name.
func (s *PresenceService) OnlinePlayers(excludeID string) []model.OnlinePlayer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.availableLocked(excludeID)
}

func (s *PresenceService) SetStatus(playerID, status string) error {
	st, ok := model.ParsePlayerStatus(status)
	if !ok {
		return ErrInvalidStatus
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[playerID]
	if !ok {
		return ErrPlayerNotFound
	}
	p.Status = st
	p.LastSeenAt = s.now()
	s.broadcastLocked()
	return nil
}

// setStatuses updates every registered id and broadcasts once. Unknown ids
// are skipped.
func (s *PresenceService) setStatuses(ids []string, st model.PlayerStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for _, id := range ids {
		if p, ok := s.players[id]; ok && p.Status != st {
			p.Status = st
			p.LastSeenAt = s.now()
			changed = true
		}
	}
	if changed {
		s.broadcastLocked()
	}
}

func (s *PresenceService) Get(playerID string) (model.OnlinePlayer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[playerID]
	if !ok {
		return model.OnlinePlayer{}, false
	}
	return *p, true
}

// Remove drops playerID if it is still registered on connID. It reports
// whether an entry was removed.
func (s *PresenceService) Remove(playerID, connID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[playerID]
	if !ok || p.ConnID != connID {
		return false
	}
	delete(s.players, playerID)
	s.notifier.Leave(LobbyGroup, connID)
	s.broadcastLocked()
	return true
}

func (s *PresenceService) availableLocked(excludeID string) []model.OnlinePlayer {
	out := make([]model.OnlinePlayer, 0, len(s.players))
	for id, p := range s.players {
		if id == excludeID || p.Status != model.PlayerAvailable {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Username != out[j].Username {
			return out[i].Username < out[j].Username
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *PresenceService) broadcastLocked() {
	s.notifier.BroadcastTo(LobbyGroup, EventOnlinePlayers, map[string]interface{}{
		"players": s.availableLocked(""),
	})
}
