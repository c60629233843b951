package model

import "time"

type PlayerStatus string

const (
	PlayerAvailable PlayerStatus = "available"
	PlayerPlaying   PlayerStatus = "playing"
	PlayerAway      PlayerStatus = "away"
)

func ParsePlayerStatus(s string) (PlayerStatus, bool) {
	switch st := PlayerStatus(s); st {
	case PlayerAvailable, PlayerPlaying, PlayerAway:
		return st, true
	}
	return "", false
}

// OnlinePlayer is a registry entry for a connected user.
type OnlinePlayer struct {
	ID         string       `json:"id"`
	Username   string       `json:"username"`
	Difficulty Difficulty   `json:"difficulty"`
	Status     PlayerStatus `json:"status"`
	ConnID     string       `json:"-"`
	LastSeenAt time.Time    `json:"lastSeenAt"`
}

func (p *OnlinePlayer) Ref() PlayerRef {
	return PlayerRef{ID: p.ID, Username: p.Username, ConnID: p.ConnID}
}
