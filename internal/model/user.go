package model

import "time"

// UserStats is the persisted per-user game record.
type UserStats struct {
	ID          string    `json:"id" bson:"_id"`
	Username    string    `json:"username,omitempty" bson:"username,omitempty"`
	GamesPlayed int       `json:"gamesPlayed" bson:"gamesPlayed"`
	GamesWon    int       `json:"gamesWon" bson:"gamesWon"`
	Rating      int       `json:"rating" bson:"rating"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// GameRecord is one user's stored result for one session.
type GameRecord struct {
	ID          string         `json:"id" bson:"_id,omitempty"`
	UserID      string         `json:"userId" bson:"userId"`
	SessionID   string         `json:"sessionId" bson:"sessionId"`
	Answers     []AnswerRecord `json:"answers" bson:"answers"`
	TotalScore  int            `json:"totalScore" bson:"totalScore"`
	TotalTimeMs int64          `json:"totalTimeMs" bson:"totalTimeMs"`
	CreatedAt   time.Time      `json:"createdAt" bson:"createdAt"`
}
