package model

import "time"

type SessionStatus string

const (
	SessionWaiting    SessionStatus = "waiting"
	SessionInProgress SessionStatus = "in_progress"
	SessionCompleted  SessionStatus = "completed"
)

// PlayerRef identifies a connected user. ConnID addresses the transport
// connection that events for this user are delivered to.
type PlayerRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	ConnID   string `json:"-"`
}

// AnswerRecord is one submitted answer as kept for aggregation.
type AnswerRecord struct {
	QuestionIndex int    `json:"questionIndex" bson:"questionIndex"`
	QuestionID    string `json:"questionId" bson:"questionId"`
	Expression    string `json:"answer" bson:"answer"`
	IsCorrect     bool   `json:"isCorrect" bson:"isCorrect"`
	TimeSpentMs   int64  `json:"timeSpent" bson:"timeSpentMs"`
}

// PlayerProgress is the aggregate view of a participant broadcast to the
// session group and to spectators.
type PlayerProgress struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Score    int    `json:"score"`
	Progress int    `json:"progress"`
	Ready    bool   `json:"ready"`
}

// PlayerResult is a participant's final aggregate.
type PlayerResult struct {
	ID                 string  `json:"id" bson:"userId"`
	Username           string  `json:"username" bson:"username"`
	Score              int     `json:"score" bson:"score"`
	CorrectAnswers     int     `json:"correctAnswers" bson:"correctAnswers"`
	TotalQuestions     int     `json:"totalQuestions" bson:"totalQuestions"`
	AvgTimePerQuestion float64 `json:"avgTimePerQuestion" bson:"avgTimePerQuestion"`
	Winner             bool    `json:"winner" bson:"winner"`
}

// SessionResult is the final outcome of a session.
type SessionResult struct {
	SessionID  string         `json:"gameId" bson:"sessionId"`
	GameType   GameType       `json:"gameType" bson:"gameType"`
	Difficulty Difficulty     `json:"difficulty" bson:"difficulty"`
	Reason     string         `json:"reason,omitempty" bson:"reason,omitempty"`
	Results    []PlayerResult `json:"results" bson:"results"`
	Winner     *PlayerResult  `json:"winner,omitempty" bson:"winner,omitempty"`
	EndedAt    time.Time      `json:"endedAt" bson:"endedAt"`
}

// SessionSnapshot is the read view of a live session.
type SessionSnapshot struct {
	ID             string           `json:"gameId"`
	GameType       GameType         `json:"gameType"`
	Difficulty     Difficulty       `json:"difficulty"`
	Status         SessionStatus    `json:"status"`
	Players        []PlayerProgress `json:"players"`
	TotalQuestions int              `json:"totalQuestions"`
	SpectatorCount int              `json:"spectatorCount"`
	TimeRemaining  int              `json:"timeRemaining"`
	StartedAt      *time.Time       `json:"startedAt,omitempty"`
	EndedAt        *time.Time       `json:"endedAt,omitempty"`
}
