package models

import "time"

// FeedbackRecord is one immutable analysis event stored in feedback_history.
type FeedbackRecord struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"userId"`
	Filename        string    `json:"filename"`
	TargetRole      string    `json:"targetRole"`
	Feedback        string    `json:"feedback"`
	Score           int       `json:"score"`
	RewrittenResume string    `json:"rewrittenResume,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// ScorePoint is one entry of a user's score trend.
type ScorePoint struct {
	Date  time.Time `json:"date"`
	Score int       `json:"score"`
}

// UserStats summarizes a user's feedback history for the analytics tab.
type UserStats struct {
	TotalAnalyses int            `json:"totalAnalyses"`
	AverageScore  float64        `json:"averageScore"`
	BestScore     int            `json:"bestScore"`
	LatestScore   int            `json:"latestScore"`
	Trend         []ScorePoint   `json:"trend"`
	Roles         map[string]int `json:"roles"`
}
