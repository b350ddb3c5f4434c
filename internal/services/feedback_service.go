package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/isdelr/resume-bot-be/internal/common"
	"github.com/isdelr/resume-bot-be/internal/models"
)

// FeedbackServiceProvider defines the interface for the feedback history store.
type FeedbackServiceProvider interface {
	Append(ctx context.Context, record models.FeedbackRecord) (models.FeedbackRecord, error)
	ListByUser(ctx context.Context, userID int64) ([]models.FeedbackRecord, error)
	DeleteAllForUser(ctx context.Context, userID int64) (int64, error)
	StatsForUser(ctx context.Context, userID int64) (models.UserStats, error)
	CountAll(ctx context.Context) (int, error)
	AverageScore(ctx context.Context) (float64, error)
}

// FeedbackService persists one immutable row per analysis.
type FeedbackService struct {
	db  *sql.DB
	now func() time.Time
}

// NewFeedbackService creates a new FeedbackService.
func NewFeedbackService(db *sql.DB) *FeedbackService {
	return &FeedbackService{db: db, now: time.Now}
}

// Append stores a new record. CreatedAt is assigned here when unset.
func (s *FeedbackService) Append(ctx context.Context, record models.FeedbackRecord) (models.FeedbackRecord, error) {
	if record.Score < 0 || record.Score > 100 {
		return models.FeedbackRecord{}, fmt.Errorf("%w: score %d out of range", common.ErrValidation, record.Score)
	}
	if strings.TrimSpace(record.Filename) == "" || strings.TrimSpace(record.TargetRole) == "" {
		return models.FeedbackRecord{}, fmt.Errorf("%w: filename and target role are required", common.ErrValidation)
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = s.now()
	}
	record.CreatedAt = record.CreatedAt.UTC()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO feedback_history (user_id, filename, target_role, feedback, score, rewritten_resume, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.UserID, record.Filename, record.TargetRole, record.Feedback, record.Score,
		nullIfEmpty(record.RewrittenResume), record.CreatedAt)
	if err != nil {
		return models.FeedbackRecord{}, fmt.Errorf("failed to append feedback: %w", err)
	}
	record.ID, err = res.LastInsertId()
	if err != nil {
		return models.FeedbackRecord{}, fmt.Errorf("failed to read feedback id: %w", err)
	}
	return record, nil
}

// ListByUser returns the user's records, most recent first.
func (s *FeedbackService) ListByUser(ctx context.Context, userID int64) ([]models.FeedbackRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, filename, target_role, feedback, score, rewritten_resume, created_at
		FROM feedback_history WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list feedback: %w", err)
	}
	defer rows.Close()

	records := []models.FeedbackRecord{}
	for rows.Next() {
		var rec models.FeedbackRecord
		var rewritten sql.NullString
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Filename, &rec.TargetRole, &rec.Feedback,
			&rec.Score, &rewritten, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback row: %w", err)
		}
		rec.RewrittenResume = rewritten.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feedback rows: %w", err)
	}
	return records, nil
}

// DeleteAllForUser removes every record owned by userID and returns the count.
func (s *FeedbackService) DeleteAllForUser(ctx context.Context, userID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM feedback_history WHERE user_id = ?", userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete feedback history: %w", err)
	}
	return res.RowsAffected()
}

// StatsForUser aggregates the analytics tab figures from the user's history.
func (s *FeedbackService) StatsForUser(ctx context.Context, userID int64) (models.UserStats, error) {
	records, err := s.ListByUser(ctx, userID)
	if err != nil {
		return models.UserStats{}, err
	}

	stats := models.UserStats{
		Trend: []models.ScorePoint{},
		Roles: map[string]int{},
	}
	if len(records) == 0 {
		return stats, nil
	}

	total := 0
	stats.LatestScore = records[0].Score
	// records are newest first, the trend reads oldest first
	for i := len(records) - 1; i >= 0; i-- {
		rec := records[i]
		total += rec.Score
		if rec.Score > stats.BestScore {
			stats.BestScore = rec.Score
		}
		stats.Roles[rec.TargetRole]++
		stats.Trend = append(stats.Trend, models.ScorePoint{Date: rec.CreatedAt, Score: rec.Score})
	}
	stats.TotalAnalyses = len(records)
	stats.AverageScore = float64(total) / float64(len(records))
	return stats, nil
}

// CountAll returns the number of stored analyses across all users.
func (s *FeedbackService) CountAll(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM feedback_history").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count feedback: %w", err)
	}
	return n, nil
}

// AverageScore returns the mean score across all users, 0 when empty.
func (s *FeedbackService) AverageScore(ctx context.Context) (float64, error) {
	var avg sql.NullFloat64
	if err := s.db.QueryRowContext(ctx, "SELECT AVG(score) FROM feedback_history").Scan(&avg); err != nil {
		return 0, fmt.Errorf("failed to average scores: %w", err)
	}
	return avg.Float64, nil
}
