package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/isdelr/resume-bot-be/internal/common"
	"github.com/isdelr/resume-bot-be/internal/database/dbtest"
	"github.com/isdelr/resume-bot-be/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedUsers(t *testing.T, db *sql.DB, names ...string) []int64 {
	t.Helper()
	ids := make([]int64, 0, len(names))
	for _, n := range names {
		res, err := db.Exec(`INSERT INTO users (username, email, password_hash) VALUES (?, ?, 'x')`, n, n+"@x.com")
		require.NoError(t, err)
		id, err := res.LastInsertId()
		require.NoError(t, err)
		ids = append(ids, id)
	}
	return ids
}

func TestFeedback_UserIsolationScenario(t *testing.T) {
	db := dbtest.New(t)
	ids := seedUsers(t, db, "u1", "u2")
	s := NewFeedbackService(db)
	ctx := context.Background()

	_, err := s.Append(ctx, models.FeedbackRecord{UserID: ids[0], Filename: "a.pdf", TargetRole: "Dev", Feedback: "f", Score: 85})
	require.NoError(t, err)
	_, err = s.Append(ctx, models.FeedbackRecord{UserID: ids[1], Filename: "b.pdf", TargetRole: "PM", Feedback: "f", Score: 40})
	require.NoError(t, err)

	got, err := s.ListByUser(ctx, ids[0])
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 85, got[0].Score)
	assert.Equal(t, "a.pdf", got[0].Filename)
}

func TestFeedback_ListByUserNewestFirst(t *testing.T) {
	db := dbtest.New(t)
	ids := seedUsers(t, db, "u1")
	s := NewFeedbackService(db)
	ctx := context.Background()

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	offsets := []time.Duration{2 * time.Hour, 0, 90 * time.Minute, time.Minute}
	for i, off := range offsets {
		_, err := s.Append(ctx, models.FeedbackRecord{
			UserID: ids[0], Filename: "cv.pdf", TargetRole: "Dev", Feedback: "f",
			Score: 70 + i, CreatedAt: base.Add(off),
		})
		require.NoError(t, err)
	}

	got, err := s.ListByUser(ctx, ids[0])
	require.NoError(t, err)
	require.Len(t, got, len(offsets))
	for i := 1; i < len(got); i++ {
		assert.True(t, got[i-1].CreatedAt.After(got[i].CreatedAt),
			"record %d (%s) must be newer than record %d (%s)", i-1, got[i-1].CreatedAt, i, got[i].CreatedAt)
	}
	assert.Equal(t, 70, got[0].Score)
	assert.Equal(t, 71, got[3].Score)
}

func TestFeedback_ListByUserTieBreaksOnID(t *testing.T) {
	db := dbtest.New(t)
	ids := seedUsers(t, db, "u1")
	s := NewFeedbackService(db)
	s.now = func() time.Time { return time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	first, err := s.Append(ctx, models.FeedbackRecord{UserID: ids[0], Filename: "1.pdf", TargetRole: "Dev", Score: 70})
	require.NoError(t, err)
	second, err := s.Append(ctx, models.FeedbackRecord{UserID: ids[0], Filename: "2.pdf", TargetRole: "Dev", Score: 71})
	require.NoError(t, err)

	got, err := s.ListByUser(ctx, ids[0])
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, second.ID, got[0].ID)
	assert.Equal(t, first.ID, got[1].ID)
}

func TestFeedback_DeleteAllForUser(t *testing.T) {
	db := dbtest.New(t)
	ids := seedUsers(t, db, "u1", "u2")
	s := NewFeedbackService(db)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.Append(ctx, models.FeedbackRecord{UserID: ids[0], Filename: "a.pdf", TargetRole: "Dev", Score: 80})
		require.NoError(t, err)
	}
	_, err := s.Append(ctx, models.FeedbackRecord{UserID: ids[1], Filename: "b.pdf", TargetRole: "PM", Score: 60})
	require.NoError(t, err)

	n, err := s.DeleteAllForUser(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	mine, err := s.ListByUser(ctx, ids[0])
	require.NoError(t, err)
	assert.Empty(t, mine)

	theirs, err := s.ListByUser(ctx, ids[1])
	require.NoError(t, err)
	assert.Len(t, theirs, 1)

	n, err = s.DeleteAllForUser(ctx, ids[0])
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFeedback_AppendValidation(t *testing.T) {
	db := dbtest.New(t)
	ids := seedUsers(t, db, "u1")
	s := NewFeedbackService(db)
	ctx := context.Background()

	for _, score := range []int{-1, 101} {
		_, err := s.Append(ctx, models.FeedbackRecord{UserID: ids[0], Filename: "a.pdf", TargetRole: "Dev", Score: score})
		assert.ErrorIs(t, err, common.ErrValidation)
	}
	_, err := s.Append(ctx, models.FeedbackRecord{UserID: ids[0], Filename: "", TargetRole: "Dev", Score: 50})
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = s.Append(ctx, models.FeedbackRecord{UserID: 999, Filename: "a.pdf", TargetRole: "Dev", Score: 50})
	assert.Error(t, err, "unknown owner violates the foreign key")
}

func TestFeedback_StatsForUser(t *testing.T) {
	db := dbtest.New(t)
	ids := seedUsers(t, db, "u1")
	s := NewFeedbackService(db)
	ctx := context.Background()

	empty, err := s.StatsForUser(ctx, ids[0])
	require.NoError(t, err)
	assert.Zero(t, empty.TotalAnalyses)
	assert.NotNil(t, empty.Roles)

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	inputs := []struct {
		role  string
		score int
	}{{"Dev", 70}, {"Dev", 90}, {"PM", 80}}
	for i, in := range inputs {
		_, err := s.Append(ctx, models.FeedbackRecord{
			UserID: ids[0], Filename: "a.pdf", TargetRole: in.role, Score: in.score,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	stats, err := s.StatsForUser(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalAnalyses)
	assert.InDelta(t, 80.0, stats.AverageScore, 0.001)
	assert.Equal(t, 90, stats.BestScore)
	assert.Equal(t, 80, stats.LatestScore)
	assert.Equal(t, map[string]int{"Dev": 2, "PM": 1}, stats.Roles)
	require.Len(t, stats.Trend, 3)
	assert.Equal(t, 70, stats.Trend[0].Score)
	assert.Equal(t, 80, stats.Trend[2].Score)

	total, err := s.CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	avg, err := s.AverageScore(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 80.0, avg, 0.001)
}

func TestFeedback_DriverErrorsAreWrapped(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, user_id").WithArgs(int64(1)).WillReturnError(errors.New("disk I/O error"))
	mock.ExpectExec("DELETE FROM feedback_history").WithArgs(int64(1)).WillReturnError(errors.New("database is locked"))

	s := NewFeedbackService(db)
	_, err = s.ListByUser(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list feedback")

	_, err = s.DeleteAllForUser(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to delete feedback history")

	assert.NoError(t, mock.ExpectationsWereMet())
}
