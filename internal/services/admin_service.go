package services

import (
	"context"
	"fmt"

	"github.com/isdelr/resume-bot-be/internal/models"
)

// SystemStatsSource exposes the latest host resource sample.
type SystemStatsSource interface {
	Latest() (models.SystemStats, bool)
}

// AdminServiceProvider defines the interface for the admin overview.
type AdminServiceProvider interface {
	Stats(ctx context.Context) (models.AdminStats, error)
	Users(ctx context.Context) ([]models.User, error)
}

// AdminService aggregates platform-wide figures for administrators.
type AdminService struct {
	users   UserServiceProvider
	history FeedbackServiceProvider
	system  SystemStatsSource
}

// NewAdminService creates a new AdminService. system may be nil.
func NewAdminService(users UserServiceProvider, history FeedbackServiceProvider, system SystemStatsSource) *AdminService {
	return &AdminService{users: users, history: history, system: system}
}

func (s *AdminService) Stats(ctx context.Context) (models.AdminStats, error) {
	var stats models.AdminStats
	var err error

	if stats.TotalUsers, err = s.users.CountUsers(ctx); err != nil {
		return stats, fmt.Errorf("failed to count users: %w", err)
	}
	if stats.TotalAnalyses, err = s.history.CountAll(ctx); err != nil {
		return stats, fmt.Errorf("failed to count analyses: %w", err)
	}
	if stats.AverageScore, err = s.history.AverageScore(ctx); err != nil {
		return stats, fmt.Errorf("failed to compute average score: %w", err)
	}
	if s.system != nil {
		if sample, ok := s.system.Latest(); ok {
			stats.System = &sample
		}
	}
	return stats, nil
}

// Users lists every account with secrets removed.
func (s *AdminService) Users(ctx context.Context) ([]models.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i] = users[i].Sanitized()
	}
	return users, nil
}
