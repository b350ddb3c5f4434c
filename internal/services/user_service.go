package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/isdelr/resume-bot-be/internal/auth"
	"github.com/isdelr/resume-bot-be/internal/common"
	"github.com/isdelr/resume-bot-be/internal/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted anywhere.
const MinPasswordLength = 6

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	GetUserByID(ctx context.Context, id int64) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	CreateUser(ctx context.Context, username, email, phone, password string) (models.User, error)
	AuthenticateUser(ctx context.Context, username, password string) (models.User, error)
	UpdateProfile(ctx context.Context, id int64, username, email, phone string) (models.User, error)
	SetPassword(ctx context.Context, id int64, newPassword string) error
	SetPasswordByEmail(ctx context.Context, email, newPassword string) error
	ChangePassword(ctx context.Context, id int64, currentPassword, newPassword string) error
	SetResetCode(ctx context.Context, email, code string, expiry time.Time) error
	CheckResetCode(ctx context.Context, email, code string, now time.Time) error
	ClearResetCode(ctx context.Context, email string) error
	ClearExpiredResetCodes(ctx context.Context, now time.Time) (int64, error)
	CountUsers(ctx context.Context) (int, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

// UserService provides business logic for user management.
type UserService struct {
	db  *sql.DB
	now func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db, now: time.Now}
}

const userColumns = `id, username, email, phone, password_hash, is_admin, reset_token, reset_token_expiry, created_at`

func scanUser(scanner interface{ Scan(...interface{}) error }) (models.User, error) {
	var user models.User
	var phone, resetToken sql.NullString
	var resetExpiry sql.NullTime
	err := scanner.Scan(
		&user.ID, &user.Username, &user.Email, &phone, &user.PasswordHash,
		&user.IsAdmin, &resetToken, &resetExpiry, &user.CreatedAt,
	)
	if err != nil {
		return models.User{}, err
	}
	user.Phone = phone.String
	user.ResetTokenHash = resetToken.String
	if resetExpiry.Valid {
		t := resetExpiry.Time
		user.ResetTokenExpiry = &t
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func nullIfEmpty(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// ValidateNewPassword applies the confirmation and length rules.
func ValidateNewPassword(password, confirm string) error {
	if password != confirm {
		return fmt.Errorf("%w: passwords don't match", common.ErrValidation)
	}
	return checkPasswordLength(password)
}

func checkPasswordLength(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrValidation, MinPasswordLength)
	}
	if len(password) > auth.MaxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes", common.ErrValidation, auth.MaxPasswordBytes)
	}
	return nil
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("user with ID %d: %w", id, common.ErrNotFound)
		}
		return models.User{}, fmt.Errorf("failed to get user %d: %w", id, err)
	}
	return user, nil
}

// GetUserByEmail retrieves a single user by their email, including the password hash.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = ?", normalizeEmail(email))
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("user with email %s: %w", email, common.ErrNotFound)
		}
		return models.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

func (s *UserService) getUserByUsername(ctx context.Context, username string) (models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE username = ?", username)
	return scanUser(row)
}

// CreateUser creates a new user, hashing their password. The insert is a
// single statement, so a conflict leaves nothing behind.
func (s *UserService) CreateUser(ctx context.Context, username, email, phone, password string) (models.User, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)
	phone = strings.TrimSpace(phone)
	if username == "" || email == "" || password == "" {
		return models.User{}, fmt.Errorf("%w: username, email and password are required", common.ErrValidation)
	}
	if err := checkPasswordLength(password); err != nil {
		return models.User{}, err
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		Username:     username,
		Email:        email,
		Phone:        phone,
		PasswordHash: hashedPassword,
		CreatedAt:    s.now().UTC(),
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (username, email, phone, password_hash, created_at) VALUES (?, ?, ?, ?, ?)",
		user.Username, user.Email, nullIfEmpty(user.Phone), user.PasswordHash, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, common.ErrDuplicateCredential
		}
		return models.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	user.ID, err = res.LastInsertId()
	if err != nil {
		return models.User{}, fmt.Errorf("failed to read new user id: %w", err)
	}

	return user.Sanitized(), nil
}

// AuthenticateUser verifies a user's credentials. Legacy digests are
// upgraded to bcrypt on success.
func (s *UserService) AuthenticateUser(ctx context.Context, username, password string) (models.User, error) {
	user, err := s.getUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, common.ErrInvalidCredential
		}
		return models.User{}, fmt.Errorf("failed to load user: %w", err)
	}

	ok, needsRehash := auth.VerifyPassword(user.PasswordHash, password)
	if !ok {
		return models.User{}, common.ErrInvalidCredential
	}

	if needsRehash {
		if err := s.SetPassword(ctx, user.ID, password); err != nil {
			log.Warn().Err(err).Int64("user_id", user.ID).Msg("Failed to upgrade legacy password hash")
		}
	}

	return user.Sanitized(), nil
}

// UpdateProfile updates a user's non-sensitive information.
func (s *UserService) UpdateProfile(ctx context.Context, id int64, username, email, phone string) (models.User, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)
	if username == "" || email == "" {
		return models.User{}, fmt.Errorf("%w: username and email are required", common.ErrValidation)
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET username = ?, email = ?, phone = ? WHERE id = ?",
		username, email, nullIfEmpty(strings.TrimSpace(phone)), id)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, common.ErrDuplicateCredential
		}
		return models.User{}, fmt.Errorf("failed to update user %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.User{}, fmt.Errorf("user with ID %d: %w", id, common.ErrNotFound)
	}
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	return user.Sanitized(), nil
}

// SetPassword hashes and stores a new password for a user.
func (s *UserService) SetPassword(ctx context.Context, id int64, newPassword string) error {
	hashed, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, "UPDATE users SET password_hash = ? WHERE id = ?", hashed, id)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user with ID %d: %w", id, common.ErrNotFound)
	}
	return nil
}

// SetPasswordByEmail hashes and stores a new password for the account with email.
func (s *UserService) SetPasswordByEmail(ctx context.Context, email, newPassword string) error {
	hashed, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, "UPDATE users SET password_hash = ? WHERE email = ?", hashed, normalizeEmail(email))
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user with email %s: %w", email, common.ErrNotFound)
	}
	return nil
}

// ChangePassword verifies the current password, then sets a new one.
func (s *UserService) ChangePassword(ctx context.Context, id int64, currentPassword, newPassword string) error {
	user, err := s.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if ok, _ := auth.VerifyPassword(user.PasswordHash, currentPassword); !ok {
		return fmt.Errorf("%w: current password is incorrect", common.ErrInvalidCredential)
	}
	return s.SetPassword(ctx, id, newPassword)
}

// SetResetCode stores the hash of a pending one-time code and its expiry.
func (s *UserService) SetResetCode(ctx context.Context, email, code string, expiry time.Time) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash reset code: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET reset_token = ?, reset_token_expiry = ? WHERE email = ?",
		string(hashed), expiry.UTC(), normalizeEmail(email))
	if err != nil {
		return fmt.Errorf("failed to store reset code: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user with email %s: %w", email, common.ErrNotFound)
	}
	return nil
}

// CheckResetCode reports whether code is the pending, unexpired code for email.
func (s *UserService) CheckResetCode(ctx context.Context, email, code string, now time.Time) error {
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrInvalidOneTimeCode
		}
		return err
	}
	if user.ResetTokenHash == "" || user.ResetTokenExpiry == nil {
		return common.ErrInvalidOneTimeCode
	}
	if !now.Before(*user.ResetTokenExpiry) {
		return fmt.Errorf("%w: code expired", common.ErrInvalidOneTimeCode)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.ResetTokenHash), []byte(code)) != nil {
		return common.ErrInvalidOneTimeCode
	}
	return nil
}

// ClearResetCode consumes the pending code for email.
func (s *UserService) ClearResetCode(ctx context.Context, email string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET reset_token = NULL, reset_token_expiry = NULL WHERE email = ?", normalizeEmail(email))
	if err != nil {
		return fmt.Errorf("failed to clear reset code: %w", err)
	}
	return nil
}

// ClearExpiredResetCodes drops every pending code that expired before now.
func (s *UserService) ClearExpiredResetCodes(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET reset_token = NULL, reset_token_expiry = NULL WHERE reset_token_expiry IS NOT NULL AND reset_token_expiry <= ?",
		now.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to clear expired reset codes: %w", err)
	}
	return res.RowsAffected()
}

// CountUsers returns the number of accounts.
func (s *UserService) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// ListUsers returns all accounts, oldest first, without secrets.
func (s *UserService) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, user.Sanitized())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user rows: %w", err)
	}
	return users, nil
}

// SeedAdmin creates the admin account unless the username or email is taken.
func (s *UserService) SeedAdmin(ctx context.Context, username, email, password string) error {
	hashed, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO users (username, email, password_hash, is_admin, created_at) VALUES (?, ?, ?, TRUE, ?)",
		username, normalizeEmail(email), hashed, s.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to seed admin: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		log.Info().Str("username", username).Msg("Seeded admin account")
	}
	return nil
}
