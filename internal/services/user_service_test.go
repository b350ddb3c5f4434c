package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/isdelr/resume-bot-be/internal/common"
	"github.com/isdelr/resume-bot-be/internal/database/dbtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(t *testing.T) *UserService {
	t.Helper()
	return NewUserService(dbtest.New(t))
}

func TestCreateUser_AliceScenario(t *testing.T) {
	s := newUserService(t)
	ctx := context.Background()

	alice, err := s.CreateUser(ctx, "alice", "alice@x.com", "", "secret1")
	require.NoError(t, err)
	assert.NotZero(t, alice.ID)
	assert.Empty(t, alice.PasswordHash)

	_, err = s.CreateUser(ctx, "alice", "other@x.com", "", "secret1")
	assert.ErrorIs(t, err, common.ErrDuplicateCredential)

	got, err := s.AuthenticateUser(ctx, "alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)
	assert.Equal(t, "alice@x.com", got.Email)

	_, err = s.AuthenticateUser(ctx, "alice", "wrong")
	assert.ErrorIs(t, err, common.ErrInvalidCredential)
}

func TestCreateUser_DuplicateEmailLeavesNoRow(t *testing.T) {
	s := newUserService(t)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, "alice", "alice@x.com", "555", "secret1")
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, "bob", "ALICE@x.com ", "", "secret1")
	assert.ErrorIs(t, err, common.ErrDuplicateCredential)

	n, err := s.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = s.AuthenticateUser(ctx, "bob", "secret1")
	assert.ErrorIs(t, err, common.ErrInvalidCredential)
}

func TestCreateUser_Validation(t *testing.T) {
	s := newUserService(t)
	ctx := context.Background()

	tests := []struct {
		name                      string
		username, email, password string
	}{
		{"missing username", "", "a@x.com", "secret1"},
		{"missing email", "a", " ", "secret1"},
		{"missing password", "a", "a@x.com", ""},
		{"short password", "a", "a@x.com", "12345"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.CreateUser(ctx, tc.username, tc.email, "", tc.password)
			assert.ErrorIs(t, err, common.ErrValidation)
		})
	}
}

func TestAuthenticateUser_UnknownUser(t *testing.T) {
	s := newUserService(t)
	_, err := s.AuthenticateUser(context.Background(), "ghost", "secret1")
	assert.ErrorIs(t, err, common.ErrInvalidCredential)
}

func TestAuthenticateUser_UpgradesLegacyDigest(t *testing.T) {
	db := dbtest.New(t)
	s := NewUserService(db)
	ctx := context.Background()

	sum := sha256.Sum256([]byte("admin123"))
	_, err := db.Exec(`INSERT INTO users (username, email, password_hash, is_admin) VALUES ('admin', 'admin@resumebot.com', ?, TRUE)`,
		hex.EncodeToString(sum[:]))
	require.NoError(t, err)

	user, err := s.AuthenticateUser(ctx, "admin", "admin123")
	require.NoError(t, err)
	assert.True(t, user.IsAdmin)

	var stored string
	require.NoError(t, db.QueryRow(`SELECT password_hash FROM users WHERE username = 'admin'`).Scan(&stored))
	assert.Contains(t, stored, "$2", "digest must be replaced by a bcrypt hash")

	_, err = s.AuthenticateUser(ctx, "admin", "admin123")
	require.NoError(t, err)
}

func TestUpdateProfile(t *testing.T) {
	s := newUserService(t)
	ctx := context.Background()

	alice, err := s.CreateUser(ctx, "alice", "alice@x.com", "", "secret1")
	require.NoError(t, err)
	_, err = s.CreateUser(ctx, "bob", "bob@x.com", "", "secret1")
	require.NoError(t, err)

	updated, err := s.UpdateProfile(ctx, alice.ID, "alice2", "alice2@x.com", "+1234")
	require.NoError(t, err)
	assert.Equal(t, "alice2", updated.Username)
	assert.Equal(t, "+1234", updated.Phone)

	_, err = s.UpdateProfile(ctx, alice.ID, "bob", "alice2@x.com", "")
	assert.ErrorIs(t, err, common.ErrDuplicateCredential)

	_, err = s.UpdateProfile(ctx, 999, "zed", "zed@x.com", "")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestChangePassword(t *testing.T) {
	s := newUserService(t)
	ctx := context.Background()

	alice, err := s.CreateUser(ctx, "alice", "alice@x.com", "", "secret1")
	require.NoError(t, err)

	err = s.ChangePassword(ctx, alice.ID, "nope", "newpass1")
	assert.ErrorIs(t, err, common.ErrInvalidCredential)

	require.NoError(t, s.ChangePassword(ctx, alice.ID, "secret1", "newpass1"))
	_, err = s.AuthenticateUser(ctx, "alice", "newpass1")
	require.NoError(t, err)
}

func TestResetCode_Lifecycle(t *testing.T) {
	s := newUserService(t)
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	_, err := s.CreateUser(ctx, "alice", "alice@x.com", "", "secret1")
	require.NoError(t, err)

	err = s.SetResetCode(ctx, "nobody@x.com", "123456", now.Add(10*time.Minute))
	assert.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, s.SetResetCode(ctx, "alice@x.com", "123456", now.Add(10*time.Minute)))

	assert.ErrorIs(t, s.CheckResetCode(ctx, "alice@x.com", "654321", now), common.ErrInvalidOneTimeCode)
	assert.NoError(t, s.CheckResetCode(ctx, "alice@x.com", "123456", now))
	assert.ErrorIs(t, s.CheckResetCode(ctx, "alice@x.com", "123456", now.Add(10*time.Minute)), common.ErrInvalidOneTimeCode)

	require.NoError(t, s.ClearResetCode(ctx, "alice@x.com"))
	assert.ErrorIs(t, s.CheckResetCode(ctx, "alice@x.com", "123456", now), common.ErrInvalidOneTimeCode)
}

func TestClearExpiredResetCodes(t *testing.T) {
	s := newUserService(t)
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	for _, name := range []string{"a", "b"} {
		_, err := s.CreateUser(ctx, name, name+"@x.com", "", "secret1")
		require.NoError(t, err)
	}
	require.NoError(t, s.SetResetCode(ctx, "a@x.com", "111111", now.Add(-time.Minute)))
	require.NoError(t, s.SetResetCode(ctx, "b@x.com", "222222", now.Add(time.Minute)))

	n, err := s.ClearExpiredResetCodes(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	assert.NoError(t, s.CheckResetCode(ctx, "b@x.com", "222222", now))
}

func TestSeedAdmin_Idempotent(t *testing.T) {
	s := newUserService(t)
	ctx := context.Background()

	require.NoError(t, s.SeedAdmin(ctx, "admin", "admin@resumebot.com", "admin123"))
	require.NoError(t, s.SeedAdmin(ctx, "admin", "admin@resumebot.com", "changed"))

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.True(t, users[0].IsAdmin)
	assert.Empty(t, users[0].PasswordHash)

	_, err = s.AuthenticateUser(ctx, "admin", "admin123")
	require.NoError(t, err)
}

func TestPasswordLengthLimit(t *testing.T) {
	s := newUserService(t)
	ctx := context.Background()
	long := strings.Repeat("p", 80)

	_, err := s.CreateUser(ctx, "alice", "alice@x.com", "", long)
	assert.ErrorIs(t, err, common.ErrValidation)
	n, err := s.CountUsers(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	assert.ErrorIs(t, ValidateNewPassword(long, long), common.ErrValidation)
	assert.NoError(t, ValidateNewPassword(strings.Repeat("p", 72), strings.Repeat("p", 72)))

	alice, err := s.CreateUser(ctx, "alice", "alice@x.com", "", "secret1")
	require.NoError(t, err)
	assert.ErrorIs(t, s.SetPassword(ctx, alice.ID, long), common.ErrValidation)
	assert.ErrorIs(t, s.ChangePassword(ctx, alice.ID, "secret1", long), common.ErrValidation)

	_, err = s.AuthenticateUser(ctx, "alice", "secret1")
	require.NoError(t, err)
}
