package auth

import (
	"testing"

	"vivenda-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&domain.User{}))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email, password string) *domain.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	require.NoError(t, err)
	u := &domain.User{
		UserID:       uuid.New(),
		UserName:     "tester",
		Fullname:     "Test User",
		Email:        email,
		PasswordHash: string(hash),
		Role:         "investor",
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func TestLoginUser_Success(t *testing.T) {
	db := setupDB(t)
	seeded := seedUser(t, db, "login@test.com", "Secret1!pass")

	u, err := LoginUser(db, LoginInput{Email: "login@test.com", Password: "Secret1!pass"})
	require.NoError(t, err)
	assert.Equal(t, seeded.UserID, u.UserID)
	assert.Equal(t, "investor", u.Role)
}

func TestLoginUser_Failures(t *testing.T) {
	db := setupDB(t)
	seedUser(t, db, "login@test.com", "Secret1!pass")

	_, err := LoginUser(db, LoginInput{Email: "", Password: "x"})
	assert.ErrorIs(t, err, ErrEmailPasswordRequired)

	_, err = LoginUser(db, LoginInput{Email: "missing@test.com", Password: "x"})
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = LoginUser(db, LoginInput{Email: "login@test.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrIncorrectPassword)
}

func TestVerifyUser(t *testing.T) {
	_, err := VerifyUser(nil)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = VerifyUser("not a map")
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	_, err = VerifyUser(map[string]interface{}{"fullname": "No ID"})
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	shape, err := VerifyUser(map[string]interface{}{
		"user_id": "550e8400-e29b-41d4-a716-446655440000",
		"email":   "me@test.com",
		"role":    "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, "me@test.com", shape.Email)
	assert.Equal(t, "admin", shape.Role)
}
