package users

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/swayaa-dev/storefront-backend/pkg/db/models"
	pkgerrors "github.com/swayaa-dev/storefront-backend/pkg/errors"
)

const sqliteUUID = `(lower(hex(randomblob(4)) || '-' || hex(randomblob(2)) || '-4' || substr(hex(randomblob(2)),2) || '-' || substr('89ab', abs(random()) % 4 + 1, 1) || substr(hex(randomblob(2)),2) || '-' || hex(randomblob(6))))`

func setupUserDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	require.NoError(t, conn.Exec(fmt.Sprintf(`CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY DEFAULT %s,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  name TEXT NOT NULL,
  phone TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  system_role TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`, sqliteUUID)).Error)
	return conn
}

func seedUser(t *testing.T, conn *gorm.DB) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New(),
		Email:        "buyer@example.com",
		PasswordHash: "hash",
		Name:         "Test Buyer",
		IsActive:     true,
	}
	require.NoError(t, conn.Create(user).Error)
	return user
}

func TestGetProfile(t *testing.T) {
	conn := setupUserDB(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	ctx := context.Background()

	user := seedUser(t, conn)

	dto, err := svc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, dto.Email)
	assert.Equal(t, user.Name, dto.Name)

	_, err = svc.GetProfile(ctx, uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}

func TestUpdateProfile(t *testing.T) {
	conn := setupUserDB(t)
	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	ctx := context.Background()

	user := seedUser(t, conn)

	name := "  Renamed Buyer "
	phone := " +15550100 "
	dto, err := svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{Name: &name, Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "Renamed Buyer", dto.Name)
	require.NotNil(t, dto.Phone)
	assert.Equal(t, "+15550100", *dto.Phone)
	assert.Equal(t, user.Email, dto.Email, "email is not editable through the profile")

	_, err = svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	blank := "  "
	_, err = svc.UpdateProfile(ctx, user.ID, UpdateProfileInput{Name: &blank})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.UpdateProfile(ctx, uuid.New(), UpdateProfileInput{Name: &name})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}
