// Package testutil provides shared fixtures for package tests.
package testutil

import (
	"testing"

	"userdata/internal/database"
	"userdata/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB returns a migrated in-memory database private to t.
func NewSQLiteDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every pooled connection would otherwise get its own empty database
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

// CreateUser persists a user with the given username and full name.
func CreateUser(t testing.TB, db *gorm.DB, username, fullName string) *models.User {
	t.Helper()
	u := &models.User{Username: username, FullName: fullName}
	require.NoError(t, db.Create(u).Error)
	return u
}

// Link persists a friendship from requester to addressee.
func Link(t testing.TB, db *gorm.DB, requester, addressee *models.User, status models.FriendshipStatus) {
	t.Helper()
	require.NoError(t, db.Create(&models.Friendship{
		RequesterID: requester.ID,
		AddresseeID: addressee.ID,
		Status:      status,
	}).Error)
}
