package services

import (
	"testing"

	"ctf-learning-platform/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens an in-memory SQLite database limited to a single
// connection so concurrent transactions serialize the way row locks
// serialize them on Postgres.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Module{},
		&models.Challenge{},
		&models.Flag{},
		&models.UserProgress{},
		&models.LeaderboardEntry{},
	))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, externalID string) *models.User {
	t.Helper()
	user := &models.User{
		ID:             uuid.NewString(),
		ExternalUserID: externalID,
		Username:       externalID,
		Level:          1,
		Rank:           models.RankNovice,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestModule(t *testing.T, db *gorm.DB, title string, points int64) *models.Module {
	t.Helper()
	module := &models.Module{
		ID:       uuid.NewString(),
		Title:    title,
		Slug:     title,
		Category: "Test",
		Points:   points,
		IsActive: true,
	}
	require.NoError(t, db.Create(module).Error)
	return module
}

func createTestChallenge(t *testing.T, db *gorm.DB, moduleID, title string, points int64) *models.Challenge {
	t.Helper()
	challenge := &models.Challenge{
		ID:       uuid.NewString(),
		ModuleID: moduleID,
		Title:    title,
		Slug:     title,
		Category: "Test",
		Points:   points,
		IsActive: true,
	}
	require.NoError(t, db.Create(challenge).Error)
	return challenge
}

func createTestFlag(t *testing.T, db *gorm.DB, challengeID, value, flagType string, points int64) *models.Flag {
	t.Helper()
	flag := &models.Flag{
		ID:          uuid.NewString(),
		ChallengeID: challengeID,
		FlagValue:   value,
		FlagType:    flagType,
		Points:      points,
		IsActive:    true,
	}
	require.NoError(t, db.Create(flag).Error)
	return flag
}
