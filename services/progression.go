package services

import (
	"errors"
	"log"
	"time"

	"ctf-learning-platform/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Every 100 XP = 1 level, starting at level 1.
const XPPerLevel = 100

// LevelForExperience derives the level from cumulative experience.
// Deterministic and monotonic: experience only grows, so level never drops.
func LevelForExperience(experience int64) int {
	if experience < 0 {
		return 1
	}
	return int(experience/XPPerLevel) + 1
}

// rankForLevel maps a level onto its tier. Thresholds are inclusive and
// checked from the top so a tie lands on the higher tier.
func rankForLevel(level int) string {
	switch {
	case level >= 20:
		return models.RankMaster
	case level >= 15:
		return models.RankExpert
	case level >= 10:
		return models.RankAdvanced
	case level >= 5:
		return models.RankIntermediate
	default:
		return models.RankNovice
	}
}

// ProgressionService owns the experience/level/rank columns on the user
// snapshot row.
type ProgressionService struct {
	DB *gorm.DB
}

func NewProgressionService(db *gorm.DB) *ProgressionService {
	return &ProgressionService{DB: db}
}

// EnsureUserRecord guarantees a user row exists for the given external id
// (idempotent). The sync worker normally creates these; this covers users
// who submit before their first profile sync.
func (s *ProgressionService) EnsureUserRecord(tx *gorm.DB, externalUserID string) (*models.User, error) {
	row := models.User{
		ID:             uuid.NewString(),
		ExternalUserID: externalUserID,
		Level:          1,
		Rank:           models.RankNovice,
	}
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
		return nil, err
	}
	var out models.User
	if err := tx.Where("external_user_id = ?", externalUserID).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// ApplyExperience adds points to the user's cumulative experience and
// rederives level and rank. Points must be positive; zero or negative
// awards are a programming error upstream. Runs on the caller's
// transaction; the user row is locked for the duration.
func (s *ProgressionService) ApplyExperience(tx *gorm.DB, externalUserID string, points int64) (*models.User, error) {
	if points <= 0 {
		return nil, invalid("experience points must be > 0, got %d", points)
	}

	var user models.User
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("external_user_id = ?", externalUserID).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("user", externalUserID)
	}
	if err != nil {
		return nil, err
	}

	oldLevel := user.Level
	oldRank := user.Rank

	user.Experience += points
	user.Level = LevelForExperience(user.Experience)

	now := time.Now().UTC()
	if user.Level > oldLevel {
		user.LastLevelUpAt = &now
	}

	newRank := rankForLevel(user.Level)
	if newRank != oldRank {
		user.Rank = newRank
		user.LastRankUpAt = &now
	}

	if err := tx.Save(&user).Error; err != nil {
		return nil, err
	}

	log.Printf("🎮 XP Awarded: %s → XP=%d, Lvl=%d, Rank=%s", externalUserID, user.Experience, user.Level, user.Rank)
	return &user, nil
}

// GetUser returns the user snapshot for an external id.
func (s *ProgressionService) GetUser(externalUserID string) (*models.User, error) {
	var user models.User
	err := s.DB.Where("external_user_id = ?", externalUserID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("user", externalUserID)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
