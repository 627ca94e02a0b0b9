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

// LeaderboardService maintains the per-user leaderboard cache and the
// batch-assigned global ranks.
type LeaderboardService struct {
	DB *gorm.DB
}

func NewLeaderboardService(db *gorm.DB) *LeaderboardService {
	return &LeaderboardService{DB: db}
}

// RecomputeForUser rebuilds the user's leaderboard row from scratch by
// rescanning their completed progress rows. This is the only writer of
// total_score and the counters. No running increments anywhere, so the
// row converges to the true sum no matter how many times it runs or what
// failed before. Scores are the frozen per-completion values, not the
// live module/challenge point values.
func (s *LeaderboardService) RecomputeForUser(tx *gorm.DB, externalUserID string) error {
	var completed []models.UserProgress
	if err := tx.Where("external_user_id = ? AND completed = ?", externalUserID, true).
		Find(&completed).Error; err != nil {
		return err
	}

	var totalScore int64
	var modulesDone, challengesDone int
	for _, p := range completed {
		totalScore += p.Score
		if p.IsModule() {
			modulesDone++
		} else {
			challengesDone++
		}
	}

	entry := models.LeaderboardEntry{
		ID:                  uuid.NewString(),
		ExternalUserID:      externalUserID,
		TotalScore:          totalScore,
		ModulesCompleted:    modulesDone,
		ChallengesCompleted: challengesDone,
		LastUpdated:         time.Now().UTC(),
	}

	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "external_user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_score", "modules_completed", "challenges_completed", "last_updated",
		}),
	}).Create(&entry).Error
}

// RecomputeAllRanks reassigns the cached 1-based rank for every entry,
// ordered by total_score descending. Ties break on external_user_id
// ascending, an arbitrary but deterministic secondary key. Batch only:
// runs from the scheduler or the admin trigger, never per submission, so
// the cached rank can briefly lag total_score.
func (s *LeaderboardService) RecomputeAllRanks() error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		var entries []models.LeaderboardEntry
		if err := tx.Order("total_score DESC, external_user_id ASC").Find(&entries).Error; err != nil {
			return err
		}

		for i := range entries {
			rank := i + 1
			if entries[i].Rank == rank {
				continue
			}
			if err := tx.Model(&models.LeaderboardEntry{}).
				Where("id = ?", entries[i].ID).
				UpdateColumn("rank", rank).Error; err != nil {
				return err
			}
		}

		log.Printf("🏆 [LEADERBOARD] Recomputed ranks for %d entries", len(entries))
		return nil
	})
}

// GetLeaderboard returns entries ordered by score with pagination.
func (s *LeaderboardService) GetLeaderboard(limit, offset int) ([]models.LeaderboardEntry, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var total int64
	if err := s.DB.Model(&models.LeaderboardEntry{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var entries []models.LeaderboardEntry
	err := s.DB.Order("total_score DESC, external_user_id ASC").
		Limit(limit).Offset(offset).
		Find(&entries).Error
	return entries, total, err
}

// TopPlayers returns the highest-scoring entries.
func (s *LeaderboardService) TopPlayers(limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	var entries []models.LeaderboardEntry
	err := s.DB.Order("total_score DESC, external_user_id ASC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// AroundMe returns the slice of the leaderboard surrounding the user:
// up to window entries above and below them in the listing order
// (total_score DESC, external_user_id ASC), clamped at the top. The
// second return value is the 1-based listing position of the first
// entry, so clients can number the window without fetching the whole
// board.
func (s *LeaderboardService) AroundMe(externalUserID string, window int) ([]models.LeaderboardEntry, int, error) {
	if window <= 0 || window > 25 {
		window = 2
	}

	var me models.LeaderboardEntry
	err := s.DB.Where("external_user_id = ?", externalUserID).First(&me).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, 0, notFound("leaderboard entry for user", externalUserID)
	}
	if err != nil {
		return nil, 0, err
	}

	// Listing position, not the tie-shared rank: entries ahead of the
	// user in the deterministic order.
	var ahead int64
	if err := s.DB.Model(&models.LeaderboardEntry{}).
		Where("total_score > ? OR (total_score = ? AND external_user_id < ?)",
			me.TotalScore, me.TotalScore, me.ExternalUserID).
		Count(&ahead).Error; err != nil {
		return nil, 0, err
	}

	start := int(ahead) - window
	if start < 0 {
		start = 0
	}

	var entries []models.LeaderboardEntry
	err = s.DB.Order("total_score DESC, external_user_id ASC").
		Limit(window*2 + 1).
		Offset(start).
		Find(&entries).Error
	return entries, start + 1, err
}

// LeaderboardStats aggregates the whole board for the stats panel.
type LeaderboardStats struct {
	TotalPlayers        int64   `json:"total_players"`
	TotalScore          int64   `json:"total_score"`
	AverageScore        float64 `json:"average_score"`
	HighestScore        int64   `json:"highest_score"`
	ModulesCompleted    int64   `json:"modules_completed"`
	ChallengesCompleted int64   `json:"challenges_completed"`
}

// Stats computes board-wide aggregates in one query.
func (s *LeaderboardService) Stats() (*LeaderboardStats, error) {
	var stats LeaderboardStats
	err := s.DB.Model(&models.LeaderboardEntry{}).
		Select(`COUNT(*) AS total_players,
			COALESCE(SUM(total_score), 0) AS total_score,
			COALESCE(AVG(total_score), 0) AS average_score,
			COALESCE(MAX(total_score), 0) AS highest_score,
			COALESCE(SUM(modules_completed), 0) AS modules_completed,
			COALESCE(SUM(challenges_completed), 0) AS challenges_completed`).
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// GetUserRank computes the user's live rank on demand: 1 + the number of
// entries with a strictly higher total_score. Unlike the cached rank
// column this is always consistent with current scores, so stale batch
// ranks are never surfaced as if they were live.
func (s *LeaderboardService) GetUserRank(externalUserID string) (int, error) {
	var entry models.LeaderboardEntry
	err := s.DB.Where("external_user_id = ?", externalUserID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, notFound("leaderboard entry for user", externalUserID)
	}
	if err != nil {
		return 0, err
	}

	var higher int64
	if err := s.DB.Model(&models.LeaderboardEntry{}).
		Where("total_score > ?", entry.TotalScore).
		Count(&higher).Error; err != nil {
		return 0, err
	}
	return int(higher) + 1, nil
}
