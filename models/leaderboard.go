package models

import (
	"time"
)

// LeaderboardEntry is one cached row per user, derived entirely from
// that user's completed UserProgress rows. TotalScore and the counters
// are always produced by a full rescan (services.LeaderboardService),
// never patched incrementally, so the row converges after any partial
// failure or duplicate event. Rank is assigned by the batch recompute
// and may lag TotalScore between runs.
type LeaderboardEntry struct {
	ID             string `json:"id" gorm:"primaryKey"`
	ExternalUserID string `json:"external_user_id" gorm:"uniqueIndex;not null"`

	TotalScore          int64 `json:"total_score" gorm:"default:0"`
	ModulesCompleted    int   `json:"modules_completed" gorm:"default:0"`
	ChallengesCompleted int   `json:"challenges_completed" gorm:"default:0"`
	Rank                int   `json:"rank" gorm:"default:0"` // 1-based; 0 = not yet ranked

	LastUpdated time.Time `json:"last_updated"`
}
