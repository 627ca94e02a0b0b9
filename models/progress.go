package models

import (
	"time"
)

// UserProgress is one row per (user, module) or (user, challenge);
// exactly one of ModuleID/ChallengeID is set. Created lazily on first
// interaction, never deleted. Once Completed flips true, Score and
// CompletedAt are frozen; Attempts and TimeSpent keep accumulating.
//
// The composite unique indexes back the at-most-once award guarantee:
// concurrent get-or-create for the same target collapses onto one row.
type UserProgress struct {
	ID             string  `json:"id" gorm:"primaryKey"`
	ExternalUserID string  `json:"external_user_id" gorm:"index;not null;uniqueIndex:idx_user_module;uniqueIndex:idx_user_challenge"`
	ModuleID       *string `json:"module_id,omitempty" gorm:"uniqueIndex:idx_user_module"`
	ChallengeID    *string `json:"challenge_id,omitempty" gorm:"uniqueIndex:idx_user_challenge"`

	Completed   bool       `json:"completed" gorm:"default:false"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Score       int64      `json:"score" gorm:"default:0"` // points frozen at completion time
	Attempts    int        `json:"attempts" gorm:"default:0"`
	TimeSpent   int        `json:"time_spent" gorm:"default:0"` // seconds

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// IsModule reports whether this row tracks a module target.
func (p *UserProgress) IsModule() bool {
	return p.ModuleID != nil
}
