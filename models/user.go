package models

import (
	"time"

	"gorm.io/gorm"
)

// Rank tier names, derived from level.
const (
	RankNovice       = "Novice"
	RankIntermediate = "Intermediate"
	RankAdvanced     = "Advanced"
	RankExpert       = "Expert"
	RankMaster       = "Master"
)

// User is a local snapshot of identity data plus the progression state
// this service owns. Identity fields (username, email, avatar, bio) are
// populated by the sync worker from the auth service. Experience, level
// and rank belong to the scoring engine and are never touched by sync.
type User struct {
	ID             string `gorm:"primaryKey" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"` // auth service's user id

	Username  string  `gorm:"index" json:"username"`
	Email     string  `json:"email,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
	Bio       *string `json:"bio,omitempty"`

	// Core progression, written only inside a scoring transaction
	Experience int64  `json:"experience" gorm:"default:0"`
	Level      int    `json:"level" gorm:"default:1"`
	Rank       string `json:"rank" gorm:"type:varchar(20);default:'Novice'"`

	LastLevelUpAt *time.Time `json:"last_level_up_at,omitempty"`
	LastRankUpAt  *time.Time `json:"last_rank_up_at,omitempty"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
