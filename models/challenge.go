package models

import (
	"time"
)

// Challenge difficulty levels
const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

// Flag match policies
const (
	FlagTypeExact    = "exact"
	FlagTypeRegex    = "regex"
	FlagTypeContains = "contains"
)

// Challenge is a single CTF task inside a module.
type Challenge struct {
	ID          string `json:"id" gorm:"primaryKey"`
	ModuleID    string `json:"module_id" gorm:"index;not null"`
	Title       string `json:"title" gorm:"not null"`
	Slug        string `json:"slug" gorm:"uniqueIndex"`
	Description string `json:"description"`

	Category   string `json:"category" gorm:"index;not null"` // Web, Crypto, Forensics, ...
	Difficulty string `json:"difficulty" gorm:"type:varchar(20);default:'Easy'"`
	Points     int64  `json:"points" gorm:"default:10"`

	// 📁 Player-facing material
	Hints []string `json:"hints,omitempty" gorm:"serializer:json"` // list of hint strings
	Files []string `json:"files,omitempty" gorm:"serializer:json"` // list of attachment object keys

	IsActive bool `json:"is_active" gorm:"default:true"`

	Flags []Flag `json:"-" gorm:"foreignKey:ChallengeID"` // never serialized to players

	Timestamps
}

// Flag is one accepted solution for a challenge. Multi-flag challenges
// are allowed; the first active flag that matches a submission wins.
type Flag struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	ChallengeID string    `json:"challenge_id" gorm:"index;not null"`
	FlagValue   string    `json:"-" gorm:"not null"` // secret, never serialized
	FlagType    string    `json:"flag_type" gorm:"type:varchar(20);default:'exact'"` // exact | regex | contains
	Points      int64     `json:"points" gorm:"default:10"`
	IsActive    bool      `json:"is_active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}
