package models

// Module difficulty levels
const (
	ModuleDifficultyBeginner     = "Beginner"
	ModuleDifficultyIntermediate = "Intermediate"
	ModuleDifficultyAdvanced     = "Advanced"
)

// Module is a learning unit (lesson content plus attached challenges).
// Content is authored outside this service; scoring only reads it.
type Module struct {
	ID          string `json:"id" gorm:"primaryKey"`
	Title       string `json:"title" gorm:"not null"`
	Slug        string `json:"slug" gorm:"uniqueIndex"`
	Description string `json:"description"`
	Content     string `json:"content,omitempty"`

	Category      string `json:"category" gorm:"index;not null"` // Cryptography, Web Security, ...
	Difficulty    string `json:"difficulty" gorm:"type:varchar(20);default:'Beginner'"`
	Order         int    `json:"order" gorm:"column:sort_order;default:0"`
	EstimatedTime int    `json:"estimated_time,omitempty"` // minutes
	Points        int64  `json:"points" gorm:"default:10"`
	IsActive      bool   `json:"is_active" gorm:"default:true"`

	Challenges []Challenge `json:"challenges,omitempty" gorm:"foreignKey:ModuleID"`

	Timestamps
}
