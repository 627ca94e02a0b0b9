// services/users.go
package services

import (
	"strconv"
	"strings"

	"ctf-learning-platform/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// SearchUsers searches the local user snapshot table. Backs the
// leaderboard UI's player lookup.
func SearchUsers(db *gorm.DB, c *fiber.Ctx) error {
	query := c.Query("q", "")
	limitStr := c.Query("limit", "50")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 || limit > 100 {
		limit = 50
	}

	var users []models.User
	q := db.Model(&models.User{}).Limit(limit)

	if query != "" {
		searchTerm := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
		q = q.Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ?", searchTerm, searchTerm)
	}

	if err := q.Order("username ASC").Find(&users).Error; err != nil {
		return c.Status(500).JSON(fiber.Map{"error": "search failed", "details": err.Error()})
	}

	// Minimal projection: never leak email or internal ids to clients.
	type UserSummary struct {
		ExternalUserID string  `json:"external_user_id"`
		Username       string  `json:"username"`
		Level          int     `json:"level"`
		Rank           string  `json:"rank"`
		AvatarURL      *string `json:"avatar_url,omitempty"`
	}

	res := make([]UserSummary, len(users))
	for i, u := range users {
		res[i] = UserSummary{
			ExternalUserID: u.ExternalUserID,
			Username:       u.Username,
			Level:          u.Level,
			Rank:           u.Rank,
			AvatarURL:      u.AvatarURL,
		}
	}

	return c.JSON(res)
}
