// handlers/user_routes.go
package handlers

import (
	"time"

	"ctf-learning-platform/middleware"
	"ctf-learning-platform/models"
	"ctf-learning-platform/services"

	"github.com/gofiber/fiber/v2"
)

func SetupUserRoutes(app *fiber.App, scoring *services.ScoringService) {
	group := app.Group("/s/user", middleware.UserContextMiddleware())

	group.Get("/progress", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var user models.User
		if err := scoring.DB.Where("external_user_id = ?", userID).First(&user).Error; err != nil {
			// Never submitted and never synced, report zero progress
			// instead of 404 so fresh accounts render cleanly.
			return c.JSON(fiber.Map{
				"external_user_id":     userID,
				"experience":           0,
				"level":                1,
				"rank":                 models.RankNovice,
				"modules_completed":    0,
				"challenges_completed": 0,
				"recent_solves":        []fiber.Map{},
			})
		}

		var entry models.LeaderboardEntry
		modulesDone, challengesDone := 0, 0
		if err := scoring.DB.Where("external_user_id = ?", userID).First(&entry).Error; err == nil {
			modulesDone = entry.ModulesCompleted
			challengesDone = entry.ChallengesCompleted
		}

		// ✅ Recent challenge solves with titles
		type RecentSolve struct {
			ChallengeID string    `json:"challenge_id"`
			Title       string    `json:"title"`
			Score       int64     `json:"score"`
			CompletedAt time.Time `json:"completed_at"`
		}
		var recent []RecentSolve
		if err := scoring.DB.Raw(`
		SELECT up.challenge_id, ch.title, up.score, up.completed_at
		FROM user_progresses up
		INNER JOIN challenges ch ON ch.id = up.challenge_id
		WHERE up.external_user_id = ? AND up.completed = ?
		ORDER BY up.completed_at DESC
		LIMIT 3
	`, userID, true).Scan(&recent).Error; err != nil {
			return respondError(c, err, "failed to fetch recent solves")
		}

		return c.JSON(fiber.Map{
			"external_user_id":     userID,
			"username":             user.Username,
			"experience":           user.Experience,
			"level":                user.Level,
			"rank":                 user.Rank,
			"modules_completed":    modulesDone,
			"challenges_completed": challengesDone,
			"recent_solves":        recent,
			"last_level_up_at":     user.LastLevelUpAt,
			"last_rank_up_at":      user.LastRankUpAt,
		})
	})
}
