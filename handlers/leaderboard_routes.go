// handlers/leaderboard_routes.go
package handlers

import (
	"strconv"

	"ctf-learning-platform/middleware"
	"ctf-learning-platform/models"
	"ctf-learning-platform/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupLeaderboardRoutes(app *fiber.App, leaderboard *services.LeaderboardService) {
	group := app.Group("/s/leaderboard", middleware.UserContextMiddleware())

	group.Get("/", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "50"))
		offset, _ := strconv.Atoi(c.Query("offset", "0"))

		entries, total, err := leaderboard.GetLeaderboard(limit, offset)
		if err != nil {
			return respondError(c, err, "failed to fetch leaderboard")
		}

		return c.JSON(fiber.Map{
			"leaderboard": withUserInfo(leaderboard.DB, entries),
			"total":       total,
			"limit":       limit,
			"offset":      offset,
		})
	})

	group.Get("/top", func(c *fiber.Ctx) error {
		limit, _ := strconv.Atoi(c.Query("limit", "10"))

		entries, err := leaderboard.TopPlayers(limit)
		if err != nil {
			return respondError(c, err, "failed to fetch top players")
		}
		return c.JSON(fiber.Map{"top_players": withUserInfo(leaderboard.DB, entries)})
	})

	group.Get("/around-me", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		window, _ := strconv.Atoi(c.Query("window", "2"))

		entries, startRank, err := leaderboard.AroundMe(userID, window)
		if err != nil {
			return respondError(c, err, "failed to fetch surrounding entries")
		}
		return c.JSON(fiber.Map{
			"around_me":  withUserInfo(leaderboard.DB, entries),
			"start_rank": startRank,
		})
	})

	group.Get("/stats", func(c *fiber.Ctx) error {
		stats, err := leaderboard.Stats()
		if err != nil {
			return respondError(c, err, "failed to fetch leaderboard stats")
		}
		return c.JSON(stats)
	})

	group.Get("/me", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		rank, err := leaderboard.GetUserRank(userID)
		if err != nil {
			return respondError(c, err, "failed to fetch rank")
		}
		return c.JSON(fiber.Map{"user_id": userID, "rank": rank})
	})

	group.Get("/users", func(c *fiber.Ctx) error {
		return services.SearchUsers(leaderboard.DB, c)
	})

	// Admin: explicit batch rank recompute (also runs on a schedule)
	adminGroup := app.Group("/s/admin/leaderboard", middleware.UserContextMiddleware(), middleware.RequireAdmin())

	adminGroup.Post("/recompute", func(c *fiber.Ctx) error {
		if err := leaderboard.RecomputeAllRanks(); err != nil {
			return respondError(c, err, "rank recompute failed")
		}
		return c.JSON(fiber.Map{"message": "ranks recomputed"})
	})
}

// withUserInfo joins leaderboard entries with the local user snapshot so
// clients get names and tiers without a second round trip.
func withUserInfo(db *gorm.DB, entries []models.LeaderboardEntry) []fiber.Map {
	out := make([]fiber.Map, 0, len(entries))
	for _, e := range entries {
		row := fiber.Map{
			"external_user_id":     e.ExternalUserID,
			"total_score":          e.TotalScore,
			"modules_completed":    e.ModulesCompleted,
			"challenges_completed": e.ChallengesCompleted,
			"rank":                 e.Rank,
			"last_updated":         e.LastUpdated,
		}

		var user models.User
		if err := db.Where("external_user_id = ?", e.ExternalUserID).First(&user).Error; err == nil {
			row["user"] = fiber.Map{
				"username":   user.Username,
				"level":      user.Level,
				"rank":       user.Rank,
				"avatar_url": user.AvatarURL,
			}
		}
		out = append(out, row)
	}
	return out
}
