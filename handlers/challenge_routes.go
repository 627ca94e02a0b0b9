// handlers/challenge_routes.go
package handlers

import (
	"strconv"
	"strings"

	"ctf-learning-platform/middleware"
	"ctf-learning-platform/models"
	"ctf-learning-platform/services"
	"ctf-learning-platform/utils"

	"github.com/gofiber/fiber/v2"
)

func SetupChallengeRoutes(app *fiber.App, scoring *services.ScoringService) {
	// 🔐 Secured routes: the gateway forwards user context headers.
	// Gateway path mapping: /api/v1/ctf/s/challenges -> /s/challenges
	group := app.Group("/s/challenges", middleware.UserContextMiddleware())

	group.Get("/", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		limit, _ := strconv.Atoi(c.Query("limit", "50"))
		offset, _ := strconv.Atoi(c.Query("offset", "0"))
		if limit <= 0 || limit > 100 {
			limit = 50
		}
		if offset < 0 {
			offset = 0
		}

		q := scoring.DB.Model(&models.Challenge{}).Where("is_active = ?", true)
		if category := c.Query("category"); category != "" {
			q = q.Where("category = ?", category)
		}
		if difficulty := c.Query("difficulty"); difficulty != "" {
			q = q.Where("difficulty = ?", difficulty)
		}
		if moduleID := c.Query("module_id"); moduleID != "" {
			q = q.Where("module_id = ?", moduleID)
		}

		var total int64
		if err := q.Count(&total).Error; err != nil {
			return respondError(c, err, "failed to fetch challenges")
		}

		var challenges []models.Challenge
		if err := q.Order("created_at ASC").Limit(limit).Offset(offset).Find(&challenges).Error; err != nil {
			return respondError(c, err, "failed to fetch challenges")
		}

		// Embed the caller's progress per challenge
		out := make([]fiber.Map, 0, len(challenges))
		for _, ch := range challenges {
			prog, err := scoring.Progress.GetChallengeProgress(userID, ch.ID)
			if err != nil {
				return respondError(c, err, "failed to fetch progress")
			}
			out = append(out, fiber.Map{
				"challenge":     ch,
				"user_progress": prog, // null when never attempted
			})
		}

		return c.JSON(fiber.Map{
			"challenges": out,
			"total":      total,
			"limit":      limit,
			"offset":     offset,
		})
	})

	group.Get("/categories", func(c *fiber.Ctx) error {
		var categories []string
		err := scoring.DB.Model(&models.Challenge{}).
			Where("is_active = ?", true).
			Distinct().Pluck("category", &categories).Error
		if err != nil {
			return respondError(c, err, "failed to fetch categories")
		}
		return c.JSON(fiber.Map{"categories": categories})
	})

	group.Get("/difficulties", func(c *fiber.Ctx) error {
		var difficulties []string
		err := scoring.DB.Model(&models.Challenge{}).
			Where("is_active = ?", true).
			Distinct().Pluck("difficulty", &difficulties).Error
		if err != nil {
			return respondError(c, err, "failed to fetch difficulties")
		}
		return c.JSON(fiber.Map{"difficulties": difficulties})
	})

	group.Get("/:id", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		challengeID := c.Params("id")

		var challenge models.Challenge
		if err := scoring.DB.Where("id = ? AND is_active = ?", challengeID, true).
			First(&challenge).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "challenge not found"})
		}

		prog, err := scoring.Progress.GetChallengeProgress(userID, challengeID)
		if err != nil {
			return respondError(c, err, "failed to fetch progress")
		}

		return c.JSON(fiber.Map{
			"challenge":     challenge,
			"user_progress": prog,
		})
	})

	group.Post("/:id/submit", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		challengeID := c.Params("id")

		type Req struct {
			Flag string `json:"flag"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON", "cause": err.Error(),
			})
		}
		if strings.TrimSpace(req.Flag) == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "flag is required"})
		}

		result, err := scoring.SubmitFlag(userID, challengeID, req.Flag)
		if err != nil {
			return respondError(c, err, "failed to submit flag")
		}

		if result.Correct {
			msg := "Flag is correct!"
			if result.AlreadySolved {
				msg = "Already solved, no additional points awarded"
			}
			return c.JSON(fiber.Map{
				"success":        true,
				"message":        msg,
				"points_earned":  result.PointsEarned,
				"already_solved": result.AlreadySolved,
				"attempts":       result.Attempts,
			})
		}
		return c.JSON(fiber.Map{
			"success":  false,
			"message":  "Incorrect flag. Try again!",
			"attempts": result.Attempts,
		})
	})

	group.Get("/:id/hint", func(c *fiber.Ctx) error {
		challengeID := c.Params("id")

		var challenge models.Challenge
		if err := scoring.DB.Where("id = ? AND is_active = ?", challengeID, true).
			First(&challenge).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "challenge not found"})
		}

		if len(challenge.Hints) == 0 {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no hints available for this challenge"})
		}

		// First hint only; progressive unlocking is a client concern.
		return c.JSON(fiber.Map{
			"hint":        challenge.Hints[0],
			"total_hints": len(challenge.Hints),
		})
	})

	group.Get("/:id/files", func(c *fiber.Ctx) error {
		challengeID := c.Params("id")

		var challenge models.Challenge
		if err := scoring.DB.Where("id = ? AND is_active = ?", challengeID, true).
			First(&challenge).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "challenge not found"})
		}

		files := make([]fiber.Map, 0, len(challenge.Files))
		for _, key := range challenge.Files {
			url, err := utils.AttachmentURL(c.Context(), key)
			if err != nil {
				return respondError(c, err, "failed to resolve attachment URL")
			}
			files = append(files, fiber.Map{"key": key, "url": url})
		}
		return c.JSON(fiber.Map{"files": files})
	})

	group.Put("/:id/progress", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		challengeID := c.Params("id")

		type Req struct {
			TimeSpent int `json:"time_spent"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON", "cause": err.Error(),
			})
		}

		prog, err := scoring.UpdateChallengeTime(userID, challengeID, req.TimeSpent)
		if err != nil {
			return respondError(c, err, "failed to update progress")
		}
		return c.JSON(fiber.Map{
			"message":  "Progress updated successfully",
			"progress": prog,
		})
	})
}
