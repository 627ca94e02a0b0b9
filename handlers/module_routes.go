// handlers/module_routes.go
package handlers

import (
	"strconv"

	"ctf-learning-platform/middleware"
	"ctf-learning-platform/models"
	"ctf-learning-platform/services"

	"github.com/gofiber/fiber/v2"
)

func SetupModuleRoutes(app *fiber.App, scoring *services.ScoringService) {
	group := app.Group("/s/modules", middleware.UserContextMiddleware())

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

		q := scoring.DB.Model(&models.Module{}).Where("is_active = ?", true)
		if category := c.Query("category"); category != "" {
			q = q.Where("category = ?", category)
		}
		if difficulty := c.Query("difficulty"); difficulty != "" {
			q = q.Where("difficulty = ?", difficulty)
		}

		var total int64
		if err := q.Count(&total).Error; err != nil {
			return respondError(c, err, "failed to fetch modules")
		}

		var modules []models.Module
		if err := q.Order("sort_order ASC").Limit(limit).Offset(offset).Find(&modules).Error; err != nil {
			return respondError(c, err, "failed to fetch modules")
		}

		out := make([]fiber.Map, 0, len(modules))
		for _, m := range modules {
			prog, err := scoring.Progress.GetModuleProgress(userID, m.ID)
			if err != nil {
				return respondError(c, err, "failed to fetch progress")
			}
			out = append(out, fiber.Map{
				"module":        m,
				"user_progress": prog,
			})
		}

		return c.JSON(fiber.Map{
			"modules": out,
			"total":   total,
			"limit":   limit,
			"offset":  offset,
		})
	})

	group.Get("/categories", func(c *fiber.Ctx) error {
		var categories []string
		err := scoring.DB.Model(&models.Module{}).
			Where("is_active = ?", true).
			Distinct().Pluck("category", &categories).Error
		if err != nil {
			return respondError(c, err, "failed to fetch categories")
		}
		return c.JSON(fiber.Map{"categories": categories})
	})

	group.Get("/difficulties", func(c *fiber.Ctx) error {
		var difficulties []string
		err := scoring.DB.Model(&models.Module{}).
			Where("is_active = ?", true).
			Distinct().Pluck("difficulty", &difficulties).Error
		if err != nil {
			return respondError(c, err, "failed to fetch difficulties")
		}
		return c.JSON(fiber.Map{"difficulties": difficulties})
	})

	group.Get("/:id", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		moduleID := c.Params("id")

		var module models.Module
		err := scoring.DB.Preload("Challenges", "is_active = ?", true).
			Where("id = ? AND is_active = ?", moduleID, true).
			First(&module).Error
		if err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "module not found"})
		}

		prog, err := scoring.Progress.GetModuleProgress(userID, moduleID)
		if err != nil {
			return respondError(c, err, "failed to fetch progress")
		}

		return c.JSON(fiber.Map{
			"module":        module,
			"user_progress": prog,
		})
	})

	group.Post("/:id/complete", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		moduleID := c.Params("id")

		result, err := scoring.CompleteModule(userID, moduleID)
		if err != nil {
			return respondError(c, err, "failed to complete module")
		}

		msg := "Module completed successfully"
		if result.AlreadyCompleted {
			msg = "Module was already completed"
		}
		return c.JSON(fiber.Map{
			"message":           msg,
			"points_earned":     result.PointsEarned,
			"already_completed": result.AlreadyCompleted,
		})
	})

	group.Put("/:id/progress", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		moduleID := c.Params("id")

		type Req struct {
			TimeSpent         int  `json:"time_spent"`
			IncrementAttempts bool `json:"increment_attempts"`
		}
		var req Req
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON", "cause": err.Error(),
			})
		}

		prog, err := scoring.UpdateModuleTime(userID, moduleID, req.TimeSpent, req.IncrementAttempts)
		if err != nil {
			return respondError(c, err, "failed to update progress")
		}
		return c.JSON(fiber.Map{
			"message":  "Progress updated successfully",
			"progress": prog,
		})
	})
}
