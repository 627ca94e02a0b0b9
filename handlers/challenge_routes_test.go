package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"ctf-learning-platform/models"
	"ctf-learning-platform/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestApp(t *testing.T) (*fiber.App, *services.ScoringService) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Module{},
		&models.Challenge{},
		&models.Flag{},
		&models.UserProgress{},
		&models.LeaderboardEntry{},
	))

	scoring := services.NewScoringService(db)
	app := fiber.New()
	SetupChallengeRoutes(app, scoring)
	SetupLeaderboardRoutes(app, scoring.Leaderboard)
	return app, scoring
}

func seedChallenge(t *testing.T, db *gorm.DB, flagValue string, points int64) *models.Challenge {
	t.Helper()

	module := &models.Module{
		ID:       uuid.NewString(),
		Title:    "Intro",
		Slug:     "intro",
		Category: "General",
		Points:   15,
		IsActive: true,
	}
	require.NoError(t, db.Create(module).Error)

	challenge := &models.Challenge{
		ID:       uuid.NewString(),
		ModuleID: module.ID,
		Title:    "Hello",
		Slug:     "hello",
		Category: "General",
		Hints:    []string{"look closer", "try uppercase"},
		Points:   points,
		IsActive: true,
	}
	require.NoError(t, db.Create(challenge).Error)

	flag := &models.Flag{
		ID:          uuid.NewString(),
		ChallengeID: challenge.ID,
		FlagValue:   flagValue,
		FlagType:    models.FlagTypeExact,
		Points:      points,
		IsActive:    true,
	}
	require.NoError(t, db.Create(flag).Error)
	return challenge
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (int, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "alice")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var parsed map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &parsed))
	}
	return resp.StatusCode, parsed
}

func TestSubmitFlagEndpoint(t *testing.T) {
	app, scoring := newTestApp(t)
	challenge := seedChallenge(t, scoring.DB, "HELLO WORLD", 10)

	status, body := doJSON(t, app, "POST", "/s/challenges/"+challenge.ID+"/submit",
		fiber.Map{"flag": "HELLO WORLD"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(10), body["points_earned"])
	assert.Equal(t, false, body["already_solved"])

	// Wrong answer is still a 200, the failure lives in the payload
	status, body = doJSON(t, app, "POST", "/s/challenges/"+challenge.ID+"/submit",
		fiber.Map{"flag": "nope"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, float64(2), body["attempts"])

	// Re-solve: success flagged as already solved, zero points
	status, body = doJSON(t, app, "POST", "/s/challenges/"+challenge.ID+"/submit",
		fiber.Map{"flag": "HELLO WORLD"})
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["already_solved"])
	assert.Equal(t, float64(0), body["points_earned"])
}

func TestSubmitFlagEndpointValidation(t *testing.T) {
	app, scoring := newTestApp(t)
	challenge := seedChallenge(t, scoring.DB, "HELLO WORLD", 10)

	status, body := doJSON(t, app, "POST", "/s/challenges/"+challenge.ID+"/submit",
		fiber.Map{"flag": "   "})
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "flag is required", body["error"])

	status, _ = doJSON(t, app, "POST", "/s/challenges/"+uuid.NewString()+"/submit",
		fiber.Map{"flag": "HELLO WORLD"})
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestSubmitFlagEndpointRequiresUserContext(t *testing.T) {
	app, scoring := newTestApp(t)
	challenge := seedChallenge(t, scoring.DB, "HELLO WORLD", 10)

	req := httptest.NewRequest("POST", "/s/challenges/"+challenge.ID+"/submit",
		bytes.NewBufferString(`{"flag":"HELLO WORLD"}`))
	req.Header.Set("Content-Type", "application/json")
	// no X-User-ID header

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestGetChallengeWithProgress(t *testing.T) {
	app, scoring := newTestApp(t)
	challenge := seedChallenge(t, scoring.DB, "HELLO WORLD", 10)

	status, body := doJSON(t, app, "GET", "/s/challenges/"+challenge.ID, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Nil(t, body["user_progress"], "no progress row until the first attempt")

	ch, ok := body["challenge"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, challenge.ID, ch["id"])
	assert.NotContains(t, ch, "flags", "flag secrets never serialize")

	_, err := scoring.SubmitFlag("alice", challenge.ID, "wrong")
	require.NoError(t, err)

	status, body = doJSON(t, app, "GET", "/s/challenges/"+challenge.ID, nil)
	assert.Equal(t, fiber.StatusOK, status)
	prog, ok := body["user_progress"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), prog["attempts"])
	assert.Equal(t, false, prog["completed"])
}

func TestChallengeHintEndpoint(t *testing.T) {
	app, scoring := newTestApp(t)
	challenge := seedChallenge(t, scoring.DB, "HELLO WORLD", 10)

	status, body := doJSON(t, app, "GET", "/s/challenges/"+challenge.ID+"/hint", nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "look closer", body["hint"])
	assert.Equal(t, float64(2), body["total_hints"])

	status, _ = doJSON(t, app, "GET", "/s/challenges/"+uuid.NewString()+"/hint", nil)
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestUpdateProgressEndpoint(t *testing.T) {
	app, scoring := newTestApp(t)
	challenge := seedChallenge(t, scoring.DB, "HELLO WORLD", 10)

	status, body := doJSON(t, app, "PUT", "/s/challenges/"+challenge.ID+"/progress",
		fiber.Map{"time_spent": 90})
	assert.Equal(t, fiber.StatusOK, status)
	prog, ok := body["progress"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(90), prog["time_spent"])

	status, _ = doJSON(t, app, "PUT", "/s/challenges/"+challenge.ID+"/progress",
		fiber.Map{"time_spent": -10})
	assert.Equal(t, fiber.StatusBadRequest, status)
}
