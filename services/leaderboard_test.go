package services

import (
	"testing"
	"time"

	"ctf-learning-platform/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecomputeForUserConvergence(t *testing.T) {
	db := newTestDB(t)
	svc := NewLeaderboardService(db)

	moduleID := uuid.NewString()
	chalA := uuid.NewString()
	chalB := uuid.NewString()

	now := time.Now().UTC()
	rows := []models.UserProgress{
		{ID: uuid.NewString(), ExternalUserID: "alice", ModuleID: &moduleID, Completed: true, CompletedAt: &now, Score: 15},
		{ID: uuid.NewString(), ExternalUserID: "alice", ChallengeID: &chalA, Completed: true, CompletedAt: &now, Score: 10},
		{ID: uuid.NewString(), ExternalUserID: "alice", ChallengeID: &chalB, Completed: false, Attempts: 4},
		{ID: uuid.NewString(), ExternalUserID: "bob", ChallengeID: &chalA, Completed: true, CompletedAt: &now, Score: 10},
	}
	for i := range rows {
		require.NoError(t, db.Create(&rows[i]).Error)
	}

	// Run several times; the result must be identical every time.
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.RecomputeForUser(db, "alice"))

		var entry models.LeaderboardEntry
		require.NoError(t, db.Where("external_user_id = ?", "alice").First(&entry).Error)
		assert.Equal(t, int64(25), entry.TotalScore, "total is the sum of frozen scores")
		assert.Equal(t, 1, entry.ModulesCompleted)
		assert.Equal(t, 1, entry.ChallengesCompleted)
	}

	var count int64
	require.NoError(t, db.Model(&models.LeaderboardEntry{}).
		Where("external_user_id = ?", "alice").Count(&count).Error)
	assert.Equal(t, int64(1), count, "recompute upserts, never duplicates")
}

func TestRecomputeAllRanks(t *testing.T) {
	db := newTestDB(t)
	svc := NewLeaderboardService(db)

	entries := []models.LeaderboardEntry{
		{ID: uuid.NewString(), ExternalUserID: "low", TotalScore: 80, LastUpdated: time.Now()},
		{ID: uuid.NewString(), ExternalUserID: "top", TotalScore: 100, LastUpdated: time.Now()},
		{ID: uuid.NewString(), ExternalUserID: "mid", TotalScore: 80, LastUpdated: time.Now()},
	}
	for i := range entries {
		require.NoError(t, db.Create(&entries[i]).Error)
	}

	require.NoError(t, svc.RecomputeAllRanks())

	ranks := map[string]int{}
	var stored []models.LeaderboardEntry
	require.NoError(t, db.Find(&stored).Error)
	for _, e := range stored {
		ranks[e.ExternalUserID] = e.Rank
	}

	assert.Equal(t, 1, ranks["top"], "highest score gets rank 1")
	assert.ElementsMatch(t, []int{2, 3}, []int{ranks["low"], ranks["mid"]},
		"tied scores occupy the next positions in a stable order")
}

func TestGetUserRankOnDemand(t *testing.T) {
	db := newTestDB(t)
	svc := NewLeaderboardService(db)

	entries := []models.LeaderboardEntry{
		{ID: uuid.NewString(), ExternalUserID: "top", TotalScore: 100, LastUpdated: time.Now()},
		{ID: uuid.NewString(), ExternalUserID: "mid", TotalScore: 80, LastUpdated: time.Now()},
		{ID: uuid.NewString(), ExternalUserID: "low", TotalScore: 80, LastUpdated: time.Now()},
	}
	for i := range entries {
		require.NoError(t, db.Create(&entries[i]).Error)
	}

	rank, err := svc.GetUserRank("top")
	require.NoError(t, err)
	assert.Equal(t, 1, rank)

	// Ties share the on-demand rank: both 80s have exactly one
	// strictly-higher score above them.
	for _, id := range []string{"mid", "low"} {
		rank, err := svc.GetUserRank(id)
		require.NoError(t, err)
		assert.Equal(t, 2, rank)
	}

	_, err = svc.GetUserRank("ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAroundMeWindow(t *testing.T) {
	db := newTestDB(t)
	svc := NewLeaderboardService(db)

	scores := map[string]int64{"p1": 50, "p2": 40, "p3": 30, "p4": 20, "p5": 10}
	for id, score := range scores {
		entry := models.LeaderboardEntry{
			ID:             uuid.NewString(),
			ExternalUserID: id,
			TotalScore:     score,
			LastUpdated:    time.Now(),
		}
		require.NoError(t, db.Create(&entry).Error)
	}

	entries, startRank, err := svc.AroundMe("p3", 1)
	require.NoError(t, err)
	assert.Equal(t, 2, startRank)
	require.Len(t, entries, 3)
	assert.Equal(t, "p2", entries[0].ExternalUserID)
	assert.Equal(t, "p3", entries[1].ExternalUserID)
	assert.Equal(t, "p4", entries[2].ExternalUserID)

	// At the top the window clamps instead of going negative.
	entries, startRank, err = svc.AroundMe("p1", 2)
	require.NoError(t, err)
	assert.Equal(t, 1, startRank)
	require.Len(t, entries, 5)
	assert.Equal(t, "p1", entries[0].ExternalUserID)

	_, _, err = svc.AroundMe("ghost", 2)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLeaderboardStats(t *testing.T) {
	db := newTestDB(t)
	svc := NewLeaderboardService(db)

	rows := []models.LeaderboardEntry{
		{ID: uuid.NewString(), ExternalUserID: "a", TotalScore: 10, ModulesCompleted: 1, ChallengesCompleted: 2, LastUpdated: time.Now()},
		{ID: uuid.NewString(), ExternalUserID: "b", TotalScore: 20, ChallengesCompleted: 1, LastUpdated: time.Now()},
		{ID: uuid.NewString(), ExternalUserID: "c", TotalScore: 30, ModulesCompleted: 2, LastUpdated: time.Now()},
	}
	for i := range rows {
		require.NoError(t, db.Create(&rows[i]).Error)
	}

	stats, err := svc.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalPlayers)
	assert.Equal(t, int64(60), stats.TotalScore)
	assert.InDelta(t, 20.0, stats.AverageScore, 0.001)
	assert.Equal(t, int64(30), stats.HighestScore)
	assert.Equal(t, int64(3), stats.ModulesCompleted)
	assert.Equal(t, int64(3), stats.ChallengesCompleted)
}

func TestLeaderboardStatsEmptyBoard(t *testing.T) {
	db := newTestDB(t)
	svc := NewLeaderboardService(db)

	stats, err := svc.Stats()
	require.NoError(t, err)
	assert.Zero(t, stats.TotalPlayers)
	assert.Zero(t, stats.TotalScore)
	assert.Zero(t, stats.HighestScore)
}

func TestTopPlayersAndPagination(t *testing.T) {
	db := newTestDB(t)
	svc := NewLeaderboardService(db)

	for i, score := range []int64{10, 50, 30, 20, 40} {
		entry := models.LeaderboardEntry{
			ID:             uuid.NewString(),
			ExternalUserID: string(rune('a' + i)),
			TotalScore:     score,
			LastUpdated:    time.Now(),
		}
		require.NoError(t, db.Create(&entry).Error)
	}

	top, err := svc.TopPlayers(3)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, int64(50), top[0].TotalScore)
	assert.Equal(t, int64(40), top[1].TotalScore)
	assert.Equal(t, int64(30), top[2].TotalScore)

	page, total, err := svc.GetLeaderboard(2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page, 2)
	assert.Equal(t, int64(30), page[0].TotalScore)
	assert.Equal(t, int64(20), page[1].TotalScore)
}
