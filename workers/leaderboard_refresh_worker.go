// workers/leaderboard_refresh_worker.go
package workers

import (
	"context"
	"log"
	"time"

	"ctf-learning-platform/services"

	"gorm.io/gorm"
)

// LeaderboardRefreshClient finds leaderboard entries that went stale
// (the owner completed something after the entry was last rebuilt)
// and recomputes them from the progress rows. Safety net for partial
// failures: the recompute is a full rescan, so it converges no matter
// what state the entry was left in.
type LeaderboardRefreshClient struct {
	DB          *gorm.DB
	Leaderboard *services.LeaderboardService
}

func NewLeaderboardRefreshClient(db *gorm.DB, leaderboard *services.LeaderboardService) *LeaderboardRefreshClient {
	return &LeaderboardRefreshClient{DB: db, Leaderboard: leaderboard}
}

// staleUserIDs returns users whose newest completion postdates their
// leaderboard entry (or who have completions but no entry at all).
func (c *LeaderboardRefreshClient) staleUserIDs() ([]string, error) {
	var ids []string
	err := c.DB.Raw(`
		SELECT up.external_user_id
		FROM user_progresses up
		LEFT JOIN leaderboard_entries le ON le.external_user_id = up.external_user_id
		WHERE up.completed = ?
		GROUP BY up.external_user_id, le.last_updated
		HAVING le.last_updated IS NULL OR MAX(up.completed_at) > le.last_updated
	`, true).Scan(&ids).Error
	return ids, err
}

// PollStaleLeaderboards runs the refresh loop until ctx is cancelled.
func PollStaleLeaderboards(ctx context.Context, client *LeaderboardRefreshClient, pollInterval time.Duration) {
	log.Println("Starting leaderboard refresh polling...")

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Leaderboard refresh polling stopped.")
			return
		case <-ticker.C:
			ids, err := client.staleUserIDs()
			if err != nil {
				log.Printf("❌ Error finding stale leaderboard entries: %v", err)
				continue
			}
			if len(ids) == 0 {
				continue
			}

			log.Printf("📥 Found %d stale leaderboard entr(ies), recomputing…", len(ids))

			var refreshed int
			for _, id := range ids {
				err := client.DB.Transaction(func(tx *gorm.DB) error {
					return client.Leaderboard.RecomputeForUser(tx, id)
				})
				if err != nil {
					log.Printf("❌ Failed to refresh leaderboard for %s: %v", id, err)
					// Leave it stale, the next tick retries.
					continue
				}
				refreshed++
			}
			log.Printf("✅ Refreshed %d leaderboard entr(ies)", refreshed)
		}
	}
}
