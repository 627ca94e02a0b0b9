// services/scheduler.go
package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartRankScheduler recomputes cached leaderboard ranks on an interval.
// Submissions only update total_score; this batch (or the admin trigger)
// assigns positions, so cached ranks can lag briefly.
func (s *LeaderboardService) StartRankScheduler(interval time.Duration) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			if err := s.RecomputeAllRanks(); err != nil {
				log.Printf("[Scheduler] Rank recompute failed: %v", err)
			}
		}),
	)
}
