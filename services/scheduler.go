// services/scheduler.go
package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartCompetitionScheduler runs the two periodic competition jobs: point
// checkpoints for open months and closing months whose period has ended.
func (e *AchievementEngine) StartCompetitionScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every 6 hours: snapshot open months so close can reconstruct the
	// lead/comeback timeline.
	_, _ = sched.NewJob(
		gocron.DurationJob(6*time.Hour),
		gocron.NewTask(func() {
			n, err := e.Competitions.RecordOpenCheckpoints()
			if err != nil {
				log.Printf("[Scheduler] Checkpoint error: %v", err)
				return
			}
			if n > 0 {
				log.Printf("[Scheduler] Recorded %d competition checkpoint(s)", n)
			}
		}),
	)

	// Every hour: close elapsed months and award competition badges.
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Hour),
		gocron.NewTask(func() {
			if err := e.CloseElapsedMonths(time.Now()); err != nil {
				log.Printf("[Scheduler] Month close error: %v", err)
			}
		}),
	)
}
