// Package runs records engine lifetimes and their periodic stats.
package runs

import (
	"context"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/particles/internal/config"
	"github.com/playmatatu/particles/internal/engine"
	"github.com/playmatatu/particles/internal/models"
)

// StatsSource is satisfied by *engine.Engine.
type StatsSource interface {
	Stats() engine.Stats
}

// StatsPublisher is satisfied by *redis.Publisher.
type StatsPublisher interface {
	PublishStats(ctx context.Context, v interface{}) error
}

// Begin inserts a run row and returns its id.
func Begin(db *sqlx.DB, instance string, sim config.SimConfig) (int, error) {
	var id int
	err := db.Get(&id, `
		INSERT INTO sim_runs (instance, scene, workers, capacity, world_width, world_height, started_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id
	`, instance, sim.Scene, sim.Workers, sim.Capacity, sim.WorldWidth, sim.WorldHeight)
	return id, err
}

// Record stores the latest stats on a run.
func Record(db *sqlx.DB, runID int, s engine.Stats) error {
	_, err := db.Exec(`
		UPDATE sim_runs
		SET last_step=$1, last_active_count=$2, steps_per_second=$3, barrier_timeouts=$4, updated_at=NOW()
		WHERE id=$5
	`, int64(s.Step), s.Active, s.StepsPerSecond, s.BarrierTimeouts, runID)
	return err
}

// Finish stamps the run's stop time.
func Finish(db *sqlx.DB, runID int, s engine.Stats) error {
	if err := Record(db, runID, s); err != nil {
		return err
	}
	_, err := db.Exec(`UPDATE sim_runs SET stopped_at=NOW() WHERE id=$1`, runID)
	return err
}

// Recent returns the latest runs, newest first.
func Recent(db *sqlx.DB, limit int) ([]models.SimRun, error) {
	var rows []models.SimRun
	err := db.Select(&rows, `
		SELECT id, instance, scene, workers, capacity, world_width, world_height,
			last_step, last_active_count, steps_per_second, barrier_timeouts,
			started_at, updated_at, stopped_at
		FROM sim_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	return rows, err
}

// StartStatsWorker samples src every interval, records the sample on the run
// row when db is set and publishes it when pub is set. It returns when ctx
// is done.
func StartStatsWorker(ctx context.Context, db *sqlx.DB, pub StatsPublisher, src StatsSource, runID int, interval time.Duration) {
	if db == nil && pub == nil {
		log.Println("[STATS] no database or redis; stats worker not started")
		return
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}

	log.Printf("[STATS] stats worker started (every %s)", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[STATS] stats worker stopping")
			return
		case <-ticker.C:
			s := src.Stats()
			if db != nil && runID > 0 {
				if err := Record(db, runID, s); err != nil {
					log.Printf("[STATS] failed to record run %d: %v", runID, err)
				}
			}
			if pub != nil {
				if err := pub.PublishStats(ctx, s); err != nil {
					log.Printf("[STATS] failed to publish stats: %v", err)
				}
			}
		}
	}
}
