// seed inserts development sample data for local testing. Idempotent: skips
// inserts if the marker event (seed-evt-001) already exists.
//
// Events and assignments land in the most recently completed quarter hour, so
// a running aggregator picks them up within the next two boundaries. The seed
// writes activity_events and project_assignments with plain SQL because the
// aggregator only ever reads those tables.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"worklens/aggregator/internal/config"
	"worklens/aggregator/internal/db"
	"worklens/aggregator/internal/rollup"
)

const (
	markerEventID = "seed-evt-001"

	laptopTag = "Laptop-1"
	deskTag   = "desk-2"

	alphaAssignmentID = "seed-asg-001"
	betaAssignmentID  = "seed-asg-002"
)

type seedEvent struct {
	id       string
	device   string
	kind     string
	content  string
	laneHint string
	offset   time.Duration
}

// seedEvents covers the interesting shapes: assigned runs, the unassigned
// device, a lane hint, and an assignment handoff mid-quarter.
var seedEvents = []seedEvent{
	{id: markerEventID, device: laptopTag, kind: "internal", content: "refactor parser", offset: 2 * time.Minute},
	{id: "seed-evt-002", device: deskTag, kind: "internal", content: "triage inbox", offset: 4 * time.Minute},
	{id: "seed-evt-003", device: laptopTag, kind: "internal", content: "review PR", laneHint: "review", offset: 6 * time.Minute},
	{id: "seed-evt-004", device: laptopTag, kind: "internal", content: "sketch rollout plan", offset: 11 * time.Minute},
	{id: "seed-evt-005", device: laptopTag, kind: "external", content: "standup call", offset: 3 * time.Minute},
	{id: "seed-evt-006", device: deskTag, kind: "external", content: "customer demo", offset: 9 * time.Minute},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()

	var exists int
	err = conn.QueryRowContext(ctx, `SELECT 1 FROM activity_events WHERE id = $1`, markerEventID).Scan(&exists)
	if err == nil {
		log.Println("Seed already applied (seed-evt-001 exists). Skipping.")
		os.Exit(0)
	}
	if err != sql.ErrNoRows {
		log.Fatalf("seed check: %v", err)
	}

	now := time.Now().UTC()
	// Last completed quarter hour: events placed here are already in the
	// past but still inside the next two 30-minute windows.
	quarterEnd := rollup.AlignToWindowFloor(now).End
	quarterStart := quarterEnd.Add(-rollup.BoundaryInterval)
	handoff := quarterEnd.Add(-5 * time.Minute)

	for _, ev := range seedEvents {
		occurred := quarterStart.Add(ev.offset)
		if _, err := conn.ExecContext(ctx, `
			INSERT INTO activity_events (id, device_tag, source_kind, content, lane_hint, occurred_at, ingested_at)
			VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)`,
			ev.id, ev.device, ev.kind, ev.content, ev.laneHint, occurred, now,
		); err != nil {
			log.Fatalf("insert event %s: %v", ev.id, err)
		}
	}

	if _, err := conn.ExecContext(ctx, `
		INSERT INTO project_assignments (id, device_tag, project_id, project_slug, project_name, user_id, context_mode, revision, started_at, ended_at)
		VALUES ($1, 'laptop-1', 'prj-alpha', 'alpha', 'Project Alpha', 'usr-dev', '', 1, $2, $3)`,
		alphaAssignmentID, quarterStart.Add(-24*time.Hour), handoff,
	); err != nil {
		log.Fatalf("insert assignment %s: %v", alphaAssignmentID, err)
	}

	if _, err := conn.ExecContext(ctx, `
		INSERT INTO project_assignments (id, device_tag, project_id, project_slug, project_name, user_id, context_mode, revision, started_at, ended_at)
		VALUES ($1, 'laptop-1', 'prj-beta', 'beta', 'Project Beta', 'usr-dev', 'focus', 2, $2, NULL)`,
		betaAssignmentID, handoff,
	); err != nil {
		log.Fatalf("insert assignment %s: %v", betaAssignmentID, err)
	}

	log.Println("Seed completed successfully.")
	fmt.Printf("Seeded %d events in [%s, %s): %s is alpha then beta (handoff %s), %s is unassigned\n",
		len(seedEvents), quarterStart.Format(time.RFC3339), quarterEnd.Format(time.RFC3339),
		laptopTag, handoff.Format("15:04"), deskTag)
}
