// aggregator runs the windowed rollup daemon: at every quarter-hour boundary
// it closes the 30-minute window ending there, segments that window's activity
// events by project assignment, and upserts the resulting work sessions.
// Requires DATABASE_URL; see internal/config for the full variable list.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"worklens/aggregator/internal/assignment"
	assignmentrepo "worklens/aggregator/internal/assignment/repository"
	"worklens/aggregator/internal/config"
	"worklens/aggregator/internal/db"
	eventrepo "worklens/aggregator/internal/event/repository"
	healthhandler "worklens/aggregator/internal/health/handler"
	"worklens/aggregator/internal/rollup"
	sessionrepo "worklens/aggregator/internal/session/repository"
	"worklens/aggregator/internal/telemetry"
	otelsetup "worklens/aggregator/internal/telemetry/otel"
	"worklens/aggregator/internal/telemetry/producer"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	providers, err := otelsetup.NewProviders(ctx, cfg.OTLPEndpoint, healthhandler.ServiceName, cfg.OTLPInsecure)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	metrics, err := telemetry.NewCycleMetrics()
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}

	emitters := []telemetry.EventEmitter{otelsetup.NewEventEmitter(providers.LoggerProvider)}
	kafkaProducer, err := producer.NewKafkaProducer(cfg.TelemetryKafkaBrokersList(), cfg.TelemetryKafkaTopic)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	if kafkaProducer != nil {
		defer kafkaProducer.Close()
		emitters = append(emitters, kafkaProducer)
	}
	emitter := telemetry.Multi(emitters...)

	healthSrv := &http.Server{
		Addr:    cfg.HealthAddr,
		Handler: healthhandler.NewServer(version, conn).Router(),
	}
	go func() {
		log.Printf("health server listening on %s", cfg.HealthAddr)
		if err := healthSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("health server: %v", err)
		}
	}()

	resolver := assignment.NewResolver(assignmentrepo.NewPostgresRepository(conn))
	segmenter := rollup.NewSegmenter(resolver, cfg.SegmentResolveWorkers)
	writer := rollup.NewWriter(sessionrepo.NewPostgresRepository(conn))
	runner := rollup.NewRunner(eventrepo.NewPostgresRepository(conn), segmenter, writer)
	sched := rollup.NewScheduler(rollup.SystemClock(), runner, emitter, metrics)

	schedDone := make(chan error, 1)
	go func() {
		log.Printf("scheduler started: %s windows, boundary every %s", rollup.WindowLength, rollup.BoundaryInterval)
		schedDone <- sched.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")
	cancel()
	if err := <-schedDone; err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("scheduler: %v", err)
	}

	// Let in-flight async telemetry emits finish before tearing providers down.
	time.Sleep(telemetry.ShutdownDrainDuration)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("health server shutdown: %v", err)
	}
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
	log.Println("aggregator stopped")
}
