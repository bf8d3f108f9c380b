// Package handler serves the HTTP liveness endpoint.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ServiceName identifies this process in liveness responses.
const ServiceName = "worklens-aggregator"

// Pinger reports whether the backing database is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server answers liveness probes for Kubernetes, load balancers, and CI.
type Server struct {
	version string
	db      Pinger
	now     func() time.Time
}

// NewServer returns a liveness server. db may be nil, in which case the
// probe reports process liveness only.
func NewServer(version string, db Pinger) *Server {
	return &Server{version: version, db: db, now: time.Now}
}

// Router builds the gin engine serving GET /healthz. Every other route 404s.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/healthz", s.healthz)
	return r
}

// healthz returns 200 while the process is up and the database (when wired)
// answers pings, 503 otherwise. The body carries service identity so that
// probes against the wrong port fail loudly.
func (s *Server) healthz(c *gin.Context) {
	code := http.StatusOK
	ok := true
	if s.db != nil {
		if err := s.db.PingContext(c.Request.Context()); err != nil {
			code = http.StatusServiceUnavailable
			ok = false
		}
	}
	c.JSON(code, gin.H{
		"ok":      ok,
		"service": ServiceName,
		"time":    s.now().UTC().Format(time.RFC3339),
		"version": s.version,
	})
}
