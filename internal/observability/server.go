package observability

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// StatsFunc supplies the current run snapshot for the /stats route.
type StatsFunc func() any

// StatusServer exposes health, run stats, and Prometheus metrics while a
// long load run is in flight. It is optional; the CLI only starts it when a
// listen address is configured.
type StatusServer struct {
	addr    string
	started time.Time
	stats   StatsFunc
	router  *gin.Engine
}

func NewStatusServer(addr string, stats StatsFunc, corsOrigins []string) *StatusServer {
	RegisterMetrics()
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(corsOrigins),
		AllowMethods: []string{"GET"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	s := &StatusServer{
		addr:    addr,
		started: time.Now(),
		stats:   stats,
		router:  r,
	}
	s.registerRoutes()
	return s
}

func (s *StatusServer) registerRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"uptime": time.Since(s.started).String(),
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/stats", func(c *gin.Context) {
		var snapshot any
		if s.stats != nil {
			snapshot = s.stats()
		}
		c.JSON(http.StatusOK, gin.H{
			"uptime": time.Since(s.started).String(),
			"stats":  snapshot,
		})
	})
}

// Serve blocks. It is meant to run on its own goroutine for the lifetime of
// the process; the listener dies with the process.
func (s *StatusServer) Serve() error {
	log.Info().Str("addr", s.addr).Msg("status server listening")
	return s.router.Run(s.addr)
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
