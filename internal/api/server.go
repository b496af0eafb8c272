package api

import (
	"time"

	"communityhub-backend/internal/auth"
	"communityhub-backend/internal/config"
	"communityhub-backend/internal/dashboard"
	"communityhub-backend/internal/fallback"
	"communityhub-backend/internal/gateway"
	"communityhub-backend/internal/health"
	"communityhub-backend/internal/metrics"
	"communityhub-backend/internal/storage"
	"communityhub-backend/internal/supabase"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Deps are the collaborators the handlers need. Supabase, Storage and
// Monitor may be nil; the routes that need them then answer 503. Without a
// fallback source the public routes report backend errors as they are.
type Deps struct {
	Config    *config.Config
	Gateway   gateway.Store
	Dashboard *dashboard.Registry
	Verifier  *auth.Verifier
	Supabase  *supabase.Client
	Storage   *storage.SupabaseStorage
	Fallback  *fallback.Source
	Resources *fallback.ResourceSource
	Monitor   *health.Monitor
	Metrics   *metrics.Metrics
	Log       *logrus.Logger
}

type Server struct {
	cfg      *config.Config
	gw       gateway.Store
	sessions *dashboard.Registry
	verifier *auth.Verifier
	supabase *supabase.Client
	storage  *storage.SupabaseStorage
	fallback *fallback.Source
	resFile  *fallback.ResourceSource
	monitor  *health.Monitor
	metrics  *metrics.Metrics
	log      *logrus.Entry
	now      func() time.Time
}

func NewServer(d Deps) *Server {
	return &Server{
		cfg:      d.Config,
		gw:       d.Gateway,
		sessions: d.Dashboard,
		verifier: d.Verifier,
		supabase: d.Supabase,
		storage:  d.Storage,
		fallback: d.Fallback,
		resFile:  d.Resources,
		monitor:  d.Monitor,
		metrics:  d.Metrics,
		log:      d.Log.WithField("component", "api"),
		now:      time.Now,
	}
}

// today is the current calendar date in the site's time zone, as
// YYYY-MM-DD and as a midnight UTC time for date comparisons.
func (s *Server) today() (string, time.Time) {
	y, m, d := s.now().In(s.cfg.Location()).Date()
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return t.Format("2006-01-02"), t
}

// backendUp is false once the health monitor has seen the backend fail.
func (s *Server) backendUp() bool {
	return s.monitor == nil || s.monitor.Healthy()
}

func (s *Server) Health(c *gin.Context) {
	body := gin.H{
		"status":  "ok",
		"service": "communityhub-backend",
		"gateway": s.cfg.Gateway,
	}
	if s.monitor != nil {
		st := s.monitor.Status()
		body["backend"] = st
		if !s.monitor.Healthy() {
			body["status"] = "degraded"
		}
	}
	c.JSON(200, body)
}
