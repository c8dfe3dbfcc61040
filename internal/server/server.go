package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/drewdunne/slashdispatch/internal/config"
	"github.com/drewdunne/slashdispatch/internal/event"
	"github.com/drewdunne/slashdispatch/internal/metrics"
	"github.com/drewdunne/slashdispatch/internal/webhook"
	log "github.com/sirupsen/logrus"
)

var logger = log.WithField("package", "server")

// HealthResponse represents the health check response structure.
type HealthResponse struct {
	Status string                 `json:"status"`
	Checks map[string]interface{} `json:"checks"`
}

// Checker reports whether dispatch backends are reachable.
type Checker interface {
	Check(ctx context.Context) error
}

// JobLister is implemented by checkers that can list running job
// containers. A nil slice means no container backend is configured.
type JobLister interface {
	RunningJobs(ctx context.Context) ([]string, error)
}

// Server is the HTTP server for webhook intake.
type Server struct {
	cfg         *config.Config
	mux         *http.ServeMux
	eventRouter *event.Router
	checker     Checker
	limiter     *webhook.RateLimiter

	mu       sync.RWMutex
	srv      *http.Server
	listener net.Listener
	ready    chan struct{} // closed once the listener is bound
}

// New creates a new Server. router and checker may be nil; without a router
// webhooks are acknowledged and dropped.
func New(cfg *config.Config, router *event.Router, checker Checker) *Server {
	s := &Server{
		cfg:         cfg,
		mux:         http.NewServeMux(),
		ready:       make(chan struct{}),
		eventRouter: router,
		checker:     checker,
		limiter:     webhook.NewRateLimiter(cfg.Server.RateLimitPerMin, cfg.Server.TrustForwardedFor),
	}
	s.routes()
	return s
}

// Ready returns a channel that is closed when the server is ready to accept connections.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// routes sets up the HTTP routes.
func (s *Server) routes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/metrics", s.handleMetrics)

	if s.cfg.Providers.GitHub.WebhookSecret != "" {
		githubHandler := webhook.NewGitHubHandler(
			s.cfg.Providers.GitHub.WebhookSecret,
			s.handleGitHubEvent,
		)
		s.mux.Handle("/webhook/github", s.limiter.Wrap(githubHandler))
	}

	if s.cfg.Providers.GitLab.WebhookSecret != "" {
		gitlabHandler := webhook.NewGitLabHandler(
			s.cfg.Providers.GitLab.WebhookSecret,
			s.handleGitLabEvent,
		)
		s.mux.Handle("/webhook/gitlab", s.limiter.Wrap(gitlabHandler))
	}
}

// handleHealth responds with server health status.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]interface{}{
		"github": s.cfg.Providers.GitHub.Token != "",
		"gitlab": s.cfg.Providers.GitLab.Token != "",
	}

	status := "ok"
	if s.checker != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.checker.Check(ctx); err != nil {
			checks["backends"] = err.Error()
			status = "degraded"
		} else {
			checks["backends"] = true
		}

		if lister, ok := s.checker.(JobLister); ok {
			if ids, err := lister.RunningJobs(ctx); err != nil {
				logger.WithError(err).Warn("Listing running jobs failed")
			} else if ids != nil {
				checks["running_jobs"] = len(ids)
			}
		}
	}

	health := HealthResponse{
		Status: status,
		Checks: checks,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(health)
}

// handleGitHubEvent processes a GitHub webhook event. Processing errors are
// logged rather than returned so GitHub does not redeliver.
func (s *Server) handleGitHubEvent(ctx context.Context, ghEvent *webhook.GitHubEvent) error {
	metrics.WebhookReceived()
	entry := logger.WithField("event_type", ghEvent.EventType).WithField("delivery", ghEvent.DeliveryID)

	if ghEvent.EventType == "ping" {
		entry.Info("Received GitHub ping")
		return nil
	}
	if s.eventRouter == nil {
		return nil
	}

	normalized, err := event.NormalizeGitHubEvent(ghEvent)
	if err != nil {
		entry.WithError(err).Debug("Ignoring GitHub event")
		return nil
	}

	if err := s.eventRouter.Route(ctx, normalized); err != nil {
		entry.WithError(err).Error("Failed to handle GitHub comment")
	}
	return nil
}

// handleGitLabEvent processes a GitLab webhook event.
func (s *Server) handleGitLabEvent(ctx context.Context, glEvent *webhook.GitLabEvent) error {
	metrics.WebhookReceived()
	entry := logger.WithField("event_type", glEvent.EventType).WithField("delivery", glEvent.DeliveryID)

	if s.eventRouter == nil {
		return nil
	}

	normalized, err := event.NormalizeGitLabEvent(glEvent)
	if err != nil {
		entry.WithError(err).Debug("Ignoring GitLab event")
		return nil
	}

	if err := s.eventRouter.Route(ctx, normalized); err != nil {
		entry.WithError(err).Error("Failed to handle GitLab note")
	}
	return nil
}

// handleMetrics responds with current operational metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	m := metrics.Get()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(m)
}
