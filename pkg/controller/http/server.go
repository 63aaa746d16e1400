package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/secmon-lab/amlcase/pkg/domain/interfaces"
)

type Server struct {
	router           *chi.Mux
	policy           interfaces.PolicyClient
	noAuthentication bool
	noAuthorization  bool
	enableMetrics    bool
}

type Options func(*Server)

func WithPolicy(policy interfaces.PolicyClient) Options {
	return func(s *Server) {
		s.policy = policy
	}
}

// WithNoAuthentication lets requests without credentials act as the demo analyst.
func WithNoAuthentication(disabled bool) Options {
	return func(s *Server) {
		s.noAuthentication = disabled
	}
}

func WithNoAuthorization(disabled bool) Options {
	return func(s *Server) {
		s.noAuthorization = disabled
	}
}

// WithMetrics exposes the Prometheus registry on /metrics.
func WithMetrics(enabled bool) Options {
	return func(s *Server) {
		s.enableMetrics = enabled
	}
}

func New(uc UseCase, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
	}
	for _, opt := range opts {
		opt(s)
	}

	r.Use(loggingMiddleware)
	r.Use(panicRecoveryMiddleware)
	r.Use(metricsMiddleware)

	r.Get("/health", healthHandler)
	if s.enableMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", loginHandler(uc))

		r.Group(func(r chi.Router) {
			r.Use(authenticate(uc, s.noAuthentication))
			r.Use(authorizeWithPolicy(s.policy, s.noAuthorization))

			r.Route("/cases", func(r chi.Router) {
				r.Get("/", listCasesHandler(uc))
				r.Post("/", createCaseHandler(uc))

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", getCaseHandler(uc))
					r.Post("/assign", assignCaseHandler(uc))
					r.Post("/status", updateStatusHandler(uc))
					r.Post("/decision", setDecisionHandler(uc))
					r.Post("/approve", approveCaseHandler(uc))
					r.Post("/close", closeCaseHandler(uc))

					r.Get("/timeline", timelineHandler(uc))
					r.Get("/comments", listCommentsHandler(uc))
					r.Post("/comments", addCommentHandler(uc))

					r.Post("/attachments/presign", presignAttachmentHandler(uc))
					r.Post("/attachments/complete", completeAttachmentHandler(uc))
					r.Get("/attachments", listAttachmentsHandler(uc))

					r.Post("/evidence-pack", evidencePackHandler(uc))
					r.Get("/export/evidence-pack", evidencePackHandler(uc))
				})
			})

			r.Get("/attachments/{id}/download", downloadAttachmentHandler(uc))
			r.Post("/import/alerts/csv", importAlertsHandler(uc))
			r.Get("/dashboard", dashboardHandler(uc))

			r.Route("/admin", func(r chi.Router) {
				r.Get("/sla-settings", getSLASettingsHandler(uc))
				r.Put("/sla-settings", updateSLASettingsHandler(uc))
				r.Post("/sla-settings", updateSLASettingsHandler(uc))
			})
		})
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
