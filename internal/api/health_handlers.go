package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server health status with component checks",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Response time for this component"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	components := map[string]ComponentHealth{
		"database": s.checkDatabase(ctx),
		"search":   s.checkSearchIndex(),
	}

	overall := statusHealthy
	for _, c := range components {
		switch {
		case c.Status == statusUnhealthy:
			overall = statusUnhealthy
		case c.Status == statusDegraded && overall == statusHealthy:
			overall = statusDegraded
		}
	}

	return &HealthOutput{
		Body: HealthResponse{
			Status:     overall,
			Components: components,
		},
	}, nil
}

// checkDatabase verifies SQLite answers a ping.
func (s *Server) checkDatabase(ctx context.Context) ComponentHealth {
	if s.store == nil {
		return ComponentHealth{Status: statusDegraded, Message: "database not configured"}
	}

	start := time.Now()
	err := s.store.Ping(ctx)
	latency := time.Since(start)

	if err != nil {
		return ComponentHealth{
			Status:  statusUnhealthy,
			Latency: latency.String(),
			Message: "database ping failed",
		}
	}
	return ComponentHealth{Status: statusHealthy, Latency: latency.String()}
}

// checkSearchIndex verifies the Bleve index is accessible. Search is
// optional, so a missing index only degrades the server.
func (s *Server) checkSearchIndex() ComponentHealth {
	if s.services == nil || s.services.Search == nil {
		return ComponentHealth{Status: statusDegraded, Message: "search index not configured"}
	}

	start := time.Now()
	docCount, err := s.services.Search.DocumentCount()
	latency := time.Since(start)

	if err != nil {
		return ComponentHealth{
			Status:  statusDegraded,
			Latency: latency.String(),
			Message: "search index unreachable",
		}
	}

	return ComponentHealth{
		Status:  statusHealthy,
		Latency: latency.String(),
		Message: formatCount(docCount, "document"),
	}
}
