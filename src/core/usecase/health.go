package usecase

import (
	"context"
	"log/slog"
	"strings"

	"libgate/src/core/ports"
)

// HealthService handles health check logic.
type HealthService struct {
	log  *slog.Logger
	cors ports.CORSEvaluator
}

// NewHealthService creates a new HealthService.
func NewHealthService(cors ports.CORSEvaluator, log *slog.Logger) *HealthService {
	return &HealthService{
		log:  log,
		cors: cors,
	}
}

// HealthStatus represents the health of the application.
type HealthStatus struct {
	Status     string                     `json:"status"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
}

// ComponentHealth represents the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Check performs a health check of all application components.
// A policy with warnings still serves traffic, so it only degrades the status.
func (s *HealthService) Check(_ context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:     "ok",
		Components: make(map[string]ComponentHealth),
	}

	if s.cors == nil {
		status.Status = "degraded"
		status.Components["cors_policy"] = ComponentHealth{
			Status:  "unhealthy",
			Message: "no policy loaded",
		}
		return status
	}

	if warnings := s.cors.Warnings(); len(warnings) > 0 {
		status.Status = "degraded"
		status.Components["cors_policy"] = ComponentHealth{
			Status:  "degraded",
			Message: strings.Join(warnings, "; "),
		}
		return status
	}
	status.Components["cors_policy"] = ComponentHealth{Status: "healthy"}

	return status
}
