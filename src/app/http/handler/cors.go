package handler

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"libgate/src/app/http/dto"
	"libgate/src/app/http/response"
	"libgate/src/app/middleware"
	"libgate/src/core/domain"
	"libgate/src/core/ports"
)

// CORSHandler exposes the active CORS policy for inspection.
type CORSHandler struct {
	cors ports.CORSEvaluator
}

// NewCORSHandler creates a new CORSHandler.
func NewCORSHandler(cors ports.CORSEvaluator) *CORSHandler {
	return &CORSHandler{cors: cors}
}

// Policy returns the active policy and its warnings.
// GET /v1/cors/policy
func (h *CORSHandler) Policy(c *gin.Context) {
	response.OK(c, dto.NewPolicyResponse(h.cors.Policy(), h.cors.Warnings()))
}

// Evaluate runs the policy against a described request without applying
// the result, so frontend developers can see why a browser blocks a call.
// POST /v1/cors/evaluate
func (h *CORSHandler) Evaluate(c *gin.Context) {
	var req dto.EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromDomainError(c, bindingError(err), middleware.GetRequestID(c))
		return
	}

	decision := h.cors.Evaluate(req.ToDomain())
	response.OK(c, dto.DecisionResponse{}.FromDomain(decision))
}

// bindingError turns a gin binding failure into a domain validation error.
func bindingError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := strings.ToLower(fe.Field())
		if fe.Tag() == "required" {
			return domain.NewValidationError(field, "is required")
		}
		return domain.NewValidationError(field, "failed "+fe.Tag()+" check")
	}
	return domain.NewValidationError("body", "invalid JSON payload")
}
