package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"libgate/src/core/domain"
	"libgate/src/core/ports"
)

// CORSDecisionKey is the context key holding the domain.CORSDecision of the request.
const CORSDecisionKey = "cors_decision"

// CORS applies the evaluator's decision to every request.
//
// Preflights never reach route handlers: an allowed preflight is answered
// with the policy's preflight status, a rejected one with 403 and no CORS
// headers. Actual requests always continue down the chain; when rejected
// they simply carry no CORS headers and the browser blocks the response.
//
// Usage:
//
//	router.Use(middleware.CORS(corsService))
func CORS(evaluator ports.CORSEvaluator) gin.HandlerFunc {
	okStatus := evaluator.Policy().PreflightStatus
	if okStatus == 0 {
		okStatus = domain.DefaultPreflightStatus
	}

	return func(c *gin.Context) {
		decision := evaluator.Evaluate(domain.NewCORSRequest(c.Request))
		c.Set(CORSDecisionKey, decision)

		resHdrs := c.Writer.Header()
		for name, values := range decision.Headers {
			if name == domain.HeaderVary {
				// Outer middleware may have set Vary already.
				for _, v := range values {
					resHdrs.Add(name, v)
				}
				continue
			}
			resHdrs[name] = values
		}

		if decision.Terminal() {
			if decision.Allowed() {
				c.AbortWithStatus(okStatus)
			} else {
				c.AbortWithStatus(http.StatusForbidden)
			}
			return
		}

		c.Next()
	}
}

// GetCORSDecision retrieves the decision stored by CORS.
func GetCORSDecision(c *gin.Context) (domain.CORSDecision, bool) {
	v, exists := c.Get(CORSDecisionKey)
	if !exists {
		return domain.CORSDecision{}, false
	}
	d, ok := v.(domain.CORSDecision)
	return d, ok
}
