package middleware

import (
	"net/http"
	"strings"
	"time"

	"merchant-acquirer/internal/core/domain"
	"merchant-acquirer/internal/core/ports"

	"github.com/gin-gonic/gin"
)

// AccessAudit records ACCESS audit entries for successful authenticated reads
// of merchant data. Write operations are audited by the services themselves,
// where the guard outcome is known.
func AccessAudit(auditSvc ports.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method != http.MethodGet {
			return
		}
		if c.Writer.Status() != http.StatusOK {
			return
		}

		module := mapPathToModule(c.Request.URL.Path)
		if module == "" {
			return
		}

		var actorID *int64
		if actor, ok := ActorFrom(c); ok {
			id := actor.ID
			actorID = &id
		}

		auditSvc.Record(c.Request.Context(), &domain.AuditLog{
			Action:      domain.AuditActionAccess,
			Outcome:     domain.AuditOutcomeSuccess,
			Module:      module,
			Description: c.Request.Method + " " + c.Request.URL.Path,
			EntityName:  "http request",
			ActorID:     actorID,
			CreatedAt:   time.Now(),
		})
	}
}

func mapPathToModule(path string) string {
	if strings.HasPrefix(path, "/api/v1/merchants") {
		return "Merchants"
	}
	return ""
}
