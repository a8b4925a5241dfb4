// internal/app/features/auditlog/handler.go
package auditlog

import (
	"github.com/dalemusser/collabhub/internal/app/collab"
	"github.com/dalemusser/collabhub/internal/app/store/audit"
	"go.uber.org/zap"
)

// Handler serves the sharing history of notes and tasks from the audit
// store.
type Handler struct {
	Store *audit.Store
	Gate  collab.Gate
	Log   *zap.Logger
}

// NewHandler constructs an audit history handler.
func NewHandler(store *audit.Store, gate collab.Gate, logger *zap.Logger) *Handler {
	return &Handler{
		Store: store,
		Gate:  gate,
		Log:   logger,
	}
}
