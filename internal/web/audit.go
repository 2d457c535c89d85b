package web

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/erazemk/logistika/internal/logging"
	"github.com/erazemk/logistika/internal/model"
	"github.com/erazemk/logistika/internal/store"
)

// AuditPage handles GET /dashboard/audit.
func (s *Server) AuditPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.AuditFilter{
		EntityType: q.Get("entityType"),
		EntityID:   q.Get("entityId"),
	}
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		f.Limit = min(n, 1000)
	}

	entries, err := store.ListAudit(r.Context(), s.DB, f)
	if err != nil {
		logging.FromContext(r.Context()).Error("listing audit log", zap.Error(err))
	}

	s.Templates.Render(w, r, "audit.html", &struct {
		PageData
		Entries []model.AuditEntry
		Filter  store.AuditFilter
	}{
		PageData: pageData(r, "Audit log", "audit"),
		Entries:  entries,
		Filter:   f,
	})
}
