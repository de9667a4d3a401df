package handlers

import (
	"log/slog"
	"net/http"
	"sort"
	"time"

	"spotix/internal/services"
	"spotix/internal/store"
	"spotix/models"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
)

// AdminHandler is the operator surface: find references the automated
// paths never settled and force a settle by hand.
type AdminHandler struct {
	store   store.Store
	settler services.Settler
}

func NewAdminHandler(st store.Store, settler services.Settler) *AdminHandler {
	return &AdminHandler{store: st, settler: settler}
}

// GetUnsettled handles GET /api/v1/admin/unsettled?age=30m: unsettled
// references older than the age cutoff, oldest first.
func (h *AdminHandler) GetUnsettled(e *core.RequestEvent) error {
	if !e.HasSuperuserAuth() {
		return apis.NewUnauthorizedError("Superuser access required", nil)
	}

	age := 30 * time.Minute
	if raw := e.Request.URL.Query().Get("age"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil {
			return apis.NewBadRequestError("Invalid age duration", err)
		}
		age = parsed
	}
	cutoff := time.Now().Add(-age)

	refs, err := h.store.StaleReferences(e.Request.Context(), cutoff)
	if err != nil {
		slog.Error("admin: unsettled listing", "error", err)
		return apis.NewInternalServerError("Failed to list unsettled references", err)
	}

	items := staleReferenceRows(refs)
	return e.JSON(http.StatusOK, map[string]any{
		"cutoff": cutoff,
		"count":  len(items),
		"items":  items,
	})
}

// staleReferenceRows shapes the operator listing, oldest first so the
// longest-stuck references surface on top.
func staleReferenceRows(refs []*models.PaymentReference) []map[string]any {
	sort.Slice(refs, func(i, j int) bool {
		return refs[i].CreatedAt.Before(refs[j].CreatedAt)
	})
	out := make([]map[string]any, 0, len(refs))
	for _, r := range refs {
		out = append(out, map[string]any{
			"reference":      r.Reference,
			"payer_id":       r.PayerID,
			"event_id":       r.EventID,
			"ticket_type":    r.TicketType,
			"amount":         r.Amount,
			"payment_method": string(r.Method),
			"created":        r.CreatedAt,
		})
	}
	return out
}

// Reconcile handles POST /api/v1/admin/reconcile: force the settle
// path for one reference. Settlement idempotency makes this safe to
// run against references that resolved in the meantime.
func (h *AdminHandler) Reconcile(e *core.RequestEvent) error {
	if !e.HasSuperuserAuth() {
		return apis.NewUnauthorizedError("Superuser access required", nil)
	}

	var req struct {
		Reference string `json:"reference"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}
	if req.Reference == "" {
		return apis.NewBadRequestError("reference is required", nil)
	}

	res, err := h.settler.Settle(e.Request.Context(), req.Reference, nil)
	if err != nil {
		slog.Error("admin: reconcile", "reference", req.Reference, "error", err)
		return apis.NewBadRequestError("Reconciliation failed: "+err.Error(), nil)
	}

	return e.JSON(http.StatusOK, map[string]any{
		"status":          "success",
		"ticket_id":       res.Ticket.ID,
		"already_settled": res.AlreadySettled,
	})
}
