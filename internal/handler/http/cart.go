package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BadarHossain1/harris-vale-storefront/internal/backend"
	"github.com/BadarHossain1/harris-vale-storefront/internal/cart"
	"github.com/BadarHossain1/harris-vale-storefront/internal/event"
	"github.com/BadarHossain1/harris-vale-storefront/internal/identity"
	"github.com/BadarHossain1/harris-vale-storefront/pkg/httputil"
	"github.com/BadarHossain1/harris-vale-storefront/pkg/validator"
)

// LineAdder places new lines in the remote cart store.
type LineAdder interface {
	AddLine(ctx context.Context, actor identity.Actor, req backend.AddLineRequest) error
}

// CartHandler exposes the actor's cart mirror over HTTP. Destructive
// operations require confirm=true, the transport form of the confirmation
// dialog; without it nothing is sent to the remote store.
type CartHandler struct {
	manager *cart.Manager
	store   LineAdder
	events  *event.Producer
	logger  *slog.Logger
}

// NewCartHandler creates a cart HTTP handler.
func NewCartHandler(manager *cart.Manager, store LineAdder, events *event.Producer, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		manager: manager,
		store:   store,
		events:  events,
		logger:  logger,
	}
}

// AddItemRequest is the JSON request body for adding an item to the cart.
type AddItemRequest struct {
	ProductID string  `json:"productId" validate:"required"`
	Name      string  `json:"name" validate:"required,min=1,max=500"`
	Price     float64 `json:"price" validate:"gte=0"`
	Image     string  `json:"image"`
	Size      string  `json:"size" validate:"required,oneof=M L XL XXL"`
	Quantity  int     `json:"quantity" validate:"required,gte=1"`
}

// ChangeQuantityRequest is the JSON request body for a quantity delta.
type ChangeQuantityRequest struct {
	Delta int `json:"delta" validate:"required"`
}

// cartResponse is the snapshot plus any queued notices.
type cartResponse struct {
	Lines      []cart.Line `json:"lines"`
	TotalItems int         `json:"totalItems"`
	TotalPrice float64     `json:"totalPrice"`
	Updating   bool        `json:"updating"`
}

// confirmed reads the confirm=true parameter standing in for the browser's
// confirmation dialog.
func confirmed(r *http.Request) cart.Confirmer {
	ok := r.URL.Query().Get("confirm") == "true"
	return cart.ConfirmFunc(func(string) bool { return ok })
}

// GetCart handles GET /api/storefront/cart. Always 200; a failed fetch
// renders as an empty cart.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	actor, _ := identity.FromContext(r.Context())
	engine, notices := h.manager.Session(actor.ID)

	snap := engine.Load(r.Context(), actor)
	h.writeSnapshot(w, engine, snap, notices)
}

// AddItem handles POST /api/storefront/cart/items.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	actor, _ := identity.FromContext(r.Context())
	engine, notices := h.manager.Session(actor.ID)

	var req AddItemRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	err := h.store.AddLine(r.Context(), actor, backend.AddLineRequest{
		ProductID: req.ProductID,
		Name:      req.Name,
		Price:     req.Price,
		Image:     req.Image,
		Size:      cart.Size(req.Size),
		Quantity:  req.Quantity,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	// Refresh the mirror so the new line and its store-assigned ID appear.
	snap := engine.Load(r.Context(), actor)
	h.publishUpdated(r, actor, snap)
	h.writeSnapshot(w, engine, snap, notices)
}

// ChangeQuantity handles PATCH /api/storefront/cart/items/{lineId} with a
// body of {"delta": n}. A delta that would drop the quantity below 1 routes
// through the remove path, which requires confirm=true.
func (h *CartHandler) ChangeQuantity(w http.ResponseWriter, r *http.Request) {
	actor, _ := identity.FromContext(r.Context())
	engine, notices := h.manager.Session(actor.ID)
	lineID := chi.URLParam(r, "lineId")

	var req ChangeQuantityRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	if err := engine.ChangeQuantity(r.Context(), lineID, req.Delta, confirmed(r)); err != nil {
		h.writeCartError(w, r, err)
		return
	}

	snap := engine.Snapshot()
	h.publishUpdated(r, actor, snap)
	h.writeSnapshot(w, engine, snap, notices)
}

// RemoveItem handles DELETE /api/storefront/cart/items/{lineId}.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	actor, _ := identity.FromContext(r.Context())
	engine, notices := h.manager.Session(actor.ID)
	lineID := chi.URLParam(r, "lineId")

	if err := engine.RemoveLine(r.Context(), lineID, confirmed(r)); err != nil {
		h.writeCartError(w, r, err)
		return
	}

	snap := engine.Snapshot()
	h.publishUpdated(r, actor, snap)
	h.writeSnapshot(w, engine, snap, notices)
}

// ClearCart handles DELETE /api/storefront/cart.
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	actor, _ := identity.FromContext(r.Context())
	engine, notices := h.manager.Session(actor.ID)

	if err := engine.Clear(r.Context(), actor, confirmed(r)); err != nil {
		h.writeCartError(w, r, err)
		return
	}

	if err := h.events.PublishCartCleared(r.Context(), actor.ID, actor.IsGuest()); err != nil {
		h.logger.WarnContext(r.Context(), "cart.cleared publish failed", slog.String("error", err.Error()))
	}

	h.writeSnapshot(w, engine, engine.Snapshot(), notices)
}

// publishUpdated emits the analytics event; a broker failure is logged, never
// surfaced to the shopper.
func (h *CartHandler) publishUpdated(r *http.Request, actor identity.Actor, snap cart.Snapshot) {
	if err := h.events.PublishCartUpdated(r.Context(), actor.ID, actor.IsGuest(), snap); err != nil {
		h.logger.WarnContext(r.Context(), "cart.updated publish failed", slog.String("error", err.Error()))
	}
}

// writeSnapshot renders the mirror with its notices drained into the envelope.
func (h *CartHandler) writeSnapshot(w http.ResponseWriter, engine *cart.Engine, snap cart.Snapshot, notices *cart.NoticeQueue) {
	resp := httputil.Response{
		Data: cartResponse{
			Lines:      snap.Lines,
			TotalItems: snap.TotalItems,
			TotalPrice: snap.TotalPrice,
			Updating:   engine.Updating(),
		},
	}
	for _, n := range notices.Drain() {
		resp.Notices = append(resp.Notices, httputil.Notice{Level: string(n.Level), Message: n.Message})
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// writeCartError maps engine sentinels onto their HTTP statuses. The
// declined-confirmation case still drains nothing; the mirror is untouched.
func (h *CartHandler) writeCartError(w http.ResponseWriter, r *http.Request, err error) {
	switch err {
	case cart.ErrNotConfirmed:
		httputil.WriteJSON(w, http.StatusConflict, httputil.Response{
			Error: &httputil.ErrorResponse{
				Code:    "CONFIRM_REQUIRED",
				Message: "this action requires confirmation; retry with confirm=true",
			},
		})
	case cart.ErrBusy:
		httputil.WriteJSON(w, http.StatusConflict, httputil.Response{
			Error: &httputil.ErrorResponse{
				Code:    "CART_BUSY",
				Message: "another cart update is in progress",
			},
		})
	default:
		httputil.WriteError(w, r, err, h.logger)
	}
}
