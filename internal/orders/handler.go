package orders

import (
	"net/http"

	"github.com/aquamarinepk/aqm"
	"github.com/aquamarinepk/aqm/telemetry"
	"github.com/go-chi/chi/v5"
)

// Handler exposes the dashboard's read API over the category cache. The
// cache is the serving surface; the repository is only consulted for
// orders that have not been cached for the requested scope.
type Handler struct {
	logger aqm.Logger
	config *aqm.Config
	tlm    *telemetry.HTTP
	cache  *CategoryCache
	repo   OrderRepo
}

type HandlerDeps struct {
	Cache *CategoryCache
	Repo  OrderRepo
}

func NewHandler(hd HandlerDeps, config *aqm.Config, logger aqm.Logger) *Handler {
	if logger == nil {
		logger = aqm.NewNoopLogger()
	}
	return &Handler{
		logger: logger,
		config: config,
		tlm:    telemetry.NewHTTP(),
		cache:  hd.Cache,
		repo:   hd.Repo,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Get("/", h.ListOrders)
		r.Get("/{number}", h.GetOrder)
		r.Get("/{number}/progress", h.GetOrderProgress)
	})
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.ListOrders")
	defer finish()

	category := r.URL.Query().Get("category")
	switch category {
	case "":
		category = CategoryPending
	case CategoryPending, CategoryCompleted:
	default:
		aqm.RespondError(w, http.StatusBadRequest, "category must be pending or completed")
		return
	}

	if h.cache == nil {
		aqm.RespondError(w, http.StatusServiceUnavailable, "Order cache unavailable")
		return
	}

	orders := h.cache.Load(category, scopeFromRequest(r))
	aqm.RespondCollection(w, orders, "order")
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetOrder")
	defer finish()

	number := chi.URLParam(r, "number")
	order := h.findOrder(r, number)
	if order == nil {
		aqm.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	aqm.RespondSuccess(w, order)
}

// OrderProgress is the per-order completion breakdown served to the
// dashboard detail view.
type OrderProgress struct {
	OrderNumber string         `json:"order_number"`
	Status      string         `json:"order_status"`
	Percent     int            `json:"completion_percentage"`
	Items       []ItemProgress `json:"items"`
}

type ItemProgress struct {
	ItemID   string `json:"item_id"`
	Name     string `json:"name,omitempty"`
	Complete bool   `json:"complete"`
}

func (h *Handler) GetOrderProgress(w http.ResponseWriter, r *http.Request) {
	w, r, finish := h.tlm.Start(w, r, "Handler.GetOrderProgress")
	defer finish()

	number := chi.URLParam(r, "number")
	order := h.findOrder(r, number)
	if order == nil {
		aqm.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}

	progress := OrderProgress{
		OrderNumber: order.Number,
		Status:      DeriveStatus(order),
		Percent:     CompletionPercent(order),
		Items:       make([]ItemProgress, 0, len(order.Items)),
	}
	for _, item := range order.Items {
		progress.Items = append(progress.Items, ItemProgress{
			ItemID:   item.ID,
			Name:     item.Name,
			Complete: ItemComplete(item),
		})
	}

	aqm.RespondSuccess(w, progress)
}

func (h *Handler) findOrder(r *http.Request, number string) *Order {
	if number == "" {
		return nil
	}

	if h.cache != nil {
		if order, _ := h.cache.Find(scopeFromRequest(r), number); order != nil {
			return order
		}
	}

	if h.repo == nil {
		return nil
	}
	order, err := h.repo.GetByNumber(r.Context(), number)
	if err != nil {
		h.log(r).Info("cannot load order from repository", "order_number", number, "error", err)
		return nil
	}
	return order
}

func scopeFromRequest(r *http.Request) Scope {
	team := r.URL.Query().Get("team")
	owner := r.URL.Query().Get("owner")
	if team == "" {
		return GlobalScope()
	}
	return TeamScope(team, owner)
}

func (h *Handler) log(r *http.Request) aqm.Logger {
	return h.logger.With("request_id", r.Context().Value("request_id"))
}
