package catalog

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"ProductDesk/internal/product"
	"ProductDesk/pkg/kit"
)

const (
	maxBodyBytes = 1 << 20

	HeaderPersisted = "X-Persisted"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type Server struct {
	Store *Store
	Log   *zap.Logger
}

type createReq struct {
	product.Input
	Count *int `json:"count" validate:"omitempty,max=1000"`
}

type searchModeReq struct {
	Mode string `json:"mode" validate:"required,oneof=title category"`
}

type searchModeResp struct {
	Mode SearchMode `json:"mode"`
}

type totalReq struct {
	Price     product.Amount `json:"price"`
	Tax       product.Amount `json:"tax"`
	AdsCost   product.Amount `json:"adsCost"`
	Reduction product.Amount `json:"reduction"`
}

type productView struct {
	product.Product
	Total   float64 `json:"total"`
	IsValid bool    `json:"isValid"`
}

func viewOf(p product.Product) productView {
	t := p.Total()
	return productView{Product: p, Total: t.Total, IsValid: t.IsValid}
}

func viewsOf(ps []product.Product) []productView {
	out := make([]productView, 0, len(ps))
	for _, p := range ps {
		out = append(out, viewOf(p))
	}
	return out
}

func (s *Server) readRoutes(r chi.Router) {
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/readyz", s.ready)

	r.Get("/products", s.list)
	r.Get("/products/{id}", s.get)
	r.Get("/search-mode", s.getSearchMode)
	r.Post("/totals", s.total)
}

func (s *Server) writeRoutes(r chi.Router) {
	r.Post("/products", s.create)
	r.Put("/products/{id}", s.update)
	r.Delete("/products/{id}", s.delete)
	r.Put("/search-mode", s.setSearchMode)
}

// Routes serves the catalog without write protection or rate limiting.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	s.readRoutes(r)
	s.writeRoutes(r)
	return r
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
	defer cancel()

	if err := s.Store.Ping(ctx); err != nil {
		s.logger().Warn("readyz failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	kit.WriteJSON(w, http.StatusOK, viewsOf(s.Store.Search(r.URL.Query().Get("q"))))
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	p, found := s.Store.Find(id)
	if !found {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, viewOf(p))
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var req createReq
	if !s.decodeValid(w, r, &req) {
		return
	}

	count := 1
	if req.Count != nil {
		count = *req.Count
	}

	created, err := s.Store.Add(r.Context(), product.New(req.Input), count)
	if !s.markPersisted(w, r, err) {
		return
	}
	kit.WriteJSON(w, http.StatusCreated, viewsOf(created))
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var in product.Input
	if !s.decodeValid(w, r, &in) {
		return
	}

	p, err := s.Store.Update(r.Context(), id, product.New(in))
	if errors.Is(err, ErrNotFound) {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	if !s.markPersisted(w, r, err) {
		return
	}
	kit.WriteJSON(w, http.StatusOK, viewOf(p))
}

func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	remaining, err := s.Store.Delete(r.Context(), id)
	if !s.markPersisted(w, r, err) {
		return
	}
	kit.WriteJSON(w, http.StatusOK, viewsOf(remaining))
}

func (s *Server) getSearchMode(w http.ResponseWriter, _ *http.Request) {
	kit.WriteJSON(w, http.StatusOK, searchModeResp{Mode: s.Store.SearchMode()})
}

func (s *Server) setSearchMode(w http.ResponseWriter, r *http.Request) {
	var req searchModeReq
	if !s.decodeValid(w, r, &req) {
		return
	}

	err := s.Store.SetSearchMode(r.Context(), SearchMode(req.Mode))
	if !s.markPersisted(w, r, err) {
		return
	}
	kit.WriteJSON(w, http.StatusOK, searchModeResp{Mode: s.Store.SearchMode()})
}

func (s *Server) total(w http.ResponseWriter, r *http.Request) {
	var req totalReq
	if !s.decodeValid(w, r, &req) {
		return
	}
	kit.WriteJSON(w, http.StatusOK, product.ComputeTotal(
		req.Price.Float(), req.Tax.Float(), req.AdsCost.Float(), req.Reduction.Float(),
	))
}

func (s *Server) decodeValid(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := kit.DecodeJSON(w, r, maxBodyBytes, v); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
		return false
	}

	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = "failed on rule: " + fe.Tag()
			}
			kit.WriteError(w, r, http.StatusBadRequest, "validation failed", fields)
			return false
		}
		kit.WriteError(w, r, http.StatusBadRequest, "bad request", nil)
		return false
	}
	return true
}

// markPersisted flags a change that stuck in memory but not in storage. Any
// other error ends the request.
func (s *Server) markPersisted(w http.ResponseWriter, r *http.Request, err error) bool {
	switch {
	case err == nil:
		w.Header().Set(HeaderPersisted, "true")
		return true
	case errors.Is(err, ErrPersist):
		w.Header().Set(HeaderPersisted, "false")
		return true
	case errors.Is(err, ErrBadSearchMode):
		kit.WriteError(w, r, http.StatusBadRequest, "unknown search mode", nil)
		return false
	default:
		s.logger().Error("catalog mutation failed", zap.Error(err))
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return false
	}
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid id", map[string]any{"id": raw})
		return 0, false
	}
	return id, true
}
