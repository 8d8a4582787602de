package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/unrolled/secure"
	"go.uber.org/zap"

	"andicblue/backend/internal/catalog"
	"andicblue/backend/internal/observability"
	"andicblue/backend/internal/service"
)

type Options struct {
	AllowedOrigin string
	// RateLimit is requests per minute per client IP; 0 disables limiting.
	RateLimit int
	Metrics   *observability.Metrics
	Logger    *zap.Logger
}

type API struct {
	service  *service.Service
	validate *validator.Validate
	opts     Options
	logger   *zap.Logger
}

func New(svc *service.Service, opts Options) *API {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{
		service:  svc,
		validate: validator.New(),
		opts:     opts,
		logger:   logger,
	}
}

func (a *API) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(middleware.RealIP)
	r.Use(a.recoverer)
	r.Use(a.opts.Metrics.Middleware)
	r.Use(a.accessLog)
	r.Use(secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'none'",
		IsDevelopment:         true,
	}).Handler)
	r.Use(a.cors)

	r.Get("/healthz", a.handleHealth)
	r.Handle("/metrics", a.opts.Metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if a.opts.RateLimit > 0 {
			r.Use(httprate.Limit(a.opts.RateLimit, time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
					writeError(w, http.StatusTooManyRequests, errors.New("too many requests"))
				}),
			))
		}

		r.Get("/products", a.handleProducts)

		r.Get("/customers", a.handleListCustomers)
		r.Post("/customers", a.handleCreateCustomer)
		r.Get("/customers/{id}", a.handleGetCustomer)

		r.Get("/orders", a.handleListOrders)
		r.Post("/orders", a.handleCreateOrder)
		r.Get("/orders/{id}", a.handleGetOrder)
		r.Put("/orders/{id}", a.handleEditOrder)
		r.Delete("/orders/{id}", a.handleDeleteOrder)
		r.Post("/orders/{id}/payments", a.handleRegisterPayment)

		r.Get("/inventory", a.handleListInventory)
		r.Post("/inventory/adjustments", a.handleAdjustStock)
		r.Get("/inventory/valuation", a.handleInventoryValuation)

		r.Get("/cashflow", a.handleListCashFlow)
		r.Post("/cashflow/transfers", a.handleMoveFunds)
		r.Get("/cashflow/totals", a.handleTotalsByMethod)
		r.Get("/cashflow/summary", a.handleCashFlowSummary)

		r.Get("/expenses", a.handleListExpenses)
		r.Post("/expenses", a.handleAddExpense)

		r.Get("/reports/dashboard", a.handleDashboard)
		r.Get("/reports/income-by-week", a.handleIncomeByWeek)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, errors.New("route not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeMethodNotAllowed(w)
	})
	return r
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(middleware.RequestIDHeader))
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		w.Header().Set(middleware.RequestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *API) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		a.logger.Info("request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (a *API) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				a.logger.Error("panic serving request",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.Any("panic", rec),
					zap.Stack("stack"),
				)
				writeError(w, http.StatusInternalServerError, errors.New("panic"))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (a *API) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")
		w.Header().Set("Access-Control-Allow-Origin", a.opts.AllowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-Id")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Vary", "Origin")

		if r.Method == http.MethodPost || r.Method == http.MethodPut {
			r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

// statusFor maps service errors onto HTTP codes.
func statusFor(err error) int {
	var validationErrs validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrCustomerNotFound), errors.Is(err, service.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrEmptyOrder), errors.Is(err, service.ErrInvalidInput), errors.As(err, &validationErrs):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrUnknownProduct):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrStorageUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= 500 {
		a.logger.Error("internal error",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
	}
	writeError(w, status, err)
}

// decodeValid decodes a JSON body and runs struct validation on it.
func (a *API) decodeValid(r *http.Request, dest any) error {
	if err := decodeJSON(r, dest); err != nil {
		return err
	}
	return a.validate.Struct(dest)
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dest); err != nil {
		return err
	}
	return nil
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, errors.New("method not allowed"))
}

func writeError(w http.ResponseWriter, status int, err error) {
	// 5xx bodies stay generic; the detail goes to the log.
	msg := err.Error()
	switch {
	case status == http.StatusServiceUnavailable:
		msg = "storage unavailable, retry later"
	case status >= 500:
		msg = "internal server error"
	}
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
