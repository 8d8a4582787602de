package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"andicblue/backend/internal/domain"
)

func (a *API) handleProducts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"products":     a.service.Products(),
		"delivery_fee": a.service.DeliveryFee(),
	})
}

func (a *API) handleListCustomers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"customers": a.service.ListCustomers()})
}

func (a *API) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req domain.CustomerCreateRequest
	if err := a.decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := a.service.CreateCustomer(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (a *API) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	customer, err := a.service.GetCustomer(id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

func (a *API) handleListOrders(w http.ResponseWriter, r *http.Request) {
	var filter domain.OrderFilter
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		filter.Status = domain.OrderStatus(raw)
		if !filter.Status.Valid() {
			writeError(w, http.StatusBadRequest, fmt.Errorf("unknown status %q", raw))
			return
		}
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("week")); raw != "" {
		week, err := strconv.Atoi(raw)
		if err != nil || week < 1 || week > 53 {
			writeError(w, http.StatusBadRequest, errors.New("week must be between 1 and 53"))
			return
		}
		filter.Week = week
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": a.service.ListOrders(filter)})
}

func (a *API) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateOrderRequest
	if err := a.decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := a.service.CreateOrder(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (a *API) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	resp, err := a.service.GetOrder(id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleEditOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req domain.EditOrderRequest
	if err := a.decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := a.service.EditOrder(r.Context(), id, req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleDeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	resp, err := a.service.DeleteOrder(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleRegisterPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req domain.PaymentRequest
	if err := a.decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := a.service.RegisterPayment(r.Context(), id, req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleListInventory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"inventory": a.service.ListInventory()})
}

func (a *API) handleAdjustStock(w http.ResponseWriter, r *http.Request) {
	var req domain.StockAdjustmentRequest
	if err := a.decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := a.service.AdjustStock(r.Context(), req.Product, req.Delta)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleInventoryValuation(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.service.InventoryValuation())
}

func (a *API) handleListCashFlow(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"entries": a.service.ListCashFlow()})
}

func (a *API) handleMoveFunds(w http.ResponseWriter, r *http.Request) {
	var req domain.MoveFundsRequest
	if err := a.decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := a.service.MoveFunds(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (a *API) handleTotalsByMethod(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"totals": a.service.TotalsByMethod()})
}

func (a *API) handleCashFlowSummary(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.service.CashFlowSummary())
}

func (a *API) handleListExpenses(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"expenses": a.service.ListExpenses()})
}

func (a *API) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var req domain.ExpenseRequest
	if err := a.decodeValid(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := a.service.AddExpense(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// handleDashboard accepts an optional ?date=YYYY-MM-DD to pick the week.
func (a *API) handleDashboard(w http.ResponseWriter, r *http.Request) {
	var at time.Time
	if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, errors.New("date must be YYYY-MM-DD"))
			return
		}
		at = parsed.Add(12 * time.Hour)
	}
	writeJSON(w, http.StatusOK, a.service.Dashboard(at))
}

func (a *API) handleIncomeByWeek(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"weeks": a.service.IncomeByWeek()})
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid id %q", raw))
		return 0, false
	}
	return id, true
}
