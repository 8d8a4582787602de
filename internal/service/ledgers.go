package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"andicblue/backend/internal/cashflow"
	"andicblue/backend/internal/domain"
	"andicblue/backend/internal/store"
)

// AdjustStock applies an operator correction to one product's stock.
func (s *Service) AdjustStock(ctx context.Context, product string, delta int) (domain.InventoryResponse, error) {
	if strings.TrimSpace(product) == "" || delta == 0 {
		return domain.InventoryResponse{}, s.rejected("adjust_stock", fmt.Errorf("%w: product and non-zero delta are required", ErrInvalidInput))
	}
	if _, _, err := s.catalog.Resolve(product); err != nil {
		return domain.InventoryResponse{}, s.rejected("adjust_stock", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireTables(ctx, "adjust_stock", store.TableInventory); err != nil {
		return domain.InventoryResponse{}, err
	}

	entry := s.inventory.AdjustManually(product, delta)

	b := s.batch(ctx)
	b.save(store.TableInventory, encodeInventory(s.inventory.Entries()))
	s.logger.Info("stock adjusted", zap.String("product", entry.ProductName), zap.Int("delta", delta), zap.Int("stock", entry.Stock))
	return domain.InventoryResponse{Entry: entry, Warnings: b.done("adjust_stock")}, nil
}

// MoveFunds records a transfer between payment methods, such as a cash
// withdrawal from a bank account, as a zero-sum pair of cash flow rows.
func (s *Service) MoveFunds(ctx context.Context, req domain.MoveFundsRequest) (domain.CashFlowResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireTables(ctx, "move_funds", store.TableCashFlow); err != nil {
		return domain.CashFlowResponse{}, err
	}

	pair, err := s.cash.MoveFunds(s.now(), req.Amount, NormalizePaymentMethod(req.FromMethod), NormalizePaymentMethod(req.ToMethod), req.Note)
	if err != nil {
		if errors.Is(err, cashflow.ErrInvalidTransfer) {
			err = fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return domain.CashFlowResponse{}, s.rejected("move_funds", err)
	}

	b := s.batch(ctx)
	for _, entry := range pair {
		b.append(store.TableCashFlow, encodeCashFlow(entry, s.loc))
	}
	s.logger.Info("funds moved",
		zap.String("from", pair[0].PaymentMethod),
		zap.String("to", pair[1].PaymentMethod),
		zap.Int64("amount", pair[1].ProductAmountReceived),
	)
	return domain.CashFlowResponse{Entries: pair[:], Warnings: b.done("move_funds")}, nil
}

func (s *Service) AddExpense(ctx context.Context, req domain.ExpenseRequest) (domain.ExpenseResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireTables(ctx, "add_expense", store.TableExpenses); err != nil {
		return domain.ExpenseResponse{}, err
	}

	expense, err := s.cash.AddExpense(s.now(), req.Concept, req.Amount)
	if err != nil {
		if errors.Is(err, cashflow.ErrInvalidExpense) {
			err = fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		return domain.ExpenseResponse{}, s.rejected("add_expense", err)
	}

	b := s.batch(ctx)
	b.append(store.TableExpenses, encodeExpense(expense, s.loc))
	s.logger.Info("expense added", zap.String("concept", expense.Concept), zap.Int64("amount", expense.Amount))
	return domain.ExpenseResponse{Expense: expense, Warnings: b.done("add_expense")}, nil
}

func (s *Service) ListInventory() []domain.InventoryEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.inventory.Sorted()
}

// InventoryValuation prices current stock at catalog prices. Products
// outside the catalog count as units with no value.
func (s *Service) InventoryValuation() domain.InventoryValuation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var v domain.InventoryValuation
	for _, entry := range s.inventory.Entries() {
		v.Products++
		v.TotalUnits += entry.Stock
		v.TotalValue += int64(entry.Stock) * s.catalog.PriceOf(entry.ProductName)
	}
	return v
}

func (s *Service) ListCashFlow() []domain.CashFlowEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cash.Entries()
}

func (s *Service) ListExpenses() []domain.ExpenseEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cash.Expenses()
}

func (s *Service) TotalsByMethod() []domain.MethodTotal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cash.MethodTotals()
}

func (s *Service) CashFlowSummary() domain.CashFlowSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cash.Summary()
}
