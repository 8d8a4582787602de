package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"andicblue/backend/internal/domain"
	"andicblue/backend/internal/payment"
	"andicblue/backend/internal/store"
)

// RegisterPayment applies a payment products-first, then delivery. Only the
// amounts actually applied reach the cash flow ledger; any overshoot is
// reported as ExcessUnallocated and otherwise dropped.
func (s *Service) RegisterPayment(ctx context.Context, id int64, req domain.PaymentRequest) (domain.PaymentResponse, error) {
	method := NormalizePaymentMethod(req.PaymentMethod)
	if method == "" {
		return domain.PaymentResponse{}, s.rejected("register_payment", fmt.Errorf("%w: payment method is required", ErrInvalidInput))
	}
	if req.Amount <= 0 {
		return domain.PaymentResponse{}, s.rejected("register_payment", fmt.Errorf("%w: amount must be positive", ErrInvalidInput))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireTables(ctx, "register_payment", store.TableOrders, store.TableCashFlow); err != nil {
		return domain.PaymentResponse{}, err
	}

	idx := s.orderIndex(id)
	if idx < 0 {
		return domain.PaymentResponse{}, s.rejected("register_payment", ErrOrderNotFound)
	}
	order := &s.orders[idx]

	alloc := payment.Allocate(payment.State{
		Subtotal:    order.ProductSubtotal,
		DeliveryFee: order.DeliveryFee,
		Paid:        order.AmountPaid,
	}, req.Amount)

	order.AmountPaid = alloc.NewPaid
	order.Balance = alloc.NewBalance
	order.PaymentMethod = method
	order.Status = statusFor(alloc.NewBalance)

	entry := domain.CashFlowEntry{
		Timestamp:              s.now(),
		OrderID:                order.ID,
		Counterparty:           order.CustomerName,
		PaymentMethod:          method,
		ProductAmountReceived:  alloc.ProductPaidNow,
		DeliveryAmountReceived: alloc.DeliveryPaidNow,
		RemainingBalance:       alloc.NewBalance,
	}
	s.cash.Record(entry)

	b := s.batch(ctx)
	b.save(store.TableOrders, encodeOrders(s.orders, s.loc))
	b.append(store.TableCashFlow, encodeCashFlow(entry, s.loc))

	fields := []zap.Field{
		zap.Int64("order_id", id),
		zap.String("method", method),
		zap.Int64("product_paid", alloc.ProductPaidNow),
		zap.Int64("delivery_paid", alloc.DeliveryPaidNow),
		zap.Int64("balance", alloc.NewBalance),
	}
	if alloc.ExcessUnallocated > 0 {
		s.logger.Warn("payment exceeds balance, excess not allocated", append(fields, zap.Int64("excess", alloc.ExcessUnallocated))...)
	} else {
		s.logger.Info("payment registered", fields...)
	}

	return domain.PaymentResponse{
		OrderID:           id,
		ProductPaidNow:    alloc.ProductPaidNow,
		DeliveryPaidNow:   alloc.DeliveryPaidNow,
		NewBalance:        alloc.NewBalance,
		ExcessUnallocated: alloc.ExcessUnallocated,
		Status:            order.Status,
		AmountPaid:        order.AmountPaid,
		Warnings:          b.done("register_payment"),
	}, nil
}

// NormalizePaymentMethod maps known methods to their canonical spelling,
// case-insensitively. Other labels come back trimmed.
func NormalizePaymentMethod(raw string) string {
	method := strings.TrimSpace(raw)
	for _, known := range domain.KnownPaymentMethods {
		if strings.EqualFold(method, known) {
			return known
		}
	}
	return method
}
