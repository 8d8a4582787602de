package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"andicblue/backend/internal/domain"
	"andicblue/backend/internal/store"
)

// CreateOrder prices the cart, stores header and lines, and takes the
// quantities out of inventory.
// orderTables are read and rewritten when an order is created or edited.
var orderTables = []string{store.TableCustomers, store.TableOrders, store.TableOrderLines, store.TableInventory, store.TableSequences}

func (s *Service) CreateOrder(ctx context.Context, req domain.CreateOrderRequest) (domain.OrderResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireTables(ctx, "create_order", orderTables...); err != nil {
		return domain.OrderResponse{}, err
	}

	customer, ok := s.findCustomer(req.CustomerID)
	if !ok {
		return domain.OrderResponse{}, s.rejected("create_order", ErrCustomerNotFound)
	}
	items, err := s.normalizeItems(req.Items)
	if err != nil {
		return domain.OrderResponse{}, s.rejected("create_order", err)
	}

	now := s.now()
	weekOf := now
	if req.DeliveryDate != nil && !req.DeliveryDate.IsZero() {
		weekOf = req.DeliveryDate.At(s.loc)
	}
	_, week := weekOf.ISOWeek()

	s.lastOrderID++
	order := domain.Order{
		ID:           s.lastOrderID,
		CreatedAt:    now,
		CustomerID:   customer.ID,
		CustomerName: customer.Name,
		Status:       domain.OrderStatusPending,
		DeliveryWeek: week,
	}
	if req.IncludeDelivery {
		order.DeliveryFee = s.deliveryFee
	}

	lines := buildLines(order.ID, items)
	order.ProductSubtotal = subtotal(lines)
	order.Total = order.ProductSubtotal + order.DeliveryFee
	order.Balance = order.Total - order.AmountPaid

	s.orders = append(s.orders, order)
	s.lines = append(s.lines, lines...)
	for _, line := range lines {
		s.inventory.ApplyDelta(line.ProductName, -line.Quantity)
	}
	s.inventory.Consolidate()

	b := s.batch(ctx)
	s.persistOrders(b, true)
	s.logger.Info("order created",
		zap.Int64("order_id", order.ID),
		zap.Int64("customer_id", customer.ID),
		zap.Int64("total", order.Total),
		zap.Int("lines", len(lines)),
	)
	return domain.OrderResponse{Order: order, Lines: lines, Warnings: b.done("create_order")}, nil
}

// EditOrder reverts the old lines into inventory, replaces them and
// recomputes totals against the existing amount paid. Status only changes
// when the caller sets it.
func (s *Service) EditOrder(ctx context.Context, id int64, req domain.EditOrderRequest) (domain.OrderResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireTables(ctx, "edit_order", orderTables...); err != nil {
		return domain.OrderResponse{}, err
	}

	idx := s.orderIndex(id)
	if idx < 0 {
		return domain.OrderResponse{}, s.rejected("edit_order", ErrOrderNotFound)
	}
	if req.Status != nil && !req.Status.Valid() {
		return domain.OrderResponse{}, s.rejected("edit_order", fmt.Errorf("%w: status %q", ErrInvalidInput, *req.Status))
	}
	if req.DeliveryWeek != nil && (*req.DeliveryWeek < 1 || *req.DeliveryWeek > 53) {
		return domain.OrderResponse{}, s.rejected("edit_order", fmt.Errorf("%w: delivery week %d", ErrInvalidInput, *req.DeliveryWeek))
	}
	items, err := s.normalizeItems(req.Items)
	if err != nil {
		return domain.OrderResponse{}, s.rejected("edit_order", err)
	}

	for _, line := range s.linesOf(id) {
		s.inventory.ApplyDelta(line.ProductName, line.Quantity)
	}
	s.removeLines(id)

	lines := buildLines(id, items)
	s.lines = append(s.lines, lines...)
	for _, line := range lines {
		s.inventory.ApplyDelta(line.ProductName, -line.Quantity)
	}
	s.inventory.Consolidate()

	order := &s.orders[idx]
	order.ProductSubtotal = subtotal(lines)
	if req.IncludeDelivery != nil {
		order.DeliveryFee = 0
		if *req.IncludeDelivery {
			order.DeliveryFee = s.deliveryFee
		}
	}
	order.Total = order.ProductSubtotal + order.DeliveryFee
	order.Balance = order.Total - order.AmountPaid
	if req.DeliveryWeek != nil {
		order.DeliveryWeek = *req.DeliveryWeek
	}
	if req.Status != nil {
		order.Status = *req.Status
	}
	edited := *order

	b := s.batch(ctx)
	s.persistOrders(b, true)
	s.logger.Info("order edited",
		zap.Int64("order_id", id),
		zap.Int64("total", edited.Total),
		zap.Int64("balance", edited.Balance),
	)
	return domain.OrderResponse{Order: edited, Lines: lines, Warnings: b.done("edit_order")}, nil
}

// DeleteOrder puts every line quantity back into inventory and drops the
// order with its lines. The id is never handed out again.
func (s *Service) DeleteOrder(ctx context.Context, id int64) (domain.DeleteOrderResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireTables(ctx, "delete_order", store.TableOrders, store.TableOrderLines, store.TableInventory); err != nil {
		return domain.DeleteOrderResponse{}, err
	}

	idx := s.orderIndex(id)
	if idx < 0 {
		return domain.DeleteOrderResponse{}, s.rejected("delete_order", ErrOrderNotFound)
	}

	lines := s.linesOf(id)
	for _, line := range lines {
		s.inventory.ApplyDelta(line.ProductName, line.Quantity)
	}
	s.inventory.Consolidate()
	s.removeLines(id)
	s.orders = slices.Delete(s.orders, idx, idx+1)

	restored := make([]domain.InventoryEntry, 0, len(lines))
	seen := make(map[string]bool, len(lines))
	for _, line := range lines {
		name := s.catalog.Canonicalize(line.ProductName)
		if seen[name] {
			continue
		}
		seen[name] = true
		restored = append(restored, domain.InventoryEntry{ProductName: name, Stock: s.inventory.Stock(name)})
	}

	b := s.batch(ctx)
	s.persistOrders(b, false)
	s.logger.Info("order deleted", zap.Int64("order_id", id), zap.Int("lines", len(lines)))
	return domain.DeleteOrderResponse{OrderID: id, Restored: restored, Warnings: b.done("delete_order")}, nil
}

func (s *Service) GetOrder(id int64) (domain.OrderResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := s.orderIndex(id)
	if idx < 0 {
		return domain.OrderResponse{}, ErrOrderNotFound
	}
	return domain.OrderResponse{Order: s.orders[idx], Lines: s.linesOf(id)}, nil
}

// ListOrders returns newest orders first. Zero filter fields match all.
func (s *Service) ListOrders(filter domain.OrderFilter) []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Order, 0, len(s.orders))
	for _, o := range s.orders {
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.Week != 0 && o.DeliveryWeek != filter.Week {
			continue
		}
		out = append(out, o)
	}
	slices.SortStableFunc(out, func(a, b domain.Order) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	})
	return out
}

type cartLine struct {
	name     string
	price    int64
	quantity int
}

// normalizeItems canonicalizes product names, drops non-positive
// quantities and merges items that resolve to the same product.
func (s *Service) normalizeItems(items []domain.CartItem) ([]cartLine, error) {
	out := make([]cartLine, 0, len(items))
	index := make(map[string]int, len(items))
	for _, item := range items {
		if item.Quantity <= 0 || strings.TrimSpace(item.Product) == "" {
			continue
		}
		name, price, err := s.catalog.Resolve(item.Product)
		if err != nil {
			return nil, err
		}
		if pos, ok := index[name]; ok {
			out[pos].quantity += item.Quantity
			continue
		}
		index[name] = len(out)
		out = append(out, cartLine{name: name, price: price, quantity: item.Quantity})
	}
	if len(out) == 0 {
		return nil, ErrEmptyOrder
	}
	return out, nil
}

func buildLines(orderID int64, items []cartLine) []domain.OrderLine {
	lines := make([]domain.OrderLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, domain.OrderLine{
			OrderID:      orderID,
			ProductName:  item.name,
			Quantity:     item.quantity,
			UnitPrice:    item.price,
			LineSubtotal: int64(item.quantity) * item.price,
		})
	}
	return lines
}

func subtotal(lines []domain.OrderLine) int64 {
	var total int64
	for _, line := range lines {
		total += line.LineSubtotal
	}
	return total
}

func statusFor(balance int64) domain.OrderStatus {
	if balance == 0 {
		return domain.OrderStatusDelivered
	}
	return domain.OrderStatusPending
}

func (s *Service) orderIndex(id int64) int {
	return slices.IndexFunc(s.orders, func(o domain.Order) bool { return o.ID == id })
}

func (s *Service) linesOf(id int64) []domain.OrderLine {
	var out []domain.OrderLine
	for _, line := range s.lines {
		if line.OrderID == id {
			out = append(out, line)
		}
	}
	return out
}

func (s *Service) removeLines(id int64) {
	s.lines = slices.DeleteFunc(s.lines, func(l domain.OrderLine) bool { return l.OrderID == id })
}

// persistOrders rewrites the order tables and inventory, plus the id
// sequence when a new id may have been issued.
func (s *Service) persistOrders(b *writeBatch, withSequence bool) {
	b.save(store.TableOrders, encodeOrders(s.orders, s.loc))
	b.save(store.TableOrderLines, encodeOrderLines(s.lines))
	b.save(store.TableInventory, encodeInventory(s.inventory.Entries()))
	if withSequence {
		b.save(store.TableSequences, encodeSequence(sequenceOrders, s.lastOrderID))
	}
}
