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

// CreateCustomer assigns the next unused id, starting at 1.
func (s *Service) CreateCustomer(ctx context.Context, req domain.CustomerCreateRequest) (domain.CustomerResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.CustomerResponse{}, s.rejected("create_customer", fmt.Errorf("%w: customer name is required", ErrInvalidInput))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.requireTables(ctx, "create_customer", store.TableCustomers); err != nil {
		return domain.CustomerResponse{}, err
	}

	var lastID int64
	for _, c := range s.customers {
		lastID = max(lastID, c.ID)
	}
	customer := domain.Customer{
		ID:      lastID + 1,
		Name:    name,
		Phone:   strings.TrimSpace(req.Phone),
		Address: strings.TrimSpace(req.Address),
	}
	s.customers = append(s.customers, customer)

	b := s.batch(ctx)
	b.append(store.TableCustomers, encodeCustomer(customer))
	s.logger.Info("customer created", zap.Int64("customer_id", customer.ID))
	return domain.CustomerResponse{Customer: customer, Warnings: b.done("create_customer")}, nil
}

func (s *Service) ListCustomers() []domain.Customer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := slices.Clone(s.customers)
	slices.SortStableFunc(out, func(a, b domain.Customer) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

func (s *Service) GetCustomer(id int64) (domain.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	customer, ok := s.findCustomer(id)
	if !ok {
		return domain.Customer{}, ErrCustomerNotFound
	}
	return customer, nil
}

func (s *Service) findCustomer(id int64) (domain.Customer, bool) {
	for _, c := range s.customers {
		if c.ID == id {
			return c, true
		}
	}
	return domain.Customer{}, false
}
