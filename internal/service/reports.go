package service

import (
	"slices"
	"time"

	"andicblue/backend/internal/domain"
)

// Dashboard summarizes orders as of now. The current week is the ISO week
// of now in the service location.
func (s *Service) Dashboard(now time.Time) domain.Dashboard {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if now.IsZero() {
		now = s.now()
	}
	_, week := now.In(s.loc).ISOWeek()

	d := domain.Dashboard{CurrentWeek: week, TotalOrders: len(s.orders)}
	for _, o := range s.orders {
		d.TotalIncome += o.AmountPaid
		d.Outstanding += o.Balance
		if o.Status == domain.OrderStatusPending {
			d.PendingOrders++
		}
		if o.DeliveryWeek == week {
			d.OrdersThisWeek++
		}
	}
	return d
}

// IncomeByWeek sums amounts paid per delivery week, ascending by week.
func (s *Service) IncomeByWeek() []domain.WeeklyIncome {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totals := make(map[int]int64)
	for _, o := range s.orders {
		totals[o.DeliveryWeek] += o.AmountPaid
	}
	out := make([]domain.WeeklyIncome, 0, len(totals))
	for week, income := range totals {
		out = append(out, domain.WeeklyIncome{Week: week, Income: income})
	}
	slices.SortFunc(out, func(a, b domain.WeeklyIncome) int { return a.Week - b.Week })
	return out
}
