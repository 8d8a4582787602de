// Package cashflow is the append-only record of realized payment amounts,
// manual fund transfers between payment methods, and expenses.
package cashflow

import (
	"errors"
	"slices"
	"strings"
	"time"

	"andicblue/backend/internal/domain"
)

var ErrInvalidTransfer = errors.New("invalid fund transfer")
var ErrInvalidExpense = errors.New("invalid expense")

// Ledger is not safe for concurrent use; callers serialize mutations.
type Ledger struct {
	entries  []domain.CashFlowEntry
	expenses []domain.ExpenseEntry
}

func New() *Ledger {
	return &Ledger{}
}

func (l *Ledger) Load(entries []domain.CashFlowEntry, expenses []domain.ExpenseEntry) {
	l.entries = slices.Clone(entries)
	l.expenses = slices.Clone(expenses)
}

func (l *Ledger) Record(entry domain.CashFlowEntry) {
	l.entries = append(l.entries, entry)
}

// MoveFunds records a zero-sum pair: -amount on fromMethod and +amount on
// toMethod. The note is kept as the counterparty of both rows.
func (l *Ledger) MoveFunds(at time.Time, amount int64, fromMethod, toMethod, note string) ([2]domain.CashFlowEntry, error) {
	fromMethod = strings.TrimSpace(fromMethod)
	toMethod = strings.TrimSpace(toMethod)
	if amount <= 0 || fromMethod == "" || toMethod == "" || fromMethod == toMethod {
		return [2]domain.CashFlowEntry{}, ErrInvalidTransfer
	}
	note = strings.TrimSpace(note)
	if note == "" {
		note = "Movimiento " + fromMethod + " -> " + toMethod
	}

	pair := [2]domain.CashFlowEntry{
		{Timestamp: at, Counterparty: note, PaymentMethod: fromMethod, ProductAmountReceived: -amount},
		{Timestamp: at, Counterparty: note, PaymentMethod: toMethod, ProductAmountReceived: amount},
	}
	l.entries = append(l.entries, pair[0], pair[1])
	return pair, nil
}

func (l *Ledger) AddExpense(at time.Time, concept string, amount int64) (domain.ExpenseEntry, error) {
	concept = strings.TrimSpace(concept)
	if concept == "" || amount <= 0 {
		return domain.ExpenseEntry{}, ErrInvalidExpense
	}
	expense := domain.ExpenseEntry{Timestamp: at, Concept: concept, Amount: amount}
	l.expenses = append(l.expenses, expense)
	return expense, nil
}

// TotalsByMethod sums product and delivery receipts per payment method.
func (l *Ledger) TotalsByMethod() map[string]int64 {
	totals := make(map[string]int64)
	for _, entry := range l.entries {
		totals[entry.PaymentMethod] += entry.ProductAmountReceived + entry.DeliveryAmountReceived
	}
	return totals
}

// MethodTotals is TotalsByMethod as a slice sorted by method name.
func (l *Ledger) MethodTotals() []domain.MethodTotal {
	totals := l.TotalsByMethod()
	out := make([]domain.MethodTotal, 0, len(totals))
	for method, total := range totals {
		out = append(out, domain.MethodTotal{PaymentMethod: method, Total: total})
	}
	slices.SortFunc(out, func(a, b domain.MethodTotal) int {
		return strings.Compare(a.PaymentMethod, b.PaymentMethod)
	})
	return out
}

func (l *Ledger) Summary() domain.CashFlowSummary {
	var summary domain.CashFlowSummary
	for _, entry := range l.entries {
		summary.TotalProductIncome += entry.ProductAmountReceived
		summary.TotalDeliveryIncome += entry.DeliveryAmountReceived
	}
	for _, expense := range l.expenses {
		summary.TotalExpenses += expense.Amount
	}
	summary.NetBalance = summary.TotalProductIncome + summary.TotalDeliveryIncome - summary.TotalExpenses
	return summary
}

func (l *Ledger) Entries() []domain.CashFlowEntry {
	return slices.Clone(l.entries)
}

func (l *Ledger) Expenses() []domain.ExpenseEntry {
	return slices.Clone(l.expenses)
}
