package service

import (
	"math"
	"strconv"
	"strings"
	"time"

	"andicblue/backend/internal/domain"
	"andicblue/backend/internal/store"
)

const timestampLayout = "2006-01-02 15:04:05"

const sequenceOrders = "pedidos"

// parseInt reads integer cells, including float renderings such as
// "20000.0" left behind by spreadsheet exports. Blank or garbage reads as 0.
func parseInt(cell string) int64 {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return 0
	}
	if n, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int64(math.Round(f))
}

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}

func parseTime(cell string, loc *time.Location) time.Time {
	cell = strings.TrimSpace(cell)
	for _, layout := range []string{timestampLayout, time.RFC3339, "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, cell, loc); err == nil {
			return t
		}
	}
	return time.Time{}
}

func formatTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format(timestampLayout)
}

func decodeCustomers(rows []store.Row) []domain.Customer {
	out := make([]domain.Customer, 0, len(rows))
	for _, row := range rows {
		id := parseInt(row[0])
		if id <= 0 {
			continue
		}
		out = append(out, domain.Customer{ID: id, Name: row[1], Phone: row[2], Address: row[3]})
	}
	return out
}

func encodeCustomer(c domain.Customer) store.Row {
	return store.Row{formatInt(c.ID), c.Name, c.Phone, c.Address}
}

func decodeOrders(rows []store.Row, loc *time.Location) []domain.Order {
	out := make([]domain.Order, 0, len(rows))
	for _, row := range rows {
		id := parseInt(row[0])
		if id <= 0 {
			continue
		}
		order := domain.Order{
			ID:              id,
			CreatedAt:       parseTime(row[1], loc),
			CustomerID:      parseInt(row[2]),
			CustomerName:    row[3],
			ProductSubtotal: parseInt(row[4]),
			DeliveryFee:     parseInt(row[5]),
			Total:           parseInt(row[6]),
			Status:          domain.OrderStatus(strings.TrimSpace(row[7])),
			PaymentMethod:   row[8],
			AmountPaid:      parseInt(row[9]),
			Balance:         parseInt(row[10]),
			DeliveryWeek:    int(parseInt(row[11])),
		}
		if !order.Status.Valid() {
			order.Status = statusFor(order.Balance)
		}
		out = append(out, order)
	}
	return out
}

func encodeOrders(orders []domain.Order, loc *time.Location) []store.Row {
	rows := make([]store.Row, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, store.Row{
			formatInt(o.ID),
			formatTime(o.CreatedAt, loc),
			formatInt(o.CustomerID),
			o.CustomerName,
			formatInt(o.ProductSubtotal),
			formatInt(o.DeliveryFee),
			formatInt(o.Total),
			string(o.Status),
			o.PaymentMethod,
			formatInt(o.AmountPaid),
			formatInt(o.Balance),
			strconv.Itoa(o.DeliveryWeek),
		})
	}
	return rows
}

func decodeOrderLines(rows []store.Row) []domain.OrderLine {
	out := make([]domain.OrderLine, 0, len(rows))
	for _, row := range rows {
		orderID := parseInt(row[0])
		qty := int(parseInt(row[2]))
		if orderID <= 0 || qty <= 0 {
			continue
		}
		out = append(out, domain.OrderLine{
			OrderID:      orderID,
			ProductName:  strings.TrimSpace(row[1]),
			Quantity:     qty,
			UnitPrice:    parseInt(row[3]),
			LineSubtotal: parseInt(row[4]),
		})
	}
	return out
}

func encodeOrderLines(lines []domain.OrderLine) []store.Row {
	rows := make([]store.Row, 0, len(lines))
	for _, l := range lines {
		rows = append(rows, store.Row{
			formatInt(l.OrderID),
			l.ProductName,
			strconv.Itoa(l.Quantity),
			formatInt(l.UnitPrice),
			formatInt(l.LineSubtotal),
		})
	}
	return rows
}

func decodeInventory(rows []store.Row) []domain.InventoryEntry {
	out := make([]domain.InventoryEntry, 0, len(rows))
	for _, row := range rows {
		name := strings.TrimSpace(row[0])
		if name == "" {
			continue
		}
		out = append(out, domain.InventoryEntry{ProductName: name, Stock: int(parseInt(row[1]))})
	}
	return out
}

func encodeInventory(entries []domain.InventoryEntry) []store.Row {
	rows := make([]store.Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, store.Row{e.ProductName, strconv.Itoa(e.Stock)})
	}
	return rows
}

func decodeCashFlow(rows []store.Row, loc *time.Location) []domain.CashFlowEntry {
	out := make([]domain.CashFlowEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.CashFlowEntry{
			Timestamp:              parseTime(row[0], loc),
			OrderID:                parseInt(row[1]),
			Counterparty:           row[2],
			PaymentMethod:          row[3],
			ProductAmountReceived:  parseInt(row[4]),
			DeliveryAmountReceived: parseInt(row[5]),
			RemainingBalance:       parseInt(row[6]),
		})
	}
	return out
}

func encodeCashFlow(e domain.CashFlowEntry, loc *time.Location) store.Row {
	return store.Row{
		formatTime(e.Timestamp, loc),
		formatInt(e.OrderID),
		e.Counterparty,
		e.PaymentMethod,
		formatInt(e.ProductAmountReceived),
		formatInt(e.DeliveryAmountReceived),
		formatInt(e.RemainingBalance),
	}
}

func decodeExpenses(rows []store.Row, loc *time.Location) []domain.ExpenseEntry {
	out := make([]domain.ExpenseEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.ExpenseEntry{
			Timestamp: parseTime(row[0], loc),
			Concept:   row[1],
			Amount:    parseInt(row[2]),
		})
	}
	return out
}

func encodeExpense(e domain.ExpenseEntry, loc *time.Location) store.Row {
	return store.Row{formatTime(e.Timestamp, loc), e.Concept, formatInt(e.Amount)}
}

func decodeSequence(rows []store.Row, name string) int64 {
	var value int64
	for _, row := range rows {
		if strings.TrimSpace(row[0]) == name {
			value = max(value, parseInt(row[1]))
		}
	}
	return value
}

func encodeSequence(name string, value int64) []store.Row {
	return []store.Row{{name, formatInt(value)}}
}
