package store

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	ErrUnknownTable = errors.New("unknown table")
	// ErrRateLimited marks failures the retry policy backs off on.
	ErrRateLimited = errors.New("storage rate limited")
	ErrBadRow      = errors.New("row does not match table header")
)

// Row is one data row ordered by the table header.
type Row []string

// PersistenceStore is the table-oriented storage collaborator. SaveTable
// overwrites the whole table.
type PersistenceStore interface {
	LoadTable(ctx context.Context, name string) ([]Row, error)
	SaveTable(ctx context.Context, name string, rows []Row) error
	AppendRow(ctx context.Context, name string, row Row) error
}

const (
	TableCustomers  = "Clientes"
	TableOrders     = "Pedidos"
	TableOrderLines = "Pedidos_detalle"
	TableInventory  = "Inventario"
	TableCashFlow   = "FlujoCaja"
	TableExpenses   = "Gastos"
	TableSequences  = "Secuencias"
)

var schemas = map[string][]string{
	TableCustomers:  {"ID", "Nombre", "Telefono", "Direccion"},
	TableOrders:     {"ID", "Fecha", "IDCliente", "NombreCliente", "SubtotalProductos", "MontoDomicilio", "Total", "Estado", "MedioPago", "MontoPagado", "SaldoPendiente", "SemanaEntrega"},
	TableOrderLines: {"IDPedido", "Producto", "Cantidad", "PrecioUnitario", "Subtotal"},
	TableInventory:  {"Producto", "Stock"},
	TableCashFlow:   {"Fecha", "IDPedido", "Cliente", "MedioPago", "IngresoProductos", "IngresoDomicilio", "SaldoPendienteTotal"},
	TableExpenses:   {"Fecha", "Concepto", "Monto"},
	TableSequences:  {"Nombre", "Valor"},
}

// Tables lists every table name in load order.
func Tables() []string {
	return []string{TableCustomers, TableOrders, TableOrderLines, TableInventory, TableCashFlow, TableExpenses, TableSequences}
}

// Header returns a copy of the column list for a table.
func Header(name string) ([]string, error) {
	header, ok := schemas[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTable, name)
	}
	return slices.Clone(header), nil
}

// ValidateRow checks the table exists and the row has one cell per column.
func ValidateRow(name string, row Row) error {
	header, ok := schemas[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTable, name)
	}
	if len(row) != len(header) {
		return fmt.Errorf("%w: %s expects %d cells, got %d", ErrBadRow, name, len(header), len(row))
	}
	return nil
}

// DropDuplicateHeader removes a header row that leaked into the data, which
// happens when a writer appends the header twice.
func DropDuplicateHeader(name string, rows []Row) []Row {
	header, ok := schemas[name]
	if !ok || len(rows) == 0 || len(rows[0]) != len(header) {
		return rows
	}
	for i, cell := range rows[0] {
		if strings.TrimSpace(cell) != header[i] {
			return rows
		}
	}
	return rows[1:]
}

// CloneRows deep-copies rows so stores never share backing arrays with callers.
func CloneRows(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, row := range rows {
		out[i] = slices.Clone(row)
	}
	return out
}

// PersistenceWarning reports a storage failure that did not abort the
// operation. In-memory state stays authoritative.
type PersistenceWarning struct {
	Op    string
	Table string
	Err   error
}

func (w *PersistenceWarning) Error() string {
	return fmt.Sprintf("persistence warning: %s %s: %v", w.Op, w.Table, w.Err)
}

func (w *PersistenceWarning) Unwrap() error {
	return w.Err
}
