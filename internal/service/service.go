package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"andicblue/backend/internal/cashflow"
	"andicblue/backend/internal/catalog"
	"andicblue/backend/internal/domain"
	"andicblue/backend/internal/inventory"
	"andicblue/backend/internal/store"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrOrderNotFound    = errors.New("order not found")
	ErrEmptyOrder       = errors.New("order has no items")
	ErrInvalidInput     = errors.New("invalid input")
	// ErrStorageUnavailable rejects a mutation whose tables could not be read.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// Recorder receives operation outcomes. *observability.Metrics satisfies it.
type Recorder interface {
	Operation(name, outcome string)
	PersistenceWarning(op, table string)
}

type noopRecorder struct{}

func (noopRecorder) Operation(string, string)          {}
func (noopRecorder) PersistenceWarning(string, string) {}

type Options struct {
	DeliveryFee int64
	// Location is used for stored timestamps and ISO week numbers.
	Location *time.Location
	Clock    func() time.Time
	Logger   *zap.Logger
	Recorder Recorder
}

// Service owns the in-memory ledgers. Storage mirrors them on a best-effort
// basis: a failed write is reported as a warning and the in-memory state
// stays authoritative. Every mutation holds mu for its whole
// read-modify-write cycle, persistence included.
type Service struct {
	mu sync.RWMutex

	store     store.PersistenceStore
	catalog   *catalog.Catalog
	inventory *inventory.Ledger
	cash      *cashflow.Ledger

	customers   []domain.Customer
	orders      []domain.Order
	lines       []domain.OrderLine
	lastOrderID int64
	// unloaded marks tables whose last read failed; they are never rewritten
	// from partial in-memory state.
	unloaded map[string]bool

	deliveryFee int64
	loc         *time.Location
	clock       func() time.Time
	logger      *zap.Logger
	recorder    Recorder
}

func New(persistence store.PersistenceStore, products *catalog.Catalog, opts Options) *Service {
	if products == nil {
		products = catalog.New(catalog.Default, false)
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Recorder == nil {
		opts.Recorder = noopRecorder{}
	}

	return &Service{
		store:       persistence,
		catalog:     products,
		inventory:   inventory.New(products),
		cash:        cashflow.New(),
		deliveryFee: opts.DeliveryFee,
		loc:         opts.Location,
		clock:       opts.Clock,
		logger:      opts.Logger,
		recorder:    opts.Recorder,
	}
}

// Load replaces the in-memory ledgers with the stored tables. Tables that
// fail to load start empty and are marked unloaded; the failures come back
// joined as *store.PersistenceWarning values. Mutations touching an
// unloaded table reload it first, so a failed read never overwrites stored
// rows.
func (s *Service) Load(ctx context.Context) error {
	tables := store.Tables()
	results := make([][]store.Row, len(tables))
	failures := make([]error, len(tables))

	var g errgroup.Group
	g.SetLimit(4)
	for i, name := range tables {
		i, name := i, name
		g.Go(func() error {
			rows, err := s.store.LoadTable(ctx, name)
			if err != nil {
				failures[i] = &store.PersistenceWarning{Op: "load", Table: name, Err: err}
				return nil
			}
			results[i] = rows
			return nil
		})
	}
	_ = g.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.unloaded = make(map[string]bool)
	s.lastOrderID = 0
	for i, name := range tables {
		if failures[i] != nil {
			s.unloaded[name] = true
			s.logger.Warn("table load failed", zap.String("table", name), zap.Error(failures[i]))
			s.recorder.PersistenceWarning("load", name)
		}
		s.applyTable(name, results[i])
	}

	s.logger.Info("ledger loaded",
		zap.Int("customers", len(s.customers)),
		zap.Int("orders", len(s.orders)),
		zap.Int("inventory_rows", len(s.inventory.Entries())),
		zap.Int("cashflow_rows", len(s.cash.Entries())),
		zap.Int64("last_order_id", s.lastOrderID),
		zap.Int("unloaded_tables", len(s.unloaded)),
	)
	return errors.Join(failures...)
}

// applyTable decodes one stored table into the ledgers. Callers hold mu.
func (s *Service) applyTable(name string, rows []store.Row) {
	switch name {
	case store.TableCustomers:
		s.customers = decodeCustomers(rows)
	case store.TableOrders:
		s.orders = decodeOrders(rows, s.loc)
		for _, order := range s.orders {
			s.lastOrderID = max(s.lastOrderID, order.ID)
		}
	case store.TableOrderLines:
		s.lines = decodeOrderLines(rows)
	case store.TableInventory:
		s.inventory.Load(decodeInventory(rows))
	case store.TableCashFlow:
		s.cash.Load(decodeCashFlow(rows, s.loc), s.cash.Expenses())
	case store.TableExpenses:
		s.cash.Load(s.cash.Entries(), decodeExpenses(rows, s.loc))
	case store.TableSequences:
		s.lastOrderID = max(s.lastOrderID, decodeSequence(rows, sequenceOrders))
	}
}

// requireTables reloads any of tables that failed to load earlier. If one
// is still unreadable the operation is rejected with ErrStorageUnavailable
// and nothing is written. Callers hold mu.
func (s *Service) requireTables(ctx context.Context, operation string, tables ...string) error {
	for _, name := range tables {
		if !s.unloaded[name] {
			continue
		}
		rows, err := s.store.LoadTable(ctx, name)
		if err != nil {
			s.logger.Warn("table still unavailable", zap.String("table", name), zap.String("operation", operation), zap.Error(err))
			s.recorder.PersistenceWarning("load", name)
			warning := &store.PersistenceWarning{Op: "load", Table: name, Err: err}
			return s.rejected(operation, fmt.Errorf("%w: %w", ErrStorageUnavailable, warning))
		}
		s.applyTable(name, rows)
		delete(s.unloaded, name)
		s.logger.Info("table reloaded", zap.String("table", name), zap.Int("rows", len(rows)))
	}
	return nil
}

func (s *Service) Products() []domain.Product {
	return s.catalog.Products()
}

func (s *Service) DeliveryFee() int64 {
	return s.deliveryFee
}

func (s *Service) now() time.Time {
	return s.clock().In(s.loc)
}

// writeBatch collects persistence warnings for one operation.
type writeBatch struct {
	ctx      context.Context
	s        *Service
	warnings []string
}

func (s *Service) batch(ctx context.Context) *writeBatch {
	return &writeBatch{ctx: ctx, s: s}
}

func (b *writeBatch) save(table string, rows []store.Row) {
	if err := b.s.store.SaveTable(b.ctx, table, rows); err != nil {
		b.warn("save", table, err)
	}
}

func (b *writeBatch) append(table string, row store.Row) {
	if err := b.s.store.AppendRow(b.ctx, table, row); err != nil {
		b.warn("append", table, err)
	}
}

func (b *writeBatch) warn(op, table string, err error) {
	warning := &store.PersistenceWarning{Op: op, Table: table, Err: err}
	b.s.logger.Warn("persistence failed", zap.String("op", op), zap.String("table", table), zap.Error(err))
	b.s.recorder.PersistenceWarning(op, table)
	b.warnings = append(b.warnings, warning.Error())
}

// done records the operation outcome and returns the collected warnings.
func (b *writeBatch) done(operation string) []string {
	outcome := "ok"
	if len(b.warnings) > 0 {
		outcome = "warning"
	}
	b.s.recorder.Operation(operation, outcome)
	return slices.Clip(b.warnings)
}

func (s *Service) rejected(operation string, err error) error {
	s.recorder.Operation(operation, "error")
	return err
}
