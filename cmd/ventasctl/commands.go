package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"andicblue/backend/internal/domain"
)

const dateLayout = "2006-01-02"

func (a *app) productsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "products",
		Short: "List the catalog and delivery fee",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			products := a.svc.Products()
			rows := make([][]string, 0, len(products)+1)
			for _, p := range products {
				rows = append(rows, []string{p.Name, a.cop(p.UnitPrice)})
			}
			rows = append(rows, []string{"(domicilio)", a.cop(a.svc.DeliveryFee())})
			payload := map[string]any{"products": products, "delivery_fee": a.svc.DeliveryFee()}
			return a.render(cmd, payload, []string{"Producto", "Precio"}, rows)
		},
	}
}

func (a *app) customersCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "customers", Short: "Manage customers"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List customers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			customers := a.svc.ListCustomers()
			rows := make([][]string, 0, len(customers))
			for _, c := range customers {
				rows = append(rows, []string{strconv.FormatInt(c.ID, 10), c.Name, c.Phone, c.Address})
			}
			return a.render(cmd, customers, []string{"ID", "Nombre", "Telefono", "Direccion"}, rows)
		},
	}

	var req domain.CustomerCreateRequest
	add := &cobra.Command{
		Use:   "add",
		Short: "Register a customer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := a.svc.CreateCustomer(cmd.Context(), req)
			if err != nil {
				return err
			}
			a.warn(cmd, resp.Warnings)
			c := resp.Customer
			return a.render(cmd, resp, []string{"ID", "Nombre"}, [][]string{{strconv.FormatInt(c.ID, 10), c.Name}})
		},
	}
	add.Flags().StringVar(&req.Name, "name", "", "customer name")
	add.Flags().StringVar(&req.Phone, "phone", "", "phone number")
	add.Flags().StringVar(&req.Address, "address", "", "delivery address")
	_ = add.MarkFlagRequired("name")

	cmd.AddCommand(list, add)
	return cmd
}

func (a *app) ordersCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "orders", Short: "Create, edit, pay and delete orders"}
	cmd.AddCommand(a.ordersListCmd(), a.ordersShowCmd(), a.ordersCreateCmd(), a.ordersEditCmd(), a.ordersPayCmd(), a.ordersDeleteCmd())
	return cmd
}

func (a *app) orderRows(orders []domain.Order) [][]string {
	rows := make([][]string, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, []string{
			strconv.FormatInt(o.ID, 10),
			o.CustomerName,
			strconv.Itoa(o.DeliveryWeek),
			a.cop(o.Total),
			a.cop(o.AmountPaid),
			a.cop(o.Balance),
			string(o.Status),
		})
	}
	return rows
}

var orderHeaders = []string{"ID", "Cliente", "Semana", "Total", "Pagado", "Saldo", "Estado"}

func (a *app) renderOrder(cmd *cobra.Command, resp domain.OrderResponse) error {
	if a.jsonOut {
		return a.render(cmd, resp, nil, nil)
	}
	if err := a.render(cmd, nil, orderHeaders, a.orderRows([]domain.Order{resp.Order})); err != nil {
		return err
	}
	rows := make([][]string, 0, len(resp.Lines))
	for _, l := range resp.Lines {
		rows = append(rows, []string{l.ProductName, strconv.Itoa(l.Quantity), a.cop(l.UnitPrice), a.cop(l.LineSubtotal)})
	}
	return a.render(cmd, nil, []string{"Producto", "Cantidad", "Precio", "Subtotal"}, rows)
}

func (a *app) ordersListCmd() *cobra.Command {
	var status string
	var week int
	list := &cobra.Command{
		Use:   "list",
		Short: "List orders, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter := domain.OrderFilter{Status: domain.OrderStatus(status), Week: week}
			if status != "" && !filter.Status.Valid() {
				return fmt.Errorf("unknown status %q", status)
			}
			if week < 0 || week > 53 {
				return fmt.Errorf("week must be between 1 and 53")
			}
			orders := a.svc.ListOrders(filter)
			return a.render(cmd, orders, orderHeaders, a.orderRows(orders))
		},
	}
	list.Flags().StringVar(&status, "status", "", "Pendiente or Entregado")
	list.Flags().IntVar(&week, "week", 0, "ISO delivery week")
	return list
}

func (a *app) ordersShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show an order with its lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			resp, err := a.svc.GetOrder(id)
			if err != nil {
				return err
			}
			return a.renderOrder(cmd, resp)
		},
	}
}

func (a *app) ordersCreateCmd() *cobra.Command {
	var (
		customerID int64
		items      []string
		delivery   bool
		date       string
	)
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cart, err := parseItems(items)
			if err != nil {
				return err
			}
			req := domain.CreateOrderRequest{CustomerID: customerID, Items: cart, IncludeDelivery: delivery}
			if date != "" {
				day, err := time.Parse(dateLayout, date)
				if err != nil {
					return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
				}
				req.DeliveryDate = &domain.DeliveryDate{Time: day, DateOnly: true}
			}
			resp, err := a.svc.CreateOrder(cmd.Context(), req)
			if err != nil {
				return err
			}
			a.warn(cmd, resp.Warnings)
			return a.renderOrder(cmd, resp)
		},
	}
	create.Flags().Int64Var(&customerID, "customer", 0, "customer id")
	create.Flags().StringArrayVar(&items, "item", nil, "product=quantity, repeatable")
	create.Flags().BoolVar(&delivery, "delivery", false, "charge the delivery fee")
	create.Flags().StringVar(&date, "date", "", "delivery date YYYY-MM-DD (defaults to today)")
	_ = create.MarkFlagRequired("customer")
	_ = create.MarkFlagRequired("item")
	return create
}

func (a *app) ordersEditCmd() *cobra.Command {
	var (
		items    []string
		delivery bool
		week     int
		status   string
	)
	edit := &cobra.Command{
		Use:   "edit <id>",
		Short: "Replace an order's items, keeping its payments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			cart, err := parseItems(items)
			if err != nil {
				return err
			}
			req := domain.EditOrderRequest{Items: cart}
			if cmd.Flags().Changed("delivery") {
				req.IncludeDelivery = &delivery
			}
			if cmd.Flags().Changed("week") {
				req.DeliveryWeek = &week
			}
			if cmd.Flags().Changed("status") {
				s := domain.OrderStatus(status)
				req.Status = &s
			}
			resp, err := a.svc.EditOrder(cmd.Context(), id, req)
			if err != nil {
				return err
			}
			a.warn(cmd, resp.Warnings)
			return a.renderOrder(cmd, resp)
		},
	}
	edit.Flags().StringArrayVar(&items, "item", nil, "product=quantity, repeatable")
	edit.Flags().BoolVar(&delivery, "delivery", false, "charge the delivery fee")
	edit.Flags().IntVar(&week, "week", 0, "ISO delivery week")
	edit.Flags().StringVar(&status, "status", "", "Pendiente or Entregado")
	_ = edit.MarkFlagRequired("item")
	return edit
}

func (a *app) ordersPayCmd() *cobra.Command {
	var req domain.PaymentRequest
	pay := &cobra.Command{
		Use:   "pay <id>",
		Short: "Register a payment against an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			resp, err := a.svc.RegisterPayment(cmd.Context(), id, req)
			if err != nil {
				return err
			}
			a.warn(cmd, resp.Warnings)
			rows := [][]string{{
				strconv.FormatInt(resp.OrderID, 10),
				a.cop(resp.ProductPaidNow),
				a.cop(resp.DeliveryPaidNow),
				a.cop(resp.ExcessUnallocated),
				a.cop(resp.NewBalance),
				string(resp.Status),
			}}
			return a.render(cmd, resp, []string{"Pedido", "Productos", "Domicilio", "Excedente", "Saldo", "Estado"}, rows)
		},
	}
	pay.Flags().StringVar(&req.PaymentMethod, "method", "", "payment method (Efectivo, Nequi, ...)")
	pay.Flags().Int64Var(&req.Amount, "amount", 0, "amount in COP")
	_ = pay.MarkFlagRequired("method")
	_ = pay.MarkFlagRequired("amount")
	return pay
}

func (a *app) ordersDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an order and restore its stock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			resp, err := a.svc.DeleteOrder(cmd.Context(), id)
			if err != nil {
				return err
			}
			a.warn(cmd, resp.Warnings)
			return a.render(cmd, resp, []string{"Producto", "Stock"}, inventoryRows(resp.Restored))
		},
	}
}

func inventoryRows(entries []domain.InventoryEntry) [][]string {
	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{e.ProductName, strconv.Itoa(e.Stock)})
	}
	return rows
}

func (a *app) inventoryCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "inventory", Short: "Inspect and correct stock"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List stock per product",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries := a.svc.ListInventory()
			return a.render(cmd, entries, []string{"Producto", "Stock"}, inventoryRows(entries))
		},
	}

	adjust := &cobra.Command{
		Use:   "adjust <product> <delta>",
		Short: "Add or remove units of a product",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("delta must be an integer: %w", err)
			}
			resp, err := a.svc.AdjustStock(cmd.Context(), args[0], delta)
			if err != nil {
				return err
			}
			a.warn(cmd, resp.Warnings)
			return a.render(cmd, resp, []string{"Producto", "Stock"}, inventoryRows([]domain.InventoryEntry{resp.Entry}))
		},
	}

	value := &cobra.Command{
		Use:   "value",
		Short: "Value stock at catalog prices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := a.svc.InventoryValuation()
			rows := [][]string{{strconv.Itoa(v.Products), strconv.Itoa(v.TotalUnits), a.cop(v.TotalValue)}}
			return a.render(cmd, v, []string{"Productos", "Unidades", "Valor"}, rows)
		},
	}

	cmd.AddCommand(list, adjust, value)
	return cmd
}

func (a *app) cashCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "cash", Short: "Cash flow by payment method"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List cash flow rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			entries := a.svc.ListCashFlow()
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					e.Timestamp.Format("2006-01-02 15:04"),
					strconv.FormatInt(e.OrderID, 10),
					e.Counterparty,
					e.PaymentMethod,
					a.cop(e.ProductAmountReceived),
					a.cop(e.DeliveryAmountReceived),
				})
			}
			return a.render(cmd, entries, []string{"Fecha", "Pedido", "Cliente", "Medio", "Productos", "Domicilio"}, rows)
		},
	}

	totals := &cobra.Command{
		Use:   "totals",
		Short: "Product income per payment method",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			methodTotals := a.svc.TotalsByMethod()
			rows := make([][]string, 0, len(methodTotals))
			for _, t := range methodTotals {
				rows = append(rows, []string{t.PaymentMethod, a.cop(t.Total)})
			}
			return a.render(cmd, methodTotals, []string{"Medio", "Total"}, rows)
		},
	}

	summary := &cobra.Command{
		Use:   "summary",
		Short: "Income, expenses and net balance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := a.svc.CashFlowSummary()
			rows := [][]string{{a.cop(s.TotalProductIncome), a.cop(s.TotalDeliveryIncome), a.cop(s.TotalExpenses), a.cop(s.NetBalance)}}
			return a.render(cmd, s, []string{"Productos", "Domicilios", "Gastos", "Neto"}, rows)
		},
	}

	var req domain.MoveFundsRequest
	move := &cobra.Command{
		Use:   "move",
		Short: "Move money between payment methods, such as a bank withdrawal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := a.svc.MoveFunds(cmd.Context(), req)
			if err != nil {
				return err
			}
			a.warn(cmd, resp.Warnings)
			rows := make([][]string, 0, len(resp.Entries))
			for _, e := range resp.Entries {
				rows = append(rows, []string{e.PaymentMethod, a.cop(e.ProductAmountReceived)})
			}
			return a.render(cmd, resp, []string{"Medio", "Movimiento"}, rows)
		},
	}
	move.Flags().StringVar(&req.FromMethod, "from", "", "source payment method")
	move.Flags().StringVar(&req.ToMethod, "to", "", "destination payment method")
	move.Flags().Int64Var(&req.Amount, "amount", 0, "amount in COP")
	move.Flags().StringVar(&req.Note, "note", "", "free-text note")
	_ = move.MarkFlagRequired("from")
	_ = move.MarkFlagRequired("to")
	_ = move.MarkFlagRequired("amount")

	cmd.AddCommand(list, totals, summary, move)
	return cmd
}

func (a *app) expensesCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "expenses", Short: "Record and list expenses"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List expenses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			expenses := a.svc.ListExpenses()
			rows := make([][]string, 0, len(expenses))
			for _, e := range expenses {
				rows = append(rows, []string{e.Timestamp.Format("2006-01-02 15:04"), e.Concept, a.cop(e.Amount)})
			}
			return a.render(cmd, expenses, []string{"Fecha", "Concepto", "Valor"}, rows)
		},
	}

	add := &cobra.Command{
		Use:   "add <concept> <amount>",
		Short: "Record an expense",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("amount must be an integer: %w", err)
			}
			resp, err := a.svc.AddExpense(cmd.Context(), domain.ExpenseRequest{Concept: args[0], Amount: amount})
			if err != nil {
				return err
			}
			a.warn(cmd, resp.Warnings)
			e := resp.Expense
			return a.render(cmd, resp, []string{"Concepto", "Valor"}, [][]string{{e.Concept, a.cop(e.Amount)}})
		},
	}

	cmd.AddCommand(list, add)
	return cmd
}

func (a *app) reportCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "report", Short: "Dashboard and weekly income"}

	var date string
	dashboard := &cobra.Command{
		Use:   "dashboard",
		Short: "Totals, outstanding balance and this week's orders",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var at time.Time
			if date != "" {
				day, err := time.Parse(dateLayout, date)
				if err != nil {
					return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
				}
				at = day.Add(12 * time.Hour)
			}
			d := a.svc.Dashboard(at)
			rows := [][]string{{
				strconv.Itoa(d.CurrentWeek),
				strconv.Itoa(d.TotalOrders),
				strconv.Itoa(d.OrdersThisWeek),
				strconv.Itoa(d.PendingOrders),
				a.cop(d.TotalIncome),
				a.cop(d.Outstanding),
			}}
			return a.render(cmd, d, []string{"Semana", "Pedidos", "Esta semana", "Pendientes", "Ingresos", "Por cobrar"}, rows)
		},
	}
	dashboard.Flags().StringVar(&date, "date", "", "report as of YYYY-MM-DD (defaults to today)")

	weeks := &cobra.Command{
		Use:   "weeks",
		Short: "Income per delivery week",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			income := a.svc.IncomeByWeek()
			rows := make([][]string, 0, len(income))
			for _, w := range income {
				rows = append(rows, []string{strconv.Itoa(w.Week), a.cop(w.Income)})
			}
			return a.render(cmd, income, []string{"Semana", "Ingresos"}, rows)
		},
	}

	cmd.AddCommand(dashboard, weeks)
	return cmd
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// parseItems reads product=quantity pairs. The last '=' splits, so product
// labels may contain one.
func parseItems(raw []string) ([]domain.CartItem, error) {
	items := make([]domain.CartItem, 0, len(raw))
	for _, pair := range raw {
		i := strings.LastIndex(pair, "=")
		if i <= 0 {
			return nil, fmt.Errorf("item %q must look like product=quantity", pair)
		}
		qty, err := strconv.Atoi(strings.TrimSpace(pair[i+1:]))
		if err != nil {
			return nil, fmt.Errorf("item %q: quantity must be an integer", pair)
		}
		items = append(items, domain.CartItem{Product: strings.TrimSpace(pair[:i]), Quantity: qty})
	}
	return items, nil
}
