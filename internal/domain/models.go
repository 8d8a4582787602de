package domain

import "time"

type Product struct {
	Name      string `json:"name" yaml:"name"`
	UnitPrice int64  `json:"unit_price" yaml:"unit_price"`
}

type Customer struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type CustomerCreateRequest struct {
	Name    string `json:"name" validate:"required,max=120"`
	Phone   string `json:"phone" validate:"max=40"`
	Address string `json:"address" validate:"max=240"`
}

type CustomerResponse struct {
	Customer Customer `json:"customer"`
	Warnings []string `json:"warnings,omitempty"`
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pendiente"
	OrderStatusDelivered OrderStatus = "Entregado"
)

func (s OrderStatus) Valid() bool {
	return s == OrderStatusPending || s == OrderStatusDelivered
}

// Order is the order header. Lines live in OrderLine and are owned by the order.
type Order struct {
	ID              int64       `json:"id"`
	CreatedAt       time.Time   `json:"created_at"`
	CustomerID      int64       `json:"customer_id"`
	CustomerName    string      `json:"customer_name"`
	ProductSubtotal int64       `json:"product_subtotal"`
	DeliveryFee     int64       `json:"delivery_fee"`
	Total           int64       `json:"total"`
	Status          OrderStatus `json:"status"`
	PaymentMethod   string      `json:"payment_method"`
	AmountPaid      int64       `json:"amount_paid"`
	Balance         int64       `json:"balance"`
	DeliveryWeek    int         `json:"delivery_week"`
}

type OrderLine struct {
	OrderID      int64  `json:"order_id"`
	ProductName  string `json:"product_name"`
	Quantity     int    `json:"quantity"`
	UnitPrice    int64  `json:"unit_price"`
	LineSubtotal int64  `json:"line_subtotal"`
}

type InventoryEntry struct {
	ProductName string `json:"product_name"`
	Stock       int    `json:"stock"`
}

// CashFlowEntry records the amounts actually applied by one payment, or one
// half of a manual fund transfer (OrderID 0).
type CashFlowEntry struct {
	Timestamp              time.Time `json:"timestamp"`
	OrderID                int64     `json:"order_id"`
	Counterparty           string    `json:"counterparty"`
	PaymentMethod          string    `json:"payment_method"`
	ProductAmountReceived  int64     `json:"product_amount_received"`
	DeliveryAmountReceived int64     `json:"delivery_amount_received"`
	RemainingBalance       int64     `json:"remaining_balance"`
}

type ExpenseEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Concept   string    `json:"concept"`
	Amount    int64     `json:"amount"`
}

type CartItem struct {
	Product  string `json:"product" validate:"required"`
	Quantity int    `json:"quantity"`
}

type CreateOrderRequest struct {
	CustomerID      int64         `json:"customer_id" validate:"required,gt=0"`
	Items           []CartItem    `json:"items" validate:"required,min=1,dive"`
	IncludeDelivery bool          `json:"include_delivery"`
	DeliveryDate    *DeliveryDate `json:"delivery_date,omitempty"`
}

// EditOrderRequest replaces the order lines. Nil optional fields keep the
// current value.
type EditOrderRequest struct {
	Items           []CartItem   `json:"items" validate:"required,min=1,dive"`
	IncludeDelivery *bool        `json:"include_delivery,omitempty"`
	DeliveryWeek    *int         `json:"delivery_week,omitempty" validate:"omitempty,min=1,max=53"`
	Status          *OrderStatus `json:"status,omitempty" validate:"omitempty,oneof=Pendiente Entregado"`
}

type OrderResponse struct {
	Order    Order       `json:"order"`
	Lines    []OrderLine `json:"lines"`
	Warnings []string    `json:"warnings,omitempty"`
}

type DeleteOrderResponse struct {
	OrderID  int64            `json:"order_id"`
	Restored []InventoryEntry `json:"restored"`
	Warnings []string         `json:"warnings,omitempty"`
}

type OrderFilter struct {
	Status OrderStatus
	Week   int
}

type PaymentRequest struct {
	PaymentMethod string `json:"payment_method" validate:"required"`
	Amount        int64  `json:"amount" validate:"gt=0"`
}

type PaymentResponse struct {
	OrderID           int64       `json:"order_id"`
	ProductPaidNow    int64       `json:"product_paid_now"`
	DeliveryPaidNow   int64       `json:"delivery_paid_now"`
	NewBalance        int64       `json:"new_balance"`
	ExcessUnallocated int64       `json:"excess_unallocated"`
	Status            OrderStatus `json:"status"`
	AmountPaid        int64       `json:"amount_paid"`
	Warnings          []string    `json:"warnings,omitempty"`
}

type StockAdjustmentRequest struct {
	Product string `json:"product" validate:"required"`
	Delta   int    `json:"delta" validate:"ne=0"`
}

type InventoryResponse struct {
	Entry    InventoryEntry `json:"entry"`
	Warnings []string       `json:"warnings,omitempty"`
}

type InventoryValuation struct {
	Products   int   `json:"products"`
	TotalUnits int   `json:"total_units"`
	TotalValue int64 `json:"total_value"`
}

type MoveFundsRequest struct {
	Amount     int64  `json:"amount" validate:"gt=0"`
	FromMethod string `json:"from_method" validate:"required"`
	ToMethod   string `json:"to_method" validate:"required,nefield=FromMethod"`
	Note       string `json:"note" validate:"max=240"`
}

type CashFlowResponse struct {
	Entries  []CashFlowEntry `json:"entries"`
	Warnings []string        `json:"warnings,omitempty"`
}

type ExpenseRequest struct {
	Concept string `json:"concept" validate:"required,max=240"`
	Amount  int64  `json:"amount" validate:"gt=0"`
}

type ExpenseResponse struct {
	Expense  ExpenseEntry `json:"expense"`
	Warnings []string     `json:"warnings,omitempty"`
}

type CashFlowSummary struct {
	TotalProductIncome  int64 `json:"total_product_income"`
	TotalDeliveryIncome int64 `json:"total_delivery_income"`
	TotalExpenses       int64 `json:"total_expenses"`
	NetBalance          int64 `json:"net_balance"`
}

type MethodTotal struct {
	PaymentMethod string `json:"payment_method"`
	Total         int64  `json:"total"`
}

type Dashboard struct {
	CurrentWeek    int   `json:"current_week"`
	TotalOrders    int   `json:"total_orders"`
	OrdersThisWeek int   `json:"orders_this_week"`
	PendingOrders  int   `json:"pending_orders"`
	TotalIncome    int64 `json:"total_income"`
	Outstanding    int64 `json:"outstanding"`
}

type WeeklyIncome struct {
	Week   int   `json:"week"`
	Income int64 `json:"income"`
}

// Payment methods offered by the order form. Other labels are accepted verbatim.
const (
	PaymentCash        = "Efectivo"
	PaymentTransfer    = "Transferencia"
	PaymentNequi       = "Nequi"
	PaymentDaviplata   = "Daviplata"
	PaymentBancolombia = "Bancolombia"
)

var KnownPaymentMethods = []string{
	PaymentCash,
	PaymentTransfer,
	PaymentNequi,
	PaymentDaviplata,
	PaymentBancolombia,
}
