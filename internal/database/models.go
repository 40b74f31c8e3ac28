package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Admin struct {
	ID        uuid.UUID `json:"id"`
	FullName  string    `json:"full_name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type Outlet struct {
	ID             uuid.UUID   `json:"id"`
	AdminID        uuid.UUID   `json:"admin_id"`
	Name           string      `json:"name"`
	GstEnabled     bool        `json:"gst_enabled"`
	InvoicePrefix  string      `json:"invoice_prefix"`
	InvoiceCounter int32       `json:"invoice_counter"`
	DeviceToken    pgtype.Text `json:"device_token"`
	IsActive       bool        `json:"is_active"`
	CreatedAt      time.Time   `json:"created_at"`
}

type Staff struct {
	ID        uuid.UUID `json:"id"`
	OutletID  uuid.UUID `json:"outlet_id"`
	FullName  string    `json:"full_name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type Customer struct {
	ID        uuid.UUID   `json:"id"`
	FullName  string      `json:"full_name"`
	Phone     pgtype.Text `json:"phone"`
	CreatedAt time.Time   `json:"created_at"`
}

type RawMaterial struct {
	ID                    uuid.UUID      `json:"id"`
	OutletID              uuid.UUID      `json:"outlet_id"`
	Name                  string         `json:"name"`
	CurrentStock          pgtype.Numeric `json:"current_stock"`
	MinimumStockLevel     pgtype.Numeric `json:"minimum_stock_level"`
	MinimumStockUnitID    uuid.UUID      `json:"minimum_stock_unit_id"`
	ConsumptionUnitID     uuid.UUID      `json:"consumption_unit_id"`
	ConversionFactor      pgtype.Numeric `json:"conversion_factor"`
	PurchasedPricePerItem pgtype.Numeric `json:"purchased_price_per_item"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

type RecipeIngredient struct {
	ID            uuid.UUID      `json:"id"`
	RecipeID      uuid.UUID      `json:"recipe_id"`
	RawMaterialID uuid.UUID      `json:"raw_material_id"`
	Quantity      pgtype.Numeric `json:"quantity"`
	UnitID        uuid.UUID      `json:"unit_id"`
}

type MenuItem struct {
	ID           uuid.UUID      `json:"id"`
	OutletID     uuid.UUID      `json:"outlet_id"`
	Name         string         `json:"name"`
	Price        pgtype.Numeric `json:"price"`
	NetPrice     pgtype.Numeric `json:"net_price"`
	Gst          pgtype.Numeric `json:"gst"`
	GrossProfit  pgtype.Numeric `json:"gross_profit"`
	ChooseProfit string         `json:"choose_profit"`
	ItemRecipeID pgtype.UUID    `json:"item_recipe_id"`
	IsAvailable  bool           `json:"is_available"`
}

type SizeVariant struct {
	ID           uuid.UUID      `json:"id"`
	MenuItemID   uuid.UUID      `json:"menu_item_id"`
	Name         string         `json:"name"`
	Price        pgtype.Numeric `json:"price"`
	NetPrice     pgtype.Numeric `json:"net_price"`
	Gst          pgtype.Numeric `json:"gst"`
	GrossProfit  pgtype.Numeric `json:"gross_profit"`
	ChooseProfit string         `json:"choose_profit"`
	ItemRecipeID pgtype.UUID    `json:"item_recipe_id"`
}

type AddonVariant struct {
	ID           uuid.UUID      `json:"id"`
	AddonID      uuid.UUID      `json:"addon_id"`
	Name         string         `json:"name"`
	Price        pgtype.Numeric `json:"price"`
	ChooseProfit string         `json:"choose_profit"`
	ItemRecipeID pgtype.UUID    `json:"item_recipe_id"`
}

type OrderSession struct {
	ID            uuid.UUID      `json:"id"`
	OutletID      uuid.UUID      `json:"outlet_id"`
	BillNumber    int32          `json:"bill_number"`
	BillID        string         `json:"bill_id"`
	OrderType     string         `json:"order_type"`
	TableID       pgtype.UUID    `json:"table_id"`
	AdminID       pgtype.UUID    `json:"admin_id"`
	StaffID       pgtype.UUID    `json:"staff_id"`
	CustomerID    pgtype.UUID    `json:"customer_id"`
	IsPaid        bool           `json:"is_paid"`
	PaymentMethod pgtype.Text    `json:"payment_method"`
	SubTotal      pgtype.Numeric `json:"sub_total"`
	PaidAmount    pgtype.Numeric `json:"paid_amount"`
	SessionStatus string         `json:"session_status"`
	Active        bool           `json:"active"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

type DiningTable struct {
	ID                    uuid.UUID   `json:"id"`
	OutletID              uuid.UUID   `json:"outlet_id"`
	Name                  string      `json:"name"`
	Occupied              bool        `json:"occupied"`
	CurrentOrderSessionID pgtype.UUID `json:"current_order_session_id"`
	InviteCode            pgtype.Text `json:"invite_code"`
	UpdatedAt             time.Time   `json:"updated_at"`
}

type Order struct {
	ID               uuid.UUID      `json:"id"`
	OutletID         uuid.UUID      `json:"outlet_id"`
	OrderSessionID   uuid.UUID      `json:"order_session_id"`
	GeneratedOrderID string         `json:"generated_order_id"`
	OrderNumber      int32          `json:"order_number"`
	OrderType        string         `json:"order_type"`
	OrderStatus      string         `json:"order_status"`
	TotalAmount      pgtype.Numeric `json:"total_amount"`
	TotalNetPrice    pgtype.Numeric `json:"total_net_price"`
	GstPrice         pgtype.Numeric `json:"gst_price"`
	TotalGrossProfit pgtype.Numeric `json:"total_gross_profit"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

type OrderItem struct {
	ID            uuid.UUID      `json:"id"`
	OrderID       uuid.UUID      `json:"order_id"`
	MenuID        uuid.UUID      `json:"menu_id"`
	SizeVariantID pgtype.UUID    `json:"size_variant_id"`
	Name          string         `json:"name"`
	Quantity      int32          `json:"quantity"`
	OriginalRate  pgtype.Numeric `json:"original_rate"`
	NetPrice      pgtype.Numeric `json:"net_price"`
	Gst           pgtype.Numeric `json:"gst"`
	GrossProfit   pgtype.Numeric `json:"gross_profit"`
	TotalPrice    pgtype.Numeric `json:"total_price"`
}

type OrderItemAddon struct {
	ID             uuid.UUID      `json:"id"`
	OrderItemID    uuid.UUID      `json:"order_item_id"`
	AddonID        uuid.UUID      `json:"addon_id"`
	AddonVariantID uuid.UUID      `json:"addon_variant_id"`
	Name           string         `json:"name"`
	Price          pgtype.Numeric `json:"price"`
}

type Notification struct {
	ID             uuid.UUID   `json:"id"`
	OutletID       uuid.UUID   `json:"outlet_id"`
	OrderSessionID pgtype.UUID `json:"order_session_id"`
	Title          string      `json:"title"`
	Body           string      `json:"body"`
	IsRead         bool        `json:"is_read"`
	CreatedAt      time.Time   `json:"created_at"`
}

type CashRegister struct {
	ID             uuid.UUID          `json:"id"`
	OutletID       uuid.UUID          `json:"outlet_id"`
	Status         string             `json:"status"`
	OpeningBalance pgtype.Numeric     `json:"opening_balance"`
	OpenedAt       time.Time          `json:"opened_at"`
	ClosedAt       pgtype.Timestamptz `json:"closed_at"`
}

type CashTransaction struct {
	ID             uuid.UUID      `json:"id"`
	RegisterID     uuid.UUID      `json:"register_id"`
	Amount         pgtype.Numeric `json:"amount"`
	Type           string         `json:"type"`
	Source         string         `json:"source"`
	PaymentMethod  string         `json:"payment_method"`
	OrderSessionID pgtype.UUID    `json:"order_session_id"`
	PerformedBy    uuid.UUID      `json:"performed_by"`
	Description    string         `json:"description"`
	CreatedAt      time.Time      `json:"created_at"`
}
