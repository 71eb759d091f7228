package schema

// OrderSide distinguishes buy and sell orders
type OrderSide int

const (
	OrderSideBuy  OrderSide = 0
	OrderSideSell OrderSide = 1
)

// OrderStatus is the order lifecycle state
type OrderStatus int

const (
	OrderStatusOpen      OrderStatus = 0
	OrderStatusFilled    OrderStatus = 1
	OrderStatusCancelled OrderStatus = 2
)

// Order represents the orders table - one row per order-book order, created
// by OrderPlaced and advanced by TradeExecuted / OrderCancelled.
type Order struct {
	// ID is the on-chain order id
	ID       uint64    `gorm:"column:id;primaryKey"`
	User     string    `gorm:"column:user;not null;type:text;index:idx_orders_user"`
	Side     OrderSide `gorm:"column:side;not null;index:idx_orders_side"`
	Price    string    `gorm:"column:price;not null;type:numeric(78,0)"`
	Quantity string    `gorm:"column:quantity;not null;type:numeric(78,0)"`
	// Filled accumulates trade quantities and never exceeds Quantity
	Filled    string      `gorm:"column:filled;not null;type:numeric(78,0)"`
	Status    OrderStatus `gorm:"column:status;not null;index:idx_orders_status"`
	OrderType int         `gorm:"column:order_type;not null"`
	Category  int         `gorm:"column:category;not null"`
	// Optional matching filters carried from the placement event
	ProjectID       *uint64 `gorm:"column:project_id"`
	MinVintage      *int    `gorm:"column:min_vintage"`
	MaxVintage      *int    `gorm:"column:max_vintage"`
	MinQualityScore *int    `gorm:"column:min_quality_score"`
	RetireOnFill    bool    `gorm:"column:retire_on_fill;not null;default:false"`
	CreatedAt       uint64  `gorm:"column:created_at;not null;type:bigint"`
	UpdatedAt       uint64  `gorm:"column:updated_at;not null;type:bigint"`
}

// TableName specifies the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// Trade represents the trades table - append-only log of TradeExecuted
// events keyed by (txHash, logIndex).
type Trade struct {
	ID          string `gorm:"column:id;primaryKey;type:text"`
	BuyOrderID  uint64 `gorm:"column:buy_order_id;not null"`
	SellOrderID uint64 `gorm:"column:sell_order_id;not null"`
	Buyer       string `gorm:"column:buyer;not null;type:text;index:idx_trades_buyer"`
	Seller      string `gorm:"column:seller;not null;type:text;index:idx_trades_seller"`
	TokenID     uint64 `gorm:"column:token_id;not null"`
	Price       string `gorm:"column:price;not null;type:numeric(78,0)"`
	Quantity    string `gorm:"column:quantity;not null;type:numeric(78,0)"`
	BuyerFee    string `gorm:"column:buyer_fee;not null;type:numeric(78,0)"`
	SellerFee   string `gorm:"column:seller_fee;not null;type:numeric(78,0)"`
	Timestamp   uint64 `gorm:"column:timestamp;not null;type:bigint"`
	TxHash      string `gorm:"column:tx_hash;not null;type:text"`
}

// TableName specifies the table name for the Trade model
func (Trade) TableName() string {
	return "trades"
}
