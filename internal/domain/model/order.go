package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// 料金は作成時点の値を保存する（読み出し時に再計算しない）
// 金額はすべて通貨の最小単位（INRならpaise）
type Pricing struct {
	Subtotal int64 `gorm:"not null;default:0" json:"subtotal"`
	Shipping int64 `gorm:"not null;default:0" json:"shipping"`
	Tax      int64 `gorm:"not null;default:0" json:"tax"`
	Total    int64 `gorm:"not null;default:0" json:"total"`
}

// 配送先
type ShippingAddress struct {
	Name     string `gorm:"type:varchar(255);not null" json:"name"`
	Email    string `gorm:"type:varchar(255);not null;index" json:"email"`
	Phone    string `gorm:"type:varchar(30);not null" json:"phone"`
	Address1 string `gorm:"type:varchar(255);not null" json:"address1"`
	Address2 string `gorm:"type:varchar(255)" json:"address2,omitempty"`
	City     string `gorm:"type:varchar(100);not null" json:"city"`
	// 州は任意
	State string `gorm:"type:varchar(100)" json:"state,omitempty"`
	Zip   string `gorm:"type:varchar(20);not null" json:"zip"`
}

// 決済情報。Statusは orders.payment_status のミラー
type PaymentDetails struct {
	Method         string        `gorm:"type:varchar(50)" json:"method"`
	TransactionID  string        `gorm:"type:varchar(255)" json:"transactionId,omitempty"`
	GatewayOrderID string        `gorm:"type:varchar(255)" json:"gatewayOrderId,omitempty"`
	Status         PaymentStatus `gorm:"type:varchar(20)" json:"status"`
}

// 注文。削除はしない（監査記録として残す）
type Order struct {
	// DBの内部ID
	ID string `gorm:"type:uuid;primaryKey" json:"_id"`

	// 画面・メール・URLで使う注文番号（ORD-xxxx）。一度決めたら変えない
	Code string `gorm:"column:order_code;type:varchar(64);not null;uniqueIndex" json:"orderId"`

	// ゲスト注文はnil
	UserID *string `gorm:"type:uuid;index" json:"userId,omitempty"`

	Items []OrderItem `gorm:"foreignKey:OrderID;references:ID" json:"items"`

	Pricing         Pricing         `gorm:"embedded;embeddedPrefix:pricing_" json:"pricing"`
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_" json:"shippingAddress"`

	OrderStatus    OrderStatus    `gorm:"type:varchar(20);not null;index" json:"orderStatus"`
	PaymentStatus  PaymentStatus  `gorm:"type:varchar(20);not null;index" json:"paymentStatus"`
	PaymentDetails PaymentDetails `gorm:"embedded;embeddedPrefix:payment_detail_" json:"paymentDetails"`

	Notes string `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// 注文明細。商品名・重さ・単価は注文時点のスナップショット
type OrderItem struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"-"`
	OrderID     string    `gorm:"type:uuid;not null;index" json:"-"`
	Position    int       `gorm:"not null;default:0" json:"-"`
	ProductID   string    `gorm:"type:uuid;not null;index" json:"productId"`
	ProductName string    `gorm:"type:varchar(255);not null" json:"productName"`
	Weight      string    `gorm:"type:varchar(32);not null" json:"weight"`
	Price       int64     `gorm:"not null" json:"price"`
	Quantity    int64     `gorm:"not null" json:"quantity"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"-"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// 明細の小計
func (i OrderItem) LineTotal() int64 {
	return i.Price * i.Quantity
}

// 明細から小計を出す
func (o Order) ItemsSubtotal() int64 {
	var sum int64
	for _, it := range o.Items {
		sum += it.LineTotal()
	}
	return sum
}

// 所有者の比較（ゲスト注文は誰のものでもない）
func (o Order) IsOwnedBy(userID string) bool {
	return o.UserID != nil && *o.UserID == userID
}
