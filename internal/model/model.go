// Package model содержит доменные сущности маркетплейса.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Роли пользователей платформы.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User представляет зарегистрированного покупателя или администратора.
type User struct {
	ID           int64         `json:"id"`
	Name         string        `json:"name"`
	Email        string        `json:"email"`
	PasswordHash []byte        `json:"-"`
	Role         string        `json:"role"`
	AvatarURL    string        `json:"avatar,omitempty"`
	Phone        string        `json:"phoneNumber,omitempty"`
	Addresses    []UserAddress `json:"addresses"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// UserAddress описывает сохранённый адрес доставки пользователя.
// У пользователя не может быть двух адресов одного типа.
type UserAddress struct {
	ID          int64  `json:"id"`
	Country     string `json:"country"`
	City        string `json:"city"`
	Address1    string `json:"address1"`
	Address2    string `json:"address2,omitempty"`
	ZipCode     string `json:"zipCode,omitempty"`
	AddressType string `json:"addressType"`
}

// Shop представляет аккаунт продавца с доступным балансом.
type Shop struct {
	ID                    int64     `json:"id"`
	Name                  string    `json:"name"`
	Email                 string    `json:"email"`
	PasswordHash          []byte    `json:"-"`
	Description           string    `json:"description,omitempty"`
	Address               string    `json:"address,omitempty"`
	Phone                 string    `json:"phoneNumber,omitempty"`
	ZipCode               string    `json:"zipCode,omitempty"`
	AvatarURL             string    `json:"avatar,omitempty"`
	AvailableBalanceCents int64     `json:"-"`
	CreatedAt             time.Time `json:"createdAt"`
}

// AvailableBalance возвращает баланс продавца в денежных единицах.
func (s *Shop) AvailableBalance() float64 {
	return CentsToAmount(s.AvailableBalanceCents)
}

// Transaction описывает зачтённую операцию в истории продавца.
type Transaction struct {
	ID           int64     `json:"id"`
	WithdrawalID int64     `json:"withdrawId"`
	AmountCents  int64     `json:"-"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Product описывает товар магазина с учётом остатков и продаж.
type Product struct {
	ID                 int64     `json:"id"`
	ShopID             int64     `json:"shopId"`
	Name               string    `json:"name"`
	Description        string    `json:"description,omitempty"`
	Category           string    `json:"category,omitempty"`
	OriginalPriceCents int64     `json:"-"`
	DiscountPriceCents int64     `json:"-"`
	Stock              int       `json:"stock"`
	SoldOut            int       `json:"sold_out"`
	Ratings            float64   `json:"ratings"`
	CreatedAt          time.Time `json:"createdAt"`
}

// Review описывает отзыв пользователя о товаре. Один пользователь может
// оставить не более одного отзыва на товар.
type Review struct {
	ID        int64     `json:"id"`
	ProductID int64     `json:"productId"`
	UserID    int64     `json:"userId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Event описывает акционное предложение магазина, ограниченное по времени.
type Event struct {
	ID                 int64     `json:"id"`
	ShopID             int64     `json:"shopId"`
	Name               string    `json:"name"`
	Description        string    `json:"description,omitempty"`
	Category           string    `json:"category,omitempty"`
	OriginalPriceCents int64     `json:"-"`
	DiscountPriceCents int64     `json:"-"`
	Stock              int       `json:"stock"`
	StartDate          time.Time `json:"start_date"`
	FinishDate         time.Time `json:"finish_date"`
	Status             string    `json:"status"`
	CreatedAt          time.Time `json:"createdAt"`
}

// CouponCode описывает скидочный купон магазина. Купон неизменяем после
// создания, его можно только удалить.
type CouponCode struct {
	ID             int64     `json:"id"`
	ShopID         int64     `json:"shopId"`
	Name           string    `json:"name"`
	ValuePercent   int       `json:"value"`
	MinAmountCents int64     `json:"-"`
	MaxAmountCents int64     `json:"-"`
	ProductID      *int64    `json:"selectedProduct,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ShippingAddress описывает адрес доставки заказа.
type ShippingAddress struct {
	Address1 string `json:"address1"`
	Address2 string `json:"address2,omitempty"`
	City     string `json:"city"`
	State    string `json:"state,omitempty"`
	Country  string `json:"country"`
	ZipCode  string `json:"zipCode"`
}

// PaymentInfo содержит сведения о платеже во внешнем шлюзе.
type PaymentInfo struct {
	ID     string `json:"id,omitempty"`
	Status string `json:"status,omitempty"`
	Type   string `json:"type,omitempty"`
}

// OrderItem описывает одну позицию заказа. Все позиции одного заказа
// принадлежат одному магазину.
type OrderItem struct {
	ProductID          int64  `json:"productId"`
	ShopID             int64  `json:"shopId"`
	Name               string `json:"name"`
	Quantity           int    `json:"qty"`
	DiscountPriceCents int64  `json:"-"`
	IsReviewed         bool   `json:"isReviewed"`
}

// Order описывает заказ одного магазина, выделенный из общей корзины.
type Order struct {
	ID              int64           `json:"id"`
	UserID          int64           `json:"userId"`
	Status          OrderStatus     `json:"status"`
	TotalPriceCents int64           `json:"-"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentInfo     PaymentInfo     `json:"paymentInfo"`
	Items           []OrderItem     `json:"cart"`
	PaidAt          *time.Time      `json:"paidAt,omitempty"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}

// ShopID возвращает магазин, которому принадлежит заказ.
// Для пустого заказа возвращается 0.
func (o *Order) ShopID() int64 {
	if len(o.Items) == 0 {
		return 0
	}
	return o.Items[0].ShopID
}

// Статусы заявки на вывод средств.
const (
	WithdrawalStatusProcessing = "Processing"
	WithdrawalStatusSucceed    = "succeed"
)

// Withdrawal описывает заявку продавца на вывод средств.
type Withdrawal struct {
	ID          int64     `json:"id"`
	ShopID      int64     `json:"shopId"`
	AmountCents int64     `json:"-"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Денежные суммы хранятся в целых центах, во внешнем API используются
// дробные денежные единицы. Преобразования идут через decimal, чтобы
// не накапливать ошибки двоичной арифметики.

// AmountToCents переводит денежную сумму из внешнего представления в центы.
func AmountToCents(amount float64) int64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// CentsToAmount переводит центы во внешнее денежное представление.
func CentsToAmount(cents int64) float64 {
	f, _ := decimal.NewFromInt(cents).Div(decimal.NewFromInt(100)).Float64()
	return f
}

// ServiceChargeCents возвращает комиссию платформы: 10% от суммы заказа
// с округлением вниз до цента.
func ServiceChargeCents(totalCents int64) int64 {
	return decimal.NewFromInt(totalCents).
		Mul(decimal.NewFromFloat(0.10)).
		RoundDown(0).
		IntPart()
}
