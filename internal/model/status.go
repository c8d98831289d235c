package model

// OrderStatus описывает статус обработки заказа.
type OrderStatus string

// Статусы заказа. Набор закрытый: произвольные строки из запросов
// не принимаются.
const (
	OrderStatusProcessing      OrderStatus = "Processing"
	OrderStatusTransferred     OrderStatus = "Transferred to delivery partner"
	OrderStatusShipping        OrderStatus = "Shipping"
	OrderStatusDelivered       OrderStatus = "Delivered"
	OrderStatusRefundRequested OrderStatus = "Refund Requested"
	OrderStatusRefundSuccess   OrderStatus = "Refund Success"
)

var validNext = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusProcessing:      {OrderStatusTransferred: true, OrderStatusRefundRequested: true},
	OrderStatusTransferred:     {OrderStatusShipping: true, OrderStatusRefundRequested: true},
	OrderStatusShipping:        {OrderStatusDelivered: true},
	OrderStatusDelivered:       {},
	OrderStatusRefundRequested: {OrderStatusRefundSuccess: true},
	OrderStatusRefundSuccess:   {},
}

// ParseOrderStatus возвращает статус по строковому значению.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(s)
	_, ok := validNext[st]
	return st, ok
}

// CanTransition сообщает, допустим ли переход заказа из статуса from в to.
func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

// IsTerminal сообщает, что из статуса нет допустимых переходов.
func (s OrderStatus) IsTerminal() bool {
	return len(validNext[s]) == 0
}
