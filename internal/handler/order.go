package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/marketplace-system/internal/model"
	"github.com/mmeshcher/marketplace-system/internal/payment"
)

type orderItemResponse struct {
	model.OrderItem
	DiscountPrice float64 `json:"discountPrice"`
}

type orderResponse struct {
	model.Order
	TotalPrice float64             `json:"totalPrice"`
	Items      []orderItemResponse `json:"cart"`
}

func toOrderResponse(o model.Order) orderResponse {
	items := make([]orderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, orderItemResponse{
			OrderItem:     item,
			DiscountPrice: model.CentsToAmount(item.DiscountPriceCents),
		})
	}
	return orderResponse{
		Order:      o,
		TotalPrice: model.CentsToAmount(o.TotalPriceCents),
		Items:      items,
	}
}

func toOrderResponses(orders []model.Order) []orderResponse {
	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, toOrderResponse(o))
	}
	return resp
}

type cartItemRequest struct {
	ProductID     int64   `json:"productId"`
	ShopID        int64   `json:"shopId"`
	Name          string  `json:"name"`
	Quantity      int     `json:"qty"`
	DiscountPrice float64 `json:"discountPrice"`
}

type createOrderRequest struct {
	Cart            []cartItemRequest     `json:"cart"`
	ShippingAddress model.ShippingAddress `json:"shippingAddress"`
	PaymentInfo     model.PaymentInfo     `json:"paymentInfo"`
}

// CreateOrder создаёт заказы из корзины текущего пользователя. Корзина
// разбивается на отдельные заказы по магазинам.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req createOrderRequest
	if !h.decode(w, r, &req) {
		return
	}

	cart := make([]model.OrderItem, 0, len(req.Cart))
	for _, item := range req.Cart {
		cart = append(cart, model.OrderItem{
			ProductID:          item.ProductID,
			ShopID:             item.ShopID,
			Name:               item.Name,
			Quantity:           item.Quantity,
			DiscountPriceCents: model.AmountToCents(item.DiscountPrice),
		})
	}

	orders, err := h.service.CreateOrder(r.Context(), p.ID, cart, req.ShippingAddress, req.PaymentInfo)
	if err != nil {
		h.handleServiceError(w, err, "create order error", zap.Int64("userID", p.ID))
		return
	}

	h.writeJSON(w, http.StatusCreated, envelope{"orders": toOrderResponses(orders)})
}

// GetUserOrders возвращает заказы текущего пользователя.
func (h *Handler) GetUserOrders(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	id, ok := h.urlID(w, r, "userId")
	if !ok {
		return
	}
	if id != p.ID {
		h.writeError(w, http.StatusForbidden, "access denied")
		return
	}

	orders, err := h.service.GetOrdersByUser(r.Context(), p.ID)
	if err != nil {
		h.handleServiceError(w, err, "get user orders error", zap.Int64("userID", p.ID))
		return
	}

	h.writeJSON(w, http.StatusOK, envelope{"orders": toOrderResponses(orders)})
}

// GetSellerOrders возвращает заказы текущего продавца.
func (h *Handler) GetSellerOrders(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	id, ok := h.urlID(w, r, "shopId")
	if !ok {
		return
	}
	if id != p.ID {
		h.writeError(w, http.StatusForbidden, "access denied")
		return
	}

	orders, err := h.service.GetOrdersByShop(r.Context(), p.ID)
	if err != nil {
		h.handleServiceError(w, err, "get seller orders error", zap.Int64("shopID", p.ID))
		return
	}

	h.writeJSON(w, http.StatusOK, envelope{"orders": toOrderResponses(orders)})
}

type updateOrderStatusRequest struct {
	Status string `json:"status"`
}

// UpdateOrderStatus переводит заказ текущего продавца в новый статус.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	id, ok := h.urlID(w, r, "id")
	if !ok {
		return
	}

	var req updateOrderStatusRequest
	if !h.decode(w, r, &req) {
		return
	}

	order, err := h.service.UpdateOrderStatus(r.Context(), p.ID, id, req.Status)
	if err != nil {
		h.handleServiceError(w, err, "update order status error",
			zap.Int64("orderID", id), zap.String("status", req.Status))
		return
	}

	h.writeJSON(w, http.StatusOK, envelope{"order": toOrderResponse(*order)})
}

// OrderRefund создаёт запрос покупателя на возврат заказа.
func (h *Handler) OrderRefund(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	id, ok := h.urlID(w, r, "id")
	if !ok {
		return
	}

	order, err := h.service.RefundRequest(r.Context(), p.ID, id)
	if err != nil {
		h.handleServiceError(w, err, "order refund error", zap.Int64("orderID", id))
		return
	}

	h.writeJSON(w, http.StatusOK, envelope{
		"order":   toOrderResponse(*order),
		"message": "refund request submitted successfully",
	})
}

// OrderRefundSuccess подтверждает возврат заказа продавцом.
func (h *Handler) OrderRefundSuccess(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	id, ok := h.urlID(w, r, "id")
	if !ok {
		return
	}

	if _, err := h.service.RefundApprove(r.Context(), p.ID, id); err != nil {
		h.handleServiceError(w, err, "order refund approve error", zap.Int64("orderID", id))
		return
	}

	h.writeJSON(w, http.StatusOK, envelope{"message": "order refund completed successfully"})
}

// AdminAllOrders возвращает все заказы платформы.
func (h *Handler) AdminAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOrders(r.Context())
	if err != nil {
		h.handleServiceError(w, err, "list orders error")
		return
	}

	h.writeJSON(w, http.StatusCreated, envelope{"orders": toOrderResponses(orders)})
}

type processPaymentRequest struct {
	AmountCents int64                  `json:"amount"`
	Shipping    payment.IntentShipping `json:"shipping"`
}

// ProcessPayment создаёт платёжное намерение во внешнем шлюзе.
func (h *Handler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	var req processPaymentRequest
	if !h.decode(w, r, &req) {
		return
	}

	intent, err := h.service.ProcessPayment(r.Context(), req.AmountCents, req.Shipping)
	if err != nil {
		h.handleServiceError(w, err, "process payment error", zap.Int64("amount", req.AmountCents))
		return
	}

	h.writeJSON(w, http.StatusOK, envelope{"client_secret": intent.ClientSecret})
}

// PaymentAPIKey возвращает публикуемый ключ платёжного шлюза.
func (h *Handler) PaymentAPIKey(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, envelope{"publishableKey": h.service.PublishableKey()})
}
