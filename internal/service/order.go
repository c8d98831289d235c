package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mmeshcher/marketplace-system/internal/model"
	"github.com/mmeshcher/marketplace-system/internal/payment"
	"github.com/mmeshcher/marketplace-system/internal/repository"
)

// CreateOrder разбивает корзину на заказы по магазинам, сохраняя порядок
// первого появления магазина в корзине, и создаёт их одной транзакцией.
// Сумма заказа складывается из цен позиций; количество в сумму не входит.
func (s *Service) CreateOrder(ctx context.Context, userID int64, cart []model.OrderItem,
	addr model.ShippingAddress, pay model.PaymentInfo) ([]model.Order, error) {
	if len(cart) == 0 {
		return nil, fmt.Errorf("%w: cart is empty", ErrInvalidInput)
	}

	var shopIDs []int64
	groups := make(map[int64][]model.OrderItem)
	for _, item := range cart {
		if item.ProductID == 0 || item.ShopID == 0 {
			return nil, fmt.Errorf("%w: cart item is missing product or shop", ErrInvalidInput)
		}
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: quantity must be positive", ErrInvalidInput)
		}
		if _, ok := groups[item.ShopID]; !ok {
			shopIDs = append(shopIDs, item.ShopID)
		}
		groups[item.ShopID] = append(groups[item.ShopID], item)
	}

	now := time.Now()
	orders := make([]model.Order, 0, len(shopIDs))
	for _, shopID := range shopIDs {
		items := groups[shopID]

		var total int64
		for _, item := range items {
			total += item.DiscountPriceCents
		}

		paidAt := now
		orders = append(orders, model.Order{
			UserID:          userID,
			Status:          model.OrderStatusProcessing,
			TotalPriceCents: total,
			ShippingAddress: addr,
			PaymentInfo:     pay,
			Items:           items,
			PaidAt:          &paidAt,
		})
	}

	if err := s.repo.CreateOrders(ctx, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

// GetOrdersByUser возвращает заказы покупателя.
func (s *Service) GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	return s.repo.GetOrdersByUser(ctx, userID)
}

// GetOrdersByShop возвращает заказы магазина.
func (s *Service) GetOrdersByShop(ctx context.Context, shopID int64) ([]model.Order, error) {
	return s.repo.GetOrdersByShop(ctx, shopID)
}

// ListOrders возвращает все заказы платформы.
func (s *Service) ListOrders(ctx context.Context) ([]model.Order, error) {
	return s.repo.GetAllOrders(ctx)
}

// UpdateOrderStatus переводит заказ продавца в новый статус. Переходы
// сверяются с таблицей допустимых, побочные эффекты перехода выполняются
// в одной транзакции со сменой статуса.
func (s *Service) UpdateOrderStatus(ctx context.Context, sellerID, orderID int64, target string) (*model.Order, error) {
	to, ok := model.ParseOrderStatus(target)
	if !ok {
		return nil, fmt.Errorf("%w: unknown order status %q", ErrInvalidInput, target)
	}

	o, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.ShopID() != sellerID {
		return nil, fmt.Errorf("%w: order belongs to another shop", ErrAccessDenied)
	}
	if !model.CanTransition(o.Status, to) {
		return nil, fmt.Errorf("%w: %s -> %s", repository.ErrInvalidTransition, o.Status, to)
	}

	switch to {
	case model.OrderStatusTransferred:
		err = s.repo.MarkOrderTransferred(ctx, orderID, o.Status)
	case model.OrderStatusDelivered:
		credit := o.TotalPriceCents - model.ServiceChargeCents(o.TotalPriceCents)
		err = s.repo.MarkOrderDelivered(ctx, orderID, o.Status, credit)
	case model.OrderStatusRefundSuccess:
		err = s.repo.MarkOrderRefundSuccess(ctx, orderID, o.Status)
	default:
		err = s.repo.TransitionOrder(ctx, orderID, o.Status, to)
	}
	if err != nil {
		return nil, err
	}

	return s.repo.GetOrderByID(ctx, orderID)
}

// RefundRequest переводит заказ покупателя в "Refund Requested".
func (s *Service) RefundRequest(ctx context.Context, userID, orderID int64) (*model.Order, error) {
	o, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID {
		return nil, fmt.Errorf("%w: order belongs to another user", ErrAccessDenied)
	}
	if !model.CanTransition(o.Status, model.OrderStatusRefundRequested) {
		return nil, fmt.Errorf("%w: %s -> %s", repository.ErrInvalidTransition, o.Status, model.OrderStatusRefundRequested)
	}

	if err := s.repo.TransitionOrder(ctx, orderID, o.Status, model.OrderStatusRefundRequested); err != nil {
		return nil, err
	}

	return s.repo.GetOrderByID(ctx, orderID)
}

// RefundApprove подтверждает возврат: заказ переходит в "Refund Success",
// остатки товаров восстанавливаются до отправки ответа.
func (s *Service) RefundApprove(ctx context.Context, sellerID, orderID int64) (*model.Order, error) {
	o, err := s.repo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.ShopID() != sellerID {
		return nil, fmt.Errorf("%w: order belongs to another shop", ErrAccessDenied)
	}
	if !model.CanTransition(o.Status, model.OrderStatusRefundSuccess) {
		return nil, fmt.Errorf("%w: %s -> %s", repository.ErrInvalidTransition, o.Status, model.OrderStatusRefundSuccess)
	}

	if err := s.repo.MarkOrderRefundSuccess(ctx, orderID, o.Status); err != nil {
		return nil, err
	}

	return s.repo.GetOrderByID(ctx, orderID)
}

// ProcessPayment создаёт платёжное намерение во внешнем шлюзе и возвращает
// его клиентский секрет.
func (s *Service) ProcessPayment(ctx context.Context, amountCents int64, shipping payment.IntentShipping) (*payment.Intent, error) {
	if amountCents <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	return s.payments.CreateIntent(ctx, payment.IntentRequest{
		AmountCents: amountCents,
		Currency:    "usd",
		Shipping:    shipping,
	})
}

// PublishableKey возвращает публикуемый ключ платёжного шлюза.
func (s *Service) PublishableKey() string {
	return s.publishableKey
}
