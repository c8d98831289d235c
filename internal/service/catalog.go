package service

import (
	"context"
	"fmt"

	"github.com/mmeshcher/marketplace-system/internal/model"
	"github.com/mmeshcher/marketplace-system/internal/validation"
)

// CreateProduct создаёт товар магазина.
func (s *Service) CreateProduct(ctx context.Context, p *model.Product) (*model.Product, error) {
	if !validation.IsValidName(p.Name) {
		return nil, fmt.Errorf("%w: product name is required", ErrInvalidInput)
	}
	if p.DiscountPriceCents <= 0 {
		return nil, fmt.Errorf("%w: product price must be positive", ErrInvalidInput)
	}
	if p.Stock < 0 {
		return nil, fmt.Errorf("%w: product stock must not be negative", ErrInvalidInput)
	}

	id, err := s.repo.CreateProduct(ctx, p)
	if err != nil {
		return nil, err
	}
	p.ID = id

	return p, nil
}

// ListProducts возвращает все товары платформы, новые первыми.
func (s *Service) ListProducts(ctx context.Context) ([]model.Product, error) {
	return s.repo.GetAllProducts(ctx)
}

// GetProductsByShop возвращает товары магазина.
func (s *Service) GetProductsByShop(ctx context.Context, shopID int64) ([]model.Product, error) {
	return s.repo.GetProductsByShop(ctx, shopID)
}

// DeleteProduct удаляет товар магазина. Чужой товар удалить нельзя.
func (s *Service) DeleteProduct(ctx context.Context, id, shopID int64) error {
	return s.repo.DeleteProduct(ctx, id, shopID)
}

// AddReview сохраняет отзыв пользователя о товаре. Повторный отзыв того же
// пользователя заменяет предыдущий, рейтинг товара пересчитывается.
func (s *Service) AddReview(ctx context.Context, review *model.Review, orderID int64) error {
	if !validation.IsValidRating(review.Rating) {
		return fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	}

	if _, err := s.repo.GetProductByID(ctx, review.ProductID); err != nil {
		return err
	}

	return s.repo.AddReview(ctx, review, orderID)
}

// CreateEvent создаёт акционное предложение магазина.
func (s *Service) CreateEvent(ctx context.Context, e *model.Event) (*model.Event, error) {
	if !validation.IsValidName(e.Name) {
		return nil, fmt.Errorf("%w: event name is required", ErrInvalidInput)
	}
	if !e.FinishDate.After(e.StartDate) {
		return nil, fmt.Errorf("%w: event must finish after it starts", ErrInvalidInput)
	}

	id, err := s.repo.CreateEvent(ctx, e)
	if err != nil {
		return nil, err
	}
	e.ID = id

	return e, nil
}

// ListEvents возвращает все акции платформы.
func (s *Service) ListEvents(ctx context.Context) ([]model.Event, error) {
	return s.repo.GetAllEvents(ctx)
}

// GetEventsByShop возвращает акции магазина.
func (s *Service) GetEventsByShop(ctx context.Context, shopID int64) ([]model.Event, error) {
	return s.repo.GetEventsByShop(ctx, shopID)
}

// DeleteEvent удаляет акцию магазина.
func (s *Service) DeleteEvent(ctx context.Context, id, shopID int64) error {
	return s.repo.DeleteEvent(ctx, id, shopID)
}

// CreateCoupon создаёт купон магазина. Имя купона уникально на платформе.
func (s *Service) CreateCoupon(ctx context.Context, c *model.CouponCode) (*model.CouponCode, error) {
	if !validation.IsValidName(c.Name) {
		return nil, fmt.Errorf("%w: coupon name is required", ErrInvalidInput)
	}
	if !validation.IsValidCouponValue(c.ValuePercent) {
		return nil, fmt.Errorf("%w: coupon value must be between 1 and 100", ErrInvalidInput)
	}

	id, err := s.repo.CreateCoupon(ctx, c)
	if err != nil {
		return nil, err
	}
	c.ID = id

	return c, nil
}

// GetCouponsByShop возвращает купоны магазина.
func (s *Service) GetCouponsByShop(ctx context.Context, shopID int64) ([]model.CouponCode, error) {
	return s.repo.GetCouponsByShop(ctx, shopID)
}

// GetCouponByName возвращает купон по имени.
func (s *Service) GetCouponByName(ctx context.Context, name string) (*model.CouponCode, error) {
	return s.repo.GetCouponByName(ctx, name)
}

// DeleteCoupon удаляет купон магазина.
func (s *Service) DeleteCoupon(ctx context.Context, id, shopID int64) error {
	return s.repo.DeleteCoupon(ctx, id, shopID)
}
