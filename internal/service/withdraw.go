package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mmeshcher/marketplace-system/internal/model"
	"github.com/mmeshcher/marketplace-system/internal/notify"
)

// CreateWithdrawal создаёт заявку продавца на вывод средств. Сумма
// резервируется из баланса магазина в момент создания заявки. Письмо
// продавцу отправляется после фиксации заявки.
func (s *Service) CreateWithdrawal(ctx context.Context, shopID int64, amount float64) (*model.Withdrawal, error) {
	cents := model.AmountToCents(amount)
	if cents <= 0 {
		return nil, fmt.Errorf("%w: withdraw amount must be positive", ErrInvalidInput)
	}

	w, err := s.repo.CreateWithdrawal(ctx, shopID, cents)
	if err != nil {
		return nil, err
	}

	shop, err := s.repo.GetShopByID(ctx, shopID)
	if err != nil {
		s.logger.Warn("shop lookup for withdraw mail failed",
			zap.Int64("shopID", shopID), zap.Error(err))
		return w, nil
	}

	s.sendMail(ctx, notify.Message{
		Email:   shop.Email,
		Subject: "Withdraw request",
		Message: fmt.Sprintf("Hello %s, your withdraw request of %.2f$ is processing. It usually takes 3 to 7 days.",
			shop.Name, model.CentsToAmount(cents)),
	})

	return w, nil
}

// ListWithdrawals возвращает все заявки на вывод средств, новые первыми.
func (s *Service) ListWithdrawals(ctx context.Context) ([]model.Withdrawal, error) {
	return s.repo.GetAllWithdrawals(ctx)
}

// ApproveWithdrawal подтверждает заявку на вывод средств: статус заявки
// меняется на "succeed", операция записывается в историю продавца,
// продавцу отправляется письмо с подтверждением.
func (s *Service) ApproveWithdrawal(ctx context.Context, id int64) (*model.Withdrawal, error) {
	w, err := s.repo.ApproveWithdrawal(ctx, id)
	if err != nil {
		return nil, err
	}

	shop, err := s.repo.GetShopByID(ctx, w.ShopID)
	if err != nil {
		s.logger.Warn("shop lookup for withdraw mail failed",
			zap.Int64("shopID", w.ShopID), zap.Error(err))
		return w, nil
	}

	s.sendMail(ctx, notify.Message{
		Email:   shop.Email,
		Subject: "Payment confirmation",
		Message: fmt.Sprintf("Hello %s, your withdraw request of %.2f$ is on the way. Delivery time depends on your bank's rules, it usually takes 3 to 7 days.",
			shop.Name, model.CentsToAmount(w.AmountCents)),
	})

	return w, nil
}
