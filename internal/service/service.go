// Package service реализует бизнес-логику маркетплейса.
package service

import (
	"context"
	"crypto/sha256"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/mmeshcher/marketplace-system/internal/model"
	"github.com/mmeshcher/marketplace-system/internal/notify"
	"github.com/mmeshcher/marketplace-system/internal/payment"
)

// Ошибки бизнес-логики, транслируемые обработчиками в HTTP-статусы.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccessDenied       = errors.New("access denied")
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error

	CreateUser(ctx context.Context, u *model.User) (int64, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	UpdateUserInfo(ctx context.Context, id int64, name, phone string) error
	UpdateUserAddresses(ctx context.Context, id int64, addresses []model.UserAddress) error
	UpdateUserPassword(ctx context.Context, id int64, passwordHash []byte) error
	GetAllUsers(ctx context.Context) ([]model.User, error)
	DeleteUser(ctx context.Context, id int64) error

	CreateShop(ctx context.Context, s *model.Shop) (int64, error)
	GetShopByEmail(ctx context.Context, email string) (*model.Shop, error)
	GetShopByID(ctx context.Context, id int64) (*model.Shop, error)
	UpdateShopInfo(ctx context.Context, id int64, name, description, address, phone, zipCode string) error
	GetAllShops(ctx context.Context) ([]model.Shop, error)
	DeleteShop(ctx context.Context, id int64) error
	GetShopTransactions(ctx context.Context, shopID int64) ([]model.Transaction, error)

	SetResetToken(ctx context.Context, table string, email, token string, expiresAt time.Time) error
	FindEmailByResetToken(ctx context.Context, token string) (string, error)
	ResetPasswordByToken(ctx context.Context, token string, passwordHash []byte) error

	CreateProduct(ctx context.Context, p *model.Product) (int64, error)
	GetProductByID(ctx context.Context, id int64) (*model.Product, error)
	GetAllProducts(ctx context.Context) ([]model.Product, error)
	GetProductsByShop(ctx context.Context, shopID int64) ([]model.Product, error)
	DeleteProduct(ctx context.Context, id, shopID int64) error
	AddReview(ctx context.Context, review *model.Review, orderID int64) error

	CreateEvent(ctx context.Context, e *model.Event) (int64, error)
	GetAllEvents(ctx context.Context) ([]model.Event, error)
	GetEventsByShop(ctx context.Context, shopID int64) ([]model.Event, error)
	DeleteEvent(ctx context.Context, id, shopID int64) error

	CreateCoupon(ctx context.Context, c *model.CouponCode) (int64, error)
	GetCouponsByShop(ctx context.Context, shopID int64) ([]model.CouponCode, error)
	GetCouponByName(ctx context.Context, name string) (*model.CouponCode, error)
	DeleteCoupon(ctx context.Context, id, shopID int64) error

	CreateOrders(ctx context.Context, orders []model.Order) error
	GetOrderByID(ctx context.Context, id int64) (*model.Order, error)
	GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error)
	GetOrdersByShop(ctx context.Context, shopID int64) ([]model.Order, error)
	GetAllOrders(ctx context.Context) ([]model.Order, error)
	TransitionOrder(ctx context.Context, orderID int64, from, to model.OrderStatus) error
	MarkOrderTransferred(ctx context.Context, orderID int64, from model.OrderStatus) error
	MarkOrderDelivered(ctx context.Context, orderID int64, from model.OrderStatus, creditCents int64) error
	MarkOrderRefundSuccess(ctx context.Context, orderID int64, from model.OrderStatus) error

	CreateWithdrawal(ctx context.Context, shopID, amountCents int64) (*model.Withdrawal, error)
	GetAllWithdrawals(ctx context.Context) ([]model.Withdrawal, error)
	ApproveWithdrawal(ctx context.Context, id int64) (*model.Withdrawal, error)
}

// Service содержит бизнес-логику маркетплейса.
type Service struct {
	repo             Repository
	mail             *notify.Client
	payments         *payment.Client
	activationSecret []byte
	publishableKey   string
	logger           *zap.Logger
}

// NewService создаёт новый сервис с указанным репозиторием и клиентами
// почтового ретранслятора и платёжного шлюза.
func NewService(repo Repository, mail *notify.Client, payments *payment.Client,
	activationSecret, publishableKey string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:             repo,
		mail:             mail,
		payments:         payments,
		activationSecret: []byte(activationSecret),
		publishableKey:   publishableKey,
		logger:           logger,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// sendMail отправляет письмо через почтовый ретранслятор. Ошибка доставки
// логируется и не влияет на результат операции.
func (s *Service) sendMail(ctx context.Context, msg notify.Message) {
	if err := s.mail.Send(ctx, msg); err != nil {
		s.logger.Warn("mail delivery failed",
			zap.String("email", msg.Email),
			zap.String("subject", msg.Subject),
			zap.Error(err))
	}
}

func hashPassword(email, password string) []byte {
	sum := sha256.Sum256([]byte(email + ":" + password))
	return sum[:]
}
