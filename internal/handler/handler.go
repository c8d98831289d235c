// Package handler содержит HTTP-обработчики API маркетплейса.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/marketplace-system/internal/middleware"
	"github.com/mmeshcher/marketplace-system/internal/model"
	"github.com/mmeshcher/marketplace-system/internal/payment"
	"github.com/mmeshcher/marketplace-system/internal/repository"
	"github.com/mmeshcher/marketplace-system/internal/service"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	RegisterUser(ctx context.Context, name, email, password, phone string) (string, error)
	ActivateUser(ctx context.Context, token string) (*model.User, error)
	AuthenticateUser(ctx context.Context, email, password string) (*model.User, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
	UpdateUserInfo(ctx context.Context, id int64, name, phone string) (*model.User, error)
	UpdateUserAddresses(ctx context.Context, userID int64, addr model.UserAddress) (*model.User, error)
	DeleteUserAddress(ctx context.Context, userID, addressID int64) (*model.User, error)
	UpdateUserPassword(ctx context.Context, userID int64, oldPassword, newPassword, confirmPassword string) error
	ListUsers(ctx context.Context) ([]model.User, error)
	DeleteUser(ctx context.Context, id int64) error

	RegisterShop(ctx context.Context, reg service.ShopRegistration) (string, error)
	ActivateShop(ctx context.Context, token string) (*model.Shop, error)
	AuthenticateShop(ctx context.Context, email, password string) (*model.Shop, error)
	GetShop(ctx context.Context, id int64) (*model.Shop, error)
	GetShopWithTransactions(ctx context.Context, id int64) (*model.Shop, []model.Transaction, error)
	UpdateShopInfo(ctx context.Context, id int64, name, description, address, phone, zipCode string) (*model.Shop, error)
	ListShops(ctx context.Context) ([]model.Shop, error)
	DeleteShop(ctx context.Context, id int64) error

	RequestPasswordReset(ctx context.Context, role, email string) error
	ChangePassword(ctx context.Context, token, password string) error

	CreateProduct(ctx context.Context, p *model.Product) (*model.Product, error)
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProductsByShop(ctx context.Context, shopID int64) ([]model.Product, error)
	DeleteProduct(ctx context.Context, id, shopID int64) error
	AddReview(ctx context.Context, review *model.Review, orderID int64) error

	CreateEvent(ctx context.Context, e *model.Event) (*model.Event, error)
	ListEvents(ctx context.Context) ([]model.Event, error)
	GetEventsByShop(ctx context.Context, shopID int64) ([]model.Event, error)
	DeleteEvent(ctx context.Context, id, shopID int64) error

	CreateCoupon(ctx context.Context, c *model.CouponCode) (*model.CouponCode, error)
	GetCouponsByShop(ctx context.Context, shopID int64) ([]model.CouponCode, error)
	GetCouponByName(ctx context.Context, name string) (*model.CouponCode, error)
	DeleteCoupon(ctx context.Context, id, shopID int64) error

	CreateOrder(ctx context.Context, userID int64, cart []model.OrderItem, addr model.ShippingAddress, pay model.PaymentInfo) ([]model.Order, error)
	GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error)
	GetOrdersByShop(ctx context.Context, shopID int64) ([]model.Order, error)
	ListOrders(ctx context.Context) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, sellerID, orderID int64, target string) (*model.Order, error)
	RefundRequest(ctx context.Context, userID, orderID int64) (*model.Order, error)
	RefundApprove(ctx context.Context, sellerID, orderID int64) (*model.Order, error)

	CreateWithdrawal(ctx context.Context, shopID int64, amount float64) (*model.Withdrawal, error)
	ListWithdrawals(ctx context.Context) ([]model.Withdrawal, error)
	ApproveWithdrawal(ctx context.Context, id int64) (*model.Withdrawal, error)

	ProcessPayment(ctx context.Context, amountCents int64, shipping payment.IntentShipping) (*payment.Intent, error)
	PublishableKey() string
}

// Handler реализует HTTP-обработчики API маркетплейса.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
	}
}

// envelope описывает тело успешного ответа API.
type envelope map[string]any

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body envelope) {
	body["success"] = true

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("encode response error", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": message,
	})
}

// handleServiceError транслирует ошибку бизнес-логики в HTTP-статус.
// Неизвестные ошибки логируются и отдаются как 500 без деталей.
func (h *Handler) handleServiceError(w http.ResponseWriter, err error, logMsg string, fields ...zap.Field) {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, repository.ErrUserExists),
		errors.Is(err, repository.ErrShopExists),
		errors.Is(err, repository.ErrCouponExists),
		errors.Is(err, repository.ErrInsufficientBalance),
		errors.Is(err, repository.ErrInvalidTransition):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		h.writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrAccessDenied):
		h.writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error(logMsg, append(fields, zap.Error(err))...)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) principal(w http.ResponseWriter, r *http.Request) (middleware.Principal, bool) {
	p, ok := middleware.GetPrincipalFromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "please login to continue")
	}
	return p, ok
}

func (h *Handler) urlID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
