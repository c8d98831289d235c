package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mmeshcher/marketplace-system/internal/model"
	"github.com/mmeshcher/marketplace-system/internal/repository"
)

func TestHashPasswordDeterministic(t *testing.T) {
	a := hashPassword("buyer@example.com", "pass")
	b := hashPassword("buyer@example.com", "pass")
	c := hashPassword("buyer@example.com", "other")

	if string(a) != string(b) {
		t.Fatalf("hashPassword must be deterministic, got %x and %x", a, b)
	}
	if string(a) == string(c) {
		t.Fatalf("different passwords must produce different hashes")
	}
}

type stubRepo struct {
	user    *model.User
	userErr error

	shop    *model.Shop
	shopErr error

	createdUser *model.User
	createdID   int64

	order    *model.Order
	orderErr error

	createdOrders []model.Order

	transferredFrom model.OrderStatus
	deliveredCredit int64
	transitionTo    model.OrderStatus
	refundedFrom    model.OrderStatus

	withdrawal *model.Withdrawal

	resetEmail string
	resetHash  []byte

	savedAddresses []model.UserAddress
	newPassword    []byte
}

func (s *stubRepo) Close() error { return nil }

func (s *stubRepo) CreateUser(ctx context.Context, u *model.User) (int64, error) {
	s.createdUser = u
	return s.createdID, nil
}

func (s *stubRepo) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.user, s.userErr
}

func (s *stubRepo) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return s.user, s.userErr
}

func (s *stubRepo) UpdateUserInfo(ctx context.Context, id int64, name, phone string) error {
	return nil
}

func (s *stubRepo) UpdateUserAddresses(ctx context.Context, id int64, addresses []model.UserAddress) error {
	s.savedAddresses = addresses
	return nil
}

func (s *stubRepo) UpdateUserPassword(ctx context.Context, id int64, passwordHash []byte) error {
	s.newPassword = passwordHash
	return nil
}

func (s *stubRepo) GetAllUsers(ctx context.Context) ([]model.User, error) { return nil, nil }
func (s *stubRepo) DeleteUser(ctx context.Context, id int64) error        { return nil }

func (s *stubRepo) CreateShop(ctx context.Context, shop *model.Shop) (int64, error) {
	return s.createdID, nil
}

func (s *stubRepo) GetShopByEmail(ctx context.Context, email string) (*model.Shop, error) {
	return s.shop, s.shopErr
}

func (s *stubRepo) GetShopByID(ctx context.Context, id int64) (*model.Shop, error) {
	return s.shop, s.shopErr
}

func (s *stubRepo) UpdateShopInfo(ctx context.Context, id int64, name, description, address, phone, zipCode string) error {
	return nil
}

func (s *stubRepo) GetAllShops(ctx context.Context) ([]model.Shop, error) { return nil, nil }
func (s *stubRepo) DeleteShop(ctx context.Context, id int64) error        { return nil }

func (s *stubRepo) GetShopTransactions(ctx context.Context, shopID int64) ([]model.Transaction, error) {
	return nil, nil
}

func (s *stubRepo) SetResetToken(ctx context.Context, table string, email, token string, expiresAt time.Time) error {
	return nil
}

func (s *stubRepo) FindEmailByResetToken(ctx context.Context, token string) (string, error) {
	if s.resetEmail == "" {
		return "", repository.ErrNotFound
	}
	return s.resetEmail, nil
}

func (s *stubRepo) ResetPasswordByToken(ctx context.Context, token string, passwordHash []byte) error {
	s.resetHash = passwordHash
	return nil
}

func (s *stubRepo) CreateProduct(ctx context.Context, p *model.Product) (int64, error) {
	return s.createdID, nil
}

func (s *stubRepo) GetProductByID(ctx context.Context, id int64) (*model.Product, error) {
	return &model.Product{ID: id}, nil
}

func (s *stubRepo) GetAllProducts(ctx context.Context) ([]model.Product, error) { return nil, nil }

func (s *stubRepo) GetProductsByShop(ctx context.Context, shopID int64) ([]model.Product, error) {
	return nil, nil
}

func (s *stubRepo) DeleteProduct(ctx context.Context, id, shopID int64) error { return nil }

func (s *stubRepo) AddReview(ctx context.Context, review *model.Review, orderID int64) error {
	return nil
}

func (s *stubRepo) CreateEvent(ctx context.Context, e *model.Event) (int64, error) {
	return s.createdID, nil
}

func (s *stubRepo) GetAllEvents(ctx context.Context) ([]model.Event, error) { return nil, nil }

func (s *stubRepo) GetEventsByShop(ctx context.Context, shopID int64) ([]model.Event, error) {
	return nil, nil
}

func (s *stubRepo) DeleteEvent(ctx context.Context, id, shopID int64) error { return nil }

func (s *stubRepo) CreateCoupon(ctx context.Context, c *model.CouponCode) (int64, error) {
	return s.createdID, nil
}

func (s *stubRepo) GetCouponsByShop(ctx context.Context, shopID int64) ([]model.CouponCode, error) {
	return nil, nil
}

func (s *stubRepo) GetCouponByName(ctx context.Context, name string) (*model.CouponCode, error) {
	return nil, repository.ErrNotFound
}

func (s *stubRepo) DeleteCoupon(ctx context.Context, id, shopID int64) error { return nil }

func (s *stubRepo) CreateOrders(ctx context.Context, orders []model.Order) error {
	s.createdOrders = orders
	return nil
}

func (s *stubRepo) GetOrderByID(ctx context.Context, id int64) (*model.Order, error) {
	return s.order, s.orderErr
}

func (s *stubRepo) GetOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	return nil, nil
}

func (s *stubRepo) GetOrdersByShop(ctx context.Context, shopID int64) ([]model.Order, error) {
	return nil, nil
}

func (s *stubRepo) GetAllOrders(ctx context.Context) ([]model.Order, error) { return nil, nil }

func (s *stubRepo) TransitionOrder(ctx context.Context, orderID int64, from, to model.OrderStatus) error {
	s.transitionTo = to
	return nil
}

func (s *stubRepo) MarkOrderTransferred(ctx context.Context, orderID int64, from model.OrderStatus) error {
	s.transferredFrom = from
	return nil
}

func (s *stubRepo) MarkOrderDelivered(ctx context.Context, orderID int64, from model.OrderStatus, creditCents int64) error {
	s.deliveredCredit = creditCents
	return nil
}

func (s *stubRepo) MarkOrderRefundSuccess(ctx context.Context, orderID int64, from model.OrderStatus) error {
	s.refundedFrom = from
	return nil
}

func (s *stubRepo) CreateWithdrawal(ctx context.Context, shopID, amountCents int64) (*model.Withdrawal, error) {
	return s.withdrawal, nil
}

func (s *stubRepo) GetAllWithdrawals(ctx context.Context) ([]model.Withdrawal, error) {
	return nil, nil
}

func (s *stubRepo) ApproveWithdrawal(ctx context.Context, id int64) (*model.Withdrawal, error) {
	return s.withdrawal, nil
}

func newTestService(repo Repository) *Service {
	return NewService(repo, nil, nil, "test-secret", "", nil)
}

func TestRegisterUser_DuplicateEmail(t *testing.T) {
	repo := &stubRepo{
		user: &model.User{ID: 1, Email: "buyer@example.com"},
	}
	svc := newTestService(repo)

	_, err := svc.RegisterUser(context.Background(), "Buyer", "buyer@example.com", "secret123", "")
	if !errors.Is(err, repository.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestRegisterUser_InvalidEmail(t *testing.T) {
	svc := newTestService(&stubRepo{userErr: repository.ErrNotFound})

	_, err := svc.RegisterUser(context.Background(), "Buyer", "not-an-email", "secret123", "")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestRegisterAndActivateUser(t *testing.T) {
	repo := &stubRepo{userErr: repository.ErrNotFound, createdID: 7}
	svc := newTestService(repo)

	token, err := svc.RegisterUser(context.Background(), "Buyer", "buyer@example.com", "secret123", "")
	if err != nil {
		t.Fatalf("RegisterUser error: %v", err)
	}
	if repo.createdUser != nil {
		t.Fatalf("user must not be created before activation")
	}

	u, err := svc.ActivateUser(context.Background(), token)
	if err != nil {
		t.Fatalf("ActivateUser error: %v", err)
	}
	if u.ID != 7 {
		t.Fatalf("user ID = %d, want 7", u.ID)
	}
	if u.Email != "buyer@example.com" || u.Role != model.RoleUser {
		t.Fatalf("unexpected activated user: %+v", u)
	}
	if string(u.PasswordHash) != string(hashPassword("buyer@example.com", "secret123")) {
		t.Fatalf("password hash does not survive activation")
	}
}

func TestActivateUser_GarbageToken(t *testing.T) {
	svc := newTestService(&stubRepo{})

	_, err := svc.ActivateUser(context.Background(), "not-a-token")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestActivateUser_WrongKind(t *testing.T) {
	repo := &stubRepo{shopErr: repository.ErrNotFound}
	svc := newTestService(repo)

	token, err := svc.RegisterShop(context.Background(), ShopRegistration{
		Name:     "Shop",
		Email:    "shop@example.com",
		Password: "secret123",
	})
	if err != nil {
		t.Fatalf("RegisterShop error: %v", err)
	}

	_, err = svc.ActivateUser(context.Background(), token)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("shop token must not activate a user, got %v", err)
	}
}

func TestAuthenticateUser_InvalidCredentials(t *testing.T) {
	repo := &stubRepo{
		user: &model.User{
			ID:           1,
			Email:        "buyer@example.com",
			PasswordHash: hashPassword("buyer@example.com", "correct"),
		},
	}
	svc := newTestService(repo)

	_, err := svc.AuthenticateUser(context.Background(), "buyer@example.com", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticateUser_UnknownEmail(t *testing.T) {
	svc := newTestService(&stubRepo{userErr: repository.ErrNotFound})

	_, err := svc.AuthenticateUser(context.Background(), "nobody@example.com", "whatever")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestUpdateUserAddresses_AddsNewAddress(t *testing.T) {
	repo := &stubRepo{
		user: &model.User{
			ID: 1,
			Addresses: []model.UserAddress{
				{ID: 3, AddressType: "home", City: "Tver"},
			},
		},
	}
	svc := newTestService(repo)

	u, err := svc.UpdateUserAddresses(context.Background(), 1, model.UserAddress{
		AddressType: "work",
		City:        "Moscow",
		Address1:    "Tverskaya 1",
	})
	if err != nil {
		t.Fatalf("UpdateUserAddresses error: %v", err)
	}
	if len(u.Addresses) != 2 {
		t.Fatalf("addresses = %d, want 2", len(u.Addresses))
	}
	if u.Addresses[1].ID != 4 {
		t.Fatalf("new address ID = %d, want 4", u.Addresses[1].ID)
	}
	if len(repo.savedAddresses) != 2 {
		t.Fatalf("addresses must be persisted, got %d", len(repo.savedAddresses))
	}
}

func TestUpdateUserAddresses_DuplicateType(t *testing.T) {
	repo := &stubRepo{
		user: &model.User{
			ID:        1,
			Addresses: []model.UserAddress{{ID: 1, AddressType: "home"}},
		},
	}
	svc := newTestService(repo)

	_, err := svc.UpdateUserAddresses(context.Background(), 1, model.UserAddress{AddressType: "home"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if repo.savedAddresses != nil {
		t.Fatalf("rejected address must not be persisted")
	}
}

func TestUpdateUserAddresses_UpdatesExisting(t *testing.T) {
	repo := &stubRepo{
		user: &model.User{
			ID:        1,
			Addresses: []model.UserAddress{{ID: 2, AddressType: "home", City: "Tver"}},
		},
	}
	svc := newTestService(repo)

	u, err := svc.UpdateUserAddresses(context.Background(), 1, model.UserAddress{
		ID:          2,
		AddressType: "home",
		City:        "Moscow",
	})
	if err != nil {
		t.Fatalf("UpdateUserAddresses error: %v", err)
	}
	if len(u.Addresses) != 1 {
		t.Fatalf("addresses = %d, want 1", len(u.Addresses))
	}
	if u.Addresses[0].City != "Moscow" {
		t.Fatalf("address not updated: %+v", u.Addresses[0])
	}
}

func TestDeleteUserAddress(t *testing.T) {
	repo := &stubRepo{
		user: &model.User{
			ID: 1,
			Addresses: []model.UserAddress{
				{ID: 1, AddressType: "home"},
				{ID: 2, AddressType: "work"},
			},
		},
	}
	svc := newTestService(repo)

	u, err := svc.DeleteUserAddress(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("DeleteUserAddress error: %v", err)
	}
	if len(u.Addresses) != 1 || u.Addresses[0].ID != 2 {
		t.Fatalf("unexpected addresses after delete: %+v", u.Addresses)
	}

	_, err = svc.DeleteUserAddress(context.Background(), 1, 99)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown address, got %v", err)
	}
}

func TestUpdateUserPassword_WrongOldPassword(t *testing.T) {
	repo := &stubRepo{
		user: &model.User{
			ID:           1,
			Email:        "buyer@example.com",
			PasswordHash: hashPassword("buyer@example.com", "correct"),
		},
	}
	svc := newTestService(repo)

	err := svc.UpdateUserPassword(context.Background(), 1, "wrong", "newsecret", "newsecret")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if repo.newPassword != nil {
		t.Fatalf("password must not change on wrong old password")
	}
}

func TestUpdateUserPassword_ConfirmMismatch(t *testing.T) {
	svc := newTestService(&stubRepo{})

	err := svc.UpdateUserPassword(context.Background(), 1, "correct", "newsecret", "other")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUpdateUserPassword_HashesWithEmail(t *testing.T) {
	repo := &stubRepo{
		user: &model.User{
			ID:           1,
			Email:        "buyer@example.com",
			PasswordHash: hashPassword("buyer@example.com", "correct"),
		},
	}
	svc := newTestService(repo)

	if err := svc.UpdateUserPassword(context.Background(), 1, "correct", "newsecret", "newsecret"); err != nil {
		t.Fatalf("UpdateUserPassword error: %v", err)
	}
	want := hashPassword("buyer@example.com", "newsecret")
	if string(repo.newPassword) != string(want) {
		t.Fatalf("new password hash not salted with account email")
	}
}

func TestCreateOrder_GroupsCartByShop(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(repo)

	cart := []model.OrderItem{
		{ProductID: 1, ShopID: 10, Name: "a", Quantity: 2, DiscountPriceCents: 500},
		{ProductID: 2, ShopID: 20, Name: "b", Quantity: 1, DiscountPriceCents: 300},
		{ProductID: 3, ShopID: 10, Name: "c", Quantity: 5, DiscountPriceCents: 100},
	}

	orders, err := svc.CreateOrder(context.Background(), 1, cart, model.ShippingAddress{City: "Tver"}, model.PaymentInfo{})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}
	if len(orders) != 2 {
		t.Fatalf("orders = %d, want 2", len(orders))
	}
	if orders[0].ShopID() != 10 || orders[1].ShopID() != 20 {
		t.Fatalf("shop order not preserved: %d, %d", orders[0].ShopID(), orders[1].ShopID())
	}
	if orders[0].TotalPriceCents != 600 {
		t.Fatalf("first order total = %d, want 600", orders[0].TotalPriceCents)
	}
	if orders[1].TotalPriceCents != 300 {
		t.Fatalf("second order total = %d, want 300", orders[1].TotalPriceCents)
	}
	if len(repo.createdOrders) != 2 {
		t.Fatalf("orders must be persisted in one call, got %d", len(repo.createdOrders))
	}
	if orders[0].Status != model.OrderStatusProcessing {
		t.Fatalf("initial status = %s, want %s", orders[0].Status, model.OrderStatusProcessing)
	}
}

func TestCreateOrder_EmptyCart(t *testing.T) {
	svc := newTestService(&stubRepo{})

	_, err := svc.CreateOrder(context.Background(), 1, nil, model.ShippingAddress{}, model.PaymentInfo{})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUpdateOrderStatus_UnknownStatus(t *testing.T) {
	svc := newTestService(&stubRepo{})

	_, err := svc.UpdateOrderStatus(context.Background(), 5, 1, "Foo")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestUpdateOrderStatus_ForeignOrder(t *testing.T) {
	repo := &stubRepo{
		order: &model.Order{
			ID:     1,
			Status: model.OrderStatusProcessing,
			Items:  []model.OrderItem{{ProductID: 1, ShopID: 10, Quantity: 1}},
		},
	}
	svc := newTestService(repo)

	_, err := svc.UpdateOrderStatus(context.Background(), 99, 1, string(model.OrderStatusTransferred))
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
}

func TestUpdateOrderStatus_InvalidTransition(t *testing.T) {
	repo := &stubRepo{
		order: &model.Order{
			ID:     1,
			Status: model.OrderStatusProcessing,
			Items:  []model.OrderItem{{ProductID: 1, ShopID: 10, Quantity: 1}},
		},
	}
	svc := newTestService(repo)

	_, err := svc.UpdateOrderStatus(context.Background(), 10, 1, string(model.OrderStatusDelivered))
	if !errors.Is(err, repository.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if repo.deliveredCredit != 0 {
		t.Fatalf("rejected transition must not credit the seller")
	}
}

func TestUpdateOrderStatus_DeliveredCreditsSellerMinusCharge(t *testing.T) {
	repo := &stubRepo{
		order: &model.Order{
			ID:              1,
			Status:          model.OrderStatusShipping,
			TotalPriceCents: 1000,
			Items:           []model.OrderItem{{ProductID: 1, ShopID: 10, Quantity: 1}},
		},
	}
	svc := newTestService(repo)

	_, err := svc.UpdateOrderStatus(context.Background(), 10, 1, string(model.OrderStatusDelivered))
	if err != nil {
		t.Fatalf("UpdateOrderStatus error: %v", err)
	}
	if repo.deliveredCredit != 900 {
		t.Fatalf("seller credit = %d, want 900", repo.deliveredCredit)
	}
}

func TestRefundRequest_ForeignOrder(t *testing.T) {
	repo := &stubRepo{
		order: &model.Order{
			ID:     1,
			UserID: 2,
			Status: model.OrderStatusProcessing,
			Items:  []model.OrderItem{{ProductID: 1, ShopID: 10, Quantity: 1}},
		},
	}
	svc := newTestService(repo)

	_, err := svc.RefundRequest(context.Background(), 3, 1)
	if !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("expected ErrAccessDenied, got %v", err)
	}
}

func TestRefundApprove_RestoresStock(t *testing.T) {
	repo := &stubRepo{
		order: &model.Order{
			ID:     1,
			UserID: 2,
			Status: model.OrderStatusRefundRequested,
			Items:  []model.OrderItem{{ProductID: 1, ShopID: 10, Quantity: 3}},
		},
	}
	svc := newTestService(repo)

	_, err := svc.RefundApprove(context.Background(), 10, 1)
	if err != nil {
		t.Fatalf("RefundApprove error: %v", err)
	}
	if repo.refundedFrom != model.OrderStatusRefundRequested {
		t.Fatalf("refund must go through the stock-restoring path")
	}
}

func TestCreateWithdrawal_NegativeAmount(t *testing.T) {
	svc := newTestService(&stubRepo{})

	_, err := svc.CreateWithdrawal(context.Background(), 1, -10)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateWithdrawal_SurvivesMissingShop(t *testing.T) {
	repo := &stubRepo{
		withdrawal: &model.Withdrawal{ID: 1, ShopID: 2, AmountCents: 1000, Status: model.WithdrawalStatusProcessing},
		shopErr:    repository.ErrNotFound,
	}
	svc := newTestService(repo)

	w, err := svc.CreateWithdrawal(context.Background(), 2, 10)
	if err != nil {
		t.Fatalf("CreateWithdrawal error: %v", err)
	}
	if w.ID != 1 {
		t.Fatalf("withdrawal ID = %d, want 1", w.ID)
	}
}

func TestChangePassword_HashesWithAccountEmail(t *testing.T) {
	repo := &stubRepo{resetEmail: "shop@example.com"}
	svc := newTestService(repo)

	if err := svc.ChangePassword(context.Background(), "token", "newsecret"); err != nil {
		t.Fatalf("ChangePassword error: %v", err)
	}
	want := hashPassword("shop@example.com", "newsecret")
	if string(repo.resetHash) != string(want) {
		t.Fatalf("reset hash not salted with account email")
	}
}

func TestChangePassword_UnknownToken(t *testing.T) {
	svc := newTestService(&stubRepo{})

	err := svc.ChangePassword(context.Background(), "missing", "newsecret")
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAddReview_InvalidRating(t *testing.T) {
	svc := newTestService(&stubRepo{})

	err := svc.AddReview(context.Background(), &model.Review{ProductID: 1, UserID: 1, Rating: 9}, 1)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateCoupon_InvalidValue(t *testing.T) {
	svc := newTestService(&stubRepo{})

	_, err := svc.CreateCoupon(context.Background(), &model.CouponCode{Name: "SALE", ValuePercent: 150})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
