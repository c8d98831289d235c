package service

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mmeshcher/marketplace-system/internal/model"
	"github.com/mmeshcher/marketplace-system/internal/notify"
	"github.com/mmeshcher/marketplace-system/internal/repository"
	"github.com/mmeshcher/marketplace-system/internal/validation"
)

const (
	activationTokenTTL = 5 * time.Minute
	resetTokenTTL      = 5 * time.Minute
)

// activationClaims переносит данные регистрации в токене активации.
// Учётная запись создаётся только после подтверждения токена.
type activationClaims struct {
	Kind         string `json:"kind"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
	Phone        string `json:"phone,omitempty"`
	Description  string `json:"description,omitempty"`
	Address      string `json:"address,omitempty"`
	ZipCode      string `json:"zipCode,omitempty"`
	jwt.RegisteredClaims
}

// ShopRegistration содержит данные регистрации магазина.
type ShopRegistration struct {
	Name        string
	Email       string
	Password    string
	Description string
	Address     string
	Phone       string
	ZipCode     string
}

func (s *Service) issueActivationToken(claims activationClaims) (string, error) {
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(activationTokenTTL))
	claims.IssuedAt = jwt.NewNumericDate(time.Now())

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.activationSecret)
	if err != nil {
		return "", fmt.Errorf("sign activation token: %w", err)
	}
	return signed, nil
}

func (s *Service) parseActivationToken(tokenString, wantKind string) (*activationClaims, error) {
	var claims activationClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.activationSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: activation token is invalid or expired", ErrInvalidInput)
	}
	if claims.Kind != wantKind {
		return nil, fmt.Errorf("%w: activation token is invalid or expired", ErrInvalidInput)
	}
	return &claims, nil
}

// RegisterUser проверяет данные регистрации, выпускает токен активации и
// отправляет письмо с ним. Учётная запись будет создана при активации.
func (s *Service) RegisterUser(ctx context.Context, name, email, password, phone string) (string, error) {
	if !validation.IsValidName(name) {
		return "", fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !validation.IsValidEmail(email) {
		return "", fmt.Errorf("%w: email is not valid", ErrInvalidInput)
	}
	if !validation.IsValidPassword(password) {
		return "", fmt.Errorf("%w: password is too short", ErrInvalidInput)
	}
	if !validation.IsValidPhone(phone) {
		return "", fmt.Errorf("%w: phone number is not valid", ErrInvalidInput)
	}

	_, err := s.repo.GetUserByEmail(ctx, email)
	if err == nil {
		return "", fmt.Errorf("%w: %s", repository.ErrUserExists, email)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}

	token, err := s.issueActivationToken(activationClaims{
		Kind:         "user",
		Name:         name,
		Email:        email,
		PasswordHash: hex.EncodeToString(hashPassword(email, password)),
		Phone:        phone,
	})
	if err != nil {
		return "", err
	}

	s.sendMail(ctx, notify.Message{
		Email:   email,
		Subject: "Activate your account",
		Message: fmt.Sprintf("Hello %s, please use this code to activate your account: %s", name, token),
	})

	return token, nil
}

// ActivateUser создаёт учётную запись пользователя по токену активации.
func (s *Service) ActivateUser(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.parseActivationToken(token, "user")
	if err != nil {
		return nil, err
	}

	passwordHash, err := hex.DecodeString(claims.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("%w: activation token is invalid or expired", ErrInvalidInput)
	}

	u := &model.User{
		Name:         claims.Name,
		Email:        claims.Email,
		PasswordHash: passwordHash,
		Role:         model.RoleUser,
		Phone:        claims.Phone,
	}

	id, err := s.repo.CreateUser(ctx, u)
	if err != nil {
		return nil, err
	}
	u.ID = id

	return u, nil
}

// AuthenticateUser проверяет email и пароль пользователя.
func (s *Service) AuthenticateUser(ctx context.Context, email, password string) (*model.User, error) {
	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	hashed := hashPassword(email, password)
	if hex.EncodeToString(hashed) != hex.EncodeToString(u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

// GetUser возвращает пользователя по идентификатору.
func (s *Service) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// UpdateUserInfo обновляет профиль пользователя и возвращает его актуальное состояние.
func (s *Service) UpdateUserInfo(ctx context.Context, id int64, name, phone string) (*model.User, error) {
	if !validation.IsValidName(name) {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if !validation.IsValidPhone(phone) {
		return nil, fmt.Errorf("%w: phone number is not valid", ErrInvalidInput)
	}

	if err := s.repo.UpdateUserInfo(ctx, id, name, phone); err != nil {
		return nil, err
	}
	return s.repo.GetUserByID(ctx, id)
}

// UpdateUserAddresses добавляет адрес пользователя или обновляет уже
// сохранённый. Двух адресов одного типа у пользователя быть не может.
func (s *Service) UpdateUserAddresses(ctx context.Context, userID int64, addr model.UserAddress) (*model.User, error) {
	if !validation.IsValidName(addr.AddressType) {
		return nil, fmt.Errorf("%w: address type is required", ErrInvalidInput)
	}

	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var maxID int64
	updated := false
	for i := range u.Addresses {
		existing := &u.Addresses[i]
		if existing.ID > maxID {
			maxID = existing.ID
		}
		if existing.AddressType == addr.AddressType && existing.ID != addr.ID {
			return nil, fmt.Errorf("%w: %s address already exists", ErrInvalidInput, addr.AddressType)
		}
		if addr.ID != 0 && existing.ID == addr.ID {
			*existing = addr
			updated = true
		}
	}
	if !updated {
		addr.ID = maxID + 1
		u.Addresses = append(u.Addresses, addr)
	}

	if err := s.repo.UpdateUserAddresses(ctx, userID, u.Addresses); err != nil {
		return nil, err
	}
	return u, nil
}

// DeleteUserAddress удаляет сохранённый адрес пользователя.
func (s *Service) DeleteUserAddress(ctx context.Context, userID, addressID int64) (*model.User, error) {
	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	kept := make([]model.UserAddress, 0, len(u.Addresses))
	for _, a := range u.Addresses {
		if a.ID != addressID {
			kept = append(kept, a)
		}
	}
	if len(kept) == len(u.Addresses) {
		return nil, fmt.Errorf("%w: address %d", repository.ErrNotFound, addressID)
	}
	u.Addresses = kept

	if err := s.repo.UpdateUserAddresses(ctx, userID, kept); err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateUserPassword меняет пароль вошедшего пользователя после проверки
// текущего пароля.
func (s *Service) UpdateUserPassword(ctx context.Context, userID int64, oldPassword, newPassword, confirmPassword string) error {
	if newPassword != confirmPassword {
		return fmt.Errorf("%w: passwords do not match", ErrInvalidInput)
	}
	if !validation.IsValidPassword(newPassword) {
		return fmt.Errorf("%w: password is too short", ErrInvalidInput)
	}

	u, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	hashed := hashPassword(u.Email, oldPassword)
	if hex.EncodeToString(hashed) != hex.EncodeToString(u.PasswordHash) {
		return fmt.Errorf("%w: old password is incorrect", ErrInvalidInput)
	}

	return s.repo.UpdateUserPassword(ctx, userID, hashPassword(u.Email, newPassword))
}

// ListUsers возвращает всех пользователей платформы.
func (s *Service) ListUsers(ctx context.Context) ([]model.User, error) {
	return s.repo.GetAllUsers(ctx)
}

// DeleteUser удаляет пользователя.
func (s *Service) DeleteUser(ctx context.Context, id int64) error {
	return s.repo.DeleteUser(ctx, id)
}

// RegisterShop проверяет данные регистрации магазина, выпускает токен
// активации и отправляет письмо с ним.
func (s *Service) RegisterShop(ctx context.Context, reg ShopRegistration) (string, error) {
	if !validation.IsValidName(reg.Name) {
		return "", fmt.Errorf("%w: shop name is required", ErrInvalidInput)
	}
	if !validation.IsValidEmail(reg.Email) {
		return "", fmt.Errorf("%w: email is not valid", ErrInvalidInput)
	}
	if !validation.IsValidPassword(reg.Password) {
		return "", fmt.Errorf("%w: password is too short", ErrInvalidInput)
	}
	if !validation.IsValidPhone(reg.Phone) {
		return "", fmt.Errorf("%w: phone number is not valid", ErrInvalidInput)
	}

	_, err := s.repo.GetShopByEmail(ctx, reg.Email)
	if err == nil {
		return "", fmt.Errorf("%w: %s", repository.ErrShopExists, reg.Email)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}

	token, err := s.issueActivationToken(activationClaims{
		Kind:         "shop",
		Name:         reg.Name,
		Email:        reg.Email,
		PasswordHash: hex.EncodeToString(hashPassword(reg.Email, reg.Password)),
		Phone:        reg.Phone,
		Description:  reg.Description,
		Address:      reg.Address,
		ZipCode:      reg.ZipCode,
	})
	if err != nil {
		return "", err
	}

	s.sendMail(ctx, notify.Message{
		Email:   reg.Email,
		Subject: "Activate your shop",
		Message: fmt.Sprintf("Hello %s, please use this code to activate your shop: %s", reg.Name, token),
	})

	return token, nil
}

// ActivateShop создаёт магазин по токену активации.
func (s *Service) ActivateShop(ctx context.Context, token string) (*model.Shop, error) {
	claims, err := s.parseActivationToken(token, "shop")
	if err != nil {
		return nil, err
	}

	passwordHash, err := hex.DecodeString(claims.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("%w: activation token is invalid or expired", ErrInvalidInput)
	}

	shop := &model.Shop{
		Name:         claims.Name,
		Email:        claims.Email,
		PasswordHash: passwordHash,
		Description:  claims.Description,
		Address:      claims.Address,
		Phone:        claims.Phone,
		ZipCode:      claims.ZipCode,
	}

	id, err := s.repo.CreateShop(ctx, shop)
	if err != nil {
		return nil, err
	}
	shop.ID = id

	return shop, nil
}

// AuthenticateShop проверяет email и пароль магазина.
func (s *Service) AuthenticateShop(ctx context.Context, email, password string) (*model.Shop, error) {
	shop, err := s.repo.GetShopByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	hashed := hashPassword(email, password)
	if hex.EncodeToString(hashed) != hex.EncodeToString(shop.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	return shop, nil
}

// GetShop возвращает магазин по идентификатору.
func (s *Service) GetShop(ctx context.Context, id int64) (*model.Shop, error) {
	return s.repo.GetShopByID(ctx, id)
}

// GetShopWithTransactions возвращает магазин вместе с историей зачтённых операций.
func (s *Service) GetShopWithTransactions(ctx context.Context, id int64) (*model.Shop, []model.Transaction, error) {
	shop, err := s.repo.GetShopByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	transactions, err := s.repo.GetShopTransactions(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	return shop, transactions, nil
}

// UpdateShopInfo обновляет профиль магазина и возвращает его актуальное состояние.
func (s *Service) UpdateShopInfo(ctx context.Context, id int64, name, description, address, phone, zipCode string) (*model.Shop, error) {
	if !validation.IsValidName(name) {
		return nil, fmt.Errorf("%w: shop name is required", ErrInvalidInput)
	}
	if !validation.IsValidPhone(phone) {
		return nil, fmt.Errorf("%w: phone number is not valid", ErrInvalidInput)
	}

	if err := s.repo.UpdateShopInfo(ctx, id, name, description, address, phone, zipCode); err != nil {
		return nil, err
	}
	return s.repo.GetShopByID(ctx, id)
}

// ListShops возвращает все магазины платформы.
func (s *Service) ListShops(ctx context.Context) ([]model.Shop, error) {
	return s.repo.GetAllShops(ctx)
}

// DeleteShop удаляет магазин.
func (s *Service) DeleteShop(ctx context.Context, id int64) error {
	return s.repo.DeleteShop(ctx, id)
}

// RequestPasswordReset выпускает токен восстановления пароля для пользователя
// или магазина и отправляет его письмом.
func (s *Service) RequestPasswordReset(ctx context.Context, role, email string) error {
	var table string
	switch role {
	case "user":
		table = "users"
	case "seller", "shop":
		table = "shops"
	default:
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}

	if !validation.IsValidEmail(email) {
		return fmt.Errorf("%w: email is not valid", ErrInvalidInput)
	}

	token := uuid.NewString()
	if err := s.repo.SetResetToken(ctx, table, email, token, time.Now().Add(resetTokenTTL)); err != nil {
		return err
	}

	s.sendMail(ctx, notify.Message{
		Email:   email,
		Subject: "Reset your password",
		Message: fmt.Sprintf("Please use this code to reset your password: %s. The code expires in 5 minutes.", token),
	})

	return nil
}

// ChangePassword меняет пароль по действующему токену восстановления.
func (s *Service) ChangePassword(ctx context.Context, token, password string) error {
	if !validation.IsValidPassword(password) {
		return fmt.Errorf("%w: password is too short", ErrInvalidInput)
	}

	email, err := s.repo.FindEmailByResetToken(ctx, token)
	if err != nil {
		return err
	}

	return s.repo.ResetPasswordByToken(ctx, token, hashPassword(email, password))
}
