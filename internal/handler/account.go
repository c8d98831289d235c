package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/mmeshcher/marketplace-system/internal/middleware"
	"github.com/mmeshcher/marketplace-system/internal/model"
	"github.com/mmeshcher/marketplace-system/internal/service"
)

type shopResponse struct {
	model.Shop
	AvailableBalance float64 `json:"availableBalance"`
}

func toShopResponse(s model.Shop) shopResponse {
	return shopResponse{Shop: s, AvailableBalance: s.AvailableBalance()}
}

type transactionResponse struct {
	model.Transaction
	Amount float64 `json:"amount"`
}

func toTransactionResponses(transactions []model.Transaction) []transactionResponse {
	resp := make([]transactionResponse, 0, len(transactions))
	for _, t := range transactions {
		resp = append(resp, transactionResponse{Transaction: t, Amount: model.CentsToAmount(t.AmountCents)})
	}
	return resp
}

type registerUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phoneNumber"`
}

// CreateUser начинает регистрацию пользователя: отправляет письмо с токеном
// активации. Учётная запись создаётся при активации.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req registerUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	_, err := h.service.RegisterUser(r.Context(), req.Name, req.Email, req.Password, req.Phone)
	if err != nil {
		h.handleServiceError(w, err, "register user error", zap.String("email", req.Email))
		return
	}

	h.writeJSON(w, http.StatusCreated, envelope{
		"message": "please check your email to activate your account",
	})
}

type activationRequest struct {
	Token string `json:"activation_token"`
}

// ActivateUser создаёт учётную запись по токену активации и выполняет вход.
func (h *Handler) ActivateUser(w http.ResponseWriter, r *http.Request) {
	var req activationRequest
	if !h.decode(w, r, &req) {
		return
	}

	u, err := h.service.ActivateUser(r.Context(), req.Token)
	if err != nil {
		h.handleServiceError(w, err, "activate user error")
		return
	}

	h.authMiddleware.SetAuthCookie(w, middleware.Principal{ID: u.ID, Kind: middleware.KindUser, Role: u.Role})
	h.writeJSON(w, http.StatusCreated, envelope{"user": u})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginUser выполняет вход пользователя и устанавливает cookie авторизации.
func (h *Handler) LoginUser(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		h.writeError(w, http.StatusBadRequest, "please provide email and password")
		return
	}

	u, err := h.service.AuthenticateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		h.handleServiceError(w, err, "login user error", zap.String("email", req.Email))
		return
	}

	h.authMiddleware.SetAuthCookie(w, middleware.Principal{ID: u.ID, Kind: middleware.KindUser, Role: u.Role})
	h.writeJSON(w, http.StatusOK, envelope{"user": u})
}

// GetUser возвращает профиль текущего пользователя.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	u, err := h.service.GetUser(r.Context(), p.ID)
	if err != nil {
		h.handleServiceError(w, err, "get user error", zap.Int64("userID", p.ID))
		return
	}

	h.writeJSON(w, http.StatusOK, envelope{"user": u})
}

// Logout сбрасывает cookie авторизации.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authMiddleware.ClearAuthCookie(w)
	h.writeJSON(w, http.StatusCreated, envelope{"message": "log out successful"})
}

type updateUserRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phoneNumber"`
}

// UpdateUserInfo обновляет профиль текущего пользователя.
func (h *Handler) UpdateUserInfo(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req updateUserRequest
	if !h.decode(w, r, &req) {
		return
	}

	u, err := h.service.UpdateUserInfo(r.Context(), p.ID, req.Name, req.Phone)
	if err != nil {
		h.handleServiceError(w, err, "update user info error", zap.Int64("userID", p.ID))
		return
	}

	h.writeJSON(w, http.StatusCreated, envelope{"user": u})
}

type updateAddressRequest struct {
	ID          int64  `json:"id"`
	Country     string `json:"country"`
	City        string `json:"city"`
	Address1    string `json:"address1"`
	Address2    string `json:"address2"`
	ZipCode     string `json:"zipCode"`
	AddressType string `json:"addressType"`
}

// UpdateUserAddresses добавляет или обновляет сохранённый адрес текущего
// пользователя.
func (h *Handler) UpdateUserAddresses(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req updateAddressRequest
	if !h.decode(w, r, &req) {
		return
	}

	u, err := h.service.UpdateUserAddresses(r.Context(), p.ID, model.UserAddress{
		ID:          req.ID,
		Country:     req.Country,
		City:        req.City,
		Address1:    req.Address1,
		Address2:    req.Address2,
		ZipCode:     req.ZipCode,
		AddressType: req.AddressType,
	})
	if err != nil {
		h.handleServiceError(w, err, "update user addresses error", zap.Int64("userID", p.ID))
		return
	}

	h.writeJSON(w, http.StatusOK, envelope{"user": u})
}

// DeleteUserAddress удаляет сохранённый адрес текущего пользователя.
func (h *Handler) DeleteUserAddress(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	id, ok := h.urlID(w, r, "id")
	if !ok {
		return
	}

	u, err := h.service.DeleteUserAddress(r.Context(), p.ID, id)
	if err != nil {
		h.handleServiceError(w, err, "delete user address error",
			zap.Int64("userID", p.ID), zap.Int64("addressID", id))
		return
	}

	h.writeJSON(w, http.StatusOK, envelope{"user": u})
}

type updatePasswordRequest struct {
	OldPassword     string `json:"oldPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// UpdateUserPassword меняет пароль текущего пользователя.
func (h *Handler) UpdateUserPassword(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req updatePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.service.UpdateUserPassword(r.Context(), p.ID, req.OldPassword, req.NewPassword, req.ConfirmPassword)
	if err != nil {
		h.handleServiceError(w, err, "update user password error", zap.Int64("userID", p.ID))
		return
	}

	h.writeJSON(w, http.StatusOK, envelope{"message": "password updated successfully"})
}

// AdminAllUsers возвращает всех пользователей платформы.
func (h *Handler) AdminAllUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.handleServiceError(w, err, "list users error")
		return
	}

	h.writeJSON(w, http.StatusCreated, envelope{"users": users})
}

// DeleteUser удаляет пользователя по идентификатору.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		h.handleServiceError(w, err, "delete user error", zap.Int64("userID", id))
		return
	}

	h.writeJSON(w, http.StatusCreated, envelope{"message": "user deleted successfully"})
}

type registerShopRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Description string `json:"description"`
	Address     string `json:"address"`
	Phone       string `json:"phoneNumber"`
	ZipCode     string `json:"zipCode"`
}

// CreateShop начинает регистрацию магазина: отправляет письмо с токеном активации.
func (h *Handler) CreateShop(w http.ResponseWriter, r *http.Request) {
	var req registerShopRequest
	if !h.decode(w, r, &req) {
		return
	}

	_, err := h.service.RegisterShop(r.Context(), service.ShopRegistration{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		Description: req.Description,
		Address:     req.Address,
		Phone:       req.Phone,
		ZipCode:     req.ZipCode,
	})
	if err != nil {
		h.handleServiceError(w, err, "register shop error", zap.String("email", req.Email))
		return
	}

	h.writeJSON(w, http.StatusCreated, envelope{
		"message": "please check your email to activate your shop",
	})
}

// ActivateShop создаёт магазин по токену активации и выполняет вход продавца.
func (h *Handler) ActivateShop(w http.ResponseWriter, r *http.Request) {
	var req activationRequest
	if !h.decode(w, r, &req) {
		return
	}

	shop, err := h.service.ActivateShop(r.Context(), req.Token)
	if err != nil {
		h.handleServiceError(w, err, "activate shop error")
		return
	}

	h.authMiddleware.SetAuthCookie(w, middleware.Principal{ID: shop.ID, Kind: middleware.KindSeller, Role: "seller"})
	h.writeJSON(w, http.StatusCreated, envelope{"shop": toShopResponse(*shop)})
}

// LoginShop выполняет вход продавца и устанавливает cookie авторизации.
func (h *Handler) LoginShop(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		h.writeError(w, http.StatusBadRequest, "please provide email and password")
		return
	}

	shop, err := h.service.AuthenticateShop(r.Context(), req.Email, req.Password)
	if err != nil {
		h.handleServiceError(w, err, "login shop error", zap.String("email", req.Email))
		return
	}

	h.authMiddleware.SetAuthCookie(w, middleware.Principal{ID: shop.ID, Kind: middleware.KindSeller, Role: "seller"})
	h.writeJSON(w, http.StatusOK, envelope{"shop": toShopResponse(*shop)})
}

// GetSeller возвращает профиль текущего продавца вместе с историей операций.
func (h *Handler) GetSeller(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	shop, transactions, err := h.service.GetShopWithTransactions(r.Context(), p.ID)
	if err != nil {
		h.handleServiceError(w, err, "get seller error", zap.Int64("shopID", p.ID))
		return
	}

	h.writeJSON(w, http.StatusOK, envelope{
		"seller":       toShopResponse(*shop),
		"transactions": toTransactionResponses(transactions),
	})
}

// GetShopInfo возвращает публичный профиль магазина по идентификатору.
func (h *Handler) GetShopInfo(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r, "id")
	if !ok {
		return
	}

	shop, err := h.service.GetShop(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err, "get shop info error", zap.Int64("shopID", id))
		return
	}

	h.writeJSON(w, http.StatusOK, envelope{"shop": toShopResponse(*shop)})
}

type updateShopRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Address     string `json:"address"`
	Phone       string `json:"phoneNumber"`
	ZipCode     string `json:"zipCode"`
}

// UpdateShopInfo обновляет профиль текущего продавца.
func (h *Handler) UpdateShopInfo(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req updateShopRequest
	if !h.decode(w, r, &req) {
		return
	}

	shop, err := h.service.UpdateShopInfo(r.Context(), p.ID, req.Name, req.Description, req.Address, req.Phone, req.ZipCode)
	if err != nil {
		h.handleServiceError(w, err, "update shop info error", zap.Int64("shopID", p.ID))
		return
	}

	h.writeJSON(w, http.StatusCreated, envelope{"shop": toShopResponse(*shop)})
}

// AdminAllSellers возвращает все магазины платформы.
func (h *Handler) AdminAllSellers(w http.ResponseWriter, r *http.Request) {
	shops, err := h.service.ListShops(r.Context())
	if err != nil {
		h.handleServiceError(w, err, "list shops error")
		return
	}

	resp := make([]shopResponse, 0, len(shops))
	for _, s := range shops {
		resp = append(resp, toShopResponse(s))
	}

	h.writeJSON(w, http.StatusCreated, envelope{"sellers": resp})
}

// DeleteSeller удаляет магазин по идентификатору.
func (h *Handler) DeleteSeller(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteShop(r.Context(), id); err != nil {
		h.handleServiceError(w, err, "delete shop error", zap.Int64("shopID", id))
		return
	}

	h.writeJSON(w, http.StatusCreated, envelope{"message": "seller deleted successfully"})
}

type resetRequest struct {
	Role  string `json:"role"`
	Email string `json:"email"`
}

// ResetPassword отправляет письмо с токеном восстановления пароля.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.RequestPasswordReset(r.Context(), req.Role, req.Email); err != nil {
		h.handleServiceError(w, err, "password reset error", zap.String("email", req.Email))
		return
	}

	h.writeJSON(w, http.StatusOK, envelope{
		"message": "please check your email for the reset code",
	})
}

type changePasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ChangePassword меняет пароль по токену восстановления.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.ChangePassword(r.Context(), req.Token, req.Password); err != nil {
		h.handleServiceError(w, err, "change password error")
		return
	}

	h.writeJSON(w, http.StatusOK, envelope{"message": "password changed successfully"})
}
