package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/marketplace-system/internal/model"
)

type productResponse struct {
	model.Product
	OriginalPrice float64 `json:"originalPrice"`
	DiscountPrice float64 `json:"discountPrice"`
}

func toProductResponse(p model.Product) productResponse {
	return productResponse{
		Product:       p,
		OriginalPrice: model.CentsToAmount(p.OriginalPriceCents),
		DiscountPrice: model.CentsToAmount(p.DiscountPriceCents),
	}
}

func toProductResponses(products []model.Product) []productResponse {
	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, toProductResponse(p))
	}
	return resp
}

type productRequest struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Category      string  `json:"category"`
	OriginalPrice float64 `json:"originalPrice"`
	DiscountPrice float64 `json:"discountPrice"`
	Stock         int     `json:"stock"`
}

// CreateProduct создаёт товар текущего продавца.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req productRequest
	if !h.decode(w, r, &req) {
		return
	}

	product, err := h.service.CreateProduct(r.Context(), &model.Product{
		ShopID:             p.ID,
		Name:               req.Name,
		Description:        req.Description,
		Category:           req.Category,
		OriginalPriceCents: model.AmountToCents(req.OriginalPrice),
		DiscountPriceCents: model.AmountToCents(req.DiscountPrice),
		Stock:              req.Stock,
	})
	if err != nil {
		h.handleServiceError(w, err, "create product error", zap.Int64("shopID", p.ID))
		return
	}

	h.writeJSON(w, http.StatusCreated, envelope{"product": toProductResponse(*product)})
}

// GetAllProducts возвращает все товары платформы.
func (h *Handler) GetAllProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		h.handleServiceError(w, err, "list products error")
		return
	}

	h.writeJSON(w, http.StatusOK, envelope{"products": toProductResponses(products)})
}

// GetShopProducts возвращает товары магазина.
func (h *Handler) GetShopProducts(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r, "id")
	if !ok {
		return
	}

	products, err := h.service.GetProductsByShop(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err, "list shop products error", zap.Int64("shopID", id))
		return
	}

	h.writeJSON(w, http.StatusOK, envelope{"products": toProductResponses(products)})
}

// DeleteShopProduct удаляет товар текущего продавца.
func (h *Handler) DeleteShopProduct(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	id, ok := h.urlID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id, p.ID); err != nil {
		h.handleServiceError(w, err, "delete product error",
			zap.Int64("productID", id), zap.Int64("shopID", p.ID))
		return
	}

	h.writeJSON(w, http.StatusCreated, envelope{"message": "product deleted successfully"})
}

type reviewRequest struct {
	ProductID int64  `json:"productId"`
	OrderID   int64  `json:"orderId"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

// CreateReview сохраняет отзыв текущего пользователя о купленном товаре.
func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req reviewRequest
	if !h.decode(w, r, &req) {
		return
	}

	err := h.service.AddReview(r.Context(), &model.Review{
		ProductID: req.ProductID,
		UserID:    p.ID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}, req.OrderID)
	if err != nil {
		h.handleServiceError(w, err, "create review error",
			zap.Int64("productID", req.ProductID), zap.Int64("userID", p.ID))
		return
	}

	h.writeJSON(w, http.StatusOK, envelope{"message": "reviewed successfully"})
}

type eventResponse struct {
	model.Event
	OriginalPrice float64 `json:"originalPrice"`
	DiscountPrice float64 `json:"discountPrice"`
}

func toEventResponse(e model.Event) eventResponse {
	return eventResponse{
		Event:         e,
		OriginalPrice: model.CentsToAmount(e.OriginalPriceCents),
		DiscountPrice: model.CentsToAmount(e.DiscountPriceCents),
	}
}

func toEventResponses(events []model.Event) []eventResponse {
	resp := make([]eventResponse, 0, len(events))
	for _, e := range events {
		resp = append(resp, toEventResponse(e))
	}
	return resp
}

type eventRequest struct {
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	OriginalPrice float64   `json:"originalPrice"`
	DiscountPrice float64   `json:"discountPrice"`
	Stock         int       `json:"stock"`
	StartDate     time.Time `json:"start_date"`
	FinishDate    time.Time `json:"finish_date"`
}

// CreateEvent создаёт акцию текущего продавца.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req eventRequest
	if !h.decode(w, r, &req) {
		return
	}

	event, err := h.service.CreateEvent(r.Context(), &model.Event{
		ShopID:             p.ID,
		Name:               req.Name,
		Description:        req.Description,
		Category:           req.Category,
		OriginalPriceCents: model.AmountToCents(req.OriginalPrice),
		DiscountPriceCents: model.AmountToCents(req.DiscountPrice),
		Stock:              req.Stock,
		StartDate:          req.StartDate,
		FinishDate:         req.FinishDate,
		Status:             "Running",
	})
	if err != nil {
		h.handleServiceError(w, err, "create event error", zap.Int64("shopID", p.ID))
		return
	}

	h.writeJSON(w, http.StatusCreated, envelope{"event": toEventResponse(*event)})
}

// GetAllEvents возвращает все акции платформы.
func (h *Handler) GetAllEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.ListEvents(r.Context())
	if err != nil {
		h.handleServiceError(w, err, "list events error")
		return
	}

	h.writeJSON(w, http.StatusOK, envelope{"events": toEventResponses(events)})
}

// GetShopEvents возвращает акции магазина.
func (h *Handler) GetShopEvents(w http.ResponseWriter, r *http.Request) {
	id, ok := h.urlID(w, r, "id")
	if !ok {
		return
	}

	events, err := h.service.GetEventsByShop(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err, "list shop events error", zap.Int64("shopID", id))
		return
	}

	h.writeJSON(w, http.StatusOK, envelope{"events": toEventResponses(events)})
}

// DeleteShopEvent удаляет акцию текущего продавца.
func (h *Handler) DeleteShopEvent(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	id, ok := h.urlID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteEvent(r.Context(), id, p.ID); err != nil {
		h.handleServiceError(w, err, "delete event error",
			zap.Int64("eventID", id), zap.Int64("shopID", p.ID))
		return
	}

	h.writeJSON(w, http.StatusCreated, envelope{"message": "event deleted successfully"})
}

type couponResponse struct {
	model.CouponCode
	MinAmount float64 `json:"minAmount"`
	MaxAmount float64 `json:"maxAmount"`
}

func toCouponResponse(c model.CouponCode) couponResponse {
	return couponResponse{
		CouponCode: c,
		MinAmount:  model.CentsToAmount(c.MinAmountCents),
		MaxAmount:  model.CentsToAmount(c.MaxAmountCents),
	}
}

type couponRequest struct {
	Name      string  `json:"name"`
	Value     int     `json:"value"`
	MinAmount float64 `json:"minAmount"`
	MaxAmount float64 `json:"maxAmount"`
	ProductID *int64  `json:"selectedProduct"`
}

// CreateCoupon создаёт купон текущего продавца.
func (h *Handler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req couponRequest
	if !h.decode(w, r, &req) {
		return
	}

	coupon, err := h.service.CreateCoupon(r.Context(), &model.CouponCode{
		ShopID:         p.ID,
		Name:           req.Name,
		ValuePercent:   req.Value,
		MinAmountCents: model.AmountToCents(req.MinAmount),
		MaxAmountCents: model.AmountToCents(req.MaxAmount),
		ProductID:      req.ProductID,
	})
	if err != nil {
		h.handleServiceError(w, err, "create coupon error", zap.Int64("shopID", p.ID))
		return
	}

	h.writeJSON(w, http.StatusCreated, envelope{"couponCode": toCouponResponse(*coupon)})
}

// GetShopCoupons возвращает купоны текущего продавца.
func (h *Handler) GetShopCoupons(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	id, ok := h.urlID(w, r, "id")
	if !ok {
		return
	}
	if id != p.ID {
		h.writeError(w, http.StatusForbidden, "access denied")
		return
	}

	coupons, err := h.service.GetCouponsByShop(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, err, "list coupons error", zap.Int64("shopID", id))
		return
	}

	resp := make([]couponResponse, 0, len(coupons))
	for _, c := range coupons {
		resp = append(resp, toCouponResponse(c))
	}

	h.writeJSON(w, http.StatusOK, envelope{"couponCodes": resp})
}

// GetCouponValue возвращает купон по имени.
func (h *Handler) GetCouponValue(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		h.writeError(w, http.StatusBadRequest, "coupon name is required")
		return
	}

	coupon, err := h.service.GetCouponByName(r.Context(), name)
	if err != nil {
		h.handleServiceError(w, err, "get coupon value error", zap.String("name", name))
		return
	}

	h.writeJSON(w, http.StatusOK, envelope{"couponCode": toCouponResponse(*coupon)})
}

// DeleteCoupon удаляет купон текущего продавца.
func (h *Handler) DeleteCoupon(w http.ResponseWriter, r *http.Request) {
	p, ok := h.principal(w, r)
	if !ok {
		return
	}

	id, ok := h.urlID(w, r, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteCoupon(r.Context(), id, p.ID); err != nil {
		h.handleServiceError(w, err, "delete coupon error",
			zap.Int64("couponID", id), zap.Int64("shopID", p.ID))
		return
	}

	h.writeJSON(w, http.StatusCreated, envelope{"message": "coupon code deleted successfully"})
}
