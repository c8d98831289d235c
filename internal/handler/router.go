package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	custommiddleware "github.com/mmeshcher/marketplace-system/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware маркетплейса.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	requireUser := h.authMiddleware.RequireKind(custommiddleware.KindUser)
	requireSeller := h.authMiddleware.RequireKind(custommiddleware.KindSeller)
	requireAdmin := h.authMiddleware.RequireAdmin()

	r.Route("/api/v2", func(r chi.Router) {
		r.Route("/user", func(r chi.Router) {
			r.Post("/create-user", h.CreateUser)
			r.Post("/activation", h.ActivateUser)
			r.Post("/login-user", h.LoginUser)

			r.Group(func(r chi.Router) {
				r.Use(requireUser)

				r.Get("/getuser", h.GetUser)
				r.Get("/logout", h.Logout)
				r.Put("/update-user-info", h.UpdateUserInfo)
				r.Put("/update-user-addresses", h.UpdateUserAddresses)
				r.Delete("/delete-user-address/{id}", h.DeleteUserAddress)
				r.Put("/update-user-password", h.UpdateUserPassword)
			})

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)

				r.Get("/admin-all-users", h.AdminAllUsers)
				r.Delete("/delete-user/{id}", h.DeleteUser)
			})
		})

		r.Route("/shop", func(r chi.Router) {
			r.Post("/create-shop", h.CreateShop)
			r.Post("/activation", h.ActivateShop)
			r.Post("/login-shop", h.LoginShop)
			r.Get("/get-shop-info/{id}", h.GetShopInfo)

			r.Group(func(r chi.Router) {
				r.Use(requireSeller)

				r.Get("/getSeller", h.GetSeller)
				r.Get("/logout", h.Logout)
				r.Put("/update-seller-info", h.UpdateShopInfo)
			})

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)

				r.Get("/admin-all-sellers", h.AdminAllSellers)
				r.Delete("/delete-seller/{id}", h.DeleteSeller)
			})
		})

		r.Route("/product", func(r chi.Router) {
			r.Get("/get-all-products", h.GetAllProducts)
			r.Get("/get-all-products-shop/{id}", h.GetShopProducts)

			r.Group(func(r chi.Router) {
				r.Use(requireSeller)

				r.Post("/create-product", h.CreateProduct)
				r.Delete("/delete-shop-product/{id}", h.DeleteShopProduct)
			})

			r.With(requireUser).Put("/create-new-review", h.CreateReview)
			r.With(requireAdmin).Get("/admin-all-products", h.GetAllProducts)
		})

		r.Route("/event", func(r chi.Router) {
			r.Get("/get-all-events", h.GetAllEvents)
			r.Get("/get-all-events/{id}", h.GetShopEvents)

			r.Group(func(r chi.Router) {
				r.Use(requireSeller)

				r.Post("/create-event", h.CreateEvent)
				r.Delete("/delete-shop-event/{id}", h.DeleteShopEvent)
			})

			r.With(requireAdmin).Get("/admin-all-events", h.GetAllEvents)
		})

		r.Route("/coupon", func(r chi.Router) {
			r.Get("/get-coupon-value/{name}", h.GetCouponValue)

			r.Group(func(r chi.Router) {
				r.Use(requireSeller)

				r.Post("/create-coupon-code", h.CreateCoupon)
				r.Get("/get-coupon/{id}", h.GetShopCoupons)
				r.Delete("/delete-coupon/{id}", h.DeleteCoupon)
			})
		})

		r.Route("/order", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(requireUser)

				r.Post("/create-order", h.CreateOrder)
				r.Get("/get-all-orders/{userId}", h.GetUserOrders)
				r.Put("/order-refund/{id}", h.OrderRefund)
			})

			r.Group(func(r chi.Router) {
				r.Use(requireSeller)

				r.Get("/get-seller-all-orders/{shopId}", h.GetSellerOrders)
				r.Put("/update-order-status/{id}", h.UpdateOrderStatus)
				r.Put("/order-refund-success/{id}", h.OrderRefundSuccess)
			})

			r.With(requireAdmin).Get("/admin-all-orders", h.AdminAllOrders)
		})

		r.Route("/withdraw", func(r chi.Router) {
			r.With(requireSeller).Post("/create-withdraw-request", h.CreateWithdrawRequest)

			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)

				r.Get("/get-all-withdraw-request", h.GetAllWithdrawRequests)
				r.Put("/update-withdraw-request/{id}", h.UpdateWithdrawRequest)
			})
		})

		r.Route("/payment", func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Post("/process", h.ProcessPayment)
			r.Get("/apikey", h.PaymentAPIKey)
		})

		r.Post("/reset", h.ResetPassword)
		r.Post("/change-password", h.ChangePassword)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, http.StatusNotFound, "route not found")
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}
