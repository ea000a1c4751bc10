package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/shopswift/storefront/controllers"
	"github.com/shopswift/storefront/middleware"
)

// Register wires all storefront routes onto the engine.
func Register(
	r *gin.Engine,
	catalog *controllers.CatalogController,
	coupons *controllers.CouponController,
	carts *controllers.CartController,
	orders *controllers.OrderController,
	payments *controllers.PaymentController,
	users *controllers.UserController,
) {
	// Public catalog routes.
	r.GET("/products", catalog.ListProducts)
	r.GET("/products/:slug", catalog.GetProduct)
	r.GET("/categories", catalog.ListCategories)

	// The gateway callback is authenticated by the gateway itself, not by
	// customer identity headers.
	r.POST("/payments/callback", payments.HandleCallback)

	// Authenticated customer routes.
	auth := r.Group("")
	auth.Use(middleware.AuthMiddleware())

	auth.POST("/users", users.Register)
	auth.GET("/users/me", users.GetProfile)

	auth.GET("/cart", carts.GetCart)
	auth.POST("/cart/items", carts.AddItem)
	auth.PATCH("/cart/items", carts.UpdateItem)
	auth.DELETE("/cart/items/:productId", carts.RemoveItem)
	auth.DELETE("/cart", carts.ClearCart)

	auth.POST("/coupons/validate", coupons.ValidateCoupon)

	auth.POST("/orders", orders.CreateOrder)
	auth.GET("/orders", orders.GetOrders)
	auth.GET("/orders/:id", orders.GetOrderByID)

	// Product reviews are authenticated; product id based, not slug based.
	auth.POST("/reviews/:id", catalog.AddReview)
	r.GET("/reviews/:id", catalog.ListReviews)

	// Admin-only routes.
	admin := r.Group("/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminOnly())

	admin.POST("/products", catalog.CreateProduct)
	admin.PATCH("/products/:id", catalog.UpdateProduct)
	admin.POST("/products/:id/attributes", catalog.AddAttribute)
	admin.DELETE("/products/:id/attributes/:attrId", catalog.RemoveAttribute)

	admin.POST("/categories", catalog.CreateCategory)
	admin.PATCH("/categories/:id", catalog.UpdateCategory)

	admin.POST("/coupons", coupons.CreateCoupon)
	admin.GET("/coupons", coupons.ListCoupons)
	admin.GET("/coupons/:code", coupons.GetCoupon)
	admin.DELETE("/coupons/:code", coupons.DeactivateCoupon)

	admin.GET("/orders", orders.GetAllOrders)
	admin.PATCH("/orders/:id/status", orders.UpdateStatus)
	admin.POST("/orders/:id/notes", orders.AddNote)
}
