package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	mwauth "github.com/SiddharthaDhakal2/Agri-Backend/internal/middleware/auth"
)

type Deps struct {
	Auth      *AuthHTTP
	Products  *ProductHTTP
	Orders    *OrderHTTP
	Payments  *PaymentHTTP
	JWTSecret []byte
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	mw := &mwauth.Middleware{JWTSecret: d.JWTSecret}

	auth := e.Group("/api/auth")
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/refresh", d.Auth.Refresh)
	auth.POST("/logout", d.Auth.Logout)

	products := e.Group("/api/product")
	products.GET("", d.Products.GetProducts)
	products.GET("/search", d.Products.SearchProducts)
	products.GET("/category/:category", d.Products.GetByCategory)
	products.GET("/:id", d.Products.GetProduct)
	products.POST("", d.Products.CreateProduct, mw.RequireAdmin)
	products.PATCH("/:id", d.Products.UpdateProduct, mw.RequireAdmin)
	products.PATCH("/:id/stock", d.Products.UpdateStock, mw.RequireAdmin)
	products.DELETE("/:id", d.Products.DeleteProduct, mw.RequireAdmin)

	orders := e.Group("/api/order", mw.RequireLogin)
	orders.POST("", d.Orders.CreateOrder)
	orders.GET("/my", d.Orders.GetMyOrders)
	orders.GET("/:id", d.Orders.GetOrder)
	orders.GET("", d.Orders.GetAllOrders, mw.RequireAdmin)
	orders.GET("/status", d.Orders.GetOrdersByStatus, mw.RequireAdmin)
	orders.PATCH("/:id/status", d.Orders.UpdateOrderStatus, mw.RequireAdmin)
	orders.DELETE("/:id", d.Orders.DeleteOrder, mw.RequireAdmin)

	payments := e.Group("/api/payment/khalti", mw.RequireLogin)
	payments.POST("/initiate", d.Payments.InitiateKhalti)
	payments.POST("/verify", d.Payments.VerifyKhalti)
}
