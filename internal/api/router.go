package api

import (
	"net/http"

	"storefront/internal/metrics"
	"storefront/internal/middleware"
	"storefront/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type RouterConfig struct {
	Auth              *service.AuthService
	Shop              *service.ShopService
	Redis             redis.Scripter // nil keeps rate limiting in process
	RequestsPerSecond int
	AllowedOrigins    []string
	SecureCookies     bool
}

func RegisterRoutes(cfg RouterConfig) *gin.Engine {
	authHandler := NewAuthHandler(cfg.Auth, cfg.SecureCookies)
	shop := NewShopHandler(cfg.Shop)

	r := gin.New()
	r.Use(
		middleware.CorsMiddleware(cfg.AllowedOrigins),
		middleware.RequestID(),
		middleware.GinZapLogger(),
		middleware.GinZapRecovery(),
		middleware.HttpMiddleware(),
		middleware.TraceMiddleware(),
	)
	r.SetTrustedProxies(nil)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	requireAuth := middleware.JWTMiddleware(cfg.Auth)
	authLimiter := middleware.RateLimitMiddleware(cfg.Redis, cfg.RequestsPerSecond)

	auth := r.Group("/auth")
	{
		auth.POST("/login", authLimiter, authHandler.Login)
		auth.POST("/refresh-token", authHandler.Refresh)
		auth.POST("/logout", authHandler.Logout)
		auth.POST("/register", authLimiter, authHandler.Register)
		auth.GET("/verify-email", authHandler.VerifyEmail)
		auth.POST("/resend-verification", authLimiter, authHandler.ResendVerification)
		auth.PATCH("/change-password", requireAuth, authHandler.ChangePassword)
	}

	product := r.Group("/product")
	{
		product.GET("", shop.ListProducts)
		product.GET("/categories", shop.Categories)
		product.GET("/search", shop.Search)
		product.POST("/compare", shop.Compare)
		product.GET("/:id", shop.Product)
		product.GET("/category/:id/filter", shop.Filter)
		product.GET("/category/:id/filter-options", shop.FilterOptions)
	}

	province := r.Group("/province")
	{
		province.GET("", shop.Provinces)
		province.GET("/:code/wards", shop.Wards)
	}

	r.GET("/payment/vnpay/callback", shop.VNPayCallback)

	protected := r.Group("")
	protected.Use(requireAuth)
	{
		protected.GET("/profile", authHandler.GetProfile)
		protected.PUT("/profile", authHandler.UpdateProfile)

		protected.GET("/cart", shop.Cart)
		protected.GET("/cart/total-quantity", shop.TotalQuantity)
		protected.POST("/cart", shop.AddToCart())
		protected.PATCH("/cart", shop.UpdateQuantity())
		protected.DELETE("/cart", shop.RemoveFromCart())
		protected.PATCH("/cart/toggle-selection", shop.ToggleSelection())
		protected.PATCH("/cart/toggle-all", shop.ToggleAll)

		protected.GET("/orders", shop.Orders)
		protected.GET("/orders/:id", shop.OrderDetails)
		protected.POST("/orders", shop.PlaceOrder)
		protected.PATCH("/orders/:id/cancel", shop.CancelOrder)

		protected.GET("/address", shop.Addresses)
		protected.GET("/address/:id", shop.Address)
		protected.POST("/address", shop.CreateAddress)
		protected.PUT("/address/:id", shop.UpdateAddress)
		protected.DELETE("/address/:id", shop.DeleteAddress)
		protected.PATCH("/address/:id/set-default", shop.SetDefaultAddress)
	}
	return r
}
