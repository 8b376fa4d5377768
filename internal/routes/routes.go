package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"polli-ahaar/internal/auth"
	"polli-ahaar/internal/cache"
	"polli-ahaar/internal/handlers"
	"polli-ahaar/internal/middleware"
)

// ProductRepository is the catalog storage used by both the product and the
// checkout handlers.
type ProductRepository interface {
	handlers.ProductStore
	handlers.CatalogStore
}

// Dependencies are the collaborators the API is built from.
type Dependencies struct {
	Users    handlers.UserStore
	Products ProductRepository
	Orders   handlers.OrderStore
	Reviews  handlers.ReviewStore
	Carts    handlers.CartStore
	Stats    handlers.StatsStore
	Tokens   *auth.Issuer

	// Mailer may be nil when no SMTP relay is configured.
	Mailer handlers.Mailer
	// Cache holds catalog listings. Nil disables caching.
	Cache *cache.Cache

	VerifyPrices bool
	CORSOrigins  []string
	Log          *zap.Logger
}

// NewRouter builds the engine with the standard middleware chain and every
// API route.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.Logger(deps.Log),
		middleware.Recovery(deps.Log),
		middleware.CORS(deps.CORSOrigins),
	)
	RegisterRoutes(router, deps)
	return router
}

func RegisterRoutes(router *gin.Engine, deps Dependencies) {
	log := deps.Log
	token := middleware.VerifyToken(deps.Tokens)
	admin := middleware.VerifyAdmin(deps.Users, log)

	authH := handlers.NewAuthHandler(deps.Tokens, log)
	users := handlers.NewUserHandler(deps.Users, log)
	products := handlers.NewProductHandler(deps.Products, deps.Cache, log)
	orders := handlers.NewOrderHandler(deps.Orders, deps.Products, deps.Users, deps.Cache,
		handlers.OrderOptions{VerifyPrices: deps.VerifyPrices}, log)
	reviews := handlers.NewReviewHandler(deps.Reviews, deps.Orders, log)
	stats := handlers.NewStatsHandler(deps.Stats, log)
	contact := handlers.NewContactHandler(deps.Mailer, log)
	carts := handlers.NewCartHandler(deps.Carts, deps.Products, log)

	router.GET("/", handlers.Root)
	router.POST("/jwt", authH.IssueToken)

	router.POST("/users", users.CreateUser)
	router.GET("/users", token, admin, users.ListUsers)
	// The wildcard under /user is shared by all routes, so :id carries an
	// email here.
	router.GET("/user/:id", token, users.GetUser)
	router.GET("/user/admin/:email", token, users.CheckAdmin)
	router.PATCH("/user/update/:id", token, users.UpdateProfile)
	router.PUT("/user/:id/role", token, admin, users.UpdateRole)

	router.POST("/add-product", token, admin, products.CreateProduct)
	router.GET("/products", products.ListProducts)
	router.GET("/product/:id", products.GetProduct)
	router.PUT("/product/:id", token, admin, products.UpdateProduct)
	router.DELETE("/product/:id", token, admin, products.DeleteProduct)

	router.POST("/orders", token, orders.PlaceOrder)
	router.GET("/orders", token, admin, orders.ListOrders)
	router.GET("/orders/my/:email", token, orders.MyOrders)
	router.GET("/orders/:id", token, orders.GetOrder)
	router.PATCH("/orders/:id", token, orders.UpdateShipping)
	router.PATCH("/orders/:id/cancel", token, orders.CancelOrder)
	router.PATCH("/orders/:id/status", token, admin, orders.SetStatus)
	router.DELETE("/orders/:id", token, admin, orders.DeleteOrder)

	router.POST("/review", token, reviews.CreateReview)
	router.GET("/reviews", reviews.ListReviews)

	router.GET("/admin-stats", token, admin, stats.AdminStats)

	router.POST("/email", contact.SendMessage)

	cart := router.Group("/cart", token)
	{
		cart.GET("", carts.GetCart)
		cart.DELETE("", carts.ClearCart)
		cart.POST("/items", carts.AddItem)
		cart.PATCH("/items", carts.SetQuantity)
		cart.DELETE("/items", carts.RemoveItem)
	}
}
