package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yuchialin/estate-app/cache"
	"github.com/yuchialin/estate-app/controllers"
	"github.com/yuchialin/estate-app/middlewares"
)

// Options carries the process-wide handles the routes need.
type Options struct {
	Cache          cache.Store
	Timezone       *time.Location
	AllowedOrigins []string
	// RateLimit must be registered here, before the routes: handler
	// chains are composed at registration time, so a limiter added to
	// the engine afterwards never runs.
	RateLimit gin.HandlerFunc
}

func SetupRouter(db *gorm.DB, opts Options) *gin.Engine {
	r := gin.Default()

	if opts.Cache == nil {
		opts.Cache = cache.NewMemoryStore()
	}
	if opts.Timezone == nil {
		opts.Timezone = time.UTC
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(opts.AllowedOrigins))
	r.Use(middlewares.LoggerMiddleware())
	if opts.RateLimit != nil {
		r.Use(opts.RateLimit)
	}

	rentalCtrl := controllers.NewRentalController(db, opts.Cache, opts.Timezone)
	checkoutCtrl := controllers.NewCheckoutController(db, opts.Cache, opts.Timezone)
	electricCtrl := controllers.NewElectricRecordController(db, opts.Timezone)
	accountingCtrl := controllers.NewAccountingController(db)
	roomCtrl := controllers.NewRoomController(db, opts.Timezone)
	estateCtrl := controllers.NewEstateController(db, opts.Timezone)
	tenantCtrl := controllers.NewTenantController(db)
	cacheCtrl := controllers.NewCacheController(opts.Cache)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/")
	auth.Use(middlewares.AuthMiddleware())

	// RENTALS
	rentals := auth.Group("/rentals")
	{
		rentals.GET("/room/:room_id/status/:status", rentalCtrl.GetRentalsByRoomStatus)
		rentals.POST("/", rentalCtrl.CreateRental)
		rentals.GET("/payment_info/:rental_id", rentalCtrl.GetPaymentInfo)

		// Checkout surface
		rentals.POST("/checkout/:rental_id", checkoutCtrl.Checkout)
		rentals.GET("/checkout-preview/:rental_id", checkoutCtrl.CheckoutPreview)
		rentals.GET("/checkout-records", checkoutCtrl.GetAllCheckoutRecords)
		rentals.GET("/checkout-records/room/:room_id", checkoutCtrl.GetCheckoutRecordsByRoom)
		rentals.GET("/checkout-records/rental/:rental_id", checkoutCtrl.GetCheckoutRecordsByRental)

		rentals.GET("/:rental_id", rentalCtrl.GetRental)
		rentals.PUT("/:rental_id", rentalCtrl.UpdateRental)
		rentals.DELETE("/:rental_id", rentalCtrl.DeleteRental)
	}

	// ELECTRIC RECORDS
	electric := auth.Group("/electric_records")
	{
		electric.GET("/", electricCtrl.GetAllElectricRecords)
		electric.GET("/search", electricCtrl.SearchElectricRecords)
		electric.GET("/usage", electricCtrl.GetUsage)
		electric.POST("/", electricCtrl.CreateElectricRecord)
		electric.GET("/:record_id", electricCtrl.GetElectricRecordByID)
		electric.PUT("/:record_id", electricCtrl.UpdateElectricRecord)
		electric.DELETE("/:record_id", electricCtrl.DeleteElectricRecord)
	}

	// ACCOUNTING
	accounting := auth.Group("/accounting")
	{
		accounting.POST("/", accountingCtrl.CreateAccounting)
		accounting.GET("/", accountingCtrl.GetAllAccountings)
		accounting.GET("/estate/:estate_id", accountingCtrl.GetAccountingsByEstate)
		accounting.GET("/rental/:rental_id", accountingCtrl.GetAccountingsByRental)
		accounting.GET("/:accounting_id", accountingCtrl.GetAccountingByID)
		accounting.PUT("/:accounting_id", accountingCtrl.UpdateAccounting)
		accounting.DELETE("/:accounting_id", accountingCtrl.DeleteAccounting)
	}

	// ROOMS / ESTATES / TENANTS
	auth.POST("/rooms", roomCtrl.CreateRoom)
	auth.GET("/rooms", roomCtrl.GetAllRooms)
	auth.GET("/rooms/:room_id", roomCtrl.GetRoomByID)
	auth.PUT("/rooms/:room_id", roomCtrl.UpdateRoom)
	auth.DELETE("/rooms/:room_id", middlewares.RequireRole("manager"), roomCtrl.DeleteRoom)

	auth.POST("/estates", estateCtrl.CreateEstate)
	auth.GET("/estates", estateCtrl.GetAllEstates)
	auth.GET("/estates/:estate_id", estateCtrl.GetEstateByID)
	auth.PUT("/estates/:estate_id", estateCtrl.UpdateEstate)
	auth.DELETE("/estates/:estate_id", middlewares.RequireRole("manager"), estateCtrl.DeleteEstate)

	auth.GET("/tenants", tenantCtrl.GetAllTenants)
	auth.GET("/tenants/:tenant_id", tenantCtrl.GetTenantByID)
	auth.PUT("/tenants/:tenant_id", tenantCtrl.UpdateTenant)

	// CACHE MANAGEMENT (flushes are rate-limited on top of the role check)
	cacheGroup := auth.Group("/cache")
	cacheGroup.GET("/stats", cacheCtrl.GetCacheStats)
	clears := cacheGroup.Group("/")
	clears.Use(middlewares.NewStrictRateLimiter())
	{
		clears.DELETE("clear", cacheCtrl.ClearAllCache)
		clears.DELETE("rentals", cacheCtrl.ClearRentalsCache)
		clears.DELETE("rentals/room/:room_id", cacheCtrl.ClearRoomCache)
	}

	return r
}
