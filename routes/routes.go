package routes

import (
	"net/http"

	"servicedome-backend/config"
	"servicedome-backend/controllers"
	"servicedome-backend/models"
	"servicedome-backend/services"
	"servicedome-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Services is everything the HTTP layer calls into.
type Services struct {
	Accounts      *services.AccountService
	Pages         *services.PageService
	Slots         *services.SlotService
	Bookings      *services.BookingService
	Reviews       *services.ReviewService
	Notifications *services.NotificationService
}

func SetupRouter(cfg *config.Config, svc Services, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	origins := make(map[string]bool, len(cfg.CORSOrigins))
	for _, o := range cfg.CORSOrigins {
		origins[o] = true
	}
	r.Use(cors.New(cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) bool {
			return origins[origin]
		},
	}))

	r.Use(config.PerformanceLogger(logger))

	secret := cfg.Auth.JWTSecret
	requireAuth := utils.AuthMiddleware(secret)
	vendorOnly := utils.RequireRole(string(models.RoleVendor))
	customerOnly := utils.RequireRole(string(models.RoleCustomer))

	accountController := controllers.NewAccountController(svc.Accounts, cfg.Auth.WebhookSecret, logger)
	pageController := controllers.NewPageController(svc.Pages, logger)
	slotController := controllers.NewSlotController(svc.Slots, logger)
	bookingController := controllers.NewBookingController(svc.Bookings, logger)
	reviewController := controllers.NewReviewController(svc.Reviews, logger)
	notificationController := controllers.NewNotificationController(svc.Notifications, logger)

	r.GET("/health", func(c *gin.Context) {
		utils.RespondWithData(c, http.StatusOK, gin.H{"status": "ok"})
	})

	auth := r.Group("/auth")
	{
		auth.POST("/register", accountController.Register)
		auth.POST("/login", accountController.Login)
		auth.GET("/me", requireAuth, accountController.Me)
	}

	pages := r.Group("/pages")
	{
		pages.GET("", pageController.ListPages)
		pages.POST("", requireAuth, vendorOnly, pageController.CreatePage)
		pages.GET("/:pageId", pageController.GetPage)
		pages.PUT("/:pageId", requireAuth, vendorOnly, pageController.UpdatePage)
		pages.DELETE("/:pageId", requireAuth, vendorOnly, pageController.DeletePage)

		pages.GET("/:pageId/services", pageController.GetServices)
		pages.POST("/:pageId/services", requireAuth, vendorOnly, pageController.CreateService)
		pages.PUT("/:pageId/services/:serviceId", requireAuth, vendorOnly, pageController.UpdateService)
		pages.DELETE("/:pageId/services/:serviceId", requireAuth, vendorOnly, pageController.DeleteService)

		pages.GET("/:pageId/categories", pageController.ListCategories)
		pages.POST("/:pageId/categories", requireAuth, vendorOnly, pageController.CreateCategory)

		pages.GET("/:pageId/delivery", pageController.GetDeliverySettings)
		pages.PUT("/:pageId/delivery", requireAuth, vendorOnly, pageController.UpdateDeliverySettings)

		pages.GET("/:pageId/timeslots", slotController.ListSlots)
		pages.POST("/:pageId/timeslots", requireAuth, vendorOnly, slotController.CreateSlot)
		pages.PUT("/:pageId/timeslots/:day/:time", requireAuth, vendorOnly, slotController.UpdateSlot)
		pages.DELETE("/:pageId/timeslots/:day/:time", requireAuth, vendorOnly, slotController.DeleteSlot)

		pages.GET("/:pageId/reviews", reviewController.ListReviews)
		pages.POST("/:pageId/reviews", requireAuth, customerOnly, reviewController.AddReview)
	}

	r.GET("/vendors/:vendorId/reviews", reviewController.ListVendorReviews)

	bookings := r.Group("/bookings", requireAuth)
	{
		bookings.POST("", customerOnly, bookingController.CreateBooking)
		bookings.GET("", bookingController.GetBookings)
		bookings.GET("/:id", bookingController.GetBooking)
		bookings.PUT("/:id/status", vendorOnly, bookingController.UpdateBookingStatus)
	}

	notifications := r.Group("/notifications", requireAuth)
	{
		notifications.GET("", notificationController.GetNotifications)
		notifications.PATCH("/:index/read", notificationController.MarkRead)
		notifications.POST("/token", accountController.UpdatePushToken)
	}

	r.POST("/webhooks/subscription", accountController.SubscriptionWebhook)

	return r
}
