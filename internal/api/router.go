package api

import (
	"github.com/billcycle/billcycle/internal/api/cron"
	v1 "github.com/billcycle/billcycle/internal/api/v1"
	"github.com/billcycle/billcycle/internal/rest/middleware"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Subscription *v1.SubscriptionHandler
	CronBilling  *cron.BillingHandler
}

func NewRouter(handlers Handlers) *gin.Engine {
	router := gin.Default()

	router.Use(
		middleware.RequestIDMiddleware,
		middleware.TenantMiddleware,
		middleware.ErrorHandler(),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// v1 routes
	v1Group := router.Group("/v1")
	registerV1Routes(v1Group, handlers)

	// cron routes, hit by an external scheduler
	cronGroup := router.Group("/cron")
	registerCronRoutes(cronGroup, handlers)

	return router
}

func registerV1Routes(router *gin.RouterGroup, handlers Handlers) {
	subscriptions := router.Group("/subscriptions")
	{
		subscriptions.GET("/:id", handlers.Subscription.GetSubscription)
		subscriptions.POST("/:id/bill", handlers.Subscription.BillSubscription)
		subscriptions.POST("/:id/plan-change", handlers.Subscription.ChangePlan)
	}
}

func registerCronRoutes(router *gin.RouterGroup, handlers Handlers) {
	billing := router.Group("/billing")
	{
		billing.POST("/recurring", handlers.CronBilling.RunRecurringBilling)
		billing.POST("/renewals", handlers.CronBilling.RunRenewals)
		billing.POST("/retries", handlers.CronBilling.RunRetries)
	}
}
