package routes

import (
	"os"
	"strings"

	"salonlink-backend/config"
	"salonlink-backend/controllers"
	"salonlink-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter() *gin.Engine {
	r := gin.Default()

	allowedOrigins := []string{"http://localhost:3000"}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		allowedOrigins = strings.Split(env, ",")
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.Use(config.PerformanceLogger())

	auth := r.Group("/auth")
	{
		auth.POST("/register", controllers.Register)
		auth.POST("/login", controllers.Login)

		auth.Use(utils.AuthMiddleware())
		auth.GET("/me", controllers.Me)
	}

	// Gateway-facing endpoints: the processor posts here, no JWT involved.
	payments := r.Group("/payments")
	{
		payments.POST("/callback", controllers.PaymentCallback)
		payments.GET("/result/:merchantOrderId", controllers.PaymentResult)
	}

	// Mobile endpoints span salons and are keyed by phone number.
	mobile := r.Group("/mobile")
	{
		mobile.GET("/identity", controllers.ResolveIdentity)
		mobile.GET("/appointments", controllers.GetMobileAppointments)
		mobile.GET("/packages", controllers.GetMobilePackages)
	}

	api := r.Group("/api")
	api.Use(utils.AuthMiddleware())
	{
		// Customer routes
		customers := api.Group("/customers")
		{
			customers.POST("", controllers.CreateCustomer)
			customers.GET("", controllers.GetCustomers)
			customers.GET("/:id", controllers.GetCustomer)
			customers.PUT("/:id", controllers.UpdateCustomer)
			customers.DELETE("/:id", controllers.DeleteCustomer)
		}

		// Service routes
		services := api.Group("/services")
		{
			services.POST("", controllers.CreateService)
			services.GET("", controllers.GetServices)
			services.GET("/:id", controllers.GetService)
			services.PUT("/:id", controllers.UpdateService)
			services.DELETE("/:id", controllers.DeleteService)
		}

		// Appointment routes
		appointments := api.Group("/appointments")
		{
			appointments.POST("", controllers.CreateAppointment)
			appointments.GET("", controllers.GetAppointments)
			appointments.GET("/:id", controllers.GetAppointment)
			appointments.PUT("/:id/status", controllers.UpdateAppointmentStatus)
			appointments.DELETE("/:id", controllers.DeleteAppointment)
		}

		// Package routes
		packages := api.Group("/packages")
		{
			packages.POST("", controllers.CreatePackage)
			packages.GET("", controllers.GetPackages)
		}

		// Payment routes (salon-side)
		apiPayments := api.Group("/payments")
		{
			apiPayments.POST("/initiate", controllers.InitiatePayment)
			apiPayments.GET("/:merchantOrderId", controllers.GetPaymentStatus)
		}

		// Ledger routes
		api.GET("/transactions", controllers.GetTransactions)

		// Reconciliation routes
		reconcile := api.Group("/reconcile")
		{
			reconcile.GET("/preview", controllers.PreviewReconciliation)
			reconcile.POST("/backfill", controllers.RunBackfill)
		}
	}

	return r
}
