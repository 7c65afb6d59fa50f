package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	config "github.com/phillip/eventhub-go/config"
	controllers "github.com/phillip/eventhub-go/controllers"
	middleware "github.com/phillip/eventhub-go/middleware"
)

func SetupRoutes(r *gin.Engine, cfg *config.Config, d *controllers.Deps) {
	r.Use(middleware.Recovery(), middleware.RequestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "If-None-Match"},
		ExposeHeaders:    []string{"ETag", "Last-Modified"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	if cfg.PhotoStorage == config.PhotosLocal {
		r.Static(cfg.UploadURL, cfg.UploadDir)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	// public
	api.POST("/auth/login", controllers.Login(d))
	api.GET("/calendar.ics", controllers.CalendarFeed(d))

	events := api.Group("/events")
	{
		events.GET("", controllers.ListEvents(d))
		events.GET("/:id", controllers.GetEvent(d))
		events.POST("/:id/register", controllers.RegisterForEvent(d))
	}

	views := api.Group("/views")
	{
		views.GET("/listing", controllers.ListingView(d))
		views.GET("/register/:id", controllers.RegistrationView(d))
		views.GET("/gallery", controllers.GalleryView(d))
	}

	// admin
	admin := []gin.HandlerFunc{middleware.AuthMiddleware(cfg), middleware.RequireRole(middleware.RoleAdmin)}

	manage := api.Group("/events", admin...)
	{
		manage.POST("", controllers.CreateEvent(d))
		manage.PUT("/:id", controllers.UpdateEvent(d))
		manage.DELETE("/:id", controllers.DeleteEvent(d))
		manage.POST("/:id/photos", controllers.AddPhotos(d))
		manage.DELETE("/:id/photos/:index", controllers.DeletePhoto(d))
	}

	dashboard := api.Group("/views/admin", admin...)
	{
		dashboard.GET("", controllers.AdminView(d))
		dashboard.GET("/:id/registrations", controllers.RegistrationsView(d))
	}
}
