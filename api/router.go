// api/router.go
package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/Annany2002/datalens-backend/api/handlers"
	"github.com/Annany2002/datalens-backend/api/middleware"
	"github.com/Annany2002/datalens-backend/api/models"
	"github.com/Annany2002/datalens-backend/config"
	"github.com/Annany2002/datalens-backend/internal/dbaccess"
	"github.com/Annany2002/datalens-backend/internal/logger"
	"github.com/Annany2002/datalens-backend/internal/storage"
)

var (
	customLog = logger.NewLogger()
)

// Dependencies are the services the handlers are built from.
type Dependencies struct {
	Cfg        *config.Config
	Store      storage.Store
	DBAccess   *dbaccess.Service
	Translator handlers.SQLTranslator
	Validator  handlers.SQLValidator
}

func corsConfig(cfg *config.Config) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	for _, origin := range cfg.CORSAllowedOrigins {
		if origin == "*" {
			corsCfg.AllowAllOrigins = true
			return corsCfg
		}
	}
	corsCfg.AllowOrigins = cfg.CORSAllowedOrigins
	corsCfg.AllowCredentials = true
	return corsCfg
}

// SetupRouter initializes the Gin router and sets up all routes.
func SetupRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Cfg
	if err := models.RegisterValidators(); err != nil {
		customLog.Warnf("Router: Custom validators not registered: %v", err)
	}

	router := gin.Default() // Includes Logger and Recovery
	router.Use(cors.New(corsConfig(cfg)))
	if cfg.RateLimitPerMinute > 0 {
		router.Use(middleware.RateLimitMiddleware(middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute)))
	}
	router.Use(middleware.ErrorHandler())

	authHandler := handlers.NewAuthHandler(deps.Store, cfg)
	dbHandler := handlers.NewDatabaseHandler(deps.Store, deps.DBAccess)
	queryHandler := handlers.NewQueryHandler(deps.Store, deps.DBAccess, deps.Translator, deps.Validator)
	dashboardHandler := handlers.NewDashboardHandler(deps.Store)
	chartHandler := handlers.NewChartHandler(deps.Store)

	// --- Public Routes ---
	router.GET("/api/health", handlers.Health)
	authRoutes := router.Group("/api/auth")
	{
		authRoutes.POST("/signup", authHandler.Signup)
		authRoutes.POST("/login", authHandler.Login)
	}

	// --- Application Routes ---
	apiRoutes := router.Group("/api")
	if cfg.AuthRequired {
		apiRoutes.Use(middleware.AuthMiddleware(cfg))
	}
	{
		apiRoutes.GET("/databases", dbHandler.ListDatabases)
		apiRoutes.POST("/databases", dbHandler.CreateDatabase)
		apiRoutes.GET("/databases/:id", dbHandler.GetDatabase)
		apiRoutes.PUT("/databases/:id", dbHandler.UpdateDatabase)
		apiRoutes.DELETE("/databases/:id", dbHandler.DeleteDatabase)
		apiRoutes.GET("/databases/:id/schema", dbHandler.GetSchema)
		apiRoutes.POST("/databases/:id/test", dbHandler.TestConnection)

		apiRoutes.GET("/queries", queryHandler.ListQueries)
		apiRoutes.GET("/queries/saved", queryHandler.ListSavedQueries)
		apiRoutes.GET("/queries/recent", queryHandler.ListRecentQueries)
		apiRoutes.GET("/queries/:id", queryHandler.GetQuery)
		apiRoutes.DELETE("/queries/:id", queryHandler.DeleteQuery)
		apiRoutes.POST("/queries/translate", queryHandler.Translate)
		apiRoutes.POST("/queries/execute", queryHandler.Execute)
		apiRoutes.POST("/queries/:id/save", queryHandler.SaveQuery)

		apiRoutes.GET("/dashboards", dashboardHandler.ListDashboards)
		apiRoutes.POST("/dashboards", dashboardHandler.CreateDashboard)
		apiRoutes.GET("/dashboards/:id", dashboardHandler.GetDashboard)
		apiRoutes.PUT("/dashboards/:id", dashboardHandler.UpdateDashboard)
		apiRoutes.DELETE("/dashboards/:id", dashboardHandler.DeleteDashboard)

		apiRoutes.GET("/charts", chartHandler.ListCharts)
		apiRoutes.GET("/charts/:id", chartHandler.GetChart)
		apiRoutes.POST("/charts", chartHandler.CreateChart)
		apiRoutes.PUT("/charts/:id", chartHandler.UpdateChart)
		apiRoutes.DELETE("/charts/:id", chartHandler.DeleteChart)
	}

	return router
}
