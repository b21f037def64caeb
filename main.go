package main

import (
	"log"
	"time"

	"querydesk/ai"
	"querydesk/cache"
	"querydesk/config"
	"querydesk/db"
	_ "querydesk/docs" // Swagger docs
	"querydesk/handlers"
	"querydesk/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func main() {
	if err := config.LoadEnv(); err != nil {
		log.Printf("Warning: %v", err)
	}
	cfg := config.GetConfig()

	database, err := db.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	appCache := cache.New(cfg.CacheTTL)

	aiService, err := ai.New(cfg.LLM, appCache)
	if err != nil {
		log.Fatalf("Failed to initialize AI service: %v", err)
	}
	defer aiService.Close()

	opts := []service.ProcessorOption{
		service.WithReferences(database),
		service.WithResultShape(cfg.ResultShape),
	}

	// SQL Server is optional; without it record queries report that they are unavailable
	var sqlService *service.SQLServerService
	if cfg.SQLServer.Enabled() {
		sqlService, err = service.NewSQLServerService(cfg.SQLServer)
		if err != nil {
			log.Printf("Warning: Failed to initialize SQL Server service: %v", err)
			log.Println("Record queries will be unavailable")
			sqlService = nil
		} else {
			defer sqlService.Close()
			opts = append(opts, service.WithExecutor(sqlService))
			log.Println("SQL Server service initialized successfully")
		}
	}

	var results *service.ResultsStorage
	if cfg.SaveResults {
		results, err = service.NewResultsStorage(cfg.ResultsDir)
		if err != nil {
			log.Fatalf("Failed to initialize results storage: %v", err)
		}
		opts = append(opts, service.WithResultsStorage(results, service.FormatJSON))
	}

	sqlFiles, err := database.LoadSQLFilesFromDir(cfg.SQLFilesDir)
	if err != nil {
		log.Printf("Warning: Failed to load SQL files: %v", err)
	}
	for _, f := range sqlFiles {
		if err := database.StoreSQLFile(f.Name, f.Content); err != nil {
			log.Printf("Warning: Failed to store SQL file %s: %v", f.Name, err)
		}
	}
	log.Printf("Loaded %d SQL files into database", len(sqlFiles))

	h := handlers.New(handlers.Options{
		DB:          database,
		Service:     service.NewProcessor(aiService, opts...),
		SQLService:  sqlService,
		Results:     results,
		SQLFilesDir: cfg.SQLFilesDir,
	})

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS", "HEAD"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Content-Length", "Accept", "Accept-Encoding", "Authorization", "Cache-Control", "X-Requested-With", "X-User-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Stream-ID"},
		MaxAge:           24 * time.Hour,
	}))

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	h.Register(r)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
