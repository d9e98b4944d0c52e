package main

import (
	"fmt"
	"os"

	"github.com/echomail/echomail/config"
	"github.com/echomail/echomail/migrations"
	"github.com/echomail/echomail/pkg/apperrors"
	"github.com/echomail/echomail/pkg/logger"
	"github.com/echomail/echomail/routes"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/pressly/goose/v3"
	"github.com/spf13/viper"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run cmd/main.go [server|migrate]")
		os.Exit(1)
	}

	config.InitConfig()

	logger.Init(logger.Config{
		Level:       logger.Level(viper.GetString("LOG_LEVEL")),
		Environment: viper.GetString("ENVIRONMENT"),
		ServiceName: "echomail",
		Version:     viper.GetString("APP_VERSION"),
	})

	config.InitDB()
	defer config.CloseDB()

	switch os.Args[1] {
	case "server":
		config.InitRedis()
		startServer()
	case "migrate":
		runMigrations()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}
}

func startServer() {
	log := logger.Get()

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = apperrors.HTTPErrorHandler(log)

	e.Use(logger.RequestLoggerMiddleware(log))
	e.Use(logger.RecoveryMiddleware(log))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{viper.GetString("FRONTEND_URL")},
		AllowMethods:     []string{echo.GET, echo.POST, echo.PUT, echo.DELETE, echo.OPTIONS},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		ExposeHeaders:    []string{echo.HeaderContentLength},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	routes.RegisterRoutes(e)

	port := viper.GetString("PORT")
	if port == "" {
		port = "8080"
	}

	log.Info("Starting server", logger.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Server stopped", err)
	}
}

func runMigrations() {
	log := logger.Get()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("mysql"); err != nil {
		log.Fatal("Failed to set migration dialect", err)
	}

	if err := goose.Up(config.DB.DB, "."); err != nil {
		log.Fatal("Migration failed", err)
	}
	log.Info("Migrations applied")
}
