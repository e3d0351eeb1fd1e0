package main

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/usersvc/backend/internal/config"
	"github.com/usersvc/backend/internal/db"
	"github.com/usersvc/backend/internal/handler"
	"github.com/usersvc/backend/internal/service"
)

// @title User Account Service API
// @version 1.0
// @description Registration, authentication and account management.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg := config.Load()
	ctx := context.Background()

	store, err := db.NewPostgres(ctx, cfg.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	authService, err := service.NewAuthService(store, cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to init auth service: %v", err)
	}
	userService := service.NewUserService(store)

	router := gin.Default()
	router.Use(handler.RequestIDMiddleware())
	router.Use(handler.CORSMiddleware(strings.Split(cfg.Server.AllowedOrigins, ",")))

	router.GET("/", handler.Root)
	router.GET("/ping", handler.Ping)
	router.GET("/openapi.json", handler.OpenAPIDoc)

	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)

	api := router.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/token", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", handler.AuthMiddleware(authService), authHandler.Logout)
			authGroup.GET("/me", handler.AuthMiddleware(authService), authHandler.Me)
		}

		userGroup := api.Group("/user")
		{
			userGroup.POST("/register", userHandler.Register)

			protected := userGroup.Group("", handler.AuthMiddleware(authService))
			{
				protected.GET("/", handler.RequireAdmin(), userHandler.List)
				protected.GET("/:user_id", userHandler.Get)
				protected.PATCH("/:user_id", userHandler.Update)
				protected.DELETE("/:user_id", userHandler.Delete)
			}
		}
	}

	requestTimeout, err := time.ParseDuration(cfg.Server.RequestTimeout)
	if err != nil {
		log.Fatalf("Invalid REQUEST_TIMEOUT: %v", err)
	}

	// Requests that outlive the deadline are aborted at this layer;
	// the services below carry no cancellation points of their own.
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  requestTimeout,
		WriteTimeout: requestTimeout,
	}

	log.Printf("Listening on %s", srv.Addr)
	if err := srv.ListenAndServe(); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
