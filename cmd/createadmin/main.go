// One-shot provisioning command: creates an admin account through the
// same registration path as the API, with the admin flag forced on.
//
//	go run ./cmd/createadmin --username admin --password secret
package main

import (
	"context"
	"flag"
	"log"

	"github.com/joho/godotenv"

	"github.com/usersvc/backend/internal/config"
	"github.com/usersvc/backend/internal/db"
	"github.com/usersvc/backend/internal/service"
)

func main() {
	username := flag.String("username", "", "Username for the admin user")
	password := flag.String("password", "", "Password for the admin user")
	flag.Parse()

	if *username == "" || *password == "" {
		log.Fatal("--username and --password are required")
	}

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

	user, err := authService.EnsureAdmin(ctx, *username, *password)
	if err != nil {
		log.Fatalf("Error creating admin user: %v", err)
	}

	log.Printf("Admin %s ready (id=%d)", user.Username, user.ID)
}
