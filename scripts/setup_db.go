package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"lab-service/internal/config"
	"lab-service/internal/repository/postgres"

	"github.com/joho/godotenv"
)

var tables = []string{
	"principals",
	"client_requests",
	"projects",
	"approvals",
	"project_results",
	"notifications",
	"audit_events",
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Error loading .env file: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Database.Driver != config.StoreDriverPostgres {
		log.Fatalf("STORE_DRIVER is %q, nothing to set up", cfg.Database.Driver)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	fmt.Println("=== Setting Up Database ===")
	fmt.Println()

	db, err := postgres.New(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	fmt.Println("Connected to database")
	fmt.Println("Applying schema...")

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to apply schema: %v", err)
	}

	fmt.Println("Schema applied")
	fmt.Println()
	fmt.Println("=== Verifying Tables ===")

	const query = `SELECT EXISTS (
		SELECT FROM information_schema.tables
		WHERE table_schema = 'public'
		AND table_name = $1
	)`

	missing := 0
	for _, table := range tables {
		var exists bool
		if err := db.Pool.QueryRow(ctx, query, table).Scan(&exists); err != nil {
			fmt.Printf("Error checking table '%s': %v\n", table, err)
			missing++
			continue
		}
		if exists {
			fmt.Printf("Table '%s' present\n", table)
		} else {
			fmt.Printf("Table '%s' NOT created\n", table)
			missing++
		}
	}

	fmt.Println()
	if missing > 0 {
		log.Fatalf("%d table(s) missing", missing)
	}
	fmt.Println("=== Database Setup Complete ===")
	fmt.Println()
	fmt.Println("Next: Run 'go run main.go' to start the server")
}
