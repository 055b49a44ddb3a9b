// Command dbcheck verifies that the checkout ledger database configured through DB_* is
// reachable and migrated.
//
//	go run ./scripts/dbcheck
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"storefront/internal/config"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, cfg.Database.ConnectionString())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(ctx)

	var dbName string
	if err := conn.QueryRow(ctx, "SELECT current_database()").Scan(&dbName); err != nil {
		fmt.Fprintf(os.Stderr, "QueryRow failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Connected to database: %s\n", dbName)

	var version int64
	var dirty bool
	err = conn.QueryRow(ctx, "SELECT version, dirty FROM schema_migrations").Scan(&version, &dirty)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		fmt.Println("No migrations applied yet; start the server once to apply them.")
	case err != nil:
		fmt.Printf("Migrations not applied yet (%v)\n", err)
	default:
		fmt.Printf("Schema version %d (dirty=%t)\n", version, dirty)
	}

	var rows int64
	if err := conn.QueryRow(ctx, "SELECT count(*) FROM checkout_orders").Scan(&rows); err == nil {
		fmt.Printf("checkout_orders holds %d rows\n", rows)
	}
}
