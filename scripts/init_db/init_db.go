// Creates the users table the auth collaborator shares with this service
// and seeds a test subject.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found — using system environment variables")
	}

	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		dbGetEnv("DB_USER", "v2v_user"),
		dbGetEnv("DB_PASSWORD", "v2v_password"),
		dbGetEnv("DB_HOST", "localhost"),
		dbGetEnv("DB_PORT", "5432"),
		dbGetEnv("DB_NAME", "v2v_radar"),
	)

	ctx := context.Background()

	fmt.Println("Connecting to Postgres...")
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		log.Fatalf("Connection failed: %v\n\nMake sure Postgres is running:\n  docker-compose up -d postgres", err)
	}
	defer conn.Close(ctx)
	fmt.Println("✓ Connected")

	step1_users_table(ctx, conn)
	step2_seed_subject(ctx, conn)

	fmt.Println("\n✅ Database initialized")
}

func step1_users_table(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 1: users table ─────────────────────────")

	_, err := conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id            BIGSERIAL PRIMARY KEY,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		log.Fatalf("Failed to create users table: %v", err)
	}
	fmt.Println("  ✓ users")
}

func step2_seed_subject(ctx context.Context, conn *pgx.Conn) {
	fmt.Println("\n── Step 2: seed test subject ───────────────────")

	_, err := conn.Exec(ctx, `
		INSERT INTO users (username, password_hash)
		VALUES ('test_vehicle', 'x')
		ON CONFLICT (username) DO NOTHING
	`)
	if err != nil {
		log.Fatalf("Failed to seed test subject: %v", err)
	}
	fmt.Println("  ✓ test_vehicle")
}

func dbGetEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
