package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vendebot/vende/internal/domain"
	"github.com/vendebot/vende/pkg/config"
	"golang.org/x/crypto/bcrypt"
)

func Connect(databaseURL string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	poolConfig.MaxConns = 25
	poolConfig.MinConns = 5
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

func Migrate(db *pgxpool.Pool) error {
	ctx := context.Background()

	migrations := []string{
		// Accounts table (multi-tenant)
		`CREATE TABLE IF NOT EXISTS accounts (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(255) NOT NULL,
			slug VARCHAR(255) UNIQUE,
			plan VARCHAR(50) DEFAULT 'free',
			is_active BOOLEAN DEFAULT TRUE,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)`,

		// Users table
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			account_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			username VARCHAR(255) UNIQUE NOT NULL,
			email VARCHAR(255) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			display_name VARCHAR(255),
			role VARCHAR(50) DEFAULT 'operator',
			is_admin BOOLEAN DEFAULT FALSE,
			is_active BOOLEAN DEFAULT TRUE,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)`,

		// Bots table (WhatsApp/Instagram chatbots)
		`CREATE TABLE IF NOT EXISTS bots (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			account_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			platform VARCHAR(50) NOT NULL,
			phone_number_id VARCHAR(255),
			page_id VARCHAR(255),
			access_token TEXT NOT NULL DEFAULT '',
			welcome_template TEXT,
			away_template TEXT,
			is_active BOOLEAN DEFAULT TRUE,
			last_webhook_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)`,

		// Clients table (end customers)
		`CREATE TABLE IF NOT EXISTS clients (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			account_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255),
			phone VARCHAR(50),
			instagram_handle VARCHAR(255),
			loyalty_points INT DEFAULT 0,
			total_purchases NUMERIC(12,2) DEFAULT 0,
			last_purchase_at TIMESTAMPTZ,
			notes TEXT,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)`,

		// Business profiles (one per account)
		`CREATE TABLE IF NOT EXISTS business_profiles (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			account_id UUID NOT NULL UNIQUE REFERENCES accounts(id) ON DELETE CASCADE,
			display_name VARCHAR(255),
			description TEXT,
			location VARCHAR(255),
			menu_url VARCHAR(500),
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)`,

		// Products table
		`CREATE TABLE IF NOT EXISTS products (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			account_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			price NUMERIC(12,2) NOT NULL DEFAULT 0,
			stock INT DEFAULT 0,
			image_url VARCHAR(500),
			is_active BOOLEAN DEFAULT TRUE,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)`,

		// Orders table
		`CREATE TABLE IF NOT EXISTS orders (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			account_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			client_id UUID REFERENCES clients(id) ON DELETE SET NULL,
			order_number VARCHAR(50) NOT NULL,
			total NUMERIC(12,2) NOT NULL DEFAULT 0,
			status VARCHAR(50) DEFAULT 'pendiente',
			estimated_delivery TIMESTAMPTZ,
			notes TEXT,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW(),
			UNIQUE (account_id, order_number)
		)`,

		// Reservations table
		`CREATE TABLE IF NOT EXISTS reservations (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			account_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			client_id UUID REFERENCES clients(id) ON DELETE SET NULL,
			reserved_at TIMESTAMPTZ NOT NULL,
			party_size INT DEFAULT 1,
			status VARCHAR(50) DEFAULT 'pending',
			notes TEXT,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)`,

		// Promotions table
		`CREATE TABLE IF NOT EXISTS promotions (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			account_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			starts_at TIMESTAMPTZ,
			ends_at TIMESTAMPTZ,
			max_uses INT,
			current_uses INT DEFAULT 0,
			image_url VARCHAR(500),
			is_active BOOLEAN DEFAULT TRUE,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)`,

		// Message logs (outbound relay record)
		`CREATE TABLE IF NOT EXISTS message_logs (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			account_id UUID NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
			bot_id UUID REFERENCES bots(id) ON DELETE SET NULL,
			client_id UUID REFERENCES clients(id) ON DELETE SET NULL,
			platform VARCHAR(50) NOT NULL,
			recipient VARCHAR(255) NOT NULL,
			body TEXT NOT NULL,
			status VARCHAR(50) NOT NULL,
			error TEXT,
			sent_at TIMESTAMPTZ DEFAULT NOW()
		)`,

		// Subscriptions (billing)
		`CREATE TABLE IF NOT EXISTS subscriptions (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			account_id UUID NOT NULL UNIQUE REFERENCES accounts(id) ON DELETE CASCADE,
			plan VARCHAR(50) NOT NULL DEFAULT 'free',
			status VARCHAR(50) NOT NULL DEFAULT 'active',
			current_period_start TIMESTAMPTZ NOT NULL,
			current_period_end TIMESTAMPTZ NOT NULL,
			messages_used INT DEFAULT 0,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_bots_phone_number ON bots(phone_number_id) WHERE phone_number_id IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_bots_page ON bots(page_id) WHERE page_id IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_clients_account ON clients(account_id)`,
		`CREATE INDEX IF NOT EXISTS idx_orders_account ON orders(account_id)`,
		`CREATE INDEX IF NOT EXISTS idx_message_logs_account_sent ON message_logs(account_id, sent_at)`,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// SeedAdmin creates the default account and admin user when the database is empty.
func SeedAdmin(db *pgxpool.Pool, cfg *config.Config) error {
	ctx := context.Background()

	var userCount int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&userCount); err != nil {
		return err
	}
	if userCount > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	var accountID string
	err = db.QueryRow(ctx, `
		INSERT INTO accounts (name, slug, plan) VALUES ('Default', 'default', $1) RETURNING id
	`, domain.PlanPro).Scan(&accountID)
	if err != nil {
		return fmt.Errorf("failed to create default account: %w", err)
	}

	_, err = db.Exec(ctx, `
		INSERT INTO users (account_id, username, email, password_hash, display_name, role, is_admin)
		VALUES ($1, $2, $3, $4, 'Administrator', $5, TRUE)
	`, accountID, cfg.AdminUser, cfg.AdminEmail, string(hash), domain.RoleAdmin)
	if err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	// Start the billing period for the seeded account
	now := time.Now()
	_, err = db.Exec(ctx, `
		INSERT INTO subscriptions (account_id, plan, status, current_period_start, current_period_end)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (account_id) DO NOTHING
	`, accountID, domain.PlanPro, domain.SubscriptionStatusActive, now, now.AddDate(0, 1, 0))
	return err
}
