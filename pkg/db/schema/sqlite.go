// Package schema carries the SQLite rendition of the goose migrations. It backs
// repository tests and the single-file local mode.
package schema

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

var sqliteStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		phone TEXT,
		push_token TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS vendors (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		active BOOLEAN NOT NULL DEFAULT 1,
		latitude REAL,
		longitude REAL,
		breakfast_start TEXT,
		breakfast_end TEXT,
		lunch_start TEXT,
		lunch_end TEXT,
		evening_start TEXT,
		evening_end TEXT,
		dinner_start TEXT,
		dinner_end TEXT,
		push_token TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS delivery_partners (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		phone TEXT,
		active BOOLEAN NOT NULL DEFAULT 1,
		push_token TEXT,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS admins (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		created_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS addresses (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		label TEXT,
		address_line1 TEXT NOT NULL,
		address_line2 TEXT,
		city TEXT NOT NULL,
		state TEXT NOT NULL,
		pincode TEXT NOT NULL,
		latitude REAL,
		longitude REAL,
		created_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS meals (
		id TEXT PRIMARY KEY,
		vendor_id TEXT NOT NULL,
		title TEXT NOT NULL,
		image TEXT,
		meal_type TEXT NOT NULL,
		price NUMERIC NOT NULL,
		active BOOLEAN NOT NULL DEFAULT 1,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS meal_options (
		id TEXT PRIMARY KEY,
		meal_id TEXT NOT NULL,
		name TEXT NOT NULL,
		price NUMERIC NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS cart_items (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		meal_id TEXT NOT NULL,
		vendor_id TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		unit_price NUMERIC NOT NULL,
		total_price NUMERIC NOT NULL,
		delivery_date DATE,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_cart_items_user_meal ON cart_items (user_id, meal_id)`,
	`CREATE TABLE IF NOT EXISTS cart_item_options (
		id TEXT PRIMARY KEY,
		cart_item_id TEXT NOT NULL,
		meal_option_id TEXT NOT NULL,
		name TEXT NOT NULL,
		price NUMERIC NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		vendor_id TEXT NOT NULL,
		order_type TEXT NOT NULL,
		status TEXT NOT NULL,
		payment_type TEXT NOT NULL,
		payment_id TEXT,
		subtotal NUMERIC NOT NULL,
		delivery_charges NUMERIC NOT NULL,
		delivery_charge_per_unit NUMERIC NOT NULL,
		taxes NUMERIC NOT NULL,
		discount NUMERIC NOT NULL,
		total_amount NUMERIC NOT NULL,
		address_line1 TEXT NOT NULL,
		address_line2 TEXT,
		city TEXT NOT NULL,
		state TEXT NOT NULL,
		pincode TEXT NOT NULL,
		latitude REAL,
		longitude REAL,
		start_date DATE NOT NULL,
		end_date DATE NOT NULL,
		total_meals INTEGER NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		meal_id TEXT NOT NULL,
		meal_title TEXT NOT NULL,
		meal_image TEXT,
		meal_type TEXT NOT NULL,
		unit_price NUMERIC NOT NULL,
		quantity INTEGER NOT NULL,
		total_price NUMERIC NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS order_item_options (
		id TEXT PRIMARY KEY,
		order_item_id TEXT NOT NULL,
		name TEXT NOT NULL,
		price NUMERIC NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS meal_schedules (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		order_item_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		vendor_id TEXT NOT NULL,
		delivery_partner_id TEXT,
		scheduled_date DATE NOT NULL,
		scheduled_time_slot TEXT NOT NULL,
		meal_type TEXT NOT NULL,
		meal_title TEXT NOT NULL,
		meal_image TEXT,
		quantity INTEGER NOT NULL,
		status TEXT NOT NULL,
		delivered_at DATETIME,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS wallets (
		id TEXT PRIMARY KEY,
		owner_type TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		balance NUMERIC NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME,
		CONSTRAINT ux_wallets_owner UNIQUE (owner_type, owner_id)
	)`,
	`CREATE TABLE IF NOT EXISTS wallet_transactions (
		id TEXT PRIMARY KEY,
		wallet_id TEXT NOT NULL,
		type TEXT NOT NULL,
		amount NUMERIC NOT NULL,
		balance_after NUMERIC NOT NULL,
		description TEXT NOT NULL,
		order_id TEXT,
		schedule_id TEXT,
		payment_id TEXT,
		created_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY,
		vendor_commission_percent NUMERIC NOT NULL DEFAULT 0,
		admin_commission_percent NUMERIC NOT NULL DEFAULT 0,
		delivery_base_charge NUMERIC NOT NULL DEFAULT 0,
		delivery_charge_per_km NUMERIC NOT NULL DEFAULT 0,
		gst_percent NUMERIC NOT NULL DEFAULT 0,
		platform_charge NUMERIC NOT NULL DEFAULT 0,
		updated_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS settlements (
		id TEXT PRIMARY KEY,
		order_id TEXT NOT NULL,
		schedule_id TEXT NOT NULL UNIQUE,
		vendor_id TEXT NOT NULL,
		delivery_partner_id TEXT NOT NULL,
		admin_id TEXT,
		item_total NUMERIC NOT NULL,
		vendor_commission NUMERIC NOT NULL,
		vendor_amount NUMERIC NOT NULL,
		admin_commission NUMERIC NOT NULL,
		delivery_payout NUMERIC NOT NULL,
		created_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		recipient_type TEXT NOT NULL,
		recipient_id TEXT NOT NULL,
		type TEXT NOT NULL,
		title TEXT NOT NULL,
		message TEXT NOT NULL,
		metadata TEXT,
		event_id TEXT,
		read_at DATETIME,
		created_at DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS outbox_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload TEXT NOT NULL,
		created_at DATETIME,
		published_at DATETIME,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS outbox_dlq (
		id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL,
		event_type TEXT NOT NULL,
		aggregate_type TEXT NOT NULL,
		aggregate_id TEXT NOT NULL,
		payload_json TEXT NOT NULL,
		error_reason TEXT NOT NULL,
		error_message TEXT,
		attempt_count INTEGER NOT NULL DEFAULT 0,
		failed_at DATETIME,
		created_at DATETIME
	)`,
}

// ApplySQLite creates every table the services touch.
func ApplySQLite(ctx context.Context, conn *gorm.DB) error {
	for _, stmt := range sqliteStatements {
		if err := conn.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("apply sqlite schema: %w", err)
		}
	}
	return nil
}
