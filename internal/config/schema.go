package config

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaDDL creates the tables the booking core reads and writes.
// seat_ledger.active is 1 while the owning booking holds the seat and NULL once released;
// MySQL ignores NULLs in unique indexes, so uniq_slot_seat only constrains live claims.
var schemaDDL = []string{
	`CREATE TABLE IF NOT EXISTS users (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	email VARCHAR(255) NOT NULL,
	phone VARCHAR(50) NOT NULL DEFAULT '',
	password_hash VARCHAR(255) NOT NULL,
	role VARCHAR(20) NOT NULL DEFAULT 'user',
	loyalty_points BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_users_email (email)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS routes (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	route_code VARCHAR(50) NOT NULL,
	origin_name VARCHAR(255) NOT NULL,
	origin_lat DOUBLE NOT NULL DEFAULT 0,
	origin_lng DOUBLE NOT NULL DEFAULT 0,
	destination_name VARCHAR(255) NOT NULL,
	destination_lat DOUBLE NOT NULL DEFAULT 0,
	destination_lng DOUBLE NOT NULL DEFAULT 0,
	distance_km DOUBLE NOT NULL DEFAULT 0,
	estimated_minutes INT NOT NULL,
	operating_start VARCHAR(5) NOT NULL DEFAULT '',
	operating_end VARCHAR(5) NOT NULL DEFAULT '',
	base_price BIGINT NOT NULL,
	currency VARCHAR(3) NOT NULL DEFAULT 'NPR',
	is_active TINYINT(1) NOT NULL DEFAULT 1,
	UNIQUE KEY uniq_route_code (route_code)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS route_stops (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	route_id BIGINT NOT NULL,
	position INT NOT NULL,
	name VARCHAR(255) NOT NULL,
	lat DOUBLE NOT NULL DEFAULT 0,
	lng DOUBLE NOT NULL DEFAULT 0,
	UNIQUE KEY uniq_route_stop (route_id, position)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS buses (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	bus_number VARCHAR(50) NOT NULL,
	operator_id BIGINT NOT NULL,
	route_id BIGINT NULL,
	bus_type VARCHAR(20) NOT NULL DEFAULT 'standard',
	last_lat DOUBLE NULL,
	last_lng DOUBLE NULL,
	last_reported_at DATETIME NULL,
	UNIQUE KEY uniq_bus_number (bus_number)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS bus_seats (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	bus_id BIGINT NOT NULL,
	seat_number VARCHAR(10) NOT NULL,
	seat_type VARCHAR(20) NOT NULL DEFAULT 'window',
	seat_row INT NOT NULL DEFAULT 0,
	seat_column INT NOT NULL DEFAULT 0,
	is_active TINYINT(1) NOT NULL DEFAULT 1,
	UNIQUE KEY uniq_bus_seat (bus_id, seat_number)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS discount_codes (
	code VARCHAR(50) PRIMARY KEY,
	amount BIGINT NOT NULL DEFAULT 0,
	percent DOUBLE NOT NULL DEFAULT 0,
	valid_from DATETIME NULL,
	valid_to DATETIME NULL,
	is_active TINYINT(1) NOT NULL DEFAULT 1
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS bookings (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	booking_number VARCHAR(32) NOT NULL,
	user_id BIGINT NOT NULL,
	bus_id BIGINT NOT NULL,
	route_id BIGINT NOT NULL,
	claim_token CHAR(36) NOT NULL,
	trip_date VARCHAR(10) NOT NULL,
	departure_time VARCHAR(5) NOT NULL,
	actual_departure DATETIME NULL,
	actual_arrival DATETIME NULL,
	boarding_point VARCHAR(255) NOT NULL DEFAULT '',
	dropping_point VARCHAR(255) NOT NULL DEFAULT '',
	contact_name VARCHAR(255) NOT NULL,
	contact_phone VARCHAR(50) NOT NULL,
	contact_email VARCHAR(255) NOT NULL DEFAULT '',
	base_price BIGINT NOT NULL,
	taxes BIGINT NOT NULL,
	discount_code VARCHAR(50) NOT NULL DEFAULT '',
	discount_amount BIGINT NOT NULL DEFAULT 0,
	total_amount BIGINT NOT NULL,
	currency VARCHAR(3) NOT NULL,
	payment_method VARCHAR(20) NOT NULL,
	payment_status VARCHAR(20) NOT NULL,
	transaction_id VARCHAR(100) NOT NULL DEFAULT '',
	paid_amount BIGINT NOT NULL DEFAULT 0,
	paid_at DATETIME NULL,
	is_cancelled TINYINT(1) NOT NULL DEFAULT 0,
	cancelled_at DATETIME NULL,
	cancelled_by VARCHAR(20) NOT NULL DEFAULT '',
	cancellation_reason VARCHAR(500) NOT NULL DEFAULT '',
	cancellation_fee BIGINT NOT NULL DEFAULT 0,
	refund_eligible TINYINT(1) NOT NULL DEFAULT 0,
	refund_amount BIGINT NOT NULL DEFAULT 0,
	is_checked_in TINYINT(1) NOT NULL DEFAULT 0,
	checked_in_at DATETIME NULL,
	checked_in_by VARCHAR(20) NOT NULL DEFAULT '',
	checkin_location VARCHAR(255) NOT NULL DEFAULT '',
	feedback_rating TINYINT NOT NULL DEFAULT 0,
	feedback_comment TEXT NULL,
	feedback_aspects JSON NULL,
	feedback_at DATETIME NULL,
	loyalty_points_earned BIGINT NOT NULL DEFAULT 0,
	loyalty_points_redeemed BIGINT NOT NULL DEFAULT 0,
	status VARCHAR(20) NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL,
	UNIQUE KEY uniq_booking_number (booking_number),
	KEY idx_booking_user (user_id, created_at),
	KEY idx_booking_slot (bus_id, trip_date, departure_time, status)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS booking_passengers (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	booking_id BIGINT NOT NULL,
	position INT NOT NULL,
	passenger_name VARCHAR(255) NOT NULL,
	age INT NOT NULL,
	gender VARCHAR(10) NOT NULL DEFAULT '',
	seat_number VARCHAR(10) NOT NULL,
	ticket_type VARCHAR(10) NOT NULL,
	UNIQUE KEY uniq_booking_passenger_seat (booking_id, seat_number),
	KEY idx_booking (booking_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,

	`CREATE TABLE IF NOT EXISTS seat_ledger (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	claim_token CHAR(36) NOT NULL,
	bus_id BIGINT NOT NULL,
	trip_date VARCHAR(10) NOT NULL,
	departure_time VARCHAR(5) NOT NULL,
	seat_number VARCHAR(10) NOT NULL,
	active TINYINT(1) NULL DEFAULT 1,
	claimed_at DATETIME NOT NULL,
	released_at DATETIME NULL,
	UNIQUE KEY uniq_slot_seat (bus_id, trip_date, departure_time, seat_number, active),
	KEY idx_ledger_claim (claim_token)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`,
}

// EnsureSchema creates missing tables. Existing tables are left untouched.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("db not available")
	}
	for _, ddl := range schemaDDL {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
