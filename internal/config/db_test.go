package config

import (
	"context"
	"reflect"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestMissingTablesReportsAbsentBookingTables(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`FROM information_schema.tables\s+WHERE table_schema = DATABASE\(\)`).
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).
			AddRow("users").AddRow("routes").AddRow("buses").AddRow("bus_seats").
			AddRow("bookings").AddRow("discount_codes"))

	missing, err := SchemaCheck{DB: db}.MissingTables(context.Background())
	if err != nil {
		t.Fatalf("missing tables error: %v", err)
	}
	if !reflect.DeepEqual(missing, []string{"booking_passengers", "seat_ledger"}) {
		t.Fatalf("unexpected missing tables %v", missing)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestMissingTablesWithoutDB(t *testing.T) {
	if _, err := (SchemaCheck{}).MissingTables(context.Background()); err == nil {
		t.Fatalf("expected error without db")
	}
}
