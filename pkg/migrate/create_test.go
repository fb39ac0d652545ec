package migrate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestMigrationSlug(t *testing.T) {
	cases := map[string]string{
		"Add Vendor Ratings!":   "add_vendor_ratings",
		"  settlements--index ": "settlements_index",
		"!!!":                   "",
	}
	for in, want := range cases {
		if got := migrationSlug(in); got != want {
			t.Fatalf("migrationSlug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCreateSQLMigrationRefusesDuplicateSlug(t *testing.T) {
	dir := t.TempDir()
	first, err := createSQLMigration(dir, "add wallet index", time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if filepath.Base(first) != "20260102030405_add_wallet_index.sql" {
		t.Fatalf("unexpected filename %s", first)
	}
	if _, err := createSQLMigration(dir, "Add Wallet Index", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)); err == nil {
		t.Fatal("expected duplicate slug to be refused")
	}
}

func TestValidateDirReportsEveryProblem(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	write("20260101000000_no_down.sql", "-- +goose Up\nSELECT 1;\n")
	write("20260101000001_unbalanced.sql", "-- +goose Up\n-- +goose StatementBegin\nSELECT 1;\n-- +goose Down\n")
	write("bad.sql", "-- +goose Up\n-- +goose Down\n")

	err := ValidateDir(dir)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"missing \"-- +goose Down\"", "1 StatementBegin and 0 StatementEnd", "invalid migration filename \"bad.sql\""} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}
