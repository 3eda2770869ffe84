package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Bbt3-alx/akera-backend/pkg/migrate"
)

func TestBuyOperationsMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_buy_operations.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no buy operations migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS buy_operations",
		"CHECK (amount_paid <= amount)",
		"FOREIGN KEY (buy_operation_id) REFERENCES buy_operations(id) ON DELETE CASCADE",
		"CHECK (karat >= 10)",
		"DROP TABLE IF EXISTS gold_items",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestCoreLedgerMigrationGuardsBalances(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_core_ledger.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no core ledger migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS companies",
		"CHECK (remain_weight >= 0)",
		"restoration_history JSONB",
	} {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationDirIsValid(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}
