// Package testutil provides test utilities and helpers.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"sellerdesk/internal/db"
	"sellerdesk/internal/models"
)

// TestDB creates a test database connection and returns a cleanup function.
// Tests are skipped when TEST_DATABASE_URL is not set.
func TestDB(t *testing.T) (*db.DB, func()) {
	t.Helper()

	connString := os.Getenv("TEST_DATABASE_URL")
	if connString == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	database, err := db.New(ctx, connString)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	// Run migrations
	if err := database.RunMigrations(connString); err != nil {
		database.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	cleanupTestData(ctx, database.Pool)

	cleanup := func() {
		cleanupTestData(ctx, database.Pool)
		database.Close()
	}

	return database, cleanup
}

// cleanupTestData removes all test data from the database.
func cleanupTestData(ctx context.Context, pool *pgxpool.Pool) {
	pool.Exec(ctx, "DELETE FROM listing_drafts")
	pool.Exec(ctx, "DELETE FROM keyword_searches")
	pool.Exec(ctx, "DELETE FROM listing_templates")
}

// CreateTestDraft creates a draft owned by owner and returns it.
func CreateTestDraft(t *testing.T, database *db.DB, owner, productName string) *models.ListingDraft {
	t.Helper()

	d := &models.ListingDraft{
		Owner:       owner,
		ProductName: productName,
		Marketplace: "US",
		TemplateID:  "standard",
		Title:       productName + " for everyday use",
		Bullets:     []string{"First bullet", "Second bullet"},
		Description: "A test description.",
		Keywords:    []string{"test keyword"},
	}
	if err := database.CreateDraft(context.Background(), d); err != nil {
		t.Fatalf("failed to create test draft: %v", err)
	}
	return d
}
