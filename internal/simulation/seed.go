package simulation

import (
	"context"
	"fmt"

	"github.com/AntonStoeckl/lending-registry-go/circulation"
	"github.com/AntonStoeckl/lending-registry-go/internal/config"
)

// Seed registers every configured patron and book. Patron kinds are validated before the
// patron factory is called, so a bad kind is an error rather than a panic.
func Seed(ctx context.Context, registry *circulation.Registry, catalog config.CatalogConfig) error {
	for _, p := range catalog.Patrons {
		kind, err := circulation.ParsePatronKind(p.Kind)
		if err != nil {
			return fmt.Errorf("seeding patron %q: %w", p.ID, err)
		}

		patron := circulation.NewPatronOfKind(kind, p.ID, p.Name, p.Email, p.Attribute)
		if err := registry.AddPatron(ctx, patron); err != nil {
			return fmt.Errorf("seeding patron %q: %w", p.ID, err)
		}
	}

	for _, b := range catalog.Books {
		registry.AddBook(ctx, circulation.NewBook(b.ISBN, b.Title, b.Author, b.Category))
	}

	return nil
}
