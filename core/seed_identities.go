package core

import (
	"context"
	"log"
)

// identitySeeder is the subset of PgIdentityStore used for seeding.
type identitySeeder interface {
	Create(ctx context.Context, e IdentityConfig) (bool, error)
}

// SeedIdentities copies configured identities into a persistent store.
// It is idempotent: existing usernames are left untouched.
func SeedIdentities(ctx context.Context, store identitySeeder, entries []IdentityConfig, cfg Config) error {
	if !cfg.SeedIdentities {
		return nil
	}

	created := 0
	for _, e := range entries {
		ok, err := store.Create(ctx, e)
		if err != nil {
			return err
		}
		if ok {
			created++
		}
	}
	if created > 0 {
		log.Printf("seeded %d identities (%d configured)", created, len(entries))
	}
	return nil
}
