// seed creates the bootstrap admin identity in an empty store.
// Idempotent: does nothing when any identity already exists.
package main

import (
	"context"
	"log"

	"selfserve-cloud-portal/internal/config"
	"selfserve-cloud-portal/internal/db"
	identityrepo "selfserve-cloud-portal/internal/identity/repository"
	"selfserve-cloud-portal/internal/identity/service"
	"selfserve-cloud-portal/internal/security"
	"selfserve-cloud-portal/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	flavor, _, _, err := db.ParseDSN(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	var identities service.IdentityRepo
	if flavor == db.FlavorPostgres {
		identities = identityrepo.NewPostgresRepository(conn)
	} else {
		identities = identityrepo.NewSQLiteRepository(conn)
	}

	auth := service.NewAuthService(identities, security.NewHasher(cfg.BcryptCost), session.NewManager(cfg.SessionLifetime()))

	created, err := auth.SeedDefaultAdmin(context.Background(), cfg.AdminInitialPassword)
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	if created {
		log.Printf("seed: created %q identity; rotate its password after first login", service.AdminName)
	} else {
		log.Println("seed: store is not empty, nothing to do")
	}
}
