// Command create-admin seeds an admin account. Running it again for the same
// email changes nothing.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/Skotchmaster/bus_pass/internal/config"
	"github.com/Skotchmaster/bus_pass/internal/models"
	"github.com/Skotchmaster/bus_pass/internal/repo"
	"github.com/Skotchmaster/bus_pass/internal/service"
	pkgcfg "github.com/Skotchmaster/bus_pass/pkg/config"
	pkgdb "github.com/Skotchmaster/bus_pass/pkg/db"
)

func main() {
	config.LoadDotEnv()

	cfg, err := config.LoadForSeed()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	email := flag.String("email", cfg.AdminEmail, "admin email (ADMIN_EMAIL)")
	password := flag.String("password", cfg.AdminPassword, "admin password (ADMIN_PASSWORD)")
	name := flag.String("name", cfg.AdminName, "display name (ADMIN_NAME)")
	flag.Parse()

	pkgcfg.MustNonEmpty(*email, "ADMIN_EMAIL")
	pkgcfg.MustNonEmpty(*password, "ADMIN_PASSWORD")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := pkgdb.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	defer pkgdb.Close(db)

	if err := models.Migrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	svc := &service.AuthService{Store: repo.New(db), BcryptCost: cfg.BcryptCost}
	acc, created, err := svc.EnsureAdmin(ctx, *email, *password, *name)
	if err != nil {
		log.Fatalf("create admin: %v", err)
	}
	if !created {
		log.Printf("account %s already exists (role %s), nothing to do", acc.Email, acc.Role)
		return
	}
	log.Printf("admin %s created with id %s", acc.Email, acc.ID)
}
