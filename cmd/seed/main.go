package main

import (
	"context"
	"log"

	"provider-marketplace-be/internal/config"
	"provider-marketplace-be/internal/entity"
	"provider-marketplace-be/internal/repository/contract"
	"provider-marketplace-be/internal/repository/implementation"
	"provider-marketplace-be/pkg/database"
)

// Seeds a development admin and an unverified provider. Existing emails are skipped.
func main() {
	cfg := config.Load()
	if cfg.IsProduction() {
		log.Fatal("Error: refusing to seed a production database")
	}
	if cfg.Database.Connection == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(cfg.Database.Connection, false)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	ctx := context.Background()
	repo := implementation.NewUserRepository(db)

	admin := entity.NewProvider("admin@marketplace.local", "Marketplace Admin")
	admin.Role = entity.UserRoleAdmin
	admin.VerificationStatus = entity.VerificationStatusApproved
	admin.IsVerified = true

	provider := entity.NewProvider("provider@marketplace.local", "Demo Provider")

	for _, u := range []*entity.User{admin, provider} {
		seedUser(ctx, repo, u)
	}

	log.Println("✅ Seeding completed")
}

func seedUser(ctx context.Context, repo contract.UserRepository, u *entity.User) {
	existing, err := repo.FindByEmail(ctx, u.Email)
	if err != nil {
		log.Fatalf("Error: lookup %s: %v", u.Email, err)
	}
	if existing != nil {
		log.Printf("User '%s' already exists, skipping...", u.Email)
		return
	}

	if err := repo.Create(ctx, u); err != nil {
		log.Printf("Warn: Failed to seed %s: %v", u.Email, err)
		return
	}
	log.Printf("Seeded %s (%s) id=%s", u.Email, u.Role, u.Id)
}
