package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/smmonirhasan92/man2man-sub003/internal/config"
	"github.com/smmonirhasan92/man2man-sub003/internal/domain"
	"github.com/smmonirhasan92/man2man-sub003/internal/store"
	"github.com/smmonirhasan92/man2man-sub003/internal/store/postgres"
)

// Seeds a local database with an admin and two funded demo traders.
func main() {
	balance := flag.Int64("balance", 100000, "Starting available balance for demo traders, in minor units")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	st, err := postgres.New(ctx, cfg.DSN)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer st.Close()

	users := []struct {
		name      string
		email     string
		role      string
		available int64
	}{
		{"Admin", "admin@example.com", domain.RoleAdmin, 0},
		{"Demo Seller", "seller@example.com", domain.RoleUser, *balance},
		{"Demo Buyer", "buyer@example.com", domain.RoleUser, *balance},
	}

	for _, u := range users {
		if existing, err := st.GetUserByEmail(ctx, u.email); err == nil && existing != nil {
			fmt.Printf("skip %s (already present)\n", u.email)
			continue
		}

		passHash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("hash: %v", err)
		}
		pinHash, err := bcrypt.GenerateFromPassword([]byte("1234"), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("hash: %v", err)
		}

		user := &domain.User{
			ID:           uuid.New().String(),
			Name:         u.name,
			Email:        u.email,
			PasswordHash: string(passHash),
			Role:         u.role,
			PinHash:      string(pinHash),
			CreatedAt:    time.Now().UTC(),
		}
		err = st.WithTx(ctx, func(tx store.Tx) error {
			if err := tx.PutUser(ctx, user); err != nil {
				return err
			}
			return tx.PutAccount(ctx, &domain.Account{
				UserID:    user.ID,
				Available: u.available,
			})
		})
		if err != nil {
			log.Fatalf("seed %s: %v", u.email, err)
		}
		fmt.Printf("seeded %s (%s)\n", u.email, u.role)
	}
}
