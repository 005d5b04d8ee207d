package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/smmonirhasan92/man2man-sub003/internal/config"
	"github.com/smmonirhasan92/man2man-sub003/internal/domain"
	"github.com/smmonirhasan92/man2man-sub003/internal/store"
	"github.com/smmonirhasan92/man2man-sub003/internal/store/postgres"
)

func main() {
	email := flag.String("email", "", "Email of the user to promote to admin")
	flag.Parse()

	if *email == "" {
		log.Fatalf("usage: go run cmd/adminutil/promote_admin/main.go -email user@example.com")
	}

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

	user, err := st.GetUserByEmail(ctx, *email)
	if err != nil {
		log.Fatalf("no user found with email: %s", *email)
	}

	err = st.WithTx(ctx, func(tx store.Tx) error {
		u, err := tx.GetUser(ctx, user.ID)
		if err != nil {
			return err
		}
		u.Role = domain.RoleAdmin
		return tx.PutUser(ctx, u)
	})
	if err != nil {
		log.Fatalf("failed to promote user to admin: %v", err)
	}

	fmt.Printf("User %s promoted to admin.\n", *email)
}
