// Copyright (c) 2026 Aria. All rights reserved.

// Command setrole grants a role to a user account.
//
// The role is stored on the users/<id> document and surfaces as the token
// role claim. With --token, a freshly signed access token is printed for
// immediate use against admin endpoints (requires the private key).
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/soramiya/aria/internal/platform/config"
	"github.com/soramiya/aria/internal/platform/constants"
	"github.com/soramiya/aria/internal/platform/dberr"
	"github.com/soramiya/aria/internal/platform/docstore"
	pgstore "github.com/soramiya/aria/internal/platform/postgres"
	"github.com/soramiya/aria/internal/platform/sec"
)

func main() {
	var (
		mintToken bool
		tokenTTL  time.Duration
	)

	root := &cobra.Command{
		Use:           "setrole <user-id> <role>",
		Short:         "Set the role on a user account",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args[0], args[1], mintToken, tokenTTL)
		},
	}

	root.Flags().BoolVar(&mintToken, "token", false, "print a freshly signed access token for the user")
	root.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "time to live for the minted token")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "setrole:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, userID, role string, mintToken bool, tokenTTL time.Duration) error {
	// Local convenience: a missing .env is fine, the environment wins anyway.
	_ = godotenv.Load()

	userRole := sec.UserRole(role)
	if userRole != sec.RoleAdmin && userRole != sec.RoleMember {
		return fmt.Errorf("unknown role %q (want %q or %q)", role, sec.RoleAdmin, sec.RoleMember)
	}

	log := slog.New(slog.NewJSONHandler(os.Stderr, nil)).With(slog.String("app", "aria-setrole"))

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	store := docstore.NewPostgresStore(pool)

	// Path merges never create documents, and the user may not have one yet.
	// Read, merge the role in, and write the full document back.
	user := map[string]any{}
	if err := store.Get(ctx, docstore.CollectionUsers, userID, &user); err != nil && !errors.Is(err, dberr.ErrNotFound) {
		return err
	}
	user["role"] = string(userRole)

	batch := docstore.NewBatch()
	batch.Set(docstore.CollectionUsers, userID, user)
	if err := store.Commit(ctx, batch); err != nil {
		return err
	}
	log.Info("role_assigned", slog.String("user_id", userID), slog.String("role", string(userRole)))

	if !mintToken {
		return nil
	}

	if cfg.JWTPrivKeyPath == "" {
		return fmt.Errorf("--token requires JWT_PRIVATE_KEY_PATH")
	}
	tokens, err := sec.NewTokenService(cfg.JWTPrivKeyPath, cfg.JWTPubKeyPath, constants.AuthIssuer)
	if err != nil {
		return err
	}
	token, err := tokens.GenerateAccessToken(userID, string(userRole), tokenTTL)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
