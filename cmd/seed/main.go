// Copyright (c) 2026 Aria. All rights reserved.

// Command seed bulk-loads fixture documents and blob files into a fresh
// environment.
//
// # Fixture Layout
//
//	<fixtures>/<collection>/<id>.json   one document per file
//	<blobs>/<namespace>/<file>          one object per file, keyed by filename
//
// Document writes are chunked so every transaction stays under the store's
// per-batch operation limit.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/soramiya/aria/internal/platform/blob"
	"github.com/soramiya/aria/internal/platform/config"
	"github.com/soramiya/aria/internal/platform/constants"
	"github.com/soramiya/aria/internal/platform/docstore"
	"github.com/soramiya/aria/internal/platform/migration"
	pgstore "github.com/soramiya/aria/internal/platform/postgres"
)

func main() {
	var (
		fixturesDir string
		blobsDir    string
		skipMigrate bool
	)

	root := &cobra.Command{
		Use:           "seed",
		Short:         "Load fixture documents and blobs into the catalog",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), fixturesDir, blobsDir, skipMigrate)
		},
	}

	root.Flags().StringVar(&fixturesDir, "fixtures", "./data/fixtures", "directory of <collection>/<id>.json documents")
	root.Flags().StringVar(&blobsDir, "blobs", "", "optional directory of <namespace>/<file> objects")
	root.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not run migrations before seeding")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "seed:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, fixturesDir, blobsDir string, skipMigrate bool) error {
	// Local convenience: a missing .env is fine, the environment wins anyway.
	_ = godotenv.Load()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(slog.String("app", "aria-seed"))

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	if !skipMigrate {
		if err := migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log); err != nil {
			return err
		}
	}

	store := docstore.NewPostgresStore(pool)
	if err := seedDocuments(ctx, store, fixturesDir, log); err != nil {
		return err
	}

	if blobsDir != "" {
		if !cfg.HasBlobStorage() {
			return fmt.Errorf("--blobs given but object storage is not configured")
		}
		blobs, err := blob.New(ctx, cfg, log)
		if err != nil {
			return err
		}
		if err := seedBlobs(ctx, blobs, blobsDir, log); err != nil {
			return err
		}
	}

	log.Info("seed_complete")
	return nil
}

// seedDocuments walks <fixtures>/<collection>/<id>.json and upserts every
// document, committing a batch whenever it reaches the store's op limit.
func seedDocuments(ctx context.Context, store docstore.Store, dir string, log *slog.Logger) error {
	collections, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read fixtures dir: %w", err)
	}

	batch := docstore.NewBatch()
	total := 0

	flush := func() error {
		if batch.Len() == 0 {
			return nil
		}
		if err := store.Commit(ctx, batch); err != nil {
			return err
		}
		batch = docstore.NewBatch()
		return nil
	}

	for _, entry := range collections {
		if !entry.IsDir() {
			continue
		}
		collection := docstore.Collection(entry.Name())

		files, err := os.ReadDir(filepath.Join(dir, entry.Name()))
		if err != nil {
			return err
		}
		for _, file := range files {
			if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
				continue
			}

			raw, err := os.ReadFile(filepath.Join(dir, entry.Name(), file.Name()))
			if err != nil {
				return err
			}
			var doc json.RawMessage
			if err := json.Unmarshal(raw, &doc); err != nil {
				return fmt.Errorf("fixture %s/%s: %w", entry.Name(), file.Name(), err)
			}

			id := strings.TrimSuffix(file.Name(), ".json")
			batch.Set(collection, id, doc)
			total++

			if batch.Len() >= constants.MaxBatchOps {
				if err := flush(); err != nil {
					return err
				}
			}
		}
	}

	if err := flush(); err != nil {
		return err
	}
	log.Info("documents_seeded", slog.Int("count", total))
	return nil
}

// seedBlobs uploads every file under <blobs>/<namespace>/ keyed by filename
// without its extension.
func seedBlobs(ctx context.Context, blobs *blob.Store, dir string, log *slog.Logger) error {
	namespaces, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read blobs dir: %w", err)
	}

	total := 0
	for _, entry := range namespaces {
		if !entry.IsDir() {
			continue
		}
		namespace := entry.Name()

		files, err := os.ReadDir(filepath.Join(dir, namespace))
		if err != nil {
			return err
		}
		for _, file := range files {
			if file.IsDir() {
				continue
			}
			path := filepath.Join(dir, namespace, file.Name())

			handle, err := os.Open(path)
			if err != nil {
				return err
			}
			info, err := handle.Stat()
			if err != nil {
				_ = handle.Close()
				return err
			}

			id := strings.TrimSuffix(file.Name(), filepath.Ext(file.Name()))
			err = blobs.Upload(ctx, namespace, id, handle, info.Size(), contentType(file.Name()))
			_ = handle.Close()
			if err != nil {
				return fmt.Errorf("upload %s/%s: %w", namespace, file.Name(), err)
			}
			total++
		}
	}

	log.Info("blobs_seeded", slog.Int("count", total))
	return nil
}

func contentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
