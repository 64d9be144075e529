package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/go-faster/errors"

	"github.com/xenking/ecocin/internal/repository"
)

func main() {
	var (
		dataDir     string
		pattern     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing product feeds")
	flag.StringVar(&pattern, "pattern", "*.jsonl.gz", "glob matching feed files inside data-dir")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, filepath.Join(dataDir, pattern), databaseURL); err != nil {
		slog.Error("catalog ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("catalog ingest completed successfully")
}

func run(ctx context.Context, glob, databaseURL string) error {
	paths, err := filepath.Glob(glob)
	if err != nil {
		return errors.Wrap(err, "match feeds")
	}
	if len(paths) == 0 {
		return errors.Errorf("no feeds match %s", glob)
	}

	slog.Info("reading feeds", slog.Int("files", len(paths)))
	recs, err := readFeeds(ctx, paths)
	if err != nil {
		return errors.Wrap(err, "read feeds")
	}
	slog.Info("feeds merged", slog.Int("skus", len(recs)))

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	in, err := newIngester(ctx, repository.NewProductRepository(pool), len(recs))
	if err != nil {
		return err
	}
	st, err := in.apply(ctx, recs)
	if err != nil {
		return errors.Wrap(err, "apply feeds")
	}

	slog.Info("catalog updated",
		slog.Int("created", st.Created),
		slog.Int("updated", st.Updated),
		slog.Int("lookups", st.Lookups),
	)
	return nil
}
