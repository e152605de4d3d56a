// Command content-ingest imports localized content entries from gzipped
// JSON-lines dumps (one entry per line, *.jsonl.gz) exported from the old
// CMS. Files are processed concurrently; entries upsert by (group, handle).
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"

	"github.com/go-faster/errors"
	pgzip "github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/tkivila/craftshop/internal/repository"
)

// maxLine bounds a single JSON-lines record.
const maxLine = 1 << 20

type entry struct {
	Group      string              `json:"group"`
	Handle     string              `json:"handle"`
	Title      map[string]string   `json:"title"`
	Paragraphs []map[string]string `json:"paragraphs"`
}

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing *.jsonl.gz content dumps")
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

	if err := run(ctx, dataDir, databaseURL); err != nil {
		slog.Error("content ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("content ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	files, err := filepath.Glob(filepath.Join(dataDir, "*.jsonl.gz"))
	if err != nil {
		return errors.Wrap(err, "list dump files")
	}
	if len(files) == 0 {
		return errors.Errorf("no *.jsonl.gz files in %s", dataDir)
	}

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "create pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool, repository.Schema()); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	var total atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for _, file := range files {
		g.Go(func() error {
			n, err := ingestFile(gctx, pool, file)
			if err != nil {
				return errors.Wrapf(err, "ingest %s", file)
			}
			total.Add(n)
			slog.Info("file ingested", slog.String("file", file), slog.Int64("entries", n))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("entries upserted", slog.Int64("total", total.Load()))
	return nil
}

func ingestFile(ctx context.Context, db repository.DB, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return 0, errors.Wrap(err, "open gzip")
	}
	defer gz.Close()

	var count int64
	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 64*1024), maxLine)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return count, err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var e entry
		if err := json.Unmarshal(line, &e); err != nil {
			return count, errors.Wrap(err, "decode entry")
		}
		if err := upsert(ctx, db, e); err != nil {
			return count, err
		}
		count++
	}
	return count, scanner.Err()
}

func upsert(ctx context.Context, db repository.DB, e entry) error {
	title, err := json.Marshal(e.Title)
	if err != nil {
		return err
	}
	paragraphs, err := json.Marshal(e.Paragraphs)
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx,
		`INSERT INTO contents (content_group, handle, title, paragraphs) VALUES ($1, $2, $3, $4)
		 ON CONFLICT (content_group, handle) DO UPDATE SET title = EXCLUDED.title, paragraphs = EXCLUDED.paragraphs`,
		e.Group, e.Handle, title, paragraphs,
	)
	return err
}
