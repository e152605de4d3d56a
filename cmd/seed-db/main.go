// Command seed-db loads catalog, shipping and content fixtures into the
// database and creates the initial admin account.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tkivila/craftshop/internal/auth"
	"github.com/tkivila/craftshop/internal/repository"
)

type productJSON struct {
	Title     map[string]string `json:"title"`
	Price     decimal.Decimal   `json:"price"`
	Available bool              `json:"available"`
}

type providerJSON struct {
	Name      string   `json:"name"`
	Addresses []string `json:"addresses"`
	Options   []struct {
		Name  string          `json:"name"`
		Price decimal.Decimal `json:"price"`
	} `json:"options"`
}

type contentJSON struct {
	Group      string              `json:"group"`
	Handle     string              `json:"handle"`
	Title      map[string]string   `json:"title"`
	Paragraphs []map[string]string `json:"paragraphs"`
}

func main() {
	var (
		databaseURL   string
		productsFile  string
		providersFile string
		contentFile   string
		adminEmail    string
		adminPassword string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&providersFile, "providers-file", "db/seed/providers.json", "path to shipping providers JSON file")
	flag.StringVar(&contentFile, "content-file", "db/seed/content.json", "path to content JSON file")
	flag.StringVar(&adminEmail, "admin-email", "", "admin account email (or SHOP_ADMIN_EMAIL env)")
	flag.StringVar(&adminPassword, "admin-password", "", "admin account password (or SHOP_ADMIN_PASSWORD env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if adminEmail == "" {
		adminEmail = os.Getenv("SHOP_ADMIN_EMAIL")
	}
	if adminPassword == "" {
		adminPassword = os.Getenv("SHOP_ADMIN_PASSWORD")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, providersFile, contentFile, adminEmail, adminPassword); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, providersFile, contentFile, adminEmail, adminPassword string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "create pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool, repository.Schema()); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, pool, productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if err := seedProviders(ctx, pool, providersFile); err != nil {
		return errors.Wrap(err, "seed shipping providers")
	}
	if err := seedContent(ctx, pool, contentFile); err != nil {
		return errors.Wrap(err, "seed content")
	}
	if adminEmail != "" && adminPassword != "" {
		if err := seedAdmin(ctx, pool, adminEmail, adminPassword); err != nil {
			return errors.Wrap(err, "seed admin")
		}
	}
	return nil
}

func seedProducts(ctx context.Context, db repository.DB, path string) error {
	var products []productJSON
	if err := readJSON(path, &products); err != nil {
		return err
	}
	for _, p := range products {
		title, err := json.Marshal(p.Title)
		if err != nil {
			return err
		}
		_, err = db.Exec(ctx,
			`INSERT INTO products (title, price, available) VALUES ($1, $2, $3)`,
			title, p.Price, p.Available,
		)
		if err != nil {
			return err
		}
	}
	slog.Info("products seeded", slog.Int("count", len(products)))
	return nil
}

func seedProviders(ctx context.Context, db repository.DB, path string) error {
	var providers []providerJSON
	if err := readJSON(path, &providers); err != nil {
		return err
	}
	for _, p := range providers {
		options, err := json.Marshal(p.Options)
		if err != nil {
			return err
		}
		_, err = db.Exec(ctx,
			`INSERT INTO shipping_providers (name, addresses, options) VALUES ($1, $2, $3)`,
			p.Name, p.Addresses, options,
		)
		if err != nil {
			return err
		}
	}
	slog.Info("shipping providers seeded", slog.Int("count", len(providers)))
	return nil
}

func seedContent(ctx context.Context, db repository.DB, path string) error {
	var entries []contentJSON
	if err := readJSON(path, &entries); err != nil {
		return err
	}
	for _, e := range entries {
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
		if err != nil {
			return err
		}
	}
	slog.Info("content seeded", slog.Int("count", len(entries)))
	return nil
}

func seedAdmin(ctx context.Context, db repository.DB, email, password string) error {
	hash, err := auth.NewBcryptHasher(0).Hash(password)
	if err != nil {
		return err
	}
	_, err = db.Exec(ctx,
		`INSERT INTO users (id, username, email, password_hash, role) VALUES ($1, $2, $3, $4, 'admin')
		 ON CONFLICT (email) DO NOTHING`,
		uuid.New().String(), email, email, hash,
	)
	if err != nil {
		return err
	}
	slog.Info("admin account ensured", slog.String("email", email))
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
