package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/ecocin/internal/domain/address"
	"github.com/xenking/ecocin/internal/domain/auth"
	"github.com/xenking/ecocin/internal/domain/client"
	"github.com/xenking/ecocin/internal/domain/product"
	"github.com/xenking/ecocin/internal/repository"
)

func main() {
	var (
		databaseURL  string
		seedPath     string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&seedPath, "seed-file", "db/seed/seed.json", "path to the seed JSON file")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or ECOCIN_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or ECOCIN_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("ECOCIN_SEED_API_KEY")
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("ECOCIN_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, seedPath, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, seedPath, apiKey, pepper string) error {
	data, err := os.ReadFile(seedPath)
	if err != nil {
		return errors.Wrap(err, "read seed file")
	}
	seed, err := parseSeed(data)
	if err != nil {
		return err
	}

	slog.Info("connecting to database")
	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")
	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	clients := repository.NewClientRepository(pool)
	products := repository.NewProductRepository(pool)

	// Clients and products are independent; addresses need their owners.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return seedClients(gctx, client.NewService(clients), seed.Clients)
	})
	g.Go(func() error {
		return seedProducts(gctx, product.NewService(products), seed.Products)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	addresses := address.NewService(repository.NewAddressRepository(pool), clients)
	if err := seedAddresses(ctx, addresses, seed.Addresses); err != nil {
		return err
	}

	if apiKey == "" {
		slog.Info("no API key given, skipping")
		return nil
	}
	return seedAPIKey(ctx, pool, apiKey, pepper)
}

// seedClients creates clients whose cpf is not taken yet.
func seedClients(ctx context.Context, svc *client.Service, clients []client.Client) error {
	for i := range clients {
		c := &clients[i]
		if _, err := svc.GetByCPF(ctx, c.CPF); err == nil {
			slog.Info("client exists", slog.String("cpf", c.CPF))
			continue
		} else if !errors.Is(err, client.ErrNotFound) {
			return errors.Wrapf(err, "look up client %s", c.CPF)
		}
		if err := svc.Create(ctx, c); err != nil {
			return errors.Wrapf(err, "create client %s", c.CPF)
		}
		slog.Info("created client", slog.Int64("id", c.ID), slog.String("name", c.Name))
	}
	return nil
}

// seedProducts creates products whose sku is not taken yet.
func seedProducts(ctx context.Context, svc *product.Service, products []product.Product) error {
	for i := range products {
		p := &products[i]
		if p.SKU != "" {
			if _, err := svc.GetBySKU(ctx, p.SKU); err == nil {
				slog.Info("product exists", slog.String("sku", p.SKU))
				continue
			} else if !errors.Is(err, product.ErrNotFound) {
				return errors.Wrapf(err, "look up product %s", p.SKU)
			}
		}
		if err := svc.Create(ctx, p); err != nil {
			return errors.Wrapf(err, "create product %s", p.SKU)
		}
		slog.Info("created product", slog.Int64("id", p.ID), slog.String("sku", p.SKU))
	}
	return nil
}

// seedAddresses adds an address unless its owner already has one of that type.
func seedAddresses(ctx context.Context, svc *address.Service, addrs []ownedAddress) error {
	for i := range addrs {
		a := &addrs[i]
		existing, err := svc.ListByCPF(ctx, a.CPF)
		if err != nil {
			return errors.Wrapf(err, "list addresses of %s", a.CPF)
		}
		if hasType(existing, a.Address.Type) {
			slog.Info("address exists", slog.String("cpf", a.CPF), slog.String("type", a.Address.Type))
			continue
		}
		if err := svc.Create(ctx, a.CPF, &a.Address); err != nil {
			return errors.Wrapf(err, "create %s address of %s", a.Address.Type, a.CPF)
		}
		slog.Info("created address", slog.Int64("id", a.Address.ID), slog.String("cpf", a.CPF))
	}
	return nil
}

func hasType(addrs []address.Address, addrType string) bool {
	for _, a := range addrs {
		if a.Type == addrType {
			return true
		}
	}
	return false
}

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, apiKey, pepper string) error {
	info := &auth.APIKeyInfo{
		KeyHash: auth.HashKey([]byte(pepper), apiKey),
		Name:    "Default key",
		Scopes:  []string{"write"},
	}
	if err := repository.NewAPIKeyRepository(pool).Create(ctx, info); err != nil {
		return errors.Wrap(err, "upsert default API key")
	}
	slog.Info("upserted API key", slog.Int64("id", info.ID), slog.String("name", info.Name))
	return nil
}
