package main

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/ecocin/internal/domain/product"
)

const (
	bloomFPR      = 0.001
	bloomMinItems = 10_000
	maxLineBytes  = 1 << 20
	progressEvery = 100_000
)

// record is one line of a product feed.
type record struct {
	SKU           string
	Name          string
	Description   string
	Price         decimal.Decimal
	StockQuantity int
}

func (r record) product() *product.Product {
	return &product.Product{
		Name:          r.Name,
		Description:   r.Description,
		SKU:           r.SKU,
		Price:         r.Price,
		StockQuantity: r.StockQuantity,
		Active:        true,
	}
}

func decodeRecord(line []byte) (r record, err error) {
	err = jx.DecodeBytes(line).ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "sku":
			r.SKU, err = d.Str()
		case "name":
			r.Name, err = d.Str()
		case "description":
			r.Description, err = d.Str()
		case "price":
			var n jx.Num
			if n, err = d.Num(); err == nil {
				r.Price, err = decimal.NewFromString(string(n))
			}
		case "stockQuantity":
			r.StockQuantity, err = d.Int()
		default:
			err = d.Skip()
		}
		return err
	})
	if err == nil && r.SKU == "" {
		err = errors.New("sku is required")
	}
	return r, err
}

// readFeed decodes a gzip-compressed JSON-lines feed. Blank lines are
// skipped; a malformed line fails the whole feed.
func readFeed(ctx context.Context, r io.Reader) ([]record, error) {
	gz, err := pgzip.NewReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "open gzip")
	}
	defer func() { _ = gz.Close() }()

	scanner := bufio.NewScanner(gz)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var (
		out  []record
		line int
	)
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(scanner.Bytes()) == 0 {
			continue
		}
		rec, err := decodeRecord(scanner.Bytes())
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "scan")
	}
	return out, nil
}

// readFeeds reads every feed concurrently and merges them by sku. Later
// files win over earlier ones, and later lines over earlier lines.
func readFeeds(ctx context.Context, paths []string) ([]record, error) {
	perFile := make([][]record, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	for i, path := range paths {
		g.Go(func() error {
			f, err := os.Open(path)
			if err != nil {
				return errors.Wrapf(err, "open %s", path)
			}
			defer func() { _ = f.Close() }()

			recs, err := readFeed(gctx, f)
			if err != nil {
				return errors.Wrapf(err, "read %s", path)
			}
			slog.Info("feed read", slog.String("path", path), slog.Int("records", len(recs)))
			perFile[i] = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	index := make(map[string]int)
	var merged []record
	for _, recs := range perFile {
		for _, r := range recs {
			if i, ok := index[r.SKU]; ok {
				merged[i] = r
				continue
			}
			index[r.SKU] = len(merged)
			merged = append(merged, r)
		}
	}
	return merged, nil
}

type stats struct {
	Created int
	Updated int
	// Lookups counts exact sku queries; the bloom filter avoids them for
	// skus that are certainly new.
	Lookups int
}

// ingester upserts feed records into the product catalog.
type ingester struct {
	products product.Repository
	known    *bloom.BloomFilter
}

// newIngester preloads a bloom filter with the skus already in the catalog.
func newIngester(ctx context.Context, products product.Repository, expected int) (*ingester, error) {
	existing, err := products.ListAll(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}
	capacity := uint(max(expected+len(existing), bloomMinItems))
	known := bloom.NewWithEstimates(capacity, bloomFPR)
	for _, p := range existing {
		known.AddString(p.SKU)
	}
	return &ingester{products: products, known: known}, nil
}

func (in *ingester) apply(ctx context.Context, recs []record) (stats, error) {
	var st stats
	for i, r := range recs {
		if in.known.TestString(r.SKU) {
			st.Lookups++
			cur, err := in.products.FindBySKU(ctx, r.SKU)
			switch {
			case err == nil:
				if err := in.update(ctx, cur, r); err != nil {
					return st, err
				}
				st.Updated++
				continue
			case !errors.Is(err, product.ErrNotFound):
				return st, errors.Wrapf(err, "find %s", r.SKU)
			}
		}

		p := r.product()
		if err := p.Validate(); err != nil {
			return st, errors.Wrapf(err, "validate %s", r.SKU)
		}
		if err := in.products.Create(ctx, p); err != nil {
			return st, errors.Wrapf(err, "create %s", r.SKU)
		}
		in.known.AddString(r.SKU)
		st.Created++

		if (i+1)%progressEvery == 0 {
			slog.Info("ingest progress", slog.Int("done", i+1), slog.Int("total", len(recs)))
		}
	}
	return st, nil
}

// update refreshes price and stock, keeping the rest of the catalog entry.
func (in *ingester) update(ctx context.Context, cur *product.Product, r record) error {
	cur.Price = r.Price
	cur.StockQuantity = r.StockQuantity
	if err := cur.Validate(); err != nil {
		return errors.Wrapf(err, "validate %s", r.SKU)
	}
	ok, err := in.products.Update(ctx, cur)
	if err != nil {
		return errors.Wrapf(err, "update %s", r.SKU)
	}
	if !ok {
		return errors.Wrapf(product.ErrNotFound, "update %s", r.SKU)
	}
	return nil
}
