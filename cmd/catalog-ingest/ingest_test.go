package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/ecocin/internal/domain/product"
	"github.com/xenking/ecocin/internal/storage/memory"
)

func gzipLines(t *testing.T, lines ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := pgzip.NewWriter(&buf)
	_, err := w.Write([]byte(strings.Join(lines, "\n") + "\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func writeFeed(t *testing.T, dir, name string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, gzipLines(t, lines...), 0o600))
	return path
}

func TestReadFeed(t *testing.T) {
	data := gzipLines(t,
		`{"sku":"A-1","name":"Soap","price":9.90,"stockQuantity":4,"vendor":"x"}`,
		``,
		`{"sku":"B-2","name":"Brush","price":"3.5","stockQuantity":1}`,
	)
	recs, err := readFeed(context.Background(), bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "A-1", recs[0].SKU)
	assert.True(t, recs[0].Price.Equal(decimal.RequireFromString("9.9")))
	assert.True(t, recs[1].Price.Equal(decimal.RequireFromString("3.5")))
}

func TestReadFeed_Errors(t *testing.T) {
	_, err := readFeed(context.Background(), strings.NewReader("not gzip"))
	assert.Error(t, err)

	_, err = readFeed(context.Background(), bytes.NewReader(gzipLines(t, `{"name":"no sku"}`)))
	assert.ErrorContains(t, err, "line 1")
}

func TestReadFeeds_LaterFileWins(t *testing.T) {
	dir := t.TempDir()
	a := writeFeed(t, dir, "a.jsonl.gz",
		`{"sku":"A-1","name":"Soap","price":1,"stockQuantity":1}`,
		`{"sku":"B-2","name":"Brush","price":2,"stockQuantity":2}`,
	)
	b := writeFeed(t, dir, "b.jsonl.gz",
		`{"sku":"A-1","name":"Soap","price":5,"stockQuantity":50}`,
	)

	recs, err := readFeeds(context.Background(), []string{a, b})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "A-1", recs[0].SKU)
	assert.Equal(t, 50, recs[0].StockQuantity)
	assert.Equal(t, "B-2", recs[1].SKU)
}

func TestIngester_Apply(t *testing.T) {
	ctx := context.Background()
	store := memory.New().Products()
	require.NoError(t, store.Create(ctx, &product.Product{
		Name:          "Soap",
		Description:   "Organic soap",
		SKU:           "A-1",
		Price:         decimal.NewFromInt(1),
		StockQuantity: 1,
		Active:        true,
	}))

	in, err := newIngester(ctx, store, 2)
	require.NoError(t, err)

	st, err := in.apply(ctx, []record{
		{SKU: "A-1", Name: "ignored", Price: decimal.RequireFromString("7.25"), StockQuantity: 9},
		{SKU: "C-3", Name: "Compost Bin", Price: decimal.NewFromInt(129), StockQuantity: 4},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, st.Created)
	assert.Equal(t, 1, st.Updated)
	assert.GreaterOrEqual(t, st.Lookups, 1)

	soap, err := store.FindBySKU(ctx, "A-1")
	require.NoError(t, err)
	assert.Equal(t, "Soap", soap.Name)
	assert.Equal(t, "Organic soap", soap.Description)
	assert.True(t, soap.Price.Equal(decimal.RequireFromString("7.25")))
	assert.Equal(t, 9, soap.StockQuantity)

	bin, err := store.FindBySKU(ctx, "C-3")
	require.NoError(t, err)
	assert.True(t, bin.Active)

	// A second run only updates.
	st, err = in.apply(ctx, []record{{SKU: "C-3", Name: "Compost Bin", Price: decimal.NewFromInt(99), StockQuantity: 2}})
	require.NoError(t, err)
	assert.Equal(t, 0, st.Created)
	assert.Equal(t, 1, st.Updated)
}

func TestIngester_RejectsInvalid(t *testing.T) {
	ctx := context.Background()
	in, err := newIngester(ctx, memory.New().Products(), 1)
	require.NoError(t, err)

	_, err = in.apply(ctx, []record{{SKU: "N-1", Name: "Bad", Price: decimal.NewFromInt(-1)}})
	assert.ErrorIs(t, err, product.ErrPriceNegative)
}
