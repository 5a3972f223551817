package snapshot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"dexPricer/internal/model"
)

const snapshotJSON = `{
  "bundle": {"id": "1", "reference_price_usd": "0.42"},
  "tokens": [
    {"id": "0x21BE370D5312F44CB42CE377BC9B8A0CEF1A4C83", "symbol": "WFTM", "derived_reference_price": "1"},
    {"id": "0x04068da6c83afcfa0e13ba15a6696662335d5b75", "symbol": "USDC", "derived_reference_price": null}
  ],
  "pairs": [
    {
      "id": "0xA196C7754f4ec79dE55bB5Db82187bBE82275f7f",
      "token0": "0x04068da6c83afcfa0e13ba15a6696662335d5b75",
      "token1": "0x21be370d5312f44cb42ce377bc9b8a0cef1a4c83",
      "reserve0": "420000",
      "reserve1": "1000000",
      "reserve_reference": "2000000",
      "token0_price": "0.42",
      "token1_price": "2.380952380952380952",
      "liquidity_provider_count": 12
    }
  ]
}`

func writeSnapshot(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := os.WriteFile(path, []byte(snapshotJSON), 0o644); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
	return path
}

func TestLoadSnapshot(t *testing.T) {
	store, err := Load(writeSnapshot(t))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ctx := context.Background()

	token, ok, err := store.LoadToken(ctx, "0x21be370d5312f44cb42ce377bc9b8a0cef1a4c83")
	if err != nil || !ok {
		t.Fatalf("token missing: ok=%v err=%v", ok, err)
	}
	if token.Symbol != "WFTM" || !token.ReferencePrice().Equal(decimal.NewFromInt(1)) {
		t.Fatalf("token mismatch: %+v", token)
	}

	usdc, ok, _ := store.LoadToken(ctx, "0x04068DA6C83AFCFA0E13BA15A6696662335D5B75")
	if !ok || usdc.DerivedReferencePrice.Valid {
		t.Fatalf("usdc should be present and unpriced: %+v", usdc)
	}

	pair, ok, err := store.LoadPair(ctx, "0xa196c7754f4ec79de55bb5db82187bbe82275f7f")
	if err != nil || !ok {
		t.Fatalf("pair missing: ok=%v err=%v", ok, err)
	}
	if pair.LiquidityProviderCount != 12 || pair.Token1ID != "0x21be370d5312f44cb42ce377bc9b8a0cef1a4c83" {
		t.Fatalf("pair mismatch: %+v", pair)
	}

	bundle, ok, _ := store.LoadBundle(ctx)
	if !ok || !bundle.ReferencePriceUSD.Equal(decimal.RequireFromString("0.42")) {
		t.Fatalf("bundle mismatch: %+v", bundle)
	}

	if _, ok, _ := store.LoadPair(ctx, "0x0000000000000000000000000000000000000001"); ok {
		t.Fatalf("unexpected pair")
	}
}

func TestPairAddressEitherOrder(t *testing.T) {
	store, err := Load(writeSnapshot(t))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ctx := context.Background()

	for _, tokens := range [][2]string{
		{"0x21be370d5312f44cb42ce377bc9b8a0cef1a4c83", "0x04068da6c83afcfa0e13ba15a6696662335d5b75"},
		{"0x04068DA6C83AFCFA0E13BA15A6696662335D5B75", "0x21be370d5312f44cb42ce377bc9b8a0cef1a4c83"},
	} {
		got, ok, err := store.PairAddress(ctx, tokens[0], tokens[1])
		if err != nil || !ok || got != "0xa196c7754f4ec79de55bb5db82187bbe82275f7f" {
			t.Fatalf("pair lookup mismatch: %s ok=%v err=%v", got, ok, err)
		}
	}

	if _, ok, _ := store.PairAddress(ctx, "0x21be370d5312f44cb42ce377bc9b8a0cef1a4c83", "0x0000000000000000000000000000000000000001"); ok {
		t.Fatalf("expected no pair")
	}
}

func TestSaveRoundTripsWrites(t *testing.T) {
	store, err := Load(writeSnapshot(t))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ctx := context.Background()

	if err := store.SaveBundle(ctx, model.Bundle{ReferencePriceUSD: decimal.RequireFromString("0.5")}); err != nil {
		t.Fatalf("save bundle: %v", err)
	}
	if err := store.SaveTokenPrice(ctx, "0x04068da6c83afcfa0e13ba15a6696662335d5b75", decimal.RequireFromString("2.38")); err != nil {
		t.Fatalf("save token price: %v", err)
	}

	path := filepath.Join(t.TempDir(), "out", "snapshot.json")
	if err := store.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	reloaded, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}

	bundle, ok, _ := reloaded.LoadBundle(ctx)
	if !ok || bundle.ID != model.BundleID || !bundle.ReferencePriceUSD.Equal(decimal.RequireFromString("0.5")) {
		t.Fatalf("bundle mismatch: %+v", bundle)
	}
	usdc, ok, _ := reloaded.LoadToken(ctx, "0x04068da6c83afcfa0e13ba15a6696662335d5b75")
	if !ok || usdc.Symbol != "USDC" || !usdc.ReferencePrice().Equal(decimal.RequireFromString("2.38")) {
		t.Fatalf("token mismatch: %+v", usdc)
	}
}

func TestSaveIsStable(t *testing.T) {
	store := NewStore()
	for i := 20; i > 0; i-- {
		id := fmt.Sprintf("0x%040x", i)
		if err := store.PutToken(model.Token{ID: id}); err != nil {
			t.Fatalf("put token: %v", err)
		}
		if err := store.PutPair(model.Pair{ID: fmt.Sprintf("0x%040x", 100+i), Token0ID: id, Token1ID: fmt.Sprintf("0x%040x", 50+i)}); err != nil {
			t.Fatalf("put pair: %v", err)
		}
	}

	doc := store.Document()
	for i := 1; i < len(doc.Tokens); i++ {
		if doc.Tokens[i-1].ID >= doc.Tokens[i].ID {
			t.Fatalf("tokens not ordered at %d: %s >= %s", i, doc.Tokens[i-1].ID, doc.Tokens[i].ID)
		}
	}
	for i := 1; i < len(doc.Pairs); i++ {
		if doc.Pairs[i-1].ID >= doc.Pairs[i].ID {
			t.Fatalf("pairs not ordered at %d", i)
		}
	}

	dir := t.TempDir()
	first := filepath.Join(dir, "a.json")
	second := filepath.Join(dir, "b.json")
	if err := store.Save(first); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(second); err != nil {
		t.Fatalf("save: %v", err)
	}
	a, err := os.ReadFile(first)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	b, err := os.ReadFile(second)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(a) != string(b) {
		t.Fatalf("repeated saves differ")
	}
}

func TestPutPairRejectsMalformedIDs(t *testing.T) {
	store := NewStore()
	if err := store.PutPair(model.Pair{ID: "pair", Token0ID: "0x04068da6c83afcfa0e13ba15a6696662335d5b75", Token1ID: "0x21be370d5312f44cb42ce377bc9b8a0cef1a4c83"}); err == nil {
		t.Fatalf("expected error for malformed pair id")
	}
}
