package pricing

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"dexPricer/internal/model"
)

func pricedToken(id, derived string) model.Token {
	return model.Token{ID: id, DerivedReferencePrice: decimal.NewNullDecimal(dec(derived))}
}

func maturePair(id, token0, token1 string) model.Pair {
	return model.Pair{ID: id, Token0ID: token0, Token1ID: token1, LiquidityProviderCount: 10}
}

func TestValuerSingleWhitelistedSide(t *testing.T) {
	valuer := NewValuer(mustValidate(testConfig()))
	bundle := model.Bundle{ID: model.BundleID, ReferencePriceUSD: dec("3")}
	token0 := pricedToken(usdcAddr, "2")
	token1 := pricedToken(tokenAddr, "7")
	pair := maturePair(addr(60), usdcAddr, tokenAddr)

	if price := valuer.PriceUSD(token0, bundle); !price.Equal(dec("6")) {
		t.Fatalf("price0 mismatch: %s", price)
	}

	volume := valuer.TrackedVolumeUSD(bundle, dec("10"), token0, dec("5"), token1, pair)
	if !volume.Equal(dec("60")) {
		t.Fatalf("volume mismatch: %s", volume)
	}
	liquidity := valuer.TrackedLiquidityUSD(bundle, dec("10"), token0, dec("5"), token1)
	if !liquidity.Equal(dec("120")) {
		t.Fatalf("liquidity mismatch: %s", liquidity)
	}
}

func TestValuerBothWhitelistedAverageIsSymmetric(t *testing.T) {
	valuer := NewValuer(mustValidate(testConfig()))
	bundle := model.Bundle{ReferencePriceUSD: dec("2000")}
	weth := pricedToken(wethAddr, "1")
	usdc := pricedToken(usdcAddr, "0.0005")

	a := valuer.TrackedVolumeUSD(bundle, dec("1.5"), weth, dec("3001"), usdc, maturePair(addr(60), wethAddr, usdcAddr))
	b := valuer.TrackedVolumeUSD(bundle, dec("3001"), usdc, dec("1.5"), weth, maturePair(addr(60), usdcAddr, wethAddr))

	// (1.5*2000 + 3001*1) / 2
	if !a.Equal(dec("3000.5")) {
		t.Fatalf("volume mismatch: %s", a)
	}
	if !a.Equal(b) {
		t.Fatalf("volume not symmetric: %s != %s", a, b)
	}

	liquidity := valuer.TrackedLiquidityUSD(bundle, dec("1.5"), weth, dec("3001"), usdc)
	if !liquidity.Equal(dec("6001")) {
		t.Fatalf("liquidity mismatch: %s", liquidity)
	}
}

func TestValuerOneSidedWhitelist(t *testing.T) {
	valuer := NewValuer(mustValidate(testConfig()))
	bundle := model.Bundle{ReferencePriceUSD: dec("2")}
	unlisted := pricedToken(tokenAddr, "4")
	listed := pricedToken(daiAddr, "0.25")

	volume := valuer.TrackedVolumeUSD(bundle, dec("100"), unlisted, dec("8"), listed, maturePair(addr(60), tokenAddr, daiAddr))
	if !volume.Equal(dec("4")) {
		t.Fatalf("volume mismatch: %s", volume)
	}
	liquidity := valuer.TrackedLiquidityUSD(bundle, dec("100"), unlisted, dec("8"), listed)
	if !liquidity.Equal(dec("8")) {
		t.Fatalf("liquidity mismatch: %s", liquidity)
	}

	liquidity = valuer.TrackedLiquidityUSD(bundle, dec("8"), listed, dec("100"), unlisted)
	if !liquidity.Equal(dec("8")) {
		t.Fatalf("token0 liquidity mismatch: %s", liquidity)
	}
}

func TestValuerNeitherWhitelisted(t *testing.T) {
	valuer := NewValuer(mustValidate(testConfig()))
	bundle := model.Bundle{ReferencePriceUSD: dec("2")}
	token0 := pricedToken(tokenAddr, "4")
	token1 := pricedToken(otherAddr, "5")

	if got := valuer.TrackedVolumeUSD(bundle, dec("1"), token0, dec("1"), token1, maturePair(addr(60), tokenAddr, otherAddr)); !got.IsZero() {
		t.Fatalf("expected zero volume, got %s", got)
	}
	if got := valuer.TrackedLiquidityUSD(bundle, dec("1"), token0, dec("1"), token1); !got.IsZero() {
		t.Fatalf("expected zero liquidity, got %s", got)
	}
}

func TestValuerUntrackedPair(t *testing.T) {
	valuer := NewValuer(mustValidate(testConfig()))
	bundle := model.Bundle{ReferencePriceUSD: dec("2000")}
	weth := pricedToken(wethAddr, "1")
	usdc := pricedToken(usdcAddr, "0.0005")

	pair := maturePair(untrackedPair, wethAddr, usdcAddr)
	if got := valuer.TrackedVolumeUSD(bundle, dec("1000000"), weth, dec("1000000"), usdc, pair); !got.IsZero() {
		t.Fatalf("expected zero for untracked pair, got %s", got)
	}
	if !valuer.IsUntracked("0x" + strings.ToUpper(untrackedPair[2:])) {
		t.Fatalf("expected case-insensitive untracked lookup")
	}
}

func TestValuerNewPairGate(t *testing.T) {
	valuer := NewValuer(mustValidate(testConfig()))
	bundle := model.Bundle{ReferencePriceUSD: dec("2000")}
	usdc := pricedToken(usdcAddr, "0.0005")
	weth := pricedToken(wethAddr, "1")
	unlisted := pricedToken(tokenAddr, "1")

	cases := []struct {
		name     string
		token1   model.Token
		reserve0 string
		reserve1 string
		want     string
	}{
		// reserve0USD + reserve1USD = 399999
		{name: "both below", token1: weth, reserve0: "199999", reserve1: "100", want: "0"},
		// = 400000
		{name: "both at", token1: weth, reserve0: "200000", reserve1: "100", want: "1005"},
		// = 400001
		{name: "both above", token1: weth, reserve0: "200001", reserve1: "100", want: "1005"},
		// reserve0USD*2 = 399998
		{name: "token0 below", token1: unlisted, reserve0: "199999", reserve1: "1", want: "0"},
		{name: "token0 above", token1: unlisted, reserve0: "200001", reserve1: "1", want: "10"},
	}

	for _, tc := range cases {
		pair := model.Pair{
			ID:                     addr(60),
			Token0ID:               usdcAddr,
			Token1ID:               tc.token1.ID,
			Reserve0:               dec(tc.reserve0),
			Reserve1:               dec(tc.reserve1),
			LiquidityProviderCount: 4,
		}
		got := valuer.TrackedVolumeUSD(bundle, dec("10"), usdc, dec("1"), tc.token1, pair)
		if !got.Equal(dec(tc.want)) {
			t.Fatalf("%s: volume mismatch: got %s want %s", tc.name, got, tc.want)
		}
	}
}

func TestValuerNewPairGateToken1Only(t *testing.T) {
	valuer := NewValuer(mustValidate(testConfig()))
	bundle := model.Bundle{ReferencePriceUSD: dec("1")}
	unlisted := pricedToken(tokenAddr, "1")
	dai := pricedToken(daiAddr, "1")

	pair := model.Pair{
		ID:                     addr(60),
		Token0ID:               tokenAddr,
		Token1ID:               daiAddr,
		Reserve0:               dec("1000000000"),
		Reserve1:               dec("199999.5"),
		LiquidityProviderCount: 1,
	}
	if got := valuer.TrackedVolumeUSD(bundle, dec("3"), unlisted, dec("7"), dai, pair); !got.IsZero() {
		t.Fatalf("expected gated zero, got %s", got)
	}

	pair.Reserve1 = dec("200000")
	if got := valuer.TrackedVolumeUSD(bundle, dec("3"), unlisted, dec("7"), dai, pair); !got.Equal(dec("7")) {
		t.Fatalf("volume mismatch: %s", got)
	}

	pair.LiquidityProviderCount = DefaultMinimumLiquidityProviders
	pair.Reserve1 = dec("1")
	if got := valuer.TrackedVolumeUSD(bundle, dec("3"), unlisted, dec("7"), dai, pair); !got.Equal(dec("7")) {
		t.Fatalf("mature pair should skip the gate, got %s", got)
	}
}

func TestValuerUnpricedTokenCountsZero(t *testing.T) {
	valuer := NewValuer(mustValidate(testConfig()))
	bundle := model.Bundle{ReferencePriceUSD: dec("2000")}
	token0 := model.Token{ID: usdcAddr}
	token1 := pricedToken(tokenAddr, "1")

	if got := valuer.TrackedVolumeUSD(bundle, dec("10"), token0, dec("1"), token1, maturePair(addr(60), usdcAddr, tokenAddr)); !got.IsZero() {
		t.Fatalf("expected zero, got %s", got)
	}
}
