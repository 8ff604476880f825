package strategy

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// TestUnitSize_MatchesFormula verifies the section 4.9 unit-size formula
// directly: risk_money = F*R/100, value_per_pip = risk_money/S,
// units = value_per_pip/P. With F=10000, R=1.0, S=10, P=0.0001 this is
// 100/10 = 10, then 10/0.0001 = 100000 units.
func TestUnitSize_MatchesFormula(t *testing.T) {
	got := UnitSize(dec("10000"), dec("1.0"), 10, decimal.Zero, dec("0.0001"))
	want := dec("100000")
	if !got.Equal(want) {
		t.Errorf("UnitSize = %s, want %s", got, want)
	}
}

func TestUnitSize_AppliesConversionPriceWhenPositive(t *testing.T) {
	withoutConversion := UnitSize(dec("10000"), dec("1.0"), 10, decimal.Zero, dec("0.0001"))
	withConversion := UnitSize(dec("10000"), dec("1.0"), 10, dec("1.1"), dec("0.0001"))

	if !withConversion.Equal(withoutConversion.Mul(dec("1.1"))) {
		t.Errorf("conversion price not applied multiplicatively: %s vs %s", withConversion, withoutConversion)
	}
}

func TestUnitSize_ZeroStopDistanceIsZero(t *testing.T) {
	if got := UnitSize(dec("10000"), dec("1.0"), 0, decimal.Zero, dec("0.0001")); !got.IsZero() {
		t.Errorf("expected zero units for zero stop distance, got %s", got)
	}
}

func TestEquity_SumsPositionPnL(t *testing.T) {
	got := Equity(dec("10000"), []decimal.Decimal{dec("50"), dec("-20")})
	if !got.Equal(dec("10030")) {
		t.Errorf("Equity = %s, want 10030", got)
	}
}

func TestFreeMargin(t *testing.T) {
	got := FreeMargin(dec("10030"), dec("200"))
	if !got.Equal(dec("9830")) {
		t.Errorf("FreeMargin = %s, want 9830", got)
	}
}

func TestMarginRatioPct_ZeroWhenNoMarginUsed(t *testing.T) {
	if got := MarginRatioPct(dec("10000"), decimal.Zero); !got.IsZero() {
		t.Errorf("expected zero margin ratio with no margin in use, got %s", got)
	}
}

func TestMarginRatioPct(t *testing.T) {
	got := MarginRatioPct(dec("10000"), dec("500"))
	if !got.Equal(dec("2000")) {
		t.Errorf("MarginRatioPct = %s, want 2000", got)
	}
}

// TestProfitLoss_Symmetry verifies testable property 5: a long and a short
// opened at the same entry price, marked at the same tick (long valued
// against bid, short valued against ask), sum to -spread x qty — only the
// spread cost differs, entry price itself cancels out.
func TestProfitLoss_Symmetry(t *testing.T) {
	entry := dec("1.17210") // same nominal entry for both sides
	bid := dec("1.17206")
	ask := dec("1.17216")
	pointSize := dec("0.0001")
	qty := dec("10000")

	longPnL := ProfitLoss(entry, bid, pointSize, qty, decimal.Zero, true)
	shortPnL := ProfitLoss(entry, ask, pointSize, qty, decimal.Zero, false)

	spread := ask.Sub(bid)
	want := spread.Mul(qty).Neg()

	sum := longPnL.Add(shortPnL)
	if !sum.Equal(want) {
		t.Errorf("long+short PnL = %s, want %s", sum, want)
	}
}

func TestPipValue_DividesByConversionRate(t *testing.T) {
	got := PipValue(dec("0.0001"), dec("10000"), dec("1.1"))
	want := dec("0.0001").Mul(dec("10000")).Div(dec("1.1"))
	if !got.Equal(want) {
		t.Errorf("PipValue = %s, want %s", got, want)
	}
}
