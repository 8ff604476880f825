package statecache

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

func TestInsertPosition_RejectsDuplicateID(t *testing.T) {
	c := New(nil)

	if !c.InsertPosition(&Position{PosID: "P1", Symbol: "EUR/USD"}) {
		t.Fatal("first insert should succeed")
	}
	if c.InsertPosition(&Position{PosID: "P1", Symbol: "EUR/USD"}) {
		t.Error("duplicate insert should be rejected")
	}
	if got := len(c.AllPositions()); got != 1 {
		t.Fatalf("expected exactly one position, got %d", got)
	}
}

func TestPosition_ReturnsDefensiveCopy(t *testing.T) {
	c := New(nil)
	c.InsertPosition(&Position{PosID: "P1", Symbol: "EUR/USD"})

	got := c.Position("P1")
	got.Symbol = "MUTATED"

	again := c.Position("P1")
	if again.Symbol == "MUTATED" {
		t.Error("Position should return a defensive copy")
	}
}

func TestRemovePosition_RemovesExactlyMatchingID(t *testing.T) {
	c := New(nil)
	c.InsertPosition(&Position{PosID: "P1", Symbol: "EUR/USD"})
	c.InsertPosition(&Position{PosID: "P2", Symbol: "EUR/USD"})

	if !c.RemovePosition("P1") {
		t.Fatal("expected removal to report the id existed")
	}
	if c.Position("P1") != nil {
		t.Error("P1 should be gone")
	}
	if c.Position("P2") == nil {
		t.Error("P2 should remain")
	}
}

func TestUpdatePosition_MutatesLiveEntry(t *testing.T) {
	c := New(nil)
	c.InsertPosition(&Position{PosID: "P1", Symbol: "EUR/USD"})

	ok := c.UpdatePosition("P1", func(p *Position) {
		p.StopPrice = dec("1.17116")
		p.HasStop = true
	})
	if !ok {
		t.Fatal("expected update to find the position")
	}

	got := c.Position("P1")
	if !got.HasStop || !got.StopPrice.Equal(dec("1.17116")) {
		t.Errorf("stop price not applied: %+v", got)
	}
}

func TestClearPositionsForAccount_OnlyRemovesThatAccount(t *testing.T) {
	c := New(nil)
	c.InsertPosition(&Position{PosID: "P1", AccountID: "acct-1"})
	c.InsertPosition(&Position{PosID: "P2", AccountID: "acct-2"})

	c.ClearPositionsForAccount("acct-1")

	if c.Position("P1") != nil {
		t.Error("acct-1 position should be cleared")
	}
	if c.Position("P2") == nil {
		t.Error("acct-2 position should remain")
	}
}

func TestPositionsBySymbol_FiltersCorrectly(t *testing.T) {
	c := New(nil)
	c.InsertPosition(&Position{PosID: "P1", Symbol: "EUR/USD"})
	c.InsertPosition(&Position{PosID: "P2", Symbol: "USD/JPY"})
	c.InsertPosition(&Position{PosID: "P3", Symbol: "EUR/USD"})

	got := c.PositionsBySymbol("EUR/USD")
	if len(got) != 2 {
		t.Fatalf("expected 2 positions for EUR/USD, got %d", len(got))
	}
}

func TestLatestTick_ReturnsMostRecent(t *testing.T) {
	c := New(nil)
	c.PutTick(&Tick{Symbol: "EUR/USD", Bid: dec("1.17206"), Ask: dec("1.17216")})
	c.PutTick(&Tick{Symbol: "EUR/USD", Bid: dec("1.17210"), Ask: dec("1.17220")})

	got := c.LatestTick("EUR/USD")
	if !got.Bid.Equal(dec("1.17210")) {
		t.Errorf("expected latest bid 1.17210, got %s", got.Bid)
	}
}

func TestTick_SpreadAndSpreadPoints(t *testing.T) {
	tick := Tick{Bid: dec("1.17206"), Ask: dec("1.17216")}
	pointSize := dec("0.0001")

	if !tick.Spread().Equal(dec("0.0001")) {
		t.Errorf("expected spread 0.0001, got %s", tick.Spread())
	}
	if !tick.SpreadPoints(pointSize).Equal(dec("1")) {
		t.Errorf("expected spread points 1, got %s", tick.SpreadPoints(pointSize))
	}
}

func TestCounterPair(t *testing.T) {
	tests := []struct {
		name       string
		symbol     string
		accountCcy string
		want       string
	}{
		{"usd account always EUR/USD", "USD/JPY", "USD", "EUR/USD"},
		{"eur account, quote USD", "GBP/USD", "EUR", "EUR/USD"},
		{"eur account, USD/CAD", "USD/CAD", "EUR", "EUR/CAD"},
		{"eur account, USD/CHF", "USD/CHF", "EUR", "EUR/CHF"},
		{"eur account, USD/JPY", "USD/JPY", "EUR", "EUR/JPY"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CounterPair(tt.symbol, tt.accountCcy)
			if got != tt.want {
				t.Errorf("CounterPair(%q, %q) = %q, want %q", tt.symbol, tt.accountCcy, got, tt.want)
			}
		})
	}
}

func TestSplitSymbol(t *testing.T) {
	base, quote, ok := SplitSymbol("EUR/USD")
	if !ok || base != "EUR" || quote != "USD" {
		t.Errorf("got base=%q quote=%q ok=%v, want EUR/USD/true", base, quote, ok)
	}

	if _, _, ok := SplitSymbol("malformed"); ok {
		t.Error("expected ok=false for a symbol without a slash")
	}
}
