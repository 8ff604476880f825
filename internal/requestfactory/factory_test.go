package requestfactory

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fxrenko/engine/internal/brokertags"
	"github.com/fxrenko/engine/internal/statecache"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestMarketDataRequest_RejectsEmptySymbol(t *testing.T) {
	if _, err := MarketDataRequest("1", "", true); err == nil {
		t.Fatal("expected an ArgumentError for an empty symbol")
	}
}

func TestMarketDataRequest_BuildsSubscribe(t *testing.T) {
	msg, err := MarketDataRequest("1", "EUR/USD", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := msg.Body.GetString(brokertags.TagSubscriptionRequestType)
	if got != brokertags.SubscriptionRequestTypeSnapshotAndUpdates {
		t.Errorf("SubscriptionRequestType = %q, want subscribe", got)
	}
}

func TestNewOrderSingle_RequiresClOrdID(t *testing.T) {
	_, err := NewOrderSingle(OrderParams{
		Account: "A1", Symbol: "EUR/USD", Side: statecache.SideBuy,
		OrdType: brokertags.OrdTypeMarket, Qty: dec("1000"),
	})
	if err == nil {
		t.Fatal("expected ArgumentError for missing ClOrdID")
	}
}

func TestNewOrderSingle_RequiresPositiveQty(t *testing.T) {
	_, err := NewOrderSingle(OrderParams{
		ClOrdID: "c1", Account: "A1", Symbol: "EUR/USD", Side: statecache.SideBuy,
		OrdType: brokertags.OrdTypeMarket, Qty: decimal.Zero,
	})
	if err == nil {
		t.Fatal("expected ArgumentError for zero quantity")
	}
}

func TestNewOrderSingle_LimitRequiresPrice(t *testing.T) {
	_, err := NewOrderSingle(OrderParams{
		ClOrdID: "c1", Account: "A1", Symbol: "EUR/USD", Side: statecache.SideBuy,
		OrdType: brokertags.OrdTypeLimit, Qty: dec("1000"),
	})
	if err == nil {
		t.Fatal("expected ArgumentError for a limit order with no price")
	}
}

func TestNewOrderSingle_StopRequiresStopPrice(t *testing.T) {
	_, err := NewOrderSingle(OrderParams{
		ClOrdID: "c1", Account: "A1", Symbol: "EUR/USD", Side: statecache.SideBuy,
		OrdType: brokertags.OrdTypeStop, Qty: dec("1000"),
	})
	if err == nil {
		t.Fatal("expected ArgumentError for a stop order with no stop price")
	}
}

func TestNewOrderSingle_MarketBuildsExpectedFields(t *testing.T) {
	msg, err := NewOrderSingle(OrderParams{
		ClOrdID: "c1", Account: "A1", Symbol: "EUR/USD", Side: statecache.SideBuy,
		OrdType: brokertags.OrdTypeMarket, Qty: dec("10000"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	side, _ := msg.Body.GetString(brokertags.TagSide)
	if side != brokertags.SideBuy {
		t.Errorf("Side = %q, want %q", side, brokertags.SideBuy)
	}
	qty, _ := msg.Body.GetString(brokertags.TagOrderQty)
	if qty != "10000" {
		t.Errorf("OrderQty = %q, want 10000", qty)
	}
}

func TestCloseOrderSingle_FlipsSideAndStampsPosID(t *testing.T) {
	pos := statecache.Position{
		PosID: "POS-1", Symbol: "EUR/USD", Side: statecache.SideBuy, Qty: dec("10000"),
	}
	msg, err := CloseOrderSingle("close-1", "A1", pos)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	side, _ := msg.Body.GetString(brokertags.TagSide)
	if side != brokertags.SideSell {
		t.Errorf("close side = %q, want sell (%q)", side, brokertags.SideSell)
	}
	posID, _ := msg.Body.GetString(brokertags.TagFXCMPosID)
	if posID != "POS-1" {
		t.Errorf("FXCMPosID = %q, want POS-1", posID)
	}
}

func TestBracketOrderList_RequiresAtLeastOneContingentLeg(t *testing.T) {
	entry := OrderParams{
		ClOrdID: "c1", Account: "A1", Symbol: "EUR/USD", Side: statecache.SideBuy,
		OrdType: brokertags.OrdTypeMarket, Qty: dec("10000"),
	}
	if _, err := BracketOrderList("list-1", entry, decimal.Zero, decimal.Zero); err == nil {
		t.Fatal("expected ArgumentError when neither stop nor take is set")
	}
}

func TestBracketOrderList_BuildsThreeLegsWithBothContingencies(t *testing.T) {
	entry := OrderParams{
		ClOrdID: "c1", Account: "A1", Symbol: "EUR/USD", Side: statecache.SideBuy,
		OrdType: brokertags.OrdTypeMarket, Qty: dec("10000"),
	}
	msg, err := BracketOrderList("list-1", entry, dec("1.1700"), dec("1.1800"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tot, _ := msg.Body.GetString(brokertags.TagTotNoOrders)
	if tot != "3" {
		t.Errorf("TotNoOrders = %q, want 3", tot)
	}
}

func TestRequestForPositions_RequiresAccount(t *testing.T) {
	if _, err := RequestForPositions("r1", "", "party1"); err == nil {
		t.Fatal("expected ArgumentError for missing account")
	}
}

func TestOrderStatusRequest_RequiresClOrdID(t *testing.T) {
	if _, err := OrderStatusRequest("", "EUR/USD", statecache.SideBuy); err == nil {
		t.Fatal("expected ArgumentError for missing ClOrdID")
	}
}

func TestTradingSessionStatusRequest_StampsTradingSessionID(t *testing.T) {
	msg := TradingSessionStatusRequest("tsr-1")
	tsid, _ := msg.Body.GetString(brokertags.TagTradingSessionID)
	if tsid != brokertags.TradingSessionFXCM {
		t.Errorf("TradingSessionID = %q, want %q", tsid, brokertags.TradingSessionFXCM)
	}
}

func TestBuildNewOrderSingle_IntentCloseRequiresPosition(t *testing.T) {
	p := OrderParams{ClOrdID: "c1", Account: "A1", Symbol: "EUR/USD", Side: statecache.SideBuy, Qty: dec("1000")}
	if _, err := BuildNewOrderSingle(IntentClose, p, nil, decimal.Zero, decimal.Zero); err == nil {
		t.Fatal("expected ArgumentError when pos is nil for IntentClose")
	}
}

func TestBuildNewOrderSingle_IntentCloseFlipsSide(t *testing.T) {
	p := OrderParams{ClOrdID: "c1", Account: "A1"}
	pos := statecache.Position{PosID: "P1", Symbol: "EUR/USD", Side: statecache.SideBuy, Qty: dec("1000")}
	msg, err := BuildNewOrderSingle(IntentClose, p, &pos, decimal.Zero, decimal.Zero)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	side, _ := msg.Body.GetString(brokertags.TagSide)
	if side != brokertags.SideSell {
		t.Errorf("Side = %q, want sell (closing a long)", side)
	}
}

func TestBuildNewOrderSingle_IntentMarketSLTPBuildsBracket(t *testing.T) {
	p := OrderParams{ClOrdID: "c1", Account: "A1", Symbol: "EUR/USD", Side: statecache.SideBuy, Qty: dec("1000")}
	msg, err := BuildNewOrderSingle(IntentMarketSLTP, p, nil, dec("1.1700"), dec("1.1800"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tot, _ := msg.Body.GetString(brokertags.TagTotNoOrders)
	if tot != "3" {
		t.Errorf("TotNoOrders = %q, want 3", tot)
	}
}

func TestBuildNewOrderSingle_IntentMarketDefaultsOrdType(t *testing.T) {
	p := OrderParams{ClOrdID: "c1", Account: "A1", Symbol: "EUR/USD", Side: statecache.SideBuy, Qty: dec("1000")}
	msg, err := BuildNewOrderSingle(IntentMarket, p, nil, decimal.Zero, decimal.Zero)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ordType, _ := msg.Body.GetString(brokertags.TagOrdType)
	if ordType != brokertags.OrdTypeMarket {
		t.Errorf("OrdType = %q, want market", ordType)
	}
}
