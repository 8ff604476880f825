/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package statecache is the thread-safe in-memory model of known instruments,
// the last tick per symbol, open positions, and account balance/margin/equity.
package statecache

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side of a position or order.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Opposite returns the other side, matching MarketOrder::getOpposide in the
// broker's own order model.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// ProductClass classifies what kind of instrument a symbol is.
type ProductClass string

const (
	ProductCurrency  ProductClass = "currency"
	ProductIndex     ProductClass = "index"
	ProductCommodity ProductClass = "commodity"
)

// Instrument is a tradable symbol, created once from the broker's security
// list and immutable thereafter except for status/price fields.
type Instrument struct {
	Symbol           string
	BaseCurrency     string
	QuoteCurrency    string
	PricePrecision   int
	PointSize        decimal.Decimal
	RoundLotSize     decimal.Decimal
	MinOrderQty      decimal.Decimal
	MaxOrderQty      decimal.Decimal
	ContractMultiplier decimal.Decimal
	Product          ProductClass
	SubscriptionOpen bool
	TradingOpen      bool
	InterestBuy      decimal.Decimal
	InterestSell     decimal.Decimal
	SortOrder        int
}

// Tick is a market snapshot for one instrument.
type Tick struct {
	Symbol      string
	SendingTime time.Time
	Bid         decimal.Decimal
	Ask         decimal.Decimal
	SessionHigh decimal.Decimal
	SessionLow  decimal.Decimal
}

// Spread returns |ask - bid|.
func (t Tick) Spread() decimal.Decimal {
	return t.Ask.Sub(t.Bid).Abs()
}

// SpreadPoints returns the spread expressed in instrument points.
func (t Tick) SpreadPoints(pointSize decimal.Decimal) decimal.Decimal {
	if pointSize.IsZero() {
		return decimal.Zero
	}
	return t.Spread().Div(pointSize)
}

// Position is a currently owned exposure (MarketOrder in the broker's own
// source). PosID is the broker-assigned identity; it is the cache's map key.
type Position struct {
	PosID         string
	ClOrdID       string
	OrderID       string
	AccountID     string
	Symbol        string
	Side          Side
	Qty           decimal.Decimal
	EntryPrice    decimal.Decimal
	StopPrice     decimal.Decimal // zero value means unset
	TakePrice     decimal.Decimal
	ClosePrice    decimal.Decimal
	ProfitLoss    decimal.Decimal
	SendingTime   time.Time
	CloseTime     time.Time
	HasStop       bool
	HasTake       bool
	Closed        bool
}

// CloseSide is the opposite side used to flatten the position.
func (p Position) CloseSide() Side {
	return p.Side.Opposite()
}

// Account is the broker-reported balance/margin snapshot plus derived values.
type Account struct {
	AccountID           string
	SecuritiesAccountID string
	Person              string
	Currency            string
	Balance             decimal.Decimal
	UsedMargin          decimal.Decimal
	MarginRatio         decimal.Decimal // broker-reported
	MMR                 decimal.Decimal // derived: MarginRatio x ContractSize
	ContractSize        decimal.Decimal
	MinTradeSize        decimal.Decimal
	Hedging             bool

	// Derived, recomputed whenever a tick touches an owned symbol.
	Equity            decimal.Decimal
	FreeMargin        decimal.Decimal
	ComputedMarginPct decimal.Decimal
}
