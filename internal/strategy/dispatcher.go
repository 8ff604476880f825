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

// Package strategy holds user-provided strategy objects and routes ticks,
// bricks, and order events to their callbacks, then funnels strategy
// entry/exit signals back to order submission. Strategies are a narrow
// capability interface rather than a class hierarchy (spec.md section 9):
// there is no pointer from strategy back to a session/manager object, only
// an OrderClient the dispatcher hands it.
package strategy

import (
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/fxrenko/engine/internal/renko"
	"github.com/fxrenko/engine/internal/statecache"
)

// Strategy is the capability set a strategy implementation exposes. All
// methods are called from the single inbound-processing goroutine of a
// session; they must not block and must not panic — the Dispatcher
// recovers and logs any panic so one misbehaving strategy can't take down
// the others.
type Strategy interface {
	OnInit()
	OnTick(tick statecache.Tick)
	OnBar(brick renko.Brick)
	OnPositionChange(pos statecache.Position, status string)
	OnAccountChange(acct statecache.Account)
	OnRequestAck(kind, text string)
	OnExit()
}

// OrderClient is the narrow interface strategies use to act, breaking the
// cyclic strategy<->manager reference the broker's own source has (spec.md
// section 9). Implemented by the request-factory/session pair in cmd/.
type OrderClient interface {
	SubmitEntry(symbol string, side statecache.Side, qty decimal.Decimal, stopPrice, takePrice decimal.Decimal) error
	SubmitClose(pos statecache.Position) error
	Subscribe(symbol string) error
}

type registration struct {
	strategy Strategy
	symbols  map[string]bool
}

// Dispatcher owns zero or more registered strategies, each subscribed to a
// declared set of symbols.
type Dispatcher struct {
	registrations []*registration
	renko         *renko.Aggregator
	cache         *statecache.Cache
	client        OrderClient
	homeCurrency  string
	subscribed    map[string]bool
	log           *logrus.Entry
}

// New creates a Dispatcher wired to the given Renko aggregator, state
// cache, and order client. homeCurrency is the account's settlement
// currency, used to decide whether a symbol needs a counter-pair
// subscription for price conversion (FIXManager::getCounterPair).
func New(agg *renko.Aggregator, cache *statecache.Cache, client OrderClient, homeCurrency string, log *logrus.Entry) *Dispatcher {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Dispatcher{
		renko:        agg,
		cache:        cache,
		client:       client,
		homeCurrency: homeCurrency,
		subscribed:   make(map[string]bool),
		log:          log.WithField("component", "strategy_dispatcher"),
	}
}

// Register subscribes s to symbols, issues a MarketDataRequest for each one
// not already subscribed, plus its counter pair when the symbol's currency
// doesn't match the account's home currency, and calls s's OnInit callback -
// FIXManager::subscribeMarketData's behavior.
func (d *Dispatcher) Register(s Strategy, symbols []string) {
	set := make(map[string]bool, len(symbols))
	for _, sym := range symbols {
		set[sym] = true
		d.subscribeMarketData(sym)
	}
	d.registrations = append(d.registrations, &registration{strategy: s, symbols: set})
	d.safeCall(s, "OnInit", func() { s.OnInit() })
}

func (d *Dispatcher) subscribeMarketData(symbol string) {
	if d.client == nil || d.subscribed[symbol] {
		return
	}
	if err := d.client.Subscribe(symbol); err != nil {
		d.log.WithError(err).WithField("symbol", symbol).Error("failed to subscribe to market data")
		return
	}
	d.subscribed[symbol] = true

	if _, quote, ok := statecache.SplitSymbol(symbol); ok && quote == d.homeCurrency {
		return
	}
	counterPair := statecache.CounterPair(symbol, d.homeCurrency)
	if counterPair == "" || counterPair == symbol || d.subscribed[counterPair] {
		return
	}
	if err := d.client.Subscribe(counterPair); err != nil {
		d.log.WithError(err).WithField("symbol", counterPair).Error("failed to subscribe to counter-pair market data")
		return
	}
	d.subscribed[counterPair] = true
}

// safeCall recovers a panic from a strategy callback, logs it, and lets the
// dispatcher continue serving the other strategies (spec.md section 7:
// "Strategies must not raise out of callbacks").
func (d *Dispatcher) safeCall(s Strategy, callback string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			d.log.WithFields(logrus.Fields{"callback": callback}).Errorf("strategy callback panicked: %v", r)
		}
	}()
	fn()
}

// DispatchTick filters registered strategies by symbol, advances the Renko
// aggregator, and invokes OnTick then (if a brick closed) OnBar.
func (d *Dispatcher) DispatchTick(tick statecache.Tick) {
	var brick *renko.Brick
	if d.renko != nil {
		brick = d.renko.OnTick(tick.Symbol, tick.Bid, tick.SendingTime)
	}

	for _, reg := range d.registrations {
		if !reg.symbols[tick.Symbol] {
			continue
		}
		s := reg.strategy
		d.safeCall(s, "OnTick", func() { s.OnTick(tick) })
		if brick != nil {
			d.safeCall(s, "OnBar", func() { s.OnBar(*brick) })
		}
	}
}

// DispatchPositionChange notifies every strategy subscribed to pos.Symbol.
func (d *Dispatcher) DispatchPositionChange(pos statecache.Position, status string) {
	for _, reg := range d.registrations {
		if !reg.symbols[pos.Symbol] {
			continue
		}
		s := reg.strategy
		d.safeCall(s, "OnPositionChange", func() { s.OnPositionChange(pos, status) })
	}
}

// DispatchAccountChange notifies every registered strategy of a new
// account snapshot, regardless of symbol subscription.
func (d *Dispatcher) DispatchAccountChange(acct statecache.Account) {
	for _, reg := range d.registrations {
		s := reg.strategy
		d.safeCall(s, "OnAccountChange", func() { s.OnAccountChange(acct) })
	}
}

// DispatchRequestAck notifies every registered strategy of a broker
// acknowledgement/rejection that isn't tied to one symbol.
func (d *Dispatcher) DispatchRequestAck(kind, text string) {
	for _, reg := range d.registrations {
		s := reg.strategy
		d.safeCall(s, "OnRequestAck", func() { s.OnRequestAck(kind, text) })
	}
}

// EntrySignal computes sizing via the risk-management formulas and submits
// a bracket order through the order client.
func (d *Dispatcher) EntrySignal(symbol string, side statecache.Side, cfg RiskConfig, acct statecache.Account, instr statecache.Instrument, conversionRate decimal.Decimal) error {
	units := UnitSize(acct.FreeMargin, cfg.MaxRiskPct, cfg.MaxPipRisk, conversionRate, instr.PointSize)
	if cfg.MaxQty.GreaterThan(decimal.Zero) && units.GreaterThan(cfg.MaxQty) {
		units = cfg.MaxQty
	}

	tick := d.cache.LatestTick(symbol)
	if tick == nil {
		return nil
	}

	stopDistance := decimal.NewFromInt(int64(cfg.MaxPipRisk)).Mul(instr.PointSize)
	var stopPrice decimal.Decimal
	if side == statecache.SideBuy {
		stopPrice = tick.Bid.Sub(stopDistance)
	} else {
		stopPrice = tick.Ask.Add(stopDistance)
	}

	return d.client.SubmitEntry(symbol, side, units, stopPrice, decimal.Zero)
}

// CloseAllSignal iterates cached positions matching symbol (and, if side is
// non-empty, that side too) and submits one close order per position.
func (d *Dispatcher) CloseAllSignal(symbol string, side statecache.Side) error {
	for _, pos := range d.cache.PositionsBySymbol(symbol) {
		if side != "" && pos.Side != side {
			continue
		}
		if err := d.client.SubmitClose(*pos); err != nil {
			return err
		}
	}
	return nil
}

// RiskConfig is the per-strategy risk configuration named in spec.md
// section 6.2.
type RiskConfig struct {
	MaxShortPos int
	MaxLongPos  int
	MaxPipRisk  int
	MaxRiskPct  decimal.Decimal
	MaxQty      decimal.Decimal
	MaxSpread   decimal.Decimal
	RenkoSize   int
	SMASize     int
	WaitBricks  int
	Symbols     []string
}
