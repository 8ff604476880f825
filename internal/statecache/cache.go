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

package statecache

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Cache holds the four mappings named in spec.md section 4.6, each under its
// own lock so a reader of instruments never blocks behind a writer of
// positions. Mutations are lock-exclusive; reads are lock-shared; every
// read returns a defensive copy so callers can't mutate cache state through
// an aliased pointer (the same discipline as the teacher's OrderStore).
type Cache struct {
	instrMu     sync.RWMutex
	instruments map[string]*Instrument

	tickMu sync.RWMutex
	ticks  map[string]*Tick

	posMu     sync.RWMutex
	positions map[string]*Position

	acctMu   sync.RWMutex
	accounts map[string]*Account

	paramMu sync.RWMutex
	params  map[string]string

	subMu         sync.RWMutex
	subscriptions map[string]bool // symbol -> active

	tradingDeskOpen bool

	log *logrus.Entry
}

// New creates an empty Cache.
func New(log *logrus.Entry) *Cache {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Cache{
		instruments:   make(map[string]*Instrument),
		ticks:         make(map[string]*Tick),
		positions:     make(map[string]*Position),
		accounts:      make(map[string]*Account),
		params:        make(map[string]string),
		subscriptions: make(map[string]bool),
		log:           log.WithField("component", "state_cache"),
	}
}

// --- Instruments ---

// PutInstrument inserts or replaces the metadata for symbol. Per spec.md,
// instruments are created once from the security list and are otherwise
// immutable except for status/price fields, but the cache itself does not
// enforce that — it is a property of how C5 calls this method.
func (c *Cache) PutInstrument(i *Instrument) {
	c.instrMu.Lock()
	defer c.instrMu.Unlock()
	cp := *i
	c.instruments[i.Symbol] = &cp
}

// Instrument returns a copy of the instrument for symbol, or nil if unknown.
func (c *Cache) Instrument(symbol string) *Instrument {
	c.instrMu.RLock()
	defer c.instrMu.RUnlock()
	i, ok := c.instruments[symbol]
	if !ok {
		return nil
	}
	cp := *i
	return &cp
}

// SetTradingStatus updates the trading-desk-open flag, as done by the
// TradingSessionStatus handler. Instruments' TradingOpen flags are not
// changed by it.
func (c *Cache) SetTradingStatus(open bool) {
	c.instrMu.Lock()
	defer c.instrMu.Unlock()
	c.tradingDeskOpen = open
}

// TradingDeskOpen reports the last TradSesStatus seen.
func (c *Cache) TradingDeskOpen() bool {
	c.instrMu.RLock()
	defer c.instrMu.RUnlock()
	return c.tradingDeskOpen
}

// --- Broker system parameters (FXCM_NO_PARAMS group) ---

// PutParam stores one broker system parameter (e.g. BASE_CRNCY).
func (c *Cache) PutParam(name, value string) {
	c.paramMu.Lock()
	defer c.paramMu.Unlock()
	c.params[name] = value
}

// Param returns a broker system parameter, or "" if unknown.
func (c *Cache) Param(name string) string {
	c.paramMu.RLock()
	defer c.paramMu.RUnlock()
	return c.params[name]
}

// --- Subscriptions ---

// SetSubscribed records whether symbol currently has an active market data
// subscription. strategy.Dispatcher deduplicates its own subscriptions and
// does not consult this set.
func (c *Cache) SetSubscribed(symbol string, active bool) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	if active {
		c.subscriptions[symbol] = true
	} else {
		delete(c.subscriptions, symbol)
	}
}

// IsSubscribed reports whether symbol has an active subscription.
func (c *Cache) IsSubscribed(symbol string) bool {
	c.subMu.RLock()
	defer c.subMu.RUnlock()
	return c.subscriptions[symbol]
}

// --- Ticks ---

// PutTick commits a new tick as the latest snapshot for its symbol.
func (c *Cache) PutTick(t *Tick) {
	c.tickMu.Lock()
	defer c.tickMu.Unlock()
	cp := *t
	c.ticks[t.Symbol] = &cp
}

// LatestTick returns a copy of the most recent tick for symbol, or nil.
func (c *Cache) LatestTick(symbol string) *Tick {
	c.tickMu.RLock()
	defer c.tickMu.RUnlock()
	t, ok := c.ticks[symbol]
	if !ok {
		return nil
	}
	cp := *t
	return &cp
}

// --- Positions ---

// InsertPosition adds a new position. It refuses to overwrite an existing
// id (broker is authoritative; duplicate inserts are logged and dropped
// per spec.md section 7's Cache error row) and returns false in that case.
func (c *Cache) InsertPosition(p *Position) bool {
	c.posMu.Lock()
	defer c.posMu.Unlock()
	if _, exists := c.positions[p.PosID]; exists {
		c.log.WithField("pos_id", p.PosID).Warn("duplicate position id on insert, ignoring")
		return false
	}
	cp := *p
	c.positions[p.PosID] = &cp
	return true
}

// Position returns a copy of the position for posID, or nil if unknown.
func (c *Cache) Position(posID string) *Position {
	c.posMu.RLock()
	defer c.posMu.RUnlock()
	p, ok := c.positions[posID]
	if !ok {
		return nil
	}
	cp := *p
	return &cp
}

// UpdatePosition applies fn to the stored position under the write lock and
// returns whether a position with that id existed to update. fn receives a
// pointer to the live entry (not a copy) so it can mutate fields in place.
func (c *Cache) UpdatePosition(posID string, fn func(*Position)) bool {
	c.posMu.Lock()
	defer c.posMu.Unlock()
	p, ok := c.positions[posID]
	if !ok {
		return false
	}
	fn(p)
	return true
}

// RemovePosition deletes a position by id, reporting whether it existed.
func (c *Cache) RemovePosition(posID string) bool {
	c.posMu.Lock()
	defer c.posMu.Unlock()
	if _, ok := c.positions[posID]; !ok {
		return false
	}
	delete(c.positions, posID)
	return true
}

// PositionsBySymbol returns copies of every open position for symbol.
func (c *Cache) PositionsBySymbol(symbol string) []*Position {
	c.posMu.RLock()
	defer c.posMu.RUnlock()
	var out []*Position
	for _, p := range c.positions {
		if p.Symbol == symbol {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out
}

// ClearPositionsForAccount removes every position belonging to accountID,
// used when RequestForPositionsAck reports PosReqResult=no-positions.
func (c *Cache) ClearPositionsForAccount(accountID string) {
	c.posMu.Lock()
	defer c.posMu.Unlock()
	for id, p := range c.positions {
		if p.AccountID == accountID {
			delete(c.positions, id)
		}
	}
}

// AllPositions returns copies of every open position.
func (c *Cache) AllPositions() []*Position {
	c.posMu.RLock()
	defer c.posMu.RUnlock()
	out := make([]*Position, 0, len(c.positions))
	for _, p := range c.positions {
		cp := *p
		out = append(out, &cp)
	}
	return out
}

// --- Accounts ---

// PutAccount inserts or replaces an account snapshot.
func (c *Cache) PutAccount(a *Account) {
	c.acctMu.Lock()
	defer c.acctMu.Unlock()
	cp := *a
	c.accounts[a.AccountID] = &cp
}

// Account returns a copy of the account snapshot, or nil if unknown.
func (c *Cache) Account(accountID string) *Account {
	c.acctMu.RLock()
	defer c.acctMu.RUnlock()
	a, ok := c.accounts[accountID]
	if !ok {
		return nil
	}
	cp := *a
	return &cp
}

// UpdateAccount applies fn to the live account entry under the write lock.
func (c *Cache) UpdateAccount(accountID string, fn func(*Account)) bool {
	c.acctMu.Lock()
	defer c.acctMu.Unlock()
	a, ok := c.accounts[accountID]
	if !ok {
		return false
	}
	fn(a)
	return true
}

// CounterPair returns the auxiliary instrument that must be subscribed to
// convert P&L of symbol into accountCcy, per spec.md section 4.4. It is a
// pure function grounded on the broker source's Pairs.h::getCounterPair.
func CounterPair(symbol, accountCcy string) string {
	if accountCcy != "EUR" {
		return "EUR/USD"
	}
	switch symbol {
	case "USD/CAD":
		return "EUR/CAD"
	case "USD/CHF":
		return "EUR/CHF"
	case "USD/JPY":
		return "EUR/JPY"
	}
	// Any other XXX/USD pair converts through EUR/USD.
	return "EUR/USD"
}

// SplitSymbol derives base/quote currencies from a symbol like "EUR/USD".
func SplitSymbol(symbol string) (base, quote string, ok bool) {
	for i := 0; i < len(symbol); i++ {
		if symbol[i] == '/' {
			return symbol[:i], symbol[i+1:], true
		}
	}
	return "", "", false
}
