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

package main

import (
	"fmt"

	"github.com/quickfixgo/quickfix"
	"github.com/shopspring/decimal"

	"github.com/fxrenko/engine/internal/requestfactory"
	"github.com/fxrenko/engine/internal/sequencestore"
	"github.com/fxrenko/engine/internal/session"
	"github.com/fxrenko/engine/internal/statecache"
)

// orderClient implements strategy.OrderClient by building a request via
// requestfactory and sending it through the active quickfix session.
type orderClient struct {
	account string
	seq     *sequencestore.Store
	mgr     *session.Manager
}

func newOrderClient(account string, seq *sequencestore.Store, mgr *session.Manager) *orderClient {
	return &orderClient{account: account, seq: seq, mgr: mgr}
}

func (c *orderClient) SubmitEntry(symbol string, side statecache.Side, qty, stopPrice, takePrice decimal.Decimal) error {
	clOrdID := c.seq.NextOrderID()
	entry := requestfactory.OrderParams{
		ClOrdID: clOrdID,
		Account: c.account,
		Symbol:  symbol,
		Side:    side,
		OrdType: "1", // market entry
		Qty:     qty,
	}

	var msg *quickfix.Message
	var err error
	if stopPrice.GreaterThan(decimal.Zero) || takePrice.GreaterThan(decimal.Zero) {
		msg, err = requestfactory.BracketOrderList(clOrdID, entry, stopPrice, takePrice)
	} else {
		msg, err = requestfactory.NewOrderSingle(entry)
	}
	if err != nil {
		return fmt.Errorf("build entry order: %w", err)
	}
	return quickfix.SendToTarget(msg, c.mgr.SessionID())
}

func (c *orderClient) SubmitClose(pos statecache.Position) error {
	clOrdID := c.seq.NextOrderID()
	msg, err := requestfactory.CloseOrderSingle(clOrdID, c.account, pos)
	if err != nil {
		return fmt.Errorf("build close order: %w", err)
	}
	return quickfix.SendToTarget(msg, c.mgr.SessionID())
}

// Subscribe issues a snapshot-plus-updates MarketDataRequest for symbol
// (FIXManager::subscribeMarketData).
func (c *orderClient) Subscribe(symbol string) error {
	msg, err := requestfactory.MarketDataRequest(c.seq.NextRequestID(), symbol, true)
	if err != nil {
		return fmt.Errorf("build market data request: %w", err)
	}
	return quickfix.SendToTarget(msg, c.mgr.SessionID())
}
