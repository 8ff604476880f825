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

package strategy

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fxrenko/engine/internal/renko"
	"github.com/fxrenko/engine/internal/statecache"
)

type fakeOrderClient struct {
	subscribed []string
}

func (f *fakeOrderClient) SubmitEntry(symbol string, side statecache.Side, qty, stopPrice, takePrice decimal.Decimal) error {
	return nil
}

func (f *fakeOrderClient) SubmitClose(pos statecache.Position) error {
	return nil
}

func (f *fakeOrderClient) Subscribe(symbol string) error {
	f.subscribed = append(f.subscribed, symbol)
	return nil
}

type noopStrategy struct{}

func (noopStrategy) OnInit()                                                 {}
func (noopStrategy) OnTick(tick statecache.Tick)                             {}
func (noopStrategy) OnBar(brick renko.Brick)                                 {}
func (noopStrategy) OnPositionChange(pos statecache.Position, status string) {}
func (noopStrategy) OnAccountChange(acct statecache.Account)                 {}
func (noopStrategy) OnRequestAck(kind, text string)                          {}
func (noopStrategy) OnExit()                                                 {}

func TestRegister_SubscribesSymbolAndCounterPair(t *testing.T) {
	client := &fakeOrderClient{}
	d := New(nil, statecache.New(nil), client, "USD", nil)

	d.Register(noopStrategy{}, []string{"AUD/CAD"})

	if len(client.subscribed) != 2 {
		t.Fatalf("subscribed = %v, want 2 symbols (AUD/CAD + counter pair)", client.subscribed)
	}
	if client.subscribed[0] != "AUD/CAD" {
		t.Errorf("first subscription = %s, want AUD/CAD", client.subscribed[0])
	}
	if client.subscribed[1] != "EUR/USD" {
		t.Errorf("second subscription = %s, want EUR/USD (conversion pair for a non-EUR account)", client.subscribed[1])
	}
}

func TestRegister_DoesNotDoubleSubscribeSharedCounterPair(t *testing.T) {
	client := &fakeOrderClient{}
	d := New(nil, statecache.New(nil), client, "USD", nil)

	d.Register(noopStrategy{}, []string{"AUD/CAD"})
	d.Register(noopStrategy{}, []string{"NZD/CAD"})

	count := 0
	for _, s := range client.subscribed {
		if s == "EUR/USD" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("EUR/USD subscribed %d times across two registrations, want 1", count)
	}
}

func TestRegister_SkipsCounterPairWhenItMatchesTheSymbol(t *testing.T) {
	client := &fakeOrderClient{}
	d := New(nil, statecache.New(nil), client, "USD", nil)

	d.Register(noopStrategy{}, []string{"EUR/USD"})

	if len(client.subscribed) != 1 {
		t.Fatalf("subscribed = %v, want just EUR/USD with no redundant counter-pair subscription", client.subscribed)
	}
}
