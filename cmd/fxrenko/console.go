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
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/quickfixgo/quickfix"

	"github.com/fxrenko/engine/internal/requestfactory"
	"github.com/fxrenko/engine/internal/sequencestore"
	"github.com/fxrenko/engine/internal/session"
	"github.com/fxrenko/engine/internal/statecache"
	"github.com/fxrenko/engine/internal/strategy"
)

// runConsole is a minimal line-oriented operator console: session status,
// cached positions/accounts, a manual position-cache resync, and a clean
// exit. It deliberately does not reimplement the teacher's full order-entry
// command surface — CLI parsing is out of scope here, and this console
// exists only so an operator has somewhere to look while strategies run.
func runConsole(cfg *Config, cache *statecache.Cache, mgr *session.Manager, strategies *strategy.Dispatcher, seq *sequencestore.Store) {
	completer := readline.NewPrefixCompleter(
		readline.PcItem("status"),
		readline.PcItem("positions"),
		readline.PcItem("accounts"),
		readline.PcItem("sync"),
		readline.PcItem("orderstatus"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "fxrenko> ",
		HistoryFile:     "/tmp/fxrenko_history",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Printf("failed to start console: %v\n", err)
		return
	}
	defer rl.Close()

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		switch fields := strings.Fields(line); fields[0] {
		case "status":
			fmt.Printf("session state: %s\n", mgr.State())
		case "positions":
			printPositions(cache)
		case "accounts":
			printAccounts(cache, cfg.Account)
		case "sync":
			syncPositions(cfg, seq, mgr)
		case "orderstatus":
			requestOrderStatus(fields[1:], seq, mgr)
		case "help":
			fmt.Println("commands: status, positions, accounts, sync, orderstatus <clOrdID> <symbol> <buy|sell>, exit")
		case "exit", "quit":
			return
		default:
			fmt.Printf("unknown command %q (try: help)\n", fields[0])
		}
	}
}

// syncPositions asks the broker for the full set of open positions for the
// configured account, resynchronizing the cache if it's drifted from the
// broker's own book (FIXManager::queryPositionReport).
func syncPositions(cfg *Config, seq *sequencestore.Store, mgr *session.Manager) {
	msg, err := requestfactory.RequestForPositions(seq.NextRequestID(), cfg.Account, cfg.Account)
	if err != nil {
		fmt.Printf("failed to build position sync request: %v\n", err)
		return
	}
	if err := quickfix.SendToTarget(msg, mgr.SessionID()); err != nil {
		fmt.Printf("failed to send position sync request: %v\n", err)
	}
}

// requestOrderStatus polls a single order's status by ClOrdID/Symbol/Side.
func requestOrderStatus(args []string, seq *sequencestore.Store, mgr *session.Manager) {
	if len(args) != 3 {
		fmt.Println("usage: orderstatus <clOrdID> <symbol> <buy|sell>")
		return
	}
	side := statecache.SideBuy
	if strings.EqualFold(args[2], "sell") {
		side = statecache.SideSell
	}
	msg, err := requestfactory.OrderStatusRequest(args[0], args[1], side)
	if err != nil {
		fmt.Printf("failed to build order status request: %v\n", err)
		return
	}
	if err := quickfix.SendToTarget(msg, mgr.SessionID()); err != nil {
		fmt.Printf("failed to send order status request: %v\n", err)
	}
}

func printPositions(cache *statecache.Cache) {
	positions := cache.AllPositions()
	if len(positions) == 0 {
		fmt.Println("no open positions")
		return
	}
	for _, p := range positions {
		fmt.Printf("%-12s %-8s %-6s qty=%-10s entry=%-10s pnl=%s\n",
			p.PosID, p.Symbol, p.Side, p.Qty, p.EntryPrice, p.ProfitLoss)
	}
}

func printAccounts(cache *statecache.Cache, accountID string) {
	acct := cache.Account(accountID)
	if acct == nil {
		fmt.Println("no account snapshot yet")
		return
	}
	fmt.Printf("balance=%s equity=%s free_margin=%s margin_pct=%s\n",
		acct.Balance, acct.Equity, acct.FreeMargin, acct.ComputedMarginPct)
}
