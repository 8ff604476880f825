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

// Command fxrenko is the operator entrypoint: it loads configuration,
// wires the FIX session, state cache, renko aggregator, and strategy
// dispatcher together, and runs an interactive console.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/quickfixgo/quickfix"
	"github.com/sirupsen/logrus"

	"github.com/fxrenko/engine/internal/dispatcher"
	"github.com/fxrenko/engine/internal/renko"
	"github.com/fxrenko/engine/internal/requestfactory"
	"github.com/fxrenko/engine/internal/sequencestore"
	"github.com/fxrenko/engine/internal/session"
	"github.com/fxrenko/engine/internal/statecache"
	"github.com/fxrenko/engine/internal/strategy"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the operator config file")
	flag.Parse()

	log := logrus.NewEntry(logrus.StandardLogger())

	cfg, err := Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	seq, err := sequencestore.Open(cfg.DB.Path, log)
	if err != nil {
		log.Fatalf("open sequence store: %v", err)
	}
	defer seq.Close()

	cache := statecache.New(log)
	agg := renko.New()
	// No symbol is configured on agg here, and nothing else in the engine
	// calls agg.Configure: until a symbol is configured, OnTick ignores it
	// and no bricks are emitted for it.

	dispatch := dispatcher.New(cache, nil, seq, log)
	mgr := session.NewManager(dispatch, cfg.TargetSubID, cfg.Username, cfg.Password, log)
	dispatch.SetSession(mgr)

	client := newOrderClient(cfg.Account, seq, mgr)
	strategies := strategy.New(agg, cache, client, cfg.HomeCurrency, log)
	dispatch.SetStrategies(strategies)
	// Strategy registration (strategies.Register) is operator-supplied and
	// happens after this point, once the caller's strategies are built.

	settings := buildQuickFIXSettings(cfg)
	storeFactory := quickfix.NewMemoryStoreFactory()
	logFactory := quickfix.NewScreenLogFactory()

	initiator, err := quickfix.NewInitiator(mgr, storeFactory, settings, logFactory)
	if err != nil {
		log.Fatalf("create initiator: %v", err)
	}

	if err := initiator.Start(); err != nil {
		log.Fatalf("start initiator: %v", err)
	}
	defer initiator.Stop()

	waitForActive(mgr, 30*time.Second, log)
	issueStartupRequests(seq, mgr, log)

	runConsole(cfg, cache, mgr, strategies, seq)
}

func waitForActive(mgr *session.Manager, timeout time.Duration, log *logrus.Entry) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if mgr.State() == session.StateActive {
			return
		}
		time.Sleep(100 * time.Millisecond)
	}
	log.Warn("timed out waiting for session to become active")
}

// issueStartupRequests kicks off the handshake spec.md C5 requires once the
// session is active: a TradingSessionStatusRequest. The reply drives
// instrument and account setup and the follow-up CollateralInquiry from
// within the dispatcher (see internal/dispatcher's trading-session-status
// handling).
func issueStartupRequests(seq *sequencestore.Store, mgr *session.Manager, log *logrus.Entry) {
	msg := requestfactory.TradingSessionStatusRequest(seq.NextRequestID())
	if err := quickfix.SendToTarget(msg, mgr.SessionID()); err != nil {
		log.WithError(err).Error("failed to send trading session status request")
	}
}

func buildQuickFIXSettings(cfg *Config) *quickfix.Settings {
	ini := fmt.Sprintf(`[DEFAULT]
ConnectionType=initiator
ReconnectInterval=%d
FileStorePath=store
FileLogPath=log

[SESSION]
BeginString=FIX.4.4
SenderCompID=%s
TargetCompID=%s
SocketConnectHost=%s
SocketConnectPort=%d
HeartBtInt=%d
Username=%s
Password=%s
StartTime=00:00:00
EndTime=00:00:00
UseDataDictionary=N
`,
		1,
		cfg.SenderCompID,
		cfg.TargetCompID,
		cfg.QuickFIX.SocketConnectHost,
		cfg.QuickFIX.SocketConnectPort,
		cfg.QuickFIX.HeartBtInt,
		cfg.Username,
		cfg.Password,
	)

	settings, err := quickfix.ParseSettings(strings.NewReader(ini))
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse quickfix settings: %v\n", err)
		os.Exit(1)
	}
	return settings
}
