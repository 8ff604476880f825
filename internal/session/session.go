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

// Package session implements the quickfix.Application callback surface and
// tracks the coarse connected -> active -> disconnected state the rest of
// the engine reasons about (StateLoggingOut is defined, but no Manager
// callback enters it). The quickfix engine itself already drives
// heartbeats, test requests, and sequence-number bookkeeping at the wire
// level; this package is the layer above that: TargetSubID stamping, the
// coarse state strategies/operators can observe, and a Backoff delay
// calculator. Backoff is not handed to the quickfix initiator, which
// reconnects at the fixed ReconnectInterval cmd/fxrenko writes into its
// settings.
package session

import (
	"math/rand"
	"sync"
	"time"

	"github.com/quickfixgo/quickfix"
	"github.com/sirupsen/logrus"

	"github.com/fxrenko/engine/internal/brokertags"
)

// State is the coarse session lifecycle state.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnected    State = "connected" // TCP up, logon not yet acked
	StateActive       State = "active"    // logon acked, trading session usable
	StateLoggingOut   State = "logging_out"
)

// AppMessageHandler receives every application-level (non-admin) inbound
// message. internal/dispatcher implements this.
type AppMessageHandler interface {
	HandleAppMessage(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError
}

// Backoff computes reconnect delays: base, doubling per attempt, capped,
// with +/-20% jitter, per the broker's own reconnect policy.
type Backoff struct {
	Base time.Duration
	Cap  time.Duration
}

// DefaultBackoff is 1s base, 60s cap.
func DefaultBackoff() Backoff {
	return Backoff{Base: time.Second, Cap: 60 * time.Second}
}

// Delay returns the backoff duration for the given zero-based attempt
// number, with jitter applied.
func (b Backoff) Delay(attempt int) time.Duration {
	d := b.Base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d > b.Cap {
			d = b.Cap
			break
		}
	}
	jitter := 1 + (rand.Float64()*0.4 - 0.2) // +/-20%
	return time.Duration(float64(d) * jitter)
}

// Manager implements quickfix.Application. It stamps TargetSubID on every
// outbound message, tracks coarse session state, and forwards every
// application-level message to an AppMessageHandler.
type Manager struct {
	mu           sync.RWMutex
	state        State
	sessionID    quickfix.SessionID
	targetSubID  string
	username     string
	password     string
	senderCompID string
	targetCompID string
	lastLogonAt  time.Time

	handler AppMessageHandler
	log     *logrus.Entry

	stateChange func(State)
}

// NewManager creates a Manager. targetSubID is stamped onto the header of
// every outbound message (spec.md section 4.3); pass "" if the broker
// profile doesn't use one. username/password are stamped onto the outbound
// Logon(35=A) message's tags 553/554 in ToAdmin, belt-and-suspenders with the
// same credentials quickfix itself reads out of the [SESSION] Settings INI.
func NewManager(handler AppMessageHandler, targetSubID, username, password string, log *logrus.Entry) *Manager {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Manager{
		state:       StateDisconnected,
		handler:     handler,
		targetSubID: targetSubID,
		username:    username,
		password:    password,
		log:         log.WithField("component", "session"),
	}
}

// OnStateChange registers a callback invoked whenever the coarse state
// transitions. cmd/fxrenko does not register one; it polls State instead.
func (m *Manager) OnStateChange(fn func(State)) {
	m.stateChange = fn
}

func (m *Manager) setState(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()
	if m.stateChange != nil {
		m.stateChange(s)
	}
}

// State returns the current coarse session state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// SessionID returns the quickfix session identity assigned at creation, or
// the zero value before OnCreate has run.
func (m *Manager) SessionID() quickfix.SessionID {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessionID
}

// --- quickfix.Application ---

func (m *Manager) OnCreate(sessionID quickfix.SessionID) {
	m.mu.Lock()
	m.sessionID = sessionID
	m.senderCompID = sessionID.SenderCompID
	m.targetCompID = sessionID.TargetCompID
	m.mu.Unlock()
	m.setState(StateConnected)
	m.log.WithField("session", sessionID).Info("session created")
}

func (m *Manager) OnLogon(sessionID quickfix.SessionID) {
	m.mu.Lock()
	m.lastLogonAt = time.Now()
	m.mu.Unlock()
	m.setState(StateActive)
	m.log.WithField("session", sessionID).Info("logon complete")
}

func (m *Manager) OnLogout(sessionID quickfix.SessionID) {
	m.setState(StateDisconnected)
	m.log.WithField("session", sessionID).Warn("session logged out")
}

// FromAdmin observes admin-level messages (Logon, Heartbeat, TestRequest,
// ResendRequest, SequenceReset, Logout) the quickfix engine has already
// processed; the engine owns sequence/heartbeat discipline, so this hook
// only logs rejects the engine itself doesn't surface elsewhere.
func (m *Manager) FromAdmin(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	msgType, _ := msg.Header.GetString(brokertags.TagMsgType)
	if msgType == brokertags.MsgTypeReject || msgType == brokertags.MsgTypeBusinessReject {
		text, _ := msg.Body.GetString(brokertags.TagText)
		m.log.WithField("session", sessionID).Warnf("admin-level reject: %s", text)
	}
	return nil
}

// ToAdmin stamps TargetSubID on outbound admin messages before they're sent,
// plus Username/Password on the Logon message so the broker can authenticate
// the session (spec.md section 4.3).
func (m *Manager) ToAdmin(msg *quickfix.Message, sessionID quickfix.SessionID) {
	m.stampTargetSubID(msg)

	msgType, _ := msg.Header.GetString(brokertags.TagMsgType)
	if msgType == brokertags.MsgTypeLogon {
		if m.username != "" {
			msg.Body.SetField(brokertags.TagUsername, quickfix.FIXString(m.username))
		}
		if m.password != "" {
			msg.Body.SetField(brokertags.TagPassword, quickfix.FIXString(m.password))
		}
	}
}

// ToApp stamps TargetSubID on outbound application messages.
func (m *Manager) ToApp(msg *quickfix.Message, sessionID quickfix.SessionID) error {
	m.stampTargetSubID(msg)
	return nil
}

func (m *Manager) stampTargetSubID(msg *quickfix.Message) {
	if m.targetSubID == "" {
		return
	}
	msg.Header.SetField(brokertags.TagTargetSubID, quickfix.FIXString(m.targetSubID))
}

// FromApp forwards every application-level message to the configured
// handler (internal/dispatcher).
func (m *Manager) FromApp(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	if m.handler == nil {
		return nil
	}
	return m.handler.HandleAppMessage(msg, sessionID)
}
