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

// Package sequencestore holds the persistent monotonic counters the session
// state machine and request factory depend on: per-session inbound/outbound
// sequence numbers, a durable client-order-id counter, and an ephemeral
// client-request-id counter. Everything is serialized under one mutex —
// these counters are touched far less often than the hot tick path, so a
// single lock keeps the bookkeeping simple without becoming a bottleneck.
package sequencestore

import (
	"database/sql"
	"fmt"
	"strconv"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// Role identifies one of the two logical FIX sessions.
type Role string

const (
	RoleMarket Role = "market"
	RoleOrder  Role = "order"
)

const initialOrderID = 1

// Store is the durable+ephemeral counter set described in spec.md C1. The
// order-id counter survives restarts via a small SQLite-backed key/value
// table; inbound/outbound sequence numbers are tracked in memory only. They
// are not written to the table and start again from their initial values
// (expected inbound 1, last outbound 0) on every Open.
type Store struct {
	mu sync.Mutex

	db *sql.DB

	requestID int // ephemeral, resets to 0 each run
	orderID   int // durable

	inboundExpected  map[Role]int
	outboundLast     map[Role]int

	log *logrus.Entry
}

// Open loads (or creates) the durable counter file at dbPath and restores
// the order-id counter from it. A missing or unparseable file is not fatal:
// the store starts from 1 and logs a warning, matching the C++ original's
// RequestId::restore() behavior of tolerating a missing orderid.txt.
func Open(dbPath string, log *logrus.Entry) (*Store, error) {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	log = log.WithField("component", "sequence_store")

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("sequencestore: open %s: %w", dbPath, err)
	}

	s := &Store{
		db:              db,
		requestID:       0,
		inboundExpected: map[Role]int{RoleMarket: 1, RoleOrder: 1},
		outboundLast:    map[Role]int{RoleMarket: 0, RoleOrder: 0},
		log:             log,
	}

	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sequencestore: init schema: %w", err)
	}

	orderID, err := s.restoreOrderID()
	if err != nil {
		log.WithError(err).Warn("order id counter unreadable, starting from 1")
		orderID = initialOrderID
	}
	s.orderID = orderID

	return s, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS counters (
		name  TEXT PRIMARY KEY,
		value INTEGER NOT NULL
	)`)
	return err
}

func (s *Store) restoreOrderID() (int, error) {
	var raw string
	err := s.db.QueryRow(`SELECT value FROM counters WHERE name = 'order_id'`).Scan(&raw)
	if err == sql.ErrNoRows {
		return initialOrderID, nil
	}
	if err != nil {
		return initialOrderID, err
	}
	n, convErr := strconv.Atoi(raw)
	if convErr != nil {
		return initialOrderID, convErr
	}
	return n, nil
}

func (s *Store) persistOrderID() {
	_, err := s.db.Exec(`INSERT INTO counters(name, value) VALUES('order_id', ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value`, s.orderID)
	if err != nil {
		s.log.WithError(err).Error("failed to persist order id counter")
	}
}

// NextRequestID returns the next client-request id. It is purely in-memory
// and resets to 1 at process start — spec.md C1 names this counter ephemeral.
func (s *Store) NextRequestID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requestID++
	return strconv.Itoa(s.requestID)
}

// NextOrderID returns the next client-order id and flushes it to the
// durable table before returning, so a crash immediately after never loses
// the increment.
func (s *Store) NextOrderID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orderID++
	s.persistOrderID()
	return strconv.Itoa(s.orderID)
}

// CurrentOrderID returns the last-issued client-order id without advancing it.
func (s *Store) CurrentOrderID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strconv.Itoa(s.orderID)
}

// resetInbound, expectedInbound, bumpInbound and bumpOutbound are unexported:
// quickfixgo's own SessionID/message-store machinery owns wire-level
// inbound/outbound sequencing for both FIX sessions, so nothing outside this
// package (and its tests) drives these counters today. They stay as internal
// bookkeeping rather than public API until something other than quickfixgo
// needs to read or steer them.

// resetInbound rolls a session's expected inbound sequence number, used on
// sequence-reset processing (MsgSeqNum < expected treated as a reset candidate).
func (s *Store) resetInbound(role Role, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inboundExpected[role] = n
}

// expectedInbound returns the sequence number expected next for role.
func (s *Store) expectedInbound(role Role) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inboundExpected[role]
}

// bumpInbound advances the expected inbound sequence number by one, called
// after a message at exactly the expected number has been delivered.
func (s *Store) bumpInbound(role Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inboundExpected[role]++
}

// bumpOutbound assigns and returns the next outbound sequence number for
// role, one higher than the last one assigned.
func (s *Store) bumpOutbound(role Role) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outboundLast[role]++
	return s.outboundLast[role]
}

// OutboundLast returns the last-assigned outbound sequence number for role.
func (s *Store) OutboundLast(role Role) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outboundLast[role]
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
