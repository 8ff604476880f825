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

// Package dispatcher is the inbound application-message decision table: it
// takes every FIX message the session hands it and updates the state cache,
// recomputes account P&L, and notifies the strategy dispatcher. Its only
// outbound traffic is two follow-up requests built by requestfactory (a
// CollateralInquiry after TradingSessionStatus, an OrderMassStatusRequest
// after a new PositionReport); it holds no session-lifecycle logic — that's
// session's job.
package dispatcher

import (
	"sync"
	"time"

	"github.com/quickfixgo/quickfix"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/fxrenko/engine/internal/brokertags"
	"github.com/fxrenko/engine/internal/fixcodec"
	"github.com/fxrenko/engine/internal/requestfactory"
	"github.com/fxrenko/engine/internal/sequencestore"
	"github.com/fxrenko/engine/internal/session"
	"github.com/fxrenko/engine/internal/statecache"
	"github.com/fxrenko/engine/internal/strategy"
)

// pendingTTL bounds how long an execution report referencing an unknown
// position is held before being dropped (spec.md section 5): a
// PositionReport for it may simply not have arrived yet.
const pendingTTL = 60 * time.Second

type pendingExec struct {
	posID     string
	status    string
	expiresAt time.Time
}

// Dispatcher implements session.AppMessageHandler.
type Dispatcher struct {
	cache      *statecache.Cache
	strategies *strategy.Dispatcher
	seq        *sequencestore.Store
	session    *session.Manager

	mu      sync.Mutex
	pending map[string]pendingExec

	log *logrus.Entry
}

// New creates a Dispatcher wired to cache, strategies, and the sequence
// store it needs to tag follow-up requests (CollateralInquiry,
// OrderMassStatusRequest) with a request id. strategies may be nil if no
// strategy layer is wired up yet (e.g. during early bring-up).
func New(cache *statecache.Cache, strategies *strategy.Dispatcher, seq *sequencestore.Store, log *logrus.Entry) *Dispatcher {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Dispatcher{
		cache:      cache,
		strategies: strategies,
		seq:        seq,
		pending:    make(map[string]pendingExec),
		log:        log.WithField("component", "dispatcher"),
	}
}

// SetStrategies wires the strategy dispatcher in after construction, for
// callers whose strategy layer depends on something this Dispatcher itself
// is a constructor argument for (the order client needs the session, which
// needs this Dispatcher).
func (d *Dispatcher) SetStrategies(s *strategy.Dispatcher) {
	d.strategies = s
}

// SetSession wires the session manager in after construction: the manager
// needs this Dispatcher as its AppMessageHandler before it can itself exist,
// so it can't be a New() constructor argument.
func (d *Dispatcher) SetSession(mgr *session.Manager) {
	d.session = mgr
}

// HandleAppMessage is the single entry point session.Manager calls for
// every application-level inbound message.
func (d *Dispatcher) HandleAppMessage(msg *quickfix.Message, sessionID quickfix.SessionID) quickfix.MessageRejectError {
	msgType, err := msg.Header.GetString(brokertags.TagMsgType)
	if err != nil {
		return nil
	}

	switch msgType {
	case brokertags.MsgTypeTradingSessionStatus:
		d.handleTradingSessionStatus(msg)
	case brokertags.MsgTypeCollateralReport, brokertags.MsgTypeCollateralInquiryAck:
		d.handleCollateralReport(msg)
	case brokertags.MsgTypeRequestForPositionsAck:
		d.handleRequestForPositionsAck(msg)
	case brokertags.MsgTypePositionReport:
		d.handlePositionReport(msg)
	case brokertags.MsgTypeExecutionReport:
		d.handleExecutionReport(msg)
	case brokertags.MsgTypeMarketDataSnapshot, brokertags.MsgTypeMarketDataIncremental:
		d.handleMarketData(msg)
	case brokertags.MsgTypeMarketDataRequestReject:
		d.handleMarketDataReject(msg)
	case brokertags.MsgTypeAllocationReport, brokertags.MsgTypeAllocationReportAck:
		d.handleAllocationPassthrough(msg, msgType)
	default:
		d.log.WithField("msg_type", msgType).Debug("unhandled application message type")
	}
	return nil
}

// handleTradingSessionStatus processes the embedded SecurityList and
// FXCM system parameters TradingSessionStatus carries, then requests
// account collateral the way the broker source's queryAccounts() does right
// after onMessage(TradingSessionStatus) (FIXManager.cpp).
func (d *Dispatcher) handleTradingSessionStatus(msg *quickfix.Message) {
	status := fixcodec.GetString(&msg.Body, brokertags.TagTradSesStatus)
	open := status == "2" // 2 = open, per the broker's TradSesStatus convention
	d.cache.SetTradingStatus(open)

	if n, _ := fixcodec.GetInt(&msg.Body, brokertags.TagNoRelatedSym); n > 0 {
		group := quickfix.NewRepeatingGroup(
			brokertags.TagNoRelatedSym,
			quickfix.GroupTemplate{
				quickfix.GroupElement(brokertags.TagSymbol),
				quickfix.GroupElement(brokertags.TagCurrency),
				quickfix.GroupElement(brokertags.TagFactor),
				quickfix.GroupElement(brokertags.TagContractMultiplier),
				quickfix.GroupElement(brokertags.TagProduct),
				quickfix.GroupElement(brokertags.TagRoundLot),
				quickfix.GroupElement(brokertags.TagFXCMSymID),
				quickfix.GroupElement(brokertags.TagFXCMSymPrecision),
				quickfix.GroupElement(brokertags.TagFXCMSymPointSize),
				quickfix.GroupElement(brokertags.TagFXCMSymInterestBuy),
				quickfix.GroupElement(brokertags.TagFXCMSymInterestSell),
				quickfix.GroupElement(brokertags.TagFXCMSymSortOrder),
				quickfix.GroupElement(brokertags.TagFXCMSubscriptionStatus),
				quickfix.GroupElement(brokertags.TagFXCMTradingStatus),
				quickfix.GroupElement(brokertags.TagFXCMMinQuantity),
				quickfix.GroupElement(brokertags.TagFXCMMaxQuantity),
			},
		)
		if err := msg.Body.GetGroup(group); err == nil {
			for i := 0; i < group.Len(); i++ {
				d.cache.PutInstrument(buildInstrument(group.Get(i)))
			}
		}
	}

	if n, _ := fixcodec.GetInt(&msg.Body, brokertags.TagFXCMNoParams); n > 0 {
		group := quickfix.NewRepeatingGroup(
			brokertags.TagFXCMNoParams,
			quickfix.GroupTemplate{
				quickfix.GroupElement(brokertags.TagFXCMParamName),
				quickfix.GroupElement(brokertags.TagFXCMParamValue),
			},
		)
		if err := msg.Body.GetGroup(group); err == nil {
			for i := 0; i < group.Len(); i++ {
				row := group.Get(i)
				name := fixcodec.GetString(row, brokertags.TagFXCMParamName)
				value := fixcodec.GetString(row, brokertags.TagFXCMParamValue)
				if name != "" {
					d.cache.PutParam(name, value)
				}
			}
		}
	}

	if d.strategies != nil {
		d.strategies.DispatchRequestAck("trading_session_status", status)
	}

	d.sendCollateralInquiry()
}

// buildInstrument converts one TradingSessionStatus SecurityList NoRelatedSym
// row into an Instrument, grounded on FIXManager::onMessage(TradingSessionStatus)'s
// MarketDetail population.
func buildInstrument(row *quickfix.FieldMap) *statecache.Instrument {
	symbol := fixcodec.GetString(row, brokertags.TagSymbol)
	base, quote, _ := statecache.SplitSymbol(symbol)
	if c := fixcodec.GetString(row, brokertags.TagCurrency); c != "" {
		quote = c
	}
	precision, _ := fixcodec.GetInt(row, brokertags.TagFXCMSymPrecision)
	pointSize, _ := fixcodec.GetDecimal(row, brokertags.TagFXCMSymPointSize)
	contractMultiplier, _ := fixcodec.GetDecimal(row, brokertags.TagContractMultiplier)
	roundLot, _ := fixcodec.GetDecimal(row, brokertags.TagRoundLot)
	minQty, _ := fixcodec.GetDecimal(row, brokertags.TagFXCMMinQuantity)
	maxQty, _ := fixcodec.GetDecimal(row, brokertags.TagFXCMMaxQuantity)
	interestBuy, _ := fixcodec.GetDecimal(row, brokertags.TagFXCMSymInterestBuy)
	interestSell, _ := fixcodec.GetDecimal(row, brokertags.TagFXCMSymInterestSell)
	sortOrder, _ := fixcodec.GetInt(row, brokertags.TagFXCMSymSortOrder)

	return &statecache.Instrument{
		Symbol:             symbol,
		BaseCurrency:       base,
		QuoteCurrency:      quote,
		PricePrecision:     precision,
		PointSize:          pointSize,
		RoundLotSize:       roundLot,
		MinOrderQty:        minQty,
		MaxOrderQty:        maxQty,
		ContractMultiplier: contractMultiplier,
		Product:            productFromFIX(fixcodec.GetString(row, brokertags.TagProduct)),
		SubscriptionOpen:   fixcodec.GetString(row, brokertags.TagFXCMSubscriptionStatus) == "1",
		TradingOpen:        fixcodec.GetString(row, brokertags.TagFXCMTradingStatus) == "1",
		InterestBuy:        interestBuy,
		InterestSell:       interestSell,
		SortOrder:          sortOrder,
	}
}

// productFromFIX maps the standard FIX Product(460) enumeration onto the
// three product classes the engine cares about, defaulting to currency (the
// FXCM security list is overwhelmingly FX pairs).
func productFromFIX(v string) statecache.ProductClass {
	switch v {
	case "7":
		return statecache.ProductIndex
	case "2":
		return statecache.ProductCommodity
	default:
		return statecache.ProductCurrency
	}
}

// sendCollateralInquiry issues the follow-up CollateralInquiry spec.md
// section 4.5 requires after TradingSessionStatus (FIXManager::queryAccounts).
// No specific account is named: the broker replies with one CollateralReport
// per account under the login.
func (d *Dispatcher) sendCollateralInquiry() {
	if d.seq == nil || d.session == nil {
		return
	}
	msg := requestfactory.CollateralInquiry(d.seq.NextRequestID(), "")
	if err := quickfix.SendToTarget(msg, d.session.SessionID()); err != nil {
		d.log.WithError(err).Error("failed to send collateral inquiry")
	}
}

// handleCollateralReport applies one account's balance/margin snapshot,
// including the NoPartyIDs/NoPartySubIDs group the broker uses to carry
// hedging flag, securities account id, and account holder name, and
// derives MMR the way Account::getMMR does in the broker source.
func (d *Dispatcher) handleCollateralReport(msg *quickfix.Message) {
	accountID := fixcodec.GetString(&msg.Body, brokertags.TagAccount)
	balance, _ := fixcodec.GetDecimal(&msg.Body, brokertags.TagCashOutstanding)
	usedMargin, _ := fixcodec.GetDecimal(&msg.Body, brokertags.TagFXCMUsedMargin)
	marginRatio, _ := fixcodec.GetDecimal(&msg.Body, brokertags.TagMarginRatio)
	minTradeSize, _ := fixcodec.GetDecimal(&msg.Body, brokertags.TagQuantity)

	existing := d.cache.Account(accountID)
	acct := statecache.Account{AccountID: accountID}
	if existing != nil {
		acct = *existing
	}
	acct.AccountID = accountID
	if !balance.IsZero() {
		acct.Balance = balance
	}
	acct.UsedMargin = usedMargin
	acct.MarginRatio = marginRatio
	acct.MinTradeSize = minTradeSize
	acct.Currency = d.cache.Param(brokertags.ParamBaseCurrency)

	if n, _ := fixcodec.GetInt(&msg.Body, brokertags.TagNoPartyIDs); n > 0 {
		group := quickfix.NewRepeatingGroup(
			brokertags.TagNoPartyIDs,
			quickfix.GroupTemplate{
				quickfix.GroupElement(brokertags.TagPartyID),
				quickfix.GroupElement(brokertags.TagPartyIDSource),
				quickfix.GroupElement(brokertags.TagPartyRole),
				quickfix.GroupElement(brokertags.TagNoPartySubIDs),
			},
		)
		if err := msg.Body.GetGroup(group); err == nil {
			for i := 0; i < group.Len(); i++ {
				applyPartySubIDs(group.Get(i), &acct)
			}
		}
	}

	acct.MMR = strategy.MMR(acct.MarginRatio, acct.ContractSize)
	d.recomputeAccount(&acct)
	d.cache.PutAccount(&acct)

	if d.strategies != nil {
		d.strategies.DispatchAccountChange(acct)
	}
}

// applyPartySubIDs reads one CollateralReport NoPartyIDs row's nested
// NoPartySubIDs group for the hedging flag (sub-type 4000), securities
// account id (sub-type 2), and account holder name (sub-type 22) -
// FIXManager::onMessage(CollateralReport)'s NoPartyIDs walk.
func applyPartySubIDs(row *quickfix.FieldMap, acct *statecache.Account) {
	subGroup := quickfix.NewRepeatingGroup(
		brokertags.TagNoPartySubIDs,
		quickfix.GroupTemplate{
			quickfix.GroupElement(brokertags.TagPartySubID),
			quickfix.GroupElement(brokertags.TagPartySubIDType),
		},
	)
	if err := row.GetGroup(subGroup); err != nil {
		return
	}
	for i := 0; i < subGroup.Len(); i++ {
		sub := subGroup.Get(i)
		subType := fixcodec.GetString(sub, brokertags.TagPartySubIDType)
		subValue := fixcodec.GetString(sub, brokertags.TagPartySubID)
		switch subType {
		case brokertags.PartySubIDTypeHedging:
			acct.Hedging = subValue != "0"
		case brokertags.PartySubIDTypeSecuritiesAccountNumber:
			acct.SecuritiesAccountID = subValue
		case brokertags.PartySubIDTypeUserName:
			acct.Person = subValue
		}
	}
}

func (d *Dispatcher) handleRequestForPositionsAck(msg *quickfix.Message) {
	result := fixcodec.GetString(&msg.Body, brokertags.TagPosReqResult)
	if result == brokertags.PosReqResultNoPositions {
		accountID := fixcodec.GetString(&msg.Body, brokertags.TagAccount)
		d.cache.ClearPositionsForAccount(accountID)
	}
	if d.strategies != nil {
		d.strategies.DispatchRequestAck("request_for_positions_ack", result)
	}
}

func (d *Dispatcher) handlePositionReport(msg *quickfix.Message) {
	posID := fixcodec.GetString(&msg.Body, brokertags.TagFXCMPosID)
	if posID == "" {
		return
	}
	symbol := fixcodec.GetString(&msg.Body, brokertags.TagSymbol)
	accountID := fixcodec.GetString(&msg.Body, brokertags.TagAccount)
	longQty, _ := fixcodec.GetDecimal(&msg.Body, brokertags.TagLongQty)
	shortQty, _ := fixcodec.GetDecimal(&msg.Body, brokertags.TagShortQty)
	settlPx, _ := fixcodec.GetDecimal(&msg.Body, brokertags.TagSettlPrice)

	side := statecache.SideBuy
	qty := longQty
	if shortQty.GreaterThan(decimal.Zero) {
		side = statecache.SideSell
		qty = shortQty
	}

	pos := statecache.Position{
		PosID:       posID,
		AccountID:   accountID,
		Symbol:      symbol,
		Side:        side,
		Qty:         qty,
		EntryPrice:  settlPx,
		SendingTime: time.Now().UTC(),
	}

	if existing := d.cache.Position(posID); existing != nil {
		if d.cache.UpdatePosition(posID, func(p *statecache.Position) {
			p.Qty = qty
			p.EntryPrice = settlPx
		}) {
			d.notifyPositionChange(posID, "updated")
			return
		}
	}

	if d.cache.InsertPosition(&pos) {
		d.notifyPositionChange(posID, "opened")
		d.resolvePending(posID)
		d.requestOrderMassStatus(accountID)
	}
}

// requestOrderMassStatus asks the broker to replay every open order's
// current status for account, the way FIXManager::queryOrderMassStatus is
// called right after a PositionReport is processed - it's how stop/take
// prices on a freshly-opened position get backfilled via ExecutionReport's
// OrderStatus rows.
func (d *Dispatcher) requestOrderMassStatus(accountID string) {
	if d.seq == nil || d.session == nil {
		return
	}
	msg := requestfactory.OrderMassStatusRequest(d.seq.NextRequestID(), accountID)
	if err := quickfix.SendToTarget(msg, d.session.SessionID()); err != nil {
		d.log.WithError(err).Error("failed to send order mass status request")
	}
}

// handleExecutionReport applies one of the six ExecType x OrdStatus x OrdType
// rows FIXManager::onMessage(ExecutionReport) handles. ExecType alone isn't
// enough to tell a pending-order backfill from a fill from a cancel; all
// three fields together select the row.
func (d *Dispatcher) handleExecutionReport(msg *quickfix.Message) {
	execType := fixcodec.GetString(&msg.Body, brokertags.TagExecType)
	ordStatus := fixcodec.GetString(&msg.Body, brokertags.TagOrdStatus)
	ordType := fixcodec.GetString(&msg.Body, brokertags.TagOrdType)
	posID := fixcodec.GetString(&msg.Body, brokertags.TagFXCMPosID)

	if execType == brokertags.ExecTypeRejected {
		text := fixcodec.GetString(&msg.Body, brokertags.TagText)
		if d.strategies != nil {
			d.strategies.DispatchRequestAck("order_rejected", text)
		}
		return
	}

	if posID == "" {
		return
	}

	switch {
	// Row 1/2: OrderStatus backfill for a still-open pending order -
	// record its stop/take price, don't touch positions yet.
	case execType == brokertags.ExecTypeOrderStatus && ordStatus == brokertags.OrdStatusNew &&
		(ordType == brokertags.OrdTypeLimit || ordType == brokertags.OrdTypeStop):
		d.applyOrderStatusBackfill(msg, posID, ordType)

	// Row 3: a market order fill opens a position.
	case execType == brokertags.ExecTypeTrade && ordStatus == brokertags.OrdStatusFilled && ordType == brokertags.OrdTypeMarket:
		d.openPositionFromFill(msg, posID)

	// Row 4/5: a limit (take-profit) or stop (stop-loss) fill closes the
	// position it belonged to.
	case execType == brokertags.ExecTypeTrade && ordStatus == brokertags.OrdStatusFilled &&
		(ordType == brokertags.OrdTypeLimit || ordType == brokertags.OrdTypeStop):
		d.closePosition(posID, "filled")

	// Row 6: an explicit cancel removes the position.
	case execType == brokertags.ExecTypeCanceled && ordStatus == brokertags.OrdStatusCanceled:
		d.closePosition(posID, "canceled")

	default:
		if d.cache.Position(posID) == nil {
			d.stashPending(posID, ordStatus)
		}
	}
}

// applyOrderStatusBackfill sets the stop or take price on an order the
// broker is reporting back via OrderMassStatusRequest, mirroring
// MarketOrder::setTakePrice/setStopPrice in updateMarketOrder. If the
// position isn't cached yet, only a pending entry with status New is
// stashed; this report's price and quantity are not kept, so when the
// position is later created it does not receive them.
func (d *Dispatcher) applyOrderStatusBackfill(msg *quickfix.Message, posID, ordType string) {
	price, _ := fixcodec.GetDecimal(&msg.Body, brokertags.TagPrice)
	qty, _ := fixcodec.GetDecimal(&msg.Body, brokertags.TagOrderQty)

	updated := d.cache.UpdatePosition(posID, func(p *statecache.Position) {
		p.Qty = qty
		if ordType == brokertags.OrdTypeLimit {
			p.TakePrice = price
			p.HasTake = true
		} else {
			p.StopPrice = price
			p.HasStop = true
		}
	})
	if !updated {
		d.stashPending(posID, brokertags.OrdStatusNew)
		return
	}
	d.notifyPositionChange(posID, "updated")
}

// openPositionFromFill inserts a new position from a Trade/Filled/Market
// execution report, the engine's own market order landing - FIXManager's
// addMarketOrder(marketOrder).
func (d *Dispatcher) openPositionFromFill(msg *quickfix.Message, posID string) {
	symbol := fixcodec.GetString(&msg.Body, brokertags.TagSymbol)
	accountID := fixcodec.GetString(&msg.Body, brokertags.TagAccount)
	clOrdID := fixcodec.GetString(&msg.Body, brokertags.TagClOrdID)
	orderID := fixcodec.GetString(&msg.Body, brokertags.TagOrderID)
	lastPx, _ := fixcodec.GetDecimal(&msg.Body, brokertags.TagLastPx)
	lastQty, _ := fixcodec.GetDecimal(&msg.Body, brokertags.TagLastQty)

	side := statecache.SideBuy
	if fixcodec.GetString(&msg.Body, brokertags.TagSide) == brokertags.SideSell {
		side = statecache.SideSell
	}

	pos := statecache.Position{
		PosID:       posID,
		ClOrdID:     clOrdID,
		OrderID:     orderID,
		AccountID:   accountID,
		Symbol:      symbol,
		Side:        side,
		Qty:         lastQty,
		EntryPrice:  lastPx,
		SendingTime: time.Now().UTC(),
	}
	if d.cache.InsertPosition(&pos) {
		d.notifyPositionChange(posID, "opened")
		d.resolvePending(posID)
	}
}

// closePosition removes a position and notifies strategies with the state it
// held immediately before removal - capturing the copy before RemovePosition
// avoids handing DispatchPositionChange a position that's already gone from
// the cache.
func (d *Dispatcher) closePosition(posID, status string) {
	pos := d.cache.Position(posID)
	if pos == nil {
		return
	}
	captured := *pos
	d.cache.RemovePosition(posID)
	if d.strategies != nil {
		d.strategies.DispatchPositionChange(captured, status)
	}
}

func (d *Dispatcher) handleMarketData(msg *quickfix.Message) {
	symbol := fixcodec.GetString(&msg.Body, brokertags.TagSymbol)
	if symbol == "" {
		return
	}

	n, _ := fixcodec.GetInt(&msg.Body, brokertags.TagNoMdEntries)
	if n == 0 {
		return
	}

	group := quickfix.NewRepeatingGroup(
		brokertags.TagNoMdEntries,
		quickfix.GroupTemplate{
			quickfix.GroupElement(brokertags.TagMdEntryType),
			quickfix.GroupElement(brokertags.TagMdEntryPx),
		},
	)
	if err := msg.Body.GetGroup(group); err != nil {
		return
	}

	existing := d.cache.LatestTick(symbol)
	tick := statecache.Tick{Symbol: symbol, SendingTime: time.Now().UTC()}
	if existing != nil {
		tick = *existing
		tick.Symbol = symbol
	}

	for i := 0; i < group.Len(); i++ {
		row := group.Get(i)
		entryType := fixcodec.GetString(row, brokertags.TagMdEntryType)
		px, _ := fixcodec.GetDecimal(row, brokertags.TagMdEntryPx)
		switch entryType {
		case brokertags.MdEntryTypeBid:
			tick.Bid = px
		case brokertags.MdEntryTypeOffer:
			tick.Ask = px
		case brokertags.MdEntryTypeSessionHigh:
			tick.SessionHigh = px
		case brokertags.MdEntryTypeSessionLow:
			tick.SessionLow = px
		}
	}

	d.cache.PutTick(&tick)
	d.recomputePositionsForSymbol(symbol, tick)

	if d.strategies != nil {
		d.strategies.DispatchTick(tick)
	}
}

func (d *Dispatcher) handleMarketDataReject(msg *quickfix.Message) {
	reqID := fixcodec.GetString(&msg.Body, brokertags.TagMdReqID)
	reason := fixcodec.GetString(&msg.Body, brokertags.TagMdReqRejReason)
	d.log.WithFields(logrus.Fields{"req_id": reqID, "reason": reason}).Warn("market data request rejected")
	if d.strategies != nil {
		d.strategies.DispatchRequestAck("market_data_reject", reason)
	}
}

func (d *Dispatcher) handleAllocationPassthrough(msg *quickfix.Message, msgType string) {
	text := fixcodec.GetString(&msg.Body, brokertags.TagText)
	if d.strategies != nil {
		d.strategies.DispatchRequestAck("allocation:"+msgType, text)
	}
}

// recomputePositionsForSymbol walks every cached position on symbol and
// recomputes its unrealized P&L against the new tick (bid for longs, ask for
// shorts), then recomputes the owning account's equity/free-margin/
// margin-ratio and sends strategies an account change. ProfitLoss is called
// with a zero conversion rate, so P&L is not converted into the account
// currency, and no per-position change notification is sent from here.
func (d *Dispatcher) recomputePositionsForSymbol(symbol string, tick statecache.Tick) {
	positions := d.cache.PositionsBySymbol(symbol)
	if len(positions) == 0 {
		return
	}

	affectedAccounts := make(map[string]bool)
	for _, pos := range positions {
		valuationPrice := tick.Bid
		isLong := pos.Side == statecache.SideBuy
		if !isLong {
			valuationPrice = tick.Ask
		}

		instr := d.cache.Instrument(symbol)
		pointSize := decimal.Zero
		if instr != nil {
			pointSize = instr.PointSize
		}

		pnl := strategy.ProfitLoss(pos.EntryPrice, valuationPrice, pointSize, pos.Qty, decimal.Zero, isLong)
		d.cache.UpdatePosition(pos.PosID, func(p *statecache.Position) {
			p.ProfitLoss = pnl
		})
		affectedAccounts[pos.AccountID] = true
	}

	for accountID := range affectedAccounts {
		acct := d.cache.Account(accountID)
		if acct == nil {
			continue
		}
		a := *acct
		d.recomputeAccount(&a)
		d.cache.PutAccount(&a)
		if d.strategies != nil {
			d.strategies.DispatchAccountChange(a)
		}
	}
}

// recomputeAccount fills Equity/FreeMargin/ComputedMarginPct from the
// account's currently cached open positions.
func (d *Dispatcher) recomputeAccount(acct *statecache.Account) {
	positions := d.cache.AllPositions()
	var pnls []decimal.Decimal
	for _, p := range positions {
		if p.AccountID == acct.AccountID {
			pnls = append(pnls, p.ProfitLoss)
		}
	}
	acct.Equity = strategy.Equity(acct.Balance, pnls)
	acct.FreeMargin = strategy.FreeMargin(acct.Equity, acct.UsedMargin)
	acct.ComputedMarginPct = strategy.MarginRatioPct(acct.Equity, acct.UsedMargin)
}

func (d *Dispatcher) notifyPositionChange(posID, status string) {
	pos := d.cache.Position(posID)
	if pos == nil || d.strategies == nil {
		return
	}
	d.strategies.DispatchPositionChange(*pos, status)
}

func (d *Dispatcher) stashPending(posID, status string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending[posID] = pendingExec{posID: posID, status: status, expiresAt: time.Now().Add(pendingTTL)}
	d.evictExpiredLocked()
}

func (d *Dispatcher) resolvePending(posID string) {
	d.mu.Lock()
	p, ok := d.pending[posID]
	if ok {
		delete(d.pending, posID)
		ok = !time.Now().After(p.expiresAt)
	}
	d.mu.Unlock()
	if ok {
		d.notifyPositionChange(posID, p.status)
	}
}

func (d *Dispatcher) evictExpiredLocked() {
	now := time.Now()
	for id, p := range d.pending {
		if now.After(p.expiresAt) {
			delete(d.pending, id)
		}
	}
}
