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

// Package requestfactory builds outbound FIX messages. Every builder is a
// pure function: given parameters, it returns a *quickfix.Message (or an
// ArgumentError if a required field is missing) and has no side effects on
// session or counter state — sequencing and sending are the session's job.
package requestfactory

import (
	"fmt"
	"time"

	"github.com/quickfixgo/quickfix"
	"github.com/shopspring/decimal"

	"github.com/fxrenko/engine/internal/brokertags"
	"github.com/fxrenko/engine/internal/statecache"
)

// ArgumentError reports a missing or invalid required field, grounded on
// the broker source's FIXFactory empty-argument guard.
type ArgumentError struct {
	Field string
	Msg   string
}

func (e *ArgumentError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("requestfactory: %s: %s", e.Field, e.Msg)
	}
	return fmt.Sprintf("requestfactory: %s is required", e.Field)
}

type fieldSetter interface {
	SetField(tag quickfix.Tag, field quickfix.FieldValueWriter) *quickfix.FieldMap
}

func setString(fs fieldSetter, tag quickfix.Tag, value string) {
	fs.SetField(tag, quickfix.FIXString(value))
}

func setDecimal(fs fieldSetter, tag quickfix.Tag, value decimal.Decimal) {
	fs.SetField(tag, quickfix.FIXString(value.String()))
}

func buildHeader(header *quickfix.Header, msgType string) {
	setString(header, brokertags.TagMsgType, msgType)
	setString(header, brokertags.TagSendingTime, time.Now().UTC().Format(brokertags.FixTimeFormat))
}

// TradingSessionStatusRequest builds a g message polling the FXCM trading
// session's open/closed state.
func TradingSessionStatusRequest(reqID string) *quickfix.Message {
	m := quickfix.NewMessage()
	buildHeader(&m.Header, brokertags.MsgTypeTradingSessionStatusRequest)
	setString(&m.Body, brokertags.TagTradSesReqID, reqID)
	setString(&m.Body, brokertags.TagTradingSessionID, brokertags.TradingSessionFXCM)
	setString(&m.Body, brokertags.TagSubscriptionRequestType, brokertags.SubscriptionRequestTypeSnapshotAndUpdates)
	return m
}

// CollateralInquiry builds a collateral/account-balance inquiry (message
// type BB).
func CollateralInquiry(reqID, accountID string) *quickfix.Message {
	m := quickfix.NewMessage()
	buildHeader(&m.Header, brokertags.MsgTypeCollateralInquiry)
	setString(&m.Body, brokertags.TagCollInquiryID, reqID)
	setString(&m.Body, brokertags.TagAccount, accountID)
	setString(&m.Body, brokertags.TagSubscriptionRequestType, brokertags.SubscriptionRequestTypeSnapshotAndUpdates)
	return m
}

// MarketDataRequest builds a V message subscribing to bid/ask for symbol.
// When accountCcy doesn't match symbol's quote currency, the caller should
// also issue a second request for statecache.CounterPair(symbol, accountCcy)
// to obtain a conversion rate — this builder only emits the one request.
func MarketDataRequest(reqID, symbol string, subscribe bool) (*quickfix.Message, error) {
	if symbol == "" {
		return nil, &ArgumentError{Field: "symbol"}
	}
	m := quickfix.NewMessage()
	buildHeader(&m.Header, brokertags.MsgTypeMarketDataRequest)
	setString(&m.Body, brokertags.TagMdReqID, reqID)
	if subscribe {
		setString(&m.Body, brokertags.TagSubscriptionRequestType, brokertags.SubscriptionRequestTypeSnapshotAndUpdates)
	} else {
		setString(&m.Body, brokertags.TagSubscriptionRequestType, brokertags.SubscriptionRequestTypeDisable)
	}
	setString(&m.Body, brokertags.TagMarketDepth, "1")
	setString(&m.Body, brokertags.TagMDUpdateType, brokertags.MdUpdateTypeFullRefresh)

	entryGroup := quickfix.NewRepeatingGroup(
		brokertags.TagNoMdEntryTypes,
		quickfix.GroupTemplate{quickfix.GroupElement(brokertags.TagMdEntryType)},
	)
	setString(entryGroup.Add(), brokertags.TagMdEntryType, brokertags.MdEntryTypeBid)
	setString(entryGroup.Add(), brokertags.TagMdEntryType, brokertags.MdEntryTypeOffer)
	m.Body.SetGroup(entryGroup)

	symGroup := quickfix.NewRepeatingGroup(
		brokertags.TagNoRelatedSym,
		quickfix.GroupTemplate{quickfix.GroupElement(brokertags.TagSymbol)},
	)
	setString(symGroup.Add(), brokertags.TagSymbol, symbol)
	m.Body.SetGroup(symGroup)

	return m, nil
}

// OrderParams are the fields shared by market, limit, and stop variants of
// NewOrderSingle.
type OrderParams struct {
	ClOrdID   string
	Account   string
	Symbol    string
	Side      statecache.Side
	OrdType   string // brokertags.OrdType*
	Qty       decimal.Decimal
	Price     decimal.Decimal // limit orders
	StopPrice decimal.Decimal // stop orders
	TimeInForce string
}

// NewOrderSingle builds a D message. OrdType selects which of Price/
// StopPrice is required; ClOrdID, Account, Symbol, and a positive Qty are
// always required. Side is not validated: any value other than sell is sent
// as buy.
func NewOrderSingle(p OrderParams) (*quickfix.Message, error) {
	if p.ClOrdID == "" {
		return nil, &ArgumentError{Field: "ClOrdID"}
	}
	if p.Account == "" {
		return nil, &ArgumentError{Field: "Account"}
	}
	if p.Symbol == "" {
		return nil, &ArgumentError{Field: "Symbol"}
	}
	if !p.Qty.GreaterThan(decimal.Zero) {
		return nil, &ArgumentError{Field: "Qty", Msg: "must be positive"}
	}
	switch p.OrdType {
	case brokertags.OrdTypeLimit:
		if !p.Price.GreaterThan(decimal.Zero) {
			return nil, &ArgumentError{Field: "Price", Msg: "required for limit orders"}
		}
	case brokertags.OrdTypeStop:
		if !p.StopPrice.GreaterThan(decimal.Zero) {
			return nil, &ArgumentError{Field: "StopPrice", Msg: "required for stop orders"}
		}
	case brokertags.OrdTypeMarket:
		// neither required
	default:
		return nil, &ArgumentError{Field: "OrdType", Msg: "unrecognized order type " + p.OrdType}
	}

	m := quickfix.NewMessage()
	buildHeader(&m.Header, brokertags.MsgTypeNewOrderSingle)
	setString(&m.Body, brokertags.TagClOrdID, p.ClOrdID)
	setString(&m.Body, brokertags.TagAccount, p.Account)
	setString(&m.Body, brokertags.TagSymbol, p.Symbol)
	setString(&m.Body, brokertags.TagSide, sideToFIX(p.Side))
	setString(&m.Body, brokertags.TagOrdType, p.OrdType)
	setDecimal(&m.Body, brokertags.TagOrderQty, p.Qty)
	setString(&m.Body, brokertags.TagTransactTime, time.Now().UTC().Format(brokertags.FixTimeFormat))

	tif := p.TimeInForce
	if tif == "" {
		tif = brokertags.TimeInForceGTC
	}
	setString(&m.Body, brokertags.TagTimeInForce, tif)

	if p.OrdType == brokertags.OrdTypeLimit {
		setDecimal(&m.Body, brokertags.TagPrice, p.Price)
	}
	if p.OrdType == brokertags.OrdTypeStop {
		setDecimal(&m.Body, brokertags.TagStopPx, p.StopPrice)
	}
	return m, nil
}

// CloseOrderSingle builds a D message that closes an existing position by
// FXCM_POS_ID rather than opening a new one, mirroring the broker's
// position-aware close path.
func CloseOrderSingle(clOrdID, account string, pos statecache.Position) (*quickfix.Message, error) {
	if clOrdID == "" {
		return nil, &ArgumentError{Field: "ClOrdID"}
	}
	m, err := NewOrderSingle(OrderParams{
		ClOrdID:     clOrdID,
		Account:     account,
		Symbol:      pos.Symbol,
		Side:        pos.CloseSide(),
		OrdType:     brokertags.OrdTypeMarket,
		Qty:         pos.Qty,
		TimeInForce: brokertags.TimeInForceIOC,
	})
	if err != nil {
		return nil, err
	}
	setString(&m.Body, brokertags.TagFXCMPosID, pos.PosID)
	return m, nil
}

// BracketOrderList builds a NewOrderList (E) expressing an entry order plus
// stop-loss and/or take-profit contingent children, linked via
// ContingencyType=101 (ELS) and a shared ClOrdLinkID, per the broker's own
// bracket-order convention.
func BracketOrderList(listID string, entry OrderParams, stopPrice, takePrice decimal.Decimal) (*quickfix.Message, error) {
	entryMsg, err := NewOrderSingle(entry)
	if err != nil {
		return nil, err
	}
	_ = entryMsg // header/body fields below are assembled directly onto the list

	hasStop := stopPrice.GreaterThan(decimal.Zero)
	hasTake := takePrice.GreaterThan(decimal.Zero)
	if !hasStop && !hasTake {
		return nil, &ArgumentError{Field: "stopPrice/takePrice", Msg: "a bracket requires at least one contingent leg"}
	}

	m := quickfix.NewMessage()
	buildHeader(&m.Header, brokertags.MsgTypeNewOrderList)
	setString(&m.Body, brokertags.TagListID, listID)
	setString(&m.Body, brokertags.TagBidType, "3")

	childCount := 1
	if hasStop {
		childCount++
	}
	if hasTake {
		childCount++
	}
	setString(&m.Body, brokertags.TagTotNoOrders, fmt.Sprintf("%d", childCount))

	group := quickfix.NewRepeatingGroup(
		brokertags.TagNoOrders,
		quickfix.GroupTemplate{
			quickfix.GroupElement(brokertags.TagClOrdID),
			quickfix.GroupElement(brokertags.TagClOrdLinkID),
			quickfix.GroupElement(brokertags.TagAccount),
			quickfix.GroupElement(brokertags.TagSymbol),
			quickfix.GroupElement(brokertags.TagSide),
			quickfix.GroupElement(brokertags.TagOrdType),
			quickfix.GroupElement(brokertags.TagOrderQty),
			quickfix.GroupElement(brokertags.TagContingencyType),
		},
	)

	entryRow := group.Add()
	setString(entryRow, brokertags.TagClOrdID, entry.ClOrdID)
	setString(entryRow, brokertags.TagClOrdLinkID, listID)
	setString(entryRow, brokertags.TagAccount, entry.Account)
	setString(entryRow, brokertags.TagSymbol, entry.Symbol)
	setString(entryRow, brokertags.TagSide, sideToFIX(entry.Side))
	setString(entryRow, brokertags.TagOrdType, entry.OrdType)
	setDecimal(entryRow, brokertags.TagOrderQty, entry.Qty)

	closeSide := entry.Side.Opposite()
	if hasStop {
		stopRow := group.Add()
		setString(stopRow, brokertags.TagClOrdID, listID+"-SL")
		setString(stopRow, brokertags.TagClOrdLinkID, listID)
		setString(stopRow, brokertags.TagAccount, entry.Account)
		setString(stopRow, brokertags.TagSymbol, entry.Symbol)
		setString(stopRow, brokertags.TagSide, sideToFIX(closeSide))
		setString(stopRow, brokertags.TagOrdType, brokertags.OrdTypeStop)
		setDecimal(stopRow, brokertags.TagOrderQty, entry.Qty)
		setString(stopRow, brokertags.TagContingencyType, brokertags.ContingencyTypeELS)
	}
	if hasTake {
		takeRow := group.Add()
		setString(takeRow, brokertags.TagClOrdID, listID+"-TP")
		setString(takeRow, brokertags.TagClOrdLinkID, listID)
		setString(takeRow, brokertags.TagAccount, entry.Account)
		setString(takeRow, brokertags.TagSymbol, entry.Symbol)
		setString(takeRow, brokertags.TagSide, sideToFIX(closeSide))
		setString(takeRow, brokertags.TagOrdType, brokertags.OrdTypeLimit)
		setDecimal(takeRow, brokertags.TagOrderQty, entry.Qty)
		setString(takeRow, brokertags.TagContingencyType, brokertags.ContingencyTypeELS)
	}
	m.Body.SetGroup(group)

	return m, nil
}

// RequestForPositions builds an AN message asking the broker for the full
// set of open positions for account, with the NoPartyIDs/NoPartySubIDs
// group the broker requires to identify the requesting party.
func RequestForPositions(reqID, account, partyID string) (*quickfix.Message, error) {
	if account == "" {
		return nil, &ArgumentError{Field: "account"}
	}
	m := quickfix.NewMessage()
	buildHeader(&m.Header, brokertags.MsgTypeRequestForPositions)
	setString(&m.Body, brokertags.TagPosReqID, reqID)
	setString(&m.Body, brokertags.TagAccount, account)
	setString(&m.Body, brokertags.TagPosReqType, brokertags.PosReqTypePositions)
	setString(&m.Body, brokertags.TagSubscriptionRequestType, brokertags.SubscriptionRequestTypeSnapshot)
	setString(&m.Body, brokertags.TagClearingBusinessDate, time.Now().UTC().Format("20060102"))

	group := quickfix.NewRepeatingGroup(
		brokertags.TagNoPartyIDs,
		quickfix.GroupTemplate{
			quickfix.GroupElement(brokertags.TagPartyID),
			quickfix.GroupElement(brokertags.TagPartyIDSource),
			quickfix.GroupElement(brokertags.TagPartyRole),
		},
	)
	row := group.Add()
	setString(row, brokertags.TagPartyID, partyID)
	setString(row, brokertags.TagPartyIDSource, "D")
	setString(row, brokertags.TagPartyRole, brokertags.PartyRoleCustomerAccount)

	subGroup := quickfix.NewRepeatingGroup(
		brokertags.TagNoPartySubIDs,
		quickfix.GroupTemplate{
			quickfix.GroupElement(brokertags.TagPartySubID),
			quickfix.GroupElement(brokertags.TagPartySubIDType),
		},
	)
	subRow := subGroup.Add()
	setString(subRow, brokertags.TagPartySubID, account)
	setString(subRow, brokertags.TagPartySubIDType, brokertags.PartySubIDTypeSecuritiesAccountNumber)
	row.SetGroup(subGroup)
	m.Body.SetGroup(group)

	return m, nil
}

// OrderStatusRequest builds an H message polling a single order's status.
func OrderStatusRequest(clOrdID, symbol string, side statecache.Side) (*quickfix.Message, error) {
	if clOrdID == "" {
		return nil, &ArgumentError{Field: "ClOrdID"}
	}
	m := quickfix.NewMessage()
	buildHeader(&m.Header, brokertags.MsgTypeOrderStatusRequest)
	setString(&m.Body, brokertags.TagClOrdID, clOrdID)
	setString(&m.Body, brokertags.TagSymbol, symbol)
	setString(&m.Body, brokertags.TagSide, sideToFIX(side))
	return m, nil
}

// OrderMassStatusRequest builds an AF message polling every open order for
// account in one round trip.
func OrderMassStatusRequest(reqID, account string) *quickfix.Message {
	m := quickfix.NewMessage()
	buildHeader(&m.Header, brokertags.MsgTypeOrderMassStatusRequest)
	setString(&m.Body, brokertags.TagMassStatusReqID, reqID)
	setString(&m.Body, brokertags.TagMassStatusReqType, "7") // all orders
	setString(&m.Body, brokertags.TagAccount, account)
	return m
}

// OrderIntent mirrors the broker source's FIXFactory::SingleOrderType enum:
// which shape of order-entry message a call site wants built.
type OrderIntent int

const (
	IntentMarket OrderIntent = iota
	IntentStop
	IntentClose
	IntentMarketSL    // market entry + stop-loss contingent leg (ELS bracket, no take-profit)
	IntentMarketSLTP  // market entry + stop-loss + take-profit (ELS bracket)
)

// BuildNewOrderSingle dispatches to the right builder for intent, collapsing
// NewOrderSingle/CloseOrderSingle/BracketOrderList into the single-call
// convenience FIXFactory::NewOrderSingle offers over its singleOrderType
// parameter. pos is required (and only used) for IntentClose.
func BuildNewOrderSingle(intent OrderIntent, p OrderParams, pos *statecache.Position, stopPrice, takePrice decimal.Decimal) (*quickfix.Message, error) {
	switch intent {
	case IntentClose:
		if pos == nil {
			return nil, &ArgumentError{Field: "pos", Msg: "required for a close order"}
		}
		return CloseOrderSingle(p.ClOrdID, p.Account, *pos)
	case IntentStop:
		p.OrdType = brokertags.OrdTypeStop
		return NewOrderSingle(p)
	case IntentMarketSL:
		p.OrdType = brokertags.OrdTypeMarket
		return BracketOrderList(p.ClOrdID, p, stopPrice, decimal.Zero)
	case IntentMarketSLTP:
		p.OrdType = brokertags.OrdTypeMarket
		return BracketOrderList(p.ClOrdID, p, stopPrice, takePrice)
	default:
		p.OrdType = brokertags.OrdTypeMarket
		return NewOrderSingle(p)
	}
}

func sideToFIX(s statecache.Side) string {
	if s == statecache.SideSell {
		return brokertags.SideSell
	}
	return brokertags.SideBuy
}
