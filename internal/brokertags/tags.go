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

// Package brokertags is the field dictionary for the prime broker's FIX 4.4
// dialect: standard tags used by the engine plus the broker's custom tag
// extensions. It holds no business logic, only lookup constants.
package brokertags

import "github.com/quickfixgo/quickfix"

// --- Message Types ---
const (
	MsgTypeLogon                 = "A"
	MsgTypeLogout                = "5"
	MsgTypeReject                = "3"
	MsgTypeBusinessReject        = "j"
	MsgTypeHeartbeat             = "0"
	MsgTypeTestRequest           = "1"
	MsgTypeResendRequest         = "2"
	MsgTypeSequenceReset         = "4"

	MsgTypeTradingSessionStatusRequest = "g"
	MsgTypeTradingSessionStatus        = "h"
	MsgTypeCollateralInquiry           = "BB"
	MsgTypeCollateralInquiryAck        = "BG"
	MsgTypeCollateralReport            = "BA"

	MsgTypeMarketDataRequest        = "V"
	MsgTypeMarketDataSnapshot       = "W"
	MsgTypeMarketDataIncremental    = "X"
	MsgTypeMarketDataRequestReject  = "Y"

	MsgTypeNewOrderSingle     = "D"
	MsgTypeNewOrderList       = "E"
	MsgTypeOrderCancelRequest = "F"
	MsgTypeOrderCancelReplace = "G"
	MsgTypeOrderStatusRequest = "H"
	MsgTypeOrderMassStatusRequest = "AF"
	MsgTypeExecutionReport    = "8"
	MsgTypeOrderCancelReject  = "9"

	MsgTypeRequestForPositions   = "AN"
	MsgTypeRequestForPositionsAck = "AO"
	MsgTypePositionReport        = "AP"

	MsgTypeAllocationInstruction    = "J"
	MsgTypeAllocationInstructionAck = "P"
	MsgTypeAllocationReport         = "AS"
	MsgTypeAllocationReportAck      = "AT"
)

// --- Protocol Constants ---
const (
	FixBeginString  = "FIX.4.4"
	FixTimeFormat   = "20060102-15:04:05.000"
	EncryptMethodNone = "0"
)

// --- Subscription Request Types (Tag 263) ---
const (
	SubscriptionRequestTypeSnapshot          = "0"
	SubscriptionRequestTypeSnapshotAndUpdates = "1"
	SubscriptionRequestTypeDisable           = "2"
)

// --- MD Entry Types (Tag 269) ---
const (
	MdEntryTypeBid         = "0"
	MdEntryTypeOffer       = "1"
	MdEntryTypeSessionHigh = "7"
	MdEntryTypeSessionLow  = "8"
)

// --- Side (Tag 54) ---
const (
	SideBuy  = "1"
	SideSell = "2"
)

// --- Order Type (Tag 40) ---
const (
	OrdTypeMarket = "1"
	OrdTypeLimit  = "2"
	OrdTypeStop   = "3"
)

// --- Time In Force (Tag 59) ---
const (
	TimeInForceDay = "0"
	TimeInForceGTC = "1"
	TimeInForceIOC = "3"
	TimeInForceFOK = "4"
)

// --- MD Update Type (Tag 265) ---
const (
	MdUpdateTypeFullRefresh = "0"
	MdUpdateTypeIncremental = "1"
)

// --- Position Effect (Tag 77) ---
const (
	PositionEffectOpen  = "O"
	PositionEffectClose = "C"
)

// --- Contingency Type (Tag 1385, used on NewOrderList) ---
const (
	ContingencyTypeELS = "101" // Entry + Limit + Stop
)

// --- PosReqType (Tag 724) ---
const (
	PosReqTypePositions = "0"
	PosReqTypeTrades    = "1"
)

// --- PosReqResult (Tag 728) ---
const (
	PosReqResultValidRequest = "0"
	PosReqResultNoPositions  = "2"
)

// --- PosReqStatus (Tag 729) ---
const (
	PosReqStatusCompleted = "0"
	PosReqStatusRejected  = "1"
)

// --- AccountType (Tag 581) ---
const (
	AccountTypeCrossMargined = "3"
)

// --- Order Status (Tag 39) ---
const (
	OrdStatusNew       = "0"
	OrdStatusFilled    = "2"
	OrdStatusCanceled  = "4"
	OrdStatusRejected  = "8"
)

// --- Execution Type (Tag 150) ---
const (
	ExecTypeNew      = "0"
	ExecTypeTrade    = "F"
	ExecTypeCanceled = "4"
	ExecTypeRejected = "8"
	ExecTypeOrderStatus = "I"
)

// --- Party roles (NoPartyIDs group, Tag 453/448/447/802) ---
const (
	PartyIDSourceProprietary = "D"
	PartyRoleCustomerAccount = "3"
	PartySubIDTypeSecuritiesAccountNumber = "2"
	PartySubIDTypeHedging                 = "4000"
	PartySubIDTypeUserName                = "22"
)

// --- Standard FIX tags ---
var (
	TagBeginString    = quickfix.Tag(8)
	TagMsgSeqNum      = quickfix.Tag(34)
	TagMsgType        = quickfix.Tag(35)
	TagSenderCompID   = quickfix.Tag(49)
	TagSendingTime    = quickfix.Tag(52)
	TagTargetCompID   = quickfix.Tag(56)
	TagTargetSubID    = quickfix.Tag(57)
	TagText           = quickfix.Tag(58)

	TagAccount      = quickfix.Tag(1)
	TagAvgPx        = quickfix.Tag(6)
	TagClOrdID      = quickfix.Tag(11)
	TagCumQty       = quickfix.Tag(14)
	TagCurrency     = quickfix.Tag(15)
	TagExecID       = quickfix.Tag(17)
	TagLastPx       = quickfix.Tag(31)
	TagLastQty      = quickfix.Tag(32)
	TagOrderID      = quickfix.Tag(37)
	TagOrderQty     = quickfix.Tag(38)
	TagOrdStatus    = quickfix.Tag(39)
	TagOrdType      = quickfix.Tag(40)
	TagPrice        = quickfix.Tag(44)
	TagQuantity     = quickfix.Tag(53)
	TagSide         = quickfix.Tag(54)
	TagSymbol       = quickfix.Tag(55)
	TagTimeInForce  = quickfix.Tag(59)
	TagTransactTime = quickfix.Tag(60)
	TagPositionEffect = quickfix.Tag(77)
	TagStopPx       = quickfix.Tag(99)
	TagOrdRejReason = quickfix.Tag(103)
	TagExecType     = quickfix.Tag(150)
	TagLeavesQty    = quickfix.Tag(151)
	TagFactor             = quickfix.Tag(228)
	TagContractMultiplier = quickfix.Tag(231)
	TagProduct            = quickfix.Tag(460)
	TagRoundLot           = quickfix.Tag(561)
	TagMarginRatio        = quickfix.Tag(898)
	TagCashOutstanding    = quickfix.Tag(901)

	TagNoRelatedSym   = quickfix.Tag(146)
	TagMdReqID        = quickfix.Tag(262)
	TagSubscriptionRequestType = quickfix.Tag(263)
	TagMarketDepth    = quickfix.Tag(264)
	TagNoMdEntryTypes = quickfix.Tag(267)
	TagNoMdEntries    = quickfix.Tag(268)
	TagMdEntryType    = quickfix.Tag(269)
	TagMdEntryPx      = quickfix.Tag(270)
	TagMdEntrySize    = quickfix.Tag(271)
	TagMdEntryDate    = quickfix.Tag(272)
	TagMdEntryTime    = quickfix.Tag(273)
	TagMdReqRejReason = quickfix.Tag(281)

	TagNoPartyIDs    = quickfix.Tag(453)
	TagPartyID       = quickfix.Tag(448)
	TagPartyIDSource = quickfix.Tag(447)
	TagPartyRole     = quickfix.Tag(452)
	TagNoPartySubIDs = quickfix.Tag(802)
	TagPartySubID    = quickfix.Tag(523)
	TagPartySubIDType = quickfix.Tag(803)

	TagRefTagID             = quickfix.Tag(371)
	TagRefMsgType           = quickfix.Tag(372)
	TagSessionRejectReason  = quickfix.Tag(373)
	TagBusinessRejectReason = quickfix.Tag(380)

	TagUsername = quickfix.Tag(553)
	TagPassword = quickfix.Tag(554)

	TagTradSesReqID    = quickfix.Tag(335)
	TagTradingSessionID = quickfix.Tag(336)
	TagTradSesStatus   = quickfix.Tag(340)
	TagCollInquiryID   = quickfix.Tag(909)

	TagListID         = quickfix.Tag(66)
	TagTotNoOrders    = quickfix.Tag(68)
	TagContingencyType = quickfix.Tag(1385)
	TagClOrdLinkID    = quickfix.Tag(583)
	TagOrigClOrdID    = quickfix.Tag(41)

	TagPosReqID     = quickfix.Tag(710)
	TagPosReqType   = quickfix.Tag(724)
	TagPosReqResult = quickfix.Tag(728)
	TagPosReqStatus = quickfix.Tag(729)
	TagAccountType  = quickfix.Tag(581)
	TagLongQty      = quickfix.Tag(704)
	TagShortQty     = quickfix.Tag(705)
	TagSettlPrice   = quickfix.Tag(730)

	TagMassStatusReqID   = quickfix.Tag(584)
	TagMassStatusReqType = quickfix.Tag(585)

	TagMDUpdateType        = quickfix.Tag(265)
	TagClearingBusinessDate = quickfix.Tag(715)
	TagBidType              = quickfix.Tag(394)
	TagNoOrders             = quickfix.Tag(73)
)

// --- FXCM custom tags (spec section 6.1) ---
var (
	TagFXCMSymID             = quickfix.Tag(9000)
	TagFXCMSymPrecision      = quickfix.Tag(9001)
	TagFXCMSymPointSize      = quickfix.Tag(9002)
	TagFXCMSymInterestBuy    = quickfix.Tag(9003)
	TagFXCMSymInterestSell   = quickfix.Tag(9004)
	TagFXCMSymSortOrder      = quickfix.Tag(9005)
	TagFXCMNoParams          = quickfix.Tag(9016)
	TagFXCMParamName         = quickfix.Tag(9017)
	TagFXCMParamValue        = quickfix.Tag(9018)
	TagFXCMRequestRejectReason = quickfix.Tag(9025)
	TagFXCMErrorDetails      = quickfix.Tag(9029)
	TagFXCMUsedMargin        = quickfix.Tag(9038)
	TagFXCMPosID             = quickfix.Tag(9041)
	TagFXCMPosOpenTime       = quickfix.Tag(9042)
	TagFXCMCloseSettlePrice  = quickfix.Tag(9043)
	TagFXCMPosCloseTime      = quickfix.Tag(9044)
	TagFXCMClosePnl          = quickfix.Tag(9052)
	TagFXCMPosCommission     = quickfix.Tag(9053)
	TagFXCMCloseOrderID      = quickfix.Tag(9054)
	TagFXCMSubscriptionStatus = quickfix.Tag(9076)
	TagFXCMFieldProductID    = quickfix.Tag(9080)
	TagFXCMCondDistStop      = quickfix.Tag(9090)
	TagFXCMCondDistLimit     = quickfix.Tag(9091)
	TagFXCMCondDistEntryStop = quickfix.Tag(9092)
	TagFXCMCondDistEntryLimit = quickfix.Tag(9093)
	TagFXCMMaxQuantity       = quickfix.Tag(9094)
	TagFXCMMinQuantity       = quickfix.Tag(9095)
	TagFXCMTradingStatus     = quickfix.Tag(9096)
)

// FXCM system parameter keys, carried in the TradingSessionStatus's
// FXCM_NO_PARAMS repeating group.
const (
	ParamBaseCurrency = "BASE_CRNCY"
)

// TradingSessionID used by the broker across all session-status requests.
const TradingSessionFXCM = "FXCM"
