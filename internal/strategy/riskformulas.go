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

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// AmountAtRisk is F x R / 100: the cash amount a strategy is willing to lose
// on one trade, given free margin F and risk percentage R.
func AmountAtRisk(freeMargin, riskPct decimal.Decimal) decimal.Decimal {
	return freeMargin.Mul(riskPct).Div(hundred)
}

// UnitSize computes the position size, in units of the base currency, that
// risks AmountAtRisk(F, R) if the price moves stopDistancePips pips against
// it. conversionPrice is the account-currency-vs-quote cross rate applied
// when the instrument isn't already denominated in the account currency;
// pass decimal.Zero when no conversion is needed.
//
// Grounded on the broker's own Math::get_unit_size: risk_money is first
// converted via conversionPrice (if any), divided by the stop distance to
// get value-per-pip, then divided by point size. The contract size L
// cancels algebraically (value_per_pip x L/(L x P) == value_per_pip / P)
// so it is not a parameter here.
func UnitSize(freeMargin, riskPct decimal.Decimal, stopDistancePips int, conversionPrice, pointSize decimal.Decimal) decimal.Decimal {
	if stopDistancePips <= 0 || pointSize.IsZero() {
		return decimal.Zero
	}

	riskMoney := AmountAtRisk(freeMargin, riskPct)
	if conversionPrice.GreaterThan(decimal.Zero) {
		riskMoney = riskMoney.Mul(conversionPrice)
	}

	valuePerPip := riskMoney.Div(decimal.NewFromInt(int64(stopDistancePips)))
	return valuePerPip.Div(pointSize)
}

// Equity is balance plus the sum of every open position's P&L.
func Equity(balance decimal.Decimal, positionPnLs []decimal.Decimal) decimal.Decimal {
	sum := balance
	for _, pnl := range positionPnLs {
		sum = sum.Add(pnl)
	}
	return sum
}

// FreeMargin is equity minus used margin.
func FreeMargin(equity, usedMargin decimal.Decimal) decimal.Decimal {
	return equity.Sub(usedMargin)
}

// MarginRatioPct is equity / used-margin x 100, or zero when no margin is
// in use (avoids a division by zero when the account is flat).
func MarginRatioPct(equity, usedMargin decimal.Decimal) decimal.Decimal {
	if usedMargin.IsZero() {
		return decimal.Zero
	}
	return equity.Div(usedMargin).Mul(hundred)
}

// MMR is the account's margin maintenance requirement: broker-reported
// margin ratio times contract size. The broker source computes this
// client-side from two CollateralReport fields rather than receiving it as
// its own wire field (Account::getMMR in the broker source).
func MMR(marginRatio, contractSize decimal.Decimal) decimal.Decimal {
	return marginRatio.Mul(contractSize)
}

// PipValue is the account-currency value of a one-pip move on a position of
// the given quantity. When the instrument's quote currency differs from the
// account currency, divide by the latest counter-pair conversion rate — the
// spec's divisive resolution of the broker source's conflicting multiply-or-
// divide convention (spec.md section 9, Open Questions).
func PipValue(pointSize, qty, conversionRate decimal.Decimal) decimal.Decimal {
	value := pointSize.Mul(qty)
	if conversionRate.GreaterThan(decimal.Zero) {
		value = value.Div(conversionRate)
	}
	return value
}

// PipDiff is the signed distance, in pips, between the entry price and the
// current valuation price (bid for long positions, ask for short), divided
// by point size.
func PipDiff(entryPrice, currentPrice, pointSize decimal.Decimal) decimal.Decimal {
	if pointSize.IsZero() {
		return decimal.Zero
	}
	return currentPrice.Sub(entryPrice).Div(pointSize)
}

// ProfitLoss is pips moved in the position's favor, times pip value, signed
// so an adverse move yields a negative P&L. isLong controls the sign
// convention: for a long, a rise in price is profit; for a short, a fall is.
func ProfitLoss(entryPrice, currentPrice, pointSize, qty, conversionRate decimal.Decimal, isLong bool) decimal.Decimal {
	diff := PipDiff(entryPrice, currentPrice, pointSize)
	if !isLong {
		diff = diff.Neg()
	}
	return diff.Mul(PipValue(pointSize, qty, conversionRate))
}
