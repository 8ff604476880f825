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

// Package fixcodec wraps quickfix's own wire codec with typed, zero-business-logic
// field accessors. It knows nothing about sessions, positions, or strategies — only
// how to pull a tag's value out of a decoded quickfix.Message body or header.
package fixcodec

import (
	"fmt"

	"github.com/quickfixgo/quickfix"
	"github.com/shopspring/decimal"
)

// CodecError reports a field-type coercion failure (a tag value that does not
// parse as the requested type), identifying the offending tag. Framing and
// checksum errors are detected inside quickfix and are not reported as
// CodecError.
type CodecError struct {
	Tag quickfix.Tag
	Op  string
	Err error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("fixcodec: %s tag %d: %v", e.Op, e.Tag, e.Err)
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

// fieldGetter covers the subset of quickfix.FieldMap that both a message body
// and a message header implement, so the same helpers work on either.
type fieldGetter interface {
	GetString(tag quickfix.Tag) (string, quickfix.MessageRejectError)
	Has(tag quickfix.Tag) bool
}

// GetString returns the tag's raw string value, or "" if absent.
func GetString(m fieldGetter, tag quickfix.Tag) string {
	v, err := m.GetString(tag)
	if err != nil {
		return ""
	}
	return v
}

// GetDecimal parses the tag's value as a decimal, returning a CodecError on
// malformed input. Absent tags return decimal.Zero with no error.
func GetDecimal(m fieldGetter, tag quickfix.Tag) (decimal.Decimal, error) {
	if !m.Has(tag) {
		return decimal.Zero, nil
	}
	raw := GetString(m, tag)
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &CodecError{Tag: tag, Op: "parse decimal", Err: err}
	}
	return d, nil
}

// GetInt parses the tag's value as an integer, returning a CodecError on
// malformed input. Absent tags return 0 with no error.
func GetInt(m fieldGetter, tag quickfix.Tag) (int, error) {
	if !m.Has(tag) {
		return 0, nil
	}
	v, err := m.GetString(tag)
	if err != nil {
		return 0, nil
	}
	var n int
	if _, scanErr := fmt.Sscanf(v, "%d", &n); scanErr != nil {
		return 0, &CodecError{Tag: tag, Op: "parse int", Err: scanErr}
	}
	return n, nil
}

// Has reports whether the tag is present on the message body or header.
func Has(m fieldGetter, tag quickfix.Tag) bool {
	return m.Has(tag)
}
