// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing amounts typed into the entry form
// or the CLI and converting them into cents.
package core

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxAmountUnits is the largest whole amount a single entry may carry. It
// keeps the sum of any realistic number of entries well inside int64 cents.
const MaxAmountUnits int64 = 1_000_000_000_000

// ParseAmount converts a decimal string to Money with half-up rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Zero is
// a valid amount; negative or signed values and amounts above MaxAmountUnits are
// rejected.
//
// Examples:
//
//	ParseAmount("500")    -> Money{Cents: 50000}, nil
//	ParseAmount("12,34")  -> Money{Cents: 1234}, nil
//	ParseAmount("12.345") -> Money{Cents: 1235}, nil
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	intPart, fracPart, _ := strings.Cut(s, ".")
	if strings.Contains(fracPart, ".") {
		return Money{}, ErrInvalidAmount
	}
	if intPart == "" {
		intPart = "0"
	}
	if !allDigits(intPart) || !allDigits(fracPart) {
		return Money{}, ErrInvalidAmount
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil || iv > MaxAmountUnits {
		return Money{}, ErrInvalidAmount
	}

	var frac int64
	if len(fracPart) > 0 {
		frac = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			frac += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				frac++
			}
		}
	}
	m := Money{Cents: iv*100 + frac}
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}

// FromUnits builds Money from a whole currency amount.
func FromUnits(units int64) Money {
	return Money{Cents: units * 100}
}

// Units returns the whole currency part, truncated toward zero.
func (m Money) Units() int64 {
	return m.Cents / 100
}

// String renders m as a plain decimal with two fractional digits, e.g.
// "1500.00" or "-2.50".
func (m Money) String() string {
	c := m.Cents
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return sign + strconv.FormatInt(c/100, 10) + "." + fmt.Sprintf("%02d", c%100)
}

// IsWhole reports whether m has no fractional part.
func (m Money) IsWhole() bool {
	return m.Cents%100 == 0
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
