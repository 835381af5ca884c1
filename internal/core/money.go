// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from user input
// and formatting them for display and prompts.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a decimal string into an amount.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. When
// both appear, the rightmost one is the decimal separator and the other
// groups thousands. Repeated commas group thousands too. A single comma is
// always a decimal separator, so "1,234" is 1.234. Signed, empty and
// malformed input is rejected with ErrInvalidAmount. Zero is accepted;
// callers that need a positive amount check it themselves.
//
// Examples:
//
//	ParseAmount("12.34")     -> 12.34, nil
//	ParseAmount("12,5")      -> 12.5, nil
//	ParseAmount("1,234.56")  -> 1234.56, nil
//	ParseAmount("1.234,56")  -> 1234.56, nil
//	ParseAmount("1,234,567") -> 1234567, nil
//	ParseAmount("-1")        -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s, ok := normalizeSeparators(s)
	if !ok {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return decimal.Zero, ErrInvalidAmount
	}
	if strings.ContainsAny(s, "eE") {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// normalizeSeparators rewrites s so that "." is the only separator left
// and marks the decimal point. ok is false when grouping separators do not
// split the integer part into groups of three digits.
func normalizeSeparators(s string) (string, bool) {
	comma, dot := strings.LastIndex(s, ","), strings.LastIndex(s, ".")
	switch {
	case comma >= 0 && dot >= 0:
		if comma > dot {
			return ungroup(s[:comma], ".", s[comma+1:])
		}
		return ungroup(s[:dot], ",", s[dot+1:])
	case strings.Count(s, ",") > 1:
		return ungroup(s, ",", "")
	case comma >= 0:
		return strings.Replace(s, ",", ".", 1), true
	}
	return s, true
}

// ungroup strips sep from the integer part and appends the fraction.
func ungroup(integer, sep, fraction string) (string, bool) {
	groups := strings.Split(integer, sep)
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return "", false
		}
	}
	out := strings.Join(groups, "")
	if fraction != "" {
		out += "." + fraction
	}
	return out, true
}

// FormatAmount renders an amount with two decimals and a dollar sign.
func FormatAmount(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}
