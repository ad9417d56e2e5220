package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"6.00", "6", true},
		{"1,23", "1.23", true},
		{"1,234.56", "1234.56", true},
		{" 2.50 ", "2.5", true},
		{"-4.10", "-4.1", true},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestParseSplitAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"4", "4", true},
		{" 6.00 ", "6", true},
		{"-1.5", "-1.5", true},
		{"1,234", "", false},
		{"1,5", "", false},
		{"1,234.56", "", false},
		{"four", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseSplitAmount(tc.in)
		if tc.ok {
			if err != nil || !got.Equal(decimal.RequireFromString(tc.out)) {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else if err != ErrInvalidAmount {
			t.Fatalf("%q expected ErrInvalidAmount, got %s (err=%v)", tc.in, got, err)
		}
	}
}

func TestFormatEuros(t *testing.T) {
	cases := map[string]string{
		"12.3":   "€12,30",
		"0":      "€0,00",
		"-7.456": "-€7,46",
	}
	for in, want := range cases {
		if got := FormatEuros(decimal.RequireFromString(in)); got != want {
			t.Fatalf("FormatEuros(%s) = %q, want %q", in, got, want)
		}
	}
}
