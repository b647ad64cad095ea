package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNamed(t *testing.T) {
	tests := []struct {
		name string
		want rune
		ok   bool
	}{
		{"amp", '&', true},
		{"lt", '<', true},
		{"gt", '>', true},
		{"nbsp", 0x00A0, true},
		{"mdash", 0x2014, true},
		{"alpha", 0x03B1, true},
		{"Alpha", 0x0391, true},
		{"euro", 0x20AC, true},
		{"bogus", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		r, ok := Named(tt.name)
		assert.Equal(t, tt.ok, ok, "Named(%q) ok", tt.name)
		if tt.ok {
			assert.Equal(t, tt.want, r, "Named(%q)", tt.name)
		}
	}
}

func TestDecimal(t *testing.T) {
	r, ok := Decimal("38")
	assert.True(t, ok)
	assert.Equal(t, '&', r)

	_, ok = Decimal("not-a-number")
	assert.False(t, ok)

	_, ok = Decimal("0")
	assert.False(t, ok, "NUL is not a character reference")

	_, ok = Decimal("55296")
	assert.False(t, ok, "surrogate halves are invalid")

	_, ok = Decimal("99999999999")
	assert.False(t, ok, "out of range")
}

func TestHex(t *testing.T) {
	r, ok := Hex("26")
	assert.True(t, ok)
	assert.Equal(t, '&', r)

	r, ok = Hex("1F4A9")
	assert.True(t, ok)
	assert.Equal(t, rune(0x1F4A9), r)

	_, ok = Hex("zz")
	assert.False(t, ok)

	_, ok = Hex("D800")
	assert.False(t, ok, "surrogate halves are invalid")
}

func TestCustomResolver(t *testing.T) {
	table := TableResolver{"smiley": 0x263A}

	r, ok := table.Resolve("smiley")
	assert.True(t, ok)
	assert.Equal(t, rune(0x263A), r)

	_, ok = table.Resolve("amp")
	assert.False(t, ok, "custom tables replace, not extend, the default")
}
