package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadLocation(t *testing.T) {
	loc, ok := LoadLocation("UTC", time.Local)
	assert.True(t, ok)
	assert.Equal(t, "UTC", loc.String())

	loc, ok = LoadLocation("Mars/Olympus_Mons", time.UTC)
	assert.False(t, ok)
	assert.Equal(t, time.UTC, loc)

	loc, ok = LoadLocation("", time.UTC)
	assert.False(t, ok)
	assert.Equal(t, time.UTC, loc)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "BRK.B", NormalizeSymbol("  brk.b "))
	assert.Equal(t, "apple inc", NormalizeQuery(" Apple Inc\t"))
}
