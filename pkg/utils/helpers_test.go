package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 5*time.Minute, ParseDuration(""))
	assert.Equal(t, 5*time.Minute, ParseDuration("later"))
	assert.Equal(t, 30*time.Second, ParseDuration("30s"))
}

func TestCleanHeader(t *testing.T) {
	assert.Equal(t, "employeeId", CleanHeader(` "employeeId" `))
	assert.Equal(t, "employeeId", CleanHeader("\ufeffemployeeId"))
}

func TestParseCell(t *testing.T) {
	v, ok := ParseCell(" Sales ")
	assert.True(t, ok)
	assert.Equal(t, " Sales ", v)

	v, ok = ParseCell("   ")
	assert.True(t, ok)
	assert.Equal(t, "   ", v)

	_, ok = ParseCell("")
	assert.False(t, ok)
}

func TestParseDecimal(t *testing.T) {
	d, err := ParseDecimal(" +100.50 ")
	require.NoError(t, err)
	require.True(t, d.Valid)
	assert.Equal(t, "100.5", d.Decimal.String())

	d, err = ParseDecimal("  ")
	require.NoError(t, err)
	assert.False(t, d.Valid)

	_, err = ParseDecimal("$100")
	assert.Error(t, err)
}
