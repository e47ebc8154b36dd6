package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCurrencyNormalizesCase(t *testing.T) {
	c, err := ParseCurrency(" usd ")
	require.NoError(t, err)
	assert.Equal(t, CurrencyUSD, c)

	_, err = ParseCurrency("BTC")
	assert.Error(t, err)
}

func TestParseOrderStatus(t *testing.T) {
	s, err := ParseOrderStatus("shipped")
	require.NoError(t, err)
	assert.True(t, s.IsValid())

	_, err = ParseOrderStatus("lost")
	assert.Error(t, err)
}

func TestParsePaymentStatus(t *testing.T) {
	_, err := ParsePaymentStatus("settled")
	assert.Error(t, err)

	s, err := ParsePaymentStatus("refunded")
	require.NoError(t, err)
	assert.Equal(t, PaymentStatusRefunded, s)
}

func TestProductStatusAndAddressDefault(t *testing.T) {
	assert.True(t, ProductStatusArchived.IsValid())
	assert.False(t, ProductStatus("hidden").IsValid())

	d, err := ParseAddressDefault("bill")
	require.NoError(t, err)
	assert.Equal(t, AddressDefaultBill, d)
	_, err = ParseAddressDefault("both")
	assert.Error(t, err)
}

func TestParseTrimsWhitespace(t *testing.T) {
	s, err := ParseProductStatus(" active ")
	require.NoError(t, err)
	assert.Equal(t, ProductStatusActive, s)

	_, err = ParseOrderStatus("")
	assert.Error(t, err)
}
