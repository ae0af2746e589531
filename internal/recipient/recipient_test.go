package recipient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateBDPhone(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"8801712345678", true},
		{"01312345678", true},
		{"+880 1912-345678", true},
		{"1712345678", true},
		{"01812 345 678", true},
		{"12345", false},
		{"01212345678", false},
		{"01112345678", false},
		{"9912345678", false},
		{"017123456789", false},
		{"", false},
		{"phone", false},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.want, ValidateBDPhone(tc.in), "%q", tc.in)
	}
}

func TestNormalize(t *testing.T) {
	n, ok := Normalize("+8801712345678")
	assert.True(t, ok)
	assert.Equal(t, "01712345678", n)

	n, ok = Normalize("017-1234-5678")
	assert.True(t, ok)
	assert.Equal(t, "01712345678", n)

	_, ok = Normalize("12345")
	assert.False(t, ok)
}

func TestValidateCryptoAddress(t *testing.T) {
	cases := []struct {
		network string
		addr    string
		ok      bool
	}{
		{"erc20", "0xdAC17F958D2ee523a2206206994597C13D831ec7", true},
		{"BEP20", "0xdac17f958d2ee523a2206206994597c13d831ec7", true},
		{"eth", "0xdAC17F958D2ee523a2206206994597C13D831Ec7", false},
		{"eth", "0x1234", false},
		{"btc", "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", true},
		{"btc", "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq", true},
		{"btc", "tb1qw508d6qejxtdg4y5r3zarvary0c5xw7kxpjzsx", false},
		{"btc", "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNb", false},
		{"trc20", "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t", true},
		{"tron", "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6x", false},
		{"trc20", "XR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t", false},
		{"trc20", "", false},
	}
	for _, tc := range cases {
		err := ValidateCryptoAddress(tc.network, tc.addr)
		if tc.ok {
			assert.NoErrorf(t, err, "%s %s", tc.network, tc.addr)
		} else {
			assert.ErrorIsf(t, err, ErrInvalidAddress, "%s %s", tc.network, tc.addr)
		}
	}
}

func TestValidateCryptoAddressUnknownNetwork(t *testing.T) {
	err := ValidateCryptoAddress("doge", "DH5yaieqoZN36fDVciNyRueRGvGLR3mr7L")
	assert.ErrorIs(t, err, ErrUnsupportedNetwork)
}
