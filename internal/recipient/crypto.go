package recipient

import (
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/common"
	"github.com/fbsobreira/gotron-sdk/pkg/address"
)

var (
	ErrUnsupportedNetwork = errors.New("unsupported network")
	ErrInvalidAddress     = errors.New("invalid address")
)

// Networks lists the crypto networks ValidateCryptoAddress understands.
var Networks = []string{"erc20", "bep20", "eth", "btc", "trc20", "tron"}

// ValidateCryptoAddress checks addr against the address format of network.
func ValidateCryptoAddress(network, addr string) error {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return fmt.Errorf("%w: empty", ErrInvalidAddress)
	}

	switch strings.ToLower(strings.TrimSpace(network)) {
	case "erc20", "bep20", "eth":
		return validateEVM(addr)
	case "btc":
		return validateBitcoin(addr)
	case "trc20", "tron":
		return validateTron(addr)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedNetwork, network)
	}
}

func validateEVM(addr string) error {
	if !common.IsHexAddress(addr) {
		return fmt.Errorf("%w: not a hex address", ErrInvalidAddress)
	}
	// all-lower or all-upper hex carries no checksum
	body := strings.TrimPrefix(strings.TrimPrefix(addr, "0x"), "0X")
	if body == strings.ToLower(body) || body == strings.ToUpper(body) {
		return nil
	}
	if common.HexToAddress(addr).Hex() != addr {
		return fmt.Errorf("%w: bad checksum", ErrInvalidAddress)
	}
	return nil
}

func validateBitcoin(addr string) error {
	decoded, err := btcutil.DecodeAddress(addr, &chaincfg.MainNetParams)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if !decoded.IsForNet(&chaincfg.MainNetParams) {
		return fmt.Errorf("%w: not a mainnet address", ErrInvalidAddress)
	}
	return nil
}

func validateTron(addr string) error {
	if len(addr) != 34 || addr[0] != 'T' {
		return fmt.Errorf("%w: tron addresses start with T and are 34 characters", ErrInvalidAddress)
	}
	if _, err := address.Base58ToAddress(addr); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return nil
}
