package x402

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	solana "github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
)

type NetworkFamily string

const (
	FamilyEVM NetworkFamily = "evm"
	FamilySVM NetworkFamily = "svm"
)

var (
	ErrUnknownNetwork = errors.New("unknown network")
	ErrInvalidAddress = errors.New("invalid address")
)

// Network is a supported chain with its default USDC asset.
type Network struct {
	Name     string
	Family   NetworkFamily
	ChainID  int64
	Asset    string
	Decimals int32

	// EIP-712 domain of the asset; EVM only.
	AssetName    string
	AssetVersion string
}

var networks = map[string]Network{
	"base": {
		Name: "base", Family: FamilyEVM, ChainID: 8453,
		Asset: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", Decimals: 6,
		AssetName: "USD Coin", AssetVersion: "2",
	},
	"base-sepolia": {
		Name: "base-sepolia", Family: FamilyEVM, ChainID: 84532,
		Asset: "0x036CbD53842c5426634e7929541eC2318f3dCF7e", Decimals: 6,
		AssetName: "USDC", AssetVersion: "2",
	},
	"avalanche": {
		Name: "avalanche", Family: FamilyEVM, ChainID: 43114,
		Asset: "0xB97EF9Ef8734C71904D8002F8b6Bc66Dd9c48a6E", Decimals: 6,
		AssetName: "USD Coin", AssetVersion: "2",
	},
	"avalanche-fuji": {
		Name: "avalanche-fuji", Family: FamilyEVM, ChainID: 43113,
		Asset: "0x5425890298aed601595a70AB815c96711a31Bc65", Decimals: 6,
		AssetName: "USD Coin", AssetVersion: "2",
	},
	"solana": {
		Name: "solana", Family: FamilySVM,
		Asset: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", Decimals: 6,
	},
	"solana-devnet": {
		Name: "solana-devnet", Family: FamilySVM,
		Asset: "4zMMC9srt5Ri5X14GAgXhaHii3GnPAEERYPJgZJDncDU", Decimals: 6,
	},
}

func LookupNetwork(name string) (Network, error) {
	n, ok := networks[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Network{}, fmt.Errorf("%w: %q", ErrUnknownNetwork, name)
	}
	return n, nil
}

// NetworkNames lists the built-in networks in a stable order.
func NetworkNames() []string {
	out := make([]string, 0, len(networks))
	for name := range networks {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ValidateAddress checks addr is well formed for the network family.
func (n Network) ValidateAddress(addr string) error {
	switch n.Family {
	case FamilyEVM:
		if !common.IsHexAddress(addr) {
			return fmt.Errorf("%w: %q is not a hex address", ErrInvalidAddress, addr)
		}
	case FamilySVM:
		if _, err := solana.PublicKeyFromBase58(addr); err != nil {
			return fmt.Errorf("%w: %q: %v", ErrInvalidAddress, addr, err)
		}
	}
	return nil
}

// SameAddress compares addresses the way the chain does: EVM addresses are
// case-insensitive, Solana keys are exact.
func (n Network) SameAddress(a, b string) bool {
	if n.Family == FamilyEVM {
		if !common.IsHexAddress(a) || !common.IsHexAddress(b) {
			return false
		}
		return common.HexToAddress(a) == common.HexToAddress(b)
	}
	return a != "" && a == b
}

// AmountEquals compares two decimal atomic-unit amounts.
func AmountEquals(a, b string) (bool, error) {
	x, err := uint256.FromDecimal(a)
	if err != nil {
		return false, fmt.Errorf("amount %q: %w", a, err)
	}
	y, err := uint256.FromDecimal(b)
	if err != nil {
		return false, fmt.Errorf("amount %q: %w", b, err)
	}
	return x.Eq(y), nil
}
