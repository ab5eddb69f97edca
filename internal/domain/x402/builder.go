package x402

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidPrice    = errors.New("invalid price")
	ErrNoNetworks      = errors.New("at least one network is required")
	ErrInvalidPayTo    = errors.New("invalid payTo")
	ErrInvalidAsset    = errors.New("invalid asset")
	ErrInvalidResource = errors.New("invalid resource")
)

// RequirementInput is what a protected route charges.
//
// Price is a USD amount ("$0.01", "0.01", "1000"); it is converted to atomic
// units using the asset decimals of each network. Asset overrides the
// network's default USDC asset when set.
type RequirementInput struct {
	Resource          string
	Price             string
	Networks          []string
	PayTo             string
	Asset             string
	Description       string
	MimeType          string
	FacilitatorURL    string
	MaxTimeoutSeconds int
}

// BuildRequirements returns one exact-scheme requirement per network.
// It performs no I/O.
func BuildRequirements(in RequirementInput) ([]PaymentRequirement, error) {
	if strings.TrimSpace(in.Resource) == "" {
		return nil, ErrInvalidResource
	}
	if len(in.Networks) == 0 {
		return nil, ErrNoNetworks
	}
	usd, err := ParsePrice(in.Price)
	if err != nil {
		return nil, err
	}

	mimeType := in.MimeType
	if mimeType == "" {
		mimeType = DefaultMimeType
	}
	timeout := in.MaxTimeoutSeconds
	if timeout <= 0 {
		timeout = DefaultMaxTimeoutSeconds
	}

	out := make([]PaymentRequirement, 0, len(in.Networks))
	for _, name := range in.Networks {
		n, err := LookupNetwork(name)
		if err != nil {
			return nil, err
		}
		if err := n.ValidateAddress(in.PayTo); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayTo, err)
		}
		asset := n.Asset
		if in.Asset != "" {
			if err := n.ValidateAddress(in.Asset); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidAsset, err)
			}
			asset = in.Asset
		}
		amount, err := ToAtomicUnits(usd, n.Decimals)
		if err != nil {
			return nil, err
		}

		req := PaymentRequirement{
			Scheme:            SchemeExact,
			Network:           n.Name,
			MaxAmountRequired: amount,
			Resource:          in.Resource,
			Description:       in.Description,
			MimeType:          mimeType,
			PayTo:             in.PayTo,
			MaxTimeoutSeconds: timeout,
			Asset:             asset,
			FacilitatorURL:    in.FacilitatorURL,
		}
		if n.Family == FamilyEVM {
			req.Extra = map[string]any{"name": n.AssetName, "version": n.AssetVersion}
		}
		out = append(out, req)
	}
	return out, nil
}

// ParsePrice accepts "$0.01", "0.01" or "1000" and returns a positive USD amount.
func ParsePrice(price string) (decimal.Decimal, error) {
	s := strings.TrimSpace(price)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.Decimal{}, fmt.Errorf("%w: empty", ErrInvalidPrice)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q", ErrInvalidPrice, price)
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("%w: must be positive", ErrInvalidPrice)
	}
	return d, nil
}

// ToAtomicUnits scales amount by 10^decimals. Amounts finer than the asset
// precision are rejected rather than rounded.
func ToAtomicUnits(amount decimal.Decimal, decimals int32) (string, error) {
	atomic := amount.Shift(decimals)
	if !atomic.Equal(atomic.Truncate(0)) {
		return "", fmt.Errorf("%w: %s exceeds %d decimals", ErrInvalidPrice, amount.String(), decimals)
	}
	return atomic.Truncate(0).String(), nil
}

// FindRequirement returns the offered requirement matching the payload's scheme and network.
func FindRequirement(accepts []PaymentRequirement, p PaymentPayload) (PaymentRequirement, bool) {
	for _, r := range accepts {
		if r.Scheme == p.Scheme && strings.EqualFold(r.Network, p.Network) {
			return r, true
		}
	}
	return PaymentRequirement{}, false
}
