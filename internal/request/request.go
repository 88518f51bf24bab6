package request

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Variant selects which deployment script forge runs.
type Variant int

const (
	VariantStandard Variant = iota
	VariantDeterministic
)

func (v Variant) String() string {
	if v == VariantDeterministic {
		return "deterministic"
	}
	return "standard"
}

const (
	flagAll           = "--all"
	flagDeterministic = "--deterministic"
	flagBroadcast     = "--broadcast"
	flagGasPrice      = "--gas-price"
	flagCopyBroadcast = "--cp-bf"
)

var (
	// ErrMissingValue is returned when a flag that takes a value is the last token.
	ErrMissingValue = errors.New("missing flag value")
	// ErrHelp is returned when usage was requested.
	ErrHelp = errors.New("help requested")
)

// Request is a normalized deployment request.
type Request struct {
	Chains        []string
	Variant       Variant
	Broadcast     bool
	GasPrice      string
	CopyBroadcast bool
	All           bool
}

// Deterministic reports whether the deterministic script variant was selected.
func (r Request) Deterministic() bool {
	return r.Variant == VariantDeterministic
}

// Parse turns the deploy command tokens into a Request. Chain tokens are kept
// in the order given. Non-fatal issues are returned as warnings.
func Parse(args []string) (Request, []string, error) {
	var (
		req      Request
		warnings []string
		chains   []string
	)

	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch arg {
		case flagAll:
			req.All = true
		case flagDeterministic:
			req.Variant = VariantDeterministic
		case flagBroadcast:
			req.Broadcast = true
		case flagCopyBroadcast:
			req.CopyBroadcast = true
		case flagGasPrice:
			if i+1 >= len(args) {
				return Request{}, warnings, fmt.Errorf("%s requires a value: %w", flagGasPrice, ErrMissingValue)
			}
			i++
			req.GasPrice = args[i]
		case "-h", "--help":
			return Request{}, warnings, ErrHelp
		default:
			if strings.HasPrefix(arg, "--") {
				warnings = append(warnings, fmt.Sprintf("unknown flag: %s", arg))
				continue
			}
			chains = append(chains, arg)
		}
	}

	if req.All {
		for _, chain := range chains {
			warnings = append(warnings, fmt.Sprintf("chain %s ignored because %s is set", chain, flagAll))
		}
		return req, warnings, nil
	}

	req.Chains = chains

	return req, warnings, nil
}

// Registry is the part of the chain registry needed to resolve a request.
type Registry interface {
	Names() []string
	Contains(name string) bool
}

// Resolve narrows the requested chains to those known by the registry. With
// All set the targets become every registry chain. When nothing remains and
// All is not set, defaultChain is targeted even if the registry lacks it, so an
// unreadable foundry config still leaves the testnet default.
func Resolve(req Request, registry Registry, defaultChain string) (Request, []string) {
	var warnings []string

	if req.All {
		req.Chains = registry.Names()
		return req, warnings
	}

	known := make([]string, 0, len(req.Chains))
	for _, chain := range req.Chains {
		if !registry.Contains(chain) {
			warnings = append(warnings, fmt.Sprintf("chain %s is not configured in the foundry config", chain))
			continue
		}
		if slices.Contains(known, chain) {
			continue
		}
		known = append(known, chain)
	}

	if len(known) == 0 && defaultChain != "" {
		if !registry.Contains(defaultChain) {
			warnings = append(warnings, fmt.Sprintf("default chain %s is not configured in the foundry config", defaultChain))
		}
		known = []string{defaultChain}
	}
	req.Chains = known

	return req, warnings
}
