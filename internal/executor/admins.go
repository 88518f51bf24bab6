package executor

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// AdminBook maps chains to the admin address passed to the deployment script,
// with a fallback for chains that have no dedicated admin.
type AdminBook struct {
	byChain  map[string]common.Address
	fallback common.Address
}

// NewAdminBook expects addresses that already passed common.IsHexAddress.
// Chain keys are matched case-insensitively since viper lowercases map keys.
func NewAdminBook(byChain map[string]string, fallback string) AdminBook {
	book := AdminBook{
		byChain:  make(map[string]common.Address, len(byChain)),
		fallback: common.HexToAddress(fallback),
	}
	for chain, addr := range byChain {
		book.byChain[strings.ToLower(chain)] = common.HexToAddress(addr)
	}
	return book
}

// For returns the checksummed admin address for chain.
func (b AdminBook) For(chain string) string {
	if addr, ok := b.byChain[strings.ToLower(chain)]; ok {
		return addr.Hex()
	}
	return b.fallback.Hex()
}
