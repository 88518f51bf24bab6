// Package parser recovers facts from the free-text output of forge script.
// Nothing in forge's console output is a stable contract, so every lookup is
// best effort: a missing pattern yields an absent value, never a guessed one.
package parser

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// contractMarker follows a label in forge's return values dump, e.g.
// "lockupLinear: contract SablierV2LockupLinear 0x...".
const contractMarker = ": contract "

// Facts is what could be recovered from one deployment's output.
type Facts struct {
	NetworkID string
	Addresses map[string]string
}

// Source is the output of one deployment.
type Source interface {
	Output() string
}

// Extract looks up the network id for script and the address of every label.
func Extract(src Source, script string, labels []string) Facts {
	output := src.Output()
	return Facts{
		NetworkID: NetworkID(output, script),
		Addresses: Addresses(output, labels),
	}
}

// NetworkID returns the path segment following "broadcast/<script>/" in output,
// or "" when the pattern is absent or the segment is not numeric.
func NetworkID(output, script string) string {
	pattern := "broadcast/" + script + "/"

	_, rest, found := strings.Cut(output, pattern)
	if !found {
		return ""
	}

	segment, _, _ := strings.Cut(rest, "/")
	if segment == "" || strings.IndexFunc(segment, isNotDigit) >= 0 {
		return ""
	}

	return segment
}

// Addresses returns the first address printed after "<label>: contract" for
// each label. Labels without a match are not present in the result.
func Addresses(output string, labels []string) map[string]string {
	addresses := make(map[string]string)
	for _, label := range labels {
		if addr, ok := Address(output, label); ok {
			addresses[label] = addr
		}
	}
	return addresses
}

// Address finds the address declared for label. The first token on the same
// line that is a hex address is returned exactly as printed.
func Address(output, label string) (string, bool) {
	marker := label + contractMarker

	for rest := output; ; {
		idx := strings.Index(rest, marker)
		if idx < 0 {
			return "", false
		}

		// Reject matches inside a longer label, e.g. "batchLockupLinear".
		if idx > 0 && isLabelChar(rest[idx-1]) {
			rest = rest[idx+len(marker):]
			continue
		}

		rest = rest[idx+len(marker):]
		line, _, _ := strings.Cut(rest, "\n")
		for _, token := range strings.Fields(line) {
			if strings.HasPrefix(token, "0x") && common.IsHexAddress(token) {
				return token, true
			}
		}
	}
}

func isNotDigit(r rune) bool {
	return r < '0' || r > '9'
}

func isLabelChar(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}
