// internal/flowctrl/priority.go
package flowctrl

import "github.com/solatis/flowkeeper/internal/types"

/*
 * Query priority code.
 *
 * Packed decimal: hundreds digit is the priority tier, units digit is the
 * sub-level, tens digit is zero. The range check alone admits codes such
 * as 150 or 210, so the units and hundreds checks both run.
 */

const (
	MinPriorityCode     = 101
	MaxPriorityCode     = 303
	DefaultPriorityCode = 301
)

var allowedPriorityDigits = [...]int{1, 2, 3}

// ValidatePriority checks a packed priority code.
func ValidatePriority(code int) error {
	if code > MaxPriorityCode || code < MinPriorityCode {
		return types.InvalidArgument("Illegal value in qryPriorityId parameter: qryPriorityId value must be greater than or equal to %d and less than or equal to %d!", MinPriorityCode, MaxPriorityCode)
	}
	if !allowedPriorityDigit(PrioritySubLevel(code)) {
		return types.InvalidArgument("Illegal value in qryPriorityId parameter: the units of qryPriorityId must in [1,2,3]!")
	}
	if !allowedPriorityDigit(PriorityTier(code)) {
		return types.InvalidArgument("Illegal value in qryPriorityId parameter: the hundreds of qryPriorityId must in [1,2,3]!")
	}
	return nil
}

// PriorityTier returns the hundreds component.
func PriorityTier(code int) int {
	return code / 100
}

// PrioritySubLevel returns the units component (code mod 100).
func PrioritySubLevel(code int) int {
	return code % 100
}

// EncodePriority packs tier and sub-level and validates the result.
func EncodePriority(tier, subLevel int) (int, error) {
	code := tier*100 + subLevel
	if !allowedPriorityDigit(tier) || !allowedPriorityDigit(subLevel) {
		return 0, types.InvalidArgument("Illegal value in qryPriorityId parameter: tier %d and sub-level %d must in [1,2,3]!", tier, subLevel)
	}
	return code, ValidatePriority(code)
}

func allowedPriorityDigit(d int) bool {
	for _, a := range allowedPriorityDigits {
		if d == a {
			return true
		}
	}
	return false
}
