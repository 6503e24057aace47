package album

import (
	"strconv"

	"icgrab/pkg/icloud"
)

// BestDerivative selects the derivative to download for one photo: the one
// whose size label parses to the largest unsigned integer. Labels that do
// not parse count as size 0, so they lose to any numeric label but never
// cause an error. Ties go to the lexicographically smallest label, which
// keeps selection deterministic regardless of map iteration order.
//
// ok is false when the photo has no derivatives; such photos are skipped
// by the caller without error.
func BestDerivative(photo *icloud.Photo) (label string, derivative icloud.Derivative, ok bool) {
	var bestSize uint64

	for key, candidate := range photo.Derivatives {
		size, err := strconv.ParseUint(key, 10, 64)
		if err != nil {
			size = 0
		}

		better := !ok || size > bestSize || (size == bestSize && key < label)
		if better {
			label = key
			derivative = candidate
			bestSize = size
			ok = true
		}
	}

	return label, derivative, ok
}
