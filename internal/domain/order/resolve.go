package order

import (
	"github.com/xenking/ecocin/internal/domain/address"
)

// pickShippingAddress selects the destination among the owner's addresses,
// given in store order.
//
// The first address whose type matches exactly wins. When none matches and
// the owner has exactly one address, that one is used regardless of type.
//
// NOTE: when several addresses share the requested type, the store listing
// order decides which one ships. Kept as is for compatibility; it is likely
// unintended.
func pickShippingAddress(addrs []address.Address, addrType string) (address.Address, bool) {
	for _, a := range addrs {
		if a.Type == addrType {
			return a, true
		}
	}
	if len(addrs) == 1 {
		return addrs[0], true
	}
	return address.Address{}, false
}
