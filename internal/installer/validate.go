// Package installer — validate.go
//
// Format checks for operator input. Both validators are pure:
// they look at the string and nothing else. A key that passes
// ValidateAuthKey can still be rejected by the coordination
// server — the real check happens at bring-up.
package installer

import (
	"regexp"
	"strconv"
	"strings"
)

// cidrShape matches the four-octet/prefix grammar. Octet and prefix
// ranges are checked numerically afterwards; leading zeros are fine.
var cidrShape = regexp.MustCompile(`^(\d{1,3})\.(\d{1,3})\.(\d{1,3})\.(\d{1,3})/(\d{1,3})$`)

// authKeyPrefix is the vendor's pre-auth key prefix.
const authKeyPrefix = "tskey-"

// authKeyMinLen is a sanity floor — real keys are much longer.
const authKeyMinLen = 20

// ValidateCIDR reports whether s is an IPv4 network in a.b.c.d/n
// form with every octet <= 255 and the prefix <= 32. A bare address
// without a prefix is rejected.
func ValidateCIDR(s string) bool {
	m := cidrShape.FindStringSubmatch(s)
	if m == nil {
		return false
	}
	for _, octet := range m[1:5] {
		n, err := strconv.Atoi(octet)
		if err != nil || n > 255 {
			return false
		}
	}
	prefix, err := strconv.Atoi(m[5])
	if err != nil || prefix > 32 {
		return false
	}
	return true
}

// ValidateAuthKey reports whether s looks like a vendor pre-auth key:
// at least 20 characters and the tskey- prefix. Format only.
func ValidateAuthKey(s string) bool {
	return len(s) >= authKeyMinLen && strings.HasPrefix(s, authKeyPrefix)
}
