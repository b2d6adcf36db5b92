package effectivity

import "strings"

// Configuration family codes used by the curated tables.
const (
	ShortNose = "SN"
	LongNose  = "LN"
	Enhanced  = "ENH"
	Plus      = "PLUS"
)

var familyTokens = map[string]string{
	"SN":   ShortNose,
	"LN":   LongNose,
	"EN":   Enhanced,
	"ENH":  Enhanced,
	"EP":   Plus,
	"PLUS": Plus,
}

// NormalizeToken upper-cases an effectivity token as printed on a parts-list page and
// strips the leading "*".
func NormalizeToken(token string) string {
	return strings.ToUpper(strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(token), "*")))
}

// FamilyForToken maps a configuration-family token to its configuration code. The second
// return is false for ordinary effectivity codes.
func FamilyForToken(token string) (string, bool) {
	family, ok := familyTokens[NormalizeToken(token)]
	return family, ok
}
