package domain

import (
	"math"
	"strconv"
	"strings"
)

// qualityFlag marks provisional values in the published files, e.g. "6.0*".
const qualityFlag = "*"

// NormalizeToken converts one monthly token into an optional value.
// Sentinels ("", "-", "NaN") and unparseable tokens are missing; quality
// flags are stripped before parsing. Non-finite results ("nan", "inf") are
// missing too.
func NormalizeToken(tok string) Value {
	switch tok {
	case "", "-", "NaN":
		return Missing()
	}

	tok = strings.ReplaceAll(tok, qualityFlag, "")
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Missing()
	}
	return Some(v)
}
