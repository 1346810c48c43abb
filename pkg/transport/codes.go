package transport

import "github.com/gsconf-net/gsconf/pkg/model"

// The session-form firmwares encode enumerations as fixed-width octet
// strings; the token-CGI firmware uses bare digits for the same values.
// Canonical names are what the rest of the system speaks.

// SpeedCodes maps canonical speed/duplex names to the select values the
// session-form port pages use.
var SpeedCodes = map[string]string{
	"auto":      "00000000",
	"1g-full":   "00000003",
	"100m-half": "00000004",
	"100m-full": "00000005",
	"10m-half":  "00000006",
	"10m-full":  "00000007",
}

// FrameTypeCodes maps canonical acceptable-frame-type names to the
// session-form select values.
var FrameTypeCodes = map[string]string{
	"all":      "00000000",
	"tagged":   "00000001",
	"untagged": "00000002",
}

// frameTypeDigits is the token-CGI rendering of the same enumeration.
var frameTypeDigits = map[string]string{
	"all":      "0",
	"tagged":   "1",
	"untagged": "2",
}

// SpeedCode returns the wire value for a canonical speed on the family.
func SpeedCode(family model.Family, speed string) (string, bool) {
	code, ok := SpeedCodes[speed]
	if !ok {
		return "", false
	}
	if family == model.FamilyGS1900 {
		// Token-CGI selects use single digits.
		return code[len(code)-1:], true
	}
	return code, true
}

// SpeedName returns the canonical name for a wire value, tolerating both
// the padded and the single-digit renderings.
func SpeedName(code string) (string, bool) {
	for name, c := range SpeedCodes {
		if c == code || c[len(c)-1:] == code {
			return name, true
		}
	}
	return "", false
}

// FrameTypeCode returns the wire value for a canonical frame type.
func FrameTypeCode(family model.Family, frameType string) (string, bool) {
	if family == model.FamilyGS1900 {
		code, ok := frameTypeDigits[frameType]
		return code, ok
	}
	code, ok := FrameTypeCodes[frameType]
	return code, ok
}

// FrameTypeName returns the canonical name for a wire value.
func FrameTypeName(code string) (string, bool) {
	for name, c := range FrameTypeCodes {
		if c == code || c[len(c)-1:] == code {
			return name, true
		}
	}
	return "", false
}
