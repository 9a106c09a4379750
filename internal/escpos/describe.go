package escpos

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// describeParams is the pure parameter describer (spec.md §4.2): given a
// mnemonic and the literal parameter bytes collected for that command, it
// returns a short human-readable string. It never inspects decoder state
// and its output is descriptive only — nothing in the decoder's
// behavioural contract depends on the exact wording.
func describeParams(mnemonic string, params []byte) string {
	switch mnemonic {
	case "ESC !":
		return describePrintMode(params)
	case "ESC a":
		return describeLookup(params, justificationTable)
	case "ESC -":
		return describeLookup(params, underlineDotsTable)
	case "ESC $":
		return describeAbsolutePosition(params)
	case "GS !":
		return describeCharacterSize(params)
	case "GS H":
		return describeLookup(params, hriPositionTable)
	case "ESC E", "GS B", "FS -", "ESC B", "ESC G", "ESC {":
		return describeBoolean(params)
	case "ESC M", "ESC R", "DLE EOT", "GS f", "GS r", "GS I":
		return describeKeyed(mnemonic, params)
	default:
		return describeHex(params)
	}
}

func describeHex(params []byte) string {
	if len(params) == 0 {
		return ""
	}
	parts := make([]string, len(params))
	for i, b := range params {
		parts[i] = hex.EncodeToString([]byte{b})
	}
	return strings.Join(parts, " ")
}

func describePrintMode(params []byte) string {
	if len(params) != 1 {
		return describeHex(params)
	}
	b := params[0]
	if b == 0x00 {
		return "n=0x00 (Font A)"
	}
	var set []string
	for _, bit := range printModeBits {
		if b&bit.mask != 0 {
			set = append(set, bit.name)
		}
	}
	if len(set) == 0 {
		return fmt.Sprintf("n=0x%02X", b)
	}
	return fmt.Sprintf("n=0x%02X (%s)", b, strings.Join(set, ", "))
}

var justificationTable = map[byte]string{
	0: "left",
	1: "centre",
	2: "right",
}

var underlineDotsTable = map[byte]string{
	0: "off",
	1: "one-dot",
	2: "two-dot",
}

var hriPositionTable = map[byte]string{
	0: "none",
	1: "above",
	2: "below",
	3: "both",
}

func describeLookup(params []byte, table map[byte]string) string {
	if len(params) != 1 {
		return describeHex(params)
	}
	name, ok := table[params[0]]
	if !ok {
		return fmt.Sprintf("n=%d", params[0])
	}
	return fmt.Sprintf("n=%d (%s)", params[0], name)
}

func describeAbsolutePosition(params []byte) string {
	if len(params) != 2 {
		return describeHex(params)
	}
	n := int(params[0]) + 256*int(params[1])
	return fmt.Sprintf("position=%d", n)
}

func describeCharacterSize(params []byte) string {
	if len(params) != 1 {
		return describeHex(params)
	}
	b := params[0]
	width := (b >> 4) + 1
	height := (b & 0x0F) + 1
	return fmt.Sprintf("width=x%d, height=x%d", width, height)
}

func describeBoolean(params []byte) string {
	if len(params) != 1 {
		return describeHex(params)
	}
	if params[0]&0x01 != 0 {
		return "enabled"
	}
	return "disabled"
}

// fontTable backs both ESC M (character font) and GS f (HRI font).
var fontTable = map[byte]string{
	0: "Font A",
	1: "Font B",
}

var internationalCharsetTable = map[byte]string{
	0:  "USA",
	1:  "France",
	2:  "Germany",
	3:  "UK",
	4:  "Denmark I",
	5:  "Sweden",
	6:  "Italy",
	7:  "Spain",
	8:  "Japan",
	9:  "Norway",
	10: "Denmark II",
	11: "Spain II",
	12: "Latin America",
	13: "Korea",
	14: "Slovenia/Croatia",
	15: "China",
}

var dleEOTTable = map[byte]string{
	1: "printer status",
	2: "offline status",
	3: "error status",
	4: "paper sensor status",
}

var gsRTable = map[byte]string{
	1: "paper sensor status",
	2: "drawer kick-out connector status",
}

var gsITable = map[byte]string{
	1: "model",
	2: "type",
	3: "firmware",
}

func describeKeyed(mnemonic string, params []byte) string {
	if len(params) != 1 {
		return describeHex(params)
	}
	n := params[0]
	var table map[byte]string
	switch mnemonic {
	case "ESC M", "GS f":
		table = fontTable
	case "ESC R":
		table = internationalCharsetTable
	case "DLE EOT":
		table = dleEOTTable
	case "GS r":
		table = gsRTable
	case "GS I":
		table = gsITable
	}
	if name, ok := table[n]; ok {
		return fmt.Sprintf("n=%d (%s)", n, name)
	}
	return fmt.Sprintf("n=%d", n)
}
