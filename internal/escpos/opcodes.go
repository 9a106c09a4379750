// Package escpos implements a stateful, incremental decoder for the ESC/POS
// thermal-printer command language. It consumes chunked, arbitrarily
// fragmented byte streams and emits fully-parsed command records together
// with the reply bytes an emulated printer must answer with.
package escpos

// opcode describes one entry of a family's single-byte dispatch table: the
// mnemonic and human name it decodes to, and how many literal parameter
// bytes follow a fixed-length command's opcode byte. A zero FixedLen means
// the command has no parameters at all; commands with variable-length
// payloads are not listed here and are special-cased in the state machine.
type opcode struct {
	Mnemonic string
	Name     string
	FixedLen int
}

// escTable maps the byte following ESC (0x1B) to its opcode entry.
var escTable = map[byte]opcode{
	0x40: {"ESC @", "initialize printer", 0},
	0x21: {"ESC !", "select print mode", 1},
	0x61: {"ESC a", "select justification", 1},
	0x64: {"ESC d", "print and feed n lines", 1},
	0x24: {"ESC $", "set absolute print position", 2},
	0x70: {"ESC p", "generate pulse (cash drawer)", 2},
	0x76: {"ESC v", "transmit paper sensor status", 0},
	0x69: {"ESC i", "partial cut", 0},
	0x45: {"ESC E", "turn emphasized mode on/off", 1},
	0x42: {"ESC B", "turn white/black reverse print mode on/off", 1},
	0x47: {"ESC G", "turn double-strike mode on/off", 1},
	0x2D: {"ESC -", "turn underline mode on/off", 1},
	0x4D: {"ESC M", "select character font", 1},
	0x52: {"ESC R", "select an international character set", 1},
	0x74: {"ESC t", "select character code table", 1},
	0x7B: {"ESC {", "turn upside-down print mode on/off", 1},
	// ESC c is actually a subcommand family (ESC c 0/1/2/3/4/5) but the
	// source this spec was distilled from treats it as a single fixed
	// parameter byte. Preserved as-is per spec.md open question.
	0x63: {"ESC c", "select paper sensor(s) for paper-end signal", 1},
	// ESC * and ESC D have variable-length payloads and are handled
	// specially in the state machine, which matches them before it
	// consults this table; they intentionally have no entry here.
}

// gsTable maps the byte following GS (0x1D) to its opcode entry.
var gsTable = map[byte]opcode{
	0x21: {"GS !", "select character size", 1},
	0x4C: {"GS L", "set left margin", 2},
	0x57: {"GS W", "set printing area width", 2},
	0x72: {"GS r", "transmit status", 1},
	0x49: {"GS I", "transmit printer ID", 1},
	0x42: {"GS B", "turn white/black reverse print mode on/off", 1},
	0x48: {"GS H", "select printing position of HRI characters", 1},
	0x61: {"GS a", "enable/disable automatic status back (ASB)", 1},
	0x66: {"GS f", "select font for HRI characters", 1},
	// GS V, GS v 0, GS ( ..., GS k have variable-length payloads and are
	// special-cased; GS / (print logo) is not modeled, it is out of this
	// spec's scope (no raster/logo rendering, spec.md §1).
}

// dleTable maps the byte following DLE (0x10) to its opcode entry.
var dleTable = map[byte]opcode{
	0x04: {"DLE EOT", "real-time status transmission", 1},
	0x14: {"DLE DC4", "real-time request to printer", 3},
	0x05: {"DLE ENQ", "real-time request to printer (enquiry)", 1},
}

// fsTable maps the byte following FS (0x1C) to its opcode entry.
var fsTable = map[byte]opcode{
	0x21: {"FS !", "select print mode for Kanji characters", 1},
	0x26: {"FS &", "select Kanji character mode", 0},
	0x2E: {"FS .", "cancel Kanji character mode", 0},
	0x2D: {"FS -", "turn underline mode on/off for Kanji characters", 1},
}

// controlTable maps single control bytes that are emitted as zero-length
// records directly from Idle, without an introducer.
var controlTable = map[byte]opcode{
	0x0A: {"LF", "line feed", 0},
	0x0D: {"CR", "carriage return", 0},
	0x09: {"HT", "horizontal tab", 0},
	0x0C: {"FF", "form feed", 0},
}

// Introducer bytes.
const (
	escByte byte = 0x1B
	gsByte  byte = 0x1D
	dleByte byte = 0x10
	fsByte  byte = 0x1C
)

// isIntroducer reports whether b starts a multi-byte command family.
func isIntroducer(b byte) bool {
	switch b {
	case escByte, gsByte, dleByte, fsByte:
		return true
	default:
		return false
	}
}

// isControl reports whether b is a standalone control character.
func isControl(b byte) bool {
	_, ok := controlTable[b]
	return ok
}

// printModeBits names the individual bits of the ESC ! print-mode mask, in
// the order the describer lists them when more than one bit is set.
var printModeBits = []struct {
	mask byte
	name string
}{
	{0x01, "Font B"},
	{0x08, "bold"},
	{0x10, "double-height"},
	{0x20, "double-width"},
	{0x80, "underline"},
}
