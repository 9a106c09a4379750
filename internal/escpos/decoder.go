package escpos

import (
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// compactThreshold bounds how much already-consumed slack a decoder will
// carry in its buffer before it shifts the live tail down to index 0. A
// cursor-over-shared-buffer avoids the O(n²) cost of popping single bytes
// off the head of a growable array for every byte of a multi-kilobyte
// raster payload (design note 9); compacting only past this threshold (or
// when fully drained) amortizes the shift cost instead of paying it once
// per Feed call.
const compactThreshold = 4096

// Decoder is a single incremental ESC/POS parser instance. It is not safe
// for concurrent use by multiple goroutines; callers wanting parallelism
// construct one Decoder per stream (spec.md §5).
type Decoder struct {
	buf []byte
	pos int

	ph   phase
	pend pending

	asbEnabled byte
	identity   Identity
}

// New creates an empty decoder (Idle phase, empty buffer) reporting the
// default BT-B36 identity.
func New() *Decoder {
	return NewWithIdentity(DefaultIdentity())
}

// NewWithIdentity creates an empty decoder that reports the given identity
// strings in response to GS I.
func NewWithIdentity(identity Identity) *Decoder {
	return &Decoder{ph: idlePhase(), identity: identity}
}

// Feed appends chunk to the decoder's internal buffer and drives the state
// machine to a fixed point, returning every command record emitted and
// every non-empty reply produced during this call, in emission order.
// Feed never blocks, never errors, and never leaves the decoder wedged:
// malformed input degrades to a synthetic "unknown ..." record instead of
// propagating a failure (spec.md §7).
func (d *Decoder) Feed(chunk []byte) ([]CommandRecord, [][]byte) {
	if len(chunk) > 0 {
		d.buf = append(d.buf, chunk...)
	}

	var commands []CommandRecord
	var replies [][]byte

	for {
		rec, reply, progressed := d.step()
		if rec != nil {
			commands = append(commands, *rec)
		}
		if len(reply) > 0 {
			replies = append(replies, reply)
		}
		if !progressed {
			break
		}
	}

	d.compact()
	return commands, replies
}

// ASBEnabled reports the last value written by GS a (default 0).
func (d *Decoder) ASBEnabled() byte {
	return d.asbEnabled
}

func (d *Decoder) avail() int {
	return len(d.buf) - d.pos
}

func (d *Decoder) peekByte() (byte, bool) {
	if d.pos >= len(d.buf) {
		return 0, false
	}
	return d.buf[d.pos], true
}

// take consumes and returns a copy of the next n bytes. Callers must check
// avail() >= n first.
func (d *Decoder) take(n int) []byte {
	b := append([]byte(nil), d.buf[d.pos:d.pos+n]...)
	d.pos += n
	return b
}

func (d *Decoder) compact() {
	if d.pos == 0 {
		return
	}
	if d.pos == len(d.buf) {
		d.buf = d.buf[:0]
		d.pos = 0
		return
	}
	if d.pos >= compactThreshold {
		n := copy(d.buf, d.buf[d.pos:])
		d.buf = d.buf[:n]
		d.pos = 0
	}
}

func (d *Decoder) resetToIdle() {
	d.ph = idlePhase()
	d.pend = pending{}
}

// emit finalizes the record currently being assembled, runs the response
// generator over it, and returns the decoder to Idle. The full raw byte
// sequence is always passed in by the caller — emit never half-emits.
func (d *Decoder) emit(mnemonic, name, params string, raw []byte) (*CommandRecord, []byte) {
	rec := CommandRecord{
		Mnemonic: mnemonic,
		Name:     name,
		Params:   params,
		Raw:      raw,
	}
	reply := generateReply(mnemonic, raw, &d.asbEnabled, d.identity)
	d.resetToIdle()
	return &rec, reply
}

// step attempts to make one unit of progress against the buffer. It
// returns a completed record and/or reply if one was produced, and
// whether any progress (byte consumed or phase transition) was made at
// all; callers loop on step until progressed is false, at which point the
// decoder genuinely needs more bytes to continue.
func (d *Decoder) step() (*CommandRecord, []byte, bool) {
	switch d.ph.kind {
	case phaseIdle:
		return d.stepIdle()
	case phaseTextAccum:
		return d.stepTextAccum()
	case phaseEscPrefix:
		return d.stepEscPrefix()
	case phaseGsPrefix:
		return d.stepGsPrefix()
	case phaseDlePrefix:
		return d.stepDlePrefix()
	case phaseFsPrefix:
		return d.stepFsPrefix()
	case phaseFixedParams:
		return d.stepFixedParams()
	case phaseVarParams:
		return d.stepVarParams()
	default:
		// Unreachable in normal operation; treat as an internal state
		// inconsistency per spec.md §7: reset to Idle, keep the buffer,
		// keep going.
		d.resetToIdle()
		return nil, nil, true
	}
}

func (d *Decoder) stepIdle() (*CommandRecord, []byte, bool) {
	b, ok := d.peekByte()
	if !ok {
		return nil, nil, false
	}

	if isIntroducer(b) {
		d.pos++
		d.pend = pending{raw: []byte{b}}
		switch b {
		case escByte:
			d.ph = phase{kind: phaseEscPrefix}
		case gsByte:
			d.ph = phase{kind: phaseGsPrefix}
		case dleByte:
			d.ph = phase{kind: phaseDlePrefix}
		case fsByte:
			d.ph = phase{kind: phaseFsPrefix}
		}
		return nil, nil, true
	}

	if op, ok := controlTable[b]; ok {
		d.pos++
		rec := CommandRecord{Mnemonic: op.Mnemonic, Name: op.Name, Raw: []byte{b}}
		return &rec, nil, true
	}

	// Neither an introducer nor a control byte: start (or continue) a
	// text run. The byte itself is consumed by stepTextAccum, not here,
	// so a single phase transition is the unit of progress.
	d.ph = phase{kind: phaseTextAccum}
	d.pend = pending{}
	return nil, nil, true
}

func (d *Decoder) stepTextAccum() (*CommandRecord, []byte, bool) {
	start := d.pos
	for d.pos < len(d.buf) {
		b := d.buf[d.pos]
		if isIntroducer(b) || isControl(b) {
			break
		}
		d.pos++
	}
	if d.pos > start {
		d.pend.raw = append(d.pend.raw, d.buf[start:d.pos]...)
	}

	if d.pos < len(d.buf) {
		// The next byte terminates the run without being consumed by it
		// (spec.md §4.3: "the introducer is not consumed by the text
		// path"). The run is guaranteed non-empty: stepIdle only enters
		// this phase on a byte that is itself plain text.
		raw := d.pend.raw
		text, ok := decodeText(raw)
		var params string
		if ok {
			params = fmt.Sprintf("%q", text)
		} else {
			params = describeHex(raw)
		}
		d.resetToIdle()
		rec := CommandRecord{Mnemonic: "TEXT", Raw: raw, Params: params}
		return &rec, nil, true
	}

	// Buffer drained mid-run; we cannot yet tell whether more text
	// follows. Report progress only if we actually consumed bytes this
	// call so the outer loop terminates cleanly once the buffer is dry.
	return nil, nil, d.pos > start
}

// decodeText attempts, in order, GB18030, UTF-8, then Latin-1 (spec.md
// §4.3 and design note 9's flagged open question: GB18030 is attempted
// first even though it is a superset of ASCII and will happily mis-decode
// many valid UTF-8 sequences. This ordering is preserved unchanged from
// the source because the emulated device's native market is Chinese).
func decodeText(raw []byte) (string, bool) {
	if s, err := simplifiedchinese.GB18030.NewDecoder().String(string(raw)); err == nil {
		return s, true
	}
	if utf8.Valid(raw) {
		return string(raw), true
	}
	if s, err := charmap.ISO8859_1.NewDecoder().String(string(raw)); err == nil {
		return s, true
	}
	return "", false
}

func (d *Decoder) stepEscPrefix() (*CommandRecord, []byte, bool) {
	b, ok := d.peekByte()
	if !ok {
		return nil, nil, false
	}
	d.pos++
	raw := append(d.pend.raw, b)
	d.pend.raw = raw

	switch b {
	case 0x2A: // ESC * — select bit-image mode, variable raster payload.
		d.pend.mnemonic, d.pend.name = "ESC *", "select bit-image mode"
		d.ph = phase{kind: phaseVarParams, var_: varCtx{kind: varEscStarHeader}}
		return nil, nil, true
	case 0x44: // ESC D — set horizontal tab positions, NUL-terminated list.
		d.pend.mnemonic, d.pend.name = "ESC D", "set horizontal tab positions"
		d.ph = phase{kind: phaseVarParams, var_: varCtx{kind: varEscDTabs}}
		return nil, nil, true
	}

	op, found := escTable[b]
	if !found {
		rec := unknownRecord("ESC", b, raw)
		d.resetToIdle()
		return &rec, nil, true
	}
	if op.FixedLen == 0 {
		rec, reply := d.emit(op.Mnemonic, op.Name, "", raw)
		return rec, reply, true
	}
	d.pend.mnemonic, d.pend.name = op.Mnemonic, op.Name
	d.ph = phase{kind: phaseFixedParams, fixed: op.FixedLen}
	return nil, nil, true
}

func (d *Decoder) stepGsPrefix() (*CommandRecord, []byte, bool) {
	b, ok := d.peekByte()
	if !ok {
		return nil, nil, false
	}
	d.pos++
	raw := append(d.pend.raw, b)
	d.pend.raw = raw

	switch b {
	case 0x56: // GS V — cut mode.
		d.pend.mnemonic, d.pend.name = "GS V", "select cut mode"
		d.ph = phase{kind: phaseVarParams, var_: varCtx{kind: varGsVMode}}
		return nil, nil, true
	case 0x76: // GS v — needs a second byte to know whether it's "GS v 0".
		d.ph = phase{kind: phaseVarParams, var_: varCtx{kind: varGsVSecondByte}}
		return nil, nil, true
	case 0x28: // GS ( — needs a second byte to know L vs. a generic function.
		d.ph = phase{kind: phaseVarParams, var_: varCtx{kind: varGsParenSecondByte}}
		return nil, nil, true
	case 0x6B: // GS k — barcode, format A or B depending on the type byte.
		d.pend.mnemonic, d.pend.name = "GS k", "print barcode"
		d.ph = phase{kind: phaseVarParams, var_: varCtx{kind: varGsKType}}
		return nil, nil, true
	}

	op, found := gsTable[b]
	if !found {
		rec := unknownRecord("GS", b, raw)
		d.resetToIdle()
		return &rec, nil, true
	}
	if op.FixedLen == 0 {
		rec, reply := d.emit(op.Mnemonic, op.Name, "", raw)
		return rec, reply, true
	}
	d.pend.mnemonic, d.pend.name = op.Mnemonic, op.Name
	d.ph = phase{kind: phaseFixedParams, fixed: op.FixedLen}
	return nil, nil, true
}

func (d *Decoder) stepDlePrefix() (*CommandRecord, []byte, bool) {
	return d.stepTablePrefix("DLE", dleTable)
}

func (d *Decoder) stepFsPrefix() (*CommandRecord, []byte, bool) {
	return d.stepTablePrefix("FS", fsTable)
}

// stepTablePrefix handles the DLE and FS families, which (unlike ESC and
// GS) have no special variable-length opcodes: every byte is a plain
// table lookup (spec.md §4.3, "DlePrefix / FsPrefix").
func (d *Decoder) stepTablePrefix(family string, table map[byte]opcode) (*CommandRecord, []byte, bool) {
	b, ok := d.peekByte()
	if !ok {
		return nil, nil, false
	}
	d.pos++
	raw := append(d.pend.raw, b)
	d.pend.raw = raw

	op, found := table[b]
	if !found {
		rec := unknownRecord(family, b, raw)
		d.resetToIdle()
		return &rec, nil, true
	}
	if op.FixedLen == 0 {
		rec, reply := d.emit(op.Mnemonic, op.Name, "", raw)
		return rec, reply, true
	}
	d.pend.mnemonic, d.pend.name = op.Mnemonic, op.Name
	d.ph = phase{kind: phaseFixedParams, fixed: op.FixedLen}
	return nil, nil, true
}

func (d *Decoder) stepFixedParams() (*CommandRecord, []byte, bool) {
	needed := d.ph.fixed
	if d.avail() < needed {
		return nil, nil, false
	}
	params := d.take(needed)
	raw := append(d.pend.raw, params...)
	pstr := describeParams(d.pend.mnemonic, params)
	rec, reply := d.emit(d.pend.mnemonic, d.pend.name, pstr, raw)
	return rec, reply, true
}
