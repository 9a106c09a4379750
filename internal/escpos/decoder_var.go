package escpos

import "fmt"

// stepVarParams dispatches on the active variable-payload sub-phase
// (spec.md §3, VarPhase). Every branch either completes atomically once
// its advertised length (or terminator) is available, or returns "need
// more" leaving the sub-phase and pending state untouched so the next
// Feed call resumes exactly where this one left off.
func (d *Decoder) stepVarParams() (*CommandRecord, []byte, bool) {
	switch d.ph.var_.kind {
	case varEscStarHeader:
		return d.stepEscStarHeader()
	case varEscStarData:
		return d.stepEscStarData()
	case varEscDTabs:
		return d.stepEscDTabs()
	case varGsVMode:
		return d.stepGsVMode()
	case varGsVExtra:
		return d.stepGsVExtra()
	case varGsVSecondByte:
		return d.stepGsVSecondByte()
	case varGsV0Header:
		return d.stepGsV0Header()
	case varGsV0Data:
		return d.stepGsV0Data()
	case varGsParenSecondByte:
		return d.stepGsParenSecondByte()
	case varGsParenLHeader:
		return d.stepGsParenHeader(true)
	case varGsParenGenericHeader:
		return d.stepGsParenHeader(false)
	case varGsParenLData:
		return d.stepGsParenData(true)
	case varGsParenGenericData:
		return d.stepGsParenData(false)
	case varGsKType:
		return d.stepGsKType()
	case varGsKFormatA:
		return d.stepGsKFormatA()
	case varGsKFormatBLen:
		return d.stepGsKFormatBLen()
	case varGsKFormatBData:
		return d.stepGsKFormatBData()
	default:
		// Internal state inconsistency (spec.md §7): drop back to Idle,
		// keep the buffer, keep going.
		d.resetToIdle()
		return nil, nil, true
	}
}

// ESC * — select bit-image mode. Header is (m, nL, nH); raster byte count
// is n for single-density modes (m 0 or 1), 3n for double-density color
// modes (m 32 or 33), n otherwise.
func (d *Decoder) stepEscStarHeader() (*CommandRecord, []byte, bool) {
	if d.avail() < 3 {
		return nil, nil, false
	}
	hdr := d.take(3)
	d.pend.raw = append(d.pend.raw, hdr...)

	m, nL, nH := hdr[0], hdr[1], hdr[2]
	n := int(nL) + 256*int(nH)

	var dataLen int
	switch m {
	case 0, 1:
		dataLen = n
	case 32, 33:
		dataLen = 3 * n
	default:
		dataLen = n
	}

	d.ph.var_.rasterMode = m
	d.ph.var_.rasterColumns = n
	d.ph.var_.rasterBytes = dataLen

	if dataLen == 0 {
		params := fmt.Sprintf("m=%d, columns=%d, data=0 bytes", m, n)
		rec, reply := d.emit("ESC *", "select bit-image mode", params, d.pend.raw)
		return rec, reply, true
	}

	d.ph.var_.kind = varEscStarData
	return nil, nil, true
}

func (d *Decoder) stepEscStarData() (*CommandRecord, []byte, bool) {
	need := d.ph.var_.rasterBytes
	if d.avail() < need {
		return nil, nil, false
	}
	data := d.take(need)
	raw := append(d.pend.raw, data...)
	params := fmt.Sprintf("m=%d, columns=%d, data=%d bytes", d.ph.var_.rasterMode, d.ph.var_.rasterColumns, need)
	rec, reply := d.emit("ESC *", "select bit-image mode", params, raw)
	return rec, reply, true
}

// ESC D — set horizontal tab positions. Consumes bytes up to and including
// a NUL terminator; the non-NUL bytes collected are the tab stops. A NUL
// with no preceding bytes means "clear tab stops" (spec.md §4.3 edge case).
func (d *Decoder) stepEscDTabs() (*CommandRecord, []byte, bool) {
	consumed := false
	for {
		b, ok := d.peekByte()
		if !ok {
			return nil, nil, consumed
		}
		d.pos++
		consumed = true
		d.pend.raw = append(d.pend.raw, b)
		if b == 0x00 {
			var params string
			if len(d.ph.var_.tabs) == 0 {
				params = "clear tab stops"
			} else {
				params = "tabs="
				for i, t := range d.ph.var_.tabs {
					if i > 0 {
						params += ","
					}
					params += fmt.Sprintf("%d", t)
				}
			}
			rec, reply := d.emit("ESC D", "set horizontal tab positions", params, d.pend.raw)
			return rec, reply, true
		}
		d.ph.var_.tabs = append(d.ph.var_.tabs, b)
	}
}

var cutModeTable = map[byte]string{
	0: "full cut",
	1: "partial cut",
}

// GS V — select cut mode. Modes 0/1 take no further bytes; modes 65 ('A')
// and 66 ('B') additionally take a feed-amount byte before the cut.
func (d *Decoder) stepGsVMode() (*CommandRecord, []byte, bool) {
	if d.avail() < 1 {
		return nil, nil, false
	}
	m := d.take(1)[0]
	d.pend.raw = append(d.pend.raw, m)
	d.ph.var_.cutMode = m

	if m == 65 || m == 66 {
		d.ph.var_.kind = varGsVExtra
		return nil, nil, true
	}

	name, ok := cutModeTable[m]
	if !ok {
		name = fmt.Sprintf("n=%d", m)
	}
	rec, reply := d.emit("GS V", "select cut mode", name, d.pend.raw)
	return rec, reply, true
}

func (d *Decoder) stepGsVExtra() (*CommandRecord, []byte, bool) {
	if d.avail() < 1 {
		return nil, nil, false
	}
	n := d.take(1)[0]
	raw := append(d.pend.raw, n)

	mode := "full cut"
	if d.ph.var_.cutMode == 66 {
		mode = "partial cut"
	}
	params := fmt.Sprintf("feed=%d dots, then %s", n, mode)
	rec, reply := d.emit("GS V", "select cut mode", params, raw)
	return rec, reply, true
}

// GS v — the byte after GS is 0x76 itself, which needs a second byte to
// tell a true "GS v 0" raster command from anything else (spec.md §4.3).
func (d *Decoder) stepGsVSecondByte() (*CommandRecord, []byte, bool) {
	b2, ok := d.peekByte()
	if !ok {
		return nil, nil, false
	}
	d.pos++
	raw := append(d.pend.raw, b2)
	d.pend.raw = raw

	if b2 != 0x30 {
		rec := CommandRecord{Mnemonic: "GS v", Name: "unknown GS v", Raw: raw}
		d.resetToIdle()
		return &rec, nil, true
	}

	d.pend.mnemonic, d.pend.name = "GS v 0", "print raster bit image"
	d.ph.var_.kind = varGsV0Header
	return nil, nil, true
}

// GS v 0 — header is (m, xL, xH, yL, yH) where xL/xH is the image width in
// bytes (8 dots per byte) and yL/yH is the image height in dots; the data
// payload is width_bytes * height_dots bytes long.
func (d *Decoder) stepGsV0Header() (*CommandRecord, []byte, bool) {
	if d.avail() < 5 {
		return nil, nil, false
	}
	hdr := d.take(5)
	d.pend.raw = append(d.pend.raw, hdr...)

	m, xL, xH, yL, yH := hdr[0], hdr[1], hdr[2], hdr[3], hdr[4]
	widthBytes := int(xL) + 256*int(xH)
	height := int(yL) + 256*int(yH)
	dataLen := widthBytes * height

	d.ph.var_.gsvMode = m
	d.ph.var_.gsvWidth = widthBytes
	d.ph.var_.gsvHeight = height
	d.ph.var_.gsvBytes = dataLen

	if dataLen == 0 {
		params := fmt.Sprintf("m=%d, width=%d, height=%d, data=0 bytes", m, widthBytes*8, height)
		rec, reply := d.emit("GS v 0", "print raster bit image", params, d.pend.raw)
		return rec, reply, true
	}

	d.ph.var_.kind = varGsV0Data
	return nil, nil, true
}

func (d *Decoder) stepGsV0Data() (*CommandRecord, []byte, bool) {
	need := d.ph.var_.gsvBytes
	if d.avail() < need {
		return nil, nil, false
	}
	data := d.take(need)
	raw := append(d.pend.raw, data...)
	params := fmt.Sprintf("m=%d, width=%d, height=%d, data=%d bytes",
		d.ph.var_.gsvMode, d.ph.var_.gsvWidth*8, d.ph.var_.gsvHeight, need)
	rec, reply := d.emit("GS v 0", "print raster bit image", params, raw)
	return rec, reply, true
}

// GS ( — the byte after GS is 0x28, which needs a second byte to tell
// "GS ( L" from a generic extended function family "GS ( <char>".
func (d *Decoder) stepGsParenSecondByte() (*CommandRecord, []byte, bool) {
	b2, ok := d.peekByte()
	if !ok {
		return nil, nil, false
	}
	d.pos++
	d.pend.raw = append(d.pend.raw, b2)

	if b2 == 0x4C {
		d.pend.mnemonic, d.pend.name = "GS ( L", "select function (graphics)"
		d.ph.var_.kind = varGsParenLHeader
	} else {
		d.pend.mnemonic = fmt.Sprintf("GS ( %c", b2)
		d.pend.name = "select function (extended)"
		d.ph.var_.parenChar = b2
		d.ph.var_.kind = varGsParenGenericHeader
	}
	return nil, nil, true
}

func (d *Decoder) stepGsParenHeader(isL bool) (*CommandRecord, []byte, bool) {
	if d.avail() < 2 {
		return nil, nil, false
	}
	hdr := d.take(2)
	d.pend.raw = append(d.pend.raw, hdr...)

	pL, pH := hdr[0], hdr[1]
	length := int(pL) + 256*int(pH)
	d.ph.var_.parenLen = length

	if length == 0 {
		params := "length=0, data=0 bytes"
		rec, reply := d.emit(d.pend.mnemonic, d.pend.name, params, d.pend.raw)
		return rec, reply, true
	}

	if isL {
		d.ph.var_.kind = varGsParenLData
	} else {
		d.ph.var_.kind = varGsParenGenericData
	}
	return nil, nil, true
}

func (d *Decoder) stepGsParenData(isL bool) (*CommandRecord, []byte, bool) {
	_ = isL
	need := d.ph.var_.parenLen
	if d.avail() < need {
		return nil, nil, false
	}
	data := d.take(need)
	raw := append(d.pend.raw, data...)
	params := fmt.Sprintf("length=%d, data=%d bytes", need, need)
	rec, reply := d.emit(d.pend.mnemonic, d.pend.name, params, raw)
	return rec, reply, true
}

// GS k — print barcode. Type codes 0-6 use Format A: a NUL-terminated
// data field. Type codes above 6 use Format B: a one-byte length prefix
// followed by exactly that many data bytes.
func (d *Decoder) stepGsKType() (*CommandRecord, []byte, bool) {
	if d.avail() < 1 {
		return nil, nil, false
	}
	m := d.take(1)[0]
	d.pend.raw = append(d.pend.raw, m)
	d.ph.var_.barcodeType = m

	if m <= 6 {
		d.ph.var_.kind = varGsKFormatA
	} else {
		d.ph.var_.kind = varGsKFormatBLen
	}
	return nil, nil, true
}

func (d *Decoder) stepGsKFormatA() (*CommandRecord, []byte, bool) {
	consumed := false
	for {
		b, ok := d.peekByte()
		if !ok {
			return nil, nil, consumed
		}
		d.pos++
		consumed = true
		d.pend.raw = append(d.pend.raw, b)
		if b == 0x00 {
			params := fmt.Sprintf("type=%d (format A), data=%d bytes", d.ph.var_.barcodeType, len(d.ph.var_.barcodeData))
			rec, reply := d.emit("GS k", "print barcode", params, d.pend.raw)
			return rec, reply, true
		}
		d.ph.var_.barcodeData = append(d.ph.var_.barcodeData, b)
	}
}

func (d *Decoder) stepGsKFormatBLen() (*CommandRecord, []byte, bool) {
	if d.avail() < 1 {
		return nil, nil, false
	}
	n := d.take(1)[0]
	d.pend.raw = append(d.pend.raw, n)
	d.ph.var_.barcodeLen = int(n)

	if n == 0 {
		params := fmt.Sprintf("type=%d (format B), data=0 bytes", d.ph.var_.barcodeType)
		rec, reply := d.emit("GS k", "print barcode", params, d.pend.raw)
		return rec, reply, true
	}

	d.ph.var_.kind = varGsKFormatBData
	return nil, nil, true
}

func (d *Decoder) stepGsKFormatBData() (*CommandRecord, []byte, bool) {
	need := d.ph.var_.barcodeLen
	if d.avail() < need {
		return nil, nil, false
	}
	data := d.take(need)
	raw := append(d.pend.raw, data...)
	params := fmt.Sprintf("type=%d (format B), data=%d bytes", d.ph.var_.barcodeType, need)
	rec, reply := d.emit("GS k", "print barcode", params, raw)
	return rec, reply, true
}
