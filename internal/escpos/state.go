package escpos

// phaseKind tags the active branch of Phase. Re-architected per design
// note 9 as a closed set of tagged phases instead of ad-hoc scratch
// attributes on the decoder instance: all variable-payload scratch lives
// in one varCtx value owned by the phase, and every return to Idle
// replaces it with a fresh zero value.
type phaseKind int

const (
	phaseIdle phaseKind = iota
	phaseTextAccum
	phaseEscPrefix
	phaseGsPrefix
	phaseDlePrefix
	phaseFsPrefix
	phaseFixedParams
	phaseVarParams
)

// varKind tags the active sub-phase of a variable-length payload.
type varKind int

const (
	varNone varKind = iota
	varEscStarHeader
	varEscStarData
	varEscDTabs
	varGsVMode
	varGsVExtra
	varGsVSecondByte
	varGsV0Header
	varGsV0Data
	varGsParenSecondByte
	varGsParenLHeader
	varGsParenLData
	varGsParenGenericHeader
	varGsParenGenericData
	varGsKType
	varGsKFormatA
	varGsKFormatBLen
	varGsKFormatBData
)

// pending is the partial command currently being assembled. It is reset
// to its zero value on every return to phaseIdle and when a text run
// starts.
type pending struct {
	mnemonic string
	name     string
	raw      []byte
}

// varCtx is the per-subphase scratch for variable-length payloads. Only the
// fields relevant to the active varKind are meaningful at any time.
type varCtx struct {
	kind varKind

	// ESC * raster header/data.
	rasterMode    byte
	rasterColumns int
	rasterBytes   int

	// ESC D tab stops.
	tabs []byte

	// GS V cut mode.
	cutMode byte

	// GS v 0 raster image.
	gsvMode   byte
	gsvWidth  int
	gsvHeight int
	gsvBytes  int

	// GS ( L / GS ( <char> two-byte length header + data.
	parenChar byte
	parenLen  int

	// GS k barcode.
	barcodeType byte
	barcodeLen  int // Format B advertised length
	barcodeData []byte
}

// phase is the decoder's current position in the state machine, plus
// whatever scratch that position requires.
type phase struct {
	kind  phaseKind
	fixed int // needed bytes, only meaningful when kind == phaseFixedParams
	var_  varCtx
}

func idlePhase() phase {
	return phase{kind: phaseIdle}
}
