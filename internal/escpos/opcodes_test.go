package escpos

import "testing"

func TestIsIntroducer(t *testing.T) {
	for _, b := range []byte{0x1B, 0x1D, 0x10, 0x1C} {
		if !isIntroducer(b) {
			t.Errorf("0x%02X should be an introducer", b)
		}
	}
	for _, b := range []byte{0x00, 'A', 0x0A} {
		if isIntroducer(b) {
			t.Errorf("0x%02X should not be an introducer", b)
		}
	}
}

func TestIsControl(t *testing.T) {
	for _, b := range []byte{0x0A, 0x0D, 0x09, 0x0C} {
		if !isControl(b) {
			t.Errorf("0x%02X should be a control byte", b)
		}
	}
	if isControl('A') {
		t.Fatalf("'A' should not be a control byte")
	}
}

func TestEscTableFixedLengths(t *testing.T) {
	cases := map[byte]int{
		0x40: 0, // ESC @
		0x21: 1, // ESC !
		0x24: 2, // ESC $
		0x76: 0, // ESC v
	}
	for b, want := range cases {
		op, ok := escTable[b]
		if !ok {
			t.Fatalf("0x%02X missing from escTable", b)
		}
		if op.FixedLen != want {
			t.Errorf("escTable[0x%02X].FixedLen = %d, want %d", b, op.FixedLen, want)
		}
	}
	if _, ok := escTable[0x2A]; ok {
		t.Fatalf("ESC * must not be table-driven, it has a variable payload")
	}
	if _, ok := escTable[0x44]; ok {
		t.Fatalf("ESC D must not be table-driven, it has a variable payload")
	}
}

func TestGsTableFixedLengths(t *testing.T) {
	cases := map[byte]int{
		0x21: 1, // GS !
		0x4C: 2, // GS L
		0x72: 1, // GS r
		0x49: 1, // GS I
	}
	for b, want := range cases {
		op, ok := gsTable[b]
		if !ok {
			t.Fatalf("0x%02X missing from gsTable", b)
		}
		if op.FixedLen != want {
			t.Errorf("gsTable[0x%02X].FixedLen = %d, want %d", b, op.FixedLen, want)
		}
	}
	for _, special := range []byte{0x56, 0x76, 0x28, 0x6B} {
		if _, ok := gsTable[special]; ok {
			t.Fatalf("0x%02X must not be table-driven, it is special-cased", special)
		}
	}
}

func TestControlTable(t *testing.T) {
	cases := map[byte]string{
		0x0A: "LF",
		0x0D: "CR",
		0x09: "HT",
		0x0C: "FF",
	}
	for b, want := range cases {
		op, ok := controlTable[b]
		if !ok || op.Mnemonic != want {
			t.Errorf("controlTable[0x%02X] = %+v, want mnemonic %q", b, op, want)
		}
	}
}
