package escpos

import "testing"

func TestDescribePrintMode(t *testing.T) {
	cases := []struct {
		in   byte
		want string
	}{
		{0x00, "n=0x00 (Font A)"},
		{0x08, "n=0x08 (bold)"},
		{0x30, "n=0x30 (double-height, double-width)"},
		{0x89, "n=0x89 (Font B, bold, underline)"},
	}
	for _, c := range cases {
		got := describeParams("ESC !", []byte{c.in})
		if got != c.want {
			t.Errorf("describePrintMode(0x%02X) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestDescribeLookupMnemonics(t *testing.T) {
	cases := []struct {
		mnemonic string
		param    byte
		want     string
	}{
		{"ESC a", 1, "n=1 (centre)"},
		{"ESC a", 9, "n=9"},
		{"ESC -", 2, "n=2 (two-dot)"},
		{"GS H", 3, "n=3 (both)"},
	}
	for _, c := range cases {
		got := describeParams(c.mnemonic, []byte{c.param})
		if got != c.want {
			t.Errorf("describeParams(%q, %d) = %q, want %q", c.mnemonic, c.param, got, c.want)
		}
	}
}

func TestDescribeAbsolutePosition(t *testing.T) {
	got := describeParams("ESC $", []byte{0x2C, 0x01})
	want := "position=300"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestDescribeCharacterSize(t *testing.T) {
	got := describeParams("GS !", []byte{0x11})
	want := "width=x2, height=x2"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestDescribeBooleanMnemonics(t *testing.T) {
	for _, mnemonic := range []string{"ESC E", "GS B", "FS -", "ESC B", "ESC G", "ESC {"} {
		if got := describeParams(mnemonic, []byte{0x01}); got != "enabled" {
			t.Errorf("%s(1) = %q, want enabled", mnemonic, got)
		}
		if got := describeParams(mnemonic, []byte{0x00}); got != "disabled" {
			t.Errorf("%s(0) = %q, want disabled", mnemonic, got)
		}
	}
}

func TestDescribeKeyedMnemonics(t *testing.T) {
	cases := []struct {
		mnemonic string
		param    byte
		want     string
	}{
		{"ESC M", 0, "n=0 (Font A)"},
		{"ESC M", 1, "n=1 (Font B)"},
		{"ESC R", 8, "n=8 (Japan)"},
		{"ESC R", 200, "n=200"},
		{"DLE EOT", 4, "n=4 (paper sensor status)"},
		{"GS f", 1, "n=1 (Font B)"},
		{"GS r", 2, "n=2 (drawer kick-out connector status)"},
		{"GS I", 3, "n=3 (firmware)"},
	}
	for _, c := range cases {
		got := describeParams(c.mnemonic, []byte{c.param})
		if got != c.want {
			t.Errorf("describeParams(%q, %d) = %q, want %q", c.mnemonic, c.param, got, c.want)
		}
	}
}

func TestDescribeHexFallback(t *testing.T) {
	got := describeParams("ESC p", []byte{0x00, 0xFF, 0x0A})
	want := "00 ff 0a"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestDescribeWrongArityFallsBackToHex(t *testing.T) {
	got := describeParams("ESC a", []byte{0x01, 0x02})
	want := "01 02"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}
