package escpos

import (
	"bytes"
	"reflect"
	"testing"
)

func TestFeedEmptyChunk(t *testing.T) {
	d := New()
	commands, replies := d.Feed(nil)
	if len(commands) != 0 || len(replies) != 0 {
		t.Fatalf("expected no output from an empty feed, got %v %v", commands, replies)
	}
}

func TestFeedSingleIntroducerWaitsForMore(t *testing.T) {
	d := New()
	commands, replies := d.Feed([]byte{0x1B})
	if len(commands) != 0 || len(replies) != 0 {
		t.Fatalf("a lone introducer must not emit yet, got %v %v", commands, replies)
	}
	if d.ph.kind != phaseEscPrefix {
		t.Fatalf("expected phaseEscPrefix, got %v", d.ph.kind)
	}
}

func TestScenario1InitializePrinter(t *testing.T) {
	d := New()
	commands, replies := d.Feed([]byte{0x1B, 0x40})
	want := []CommandRecord{{Mnemonic: "ESC @", Name: "initialize printer", Raw: []byte{0x1B, 0x40}}}
	if !reflect.DeepEqual(commands, want) {
		t.Fatalf("got %+v, want %+v", commands, want)
	}
	if len(replies) != 0 {
		t.Fatalf("expected no replies, got %v", replies)
	}
}

func TestScenario2SelectPrintMode(t *testing.T) {
	d := New()
	commands, _ := d.Feed([]byte{0x1B, 0x21, 0x30})
	if len(commands) != 1 {
		t.Fatalf("expected one record, got %d", len(commands))
	}
	rec := commands[0]
	if rec.Mnemonic != "ESC !" {
		t.Fatalf("mnemonic = %q", rec.Mnemonic)
	}
	if rec.Params != "n=0x30 (double-height, double-width)" {
		t.Fatalf("params = %q", rec.Params)
	}
}

func TestScenario3RealtimeStatus(t *testing.T) {
	d := New()
	commands, replies := d.Feed([]byte{0x10, 0x04, 0x01})
	if len(commands) != 1 || commands[0].Mnemonic != "DLE EOT" {
		t.Fatalf("got %+v", commands)
	}
	if commands[0].Params != "n=1 (printer status)" {
		t.Fatalf("params = %q", commands[0].Params)
	}
	if len(replies) != 1 || !bytes.Equal(replies[0], []byte{0x16}) {
		t.Fatalf("reply = %v", replies)
	}
}

func TestScenario4TransmitPrinterID(t *testing.T) {
	d := New()
	commands, replies := d.Feed([]byte{0x1D, 0x49, 0x01})
	if len(commands) != 1 || commands[0].Mnemonic != "GS I" {
		t.Fatalf("got %+v", commands)
	}
	if len(replies) != 1 || !bytes.Equal(replies[0], []byte("BT-B36")) {
		t.Fatalf("reply = %q", replies[0])
	}
}

func TestScenario5TextRunAndSplit(t *testing.T) {
	input := []byte{0x1B, 0x61, 0x01, 0x48, 0x65, 0x6C, 0x6C, 0x6F, 0x0A}

	whole := New()
	commands, _ := whole.Feed(input)
	assertScenario5(t, commands)

	split := New()
	first, _ := split.Feed(input[:3])
	if len(first) != 1 || first[0].Mnemonic != "ESC a" {
		t.Fatalf("expected only the completed ESC a record from the first chunk, got %+v", first)
	}
	second, _ := split.Feed(input[3:])
	assertScenario5(t, append(first, second...))
}

func assertScenario5(t *testing.T, commands []CommandRecord) {
	t.Helper()
	if len(commands) != 3 {
		t.Fatalf("expected 3 records, got %d: %+v", len(commands), commands)
	}
	if commands[0].Mnemonic != "ESC a" || commands[0].Params != "n=1 (centre)" {
		t.Fatalf("record 0 = %+v", commands[0])
	}
	if commands[1].Mnemonic != "TEXT" || commands[1].Params != `"Hello"` {
		t.Fatalf("record 1 = %+v", commands[1])
	}
	if commands[2].Mnemonic != "LF" {
		t.Fatalf("record 2 = %+v", commands[2])
	}
}

func TestScenario6RasterImage(t *testing.T) {
	d := New()
	input := []byte{0x1D, 0x76, 0x30, 0x00, 0x02, 0x00, 0x01, 0x00, 0xAA, 0xBB}
	commands, replies := d.Feed(input)
	if len(commands) != 1 {
		t.Fatalf("got %+v", commands)
	}
	rec := commands[0]
	if rec.Mnemonic != "GS v 0" {
		t.Fatalf("mnemonic = %q", rec.Mnemonic)
	}
	want := "m=0, width=16, height=1, data=2 bytes"
	if rec.Params != want {
		t.Fatalf("params = %q, want %q", rec.Params, want)
	}
	if len(replies) != 0 {
		t.Fatalf("expected no replies, got %v", replies)
	}
	if !bytes.Equal(rec.Raw, input) {
		t.Fatalf("raw = % X, want % X", rec.Raw, input)
	}
}

func TestChunkingInvariance(t *testing.T) {
	stream := []byte{
		0x1B, 0x40,
		0x1B, 0x61, 0x01, 'H', 'i', 0x0A,
		0x10, 0x04, 0x01,
		0x1D, 0x76, 0x30, 0x00, 0x01, 0x00, 0x01, 0x00, 0xFF,
		0x1B, 0x44, 4, 8, 12, 0x00,
		0x1D, 0x6B, 0x02, 'A', 'B', 0x00,
	}

	whole := New()
	wantCommands, wantReplies := whole.Feed(stream)

	oneByte := New()
	var gotCommands []CommandRecord
	var gotReplies [][]byte
	for i := range stream {
		c, r := oneByte.Feed(stream[i : i+1])
		gotCommands = append(gotCommands, c...)
		gotReplies = append(gotReplies, r...)
	}

	if !reflect.DeepEqual(wantCommands, gotCommands) {
		t.Fatalf("byte-at-a-time commands differ:\nwhole=%+v\nbyte=%+v", wantCommands, gotCommands)
	}
	if !reflect.DeepEqual(wantReplies, gotReplies) {
		t.Fatalf("byte-at-a-time replies differ:\nwhole=%v\nbyte=%v", wantReplies, gotReplies)
	}

	// Split at a few arbitrary, not-necessarily-command-aligned points.
	for _, cut := range []int{1, 5, 9, 17, len(stream) - 2} {
		fresh := New()
		a, ra := fresh.Feed(stream[:cut])
		b, rb := fresh.Feed(stream[cut:])
		gotC := append(a, b...)
		gotR := append(ra, rb...)
		if !reflect.DeepEqual(wantCommands, gotC) {
			t.Fatalf("split at %d: commands differ:\nwhole=%+v\nsplit=%+v", cut, wantCommands, gotC)
		}
		if !reflect.DeepEqual(wantReplies, gotR) {
			t.Fatalf("split at %d: replies differ:\nwhole=%v\nsplit=%v", cut, wantReplies, gotR)
		}
	}
}

func TestRawByteConservation(t *testing.T) {
	stream := []byte{
		0x1B, 0x40,
		'a', 'b', 'c',
		0x0D,
		0x1D, 0x49, 0x02,
	}
	d := New()
	commands, _ := d.Feed(stream)

	var rebuilt []byte
	for _, c := range commands {
		rebuilt = append(rebuilt, c.Raw...)
	}
	if !bytes.Equal(rebuilt, stream) {
		t.Fatalf("concatenated raw = % X, want % X", rebuilt, stream)
	}
}

func TestEscBReversePrintMode(t *testing.T) {
	d := New()
	commands, _ := d.Feed([]byte{0x1B, 0x42, 0x01})
	if len(commands) != 1 || commands[0].Mnemonic != "ESC B" {
		t.Fatalf("got %+v", commands)
	}
	if commands[0].Params != "enabled" {
		t.Fatalf("params = %q", commands[0].Params)
	}
}

func TestEscGDoubleStrikeMode(t *testing.T) {
	d := New()
	commands, _ := d.Feed([]byte{0x1B, 0x47, 0x00})
	if len(commands) != 1 || commands[0].Mnemonic != "ESC G" {
		t.Fatalf("got %+v", commands)
	}
	if commands[0].Params != "disabled" {
		t.Fatalf("params = %q", commands[0].Params)
	}
}

func TestUnknownEscOpcodeRecoversAndContinues(t *testing.T) {
	d := New()
	commands, _ := d.Feed([]byte{0x1B, 0xFE, 0x0D})
	if len(commands) != 2 {
		t.Fatalf("expected 2 records, got %+v", commands)
	}
	if commands[0].Mnemonic != "ESC 0xFE" || commands[0].Name != "unknown ESC command" {
		t.Fatalf("record 0 = %+v", commands[0])
	}
	if commands[1].Mnemonic != "CR" {
		t.Fatalf("record 1 = %+v", commands[1])
	}
}

func TestEscDNoTabsBeforeNUL(t *testing.T) {
	d := New()
	commands, _ := d.Feed([]byte{0x1B, 0x44, 0x00})
	if len(commands) != 1 {
		t.Fatalf("expected one record, got %+v", commands)
	}
	if commands[0].Params != "clear tab stops" {
		t.Fatalf("params = %q", commands[0].Params)
	}
}

func TestEscDCollectsTabStops(t *testing.T) {
	d := New()
	commands, _ := d.Feed([]byte{0x1B, 0x44, 8, 16, 24, 0x00})
	if len(commands) != 1 {
		t.Fatalf("expected one record, got %+v", commands)
	}
	if commands[0].Params != "tabs=8,16,24" {
		t.Fatalf("params = %q", commands[0].Params)
	}
}

func TestEscStarZeroColumns(t *testing.T) {
	d := New()
	commands, _ := d.Feed([]byte{0x1B, 0x2A, 0x00, 0x00, 0x00})
	if len(commands) != 1 {
		t.Fatalf("expected one record, got %+v", commands)
	}
	if commands[0].Mnemonic != "ESC *" || commands[0].Params != "m=0, columns=0, data=0 bytes" {
		t.Fatalf("record = %+v", commands[0])
	}
}

func TestEscStarWithRasterData(t *testing.T) {
	d := New()
	input := []byte{0x1B, 0x2A, 0x00, 0x02, 0x00, 0xAA, 0xBB}
	commands, _ := d.Feed(input)
	if len(commands) != 1 {
		t.Fatalf("expected one record, got %+v", commands)
	}
	if commands[0].Params != "m=0, columns=2, data=2 bytes" {
		t.Fatalf("params = %q", commands[0].Params)
	}
	if !bytes.Equal(commands[0].Raw, input) {
		t.Fatalf("raw = % X", commands[0].Raw)
	}
}

func TestGsVFullCut(t *testing.T) {
	d := New()
	commands, _ := d.Feed([]byte{0x1D, 0x56, 0x00})
	if len(commands) != 1 || commands[0].Params != "full cut" {
		t.Fatalf("got %+v", commands)
	}
}

func TestGsVFeedThenCut(t *testing.T) {
	d := New()
	commands, _ := d.Feed([]byte{0x1D, 0x56, 65, 10})
	if len(commands) != 1 {
		t.Fatalf("got %+v", commands)
	}
	if commands[0].Params != "feed=10 dots, then full cut" {
		t.Fatalf("params = %q", commands[0].Params)
	}
}

func TestGsParenLGraphicsFunction(t *testing.T) {
	d := New()
	commands, _ := d.Feed([]byte{0x1D, 0x28, 0x4C, 0x02, 0x00, 0x01, 0x02})
	if len(commands) != 1 {
		t.Fatalf("got %+v", commands)
	}
	if commands[0].Mnemonic != "GS ( L" || commands[0].Params != "length=2, data=2 bytes" {
		t.Fatalf("record = %+v", commands[0])
	}
}

func TestGsParenExtendedFunction(t *testing.T) {
	d := New()
	commands, _ := d.Feed([]byte{0x1D, 0x28, 'k', 0x00, 0x00})
	if len(commands) != 1 {
		t.Fatalf("got %+v", commands)
	}
	if commands[0].Mnemonic != "GS ( k" || commands[0].Params != "length=0, data=0 bytes" {
		t.Fatalf("record = %+v", commands[0])
	}
}

func TestGsKBarcodeFormatA(t *testing.T) {
	d := New()
	commands, _ := d.Feed([]byte{0x1D, 'k', 0x02, '1', '2', '3', 0x00})
	if len(commands) != 1 {
		t.Fatalf("got %+v", commands)
	}
	if commands[0].Params != "type=2 (format A), data=3 bytes" {
		t.Fatalf("params = %q", commands[0].Params)
	}
}

func TestGsKBarcodeFormatB(t *testing.T) {
	d := New()
	commands, _ := d.Feed([]byte{0x1D, 'k', 0x08, 0x03, '1', '2', '3'})
	if len(commands) != 1 {
		t.Fatalf("got %+v", commands)
	}
	if commands[0].Params != "type=8 (format B), data=3 bytes" {
		t.Fatalf("params = %q", commands[0].Params)
	}
}

func TestGsAStoresASBFlagAndProducesNoReply(t *testing.T) {
	d := New()
	commands, replies := d.Feed([]byte{0x1D, 0x61, 0x07})
	if len(commands) != 1 || commands[0].Mnemonic != "GS a" {
		t.Fatalf("got %+v", commands)
	}
	if len(replies) != 0 {
		t.Fatalf("GS a must produce no reply, got %v", replies)
	}
	if d.ASBEnabled() != 0x07 {
		t.Fatalf("ASBEnabled() = %d, want 7", d.ASBEnabled())
	}
}

func TestGsVUnknownFollowByte(t *testing.T) {
	d := New()
	commands, replies := d.Feed([]byte{0x1D, 0x76, 0x01})
	if len(commands) != 1 {
		t.Fatalf("got %+v", commands)
	}
	if commands[0].Mnemonic != "GS v" || commands[0].Name != "unknown GS v" {
		t.Fatalf("record = %+v", commands[0])
	}
	if len(replies) != 0 {
		t.Fatalf("expected no reply, got %v", replies)
	}
}

func TestIdentityOverride(t *testing.T) {
	d := NewWithIdentity(Identity{Model: "TP-80", Firmware: "2.0.0"})
	_, replies := d.Feed([]byte{0x1D, 0x49, 0x03})
	if len(replies) != 1 || !bytes.Equal(replies[0], []byte("2.0.0")) {
		t.Fatalf("replies = %v", replies)
	}
}
