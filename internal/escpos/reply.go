package escpos

// Identity holds the emulator's self-reported identity strings and
// defaults, consulted by the response generator when building a reply to
// GS I (transmit printer ID). The response generator only reads it
// (spec.md §4.4); ASB enablement, the one piece of emulator state the
// generator writes, lives on Decoder.
type Identity struct {
	Model    string
	Firmware string
}

// DefaultIdentity returns the identity strings this emulator reports by
// default, matching the BT-B36 thermal printer the emulator impersonates.
func DefaultIdentity() Identity {
	return Identity{Model: "BT-B36", Firmware: "0.1.3"}
}

// generateReply is the pure response generator of spec.md §4.4: given a
// completed command's mnemonic and raw bytes plus the small slice of
// mutable emulator state it needs, it returns the reply bytes (if any)
// the emulated printer must send back. asbEnabled is read AND written
// here (GS a stores, nothing else does), which is why it is passed by
// pointer; every other mnemonic treats the emulator state as read-only.
func generateReply(mnemonic string, raw []byte, asbEnabled *byte, identity Identity) []byte {
	switch mnemonic {
	case "DLE EOT":
		if len(raw) < 3 {
			return nil
		}
		switch raw[2] {
		case 1:
			return []byte{0x16}
		case 2, 3, 4:
			return []byte{0x12}
		default:
			return nil
		}
	case "GS I":
		if len(raw) < 3 {
			return nil
		}
		switch raw[2] {
		case 1:
			return []byte(identity.Model)
		case 2:
			return []byte{0x02}
		case 3:
			return []byte(identity.Firmware)
		default:
			return nil
		}
	case "GS r":
		if len(raw) < 3 {
			return nil
		}
		switch raw[2] {
		case 1, 2:
			return []byte{0x00}
		default:
			return nil
		}
	case "GS a":
		if len(raw) >= 3 && asbEnabled != nil {
			*asbEnabled = raw[2]
		}
		return nil
	case "ESC v":
		return []byte{0x00}
	default:
		return nil
	}
}
