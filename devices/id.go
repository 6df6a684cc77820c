package devices

import "fmt"

// ID is a 32-bit hardware identifier, as used for both the device id
// and the manufacturer code.
type ID uint32

// NewID creates a new id from its high and low words.
func NewID(hi, lo uint16) ID {
	return ID(hi)<<16 | ID(lo)
}

// Lo returns the low word of the id.
func (id ID) Lo() uint16 {
	return uint16(id)
}

// Hi returns the high word of the id.
func (id ID) Hi() uint16 {
	return uint16(id >> 16)
}

func (id ID) String() string {
	return fmt.Sprintf("%04x:%04x", id.Hi(), id.Lo())
}
