package fwpatch

import (
	"encoding/hex"
	"errors"
	"fmt"
)

var (
	ErrorByteMismatch  = errors.New("byte mismatch")
	ErrorOutOfRange    = errors.New("region is outside the image")
	ErrorConfiguration = errors.New("invalid patch configuration")
)

// MismatchError describes a region that holds neither the expected bytes
// nor the replacement.
type MismatchError struct {
	Record Record
	Offset int
	Found  []byte
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("byte mismatch @ 0x%08X (off 0x%X)\n"+
		"  expected: %s\n"+
		"  found:    %s\n"+
		"  repl:     %s\n"+
		"  desc:     %s",
		e.Record.Address, e.Offset,
		hex.EncodeToString(e.Record.Expected),
		hex.EncodeToString(e.Found),
		hex.EncodeToString(e.Record.Replacement),
		e.Record.Description)
}

func (e *MismatchError) Unwrap() error {
	return ErrorByteMismatch
}

type RangeError struct {
	Address uint64
	Offset  int64
	Length  int
	Size    int
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("0x%08X (off %d, %d bytes) does not fit in %d byte image", e.Address, e.Offset, e.Length, e.Size)
}

func (e *RangeError) Unwrap() error {
	return ErrorOutOfRange
}

func configErrorf(format string, param ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrorConfiguration, fmt.Sprintf(format, param...))
}
