package fwpatch

// Translator maps addresses in the artifact's address space (for example
// flash at 0x08000000) to offsets in the loaded image.
type Translator struct {
	Base uint64
}

func (t Translator) Offset(addr uint64) int64 {
	return int64(addr - t.Base)
}

// Resolve returns the offset of [addr, addr+length) and fails if any part of
// it is outside an image of size bytes.
func (t Translator) Resolve(addr uint64, length int, size int) (int, error) {
	rel := addr - t.Base
	if addr < t.Base || length < 0 || rel > uint64(size) || rel+uint64(length) > uint64(size) {
		return 0, &RangeError{
			Address: addr,
			Offset:  t.Offset(addr),
			Length:  length,
			Size:    size,
		}
	}
	return int(rel), nil
}
