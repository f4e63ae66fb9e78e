package fwpatch

// Region gives address based access to a flat image.
type Region interface {
	GetLength() int
	GetBase() uint64
	Access(write bool, addr uint64, buf []byte) (int, error)
}

type imageRegion struct {
	image      []byte
	translator Translator
}

// NewRegion wraps image. Accesses are translated with t and never clamped:
// a request that does not fit entirely fails with ErrorOutOfRange.
func NewRegion(image []byte, t Translator) Region {
	return imageRegion{
		image:      image,
		translator: t,
	}
}

func (m imageRegion) GetLength() int {
	return len(m.image)
}

func (m imageRegion) GetBase() uint64 {
	return m.translator.Base
}

func (m imageRegion) Access(write bool, addr uint64, buf []byte) (int, error) {
	offset, err := m.translator.Resolve(addr, len(buf), len(m.image))
	if err != nil {
		return 0, err
	}

	if write {
		return copy(m.image[offset:], buf), nil
	}
	return copy(buf, m.image[offset:]), nil
}

func ReadBytes(m Region, addr uint64, n int) ([]byte, error) {
	buf := make([]byte, n)
	_, err := m.Access(false, addr, buf)
	return buf, err
}

func WriteBytes(m Region, addr uint64, data []byte) error {
	_, err := m.Access(true, addr, data)
	return err
}
