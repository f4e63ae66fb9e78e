package fwpatch

import "sort"

// Record is one byte-level edit: at Address, Expected must be present (or
// Replacement already is) before Replacement is written.
type Record struct {
	Address     uint64
	Expected    []byte
	Replacement []byte
	Description string
}

func (r Record) Len() int {
	return len(r.Replacement)
}

func (r Record) End() uint64 {
	return r.Address + uint64(r.Len())
}

// List is an ordered set of records. Order only matters for processing and
// reporting, regions never overlap.
type List []Record

func (r Record) validate() error {
	if len(r.Expected) == 0 || len(r.Replacement) == 0 {
		return configErrorf("0x%08X (%s): empty byte sequence", r.Address, r.Description)
	}
	if len(r.Expected) != len(r.Replacement) {
		return configErrorf("0x%08X (%s): expected is %d bytes, replacement is %d bytes",
			r.Address, r.Description, len(r.Expected), len(r.Replacement))
	}
	return nil
}

// Validate checks the record shapes and that no two records touch the same
// byte. It does not look at any image.
func (l List) Validate() error {
	for _, r := range l {
		if err := r.validate(); err != nil {
			return err
		}
	}

	sorted := make([]int, len(l))
	for i := range sorted {
		sorted[i] = i
	}
	sort.SliceStable(sorted, func(a, b int) bool {
		return l[sorted[a]].Address < l[sorted[b]].Address
	})

	for i := 1; i < len(sorted); i++ {
		prev, cur := l[sorted[i-1]], l[sorted[i]]
		if cur.Address < prev.End() {
			return configErrorf("0x%08X (%s) overlaps 0x%08X (%s)",
				cur.Address, cur.Description, prev.Address, prev.Description)
		}
	}

	return nil
}
