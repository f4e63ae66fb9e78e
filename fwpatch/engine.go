package fwpatch

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

type LogFunc func(level int, format string, param ...interface{})

type Config struct {
	Translator Translator

	LogFunc LogFunc
}

type Engine struct {
	config Config
}

func New(config Config) *Engine {
	return &Engine{
		config: config,
	}
}

func (e *Engine) log(level int, format string, param ...interface{}) {
	if e.config.LogFunc != nil {
		e.config.LogFunc(level, format, param...)
	}
}

type Kind int

const (
	Applied Kind = iota
	AlreadyApplied
)

func (k Kind) String() string {
	switch k {
	case Applied:
		return "applied"
	case AlreadyApplied:
		return "already-applied"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

type Decision struct {
	Record Record
	Offset int
	Kind   Kind
}

// Outcome is the result of a run. It is committed only if Mismatch is nil,
// in which case Decisions holds one entry per record in list order. For an
// aborted run Decisions holds the records classified before the mismatch.
type Outcome struct {
	Decisions []Decision
	Mismatch  *MismatchError
}

func (o *Outcome) Committed() bool {
	return o.Mismatch == nil
}

// Err returns the mismatch as an error, or nil for a committed outcome.
func (o *Outcome) Err() error {
	if o.Mismatch == nil {
		return nil
	}
	return o.Mismatch
}

func (o *Outcome) Count(kind Kind) int {
	n := 0
	for _, d := range o.Decisions {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

// Apply checks every record against image and, if all of them hold either
// their expected or their replacement bytes, writes the replacements in
// place. A returned error means the list itself is unusable for this image
// (bad shape, overlap or out of range) and nothing was classified.
//
// On a mismatch the image is not modified.
func (e *Engine) Apply(image []byte, list List) (*Outcome, error) {
	outcome, err := e.Classify(image, list)
	if err != nil || !outcome.Committed() {
		return outcome, err
	}

	region := NewRegion(image, e.config.Translator)
	for _, d := range outcome.Decisions {
		if d.Kind != Applied {
			continue
		}
		if err := WriteBytes(region, d.Record.Address, d.Record.Replacement); err != nil {
			return nil, err
		}
		e.log(2, "Wrote %d bytes at 0x%08X (off 0x%X): %s",
			d.Record.Len(), d.Record.Address, d.Offset, hex.EncodeToString(d.Record.Replacement))
	}

	return outcome, nil
}

// Classify performs the checks of Apply without writing anything.
func (e *Engine) Classify(image []byte, list List) (*Outcome, error) {
	if err := list.Validate(); err != nil {
		return nil, err
	}

	/* Resolve everything first so a bad address fails before any decision */
	offsets := make([]int, len(list))
	for i, r := range list {
		offset, err := e.config.Translator.Resolve(r.Address, r.Len(), len(image))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r.Description, err)
		}
		offsets[i] = offset
	}

	region := NewRegion(image, e.config.Translator)
	outcome := &Outcome{
		Decisions: make([]Decision, 0, len(list)),
	}

	for i, r := range list {
		cur, err := ReadBytes(region, r.Address, r.Len())
		if err != nil {
			return nil, err
		}

		if bytes.Equal(cur, r.Replacement) {
			e.log(1, "0x%08X already holds %s (%s)", r.Address, hex.EncodeToString(cur), r.Description)
			outcome.Decisions = append(outcome.Decisions, Decision{Record: r, Offset: offsets[i], Kind: AlreadyApplied})
			continue
		}

		/* Expected and replacement have the same length, cur covers both */
		if !bytes.Equal(cur, r.Expected) {
			e.log(1, "0x%08X holds %s, expected %s (%s)", r.Address, hex.EncodeToString(cur), hex.EncodeToString(r.Expected), r.Description)
			outcome.Mismatch = &MismatchError{
				Record: r,
				Offset: offsets[i],
				Found:  cur,
			}
			return outcome, nil
		}

		e.log(1, "0x%08X: %s -> %s (%s)", r.Address, hex.EncodeToString(r.Expected), hex.EncodeToString(r.Replacement), r.Description)
		outcome.Decisions = append(outcome.Decisions, Decision{Record: r, Offset: offsets[i], Kind: Applied})
	}

	return outcome, nil
}
