// Package job runs a patch set against an image file: load, fingerprint,
// verify and apply, then persist the image and its audit trail. Nothing is
// written unless every record verified.
package job

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/BertoldVdb/fw-patcher/fingerprint"
	"github.com/BertoldVdb/fw-patcher/fwpatch"
	"github.com/BertoldVdb/fw-patcher/history"
	"github.com/BertoldVdb/fw-patcher/imagefile"
	"github.com/BertoldVdb/fw-patcher/patchfile"
	"github.com/BertoldVdb/fw-patcher/report"
	"github.com/fatih/color"
	"github.com/google/uuid"
)

type Recorder interface {
	Record(run history.Run) error
	Produced(digest string) ([]history.Run, error)
}

type Options struct {
	Input  string
	Output string

	Set    *patchfile.Set
	Digest fingerprint.Algorithm

	Stdout  io.Writer
	LogFunc fwpatch.LogFunc
	History Recorder
}

type Result struct {
	ID      string
	Size    int
	Before  string
	After   string
	Outcome *fwpatch.Outcome

	ReportPath string
}

func (o *Options) log(level int, format string, param ...interface{}) {
	if o.LogFunc != nil {
		o.LogFunc(level, format, param...)
	}
}

type prepared struct {
	image  []byte
	list   fwpatch.List
	engine *fwpatch.Engine
	result *Result
}

func prepare(opts *Options) (*prepared, error) {
	if opts.Digest == "" {
		opts.Digest = fingerprint.Default
	}
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}

	list, err := opts.Set.List()
	if err != nil {
		return nil, err
	}

	image, err := imagefile.Load(opts.Input)
	if err != nil {
		return nil, err
	}

	before, err := fingerprint.Sum(opts.Digest, image)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(opts.Stdout, "IN:  %s (%d bytes) %s=%s\n", opts.Input, len(image), opts.Digest, before)

	if err := checkKnownInput(opts, image, before); err != nil {
		return nil, err
	}

	return &prepared{
		image: image,
		list:  list,
		engine: fwpatch.New(fwpatch.Config{
			Translator: opts.Set.Translator(),
			LogFunc:    opts.LogFunc,
		}),
		result: &Result{
			ID:     uuid.NewString(),
			Size:   len(image),
			Before: before,
		},
	}, nil
}

/* The set pins are sha256, whatever digest is displayed */
func checkKnownInput(opts *Options, image []byte, digest string) error {
	if len(opts.Set.KnownInputs) == 0 {
		return nil
	}

	if opts.Digest != fingerprint.SHA256 {
		var err error
		if digest, err = fingerprint.Sum(fingerprint.SHA256, image); err != nil {
			return err
		}
	}
	if opts.Set.IsKnownInput(digest) {
		return nil
	}

	if opts.History != nil {
		runs, err := opts.History.Produced(digest)
		if err != nil {
			return err
		}
		if len(runs) > 0 {
			opts.log(1, "Input was produced by run %s", runs[len(runs)-1].ID)
			return nil
		}
	}

	opts.log(0, "Input sha256 %s is not a known build for %q, relying on byte verification", digest, opts.Set.Name)
	return nil
}

func printDecisions(w io.Writer, outcome *fwpatch.Outcome) {
	tagPatch := color.New(color.FgGreen).Sprint("[patch]")
	tagSkip := color.New(color.FgYellow).Sprint("[skip]")

	for _, d := range outcome.Decisions {
		if d.Kind == fwpatch.AlreadyApplied {
			fmt.Fprintln(w, tagSkip, report.SkipLine(d.Record))
		} else {
			fmt.Fprintln(w, tagPatch, report.PatchLine(d.Record))
		}
	}
}

// Check classifies every record without modifying or writing anything.
func Check(opts Options) (*Result, error) {
	p, err := prepare(&opts)
	if err != nil {
		return nil, err
	}

	outcome, err := p.engine.Classify(p.image, p.list)
	if err != nil {
		return nil, err
	}
	p.result.Outcome = outcome

	printDecisions(opts.Stdout, outcome)
	return p.result, outcome.Err()
}

// Run applies the set and, only if the whole set verified, writes the
// patched image to Output and its audit trail next to it. A mismatch is
// returned as a *fwpatch.MismatchError together with the partial Result.
func Run(opts Options) (*Result, error) {
	p, err := prepare(&opts)
	if err != nil {
		return nil, err
	}

	outcome, err := p.engine.Apply(p.image, p.list)
	if err != nil {
		return nil, err
	}
	p.result.Outcome = outcome

	printDecisions(opts.Stdout, outcome)
	if !outcome.Committed() {
		return p.result, outcome.Err()
	}

	after, err := fingerprint.Sum(opts.Digest, p.image)
	if err != nil {
		return nil, err
	}
	p.result.After = after

	if err := imagefile.Write(opts.Output, p.image, 0644); err != nil {
		return nil, err
	}
	fmt.Fprintf(opts.Stdout, "OUT: %s %s=%s\n", opts.Output, opts.Digest, after)

	var trail bytes.Buffer
	if err := report.Write(&trail, opts.Set.Name, outcome); err != nil {
		return nil, err
	}
	p.result.ReportPath = report.Path(opts.Output)
	if err := imagefile.Write(p.result.ReportPath, trail.Bytes(), 0644); err != nil {
		return nil, err
	}
	fmt.Fprintf(opts.Stdout, "Wrote patch record: %s\n", p.result.ReportPath)

	if opts.History != nil {
		err := opts.History.Record(history.Run{
			ID:             p.result.ID,
			Time:           time.Now().UTC(),
			Set:            opts.Set.Name,
			Input:          opts.Input,
			Output:         opts.Output,
			Digest:         string(opts.Digest),
			Before:         p.result.Before,
			After:          after,
			Applied:        outcome.Count(fwpatch.Applied),
			AlreadyApplied: outcome.Count(fwpatch.AlreadyApplied),
		})
		if err != nil {
			return nil, fmt.Errorf("record history: %w", err)
		}
	}

	return p.result, nil
}
