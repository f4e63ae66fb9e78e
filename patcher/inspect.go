package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/BertoldVdb/fw-patcher/fwpatch"
	"github.com/BertoldVdb/fw-patcher/imagefile"
	"github.com/BertoldVdb/fw-patcher/patchfile"
	"github.com/fatih/color"
	"github.com/inancgumus/screen"
	"github.com/mattn/go-isatty"
)

type InspectCmd struct {
	Input string `arg:"" name:"input" type:"existingfile" help:"Image to inspect."`

	Context int  `optional:"" help:"Bytes of context around each region." default:"8"`
	Loop    bool `optional:"" help:"Reload and redraw every 200ms until interrupted."`
}

func regionState(engine *fwpatch.Engine, image []byte, r fwpatch.Record) (string, error) {
	outcome, err := engine.Classify(image, fwpatch.List{r})
	if err != nil {
		return "", err
	}
	if !outcome.Committed() {
		return color.RedString("MISMATCH"), nil
	}
	if outcome.Decisions[0].Kind == fwpatch.AlreadyApplied {
		return color.GreenString("patched"), nil
	}
	return color.YellowString("original"), nil
}

// inspect dumps every region of set with some context. Bytes that differ
// from the expected sequence are marked.
func inspect(w io.Writer, image []byte, set *patchfile.Set, context int) error {
	list, err := set.List()
	if err != nil {
		return err
	}

	engine := fwpatch.New(fwpatch.Config{Translator: set.Translator()})
	region := fwpatch.NewRegion(image, set.Translator())

	fmt.Fprintf(w, "%s (base 0x%08X, %d bytes)\n\n", set.Name, uint64(set.Base), len(image))
	for _, r := range list {
		state, err := regionState(engine, image, r)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "0x%08X %-8s %s\n", r.Address, state, r.Description)

		/* Clamp the context window to the image */
		start := r.Address - uint64(context)
		if r.Address < region.GetBase()+uint64(context) {
			start = region.GetBase()
		}
		end := r.End() + uint64(context)
		if limit := region.GetBase() + uint64(region.GetLength()); end > limit {
			end = limit
		}

		buf, err := fwpatch.ReadBytes(region, start, int(end-start))
		if err != nil {
			return err
		}

		mark := make([]bool, len(buf))
		for i := range r.Expected {
			idx := int(r.Address-start) + i
			mark[idx] = buf[idx] != r.Expected[i]
		}

		fmt.Fprintln(w, hexdump(start, buf, mark))
	}

	return nil
}

func (l *InspectCmd) Run(c *Context) error {
	if l.Context < 0 {
		return errors.New("Context must not be negative")
	}

	set, err := c.loadSet()
	if err != nil {
		return err
	}

	if l.Loop && !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		return errors.New("Loop needs a terminal")
	}

	for {
		startTime := time.Now()

		image, err := imagefile.Load(l.Input)
		if err != nil {
			return err
		}

		if l.Loop {
			screen.Clear()
			screen.MoveTopLeft()
		}
		if err := inspect(c.out, image, set, l.Context); err != nil {
			return err
		}

		if !l.Loop {
			break
		}
		d := time.Now().Sub(startTime)
		td := 200 * time.Millisecond
		if d < td {
			time.Sleep(td - d)
		}
	}

	return nil
}
