package main

import (
	"fmt"

	"github.com/BertoldVdb/fw-patcher/fwpatch"
	"github.com/BertoldVdb/fw-patcher/history"
	"github.com/BertoldVdb/fw-patcher/job"
	"github.com/fatih/color"
)

type ApplyCmd struct {
	Input  string `arg:"" name:"input" type:"existingfile" help:"Image to patch."`
	Output string `arg:"" name:"output" type:"path" help:"Where to write the patched image, the audit trail goes next to it."`

	History string `optional:"" type:"path" help:"Record committed runs in this database."`
}

func (a *ApplyCmd) Run(c *Context) error {
	set, err := c.loadSet()
	if err != nil {
		return err
	}

	opts := job.Options{
		Input:   a.Input,
		Output:  a.Output,
		Set:     set,
		Digest:  c.digest(),
		Stdout:  c.out,
		LogFunc: c.logFunc(),
	}

	if a.History != "" {
		store, err := history.Open(a.History)
		if err != nil {
			return err
		}
		defer store.Close()
		opts.History = store
	}

	_, err = job.Run(opts)
	return err
}

type CheckCmd struct {
	Input string `arg:"" name:"input" type:"existingfile" help:"Image to verify."`
}

func (ch *CheckCmd) Run(c *Context) error {
	set, err := c.loadSet()
	if err != nil {
		return err
	}

	res, err := job.Check(job.Options{
		Input:   ch.Input,
		Set:     set,
		Digest:  c.digest(),
		Stdout:  c.out,
		LogFunc: c.logFunc(),
	})
	if err != nil {
		return err
	}

	if res.Outcome.Count(fwpatch.Applied) == 0 {
		fmt.Fprintln(c.out, color.GreenString("Image is already patched."))
	} else {
		fmt.Fprintln(c.out, color.GreenString("Patch can be applied."))
	}
	return nil
}
