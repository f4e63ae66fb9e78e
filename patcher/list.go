package main

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/BertoldVdb/fw-patcher/history"
	"github.com/BertoldVdb/fw-patcher/patchfile"
)

type ListPatchesCmd struct {
}

func listPatches(w io.Writer, set *patchfile.Set) error {
	list, err := set.List()
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s\n", set.Name)
	if set.Target != "" {
		fmt.Fprintf(w, "Target: %s\n", set.Target)
	}
	fmt.Fprintf(w, "Base:   0x%08X\n\n", uint64(set.Base))

	t := set.Translator()
	for _, r := range list {
		fmt.Fprintf(w, "0x%08X (off 0x%X): %s -> %s ; %s\n", r.Address, t.Offset(r.Address),
			hex.EncodeToString(r.Expected), hex.EncodeToString(r.Replacement), r.Description)
	}
	return nil
}

func (l *ListPatchesCmd) Run(c *Context) error {
	set, err := c.loadSet()
	if err != nil {
		return err
	}
	return listPatches(c.out, set)
}

type ListSetsCmd struct {
}

func (l *ListSetsCmd) Run(c *Context) error {
	for _, name := range patchfile.Builtins() {
		set, err := patchfile.Builtin(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "%-28s %s (%d patches)\n", name, set.Name, len(set.Patches))
	}
	return nil
}

type HistoryCmd struct {
	Database string `arg:"" name:"database" type:"existingfile" help:"History database written by apply --history."`
}

func (h *HistoryCmd) Run(c *Context) error {
	store, err := history.Open(h.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Runs()
	if err != nil {
		return err
	}

	for _, r := range runs {
		fmt.Fprintf(c.out, "%s  %s  %s\n", r.Time.Local().Format("2006-01-02 15:04:05"), r.ID, r.Set)
		fmt.Fprintf(c.out, "    %s -> %s (%d applied, %d already applied)\n", r.Input, r.Output, r.Applied, r.AlreadyApplied)
		fmt.Fprintf(c.out, "    %s %s -> %s\n", r.Digest, r.Before, r.After)
	}
	return nil
}
