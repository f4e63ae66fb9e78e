package main

import (
	"io"
	"os"

	"github.com/BertoldVdb/fw-patcher/fingerprint"
	"github.com/BertoldVdb/fw-patcher/fwpatch"
	"github.com/BertoldVdb/fw-patcher/logflags"
	"github.com/BertoldVdb/fw-patcher/patchfile"
	"github.com/alecthomas/kong"
	"github.com/mattn/go-colorable"
)

type Context struct {
	out io.Writer
	log logflags.Logger
}

var CLI struct {
	LogLevel int `optional:"" help:"Higher values give more output."`

	Patches string  `optional:"" type:"existingfile" help:"Patch set file (YAML), overrides --set."`
	Set     string  `optional:"" help:"Built-in patch set." default:"exquis-devexpr-core-v4"`
	Base    *uint64 `optional:"" type:"hex" help:"Override the base address of the patch set."`
	Digest  string  `optional:"" help:"Fingerprint algorithm." enum:"sha256,sha3-256,blake3" default:"sha256"`

	Apply   ApplyCmd   `cmd:"" default:"withargs" help:"Verify and apply the patch set (default)."`
	Check   CheckCmd   `cmd:"" help:"Verify the patch set without writing anything."`
	Inspect InspectCmd `cmd:"" help:"Hexdump every patched region of an image."`

	ListPatches ListPatchesCmd `cmd:"" help:"List the records of the patch set."`
	ListSets    ListSetsCmd    `cmd:"" help:"List built-in patch sets."`
	History     HistoryCmd     `cmd:"" help:"List runs recorded in a history database."`
}

func (c *Context) loadSet() (*patchfile.Set, error) {
	var set *patchfile.Set
	var err error
	if CLI.Patches != "" {
		set, err = patchfile.Load(CLI.Patches)
	} else {
		set, err = patchfile.Builtin(CLI.Set)
	}
	if err != nil {
		return nil, err
	}

	if CLI.Base != nil {
		c.logFunc()(1, "Base address overridden: 0x%08X -> 0x%08X", uint64(set.Base), *CLI.Base)
		set.Base = patchfile.Address(*CLI.Base)
	}
	return set, nil
}

func (c *Context) logFunc() fwpatch.LogFunc {
	return logflags.LogFunc(c.log, "patch", CLI.LogLevel)
}

func (c *Context) digest() fingerprint.Algorithm {
	a, err := fingerprint.Parse(CLI.Digest)
	if err != nil {
		return fingerprint.Default
	}
	return a
}

func main() {
	k, err := kong.New(&CLI,
		kong.Name("patcher"),
		kong.Description("Verify and apply fixed-width byte patches to a firmware image."),
		kong.NamedMapper("int", intMapper{}),
		kong.NamedMapper("hex", intMapper{base: 16}))
	if err != nil {
		panic(err)
	}

	ctx, err := k.Parse(os.Args[1:])
	k.FatalIfErrorf(err)

	c := &Context{
		out: colorable.NewColorableStdout(),
		log: logflags.New(colorable.NewColorableStderr(), CLI.LogLevel > 0),
	}

	err = ctx.Run(c)
	c.log.Sync()
	ctx.FatalIfErrorf(err)
}
