package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/BertoldVdb/fw-patcher/patchfile"
	"github.com/alecthomas/kong"
)

func TestIntMapper(t *testing.T) {
	var cli struct {
		Base  *uint64 `optional:"" type:"hex"`
		Count int     `optional:"" type:"int"`
	}

	k, err := kong.New(&cli,
		kong.NamedMapper("int", intMapper{}),
		kong.NamedMapper("hex", intMapper{base: 16}))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := k.Parse([]string{"--count", "0x10"}); err != nil {
		t.Fatal(err)
	}
	if cli.Base != nil || cli.Count != 16 {
		t.Errorf("unexpected values %v %d", cli.Base, cli.Count)
	}

	if _, err := k.Parse([]string{"--base", "0x0800_0000"}); err != nil {
		t.Fatal(err)
	}
	if cli.Base == nil || *cli.Base != 0x08000000 {
		t.Errorf("base not decoded: %v", cli.Base)
	}

	if _, err := k.Parse([]string{"--base", "xyz"}); err == nil {
		t.Error("invalid hex accepted")
	}
}

func testImage(t *testing.T, set *patchfile.Set, patched int) []byte {
	t.Helper()

	list, err := set.List()
	if err != nil {
		t.Fatal(err)
	}

	img := make([]byte, 0x27000)
	for i, r := range list {
		data := r.Expected
		if i < patched {
			data = r.Replacement
		}
		copy(img[r.Address-uint64(set.Base):], data)
	}
	return img
}

func TestInspect(t *testing.T) {
	set, err := patchfile.Builtin(patchfile.DefaultSet)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := inspect(&buf, testImage(t, set, 1), set, 4); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, "0x08025632 patched  pad_try_activate") {
		t.Errorf("first region not reported as patched:\n%s", out)
	}
	if !strings.Contains(out, "0x0802568C original pad_try_deactivate") {
		t.Errorf("second region not reported as original:\n%s", out)
	}
	if !strings.Contains(out, "0802562e  00 00 00 00 00 20 00 bf  00 00 00 00") {
		t.Errorf("hexdump of the first region missing:\n%s", out)
	}

	img := testImage(t, set, 0)
	img[0x25632] = 0xAA
	buf.Reset()
	if err := inspect(&buf, img, set, 0); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "0x08025632 MISMATCH") {
		t.Errorf("mismatch not reported:\n%s", buf.String())
	}
}

func TestListPatches(t *testing.T) {
	set, err := patchfile.Builtin(patchfile.DefaultSet)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := listPatches(&buf, set); err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 12 {
		t.Fatalf("expected 12 lines, got %d:\n%s", len(lines), buf.String())
	}
	want := "0x08025632 (off 0x25632): dbf775f9 -> 002000bf ; pad_try_activate: ignore MODE_MASK bit0 (allow activation)"
	if lines[4] != want {
		t.Errorf("got  %q\nwant %q", lines[4], want)
	}
}
