package fwpatch

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

const testBase = 0x08000000

var forceFalse = []byte{0x00, 0x20, 0x00, 0xBF}

func testImage(size int) []byte {
	img := make([]byte, size)
	for i := range img {
		img[i] = byte(i * 7)
	}
	return img
}

func testList() List {
	return List{
		{Address: 0x08000010, Expected: []byte{0xDB, 0xF7, 0x75, 0xF9}, Replacement: forceFalse, Description: "first"},
		{Address: 0x08000040, Expected: []byte{0xDA, 0xF7, 0x98, 0xFF}, Replacement: forceFalse, Description: "second"},
	}
}

func plant(img []byte, list List) {
	for _, r := range list {
		copy(img[r.Address-testBase:], r.Expected)
	}
}

func testEngine() *Engine {
	return New(Config{Translator: Translator{Base: testBase}})
}

func TestApplyScenario(t *testing.T) {
	img := testImage(0x30000)
	copy(img[0x25632:], []byte{0xDB, 0xF7, 0x75, 0xF9})

	list := List{{
		Address:     0x08025632,
		Expected:    []byte{0xDB, 0xF7, 0x75, 0xF9},
		Replacement: forceFalse,
		Description: "pad_try_activate",
	}}

	out, err := testEngine().Apply(img, list)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if !out.Committed() {
		t.Fatalf("unexpected mismatch: %v", out.Mismatch)
	}
	if len(out.Decisions) != 1 || out.Decisions[0].Kind != Applied || out.Decisions[0].Offset != 0x25632 {
		t.Fatalf("unexpected decisions %+v", out.Decisions)
	}
	if !bytes.Equal(img[0x25632:0x25636], forceFalse) {
		t.Errorf("replacement not written: %x", img[0x25632:0x25636])
	}

	/* Second run on the result is a no-op */
	again := append([]byte(nil), img...)
	out, err = testEngine().Apply(again, list)
	if err != nil {
		t.Fatalf("re-apply failed: %v", err)
	}
	if out.Decisions[0].Kind != AlreadyApplied {
		t.Errorf("expected already-applied, got %v", out.Decisions[0].Kind)
	}
	if !bytes.Equal(again, img) {
		t.Error("re-apply modified the image")
	}
}

func TestApplyMismatch(t *testing.T) {
	img := testImage(0x30000)
	copy(img[0x25632:], []byte{0xAA, 0xBB, 0xCC, 0xDD})
	orig := append([]byte(nil), img...)

	list := List{{
		Address:     0x08025632,
		Expected:    []byte{0xDB, 0xF7, 0x75, 0xF9},
		Replacement: forceFalse,
		Description: "pad_try_activate",
	}}

	out, err := testEngine().Apply(img, list)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if out.Committed() {
		t.Fatal("mismatch was not detected")
	}
	if !errors.Is(out.Err(), ErrorByteMismatch) {
		t.Errorf("error does not wrap ErrorByteMismatch: %v", out.Err())
	}
	if !bytes.Equal(out.Mismatch.Found, []byte{0xAA, 0xBB, 0xCC, 0xDD}) {
		t.Errorf("wrong found bytes %x", out.Mismatch.Found)
	}

	msg := out.Err().Error()
	for _, want := range []string{"0x08025632", "dbf775f9", "aabbccdd", "002000bf", "pad_try_activate"} {
		if !strings.Contains(msg, want) {
			t.Errorf("diagnostic %q does not mention %q", msg, want)
		}
	}
	if !bytes.Equal(img, orig) {
		t.Error("image modified by aborted run")
	}
}

func TestApplyStopsAtFirstMismatch(t *testing.T) {
	img := testImage(0x100)
	list := testList()
	plant(img, list[:1])
	list = append(list, Record{Address: 0x08000080, Expected: []byte{1}, Replacement: []byte{2}, Description: "third"})
	orig := append([]byte(nil), img...)

	out, err := testEngine().Apply(img, list)
	if err != nil {
		t.Fatalf("apply failed: %v", err)
	}
	if out.Committed() {
		t.Fatal("expected abort")
	}
	if len(out.Decisions) != 1 || out.Mismatch.Record.Description != "second" {
		t.Errorf("unexpected outcome: %d decisions, mismatch at %s", len(out.Decisions), out.Mismatch.Record.Description)
	}
	if !bytes.Equal(img, orig) {
		t.Error("first record was written although the run aborted")
	}
}

func TestApplyNonInterference(t *testing.T) {
	img := testImage(0x100)
	list := testList()
	plant(img, list)
	orig := append([]byte(nil), img...)

	out, err := testEngine().Apply(img, list)
	if err != nil || !out.Committed() {
		t.Fatalf("apply failed: %v %v", err, out.Err())
	}
	if out.Count(Applied) != 2 || out.Count(AlreadyApplied) != 0 {
		t.Errorf("unexpected counts %d/%d", out.Count(Applied), out.Count(AlreadyApplied))
	}

	touched := make([]bool, len(img))
	for _, r := range list {
		off := int(r.Address - testBase)
		if !bytes.Equal(img[off:off+r.Len()], r.Replacement) {
			t.Errorf("%s: got %x", r.Description, img[off:off+r.Len()])
		}
		for i := off; i < off+r.Len(); i++ {
			touched[i] = true
		}
	}
	for i := range img {
		if !touched[i] && img[i] != orig[i] {
			t.Fatalf("byte %d changed outside patched regions", i)
		}
	}
}

func TestApplyMixed(t *testing.T) {
	img := testImage(0x100)
	list := testList()
	plant(img, list)
	copy(img[0x40:], forceFalse)

	out, err := testEngine().Apply(img, list)
	if err != nil || !out.Committed() {
		t.Fatalf("apply failed: %v %v", err, out.Err())
	}
	if out.Decisions[0].Kind != Applied || out.Decisions[1].Kind != AlreadyApplied {
		t.Errorf("unexpected decisions %v %v", out.Decisions[0].Kind, out.Decisions[1].Kind)
	}
}

func TestApplyConfigurationErrors(t *testing.T) {
	tests := []struct {
		name string
		list List
		want error
	}{
		{"length", List{{Address: testBase, Expected: []byte{1, 2}, Replacement: []byte{3}}}, ErrorConfiguration},
		{"empty", List{{Address: testBase}}, ErrorConfiguration},
		{"overlap", List{
			{Address: testBase + 4, Expected: []byte{1, 2, 3, 4}, Replacement: []byte{5, 6, 7, 8}},
			{Address: testBase + 2, Expected: []byte{1, 2, 3, 4}, Replacement: []byte{5, 6, 7, 8}},
		}, ErrorConfiguration},
		{"below base", List{{Address: testBase - 1, Expected: []byte{1}, Replacement: []byte{2}}}, ErrorOutOfRange},
		{"past end", List{{Address: testBase + 0xFE, Expected: []byte{1, 2, 3}, Replacement: []byte{4, 5, 6}}}, ErrorOutOfRange},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			img := testImage(0x100)
			orig := append([]byte(nil), img...)
			out, err := testEngine().Apply(img, tc.list)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if out != nil {
				t.Error("outcome returned together with error")
			}
			if !bytes.Equal(img, orig) {
				t.Error("image modified")
			}
		})
	}
}

func TestAdjacentRecordsDoNotOverlap(t *testing.T) {
	list := List{
		{Address: testBase, Expected: []byte{1, 2}, Replacement: []byte{3, 4}},
		{Address: testBase + 2, Expected: []byte{1, 2}, Replacement: []byte{3, 4}},
	}
	if err := list.Validate(); err != nil {
		t.Fatalf("adjacent records rejected: %v", err)
	}
}

func TestClassifyDoesNotWrite(t *testing.T) {
	img := testImage(0x100)
	list := testList()
	plant(img, list)
	orig := append([]byte(nil), img...)

	out, err := testEngine().Classify(img, list)
	if err != nil || !out.Committed() {
		t.Fatalf("classify failed: %v %v", err, out.Err())
	}
	if out.Count(Applied) != 2 {
		t.Errorf("expected 2 pending records, got %d", out.Count(Applied))
	}
	if !bytes.Equal(img, orig) {
		t.Error("classify modified the image")
	}
}

func TestLogFunc(t *testing.T) {
	img := testImage(0x100)
	list := testList()
	plant(img, list)

	var levels []int
	e := New(Config{
		Translator: Translator{Base: testBase},
		LogFunc: func(level int, format string, param ...interface{}) {
			levels = append(levels, level)
		},
	})
	if _, err := e.Apply(img, list); err != nil {
		t.Fatal(err)
	}
	if len(levels) != 4 {
		t.Errorf("expected 2 decision and 2 write messages, got %v", levels)
	}
}
