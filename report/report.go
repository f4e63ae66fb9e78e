// Package report renders patch decisions, both as the progress lines shown
// while patching and as the audit trail stored next to the output image.
package report

import (
	"bufio"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/BertoldVdb/fw-patcher/fwpatch"
)

const Suffix = ".patch.txt"

var ErrorNotCommitted = errors.New("no audit trail for an aborted run")

// Path returns the audit trail filename belonging to an output image.
func Path(output string) string {
	return output + Suffix
}

func SkipLine(r fwpatch.Record) string {
	return fmt.Sprintf("%s @ 0x%08X already patched", r.Description, r.Address)
}

func PatchLine(r fwpatch.Record) string {
	return fmt.Sprintf("0x%08X : %s -> %s  ; %s", r.Address,
		hex.EncodeToString(r.Expected), hex.EncodeToString(r.Replacement), r.Description)
}

// Line is the audit trail entry for one decision. It records the configured
// transformation and what actually happened to the region.
func Line(d fwpatch.Decision) string {
	r := d.Record
	return fmt.Sprintf("0x%08X (off 0x%X): %s -> %s ; %s [%s]", r.Address, d.Offset,
		hex.EncodeToString(r.Expected), hex.EncodeToString(r.Replacement), r.Description, d.Kind)
}

// Write emits the audit trail of a committed outcome: the title, a blank
// line and one Line per record in list order.
func Write(w io.Writer, title string, outcome *fwpatch.Outcome) error {
	if !outcome.Committed() {
		return ErrorNotCommitted
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s\n\n", title)
	for _, d := range outcome.Decisions {
		fmt.Fprintln(bw, Line(d))
	}
	return bw.Flush()
}
