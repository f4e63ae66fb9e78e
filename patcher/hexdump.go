package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

const hexdumpWidth = 16

// hexdump renders data starting at address addr. Bytes with mark set are
// printed in red.
func hexdump(addr uint64, data []byte, mark []bool) string {
	var result strings.Builder
	red := color.New(color.FgRed)

	for len(data) > 0 {
		l := len(data)
		if l > hexdumpWidth {
			l = hexdumpWidth
		}
		work := data[:l]
		data = data[l:]
		var workMark []bool
		if mark != nil {
			workMark = mark[:l]
			mark = mark[l:]
		}

		var workHex string
		var workAscii string
		for i := 0; i < hexdumpWidth; i++ {
			if i >= len(work) {
				workHex += "   "
				workAscii += " "
			} else {
				m := work[i]
				delta := workMark != nil && workMark[i]

				hexStr := fmt.Sprintf("%02x ", m)
				if m < 32 || m > 126 {
					m = '.'
				}
				asciiStr := string(rune(m))

				if delta {
					hexStr = red.Sprint(hexStr)
					asciiStr = red.Sprint(asciiStr)
				}
				workHex += hexStr
				workAscii += asciiStr
			}
			if i%8 == 7 {
				workHex += " "
			}
		}

		fmt.Fprintf(&result, "%08x  %s|%s|\n", addr, workHex, workAscii)
		addr += uint64(l)
	}

	return result.String()
}
