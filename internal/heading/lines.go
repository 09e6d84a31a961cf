package heading

import (
	"bytes"
	"strings"
)

// Line is one line of a document together with its byte span in the source.
type Line struct {
	Text  string // content without the line terminator
	Start int    // offset of the first byte of the line
	End   int    // offset just past the terminator (or end of input)
}

// bom is the UTF-8 byte order mark. It is ignored for detection but kept in output.
const bom = "\uFEFF"

// SplitLines splits src into lines. Both "\n" and "\r\n" terminate a line;
// a final line without a terminator is still returned. Empty input has no lines.
func SplitLines(src []byte) []Line {
	var lines []Line
	for pos := 0; pos < len(src); {
		ln := nextLine(src, pos)
		lines = append(lines, ln)
		pos = ln.End
	}
	return lines
}

func nextLine(src []byte, pos int) Line {
	end := len(src)
	next := end
	if i := bytes.IndexByte(src[pos:], '\n'); i >= 0 {
		end = pos + i
		next = end + 1
	}
	if end > pos && src[end-1] == '\r' {
		end--
	}
	return Line{Text: string(src[pos:end]), Start: pos, End: next}
}

// Newline reports the line ending used by src: "\r\n" when the first
// terminated line ends in CRLF, "\n" otherwise.
func Newline(src []byte) string {
	i := bytes.IndexByte(src, '\n')
	if i > 0 && src[i-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}

// BOMLen is the length in bytes of the UTF-8 byte order mark.
const BOMLen = len(bom)

// TrimBOM removes a leading byte order mark from s.
func TrimBOM(s string) string {
	return strings.TrimPrefix(s, bom)
}

// HasBOM reports whether src starts with a UTF-8 byte order mark.
func HasBOM(src []byte) bool {
	return bytes.HasPrefix(src, []byte(bom))
}
