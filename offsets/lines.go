package offsets

import (
	"math"
	"sort"
	"unicode/utf16"
	"unicode/utf8"

	"fortio.org/safecast"

	"github.com/corymhall/selenelsp/lsp"
)

// LineIndex answers position queries against one text snapshot. Lines are
// terminated by "\n" or "\r\n"; the terminator is not part of a line's range.
type LineIndex struct {
	text  string
	lines []line
	units int
}

type line struct {
	byteStart int
	byteEnd   int
	unitStart int
	unitLen   int
}

func NewLineIndex(text string) *LineIndex {
	idx := &LineIndex{text: text}
	cur := line{}
	units := 0
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if r == '\n' {
			cur.byteEnd = i
			end := units
			if i > cur.byteStart && text[i-1] == '\r' {
				cur.byteEnd--
				end--
			}
			cur.unitLen = end - cur.unitStart
			idx.lines = append(idx.lines, cur)
			i += size
			units++
			cur = line{byteStart: i, unitStart: units}
			continue
		}
		i += size
		units += utf16.RuneLen(r)
	}
	cur.byteEnd = len(text)
	cur.unitLen = units - cur.unitStart
	idx.lines = append(idx.lines, cur)
	idx.units = units
	return idx
}

func (idx *LineIndex) Text() string { return idx.text }

// Len is the length of the text in UTF-16 code units.
func (idx *LineIndex) Len() int { return idx.units }

func (idx *LineIndex) LineCount() int { return len(idx.lines) }

// PositionAt converts a UTF-16 offset into a line/character position,
// clamping out of range offsets to the document bounds.
func (idx *LineIndex) PositionAt(offset int) lsp.Position {
	offset = max(0, min(offset, idx.units))
	n := sort.Search(len(idx.lines), func(i int) bool {
		return idx.lines[i].unitStart > offset
	}) - 1
	l := idx.lines[n]
	char := min(offset-l.unitStart, l.unitLen)
	return lsp.Position{Line: toInt32(n), Character: toInt32(char)}
}

// ByteOffset converts an LSP position into a byte offset into the text.
// Characters past the end of a line resolve to the end of that line.
func (idx *LineIndex) ByteOffset(pos lsp.Position) int {
	if pos.Line < 0 {
		return 0
	}
	if int(pos.Line) >= len(idx.lines) {
		return len(idx.text)
	}
	l := idx.lines[pos.Line]
	units := 0
	i := l.byteStart
	for i < l.byteEnd && units < int(pos.Character) {
		r, size := utf8.DecodeRuneInString(idx.text[i:l.byteEnd])
		n := utf16.RuneLen(r)
		if units+n > int(pos.Character) {
			break
		}
		units += n
		i += size
	}
	return i
}

// LineRange is the range covering the content of line n, clamped to the
// lines of the document.
func (idx *LineIndex) LineRange(n int) lsp.Range {
	n = max(0, min(n, len(idx.lines)-1))
	return lsp.Range{
		Start: lsp.Position{Line: toInt32(n)},
		End:   lsp.Position{Line: toInt32(n), Character: toInt32(idx.lines[n].unitLen)},
	}
}

func (idx *LineIndex) FullRange() lsp.Range {
	last := len(idx.lines) - 1
	return lsp.Range{
		End: lsp.Position{Line: toInt32(last), Character: toInt32(idx.lines[last].unitLen)},
	}
}

func toInt32(n int) int32 {
	v, err := safecast.Conv[int32](n)
	if err != nil {
		return math.MaxInt32
	}
	return v
}
