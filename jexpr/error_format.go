package jexpr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// lineColumn converts a byte offset into a 1-based line and rune column.
func lineColumn(source string, offset int) (int, int) {
	if offset > len(source) {
		offset = len(source)
	}
	line := 1 + strings.Count(source[:offset], "\n")
	lineStart := strings.LastIndexByte(source[:offset], '\n') + 1
	column := utf8.RuneCountInString(source[lineStart:offset]) + 1
	return line, column
}

func formatCodeFrame(source string, offset int) string {
	if source == "" || offset < 0 || offset > len(source) {
		return ""
	}

	line, column := lineColumn(source, offset)
	lines := strings.Split(source, "\n")
	lineText := lines[line-1]

	lineLabel := strconv.Itoa(line)
	gutterPad := strings.Repeat(" ", len(lineLabel))
	caretPad := strings.Repeat(" ", column-1)

	return fmt.Sprintf(
		"  --> line %d, column %d\n %s | %s\n %s | %s^",
		line,
		column,
		lineLabel,
		lineText,
		gutterPad,
		caretPad,
	)
}
