package emitter

import (
	"errors"
	"fmt"
	"strings"
)

const (
	blockStartFmt = "# >>> wslkit %s >>>"
	blockEndFmt   = "# <<< wslkit %s <<<"
)

// ErrInvalidMarker is returned for markers that cannot delimit a block.
var ErrInvalidMarker = errors.New("marker must be a non-empty single line without spaces")

// ValidateMarker checks that marker can be embedded in block delimiters.
func ValidateMarker(marker string) error {
	if marker == "" || strings.ContainsAny(marker, " \t\r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidMarker, marker)
	}
	return nil
}

// ReadBlock extracts the body of the managed block named marker.
// The second result reports whether the block exists.
func ReadBlock(content, marker string) (string, bool) {
	start := fmt.Sprintf(blockStartFmt, marker)
	end := fmt.Sprintf(blockEndFmt, marker)

	startIdx := indexLine(content, start)
	if startIdx == -1 {
		return "", false
	}
	bodyStart := startIdx + len(start)
	if bodyStart < len(content) && content[bodyStart] == '\n' {
		bodyStart++
	}

	endIdx := indexLine(content[bodyStart:], end)
	if endIdx == -1 {
		return "", false
	}
	return content[bodyStart : bodyStart+endIdx], true
}

// WriteBlock returns content with the managed block named marker set to
// body. An existing block is replaced in place; otherwise the block is
// appended. Duplicate blocks left by hand edits are collapsed into one.
func WriteBlock(content, marker, body string) string {
	body = normalizeBody(body)
	managed := fmt.Sprintf(blockStartFmt, marker) + "\n" + body + fmt.Sprintf(blockEndFmt, marker) + "\n"

	stripped, at := removeBlocks(content, marker)
	if at == -1 {
		if stripped != "" && !strings.HasSuffix(stripped, "\n") {
			stripped += "\n"
		}
		if stripped != "" {
			stripped += "\n"
		}
		return stripped + managed
	}
	return stripped[:at] + managed + stripped[at:]
}

// RemoveBlock returns content without the managed block named marker.
// The second result reports whether a block was removed.
func RemoveBlock(content, marker string) (string, bool) {
	stripped, at := removeBlocks(content, marker)
	if at == -1 {
		return content, false
	}
	// Drop the blank separator line WriteBlock added before the block.
	if at > 0 && strings.HasSuffix(stripped[:at], "\n\n") {
		stripped = stripped[:at-1] + stripped[at:]
	}
	return stripped, true
}

// removeBlocks strips every block named marker and returns the offset
// where the first one started, or -1 if none was found. A start marker
// without an end marker runs to the end of the content.
func removeBlocks(content, marker string) (string, int) {
	start := fmt.Sprintf(blockStartFmt, marker)
	end := fmt.Sprintf(blockEndFmt, marker)

	first := -1
	for {
		startIdx := indexLine(content, start)
		if startIdx == -1 {
			return content, first
		}
		if first == -1 {
			first = startIdx
		}

		endIdx := indexLine(content[startIdx:], end)
		if endIdx == -1 {
			return content[:startIdx], first
		}
		afterEnd := startIdx + endIdx + len(end)
		if afterEnd < len(content) && content[afterEnd] == '\n' {
			afterEnd++
		}
		content = content[:startIdx] + content[afterEnd:]
	}
}

// indexLine finds line as a whole line in content.
func indexLine(content, line string) int {
	offset := 0
	for {
		idx := strings.Index(content[offset:], line)
		if idx == -1 {
			return -1
		}
		pos := offset + idx
		startsLine := pos == 0 || content[pos-1] == '\n'
		after := pos + len(line)
		endsLine := after == len(content) || content[after] == '\n' || content[after] == '\r'
		if startsLine && endsLine {
			return pos
		}
		offset = pos + len(line)
	}
}

func normalizeBody(body string) string {
	if body != "" && !strings.HasSuffix(body, "\n") {
		body += "\n"
	}
	return body
}
