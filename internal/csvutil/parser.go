// internal/csvutil/parser.go
package csvutil

import (
	"strings"
)

// Table is the output of parsing one uploaded file: a header row plus raw
// string rows. Rows are not forced to the header's column count; use Cell
// for tolerant indexed access.
type Table struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Delimiter candidates in tie-break order. Comma wins ties.
var delimiterCandidates = []rune{',', ';', '\t', '|'}

const detectSampleLines = 5

// Parse tokenizes raw CSV text. Line endings are normalized, a leading BOM
// is stripped, blank lines are dropped and the delimiter is auto-detected.
// Empty input yields an empty table rather than an error.
func Parse(raw string) Table {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimPrefix(text, "\ufeff")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}

	if len(lines) == 0 {
		return Table{Headers: []string{}, Rows: [][]string{}}
	}

	delim := detectDelimiter(lines)

	headers := splitLine(lines[0], delim)
	rows := make([][]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		rows = append(rows, splitLine(line, delim))
	}

	return Table{Headers: headers, Rows: rows}
}

// detectDelimiter scores each candidate against the first few lines:
// 10*maxColumns - (maxColumns - minColumns). A delimiter that yields many
// columns consistently wins; ties go to the earlier candidate.
func detectDelimiter(lines []string) rune {
	sample := lines
	if len(sample) > detectSampleLines {
		sample = sample[:detectSampleLines]
	}

	best := delimiterCandidates[0]
	bestScore := -1 << 31

	for _, cand := range delimiterCandidates {
		maxCols, minCols := 0, 1<<31
		for _, line := range sample {
			n := len(splitLine(line, cand))
			if n > maxCols {
				maxCols = n
			}
			if n < minCols {
				minCols = n
			}
		}
		score := 10*maxCols - (maxCols - minCols)
		if score > bestScore {
			best = cand
			bestScore = score
		}
	}

	return best
}

// splitLine splits one line on delim, quote-aware. A quote toggles quoted
// state, a doubled quote inside quoted text emits one literal quote, and a
// delimiter inside quotes is literal text.
func splitLine(line string, delim rune) []string {
	var fields []string
	var b strings.Builder
	inQuotes := false

	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		switch {
		case ch == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				b.WriteRune('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case ch == delim && !inQuotes:
			fields = append(fields, cleanField(b.String()))
			b.Reset()
		default:
			b.WriteRune(ch)
		}
	}
	fields = append(fields, cleanField(b.String()))

	return fields
}

// cleanField trims surrounding whitespace only. Wrapping quotes never reach
// the buffer (splitLine consumes them), so any quote still present came from
// a doubled-quote escape and is literal data.
func cleanField(s string) string {
	return strings.TrimSpace(s)
}

// Cell returns row[idx], tolerating short rows and negative indexes.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
