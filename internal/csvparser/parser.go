// =============================================================================
// Razão Normalizer - CSV Parser Module
// =============================================================================
//
// This module reads delimited ledger exports (.csv, .txt) into a RawTable.
// Exports from accounting systems vary a lot, so the parser handles:
//   - Delimiter sniffing among comma, semicolon, tab and pipe
//   - UTF-8 with or without BOM, UTF-16 with BOM, ISO-8859-1, Windows-1252
//   - A header row that is not the first line (title lines above it)
//   - Ragged rows (account header lines usually have a single field)
//
// Every field becomes a Text cell; empty fields become Empty cells. Numeric
// interpretation is left to the ledger normalizer.
//
// =============================================================================

package csvparser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	xunicode "golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/ginjaninja78/razao/internal/config"
	"github.com/ginjaninja78/razao/internal/types"
)

// ErrEmptyFile is returned when the input holds no header row.
var ErrEmptyFile = errors.New("CSV file is empty")

// candidateDelimiters are tried in preference order when sniffing.
var candidateDelimiters = []rune{';', ',', '\t', '|'}

// sniffLines is the number of non-blank lines inspected when sniffing.
const sniffLines = 50

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a delimited file and returns its raw table.
//
// PARAMETERS:
//   - filePath: The path to the file.
//   - settings: Delimiter, encoding and header row.
//
// RETURNS:
//   - The raw table with SourceFile set.
//   - An error if the file cannot be read, decoded or parsed.
//
// PARSING PROCESS:
//   1. Read the file and decode it to UTF-8
//   2. Sniff the delimiter unless one is configured
//   3. Read every record, tolerating ragged rows and lazy quotes
//   4. Take the configured header row as column names
//   5. Keep every following record as a RawRow, blank ones included
func Parse(filePath string, settings config.InputConfig) (*types.RawTable, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	table, err := ParseBytes(data, settings)
	if err != nil {
		return nil, err
	}
	table.SourceFile = filePath
	return table, nil
}

// ParseReader reads a delimited table from r.
func ParseReader(r io.Reader, settings config.InputConfig) (*types.RawTable, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return ParseBytes(data, settings)
}

// ParseBytes parses an in-memory file.
func ParseBytes(data []byte, settings config.InputConfig) (*types.RawTable, error) {
	text, err := Decode(data, settings.Encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to decode input: %w", err)
	}

	comma, err := resolveDelimiter(settings.Delimiter, text)
	if err != nil {
		return nil, err
	}

	csvReader := csv.NewReader(strings.NewReader(text))
	configureReader(csvReader, comma)

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	headerRow := settings.HeaderRow
	if headerRow < 1 {
		headerRow = 1
	}
	if len(allRows) < headerRow {
		return nil, ErrEmptyFile
	}

	return buildTable(allRows, headerRow), nil
}

// configureReader applies the reader options shared by every export.
func configureReader(reader *csv.Reader, comma rune) {
	reader.Comma = comma

	// Account header lines and totals have fewer fields than the header.
	reader.FieldsPerRecord = -1

	// Histories often carry stray quotes.
	reader.LazyQuotes = true

	// A whitespace delimiter would be swallowed by TrimLeadingSpace.
	reader.TrimLeadingSpace = !unicode.IsSpace(comma)
}

// buildTable turns records into a RawTable. headerRow is 1-based.
func buildTable(allRows [][]string, headerRow int) *types.RawTable {
	width := 0
	for _, row := range allRows[headerRow-1:] {
		if len(row) > width {
			width = len(row)
		}
	}

	table := &types.RawTable{
		Columns: cleanHeaders(allRows[headerRow-1], width),
		Rows:    make([]types.RawRow, 0, len(allRows)-headerRow),
	}

	for i := headerRow; i < len(allRows); i++ {
		record := allRows[i]
		cells := make([]types.Cell, len(record))
		for j, value := range record {
			if value == "" {
				cells[j] = types.Empty()
				continue
			}
			cells[j] = types.Text(value)
		}
		table.Rows = append(table.Rows, types.RawRow{Number: i + 1, Cells: cells})
	}
	return table
}

// cleanHeaders trims header names and names blank or missing ones
// "Column_N", which the normalizer treats as placeholders.
func cleanHeaders(headers []string, width int) []string {
	if width < len(headers) {
		width = len(headers)
	}
	cleaned := make([]string, width)
	for i := range cleaned {
		header := ""
		if i < len(headers) {
			header = strings.TrimSpace(headers[i])
		}
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}
	return cleaned
}

// =============================================================================
// DELIMITER SNIFFING
// =============================================================================

func resolveDelimiter(setting, text string) (rune, error) {
	switch strings.ToLower(strings.TrimSpace(setting)) {
	case "", "auto":
		return SniffDelimiter(text), nil
	case `\t`, "tab":
		return '\t', nil
	case "pipe":
		return '|', nil
	case "semicolon":
		return ';', nil
	case "comma":
		return ',', nil
	}
	if setting == "\t" {
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(setting)
	if size != len(setting) || r == '"' || r == '\r' || r == '\n' {
		return 0, fmt.Errorf("invalid delimiter %q", setting)
	}
	return r, nil
}

// SniffDelimiter picks the candidate whose per-line count is the most
// consistent across the first non-blank lines. Ties go to the candidate
// seen on more columns, then to the preference order ; , tab |. Text with
// no candidate at all is read as comma separated.
func SniffDelimiter(text string) rune {
	lines := sampleLines(text, sniffLines)

	best, bestFreq, bestMode := ',', 0, 0
	for _, candidate := range candidateDelimiters {
		freq, mode := consistency(lines, candidate)
		if freq > bestFreq || (freq == bestFreq && mode > bestMode) {
			best, bestFreq, bestMode = candidate, freq, mode
		}
	}
	return best
}

func sampleLines(text string, limit int) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
		if len(lines) == limit {
			break
		}
	}
	return lines
}

// consistency returns how many lines share the most common non-zero count
// of candidate outside quotes, and that count.
func consistency(lines []string, candidate rune) (freq, mode int) {
	counts := make(map[int]int)
	for _, line := range lines {
		if n := countOutsideQuotes(line, candidate); n > 0 {
			counts[n]++
		}
	}
	for n, f := range counts {
		if f > freq || (f == freq && n > mode) {
			freq, mode = f, n
		}
	}
	return freq, mode
}

func countOutsideQuotes(line string, candidate rune) int {
	n, quoted := 0, false
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
		case r == candidate && !quoted:
			n++
		}
	}
	return n
}

// =============================================================================
// CHARACTER ENCODING
// =============================================================================

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// Decode converts data to a UTF-8 string.
//
// Supported encodings: "auto", "utf-8", "iso-8859-1", "windows-1252".
// "auto" honours a BOM, keeps valid UTF-8 and otherwise assumes
// Windows-1252, the usual encoding of Brazilian desktop exports.
func Decode(data []byte, enc string) (string, error) {
	var decoder transform.Transformer

	switch strings.ToLower(strings.TrimSpace(enc)) {
	case "", "auto":
		if hasBOM(data) || utf8.Valid(data) {
			decoder = utf8WithBOM()
		} else {
			decoder = charmap.Windows1252.NewDecoder()
		}
	case "utf-8", "utf8":
		decoder = utf8WithBOM()
	case "iso-8859-1", "latin1":
		decoder = charmap.ISO8859_1.NewDecoder()
	case "windows-1252", "cp1252":
		decoder = charmap.Windows1252.NewDecoder()
	default:
		return "", fmt.Errorf("unsupported encoding %q", enc)
	}

	out, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func utf8WithBOM() transform.Transformer {
	return xunicode.BOMOverride(xunicode.UTF8.NewDecoder())
}

func hasBOM(data []byte) bool {
	return bytes.HasPrefix(data, bomUTF8) ||
		bytes.HasPrefix(data, bomUTF16LE) ||
		bytes.HasPrefix(data, bomUTF16BE)
}
