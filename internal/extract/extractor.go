package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"carelink/pkg/types"

	"github.com/shopspring/decimal"
)

const (
	tableHeaderScanLines = 10
	minCandidates        = 2
)

var (
	numberingPrefix = regexp.MustCompile(`^\d+([.)])(\s*)`)
	bulletPrefix    = regexp.MustCompile(`^[-•●▪◦*]\s*`)
	dashPrefix      = regexp.MustCompile(`^\s*[-–—]\s*`)

	headerLine = regexp.MustCompile(`(?i)^(s\.?\s*no|serial|item\s*name|description|quantity|unit|total|date|sr)\b`)
	metaLine   = regexp.MustCompile(`(?i)^(required|needed|list|items|donations?|pages?|orphanage)\b`)

	columnSplit = regexp.MustCompile(`\s{2,}|\t`)
	pureNumber  = regexp.MustCompile(`^\d[\d,.]*$`)

	tableNameHeader = regexp.MustCompile(`(?i)item|name|description`)
	tableQtyHeader  = regexp.MustCompile(`(?i)qty|quantity|amount|number`)

	nameTrailing = regexp.MustCompile(`[\s,;:\-–—]+$`)
	nameLeading  = regexp.MustCompile(`^\s*[-•●]\s*`)
)

// lineShape is one regular line layout. The indexes name the submatches that
// hold each field.
type lineShape struct {
	pattern *regexp.Regexp
	name    int
	qty     int
	unit    int
}

var lineShapes = []lineShape{
	// Rice - 50 kg / Rice: 50 kg / Rice — 50 kg (fine)
	{regexp.MustCompile(`^(.+?)\s*[-:–—]\s*(\d[\d,.]*)\s*([a-zA-Z]+.*)$`), 1, 2, 3},
	// 50 kg Rice / 50kg Rice
	{regexp.MustCompile(`^(\d[\d,.]*)\s*([a-zA-Z]{1,10})\s+(.+)$`), 3, 1, 2},
	// Rice 50 kg
	{regexp.MustCompile(`^(.+?)\s+(\d[\d,.]*)\s+([a-zA-Z]{1,10})$`), 1, 2, 3},
	// Rice 50kg
	{regexp.MustCompile(`^(.+?)\s+(\d[\d,.]*)([a-zA-Z]{1,10})$`), 1, 2, 3},
}

var nameQtyOnly = regexp.MustCompile(`^(.+?)\s+(\d[\d,.]*)$`)

// Extract turns document text into requirement candidates. It never fails:
// unreadable or empty text yields an empty list.
func Extract(text string) []*types.Candidate {
	lines := splitLines(text)

	candidates := make([]*types.Candidate, 0)
	seen := make(map[string]bool)
	add := func(c *types.Candidate) {
		key := strings.ToLower(c.Name)
		if seen[key] {
			return
		}
		seen[key] = true
		candidates = append(candidates, c)
	}

	for _, line := range lines {
		if c := ParseLine(line); c != nil {
			add(c)
		}
	}

	if len(candidates) < minCandidates {
		for _, c := range parseTable(lines) {
			add(c)
		}
	}

	return candidates
}

func splitLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// parseTable looks for a header row near the top of the document and parses
// every row below it.
func parseTable(lines []string) []*types.Candidate {
	header := -1
	for i := 0; i < len(lines) && i < tableHeaderScanLines; i++ {
		if tableNameHeader.MatchString(lines[i]) && tableQtyHeader.MatchString(lines[i]) {
			header = i
			break
		}
	}
	if header < 0 {
		return nil
	}

	var out []*types.Candidate
	for _, line := range lines[header+1:] {
		if c := ParseLine(line); c != nil {
			out = append(out, c)
		}
	}
	return out
}

// ParseLine applies the line layouts in order and returns the first
// candidate produced, or nil.
func ParseLine(line string) *types.Candidate {
	cleaned := cleanLine(line)
	if utf8.RuneCountInString(cleaned) < 3 {
		return nil
	}
	if headerLine.MatchString(cleaned) || metaLine.MatchString(cleaned) {
		return nil
	}

	for _, shape := range lineShapes {
		m := shape.pattern.FindStringSubmatch(cleaned)
		if m == nil {
			continue
		}
		unit := firstField(m[shape.unit])
		if !IsUnit(unit) {
			continue
		}
		if c := buildCandidate(m[shape.name], m[shape.qty], unit, types.ConfidenceHigh); c != nil {
			return c
		}
	}

	if c := parseColumns(cleaned); c != nil {
		return c
	}

	if m := nameQtyOnly.FindStringSubmatch(cleaned); m != nil && utf8.RuneCountInString(m[1]) > 2 {
		return buildCandidate(m[1], m[2], DefaultUnit, types.ConfidenceLow)
	}

	return nil
}

// parseColumns handles lines laid out as whitespace-aligned columns.
func parseColumns(cleaned string) *types.Candidate {
	var parts []string
	for _, p := range columnSplit.Split(cleaned, -1) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 3 {
		return nil
	}

	for i, p := range parts {
		if !pureNumber.MatchString(p) {
			continue
		}
		if i == 0 || i+1 >= len(parts) || !IsUnit(parts[i+1]) {
			return nil
		}
		return buildCandidate(strings.Join(parts[:i], " "), p, parts[i+1], types.ConfidenceHigh)
	}

	return nil
}

func cleanLine(line string) string {
	cleaned := strings.TrimSpace(line)

	// "2.5 kg" is a decimal quantity, not item 2.
	if m := numberingPrefix.FindStringSubmatchIndex(cleaned); m != nil {
		rest := cleaned[m[1]:]
		decimalPart := cleaned[m[2]:m[3]] == "." && m[4] == m[5] &&
			rest != "" && unicode.IsDigit(rune(rest[0]))
		if !decimalPart {
			cleaned = rest
		}
	}

	cleaned = bulletPrefix.ReplaceAllString(cleaned, "")
	cleaned = dashPrefix.ReplaceAllString(cleaned, "")
	return strings.TrimSpace(cleaned)
}

func firstField(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func buildCandidate(rawName, rawQty, rawUnit string, confidence types.Confidence) *types.Candidate {
	name := nameTrailing.ReplaceAllString(rawName, "")
	name = strings.TrimSpace(nameLeading.ReplaceAllString(name, ""))
	if utf8.RuneCountInString(name) < 2 {
		return nil
	}

	qty, ok := parseQuantity(rawQty)
	if !ok {
		return nil
	}

	return &types.Candidate{
		Name:              name,
		Quantity:          qty,
		Unit:              NormalizeUnit(rawUnit),
		SuggestedCategory: Classify(name),
		Confidence:        confidence,
	}
}

func parseQuantity(raw string) (decimal.Decimal, bool) {
	cleaned := strings.TrimRight(strings.ReplaceAll(raw, ",", ""), ".")
	qty, err := decimal.NewFromString(cleaned)
	if err != nil || !qty.IsPositive() {
		return decimal.Zero, false
	}
	return qty, true
}
