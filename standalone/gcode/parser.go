// Package gcode tokenises an RS-274/NGC block into letter/number word
// pairs (spec.md §1: "G-code block tokenisation... is out of scope; only
// the semantic interpretation of a parsed block is in scope"). The
// semantic mapping from words to canonical-machine state lives in
// package cm, which consumes the Block this package produces.
package gcode

// Word is one letter/number pair from a line, e.g. X10.5 or G1.
type Word struct {
	Letter byte // always uppercase
	Value  float64
}

// Block is one tokenised line: the ordered words present on it, any
// trailing comment text, and the block-delete flag (spec.md §6.1: a '/'
// at line position 1 skips the line iff block_delete_switch is on).
type Block struct {
	HasLineNumber bool
	LineNumber    int

	Words []Word

	Comment     string
	BlockDelete bool
}

// supportedWords is the word set spec.md §6.1 requires: N G M T F S P X Y
// Z A B C I J K R L. Anything else is an unknown-word input error left for
// the semantic layer to report (tokenisation never rejects a letter).
const supportedWords = "NGMTFSPXYZABCIJKRL"

// Parser tokenises successive lines of G-code.
type Parser struct{}

// NewParser creates a new tokeniser. It holds no per-line state; the zero
// value is ready to use.
func NewParser() *Parser {
	return &Parser{}
}

// ParseLine tokenises a single line. A blank or whitespace-only line
// returns (nil, nil): there is nothing to apply. A line holding only a
// comment returns a Block with no words and Comment set.
func (p *Parser) ParseLine(line string) (*Block, error) {
	i := 0
	n := len(line)

	if n > 0 && line[0] == '/' {
		blk := &Block{BlockDelete: true}
		rest, err := p.parseBody(line[1:])
		if err != nil {
			return nil, err
		}
		if rest == nil {
			return blk, nil
		}
		rest.BlockDelete = true
		return rest, nil
	}

	for i < n && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	if i >= n {
		return nil, nil
	}

	return p.parseBody(line[i:])
}

func (p *Parser) parseBody(line string) (*Block, error) {
	i, n := 0, len(line)
	var blk Block

	for i < n {
		for i < n && (line[i] == ' ' || line[i] == '\t') {
			i++
		}
		if i >= n {
			break
		}

		if line[i] == ';' || line[i] == '(' {
			blk.Comment = line[i:]
			break
		}

		if !isLetter(line[i]) {
			// Stray character outside a word: skip it, tokenisation is
			// tolerant and leaves rejection to the semantic layer.
			i++
			continue
		}

		letter := toUpper(line[i])
		i++

		value, newPos := parseFloat(line, i)
		if newPos <= i {
			// Letter with no following number: drop it and continue.
			continue
		}
		i = newPos

		if letter == 'N' && !blk.HasLineNumber && len(blk.Words) == 0 {
			blk.HasLineNumber = true
			blk.LineNumber = int(value)
			continue
		}

		blk.Words = append(blk.Words, Word{Letter: letter, Value: value})
	}

	if !blk.HasLineNumber && len(blk.Words) == 0 && blk.Comment == "" {
		return nil, nil
	}
	return &blk, nil
}

// Get returns the value of the first occurrence of letter in the block,
// and whether it was present at all.
func (b *Block) Get(letter byte) (float64, bool) {
	for _, w := range b.Words {
		if w.Letter == letter {
			return w.Value, true
		}
	}
	return 0, false
}

// All returns every word matching letter, in the order they appeared —
// used for modal words a block may legally repeat (e.g. multiple G words
// from different modal groups on one line).
func (b *Block) All(letter byte) []float64 {
	var out []float64
	for _, w := range b.Words {
		if w.Letter == letter {
			out = append(out, w.Value)
		}
	}
	return out
}

// Has reports whether letter appears anywhere in the block.
func (b *Block) Has(letter byte) bool {
	_, ok := b.Get(letter)
	return ok
}

// parseFloat parses a floating-point number (optionally signed, optionally
// with a fractional part) from s starting at pos. Returns the value and
// the position just past it; if no digits were found, newPos <= pos.
//
// Hand-rolled rather than strconv.ParseFloat, matching the teacher's
// embedded-arithmetic idiom (spec.md §9 "Numeric semantics"): the original
// standalone/gcode/parser.go scans digit-by-digit "to avoid importing
// [a heavier conversion package] for embedded", and that idiom is kept
// here for fidelity even though this tree also targets host builds.
func parseFloat(s string, pos int) (float64, int) {
	if pos >= len(s) {
		return 0, pos
	}

	negative := false
	if s[pos] == '-' {
		negative = true
		pos++
	} else if s[pos] == '+' {
		pos++
	}

	start := pos
	intPart := 0.0
	fracPart := 0.0
	fracDigits := 0

	for pos < len(s) && s[pos] >= '0' && s[pos] <= '9' {
		intPart = intPart*10 + float64(s[pos]-'0')
		pos++
	}

	if pos < len(s) && s[pos] == '.' {
		pos++
		fracStart := pos
		for pos < len(s) && s[pos] >= '0' && s[pos] <= '9' {
			fracPart = fracPart*10.0 + float64(s[pos]-'0')
			pos++
		}
		fracDigits = pos - fracStart
	}

	if pos == start || (pos == start+1 && s[start] == '.') {
		return 0, start - 1
	}

	value := intPart
	if fracDigits > 0 {
		divisor := 1.0
		for i := 0; i < fracDigits; i++ {
			divisor *= 10.0
		}
		value += fracPart / divisor
	}

	if negative {
		value = -value
	}

	return value, pos
}

func isLetter(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z')
}

func toUpper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}
