package gcode

import "testing"

func wordValue(t *testing.T, blk *Block, letter byte) float64 {
	t.Helper()
	v, ok := blk.Get(letter)
	if !ok {
		t.Fatalf("missing word %c in %+v", letter, blk.Words)
	}
	return v
}

func TestParseBasicWords(t *testing.T) {
	p := NewParser()

	tests := []struct {
		input  string
		params map[byte]float64
	}{
		{"G0 X10 Y20", map[byte]float64{'G': 0, 'X': 10, 'Y': 20}},
		{"G1 X100.5 Y200.25 F3000", map[byte]float64{'G': 1, 'X': 100.5, 'Y': 200.25, 'F': 3000}},
		{"G28", map[byte]float64{'G': 28}},
		{"M104 S200", map[byte]float64{'M': 104, 'S': 200}},
		{"G92 X0 Y0 Z0", map[byte]float64{'G': 92, 'X': 0, 'Y': 0, 'Z': 0}},
		{"G92.2", map[byte]float64{'G': 92.2}},
		{"G90 G1 X5 F500", map[byte]float64{'X': 5, 'F': 500}},
	}

	for _, tt := range tests {
		blk, err := p.ParseLine(tt.input)
		if err != nil {
			t.Fatalf("ParseLine(%q): %v", tt.input, err)
		}
		if blk == nil {
			t.Fatalf("ParseLine(%q): got nil block", tt.input)
		}
		for letter, want := range tt.params {
			if got := wordValue(t, blk, letter); got != want {
				t.Errorf("%q: %c = %v, want %v", tt.input, letter, got, want)
			}
		}
	}
}

func TestParseMultipleGWords(t *testing.T) {
	p := NewParser()
	blk, err := p.ParseLine("G90 G1 X5 F500")
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	gWords := blk.All('G')
	if len(gWords) != 2 || gWords[0] != 90 || gWords[1] != 1 {
		t.Errorf("expected G words [90 1], got %v", gWords)
	}
}

func TestParseLineNumber(t *testing.T) {
	p := NewParser()
	blk, err := p.ParseLine("N10 G1 X1")
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if !blk.HasLineNumber || blk.LineNumber != 10 {
		t.Errorf("expected line number 10, got %+v", blk)
	}
	if blk.Has('N') {
		t.Errorf("N should be consumed as the line number, not left as a word")
	}
}

func TestParseBlockDelete(t *testing.T) {
	p := NewParser()
	blk, err := p.ParseLine("/G0 X10")
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if !blk.BlockDelete {
		t.Errorf("expected BlockDelete=true")
	}
	if wordValue(t, blk, 'X') != 10 {
		t.Errorf("expected X=10 even under block-delete tokenisation")
	}
}

func TestParseNegativeNumbers(t *testing.T) {
	p := NewParser()
	blk, err := p.ParseLine("G1 X-10.5 Y-20")
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if wordValue(t, blk, 'X') != -10.5 {
		t.Errorf("expected X=-10.5, got X=%f", wordValue(t, blk, 'X'))
	}
	if wordValue(t, blk, 'Y') != -20 {
		t.Errorf("expected Y=-20, got Y=%f", wordValue(t, blk, 'Y'))
	}
}

func TestParseComments(t *testing.T) {
	p := NewParser()
	tests := []string{
		"; This is a comment",
		"G0 X10 ; Move to X10",
		"(This is a comment)",
	}
	for _, tt := range tests {
		blk, err := p.ParseLine(tt)
		if err != nil {
			t.Errorf("ParseLine(%q): %v", tt, err)
		}
		if blk == nil {
			t.Errorf("ParseLine(%q): got nil block", tt)
		}
	}
}

func TestParseLowercase(t *testing.T) {
	p := NewParser()
	blk, err := p.ParseLine("g1 x10 y20")
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if wordValue(t, blk, 'G') != 1 {
		t.Errorf("expected G=1, got %v", wordValue(t, blk, 'G'))
	}
	if wordValue(t, blk, 'X') != 10 {
		t.Errorf("expected X=10, got %v", wordValue(t, blk, 'X'))
	}
}

func TestParseEmptyLine(t *testing.T) {
	p := NewParser()
	blk, err := p.ParseLine("")
	if err != nil {
		t.Errorf("empty line should not error: %v", err)
	}
	if blk != nil {
		t.Errorf("empty line should return a nil block")
	}
}

func TestParseWhitespaceOnly(t *testing.T) {
	p := NewParser()
	blk, err := p.ParseLine("   \t  ")
	if err != nil {
		t.Errorf("whitespace-only line should not error: %v", err)
	}
	if blk != nil {
		t.Errorf("whitespace-only line should return a nil block")
	}
}
