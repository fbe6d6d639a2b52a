package parser

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestRoundTripReprintIsAFixedPoint checks the parse/print round trip
// the way it actually holds for this AST's String() methods: they print
// a fully parenthesized canonical form (explicit grouping around every
// infix/ternary expression), so the property that must hold is not
// "reprint equals original source" but "reprint is a fixed point" —
// reparsing the reprint and printing again must yield byte-identical
// output, proving the printed form re-lexes/re-parses into an
// equivalent AST with no further loss on a second pass.
func TestRoundTripReprintIsAFixedPoint(t *testing.T) {
	cases := []string{
		`let x: int64 = 5 + 3 * 2;`,
		`const name = "hi";`,
		`if (x < 10) { return x; } else { return 0; }`,
		`function add(a, b) { return a + b; }`,
		`let t = a ? b : c;`,
		`foo(1, 2, bar(3));`,
	}

	for _, src := range cases {
		src := src
		t.Run(src, func(t *testing.T) {
			prog := mustParse(t, src)
			once := prog.String()

			reparsed := New(once, "reprint.gts")
			prog2 := reparsed.ParseProgram()
			if errs := reparsed.Errors(); len(errs) != 0 {
				t.Fatalf("reprinted source failed to reparse: %v\nreprinted:\n%s", errs, once)
			}
			twice := prog2.String()

			if diff := cmp.Diff(once, twice); diff != "" {
				t.Errorf("reprint is not a fixed point (-first +second):\n%s", diff)
			}
		})
	}
}
