package diagnostics

import (
	"testing"

	"github.com/gkampitakis/go-snaps/snaps"

	"github.com/turbobuilt/gots/internal/token"
)

// TestFormatSnapshot golden-tests the exact header/source-line/caret
// rendering every error kind shares, rather than asserting on
// substrings.
func TestFormatSnapshot(t *testing.T) {
	src := "let x: int64 = \"oops\";"
	err := New(Type, token.Position{Line: 1, Column: 16}, "demo.gts", src,
		`cannot assign string to variable of type "int64"`)

	snaps.MatchSnapshot(t, err.Format(false))
}

func TestFormatWithoutFileOrSource(t *testing.T) {
	err := New(Runtime, token.Position{Line: 3, Column: 1}, "", "", "null reference")
	snaps.MatchSnapshot(t, err.Format(false))
}

func TestListJoinsMultipleErrors(t *testing.T) {
	list := List{
		New(Lexical, token.Position{Line: 1, Column: 1}, "a.gts", "", "unterminated string"),
		New(Parse, token.Position{Line: 2, Column: 5}, "a.gts", "", "unexpected token"),
	}
	snaps.MatchSnapshot(t, list.Error())
}
