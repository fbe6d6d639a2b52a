package lexer

import (
	"testing"

	"github.com/turbobuilt/gots/internal/token"
)

func TestNextBasicProgram(t *testing.T) {
	input := `let x: int64 = 5 + 3 * 2;`
	want := []token.Kind{
		token.LET, token.IDENT, token.COLON, token.IDENT, token.ASSIGN,
		token.INT, token.PLUS, token.INT, token.STAR, token.INT, token.SEMI, token.EOF,
	}
	l := New(input)
	for i, wk := range want {
		tok := l.Next()
		if tok.Kind != wk {
			t.Fatalf("token %d: got %v, want %v (literal %q)", i, tok.Kind, wk, tok.Literal)
		}
	}
}

func TestCompoundOperators(t *testing.T) {
	input := `== === != <= >= && || ++ -- += -= *= /= **`
	want := []token.Kind{
		token.EQ, token.STEQ, token.NEQ, token.LE, token.GE, token.AND, token.OR,
		token.INCR, token.DECR, token.PLUSEQ, token.MINUSEQ, token.STAREQ, token.SLASHEQ, token.STARSTAR, token.EOF,
	}
	l := New(input)
	for i, wk := range want {
		tok := l.Next()
		if tok.Kind != wk {
			t.Fatalf("token %d: got %v (%q), want %v", i, tok.Kind, tok.Literal, wk)
		}
	}
}

func TestStringEscapes(t *testing.T) {
	l := New(`"a\nb\tc\\d\"e"`)
	tok := l.Next()
	if tok.Kind != token.STRING {
		t.Fatalf("want STRING, got %v", tok.Kind)
	}
	want := "a\nb\tc\\d\"e"
	if tok.Literal != want {
		t.Fatalf("got %q, want %q", tok.Literal, want)
	}
}

func TestUnterminatedString(t *testing.T) {
	l := New(`"abc`)
	tok := l.Next()
	if tok.Kind != token.ILLEGAL {
		t.Fatalf("want ILLEGAL, got %v", tok.Kind)
	}
	if len(l.Errors()) != 1 {
		t.Fatalf("want 1 lexical error, got %d", len(l.Errors()))
	}
}

func TestLineAndColumnTracking(t *testing.T) {
	l := New("let x\nlet y")
	_ = l.Next() // let
	idTok := l.Next() // x
	if idTok.Pos.Line != 1 {
		t.Fatalf("want line 1, got %d", idTok.Pos.Line)
	}
	_ = l.Next() // let (line 2)
	y := l.Next()
	if y.Pos.Line != 2 {
		t.Fatalf("want line 2, got %d", y.Pos.Line)
	}
}

func TestCommentsSkippedByDefault(t *testing.T) {
	l := New("let x = 1; // comment\nlet y = 2;")
	toks := l.Tokenize()
	for _, tk := range toks {
		if tk.Kind == token.COMMENT {
			t.Fatalf("comment token leaked through when preserveComments=false")
		}
	}
}

func TestCommentsPreserved(t *testing.T) {
	l := New("/* block */ let x = 1;", WithPreserveComments(true))
	tok := l.Next()
	if tok.Kind != token.COMMENT {
		t.Fatalf("want COMMENT, got %v", tok.Kind)
	}
}

func TestKeywords(t *testing.T) {
	l := New("module class go await import export from as extends constructor")
	want := []token.Kind{
		token.MODULE, token.CLASS, token.GO, token.AWAIT, token.IMPORT, token.EXPORT,
		token.FROM, token.AS, token.EXTENDS, token.CONSTRUCTOR, token.EOF,
	}
	for i, wk := range want {
		tok := l.Next()
		if tok.Kind != wk {
			t.Fatalf("token %d: got %v, want %v", i, tok.Kind, wk)
		}
	}
}

func TestUnicodeIdentifiers(t *testing.T) {
	l := New("let Δ = 1;")
	_ = l.Next() // let
	id := l.Next()
	if id.Literal != "Δ" {
		t.Fatalf("got %q", id.Literal)
	}
}

func TestFloatLiteral(t *testing.T) {
	l := New("3.14")
	tok := l.Next()
	if tok.Kind != token.FLOAT || tok.Literal != "3.14" {
		t.Fatalf("got %v %q", tok.Kind, tok.Literal)
	}
}

func TestUnknownCharSkipped(t *testing.T) {
	l := New("a ~ b")
	toks := l.Tokenize()
	// "~" is unrecognized; it is skipped entirely and later tokens are
	// still produced.
	var sawB bool
	for _, tk := range toks {
		if tk.Kind == token.ILLEGAL {
			t.Fatalf("unknown character should be skipped, got ILLEGAL %q", tk.Literal)
		}
		if tk.Literal == "b" {
			sawB = true
		}
	}
	if !sawB {
		t.Fatalf("lexer should continue past an unknown character")
	}
}
