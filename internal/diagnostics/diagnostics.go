// Package diagnostics implements the shared compiler error type and its
// source-line-and-caret formatting, one Kind per stage that can reject a
// program.
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/turbobuilt/gots/internal/token"
)

// Kind identifies which pipeline stage rejected the program.
type Kind int

const (
	Lexical Kind = iota
	Parse
	Type
	Link
	ModuleNotFound
	Runtime
)

func (k Kind) String() string {
	switch k {
	case Lexical:
		return "LexicalError"
	case Parse:
		return "ParseError"
	case Type:
		return "TypeError"
	case Link:
		return "LinkError"
	case ModuleNotFound:
		return "ModuleNotFoundError"
	case Runtime:
		return "RuntimeError"
	}
	return "Error"
}

// CompilerError is a single diagnostic with source position and optional
// source-line context, formatted the way a real compiler reports an error:
// a header line, the offending source line, and a caret underneath it.
type CompilerError struct {
	Kind    Kind
	Message string
	File    string
	Pos     token.Position
	Source  string   // full source text, for rendering the offending line
	Stack   []string // import-stack trace, populated for ModuleNotFoundError
}

func New(kind Kind, pos token.Position, file, source, message string) *CompilerError {
	return &CompilerError{Kind: kind, Message: message, File: file, Pos: pos, Source: source}
}

func (e *CompilerError) Error() string { return e.Format(false) }

// Format renders the error with source context; when color is true, ANSI
// colors are applied via github.com/fatih/color the way a terminal CLI
// would highlight it.
func (e *CompilerError) Format(useColor bool) string {
	var sb strings.Builder

	header := fmt.Sprintf("%s", e.Kind)
	if e.File != "" {
		sb.WriteString(fmt.Sprintf("%s in %s:%d:%d\n", header, e.File, e.Pos.Line, e.Pos.Column))
	} else {
		sb.WriteString(fmt.Sprintf("%s at line %d:%d\n", header, e.Pos.Line, e.Pos.Column))
	}

	if line := sourceLine(e.Source, e.Pos.Line); line != "" {
		prefix := fmt.Sprintf("%4d | ", e.Pos.Line)
		sb.WriteString(prefix)
		sb.WriteString(line)
		sb.WriteString("\n")
		sb.WriteString(strings.Repeat(" ", len(prefix)+max0(e.Pos.Column-1)))
		caret := "^"
		if useColor {
			caret = color.New(color.FgRed, color.Bold).Sprint("^")
		}
		sb.WriteString(caret)
		sb.WriteString("\n")
	}

	msg := e.Message
	if useColor {
		msg = color.New(color.Bold).Sprint(msg)
	}
	sb.WriteString(msg)

	if len(e.Stack) > 0 {
		sb.WriteString("\nimport stack:\n")
		for _, s := range e.Stack {
			sb.WriteString("  -> " + s + "\n")
		}
	}

	return sb.String()
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

func sourceLine(src string, line int) string {
	if src == "" {
		return ""
	}
	lines := strings.Split(src, "\n")
	if line < 1 || line > len(lines) {
		return ""
	}
	return lines[line-1]
}

// List aggregates multiple CompilerErrors, e.g. everything the parser
// accumulated in a single pass.
type List []*CompilerError

func (l List) Error() string {
	parts := make([]string, len(l))
	for i, e := range l {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "\n\n")
}
