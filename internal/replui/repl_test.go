package replui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/turbobuilt/gots/internal/compiler"
)

// TestHandleMetaCommands exercises the `:`-prefixed commands directly,
// without going through liner's terminal I/O, which needs a real tty:
// handleMeta is driven in isolation from Start's readline loop.
func TestHandleMetaCommands(t *testing.T) {
	r := New()
	r.history = []string{"let x = 1;", "console.log(x);"}

	var buf bytes.Buffer
	if done := r.handleMeta(":history", &buf); done {
		t.Fatal(":history should not terminate the session")
	}
	out := buf.String()
	if !strings.Contains(out, "let x = 1;") || !strings.Contains(out, "console.log(x);") {
		t.Fatalf(":history output missing entries: %q", out)
	}

	buf.Reset()
	if done := r.handleMeta(":clear", &buf); done {
		t.Fatal(":clear should not terminate the session")
	}
	if len(r.history) != 0 {
		t.Fatalf("want history cleared, got %v", r.history)
	}

	buf.Reset()
	if done := r.handleMeta(":quit", &buf); !done {
		t.Fatal(":quit should terminate the session")
	}
}

func TestEvalLineReportsCompileErrors(t *testing.T) {
	r := New()
	var buf bytes.Buffer
	r.evalLine(`function broken( {`, &buf)
	if !strings.Contains(buf.String(), "ParseError") {
		t.Fatalf("want a ParseError reported, got %q", buf.String())
	}
}

func TestEvalLineStackVMDoesNotExecute(t *testing.T) {
	r := New()
	r.Backend = compiler.BackendStackVM
	var buf bytes.Buffer
	r.evalLine(`console.log(1);`, &buf)
	if !strings.Contains(buf.String(), "does not execute") {
		t.Fatalf("want a stackvm no-execute note, got %q", buf.String())
	}
}
