package maincmd

import (
	"context"
	"fmt"

	"github.com/mna/mainer"
	"github.com/saffron-lang/saffron/lang/scanner"
	"github.com/saffron-lang/saffron/lang/token"
)

func (c *Cmd) Tokenize(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return TokenizeFile(stdio, args[0])
}

// TokenizeFile scans path and prints one line per token: its line, its kind,
// and its quoted lexeme whenever that is non-empty (the EOF token prints no
// lexeme).
func TokenizeFile(stdio mainer.Stdio, path string) error {
	src, err := readFile(path)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	sc := scanner.New(src)
	toks := sc.ScanAll()
	for _, tok := range toks {
		fmt.Fprintf(stdio.Stdout, "%d: %s", tok.Line, tok.Kind)
		if tok.Kind != token.EOF && tok.Lexeme != "" {
			fmt.Fprintf(stdio.Stdout, " %q", tok.Lexeme)
		}
		fmt.Fprintln(stdio.Stdout)
	}
	if sc.Errors.HasErrors() {
		fmt.Fprintln(stdio.Stderr, sc.Errors.Error())
		return &sc.Errors
	}
	return nil
}
