package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"
	"github.com/saffron-lang/saffron/lang/parser"
)

func readFile(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (c *Cmd) Parse(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return ParseFile(stdio, args[0])
}

// ParseFile parses path and prints its AST, one indented line per node.
func ParseFile(stdio mainer.Stdio, path string) error {
	src, err := readFile(path)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}

	chunk, err := parser.ParseChunk(path, src)
	if err != nil {
		fmt.Fprintln(stdio.Stderr, err)
		return err
	}
	printAST(stdio.Stdout, chunk)
	return nil
}
