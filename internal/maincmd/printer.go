package maincmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/saffron-lang/saffron/lang/ast"
)

// astPrinter walks an *ast.Chunk depth-first and writes one indented line
// per node, adapted from the teacher's lang/ast.Printer (mna-nenuphar): the
// same depth-tracked, dot-indented Visit(n, dir) shape, simplified because
// Saffron's ast.Node only carries Kind()/Line() — no file-position/Span
// tracking to print alongside (see lang/ast/ast.go).
type astPrinter struct {
	w     io.Writer
	depth int
}

func (p *astPrinter) Visit(n ast.Node, dir ast.VisitDirection) ast.Visitor {
	if dir == ast.VisitExit {
		p.depth--
		return nil
	}
	fmt.Fprintf(p.w, "%s%s [line %d]\n", strings.Repeat(". ", p.depth), n.Kind(), n.Line())
	p.depth++
	return p
}

// printAST dumps chunk's tree to w, one line per node.
func printAST(w io.Writer, chunk *ast.Chunk) {
	ast.Walk(&astPrinter{w: w}, chunk)
}
