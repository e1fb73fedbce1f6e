// Package saferr collects diagnostics produced while scanning, parsing,
// checking, and compiling Saffron source, in the spirit of the standard
// library's go/scanner.ErrorList (the shape the teacher itself aliases in
// lang/scanner), but keyed by a plain line number instead of a file set
// position, since Saffron tracks line-only source spans (spec.md §3).
package saferr

import (
	"fmt"
	"sort"
	"strings"
)

// Error is one diagnostic: the source line it was reported against and a
// human-readable message.
type Error struct {
	Line int
	Msg  string
}

func (e Error) Error() string {
	if e.Line <= 0 {
		return e.Msg
	}
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// List accumulates Errors in report order and sorts them by source line on
// demand. The zero value is ready to use.
type List struct {
	errs []Error
}

// Add appends a single diagnostic.
func (l *List) Add(line int, msg string) {
	l.errs = append(l.errs, Error{Line: line, Msg: msg})
}

// Addf appends a formatted diagnostic.
func (l *List) Addf(line int, format string, args ...interface{}) {
	l.Add(line, fmt.Sprintf(format, args...))
}

// Len reports how many diagnostics have been recorded.
func (l *List) Len() int { return len(l.errs) }

// HasErrors reports whether any diagnostic was recorded.
func (l *List) HasErrors() bool { return len(l.errs) > 0 }

// Errs returns the accumulated diagnostics, sorted by line, stable on
// report order for same-line diagnostics.
func (l *List) Errs() []Error {
	sort.SliceStable(l.errs, func(i, j int) bool { return l.errs[i].Line < l.errs[j].Line })
	return l.errs
}

// Unwrap lets errors.Is/errors.As reach into the individual diagnostics.
func (l *List) Unwrap() []error {
	errs := l.Errs()
	out := make([]error, len(errs))
	for i, e := range errs {
		out[i] = e
	}
	return out
}

// Error implements the error interface by joining every diagnostic onto its
// own line, go/scanner.ErrorList style.
func (l *List) Error() string {
	switch len(l.errs) {
	case 0:
		return "no errors"
	case 1:
		return l.errs[0].Error()
	}
	var b strings.Builder
	for i, e := range l.Errs() {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(e.Error())
	}
	return b.String()
}

// Reset discards every accumulated diagnostic.
func (l *List) Reset() { l.errs = l.errs[:0] }
