package main

import (
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/muesli/termenv"
)

// snippetContext is the number of lines shown on each side of the offending line.
const snippetContext = 1

// snippet prints the lines around line of path, highlighted when the terminal has colour.
func (r *reporter) snippet(path string, line int) {
	data, err := r.manifest.ReadResolved(path)
	if err != nil {
		return
	}
	lines := highlightLines(path, string(data), r.out.Profile != termenv.Ascii)
	if line < 1 || line > len(lines) {
		return
	}

	fmt.Fprintf(r.out, "      %s\n", r.faint(path))
	first := max(line-snippetContext, 1)
	last := min(line+snippetContext, len(lines))
	for n := first; n <= last; n++ {
		marker := " "
		if n == line {
			marker = r.fail(">")
		}
		fmt.Fprintf(r.out, "    %s %s %s\n", marker, r.faint(fmt.Sprintf("%4d |", n)), lines[n-1])
	}
}

// highlightLines splits src into lines, each rendered for a 256 colour terminal when colour is
// true and left plain otherwise.
func highlightLines(path, src string, colour bool) []string {
	plain := strings.Split(strings.TrimSuffix(src, "\n"), "\n")
	if !colour {
		return plain
	}

	lexer := lexers.Match(path)
	if lexer == nil {
		lexer = lexers.Get("glsl")
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, src)
	if err != nil {
		return plain
	}
	formatter := formatters.Get("terminal256")
	style := styles.Get("monokai")

	var out []string
	for _, toks := range chroma.SplitTokensIntoLines(iterator.Tokens()) {
		for i := range toks {
			toks[i].Value = strings.TrimRight(toks[i].Value, "\n")
		}
		var sb strings.Builder
		if err := formatter.Format(&sb, style, chroma.Literator(toks...)); err != nil {
			return plain
		}
		out = append(out, sb.String())
	}
	if len(out) < len(plain) {
		return plain
	}
	return out
}
