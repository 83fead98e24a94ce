package shader

import "fmt"

// ParseError reports a problem in shader source text. Line is 1-based, 0 when the problem
// is not tied to one line.
type ParseError struct {
	Path string
	Line int
	Msg  string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	path := e.Path
	if path == "" {
		path = "<source>"
	}
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", path, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", path, e.Msg)
}

func parseErrorf(line int, format string, args ...any) *ParseError {
	return &ParseError{Line: line, Msg: fmt.Sprintf(format, args...)}
}
