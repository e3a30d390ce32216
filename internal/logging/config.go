// Package logging provides configurable zap logger creation for searchctl.
package logging

// Style selects the logger's output encoding.
type Style string

const (
	StyleTerminal Style = "terminal"
	StyleJson     Style = "json"
	StyleLogfmt   Style = "logfmt"
	StyleNoop     Style = "noop"
)

// Config drives NewLogger. A zero Config yields terminal style at info level.
type Config struct {
	Style Style
	Level string
}
