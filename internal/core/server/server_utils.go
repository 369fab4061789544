package server

import (
	"errors"
	"io"
	"sort"

	"github.com/andrelcunha/oxidedb/internal/protocol"
)

// availableCommands returns a list of available commands
func availableCommands() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// decodeErrorKind labels a decode failure for metrics.
func decodeErrorKind(err error) string {
	switch {
	case errors.Is(err, protocol.ErrSimpleString):
		return "simple_string"
	case errors.Is(err, protocol.ErrInteger):
		return "integer"
	case errors.Is(err, protocol.ErrBool):
		return "bool"
	case errors.Is(err, protocol.ErrDouble):
		return "double"
	case errors.Is(err, protocol.ErrVerbatimString):
		return "verbatim_string"
	case errors.Is(err, protocol.ErrUnknownDataType):
		return "unknown_data_type"
	case errors.Is(err, protocol.ErrNaNKey):
		return "nan_key"
	case errors.Is(err, protocol.ErrNesting):
		return "nesting"
	case errors.Is(err, io.ErrUnexpectedEOF):
		return "truncated"
	}
	return "io"
}

// AsciiLogo is printed by the server binary at startup.
func AsciiLogo() string {
	return `
  ___           _     _      ____  ____  
 / _ \__  __ (_) __| | ___|  _ \| __ ) 
| | | \ \/ / | |/ _` + "`" + ` |/ _ \ | | |  _ \ 
| |_| |>  <  | | (_| |  __/ |_| | |_) |
 \___//_/\_\ |_|\__,_|\___|____/|____/ 

`
}
