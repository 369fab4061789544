package server

import (
	"bufio"
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"github.com/andrelcunha/oxidedb/internal/protocol"
	"github.com/andrelcunha/oxidedb/internal/protocol/resp3"
)

//go:embed docs/command_docs.resp
var defaultDocs []byte

// LoadDocs reads the COMMAND DOCS reply from path, or the built-in payload
// when path is empty. The payload is decoded once so that it is served in the
// same canonical encoding as every other reply.
func LoadDocs(path string) (protocol.Value, error) {
	raw := defaultDocs
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read command docs: %w", err)
		}
		raw = b
	}
	var r3 resp3.RESP3Protocol
	docs, err := r3.Parse(bufio.NewReader(bytes.NewReader(raw)))
	if err != nil {
		return nil, fmt.Errorf("parse command docs %q: %w", path, err)
	}
	return docs, nil
}
