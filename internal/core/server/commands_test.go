package server

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/andrelcunha/oxidedb/internal/core/store"
	"github.com/andrelcunha/oxidedb/internal/protocol"
	"github.com/andrelcunha/oxidedb/internal/protocol/resp3"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	docs, err := LoadDocs("")
	if err != nil {
		t.Fatalf("LoadDocs: %v", err)
	}
	return NewServer(NewConfig(), store.New(), docs, zerolog.Nop())
}

func cmd(parts ...string) protocol.Array {
	arr := make(protocol.Array, len(parts))
	for i, p := range parts {
		arr[i] = protocol.BulkString(p)
	}
	return arr
}

func assertReply(t *testing.T, got, want protocol.Value) {
	t.Helper()
	if got.Kind() != want.Kind() || !protocol.Equal(got, want) {
		t.Fatalf("got %s %q, want %s %q", got.Kind(), got, want.Kind(), want)
	}
}

func assertError(t *testing.T, got protocol.Value, prefix string) {
	t.Helper()
	e, ok := got.(protocol.Error)
	if !ok {
		t.Fatalf("expected error reply, got %s %q", got.Kind(), got)
	}
	if !strings.HasPrefix(string(e), prefix) {
		t.Fatalf("expected error starting with %q, got %q", prefix, e)
	}
}

func TestGetSet(t *testing.T) {
	s := newTestServer(t)
	assertReply(t, s.Dispatch(cmd("GET", "k")), protocol.Null{})
	assertReply(t, s.Dispatch(cmd("SET", "k", "v")), protocol.SimpleString("OK"))
	for i := 0; i < 3; i++ {
		assertReply(t, s.Dispatch(cmd("GET", "k")), protocol.BulkString("v"))
	}
	assertReply(t, s.Dispatch(cmd("SET", "k", "w")), protocol.SimpleString("OK"))
	assertReply(t, s.Dispatch(cmd("GET", "k")), protocol.BulkString("w"))
}

func TestSetStoresAnyValue(t *testing.T) {
	s := newTestServer(t)
	m, _ := protocol.NewMap(protocol.MapEntry{Key: protocol.BulkString("f"), Value: protocol.Bool(true)})
	req := protocol.Array{protocol.BulkString("SET"), protocol.BulkString("m"), m}
	assertReply(t, s.Dispatch(req), protocol.SimpleString("OK"))
	assertReply(t, s.Dispatch(cmd("GET", "m")), m)
}

func TestCommandNamesAreCaseInsensitive(t *testing.T) {
	s := newTestServer(t)
	assertReply(t, s.Dispatch(cmd("sEt", "k", "1")), protocol.SimpleString("OK"))
	assertReply(t, s.Dispatch(cmd("incr", "k")), protocol.Integer(2))
	assertReply(t, s.Dispatch(cmd("Get", "k")), protocol.BulkString("2"))
}

func TestIncrDecr(t *testing.T) {
	s := newTestServer(t)
	assertReply(t, s.Dispatch(cmd("INCR", "n")), protocol.Integer(1))
	assertReply(t, s.Dispatch(cmd("GET", "n")), protocol.BulkString("1"))
	assertReply(t, s.Dispatch(cmd("DECR", "n")), protocol.Integer(0))
	assertReply(t, s.Dispatch(cmd("GET", "n")), protocol.BulkString("0"))
	assertReply(t, s.Dispatch(cmd("DECR", "m")), protocol.Integer(-1))
}

func TestIncrNonInteger(t *testing.T) {
	s := newTestServer(t)
	req := protocol.Array{protocol.BulkString("SET"), protocol.BulkString("k"), protocol.SimpleString("abc")}
	assertReply(t, s.Dispatch(req), protocol.SimpleString("OK"))

	assertError(t, s.Dispatch(cmd("INCR", "k")), "ERR value is not an integer or out of range")
	assertError(t, s.Dispatch(cmd("DECR", "k")), "ERR value is not an integer or out of range")
	assertReply(t, s.Dispatch(cmd("GET", "k")), protocol.SimpleString("abc"))
}

func TestIncrOverflow(t *testing.T) {
	s := newTestServer(t)
	s.Dispatch(cmd("SET", "k", "9223372036854775807"))
	assertError(t, s.Dispatch(cmd("INCR", "k")), "ERR increment or decrement would overflow")
	assertReply(t, s.Dispatch(cmd("GET", "k")), protocol.BulkString("9223372036854775807"))
}

func TestDel(t *testing.T) {
	s := newTestServer(t)
	s.Dispatch(cmd("SET", "a", "1"))
	assertReply(t, s.Dispatch(cmd("DEL", "a", "b", "c")), protocol.Integer(1))
	assertReply(t, s.Dispatch(cmd("GET", "a")), protocol.Null{})
	assertReply(t, s.Dispatch(cmd("DEL", "a")), protocol.Integer(0))
}

func TestArity(t *testing.T) {
	tests := []struct {
		name string
		req  protocol.Array
		want string
	}{
		{"set without value", cmd("SET", "k"), "ERR wrong number of arguments for 'set' command"},
		{"set extra", cmd("SET", "k", "v", "x"), "ERR wrong number of arguments for 'set' command"},
		{"get without key", cmd("GET"), "ERR wrong number of arguments for 'get' command"},
		{"get two keys", cmd("GET", "a", "b"), "ERR wrong number of arguments for 'get' command"},
		{"incr without key", cmd("INCR"), "ERR wrong number of arguments for 'incr' command"},
		{"decr two keys", cmd("DECR", "a", "b"), "ERR wrong number of arguments for 'decr' command"},
		{"del without keys", cmd("DEL"), "ERR wrong number of arguments for 'del' command"},
		{"command too many", cmd("COMMAND", "DOCS", "GET"), "ERR wrong number of arguments for 'command' command"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			assertError(t, s.Dispatch(tt.req), tt.want)
			if s.store.Len() != 0 {
				t.Fatalf("store modified by rejected command")
			}
		})
	}
}

func TestSetWithoutValueDoesNotCreateKey(t *testing.T) {
	s := newTestServer(t)
	assertError(t, s.Dispatch(cmd("SET", "k")), "ERR wrong number of arguments")
	assertReply(t, s.Dispatch(cmd("GET", "k")), protocol.Null{})
}

func TestUnknownCommand(t *testing.T) {
	s := newTestServer(t)
	for _, req := range []protocol.Value{
		cmd("FLUSHALL"),
		protocol.Array{},
		protocol.BulkString("GET"),
		protocol.Integer(1),
		protocol.Array{protocol.Integer(1), protocol.BulkString("k")},
	} {
		assertReply(t, s.Dispatch(req), protocol.Error("ERR unknown command"))
	}
}

func TestInvalidKey(t *testing.T) {
	s := newTestServer(t)
	req := protocol.Array{protocol.BulkString("GET"), protocol.Integer(1)}
	assertError(t, s.Dispatch(req), "ERR invalid key for 'get' command")
	req = protocol.Array{protocol.BulkString("DEL"), protocol.BulkString("a"), protocol.Null{}}
	assertError(t, s.Dispatch(req), "ERR invalid key for 'del' command")
}

func TestSimpleStringKeysAccepted(t *testing.T) {
	s := newTestServer(t)
	req := protocol.Array{protocol.SimpleString("SET"), protocol.SimpleString("k"), protocol.Integer(5)}
	assertReply(t, s.Dispatch(req), protocol.SimpleString("OK"))
	assertReply(t, s.Dispatch(cmd("INCR", "k")), protocol.Integer(6))
}

func TestCommandDocs(t *testing.T) {
	s := newTestServer(t)
	for _, req := range []protocol.Array{cmd("COMMAND"), cmd("COMMAND", "DOCS"), cmd("command", "docs")} {
		reply := s.Dispatch(req)
		m, ok := reply.(protocol.Map)
		if !ok {
			t.Fatalf("expected map reply for %v, got %s", req, reply.Kind())
		}
		if _, ok := m.Get(protocol.BulkString("get")); !ok {
			t.Fatalf("docs payload has no entry for get")
		}
	}
	assertError(t, s.Dispatch(cmd("COMMAND", "INFO")), "ERR unknown subcommand 'INFO'")
}

func TestErrorRepliesStayOneFrame(t *testing.T) {
	s := newTestServer(t)
	wire := resp3.Marshal(s.Dispatch(cmd("COMMAND", "x\r\n+OK")))

	r := bufio.NewReader(bytes.NewReader(wire))
	var r3 resp3.RESP3Protocol
	reply, err := r3.Parse(r)
	if err != nil {
		t.Fatalf("Parse(%q): %v", wire, err)
	}
	assertError(t, reply, "ERR unknown subcommand 'x  +OK'")
	if r.Buffered() != 0 {
		t.Fatalf("reply %q decodes to more than one frame", wire)
	}
}

func TestDecodeErrorKind(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{":abc\r\n", "integer"},
		{"?x\r\n", "unknown_data_type"},
		{"~1\r\n,nan\r\n", "nan_key"},
		{strings.Repeat("*1\r\n", resp3.MaxNestingDepth+1), "nesting"},
		{"$10\r\nabc", "truncated"},
	}
	for _, tt := range tests {
		_, err := resp3.Unmarshal([]byte(tt.input))
		if got := decodeErrorKind(err); got != tt.want {
			t.Errorf("decodeErrorKind(%v) = %q, want %q", err, got, tt.want)
		}
	}
}

func TestAvailableCommands(t *testing.T) {
	got := strings.Join(availableCommands(), " ")
	if got != "command decr del get incr set" {
		t.Fatalf("unexpected command list %q", got)
	}
}
