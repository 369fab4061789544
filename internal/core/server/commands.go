package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/andrelcunha/oxidedb/internal/observability"
	"github.com/andrelcunha/oxidedb/internal/protocol"
)

const errUnknownCommand = protocol.Error("ERR unknown command")

var replyOK = protocol.SimpleString("OK")

type handlerFunc func(s *Server, args []protocol.Value) protocol.Value

// command describes one entry of the dispatch table. maxArgs < 0 means any
// number of arguments from minArgs up.
type command struct {
	name    string
	minArgs int
	maxArgs int
	handler handlerFunc
}

var commands = map[string]command{
	"command": {name: "command", minArgs: 0, maxArgs: 1, handler: (*Server).commandDocs},
	"get":     {name: "get", minArgs: 1, maxArgs: 1, handler: (*Server).get},
	"set":     {name: "set", minArgs: 2, maxArgs: 2, handler: (*Server).set},
	"incr":    {name: "incr", minArgs: 1, maxArgs: 1, handler: (*Server).incr},
	"decr":    {name: "decr", minArgs: 1, maxArgs: 1, handler: (*Server).decr},
	"del":     {name: "del", minArgs: 1, maxArgs: -1, handler: (*Server).del},
}

// Dispatch runs one decoded request against the store and returns the reply.
// Handlers only touch the store; writing the reply is left to the caller.
func (s *Server) Dispatch(req protocol.Value) protocol.Value {
	arr, ok := req.(protocol.Array)
	if !ok || len(arr) == 0 {
		return errUnknownCommand
	}
	name, ok := protocol.Text(arr[0])
	if !ok {
		return errUnknownCommand
	}
	cmd, ok := commands[strings.ToLower(name)]
	if !ok {
		return errUnknownCommand
	}
	args := arr[1:]
	if len(args) < cmd.minArgs || (cmd.maxArgs >= 0 && len(args) > cmd.maxArgs) {
		return wrongArgs(cmd.name)
	}

	start := time.Now()
	reply := cmd.handler(s, args)
	_, failed := reply.(protocol.Error)
	observability.RecordCommand(cmd.name, !failed, time.Since(start))
	return reply
}

func wrongArgs(name string) protocol.Error {
	return protocol.Error(fmt.Sprintf("ERR wrong number of arguments for '%s' command", name))
}

func invalidKey(name string) protocol.Error {
	return protocol.Error(fmt.Sprintf("ERR invalid key for '%s' command", name))
}

func (s *Server) commandDocs(args []protocol.Value) protocol.Value {
	if len(args) == 1 {
		sub, _ := protocol.Text(args[0])
		if !strings.EqualFold(sub, "docs") {
			return protocol.Error(fmt.Sprintf("ERR unknown subcommand '%s'. Try COMMAND HELP.", args[0]))
		}
	}
	return s.docs
}

func (s *Server) get(args []protocol.Value) protocol.Value {
	key, ok := protocol.Text(args[0])
	if !ok {
		return invalidKey("get")
	}
	value, ok := s.store.Get(key)
	if !ok {
		return protocol.Null{}
	}
	return value
}

func (s *Server) set(args []protocol.Value) protocol.Value {
	key, ok := protocol.Text(args[0])
	if !ok {
		return invalidKey("set")
	}
	s.store.Set(key, args[1])
	observability.SetKeys(s.store.Len())
	return replyOK
}

func (s *Server) incr(args []protocol.Value) protocol.Value {
	return s.incrBy("incr", args[0], 1)
}

func (s *Server) decr(args []protocol.Value) protocol.Value {
	return s.incrBy("decr", args[0], -1)
}

func (s *Server) incrBy(name string, keyArg protocol.Value, delta int64) protocol.Value {
	key, ok := protocol.Text(keyArg)
	if !ok {
		return invalidKey(name)
	}
	n, err := s.store.IncrBy(key, delta)
	if err != nil {
		return protocol.Error(err.Error())
	}
	observability.SetKeys(s.store.Len())
	return protocol.Integer(n)
}

func (s *Server) del(args []protocol.Value) protocol.Value {
	keys := make([]string, len(args))
	for i, arg := range args {
		key, ok := protocol.Text(arg)
		if !ok {
			return invalidKey("del")
		}
		keys[i] = key
	}
	n := s.store.Del(keys...)
	observability.SetKeys(s.store.Len())
	return protocol.Integer(n)
}
