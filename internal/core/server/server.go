package server

import (
	"bufio"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/andrelcunha/oxidedb/internal/core/store"
	"github.com/andrelcunha/oxidedb/internal/observability"
	"github.com/andrelcunha/oxidedb/internal/protocol"
	"github.com/andrelcunha/oxidedb/internal/protocol/resp3"
)

// Server represents a TCP server
type Server struct {
	store    *store.Store
	config   *Config
	proto    protocol.Protocol
	docs     protocol.Value
	logger   zerolog.Logger
	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
	closing  atomic.Bool
}

// NewServer creates a new server over a store built by the caller. docs is
// the COMMAND DOCS reply, see LoadDocs.
func NewServer(config *Config, st *store.Store, docs protocol.Value, logger zerolog.Logger) *Server {
	if docs == nil {
		docs = protocol.Map{}
	}
	return &Server{
		store:  st,
		config: config,
		proto:  &resp3.RESP3Protocol{},
		docs:   docs,
		logger: logger,
		conns:  make(map[net.Conn]struct{}),
	}
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.config.Addr())
	if err != nil {
		return err
	}
	s.logger.Info().
		Str("addr", ln.Addr().String()).
		Str("version", s.config.Version).
		Str("protocol", s.proto.Version()).
		Strs("commands", availableCommands()).
		Msg("oxidedb server started")
	return s.Serve(ln)
}

// Serve accepts connections on ln and runs one goroutine per connection. The
// accept loop never waits on a connection.
func (s *Server) Serve(ln net.Listener) error {
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	if s.closing.Load() {
		ln.Close()
		return nil
	}

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.closing.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.logger.Error().Err(err).Msg("error accepting connection")
			continue
		}
		if !s.track(conn) {
			conn.Close()
			return nil
		}
		go s.handleConnection(conn)
	}
}

// Shutdown closes the listener and every open connection, then waits for the
// connection goroutines to return.
func (s *Server) Shutdown() {
	s.closing.Store(true)

	s.mu.Lock()
	if s.listener != nil {
		s.listener.Close()
	}
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info().Msg("oxidedb server stopped")
}

func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing.Load() {
		return false
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	conn.Close()
}

// handleConnection runs the read/decode/dispatch/write cycle for one client.
// Any failure ends this connection only.
func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer s.untrack(conn)

	observability.ConnectionOpened()
	defer observability.ConnectionClosed()

	logger := s.logger.With().Str("remote", conn.RemoteAddr().String()).Logger()
	logger.Debug().Msg("connection accepted")

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("recovered from panic while serving connection")
		}
		logger.Debug().Msg("connection closed")
	}()

	reader := bufio.NewReader(conn)
	writer := bufio.NewWriter(conn)

	for {
		// Blocks until the peer sends something or goes away.
		if _, err := reader.Peek(1); err != nil {
			if !errors.Is(err, io.EOF) && !s.closing.Load() {
				logger.Debug().Err(err).Msg("connection read error")
			}
			return
		}

		req, err := s.proto.Parse(reader)
		if err != nil {
			kind := decodeErrorKind(err)
			observability.RecordDecodeError(kind)
			logger.Warn().Err(err).Str("kind", kind).Msg("closing connection after decode failure")
			_ = s.proto.Encode(writer, protocol.Error("ERR Protocol error: "+err.Error()))
			_ = writer.Flush()
			return
		}

		reply := s.Dispatch(req)
		if err := s.proto.Encode(writer, reply); err != nil {
			logger.Debug().Err(err).Msg("error writing reply")
			return
		}
		if err := writer.Flush(); err != nil {
			logger.Debug().Err(err).Msg("error writing reply")
			return
		}
	}
}
