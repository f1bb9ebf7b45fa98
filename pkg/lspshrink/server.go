// Package lspshrink exposes the shrink pipeline over an LSP-style jsonrpc2
// connection, so an editor can ask for a live preview of what a save would
// delete without writing the result to disk.
package lspshrink

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"

	"github.com/prunelang/prune/pkg/bundle"
	"github.com/prunelang/prune/pkg/config"
	"github.com/prunelang/prune/pkg/engine"
)

// shrinkMethod is the custom LSP request an editor extension sends to run
// the shrink pipeline over the document's current text, without touching
// disk. It rides the same jsonrpc2.Conn as the standard textDocument/*
// methods.
const shrinkMethod = "prune/shrink"

// ShrinkParams is shrinkMethod's request payload.
type ShrinkParams struct {
	TextDocument protocol.TextDocumentIdentifier `json:"textDocument"`
	Text         string                          `json:"text"`
	KeepTags     []string                        `json:"keepTags,omitempty"`
}

// ShrinkResult is shrinkMethod's response payload.
type ShrinkResult struct {
	Text          string `json:"text"`
	DeclsRemoved  int    `json:"declsRemoved"`
	GuardsRemoved int    `json:"guardsRemoved"`
}

// Logger is the subset of a structured logger the server needs.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Server answers LSP lifecycle messages and shrinkMethod requests for
// documents it's been told about via textDocument/didOpen and
// textDocument/didChange.
type Server struct {
	logger Logger

	mu   sync.RWMutex
	docs map[protocol.URI]string

	connMu sync.RWMutex
	conn   jsonrpc2.Conn
}

// NewServer creates a shrink-preview server.
func NewServer(logger Logger) *Server {
	return &Server{
		logger: logger,
		docs:   make(map[protocol.URI]string),
	}
}

// SetConn stores the connection the server runs on. Nothing in this
// package sends over it; every answer goes back through a request's reply.
func (s *Server) SetConn(conn jsonrpc2.Conn) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	s.conn = conn
}

// Handler returns the jsonrpc2.Handler that drives this server.
func (s *Server) Handler() jsonrpc2.Handler {
	return jsonrpc2.ReplyHandler(s.handle)
}

func (s *Server) handle(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	s.logger.Debugf("lspshrink: %s", req.Method())

	switch req.Method() {
	case "initialize":
		return s.handleInitialize(ctx, reply, req)
	case "initialized", "shutdown", "exit":
		return reply(ctx, nil, nil)
	case "textDocument/didOpen":
		return s.handleDidOpen(ctx, reply, req)
	case "textDocument/didChange":
		return s.handleDidChange(ctx, reply, req)
	case "textDocument/didClose":
		return s.handleDidClose(ctx, reply, req)
	case shrinkMethod:
		return s.handleShrink(ctx, reply, req)
	default:
		return reply(ctx, nil, fmt.Errorf("method not implemented: %s", req.Method()))
	}
}

func (s *Server) handleInitialize(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.InitializeParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, fmt.Errorf("invalid initialize params: %w", err))
	}

	result := protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
			},
		},
		ServerInfo: &protocol.ServerInfo{
			Name:    "prune-lsp",
			Version: "0.1.0-alpha",
		},
	}
	return reply(ctx, result, nil)
}

func (s *Server) handleDidOpen(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidOpenTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, err)
	}
	s.setDoc(params.TextDocument.URI, params.TextDocument.Text)
	return reply(ctx, nil, nil)
}

func (s *Server) handleDidChange(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidChangeTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, err)
	}
	if len(params.ContentChanges) == 0 {
		return reply(ctx, nil, nil)
	}
	// Synced with TextDocumentSyncKindFull: the last change carries the
	// document's whole new text.
	s.setDoc(params.TextDocument.URI, params.ContentChanges[len(params.ContentChanges)-1].Text)
	return reply(ctx, nil, nil)
}

func (s *Server) handleDidClose(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidCloseTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, err)
	}
	s.mu.Lock()
	delete(s.docs, params.TextDocument.URI)
	s.mu.Unlock()
	return reply(ctx, nil, nil)
}

// handleShrink runs the shrink pipeline over the request's text (falling
// back to the last-synced document text) and returns the rewritten source
// without writing anything to disk.
func (s *Server) handleShrink(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params ShrinkParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, fmt.Errorf("invalid shrink params: %w", err))
	}

	text := params.Text
	if text == "" {
		text = s.getDoc(params.TextDocument.URI)
	}

	result, err := s.shrinkText(params.TextDocument.URI, text, params.KeepTags)
	if err != nil {
		s.logger.Warnf("shrink failed for %s: %v", params.TextDocument.URI, err)
		return reply(ctx, nil, fmt.Errorf("shrink failed: %w", err))
	}

	return reply(ctx, result, nil)
}

// shrinkText is handleShrink's jsonrpc2-free core: it runs the shrink
// pipeline over text and reports what it removed.
func (s *Server) shrinkText(uri protocol.URI, text string, keepTags []string) (ShrinkResult, error) {
	b := bundle.Single(uri.Filename(), []byte(text))
	cfg := config.DefaultConfig().Prune
	cfg.KeepTags = keepTags
	result, err := engine.Optimize(b, cfg)
	if err != nil {
		return ShrinkResult{}, err
	}
	return ShrinkResult{
		Text:          string(result.Source),
		DeclsRemoved:  result.DeclsRemoved,
		GuardsRemoved: result.GuardsRemoved,
	}, nil
}

func (s *Server) setDoc(uri protocol.URI, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[uri] = text
}

func (s *Server) getDoc(uri protocol.URI) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs[uri]
}
