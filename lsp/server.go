// Package lsp is a language server for grammar files. It publishes
// diagnostics as documents change and completes POS tags inside pattern
// slots.
package lsp

import (
	"net/url"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	_ "github.com/tliron/commonlog/simple"
)

const lsName = "cxg"

var log = commonlog.GetLogger("cxg.lsp")

// POSTags are the universal part-of-speech tags offered after "{".
var POSTags = []string{
	"ADJ", "ADP", "ADV", "AUX", "CCONJ", "DET", "INTJ", "NOUN", "NUM",
	"PART", "PRON", "PROPN", "PUNCT", "SCONJ", "SYM", "VERB", "X",
}

type Server struct {
	handler protocol.Handler
	server  *server.Server
	version string

	mu   sync.Mutex
	docs map[string][]byte
}

func NewServer(version string) *Server {
	ls := &Server{
		version: version,
		docs:    make(map[string][]byte),
	}

	ls.handler = protocol.Handler{
		Initialize:             ls.initialize,
		Initialized:            ls.initialized,
		Shutdown:               ls.shutdown,
		SetTrace:               ls.setTrace,
		TextDocumentDidOpen:    ls.textDocumentDidOpen,
		TextDocumentDidChange:  ls.textDocumentDidChange,
		TextDocumentDidClose:   ls.textDocumentDidClose,
		TextDocumentDidSave:    ls.textDocumentDidSave,
		TextDocumentCompletion: ls.textDocumentCompletion,
	}

	ls.server = server.NewServer(&ls.handler, lsName, false)

	return ls
}

func (ls *Server) RunStdio() error {
	return ls.server.RunStdio()
}

func (ls *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	capabilities := ls.handler.CreateServerCapabilities()

	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    intPtr(int(protocol.TextDocumentSyncKindFull)),
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(true),
		},
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{"{"},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &ls.version,
		},
	}, nil
}

func (ls *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (ls *Server) shutdown(ctx *glsp.Context) error {
	return nil
}

func (ls *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (ls *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	ls.update(ctx, params.TextDocument.URI, []byte(params.TextDocument.Text))
	return nil
}

func (ls *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) > 0 {
		change := params.ContentChanges[len(params.ContentChanges)-1]
		if textChange, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			ls.update(ctx, params.TextDocument.URI, []byte(textChange.Text))
		}
	}
	return nil
}

func (ls *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	ls.mu.Lock()
	delete(ls.docs, params.TextDocument.URI)
	ls.mu.Unlock()
	publish(ctx, params.TextDocument.URI, nil)
	return nil
}

func (ls *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	if params.Text != nil {
		ls.update(ctx, params.TextDocument.URI, []byte(*params.Text))
	}
	return nil
}

func (ls *Server) update(ctx *glsp.Context, uri protocol.DocumentUri, content []byte) {
	ls.mu.Lock()
	ls.docs[uri] = content
	ls.mu.Unlock()

	diags := Diagnose(content)
	if path, err := uriToPath(uri); err == nil {
		log.Debugf("%s: %d diagnostics", path, len(diags))
	}
	publish(ctx, uri, diags)
}

func publish(ctx *glsp.Context, uri protocol.DocumentUri, diags []Diagnostic) {
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: toProtocol(diags),
	})
}

func toProtocol(diags []Diagnostic) []protocol.Diagnostic {
	source := lsName
	out := make([]protocol.Diagnostic, 0, len(diags))
	for _, d := range diags {
		severity := protocol.DiagnosticSeverityError
		if d.Severity == SeverityWarning {
			severity = protocol.DiagnosticSeverityWarning
		}
		out = append(out, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: protocol.UInteger(d.Line), Character: protocol.UInteger(d.Column)},
				End:   protocol.Position{Line: protocol.UInteger(d.Line), Character: protocol.UInteger(d.EndColumn)},
			},
			Severity: &severity,
			Source:   &source,
			Message:  d.Message,
		})
	}
	return out
}

func (ls *Server) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	ls.mu.Lock()
	content, ok := ls.docs[params.TextDocument.URI]
	ls.mu.Unlock()
	if !ok {
		return nil, nil
	}

	line := int(params.Position.Line) + 1
	col := int(params.Position.Character)
	if findTriggerPosition(content, line, col) < 0 {
		return nil, nil
	}

	kind := protocol.CompletionItemKindConstant
	items := make([]protocol.CompletionItem, 0, len(POSTags))
	for _, tag := range POSTags {
		insertText := tag + "}"
		items = append(items, protocol.CompletionItem{
			Label:      tag,
			Kind:       &kind,
			InsertText: &insertText,
		})
	}
	return items, nil
}

// findTriggerPosition returns the column of the "{" that opens the slot
// being typed at line (1-based) and col, or -1 when the cursor is not
// inside an open slot.
func findTriggerPosition(content []byte, line, col int) int {
	lines := strings.Split(string(content), "\n")
	if line <= 0 || line > len(lines) {
		return -1
	}
	lineContent := lines[line-1]

	for i := col - 1; i >= 0; i-- {
		if i >= len(lineContent) {
			continue
		}
		switch lineContent[i] {
		case '{':
			return i
		case '}', ' ':
			return -1
		}
	}
	return -1
}

func uriToPath(uri string) (string, error) {
	if strings.HasPrefix(uri, "file://") {
		parsed, err := url.Parse(uri)
		if err != nil {
			return "", err
		}
		return filepath.Clean(parsed.Path), nil
	}
	return uri, nil
}

func boolPtr(b bool) *bool {
	return &b
}

func intPtr(i int) *protocol.TextDocumentSyncKind {
	v := protocol.TextDocumentSyncKind(i)
	return &v
}
