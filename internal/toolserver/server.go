package toolserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/mnemosyne/mnemosyne/internal/graphlayer"
	"github.com/mnemosyne/mnemosyne/internal/layer"
	"github.com/mnemosyne/mnemosyne/internal/middleware"
	"github.com/mnemosyne/mnemosyne/internal/mixer"
	"github.com/mnemosyne/mnemosyne/internal/relationship"
	"github.com/mnemosyne/mnemosyne/internal/router"
	"github.com/mnemosyne/mnemosyne/internal/search"
	"github.com/mnemosyne/mnemosyne/pkg/types"
)

// Server wires the coordination surfaces into the 22-tool contract.
type Server struct {
	router    *router.Router
	relEngine *relationship.Engine
	search    *search.Engine
	mixer     *mixer.Mixer
	graph     graphlayer.GraphLayer
	tiers     map[types.Tier]layer.Capability

	logger *log.Logger

	tools map[string]toolHandler
}

// toolHandler implements one tool's business logic. args is the
// already-decoded arguments object; reqCtx carries the caller's
// credentials for the check-request hook.
type toolHandler func(ctx context.Context, s *Server, args map[string]any, reqCtx middleware.RequestContext) (any, error)

func New(
	r *router.Router,
	relEngine *relationship.Engine,
	searchEngine *search.Engine,
	mix *mixer.Mixer,
	graph graphlayer.GraphLayer,
	tiers map[types.Tier]layer.Capability,
	logger *log.Logger,
) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{
		router:    r,
		relEngine: relEngine,
		search:    searchEngine,
		mixer:     mix,
		graph:     graph,
		tiers:     tiers,
		logger:    logger,
	}
	s.tools = buildToolRegistry()
	return s
}

// HandleRequest decodes, dispatches, and fully resolves one JSON-RPC
// request into a response frame. It never returns an error: any failure
// is already folded into the JSON-RPC error response.
func (s *Server) HandleRequest(ctx context.Context, requestJSON []byte) []byte {
	var req JSONRPCRequest
	if err := json.Unmarshal(requestJSON, &req); err != nil {
		return s.errorResponse(nil, ErrCodeParseError, "parse error", nil)
	}
	if req.JSONRPC != "2.0" {
		return s.errorResponse(req.ID, ErrCodeInvalidRequest, "invalid JSON-RPC version", nil)
	}

	var result any
	var err error

	switch req.Method {
	case "initialize":
		result = InitializeResult{
			ProtocolVersion: "2024-11-05",
			Capabilities:    ServerCapabilities{Tools: &ToolsCapability{}},
			ServerInfo:      ServerInfo{Name: "mnemosyne", Version: "1.0.0"},
		}
	case "initialized":
		result = map[string]any{}
	case "tools/list":
		result = ToolsListResult{Tools: s.toolDescriptors()}
	case "tools/call":
		result, err = s.handleToolsCall(ctx, req.Params)
	default:
		return s.errorResponse(req.ID, ErrCodeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method), nil)
	}

	if err != nil {
		return s.errorResponseFromErr(req.ID, err)
	}
	return s.successResponse(req.ID, result)
}

func (s *Server) handleToolsCall(ctx context.Context, params any) (any, error) {
	var p ToolCallParams
	if err := decodeParams(params, &p); err != nil {
		return nil, types.NewError(types.KindValidation, "invalid tools/call params", err)
	}
	handler, ok := s.tools[p.Name]
	if !ok {
		return nil, types.NewError(types.KindValidation, "unknown tool: "+p.Name, nil)
	}

	reqCtx := middleware.RequestContext{}
	if tok, ok := p.Arguments["authToken"].(string); ok {
		reqCtx.AuthToken = tok
		delete(p.Arguments, "authToken")
	}
	ctx = middleware.ContextWithRequest(ctx, reqCtx)

	result, err := handler(ctx, s, p.Arguments, reqCtx)
	if err != nil {
		return s.toolErrorContent(err), nil
	}
	text, merr := json.Marshal(result)
	if merr != nil {
		return nil, merr
	}
	return ToolCallResult{Content: []ToolCallContent{{Type: "text", Text: string(text)}}}, nil
}

// toolErrorContent turns a tagged error into the documented
// {error:{code,message,details?,retryAfter?}} envelope, wrapped in the
// MCP content response with isError set.
func (s *Server) toolErrorContent(err error) ToolCallResult {
	var payload errorPayload
	var te *types.Error
	if ok := asTypesError(err, &te); ok {
		payload.Error.Code = te.Kind.String()
		payload.Error.Message = te.Message
		if te.Details != nil {
			payload.Error.Details = te.Details
			if ra, ok := te.Details["retryAfter"].(string); ok {
				payload.Error.RetryAfter = ra
			}
		}
	} else {
		payload.Error.Code = "Internal"
		payload.Error.Message = err.Error()
	}
	text, _ := json.Marshal(payload)
	return ToolCallResult{Content: []ToolCallContent{{Type: "text", Text: string(text)}}, IsError: true}
}

func (s *Server) successResponse(id any, result any) []byte {
	resp := JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: result}
	data, err := json.Marshal(resp)
	if err != nil {
		return s.errorResponse(id, ErrCodeInternalError, "failed to marshal result", nil)
	}
	return data
}

func (s *Server) errorResponse(id any, code int, message string, data any) []byte {
	resp := JSONRPCResponse{JSONRPC: "2.0", ID: id, Error: &JSONRPCError{Code: code, Message: message, Data: data}}
	out, err := json.Marshal(resp)
	if err != nil {
		return []byte(`{"jsonrpc":"2.0","id":null,"error":{"code":-32603,"message":"internal error"}}`)
	}
	return out
}

func (s *Server) errorResponseFromErr(id any, err error) []byte {
	var te *types.Error
	if asTypesError(err, &te) {
		code := ErrCodeServerError
		if te.Kind == types.KindRateLimited {
			code = ErrCodeRateLimited
		}
		if te.Kind == types.KindValidation {
			code = ErrCodeInvalidParams
		}
		return s.errorResponse(id, code, te.Error(), nil)
	}
	return s.errorResponse(id, ErrCodeServerError, err.Error(), nil)
}

func asTypesError(err error, target **types.Error) bool {
	te, ok := err.(*types.Error)
	if ok {
		*target = te
	}
	return ok
}
