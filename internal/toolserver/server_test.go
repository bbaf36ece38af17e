package toolserver_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/mnemosyne/mnemosyne/internal/config"
	"github.com/mnemosyne/mnemosyne/internal/global"
	"github.com/mnemosyne/mnemosyne/internal/graphlayer"
	"github.com/mnemosyne/mnemosyne/internal/layer"
	"github.com/mnemosyne/mnemosyne/internal/mixer"
	"github.com/mnemosyne/mnemosyne/internal/project"
	"github.com/mnemosyne/mnemosyne/internal/relationship"
	"github.com/mnemosyne/mnemosyne/internal/router"
	"github.com/mnemosyne/mnemosyne/internal/search"
	"github.com/mnemosyne/mnemosyne/internal/session"
	"github.com/mnemosyne/mnemosyne/internal/temporal"
	"github.com/mnemosyne/mnemosyne/internal/toolserver"
	"github.com/mnemosyne/mnemosyne/pkg/types"
)

func newTestServer(t *testing.T) *toolserver.Server {
	t.Helper()
	cfg := config.Default()
	root := t.TempDir()

	sessionLayer := session.New(cfg.Session, nil)
	projectLayer := project.New(root, "default", cfg.Project, nil, time.Hour)
	globalLayer := global.New(root, cfg.Global, nil, time.Hour, nil)
	temporalLayer := temporal.New(root, cfg.Temporal, nil, time.Hour)

	tiers := map[types.Tier]layer.Capability{
		types.TierSession:  sessionLayer,
		types.TierProject:  projectLayer,
		types.TierGlobal:   globalLayer,
		types.TierTemporal: temporalLayer,
	}

	graph := graphlayer.NewInMemory()
	relEngine := relationship.New(cfg.Relationship, nil)
	r := router.New(cfg.Router, nil, tiers, relEngine, graph, nil, global.ContentSimilarity)

	searchTiers := map[types.Tier]search.TierSearcher{
		types.TierSession:  sessionLayer,
		types.TierProject:  projectLayer,
		types.TierGlobal:   globalLayer,
		types.TierTemporal: temporalLayer,
	}
	searchEngine := search.New(cfg.Search, nil, searchTiers, globalLayer, temporalLayer, graph)

	return toolserver.New(r, relEngine, searchEngine, mixer.New(), graph, tiers, nil)
}

func decodeResponse(t *testing.T, raw []byte) map[string]any {
	t.Helper()
	var resp map[string]any
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestHandleRequest_Initialize(t *testing.T) {
	s := newTestServer(t)
	req := `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`
	resp := decodeResponse(t, s.HandleRequest(context.Background(), []byte(req)))
	if resp["error"] != nil {
		t.Fatalf("unexpected error: %v", resp["error"])
	}
	result, ok := resp["result"].(map[string]any)
	if !ok {
		t.Fatalf("expected result object, got %v", resp["result"])
	}
	if result["protocolVersion"] == "" {
		t.Errorf("expected non-empty protocolVersion")
	}
}

func TestHandleRequest_ToolsList(t *testing.T) {
	s := newTestServer(t)
	req := `{"jsonrpc":"2.0","id":2,"method":"tools/list","params":{}}`
	resp := decodeResponse(t, s.HandleRequest(context.Background(), []byte(req)))
	result, ok := resp["result"].(map[string]any)
	if !ok {
		t.Fatalf("expected result object, got %v", resp["result"])
	}
	tools, ok := result["tools"].([]any)
	if !ok {
		t.Fatalf("expected tools array, got %v", result["tools"])
	}
	if len(tools) != 22 {
		t.Errorf("expected 22 tools, got %d", len(tools))
	}
}

func TestHandleRequest_ToolsCall_StoreAndSearch(t *testing.T) {
	s := newTestServer(t)
	storeReq := `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"store_memory","arguments":{"content":"remember the release checklist"}}}`
	resp := decodeResponse(t, s.HandleRequest(context.Background(), []byte(storeReq)))
	if resp["error"] != nil {
		t.Fatalf("unexpected top-level error: %v", resp["error"])
	}
	result, ok := resp["result"].(map[string]any)
	if !ok {
		t.Fatalf("expected result object, got %v", resp["result"])
	}
	if isErr, _ := result["isError"].(bool); isErr {
		t.Fatalf("tool call reported an error: %v", result)
	}

	searchReq := `{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"search_memory","arguments":{"query":"release checklist"}}}`
	searchResp := decodeResponse(t, s.HandleRequest(context.Background(), []byte(searchReq)))
	searchResult, ok := searchResp["result"].(map[string]any)
	if !ok {
		t.Fatalf("expected result object, got %v", searchResp["result"])
	}
	if isErr, _ := searchResult["isError"].(bool); isErr {
		t.Fatalf("search tool call reported an error: %v", searchResult)
	}
}

func TestHandleRequest_ToolsCall_UnknownTool(t *testing.T) {
	s := newTestServer(t)
	req := `{"jsonrpc":"2.0","id":5,"method":"tools/call","params":{"name":"not_a_real_tool","arguments":{}}}`
	resp := decodeResponse(t, s.HandleRequest(context.Background(), []byte(req)))
	if resp["error"] == nil {
		t.Fatalf("expected a JSON-RPC error for an unknown tool, got %v", resp)
	}
}

func TestHandleRequest_MalformedJSON(t *testing.T) {
	s := newTestServer(t)
	resp := decodeResponse(t, s.HandleRequest(context.Background(), []byte("not json")))
	errObj, ok := resp["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object, got %v", resp["error"])
	}
	if code, _ := errObj["code"].(float64); code != -32700 {
		t.Errorf("expected parse-error code -32700, got %v", errObj["code"])
	}
}

func TestHandleRequest_ToolsCall_AdvancedSearchPerformanceSkipsGlobal(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	store := func(content string, tags ...string) {
		args := map[string]any{"content": content}
		if len(tags) > 0 {
			tagList := make([]any, len(tags))
			for i, tg := range tags {
				tagList[i] = tg
			}
			args["tags"] = tagList
		}
		req, _ := json.Marshal(map[string]any{
			"jsonrpc": "2.0", "id": 1, "method": "tools/call",
			"params": map[string]any{"name": "store_memory", "arguments": args},
		})
		resp := decodeResponse(t, s.HandleRequest(ctx, req))
		if resp["error"] != nil {
			t.Fatalf("unexpected error storing %q: %v", content, resp["error"])
		}
	}

	store("onboarding rollout plan", "temporary")
	store("onboarding rollout plan", "important")

	req, _ := json.Marshal(map[string]any{
		"jsonrpc": "2.0", "id": 2, "method": "tools/call",
		"params": map[string]any{
			"name": "advanced_search",
			"arguments": map[string]any{
				"query":    "onboarding rollout plan",
				"strategy": "performance",
			},
		},
	})
	resp := decodeResponse(t, s.HandleRequest(ctx, req))
	result, ok := resp["result"].(map[string]any)
	if !ok {
		t.Fatalf("expected result object, got %v", resp["result"])
	}
	content, ok := result["content"].([]any)
	if !ok || len(content) == 0 {
		t.Fatalf("expected tool content, got %v", result)
	}
	first, ok := content[0].(map[string]any)
	if !ok {
		t.Fatalf("expected content entry to be an object, got %v", content[0])
	}
	text, _ := first["text"].(string)
	if text == "" {
		t.Fatalf("expected non-empty result text")
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		t.Fatalf("failed to decode advanced_search payload: %v", err)
	}
	results, ok := payload["results"].([]any)
	if !ok {
		t.Fatalf("expected results array, got %v", payload["results"])
	}
	for _, r := range results {
		item, ok := r.(map[string]any)
		if !ok {
			continue
		}
		resultItem, ok := item["Item"].(map[string]any)
		if !ok {
			continue
		}
		if tier, _ := resultItem["tier"].(string); tier == string(types.TierGlobal) {
			t.Errorf("expected Performance strategy to exclude Global tier, got a Global result: %v", item)
		}
	}
}

func TestHandleRequest_MethodNotFound(t *testing.T) {
	s := newTestServer(t)
	req := `{"jsonrpc":"2.0","id":6,"method":"nonexistent","params":{}}`
	resp := decodeResponse(t, s.HandleRequest(context.Background(), []byte(req)))
	errObj, ok := resp["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object, got %v", resp["error"])
	}
	if code, _ := errObj["code"].(float64); code != -32601 {
		t.Errorf("expected method-not-found code -32601, got %v", errObj["code"])
	}
}
