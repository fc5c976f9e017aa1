package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/curator/internal/content"
	"github.com/starford/curator/internal/itemservice"
	"github.com/starford/curator/internal/models"
	"github.com/starford/curator/internal/testutil"
)

func testServer(t *testing.T) (*Server, *itemservice.Service) {
	t.Helper()
	svc := itemservice.NewService(testutil.TestStore(t), nil, nil)
	return New(svc, testutil.TestMedia(t)), svc
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so the handlers are
	// invoked directly.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_kinds":
		result, err = srv.listKinds(ctx, req)
	case "list_items":
		result, err = srv.listItems(ctx, req)
	case "search_items":
		result, err = srv.searchItems(ctx, req)
	case "move_item":
		result, err = srv.moveItem(ctx, req)
	case "upload_media":
		result, err = srv.uploadMedia(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func seed(t *testing.T, svc *itemservice.Service, kind string, labels ...string) []string {
	t.Helper()
	var ids []string
	for _, l := range labels {
		it, err := svc.Create(context.Background(), content.CreateParams{Kind: kind, Label: l})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, it.ID)
	}
	return ids
}

func TestListKinds(t *testing.T) {
	srv, _ := testServer(t)
	text := resultText(callTool(t, srv, "list_kinds", nil))
	if !strings.Contains(text, "articles") || !strings.Contains(text, "videos") {
		t.Errorf("kinds = %q", text)
	}
}

func TestListItems(t *testing.T) {
	srv, svc := testServer(t)
	seed(t, svc, models.KindArticles, "a", "b")

	r := callTool(t, srv, "list_items", map[string]any{"kind": "articles"})
	var page models.ItemPage
	if err := json.Unmarshal([]byte(resultText(r)), &page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.Total != 2 || page.Nodes[0].Label != "a" {
		t.Errorf("page = %+v", page)
	}

	r = callTool(t, srv, "list_items", map[string]any{"kind": "nope"})
	if !r.IsError {
		t.Error("expected error for unknown kind")
	}
}

func TestSearchItems(t *testing.T) {
	srv, svc := testServer(t)
	seed(t, svc, models.KindDoctors, "Dr. Adams", "Dr. Baker", "Nurse Clark")

	r := callTool(t, srv, "search_items", map[string]any{"kind": "doctors", "query": "dr", "limit": 1})
	var res struct {
		Nodes   []models.Option `json:"nodes"`
		Total   int             `json:"total"`
		HasMore bool            `json:"has_more"`
	}
	if err := json.Unmarshal([]byte(resultText(r)), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(res.Nodes) != 1 || res.Total != 2 || !res.HasMore {
		t.Errorf("result = %+v", res)
	}
}

func TestMoveItem(t *testing.T) {
	srv, svc := testServer(t)
	ids := seed(t, svc, models.KindBanners, "a", "b", "c")

	r := callTool(t, srv, "move_item", map[string]any{"kind": "banners", "id": ids[2], "position": 1})
	if r.IsError {
		t.Fatalf("move failed: %s", resultText(r))
	}
	if text := resultText(r); !strings.HasPrefix(text, "1. c (") {
		t.Errorf("order = %q", text)
	}

	r = callTool(t, srv, "move_item", map[string]any{"kind": "banners", "id": ids[0], "position": 7})
	if !r.IsError {
		t.Error("expected error for out-of-range position")
	}
}

// 1x1 transparent PNG.
const pngBase64 = "iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

func TestUploadMedia_DataURI(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "upload_media", map[string]any{
		"url":      "data:image/png;base64," + pngBase64,
		"filename": "../pixel.png",
	})
	if r.IsError {
		t.Fatalf("upload failed: %s", resultText(r))
	}
	var res uploadResult
	_ = json.Unmarshal([]byte(resultText(r)), &res)
	raw, _ := base64.StdEncoding.DecodeString(pngBase64)
	if res.Name != "pixel.png" || res.URL != "/media/pixel.png" || res.Size != int64(len(raw)) {
		t.Errorf("result = %+v", res)
	}

	r = callTool(t, srv, "upload_media", map[string]any{"url": "data:image/png;base64," + pngBase64, "filename": "pixel.png"})
	if !r.IsError {
		t.Error("expected error for duplicate name")
	}
}

func TestUploadMedia_Rejects(t *testing.T) {
	srv, _ := testServer(t)
	cases := map[string]map[string]any{
		"mismatched content": {"url": "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("not a png"))},
		"loopback":           {"url": "http://127.0.0.1/a.png"},
		"scheme":             {"url": "ftp://example.com/a.png"},
		"text data uri":      {"url": "data:text/plain;base64,aGk="},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			if r := callTool(t, srv, "upload_media", args); !r.IsError {
				t.Errorf("expected error, got %q", resultText(r))
			}
		})
	}
}
