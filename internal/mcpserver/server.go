// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Curator collections to LLM tools via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/curator/internal/apperr"
	"github.com/starford/curator/internal/itemservice"
	"github.com/starford/curator/internal/media"
	"github.com/starford/curator/internal/models"
)

const contractURI = "curator://ordering"

// Server wraps the MCP server with Curator tools.
type Server struct {
	mcp   *server.MCPServer
	items *itemservice.Service
	media *media.Store
}

// New creates a new MCP server with all Curator tools registered.
// mediaStore may be nil, in which case upload_media is not offered.
func New(items *itemservice.Service, mediaStore *media.Store) *Server {
	s := &Server{items: items, media: mediaStore}

	s.mcp = server.NewMCPServer(
		"Curator",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_kinds",
		mcp.WithDescription("List the collection kinds managed by Curator."),
	), s.listKinds)

	s.mcp.AddTool(mcp.NewTool("list_items",
		mcp.WithDescription("List a collection in position order."),
		mcp.WithString("kind", mcp.Required(), mcp.Description("Collection kind, e.g. articles")),
		mcp.WithString("scope", mcp.Description("Optional scope, e.g. location:42")),
		mcp.WithNumber("page", mcp.Description("1-based page (default 1)")),
		mcp.WithNumber("limit", mcp.Description("Page size (default 20, max 200)")),
	), s.listItems)

	s.mcp.AddTool(mcp.NewTool("search_items",
		mcp.WithDescription("Search selectable options of a collection by label."),
		mcp.WithString("kind", mcp.Required(), mcp.Description("Collection kind, e.g. doctors")),
		mcp.WithString("query", mcp.Description("Keyword; empty lists everything")),
		mcp.WithNumber("page", mcp.Description("1-based page (default 1)")),
		mcp.WithNumber("limit", mcp.Description("Page size (default 20, max 200)")),
	), s.searchItems)

	s.mcp.AddTool(mcp.NewTool("move_item",
		mcp.WithDescription("Move an item to a 1-based position within its collection. "+
			"Read the ordering contract via the "+contractURI+" resource first."),
		mcp.WithString("kind", mcp.Required(), mcp.Description("Collection kind")),
		mcp.WithString("id", mcp.Required(), mcp.Description("Item id")),
		mcp.WithNumber("position", mcp.Required(), mcp.Description("Target position, 1..N")),
		mcp.WithString("scope", mcp.Description("Scope of the item, if the collection is scoped")),
	), s.moveItem)

	if mediaStore != nil {
		s.mcp.AddTool(mcp.NewTool("upload_media",
			mcp.WithDescription("Download an image or video from an http(s) URL or a base64 data URI "+
				"into the media library."),
			mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data: URI")),
			mcp.WithString("filename", mcp.Description("Optional target file name")),
		), s.uploadMedia)
	}

	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Ordering Contract",
			mcp.WithResourceDescription("How positions, scopes and search paging behave."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readContractResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func requireKind(req mcp.CallToolRequest) (string, error) {
	kind, err := req.RequireString("kind")
	if err != nil {
		return "", err
	}
	if !models.ValidKind(kind) {
		return "", fmt.Errorf("unknown kind %q (one of: %s)", kind, strings.Join(models.Kinds, ", "))
	}
	return kind, nil
}

func (s *Server) listKinds(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(strings.Join(models.Kinds, "\n")), nil
}

func (s *Server) listItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := requireKind(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := s.items.Filter(ctx, models.FilterParams{
		Kind:  kind,
		Scope: req.GetString("scope", ""),
		Page:  req.GetInt("page", 1),
		Limit: req.GetInt("limit", 0),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(page), nil
}

func (s *Server) searchItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := requireKind(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.items.Search(ctx, kind, req.GetString("query", ""), req.GetInt("page", 1), req.GetInt("limit", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"nodes":    res.Nodes,
		"page":     res.Page,
		"total":    res.Total,
		"has_more": res.HasNextPage(),
	}), nil
}

func (s *Server) moveItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := requireKind(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	position, err := req.RequireInt("position")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	items, err := s.items.Move(ctx, kind, id, models.MoveParams{Position: position, Scope: req.GetString("scope", "")})
	if err != nil {
		return mcp.NewToolResultError(apperr.Message(err)), nil
	}

	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = fmt.Sprintf("%d. %s (%s)", it.Position, it.Label, it.ID)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readContractResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     OrderingContract,
		},
	}, nil
}
