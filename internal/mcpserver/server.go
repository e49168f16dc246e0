// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes ChefGenie recipe tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/chefgenie/internal/catalog"
	"github.com/starford/chefgenie/internal/models"
	"github.com/starford/chefgenie/internal/resolver"
)

// CatalogURI is the resource URI of the catalog document.
const CatalogURI = "chefgenie://catalog"

// CatalogFormatURI is the resource URI of the catalog format guide.
const CatalogFormatURI = "chefgenie://catalog-format"

// CatalogSource yields the current catalog.
type CatalogSource interface {
	Current() *catalog.Catalog
}

// Server wraps the MCP server with ChefGenie tools.
type Server struct {
	mcp     *server.MCPServer
	catalog CatalogSource
	remote  resolver.RemoteClient
	conn    resolver.Connectivity
	logger  *slog.Logger
}

// New creates a new MCP server with all ChefGenie tools registered.
// remote and conn may be nil, in which case resolution is local only.
func New(src CatalogSource, remote resolver.RemoteClient, conn resolver.Connectivity, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{catalog: src, remote: remote, conn: conn, logger: logger}

	s.mcp = server.NewMCPServer(
		"ChefGenie",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("resolve_recipe",
		mcp.WithDescription("Find a recipe for a free-text request. Tries the offline catalog first, "+
			"then the ChefGenie server when online. Returns the outcome kind and the recipe if any."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Request text, e.g. 'how to make pancakes'")),
	), s.resolveRecipe)

	s.mcp.AddTool(mcp.NewTool("list_recipes",
		mcp.WithDescription("List the lookup keys of the offline catalog in match order."),
	), s.listRecipes)

	s.mcp.AddTool(mcp.NewTool("get_recipe",
		mcp.WithDescription("Read one catalog recipe by its exact lookup key."),
		mcp.WithString("key", mcp.Required(), mcp.Description("Catalog key as returned by list_recipes")),
	), s.getRecipe)

	s.mcp.AddTool(mcp.NewTool("get_catalog_format",
		mcp.WithDescription("Returns the recipes.json catalog format guide."),
	), s.getCatalogFormat)

	s.mcp.AddResource(
		mcp.NewResource(CatalogURI, "Recipe Catalog",
			mcp.WithResourceDescription("The offline recipe catalog as JSON, in match order."),
			mcp.WithMIMEType("application/json"),
		),
		s.readCatalogResource,
	)

	s.mcp.AddResource(
		mcp.NewResource(CatalogFormatURI, "Catalog Format Guide",
			mcp.WithResourceDescription("How recipes.json is structured and matched."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readCatalogFormatResource,
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

// resolution is the JSON answer of resolve_recipe.
type resolution struct {
	Kind    string               `json:"kind"`
	Query   string               `json:"query"`
	Key     string               `json:"key,omitempty"`
	Recipe  *models.RemoteRecipe `json:"recipe,omitempty"`
	Message string               `json:"message,omitempty"`
	Error   string               `json:"error,omitempty"`
}

func (s *Server) resolveRecipe(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if strings.TrimSpace(text) == "" {
		return mcp.NewToolResultError("text must not be empty"), nil
	}

	r := resolver.New(s.catalog.Current(), s.remote, s.conn, resolver.WithLogger(s.logger))
	res := r.Resolve(ctx, text)

	out := resolution{Kind: res.Kind.String(), Query: res.Query, Key: res.Key, Message: res.Message}
	switch res.Kind {
	case resolver.KindLocalHit:
		out.Recipe = models.FromLocal(*res.Local)
	case resolver.KindRemoteHit:
		out.Recipe = res.Remote
	case resolver.KindConnectionError:
		out.Error = res.Err.Error()
	}
	data, _ := json.MarshalIndent(out, "", "  ")
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) listRecipes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	keys := s.catalog.Current().Keys()
	if len(keys) == 0 {
		return mcp.NewToolResultText("catalog is empty"), nil
	}
	return mcp.NewToolResultText(strings.Join(keys, "\n")), nil
}

func (s *Server) getRecipe(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := req.RequireString("key")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	recipe, ok := s.catalog.Current().Get(key)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", key)), nil
	}
	data, _ := json.MarshalIndent(recipe, "", "  ")
	return mcp.NewToolResultText(string(data)), nil
}

func (s *Server) getCatalogFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(CatalogFormatGuide), nil
}

func (s *Server) readCatalogResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(s.catalog.Current())
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      CatalogURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) readCatalogFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      CatalogFormatURI,
			MIMEType: "text/markdown",
			Text:     CatalogFormatGuide,
		},
	}, nil
}
