package main

import (
	"context"

	"github.com/gin-gonic/gin"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/deixis/secmcp/internal/httpserver"
	secmcpmcp "github.com/deixis/secmcp/internal/mcp"
	"github.com/deixis/secmcp/internal/webapi"
)

type serveOptions struct {
	http bool
	addr string
	path string
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"mcp"},
		Short:   "Start the MCP server (stdio by default)",
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd)
			defer stop()
			return runServe(ctx, root, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.http, "http", false, "serve streamable HTTP instead of stdio")
	cmd.Flags().StringVar(&opts.addr, "addr", "", "HTTP listen address (default: http.addr, $PORT or :8000)")
	cmd.Flags().StringVar(&opts.path, "path", "", "HTTP route for MCP (default: /mcp)")
	return cmd
}

func runServe(ctx context.Context, root *rootOptions, opts *serveOptions) error {
	a, err := loadApp(root)
	if err != nil {
		return err
	}

	pool, err := a.newPool()
	if err != nil {
		return err
	}
	defer pool.Release()

	server := secmcpmcp.NewServer(a.cfg, a.registry, pool, webapi.FromConfig(a.cfg), a.logger)

	if !opts.http {
		a.logger.Info().Int("tools", len(a.registry.All())).Msg("serving MCP on stdio")
		return server.Run(ctx, &mcpsdk.StdioTransport{})
	}

	addr := opts.addr
	if addr == "" {
		addr = a.cfg.HTTPAddr()
	}
	path := opts.path
	if path == "" {
		path = a.cfg.HTTPPath()
	}

	gin.SetMode(gin.ReleaseMode)
	router := httpserver.NewRouter(secmcpmcp.HTTPHandler(server), httpserver.Options{
		Path:        path,
		CorsOrigins: a.cfg.HTTP.CorsOrigins,
		Logger:      a.logger,
	})
	a.logger.Info().Str("path", path).Int("tools", len(a.registry.All())).Msg("serving MCP over HTTP")
	return httpserver.Serve(ctx, addr, router, a.logger)
}
