package cli

import (
	"context"

	"github.com/julianstephens/flowmind/internal/logger"
	"github.com/julianstephens/flowmind/internal/mcp"
)

type McpCmd struct{}

func (c *McpCmd) Run(ctx *Context) error {
	svc, settings, err := ctx.Tasks(context.Background())
	if err != nil {
		return err
	}
	logger.Info("Starting MCP server on stdio")
	return mcp.Serve(mcp.NewServer(svc, ctx.Scheduler(settings)))
}
