// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the Ansuz task tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/taskservice"
)

const schemaURI = "ansuz://schema"

// Server wraps the MCP server with Ansuz tools.
type Server struct {
	mcp *server.MCPServer
	svc *taskservice.Service
}

// New creates a new MCP server with all Ansuz tools registered.
func New(svc *taskservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Ansuz",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_tasks",
		mcp.WithDescription("List all tasks, newest first, with their uniform properties."),
	), s.listTasks)

	s.mcp.AddTool(mcp.NewTool("describe_schema",
		mcp.WithDescription("Describe the task database: property names, kinds, declared "+
			"options, and which properties act as title and completed flag."),
	), s.describeSchema)

	s.mcp.AddTool(mcp.NewTool("create_task",
		mcp.WithDescription("Create a task. properties must include the title property. "+
			"Read the contract via get_task_contract first."),
		mcp.WithObject("properties", mcp.Required(), mcp.Description("Property values keyed by property name")),
		mcp.WithBoolean("completed", mcp.Description("Optional initial completed state")),
	), s.createTask)

	s.mcp.AddTool(mcp.NewTool("update_task",
		mcp.WithDescription("Update properties and/or the completed flag of a task."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Task id")),
		mcp.WithObject("properties", mcp.Description("Property values keyed by property name")),
		mcp.WithBoolean("completed", mcp.Description("Mark the task done (true) or not done (false)")),
	), s.updateTask)

	s.mcp.AddTool(mcp.NewTool("archive_task",
		mcp.WithDescription("Archive a task."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Task id")),
	), s.archiveTask)

	s.mcp.AddTool(mcp.NewTool("get_task_contract",
		mcp.WithDescription("Returns the rules for reading and writing task properties."),
	), s.getTaskContract)

	s.mcp.AddResource(
		mcp.NewResource(schemaURI, "Task Schema",
			mcp.WithResourceDescription("Property definitions of the task database."),
			mcp.WithMIMEType("application/json"),
		),
		s.readSchemaResource,
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

func (s *Server) listTasks(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tasks, err := s.svc.ListRecords(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(tasks)
}

func (s *Server) describeSchema(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, err := s.schemaJSON(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	props, completed, err := taskArgs(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	task, err := s.svc.CreateRecord(ctx, props, completed)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(task)
}

func (s *Server) updateTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	props, completed, err := taskArgs(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(props) == 0 && completed == nil {
		return mcp.NewToolResultError("properties or completed is required"), nil
	}
	if err := s.svc.UpdateRecord(ctx, id, props, completed); err != nil {
		return mcp.NewToolResultError(toolError(err, id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("updated: %s", id)), nil
}

func (s *Server) archiveTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.ArchiveRecord(ctx, id); err != nil {
		return mcp.NewToolResultError(toolError(err, id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("archived: %s", id)), nil
}

func (s *Server) getTaskContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(TaskUsageContract), nil
}

func (s *Server) readSchemaResource(ctx context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	out, err := s.schemaJSON(ctx)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      schemaURI,
			MIMEType: "application/json",
			Text:     string(out),
		},
	}, nil
}

func (s *Server) schemaJSON(ctx context.Context) ([]byte, error) {
	sch, err := s.svc.Schema(ctx)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(map[string]any{
		"definitions":    sch.Definitions(),
		"classification": sch.Classify(),
	}, "", "  ")
}

// taskArgs extracts the optional properties object and completed flag.
func taskArgs(req mcp.CallToolRequest) (map[string]any, *bool, error) {
	args := req.GetArguments()
	var props map[string]any
	if raw, ok := args["properties"]; ok && raw != nil {
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, nil, fmt.Errorf("properties must be an object")
		}
		props = m
	}
	var completed *bool
	if raw, ok := args["completed"]; ok && raw != nil {
		b, ok := raw.(bool)
		if !ok {
			return nil, nil, fmt.Errorf("completed must be a boolean")
		}
		completed = &b
	}
	return props, completed, nil
}

func toolError(err error, id string) string {
	if errors.Is(err, apperr.ErrNotFound) {
		return fmt.Sprintf("not found: %s", id)
	}
	return err.Error()
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
