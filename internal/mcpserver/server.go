// File: internal/mcpserver/server.go
package mcpserver

import (
	"context"
	"fmt"

	json "github.com/json-iterator/go"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/voidreach/screenpilot/api/schemas"
	"github.com/voidreach/screenpilot/internal/capture"
	"github.com/voidreach/screenpilot/internal/loop"
)

// Runner drives a guided control loop to a terminal state.
type Runner interface {
	Run(ctx context.Context, instruction string) loop.Result
}

// Decider produces a single decision for the current screen without
// acting on it.
type Decider interface {
	Decide(ctx context.Context, instruction string, imagePNG []byte) (schemas.Decision, error)
}

// ControlResponse is the tool reply for a full loop run.
type ControlResponse struct {
	Outcome  string `json:"outcome" jsonschema_description:"Terminal state: completed, failed or exhausted"`
	Attempts int    `json:"attempts" jsonschema_description:"Iterations the loop consumed"`
	Detail   string `json:"detail,omitempty" jsonschema_description:"Model reasoning for the terminal decision"`
}

// Server exposes the control loop as an MCP tool over stdio.
type Server struct {
	runner    Runner
	decider   Decider
	capturer  capture.Capturer
	store     *capture.Store
	logger    *zap.Logger
	mcpServer *server.MCPServer
}

// NewServer creates the MCP adapter. store may be nil to disable
// screenshot persistence for capture-only calls.
func NewServer(runner Runner, decider Decider, capturer capture.Capturer, store *capture.Store, version string, logger *zap.Logger) *Server {
	s := &Server{
		runner:    runner,
		decider:   decider,
		capturer:  capturer,
		store:     store,
		logger:    logger.Named("mcpserver"),
		mcpServer: server.NewMCPServer("screenpilot", version),
	}
	s.registerTools()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	controlTool := mcp.NewTool("desktop_control",
		mcp.WithDescription("Drive the desktop toward a goal through a vision-guided input loop, or inspect the screen with capture_only."),
		mcp.WithString("instruction", mcp.Required(), mcp.Description("Natural-language goal, e.g. 'install the application from the mounted volume'")),
		mcp.WithBoolean("capture_only", mcp.Description("Capture a screenshot and return the model's next decision without acting on it")),
	)
	s.mcpServer.AddTool(controlTool, s.handleDesktopControl)
}

func (s *Server) handleDesktopControl(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	instruction, _ := args["instruction"].(string)
	if instruction == "" {
		return mcp.NewToolResultError("instruction is required"), nil
	}
	captureOnly, _ := args["capture_only"].(bool)

	if captureOnly {
		return s.handleCaptureOnly(ctx, instruction)
	}

	s.logger.Info("Tool request: full control loop", zap.String("instruction", instruction))
	result := s.runner.Run(ctx, instruction)

	payload, err := json.Marshal(ControlResponse{
		Outcome:  string(result.State),
		Attempts: result.Attempts,
		Detail:   result.Reasoning,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}

func (s *Server) handleCaptureOnly(ctx context.Context, instruction string) (*mcp.CallToolResult, error) {
	shot, err := s.capturer.Capture(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("capture failed: %v", err)), nil
	}

	if s.store != nil {
		if path, err := s.store.Save(shot); err != nil {
			s.logger.Warn("Failed to persist screenshot", zap.Error(err))
		} else {
			s.logger.Debug("Screenshot persisted", zap.String("path", path))
		}
	}

	decision, err := s.decider.Decide(ctx, instruction, shot.PNG)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("decision failed: %v", err)), nil
	}

	payload, err := json.Marshal(decision)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode decision: %v", err)), nil
	}
	return mcp.NewToolResultText(string(payload)), nil
}
