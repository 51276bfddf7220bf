package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/microcosm"
	"github.com/aretw0/microcosm/internal/presentation/graph"
	"github.com/aretw0/microcosm/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// StateResponse aligns with the HTTP adapter's payloads and provides a unified structure across adapters.
type StateResponse struct {
	Time   float64        `json:"time" jsonschema_description:"Current simulated time"`
	Cycles uint64         `json:"cycles" jsonschema_description:"Number of scheduler cycles executed"`
	State  map[string]any `json:"state" jsonschema_description:"Nested simulation state"`
}

// Experiment defines the interface required by the MCP server to interact with a simulation.
type Experiment interface {
	ports.Experiment
}

// Server wraps a running experiment and exposes it as an MCP Server.
type Server struct {
	experiment Experiment
	mcpServer  *server.MCPServer

	// run serializes step and run_until; the engine is single-threaded.
	run sync.Mutex
}

// NewServer creates a new MCP Server instance.
func NewServer(experiment Experiment) *Server {
	s := &Server{
		experiment: experiment,
		mcpServer:  server.NewMCPServer("microcosm-mcp", strings.TrimSpace(microcosm.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		// Create a timeout context for the graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		fmt.Println("\nShutdown signal received, shutting down server...")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.Debug("CORS Middleware", "method", r.Method, "path", r.URL.Path)
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, Baggage, Sentry-Trace")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: get_state
	stateTool := mcp.NewTool("get_state",
		mcp.WithDescription("Read the current simulation state. If path is given, only that subtree is returned."),
		mcp.WithString("path", mcp.Description("Slash-separated path to scope the state to (optional)")),
		mcp.WithOutputSchema[StateResponse](),
	)
	s.mcpServer.AddTool(stateTool, mcp.NewStructuredToolHandler(s.handleGetState))

	// TOOL: step
	stepTool := mcp.NewTool("step",
		mcp.WithDescription("Advance the simulation by one or more scheduler cycles."),
		mcp.WithNumber("cycles", mcp.Description("Number of cycles to advance (default 1)")),
		mcp.WithOutputSchema[StateResponse](),
	)
	s.mcpServer.AddTool(stepTool, mcp.NewStructuredToolHandler(s.handleStep))

	// TOOL: run_until
	runTool := mcp.NewTool("run_until",
		mcp.WithDescription("Run the simulation until simulated time reaches the given horizon."),
		mcp.WithNumber("horizon", mcp.Required(), mcp.Description("Target simulated time")),
		mcp.WithOutputSchema[StateResponse](),
	)
	s.mcpServer.AddTool(runTool, mcp.NewStructuredToolHandler(s.handleRunUntil))

	// TOOL: get_topology
	s.mcpServer.AddTool(mcp.NewTool("get_topology",
		mcp.WithDescription("Get the process wiring (ports to state paths) for introspection."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		payload := map[string]any{
			"processes":  s.experiment.ProcessNames(),
			"derivers":   s.experiment.Derivers(),
			"agents":     s.experiment.Agents(),
			"topologies": s.experiment.Topologies(),
		}
		jsonBytes, _ := json.Marshal(payload)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

// Handler methods for structured tools

func (s *Server) handleGetState(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StateResponse, error) {
	s.run.Lock()
	snap := s.experiment.Snapshot("live")
	s.run.Unlock()

	state := snap.State
	if path, ok := args["path"].(string); ok && path != "" {
		scoped, err := descend(state, path)
		if err != nil {
			return StateResponse{}, err
		}
		state = scoped
	}

	return StateResponse{
		Time:   snap.Time,
		Cycles: s.experiment.Cycles(),
		State:  state,
	}, nil
}

func (s *Server) handleStep(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StateResponse, error) {
	cycles := 1
	if v, ok := args["cycles"].(float64); ok && v >= 1 {
		cycles = int(v)
	}

	s.run.Lock()
	defer s.run.Unlock()

	for i := 0; i < cycles; i++ {
		if err := s.experiment.Step(ctx); err != nil {
			return StateResponse{}, fmt.Errorf("step failed: %w", err)
		}
	}
	snap := s.experiment.Snapshot("live")

	return StateResponse{
		Time:   snap.Time,
		Cycles: s.experiment.Cycles(),
		State:  snap.State,
	}, nil
}

func (s *Server) handleRunUntil(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (StateResponse, error) {
	horizon, ok := args["horizon"].(float64)
	if !ok || horizon <= 0 {
		return StateResponse{}, fmt.Errorf("horizon must be a positive number")
	}

	s.run.Lock()
	defer s.run.Unlock()

	if err := s.experiment.Run(ctx, horizon); err != nil {
		return StateResponse{}, fmt.Errorf("run failed: %w", err)
	}
	snap := s.experiment.Snapshot("live")

	return StateResponse{
		Time:   snap.Time,
		Cycles: s.experiment.Cycles(),
		State:  snap.State,
	}, nil
}

// descend walks a slash-separated path into nested state maps.
func descend(state map[string]any, path string) (map[string]any, error) {
	current := state
	for _, segment := range strings.Split(strings.Trim(path, "/"), "/") {
		child, ok := current[segment]
		if !ok {
			return nil, fmt.Errorf("path %q not found in state", path)
		}
		sub, ok := child.(map[string]any)
		if !ok {
			// Leaf value: wrap it so the response stays a map.
			return map[string]any{segment: child}, nil
		}
		current = sub
	}
	return current, nil
}

func (s *Server) registerResources() {
	// EXPOSE: microcosm://graph
	s.mcpServer.AddResource(mcp.NewResource("microcosm://graph", "Process Wiring Diagram",
		mcp.WithMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		mermaid := graph.GenerateMermaid(s.experiment.Topologies(), &graph.Overlay{
			Derivers: s.experiment.Derivers(),
			Agents:   s.experiment.Agents(),
		})

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "microcosm://graph",
				MIMEType: "text/plain",
				Text:     mermaid,
			},
		}, nil
	})

	// EXPOSE: microcosm://state
	s.mcpServer.AddResource(mcp.NewResource("microcosm://state", "Current Simulation State",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		s.run.Lock()
		snap := s.experiment.Snapshot("live")
		s.run.Unlock()

		jsonBytes, err := json.Marshal(snap)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal state: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "microcosm://state",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
