// Package rpc exposes the ticket engine to a conversational client as a
// JSON-RPC 2.0 tool server over stdio. One request line in, one response
// line out; stdout carries nothing but the protocol, all logging goes to
// stderr and the log file.
package rpc

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"locate-mcp/internal/audit"
	"locate-mcp/internal/config"
	"locate-mcp/internal/geo"
	"locate-mcp/internal/registry"
	"locate-mcp/internal/session"
	"locate-mcp/internal/store"
	"locate-mcp/internal/validation"
	"locate-mcp/internal/workflow"
)

// JSONRPCRequest represents a standard MCP/JSON-RPC request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse represents a standard MCP/JSON-RPC response.
type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

// Server holds the collaborators behind the tool surface.
type Server struct {
	store     store.Store
	engine    *validation.Engine
	machine   *workflow.Machine
	directory *registry.Directory
	sessions  session.Cache
	geocoder  geo.Geocoder

	enableMermaidCharts bool
	now                 func() time.Time
}

// storeSink adapts the store's append-only audit trail to the state
// machine's sink interface.
type storeSink struct{ st store.Store }

func (s storeSink) Record(e audit.Event) error { return s.st.AppendAuditEvent(e) }

// NewServer wires a tool server over a store and a session cache. The member
// directory and the geocoder are optional enrichments; both degrade to
// no-ops when unconfigured.
func NewServer(cfg *config.AppConfig, st store.Store, sessions session.Cache) *Server {
	s := &Server{
		store:               st,
		engine:              validation.NewEngine(),
		machine:             workflow.NewMachine(storeSink{st}),
		sessions:            sessions,
		enableMermaidCharts: cfg.EnableMermaidCharts,
		now:                 time.Now,
	}

	if cfg.MemberDirectory != "" {
		dir, err := registry.LoadDirectory(cfg.MemberDirectory)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.MemberDirectory).Msg("Member directory unavailable")
		} else {
			s.directory = dir
		}
	}
	if cfg.Geocoder.BaseURL != "" {
		s.geocoder = geo.NewClient(cfg.Geocoder)
	}

	return s
}

// Serve starts the JSON-RPC loop over Stdio.
func (s *Server) Serve() error {
	reader := bufio.NewReader(os.Stdin)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		var req JSONRPCRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Error().Err(err).Msg("Failed to unmarshal request")
			continue
		}

		s.handleRequest(req)
	}
}

func (s *Server) handleRequest(req JSONRPCRequest) {
	var result interface{}
	var errRes interface{}

	switch req.Method {
	case "initialize":
		result = map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities":    map[string]interface{}{},
			"serverInfo": map[string]interface{}{
				"name":    "locate-mcp",
				"version": "0.1.0",
			},
		}
	case "tools/list":
		result = s.listTools()
	case "tools/call":
		result, errRes = s.callTool(req.Params)
	default:
		errRes = map[string]interface{}{
			"code":    -32601,
			"message": fmt.Sprintf("Method %s not found", req.Method),
		}
	}

	resp := JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  result,
		Error:   errRes,
	}

	out, _ := json.Marshal(resp)
	fmt.Fprintf(os.Stdout, "%s\n", out)
}

func (s *Server) callTool(params json.RawMessage) (interface{}, interface{}) {
	var call struct {
		Name      string                 `json:"name"`
		Arguments map[string]interface{} `json:"arguments"`
	}
	if err := json.Unmarshal(params, &call); err != nil {
		return nil, map[string]interface{}{"code": -32602, "message": "Invalid params"}
	}
	args := call.Arguments
	if args == nil {
		args = map[string]interface{}{}
	}

	var data interface{}
	var err error

	switch call.Name {
	case "create_ticket":
		data, err = s.handleCreateTicket(argFields(args), asString(args["session_id"]), asString(args["user_id"]))
	case "update_ticket":
		data, err = s.handleUpdateTicket(args, argFields(args), asString(args["user_id"]))
	case "get_next_prompt":
		data, err = s.handleGetNextPrompt(args)
	case "validate_ticket":
		data, err = s.handleValidateTicket(args)
	case "confirm_ticket":
		data, err = s.handleConfirmTicket(args, asString(args["user_id"]))
	case "mark_submitted":
		data, err = s.handleMarkSubmitted(args, asString(args["user_id"]), asString(args["confirmation_number"]))
	case "record_member_response":
		data, err = s.handleRecordMemberResponse(args)
	case "get_ticket":
		data, err = s.handleGetTicket(args)
	case "get_ticket_history":
		data, err = s.handleGetTicketHistory(args)
	case "list_tickets":
		data, err = s.handleListTickets(asString(args["status"]), asString(args["county"]), asInt(args["limit"]))
	case "cancel_ticket":
		data, err = s.handleCancelTicket(args, asString(args["reason"]), asString(args["user_id"]))
	case "complete_ticket":
		data, err = s.handleCompleteTicket(args, asString(args["user_id"]))
	case "get_compliance":
		data, err = s.handleGetCompliance(args)
	case "check_calendar":
		data, err = s.handleCheckCalendar(asString(args["date"]), asString(args["reference_date"]))
	case "member_scorecard":
		data, err = s.handleMemberScorecard(asString(args["member_code"]))
	default:
		return nil, map[string]interface{}{"code": -32601, "message": "Tool not found"}
	}

	if err != nil {
		return nil, map[string]interface{}{"code": -32000, "message": err.Error()}
	}

	return map[string]interface{}{
		"content": []interface{}{
			map[string]interface{}{
				"type": "text",
				"text": s.formatResult(data),
			},
		},
	}, nil
}
