package rpc

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	log "github.com/colorfulnotion/polyjuice/log"
)

// HTTPServer wraps the RPC handler and provides HTTP server functionality.
type HTTPServer struct {
	handler  *Handler
	listener net.Listener
}

// NewHTTPServer creates a new call service HTTP server.
func NewHTTPServer(handler *Handler) *HTTPServer {
	return &HTTPServer{handler: handler}
}

// Start starts the RPC server on the specified listen address.
func (s *HTTPServer) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		s.handleJSONRPC(w, r)
	})

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	log.Info(log.RpcMonitoring, "RPC server started", "address", addr)

	go func() {
		if err := http.Serve(listener, mux); err != nil {
			log.Error(log.RpcMonitoring, "RPC server error", "error", err)
		}
	}()
	return nil
}

// Close stops accepting connections.
func (s *HTTPServer) Close() error {
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

// handleJSONRPC handles incoming JSON-RPC requests.
func (s *HTTPServer) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != "POST" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req struct {
		JSONRPC string        `json:"jsonrpc"`
		Method  string        `json:"method"`
		Params  []interface{} `json:"params"`
		ID      interface{}   `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON-RPC request", http.StatusBadRequest)
		return
	}

	// Convert params to string array; object params are re-marshaled so the
	// handlers can parse them as typed requests.
	var stringParams []string
	for _, param := range req.Params {
		switch v := param.(type) {
		case string:
			stringParams = append(stringParams, v)
		case map[string]interface{}, []interface{}:
			jsonBytes, err := json.Marshal(v)
			if err != nil {
				http.Error(w, "Failed to marshal param", http.StatusBadRequest)
				return
			}
			stringParams = append(stringParams, string(jsonBytes))
		default:
			stringParams = append(stringParams, fmt.Sprintf("%v", v))
		}
	}

	var result string
	var err error
	switch req.Method {
	case "create":
		err = s.handler.Create(stringParams, &result)
	case "call":
		err = s.handler.Call(stringParams, &result)
	case "static_call":
		err = s.handler.StaticCall(stringParams, &result)
	case "get_code":
		err = s.handler.GetCode(stringParams, &result)
	case "get_balance":
		err = s.handler.GetBalance(stringParams, &result)
	default:
		err = fmt.Errorf("method not found: %s", req.Method)
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	type rpcErrorBody struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	response := struct {
		JSONRPC string          `json:"jsonrpc"`
		Result  json.RawMessage `json:"result,omitempty"`
		Error   *rpcErrorBody   `json:"error,omitempty"`
		ID      interface{}     `json:"id"`
	}{JSONRPC: "2.0", ID: req.ID}

	if err != nil {
		log.Warn(log.RpcMonitoring, "request failed", "method", req.Method, "err", err)
		response.Error = &rpcErrorBody{Code: -32000, Message: err.Error()}
	} else if json.Valid([]byte(result)) {
		response.Result = json.RawMessage(result)
	} else {
		quoted, _ := json.Marshal(result)
		response.Result = quoted
	}
	if err := json.NewEncoder(w).Encode(&response); err != nil {
		log.Error(log.RpcMonitoring, "write response failed", "err", err)
	}
}
