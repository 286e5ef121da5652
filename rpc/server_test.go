package rpc

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colorfulnotion/polyjuice/types"
)

type serverResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
	ID      interface{}     `json:"id"`
}

func postJSONRPC(t *testing.T, srv *HTTPServer, body string) *serverResponse {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.handleJSONRPC(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp serverResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2.0", resp.JSONRPC)
	return &resp
}

func TestServerCreateDispatch(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	srv := NewHTTPServer(h)

	// object params are re-marshaled for the handler
	resp := postJSONRPC(t, srv, `{
		"jsonrpc": "2.0", "id": 7, "method": "create",
		"params": [{"sender": "`+senderHex+`", "code": "0xdead"}]
	}`)
	require.Nil(t, resp.Error)
	assert.Equal(t, float64(7), resp.ID)

	var receipt types.TransactionReceipt
	require.NoError(t, json.Unmarshal(resp.Result, &receipt))
	assert.NotEmpty(t, receipt.Tx.Witnesses)
}

func TestServerStringResult(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	srv := NewHTTPServer(h)

	resp := postJSONRPC(t, srv, `{
		"jsonrpc": "2.0", "id": 1, "method": "get_balance",
		"params": ["`+senderHex+`"]
	}`)
	require.Nil(t, resp.Error)
	// a bare string result comes back JSON-quoted
	assert.Equal(t, `"0x45d964b800"`, string(resp.Result))
}

func TestServerErrors(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	srv := NewHTTPServer(h)

	resp := postJSONRPC(t, srv, `{"jsonrpc":"2.0","id":1,"method":"no_such_method","params":[]}`)
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32000, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "method not found")

	resp = postJSONRPC(t, srv, `{"jsonrpc":"2.0","id":1,"method":"get_code","params":[]}`)
	require.NotNil(t, resp.Error)
}

func TestServerRejectsNonPost(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	srv := NewHTTPServer(h)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	srv.handleJSONRPC(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("not json"))
	rec = httptest.NewRecorder()
	srv.handleJSONRPC(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
