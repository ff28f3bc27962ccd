package dao

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func newRPCServer(t *testing.T, handler func(method string, params []any) (any, *rpcError)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "2.0", req.JSONRPC)

		result, rpcErr := handler(req.Method, req.Params)
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestProposeCastVoteExecute(t *testing.T) {
	var methods []string
	srv := newRPCServer(t, func(method string, params []any) (any, *rpcError) {
		methods = append(methods, method)
		switch method {
		case "cq_propose":
			call := params[0].(map[string]any)
			require.Equal(t, "0xgov", call["contract"])
			require.Equal(t, float64(8453), call["chainId"])
			return "prop_1", nil
		case "cq_castVote":
			call := params[0].(map[string]any)
			require.Equal(t, "prop_1", call["proposalId"])
			require.Equal(t, float64(1), call["support"])
			return "0xvote", nil
		case "cq_execute":
			return "0xexec", nil
		default:
			return nil, &rpcError{Code: -32601, Message: "method not found"}
		}
	})
	defer srv.Close()

	client := NewClient(srv.URL, "0xgov", 8453)
	ctx := context.Background()

	proposalID, err := client.Propose(ctx, "0xalice", "Fund new quest season")
	require.NoError(t, err)
	require.Equal(t, "prop_1", proposalID)

	txHash, err := client.CastVote(ctx, "0xbob", proposalID, 1)
	require.NoError(t, err)
	require.Equal(t, "0xvote", txHash)

	txHash, err = client.Execute(ctx, proposalID)
	require.NoError(t, err)
	require.Equal(t, "0xexec", txHash)

	require.Equal(t, []string{"cq_propose", "cq_castVote", "cq_execute"}, methods)
}

func TestClientSurfacesRPCErrors(t *testing.T) {
	srv := newRPCServer(t, func(method string, params []any) (any, *rpcError) {
		return nil, &rpcError{Code: -32000, Message: "proposal not found"}
	})
	defer srv.Close()

	client := NewClient(srv.URL, "0xgov", 8453)
	_, err := client.Execute(context.Background(), "prop_missing")
	require.Error(t, err)
	require.Contains(t, err.Error(), "proposal not found")
}

func TestClientRejectsHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "0xgov", 8453)
	err := client.Ping(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 500")
}
