package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type rpcRequest struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params []any           `json:"params"`
}

// fakeNode answers every call with result and records the request.
func fakeNode(t *testing.T, result string, got *rpcRequest) *SuiClient {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(got))

		id := got.ID
		if len(id) == 0 {
			id = json.RawMessage("0")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":` + string(id) + `,"result":` + result + `}`))
	}))
	t.Cleanup(srv.Close)

	c := NewSuiClient(srv.URL)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestGetBalance(t *testing.T) {
	t.Parallel()

	var req rpcRequest
	c := fakeNode(t, `{"coinType":"0x2::sui::SUI","coinObjectCount":2,"totalBalance":"1500000000"}`, &req)

	bal, err := c.GetBalance(context.Background(), "0xabc", "")
	require.NoError(t, err)
	require.Equal(t, "1500000000", bal.TotalBalance)
	require.Equal(t, 2, bal.CoinObjectCount)

	require.Equal(t, "suix_getBalance", req.Method)
	require.Equal(t, []any{"0xabc", SUICoinType}, req.Params)
}

func TestGetCoins(t *testing.T) {
	t.Parallel()

	var req rpcRequest
	c := fakeNode(t, `{"data":[{"coinType":"0x2::sui::SUI","coinObjectId":"0x1","balance":"7"}],"nextCursor":"0x1","hasNextPage":true}`, &req)

	page, err := c.GetCoins(context.Background(), "0xabc", "", nil, 10)
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	require.Equal(t, "7", page.Data[0].Balance)
	require.True(t, page.HasNextPage)
	require.Equal(t, "0x1", *page.NextCursor)

	require.Equal(t, "suix_getCoins", req.Method)
	require.Equal(t, []any{"0xabc", SUICoinType, nil, float64(10)}, req.Params)
}

func TestExecuteTransactionBlock(t *testing.T) {
	t.Parallel()

	var req rpcRequest
	c := fakeNode(t, `{"digest":"D1"}`, &req)

	out, err := c.ExecuteTransactionBlock(context.Background(), "AAAA", []string{"sig"})
	require.NoError(t, err)
	require.JSONEq(t, `{"digest":"D1"}`, string(out))

	require.Equal(t, "sui_executeTransactionBlock", req.Method)
	require.Len(t, req.Params, 4)
	require.Equal(t, "AAAA", req.Params[0])
	require.Equal(t, []any{"sig"}, req.Params[1])
	require.Equal(t, map[string]any{"showEffects": true, "showEvents": true}, req.Params[2])
	require.Equal(t, "WaitForLocalExecution", req.Params[3])
}

func TestResolveNameServiceAddress(t *testing.T) {
	t.Parallel()

	var req rpcRequest
	c := fakeNode(t, `"0xdef"`, &req)

	addr, err := c.ResolveNameServiceAddress(context.Background(), "alice.sui")
	require.NoError(t, err)
	require.Equal(t, "0xdef", addr)
	require.Equal(t, "suix_resolveNameServiceAddress", req.Method)
}

func TestRPCError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"jsonrpc":"2.0","id":0,"error":{"code":-32602,"message":"Invalid params"}}`))
	}))
	defer srv.Close()

	c := NewSuiClient(srv.URL)
	defer c.Close()

	_, err := c.GetBalance(context.Background(), "bad", "")
	require.ErrorContains(t, err, "suix_getBalance failed")
}
