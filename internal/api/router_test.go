package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/AlexZinkM/hoh-vault/internal/approval"
	"github.com/AlexZinkM/hoh-vault/internal/client"
	"github.com/AlexZinkM/hoh-vault/internal/model"
	"github.com/AlexZinkM/hoh-vault/internal/relay"
	"github.com/AlexZinkM/hoh-vault/internal/vault"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

const (
	pageOrigin   = "https://dapp.example"
	approvalURL  = "http://localhost:8080/approve"
	testMnemonic = "abandon abandon abandon abandon abandon abandon " +
		"abandon abandon abandon abandon abandon about"
	testPassword = "correcthorsebattery"
)

func newTestServer(t *testing.T) (*httptest.Server, *approval.Broker) {
	t.Helper()

	store, err := vault.OpenBoltStore(filepath.Join(t.TempDir(), "vault.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	v, err := vault.Open(store)
	require.NoError(t, err)
	_, err = v.CreateGroup([]byte(testPassword), testMnemonic)
	require.NoError(t, err)

	surfaces := approval.NewLocalSurfaces(approvalURL)
	broker := approval.NewBroker(surfaces)
	surfaces.OnClose(func(id string) { broker.SurfaceClosed(id) })
	broker.Start()
	t.Cleanup(broker.Stop)

	suiClient := client.NewSuiClient("http://127.0.0.1:0")
	t.Cleanup(func() { suiClient.Close() })

	srv := httptest.NewServer(SetupRouter(Services{
		Vault:    v,
		Chain:    suiClient,
		Broker:   broker,
		Surfaces: surfaces,
		Approver: approval.NewApprover(v, nil, "sui:devnet"),
		Relay: relay.New(pageOrigin, relay.ForwarderFunc(
			func(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error) {
				return broker.Request(ctx, approval.Method(method), params)
			},
		)),
		ApprovalURL: approvalURL,
	}))
	t.Cleanup(srv.Close)

	return srv, broker
}

func TestSwaggerDoc(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/swagger/doc.json")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `"/vault/state"`)
	require.Contains(t, string(body), `"/approval/approve"`)
}

func TestVaultState(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/vault/state")
	require.NoError(t, err)
	defer resp.Body.Close()

	var state model.VaultStateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&state))
	require.Equal(t, "unlocked", state.State)
	require.Len(t, state.Groups, 1)
}

func TestRelayRejectsForeignOrigin(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/relay"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": {"https://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
}

// A page connects over the relay and the user approves from the approval
// surface.
func TestRelayApprovalRoundTrip(t *testing.T) {
	t.Parallel()

	srv, broker := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/relay"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": {pageOrigin}})
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(relay.PageMessage{ID: "req-1", Method: "connect"}))

	var pending approval.PendingRequest
	require.Eventually(t, func() bool {
		var ok bool
		pending, ok = broker.Pending()
		return ok
	}, 5*time.Second, 10*time.Millisecond)

	body, err := json.Marshal(model.ApprovalRequest{RequestID: pending.ID})
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+"/approval/approve", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	var result model.ApprovalResultResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.True(t, result.Settled)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var reply relay.Response
	require.NoError(t, conn.ReadJSON(&reply))
	require.Equal(t, "req-1", reply.ID)
	require.Empty(t, reply.Error)
	require.Contains(t, string(reply.Data), `"sui:devnet"`)

	// Unsupported methods are answered without opening a surface.
	require.NoError(t, conn.WriteJSON(relay.PageMessage{ID: "req-2", Method: "sui:unknown"}))
	require.NoError(t, conn.ReadJSON(&reply))
	require.Equal(t, "req-2", reply.ID)
	require.Equal(t, approval.ErrUnsupportedMethod.Error(), reply.Error)
}
