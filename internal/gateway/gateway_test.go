package gateway

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/agentwallet/agentwallet/internal/admission"
	"github.com/agentwallet/agentwallet/internal/audit"
	"github.com/agentwallet/agentwallet/internal/crossagent"
	"github.com/agentwallet/agentwallet/internal/deadman"
	"github.com/agentwallet/agentwallet/internal/killswitch"
	"github.com/agentwallet/agentwallet/internal/store"
	"github.com/agentwallet/agentwallet/internal/store/inmemory"
)

func newTestEngine(t *testing.T) (*gin.Engine, store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	s := inmemory.New()
	kill := killswitch.New(s)
	dm := deadman.New(s, nil)
	ctrl := admission.New(s, kill, dm)
	engine := gin.New()
	initRouter(engine, &routerDeps{
		store:      s,
		admission:  ctrl,
		kill:       kill,
		deadman:    dm,
		crossagent: crossagent.New(s),
		audit:      audit.New(s),
	})
	return engine, s
}

func doJSON(t *testing.T, engine *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
}

func TestUnauthenticatedRequestIsRejected(t *testing.T) {
	engine, _ := newTestEngine(t)
	rec := doJSON(t, engine, http.MethodGet, "/v1/owners/own_x", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestHealthzDoesNotRequireAuth(t *testing.T) {
	engine, _ := newTestEngine(t)
	rec := doJSON(t, engine, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestFullAdmissionFlow(t *testing.T) {
	engine, _ := newTestEngine(t)

	rec := doJSON(t, engine, http.MethodPost, "/v1/owners", "", map[string]any{"contact": "ops@example.com"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create owner status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var owner store.Owner
	decode(t, rec, &owner)
	ownerToken := owner.APIKey

	rec = doJSON(t, engine, http.MethodPost, "/v1/agents", ownerToken, map[string]any{"owner_id": owner.ID})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create agent status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var agent store.Agent
	decode(t, rec, &agent)

	rec = doJSON(t, engine, http.MethodPost, "/v1/wallets", ownerToken, map[string]any{"agent_id": agent.ID})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create wallet status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var wallet store.Wallet
	decode(t, rec, &wallet)

	rec = doJSON(t, engine, http.MethodPost, "/v1/wallets/"+wallet.ID+"/deposit", ownerToken, map[string]any{"amount_cents": 100000})
	if rec.Code != http.StatusOK && rec.Code != http.StatusCreated {
		t.Fatalf("deposit status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, engine, http.MethodPost, "/v1/wallets/"+wallet.ID+"/rules", ownerToken, map[string]any{
		"kind":     store.RulePerTransactionLimit,
		"params":   map[string]any{"limit": 5000.0},
		"active":   true,
		"priority": 1,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create rule status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, engine, http.MethodPost, "/v1/wallets/"+wallet.ID+"/transactions", agent.APIKey, map[string]any{
		"amount_cents": 1000,
		"category":     "advertising",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit transaction status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var tx store.Transaction
	decode(t, rec, &tx)
	if tx.Status != store.TxCompleted {
		t.Fatalf("transaction status = %v, want Completed", tx.Status)
	}

	rec = doJSON(t, engine, http.MethodPost, "/v1/wallets/"+wallet.ID+"/transactions", agent.APIKey, map[string]any{
		"amount_cents": 9000,
		"category":     "advertising",
	})
	if rec.Code != http.StatusForbidden && rec.Code != http.StatusBadRequest {
		t.Fatalf("over-limit submit status = %d, body = %s", rec.Code, rec.Body.String())
	}
}

func TestEmergencyStopFreezesWalletAndAgent(t *testing.T) {
	engine, _ := newTestEngine(t)

	rec := doJSON(t, engine, http.MethodPost, "/v1/owners", "", map[string]any{"contact": "ops@example.com"})
	var owner store.Owner
	decode(t, rec, &owner)

	rec = doJSON(t, engine, http.MethodPost, "/v1/agents", owner.APIKey, map[string]any{"owner_id": owner.ID})
	var agent store.Agent
	decode(t, rec, &agent)

	rec = doJSON(t, engine, http.MethodPost, "/v1/wallets", owner.APIKey, map[string]any{"agent_id": agent.ID})
	var wallet store.Wallet
	decode(t, rec, &wallet)

	rec = doJSON(t, engine, http.MethodPost, "/v1/emergency-stop", owner.APIKey, map[string]any{
		"wallet_id": wallet.ID,
		"agent_id":  agent.ID,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("emergency-stop status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, engine, http.MethodPost, "/v1/wallets/"+wallet.ID+"/transactions", agent.APIKey, map[string]any{
		"amount_cents": 100,
		"category":     "advertising",
	})
	if rec.Code == http.StatusCreated {
		t.Fatalf("transaction after emergency stop should not complete, got %d body=%s", rec.Code, rec.Body.String())
	}
}
