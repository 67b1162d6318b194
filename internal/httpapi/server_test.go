package httpapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Protocol-Lattice/go-careagent/pkg/agents"
	"github.com/Protocol-Lattice/go-careagent/pkg/dispatch"
	"github.com/Protocol-Lattice/go-careagent/pkg/schema"
	"github.com/Protocol-Lattice/go-careagent/pkg/session"
	"github.com/Protocol-Lattice/go-careagent/pkg/usage"
)

type stubDispatcher struct {
	result dispatch.Result
	calls  []string
}

func (d *stubDispatcher) Dispatch(_ context.Context, agentID, sessionID, query string) dispatch.Result {
	d.calls = append(d.calls, agentID+"|"+sessionID+"|"+query)
	return d.result
}

type stubUsage struct {
	session usage.SessionStats
	overall usage.OverallStats
}

func (u *stubUsage) SessionStats(sessionID string, month, year int) (usage.SessionStats, error) {
	stats := u.session
	stats.SessionID = sessionID
	return stats, nil
}

func (u *stubUsage) OverallStats() (usage.OverallStats, error) {
	return u.overall, nil
}

type stubHistory struct {
	appended []string
	cleared  []string
}

func (h *stubHistory) Append(_ context.Context, sessionID, userMsg, assistantMsg string) error {
	h.appended = append(h.appended, sessionID+"|"+userMsg+"|"+assistantMsg)
	return nil
}

func (h *stubHistory) Clear(_ context.Context, sessionID string) error {
	h.cleared = append(h.cleared, sessionID)
	return nil
}

func newTestServer(t *testing.T, d Dispatcher, u UsageReader, h HistoryAppender) (*Server, *httptest.Server) {
	t.Helper()
	reg, err := agents.Default(schema.Default())
	if err != nil {
		t.Fatalf("agents.Default: %v", err)
	}
	srv := NewServer(Options{
		Dispatcher: d,
		Agents:     reg,
		Sessions:   session.NewManager(),
		Usage:      u,
		History:    h,
		Logger:     slog.New(slog.DiscardHandler),
	})
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return srv, ts
}

func TestChatDispatchesAndRecordsHistory(t *testing.T) {
	d := &stubDispatcher{result: dispatch.Result{
		Response:  "Aspirin thins the blood.",
		AgentName: "FDA Drug Information Agent",
		ToolsUsed: []string{"fda_drug_lookup"},
	}}
	h := &stubHistory{}
	_, ts := newTestServer(t, d, nil, h)

	resp, err := http.Post(ts.URL+"/api/chat", "application/json",
		strings.NewReader(`{"agent_id":"fda_agent","session_id":"s1","query":"aspirin?"}`))
	if err != nil {
		t.Fatalf("POST /api/chat: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body struct {
		Response  string   `json:"response"`
		AgentName string   `json:"agent_name"`
		ToolsUsed []string `json:"tools_used"`
		SessionID string   `json:"session_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Response != "Aspirin thins the blood." || body.SessionID != "s1" {
		t.Fatalf("body = %+v", body)
	}
	if len(body.ToolsUsed) != 1 || body.ToolsUsed[0] != "fda_drug_lookup" {
		t.Fatalf("tools used = %v", body.ToolsUsed)
	}

	if len(d.calls) != 1 || d.calls[0] != "fda_agent|s1|aspirin?" {
		t.Fatalf("dispatcher calls = %v", d.calls)
	}
	if len(h.appended) != 1 || !strings.HasPrefix(h.appended[0], "s1|aspirin?|") {
		t.Fatalf("history = %v", h.appended)
	}
}

func TestChatDefaultsAgentAndMintsSession(t *testing.T) {
	d := &stubDispatcher{result: dispatch.Result{Response: "hi", AgentName: "General Healthcare Assistant"}}
	_, ts := newTestServer(t, d, nil, nil)

	resp, err := http.Post(ts.URL+"/api/chat", "application/json",
		strings.NewReader(`{"query":"hello"}`))
	if err != nil {
		t.Fatalf("POST /api/chat: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.SessionID == "" {
		t.Fatalf("no session id minted")
	}
	if len(d.calls) != 1 || !strings.HasPrefix(d.calls[0], "general_assistant|") {
		t.Fatalf("dispatcher calls = %v", d.calls)
	}
}

func TestChatValidation(t *testing.T) {
	d := &stubDispatcher{}
	_, ts := newTestServer(t, d, nil, nil)

	for _, payload := range []string{`not json`, `{"agent_id":"fda_agent"}`} {
		resp, err := http.Post(ts.URL+"/api/chat", "application/json", strings.NewReader(payload))
		if err != nil {
			t.Fatalf("POST /api/chat: %v", err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("payload %q: status = %d", payload, resp.StatusCode)
		}
		var body map[string]string
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		resp.Body.Close()
		if body["status"] != "error" || body["error_message"] == "" {
			t.Fatalf("error envelope = %v", body)
		}
	}
	if len(d.calls) != 0 {
		t.Fatalf("dispatcher called on invalid input")
	}
}

func TestChatErrorResultSkipsHistory(t *testing.T) {
	d := &stubDispatcher{result: dispatch.Result{Error: "Agent not found"}}
	h := &stubHistory{}
	_, ts := newTestServer(t, d, nil, h)

	resp, err := http.Post(ts.URL+"/api/chat", "application/json",
		strings.NewReader(`{"agent_id":"ghost","session_id":"s1","query":"hi"}`))
	if err != nil {
		t.Fatalf("POST /api/chat: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "Agent not found" {
		t.Fatalf("error = %q", body.Error)
	}
	if len(h.appended) != 0 {
		t.Fatalf("history recorded despite dispatch error")
	}
}

func TestListAgents(t *testing.T) {
	_, ts := newTestServer(t, &stubDispatcher{}, nil, nil)

	resp, err := http.Get(ts.URL + "/api/agents")
	if err != nil {
		t.Fatalf("GET /api/agents: %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Agents []struct {
			ID    string   `json:"id"`
			Name  string   `json:"name"`
			Tools []string `json:"tools"`
		} `json:"agents"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Agents) != 7 {
		t.Fatalf("agents = %d, want 7", len(body.Agents))
	}
	if body.Agents[0].ID != "fda_agent" {
		t.Fatalf("first agent = %q", body.Agents[0].ID)
	}
}

func TestSessionLifecycle(t *testing.T) {
	h := &stubHistory{}
	srv, ts := newTestServer(t, &stubDispatcher{}, nil, h)

	resp, err := http.Post(ts.URL+"/api/session", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /api/session: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var created session.Session
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("empty session id")
	}
	if _, err := srv.sessions.Get(created.ID); err != nil {
		t.Fatalf("session not registered: %v", err)
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/session/"+created.ID, nil)
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE /api/session: %v", err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d", delResp.StatusCode)
	}
	if _, err := srv.sessions.Get(created.ID); err == nil {
		t.Fatalf("session still live after delete")
	}
	if len(h.cleared) != 1 || h.cleared[0] != created.ID {
		t.Fatalf("history cleared = %v", h.cleared)
	}
}

func TestUsageEndpoints(t *testing.T) {
	u := &stubUsage{
		session: usage.SessionStats{TotalAPICalls: 5, ToolUsage: map[string]int{"pubmed_search": 5}},
		overall: usage.OverallStats{TotalAPICalls: 9, TotalSessions: 2},
	}
	_, ts := newTestServer(t, &stubDispatcher{}, u, nil)

	resp, err := http.Get(ts.URL + "/api/usage_stats?session_id=s1&month=3&year=2026")
	if err != nil {
		t.Fatalf("GET /api/usage_stats: %v", err)
	}
	var stats usage.SessionStats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if stats.SessionID != "s1" || stats.TotalAPICalls != 5 {
		t.Fatalf("stats = %+v", stats)
	}

	resp, err = http.Get(ts.URL + "/api/usage_stats")
	if err != nil {
		t.Fatalf("GET /api/usage_stats: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing session_id status = %d", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/api/all_usage_stats")
	if err != nil {
		t.Fatalf("GET /api/all_usage_stats: %v", err)
	}
	var overall usage.OverallStats
	if err := json.NewDecoder(resp.Body).Decode(&overall); err != nil {
		t.Fatalf("decode: %v", err)
	}
	resp.Body.Close()
	if overall.TotalAPICalls != 9 || overall.TotalSessions != 2 {
		t.Fatalf("overall = %+v", overall)
	}
}

func TestUsageDisabled(t *testing.T) {
	_, ts := newTestServer(t, &stubDispatcher{}, nil, nil)
	resp, err := http.Get(ts.URL + "/api/all_usage_stats")
	if err != nil {
		t.Fatalf("GET /api/all_usage_stats: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotImplemented {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, &stubDispatcher{}, nil, nil)
	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("body = %v", body)
	}
}
