package main

import (
	"bufio"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/spetersoncode/cellmate"
	"github.com/spetersoncode/cellmate/agent"
)

func newTestServer(t *testing.T, m *agent.Manager) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(newServer(m, slog.New(slog.NewTextHandler(io.Discard, nil)), "*", nil))
	t.Cleanup(srv.Close)
	t.Cleanup(m.Close)
	return srv
}

// sseTypes reads an SSE body and returns the event names in order.
func sseTypes(t *testing.T, body io.Reader) []string {
	t.Helper()
	var types []string
	sc := bufio.NewScanner(body)
	for sc.Scan() {
		if name, ok := strings.CutPrefix(sc.Text(), "event: "); ok {
			types = append(types, name)
		}
	}
	require.NoError(t, sc.Err())
	return types
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return resp
}

func TestServerMessageStream(t *testing.T) {
	srv := newTestServer(t, newTestManager(&cannedModel{}))

	resp := post(t, srv.URL+"/api/sessions/nb-1/messages", `{"text":"hello"}`)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, []string{
		"RUN_STARTED",
		"TEXT_MESSAGE_START",
		"TEXT_MESSAGE_CONTENT",
		"TEXT_MESSAGE_END",
		"RUN_FINISHED",
	}, sseTypes(t, resp.Body))
}

func TestServerBadRequests(t *testing.T) {
	srv := newTestServer(t, newTestManager(&cannedModel{}))

	resp := post(t, srv.URL+"/api/sessions/nb-1/messages", `{"text":""}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post(t, srv.URL+"/api/agent", `{"threadId":"nb-1","messages":[]}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = post(t, srv.URL+"/api/approvals", `{"toolCallId":"c1","approved":true}`)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "threadId is required")

	resp, err := http.Get(srv.URL + "/api/sessions/unknown/usage")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServerConfigurationError(t *testing.T) {
	m := agent.NewManager(fakeFactory{}, notebookTools(), &agent.StaticSettings{Provider: "missing"})
	srv := newTestServer(t, m)

	resp := post(t, srv.URL+"/api/sessions/nb-1/messages", `{"text":"hello"}`)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestServerApprovalFlow(t *testing.T) {
	model := &cannedModel{turns: []*ai.Response{toolTurn("c1", "2+2"), {Content: "It printed 4."}}}
	m := newTestManager(model)
	srv := newTestServer(t, m)

	resp := post(t, srv.URL+"/api/agent", `{
		"threadId": "nb-1",
		"runId": "run-1",
		"messages": [{"id": "1", "role": "user", "content": "compute 2+2"}]
	}`)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Eventually(t, func() bool { return m.Gate().Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	pendingResp, err := http.Get(srv.URL + "/api/approvals")
	require.NoError(t, err)
	var pending []struct {
		ThreadID   string `json:"threadId"`
		ToolCallID string `json:"toolCallId"`
	}
	require.NoError(t, json.NewDecoder(pendingResp.Body).Decode(&pending))
	pendingResp.Body.Close()
	require.Len(t, pending, 1)
	assert.Equal(t, "nb-1", pending[0].ThreadID)
	assert.Equal(t, "c1", pending[0].ToolCallID)

	assert.False(t, postApproval(t, srv.URL, `{"threadId":"nb-2","toolCallId":"c1","approved":true}`),
		"another thread cannot resolve nb-1's call")
	assert.True(t, postApproval(t, srv.URL, `{"threadId":"nb-1","toolCallId":"c1","approved":true}`))
	assert.False(t, postApproval(t, srv.URL, `{"threadId":"nb-1","toolCallId":"c1","approved":false}`),
		"a repeated decision is ignored")

	types := sseTypes(t, resp.Body)
	assert.Equal(t, "RUN_STARTED", types[0])
	assert.Contains(t, types, "TOOL_CALL_START")
	assert.Contains(t, types, "TOOL_CALL_RESULT")
	assert.Equal(t, "RUN_FINISHED", types[len(types)-1])

	history, err := http.Get(srv.URL + "/api/sessions/nb-1/history")
	require.NoError(t, err)
	defer history.Body.Close()
	var snapshot struct {
		Type     string           `json:"type"`
		Messages []map[string]any `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(history.Body).Decode(&snapshot))
	assert.Equal(t, "MESSAGES_SNAPSHOT", snapshot.Type)
	assert.NotEmpty(t, snapshot.Messages)
}

func TestServerSessionEndpoints(t *testing.T) {
	m := newTestManager(&cannedModel{})
	srv := newTestServer(t, m)

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/sessions/nb-1/tools", strings.NewReader(`{"names":[]}`))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	var tools struct {
		Names []string `json:"names"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&tools))
	resp.Body.Close()
	assert.Empty(t, tools.Names)

	resp, err = http.Get(srv.URL + "/api/sessions/nb-1/usage")
	require.NoError(t, err)
	var usage agent.TokenUsage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&usage))
	resp.Body.Close()
	assert.Equal(t, 1000, usage.ContextWindow)

	req, err = http.NewRequest(http.MethodPut, srv.URL+"/api/sessions/nb-1/provider", strings.NewReader(`{"provider":"nope"}`))
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = post(t, srv.URL+"/api/sessions/nb-1/clear", "")
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	req, err = http.NewRequest(http.MethodDelete, srv.URL+"/api/sessions/nb-1", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	_, ok := m.Session("nb-1")
	assert.False(t, ok)
}

func TestServerCORS(t *testing.T) {
	srv := newTestServer(t, newTestManager(&cannedModel{}))

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/approvals", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

// postApproval sends an approval decision and reports whether it resolved
// a pending call.
func postApproval(t *testing.T, base, body string) bool {
	t.Helper()
	resp := post(t, base+"/api/approvals", body)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Resolved bool `json:"resolved"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out.Resolved
}
