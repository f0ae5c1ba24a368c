package router

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"kgrouter/internal/config"
	"kgrouter/internal/domain"
	"kgrouter/internal/mcpclient"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient implements mcpclient.Client and records every forwarded call.
type fakeClient struct {
	mu       sync.Mutex
	initErr  error
	calls    []fakeCall
	results  map[string]*mcp.CallToolResult
	callErrs map[string]error
}

type fakeCall struct {
	Name string
	Args map[string]interface{}
}

func (f *fakeClient) Initialize(ctx context.Context) error { return f.initErr }
func (f *fakeClient) Close() error                         { return nil }

func (f *fakeClient) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, fakeCall{Name: name, Args: args})
	f.mu.Unlock()

	if err, ok := f.callErrs[name]; ok {
		return nil, err
	}
	if res, ok := f.results[name]; ok {
		return res, nil
	}
	return mcp.NewToolResultText("ok"), nil
}

func (f *fakeClient) ReadResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	return &mcp.ReadResourceResult{}, nil
}

func (f *fakeClient) ListTools(ctx context.Context) ([]mcp.Tool, error) { return nil, nil }
func (f *fakeClient) Ping(ctx context.Context) error                    { return nil }

func (f *fakeClient) recorded() []fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]fakeCall(nil), f.calls...)
}

func (f *fakeClient) recordedFor(tool string) []fakeCall {
	var out []fakeCall
	for _, c := range f.recorded() {
		if c.Name == tool {
			out = append(out, c)
		}
	}
	return out
}

// newTestRouter builds a router over three fake-backed domains.
func newTestRouter(t *testing.T) (*Router, map[string]*fakeClient) {
	t.Helper()

	clients := map[string]*fakeClient{
		"developer": {},
		"project":   {},
		"student":   {},
	}
	cfgs := []config.DomainConfig{
		{Name: "developer", Command: "node", EntityTypes: []string{"project", "component", "decision"}},
		{Name: "project", Command: "node", EntityTypes: []string{"project", "task", "milestone"}},
		{Name: "student", Command: "node", EntityTypes: []string{"course", "assignment", "concept"}},
	}
	factory := func(d config.DomainConfig) mcpclient.Client {
		return clients[strings.ToLower(d.Name)]
	}
	registry := domain.NewRegistry(cfgs, factory, time.Second, time.Second)
	return New(registry), clients
}

func callReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func requireErrorResult(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.True(t, result.IsError, "expected an error result")
	return resultText(result)
}

func requireTextResult(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.False(t, result.IsError, "expected a success result, got: %s", resultText(result))
	return resultText(result)
}

func TestSetActiveDomainUnknown(t *testing.T) {
	r, _ := newTestRouter(t)

	result, err := r.handleSetActiveDomain(context.Background(), callReq(map[string]interface{}{"domain": "finance"}))
	require.NoError(t, err)

	text := requireErrorResult(t, result)
	assert.Contains(t, text, "finance")
	assert.Contains(t, text, "developer, project, student", "error lists the valid names")
	assert.Empty(t, r.ActiveDomain(), "failed lookup must not mutate the active domain")
	assert.Empty(t, r.Sessions().All(), "failed lookup must not mutate the session table")
}

func TestSetActiveDomainCaseInsensitive(t *testing.T) {
	r, _ := newTestRouter(t)

	for _, name := range []string{"Developer", "developer", "DEVELOPER"} {
		result, err := r.handleSetActiveDomain(context.Background(), callReq(map[string]interface{}{"domain": name}))
		require.NoError(t, err)
		requireTextResult(t, result)
		assert.Equal(t, "developer", r.ActiveDomain(), "active domain uses the canonical-cased registry name")
	}
}

func TestSetActiveDomainConnectFailureLeavesPointer(t *testing.T) {
	r, clients := newTestRouter(t)

	result, err := r.handleSetActiveDomain(context.Background(), callReq(map[string]interface{}{"domain": "developer"}))
	require.NoError(t, err)
	requireTextResult(t, result)

	clients["project"].initErr = errors.New("spawn failed")
	result, err = r.handleSetActiveDomain(context.Background(), callReq(map[string]interface{}{"domain": "project"}))
	require.NoError(t, err)

	text := requireErrorResult(t, result)
	assert.Contains(t, text, "project")
	assert.Equal(t, "developer", r.ActiveDomain(), "connect failure leaves the previous active domain")
}

func TestStartSessionCreatesRow(t *testing.T) {
	r, clients := newTestRouter(t)

	result, err := r.handleStartSession(context.Background(), callReq(map[string]interface{}{"domain": "student"}))
	require.NoError(t, err)
	requireTextResult(t, result)

	sessions := r.Sessions().All()
	require.Len(t, sessions, 1)
	assert.Equal(t, "student", sessions[0].Domain)
	assert.True(t, sessions[0].Active)
	assert.Equal(t, "student", r.ActiveDomain())

	require.Len(t, clients["student"].recordedFor("startsession"), 1)

	// A second session gets a distinct id.
	result, err = r.handleStartSession(context.Background(), callReq(map[string]interface{}{"domain": "student"}))
	require.NoError(t, err)
	requireTextResult(t, result)

	sessions = r.Sessions().All()
	require.Len(t, sessions, 2)
	assert.NotEqual(t, sessions[0].ID, sessions[1].ID)
}

func TestStartSessionUnknownDomain(t *testing.T) {
	r, _ := newTestRouter(t)

	result, err := r.handleStartSession(context.Background(), callReq(map[string]interface{}{"domain": "finance"}))
	require.NoError(t, err)
	requireErrorResult(t, result)

	assert.Empty(t, r.Sessions().All())
	assert.Empty(t, r.ActiveDomain())
}

func TestStartSessionRecordsDomainSessionID(t *testing.T) {
	r, clients := newTestRouter(t)
	clients["developer"].results = map[string]*mcp.CallToolResult{
		"startsession": mcp.NewToolResultText("Started a new developer session: dev_sess_91"),
	}

	result, err := r.handleStartSession(context.Background(), callReq(map[string]interface{}{"domain": "developer"}))
	require.NoError(t, err)
	requireTextResult(t, result)

	sessions := r.Sessions().All()
	require.Len(t, sessions, 1)
	assert.Equal(t, "dev_sess_91", sessions[0].DomainSessionID)
}

func TestEndSessionLifecycle(t *testing.T) {
	r, clients := newTestRouter(t)

	_, err := r.handleStartSession(context.Background(), callReq(map[string]interface{}{"domain": "developer"}))
	require.NoError(t, err)
	sess := r.Sessions().All()[0]

	// Intermediate stage keeps the session active.
	result, err := r.handleEndSession(context.Background(), callReq(map[string]interface{}{
		"sessionId":       sess.ID,
		"stage":           "summary",
		"stageNumber":     1,
		"totalStages":     2,
		"nextStageNeeded": true,
	}))
	require.NoError(t, err)
	requireTextResult(t, result)

	got, ok := r.Sessions().Get(sess.ID)
	require.True(t, ok)
	assert.True(t, got.Active)

	// Final stage deactivates it.
	result, err = r.handleEndSession(context.Background(), callReq(map[string]interface{}{
		"sessionId":       sess.ID,
		"stage":           "assembly",
		"stageNumber":     2,
		"totalStages":     2,
		"nextStageNeeded": false,
	}))
	require.NoError(t, err)
	requireTextResult(t, result)

	got, ok = r.Sessions().Get(sess.ID)
	require.True(t, ok)
	assert.False(t, got.Active)

	// The inactive session is still found and the call still forwards.
	result, err = r.handleEndSession(context.Background(), callReq(map[string]interface{}{
		"sessionId":       sess.ID,
		"stage":           "assembly",
		"stageNumber":     2,
		"totalStages":     2,
		"nextStageNeeded": false,
	}))
	require.NoError(t, err)
	requireTextResult(t, result)

	assert.Len(t, clients["developer"].recordedFor("endsession"), 3)
}

func TestEndSessionForwardsArgsVerbatim(t *testing.T) {
	r, clients := newTestRouter(t)

	_, err := r.handleStartSession(context.Background(), callReq(map[string]interface{}{"domain": "project"}))
	require.NoError(t, err)
	sess := r.Sessions().All()[0]

	stageData := map[string]interface{}{"summary": "done", "openItems": []interface{}{"a", "b"}}
	_, err = r.handleEndSession(context.Background(), callReq(map[string]interface{}{
		"sessionId":       sess.ID,
		"stage":           "analysis",
		"stageNumber":     1,
		"totalStages":     3,
		"nextStageNeeded": true,
		"analysis":        "initial pass",
		"isRevision":      false,
		"stageData":       stageData,
	}))
	require.NoError(t, err)

	forwarded := clients["project"].recordedFor("endsession")
	require.Len(t, forwarded, 1)
	assert.Equal(t, sess.ID, forwarded[0].Args["sessionId"])
	assert.Equal(t, "analysis", forwarded[0].Args["stage"])
	assert.Equal(t, "initial pass", forwarded[0].Args["analysis"])
	assert.Equal(t, stageData, forwarded[0].Args["stageData"])
}

func TestEndSessionNotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	result, err := r.handleEndSession(context.Background(), callReq(map[string]interface{}{
		"sessionId":       "nope",
		"stage":           "summary",
		"stageNumber":     1,
		"totalStages":     1,
		"nextStageNeeded": false,
	}))
	require.NoError(t, err)
	text := requireErrorResult(t, result)
	assert.Contains(t, text, "startsession")
}

func TestBuildContextRequiresActiveDomain(t *testing.T) {
	r, _ := newTestRouter(t)

	result, err := r.handleBuildContext(context.Background(), callReq(map[string]interface{}{
		"type": "entities",
		"data": map[string]interface{}{},
	}))
	require.NoError(t, err)
	text := requireErrorResult(t, result)
	assert.Contains(t, text, "setActiveDomain")
}

func TestBuildContextInvalidType(t *testing.T) {
	r, _ := newTestRouter(t)
	_, err := r.handleSetActiveDomain(context.Background(), callReq(map[string]interface{}{"domain": "developer"}))
	require.NoError(t, err)

	result, err := r.handleBuildContext(context.Background(), callReq(map[string]interface{}{
		"type": "widgets",
		"data": map[string]interface{}{},
	}))
	require.NoError(t, err)
	text := requireErrorResult(t, result)
	assert.Contains(t, text, "entities, relations, observations")
}

func TestBuildContextForwardsVerbatim(t *testing.T) {
	r, clients := newTestRouter(t)
	_, err := r.handleSetActiveDomain(context.Background(), callReq(map[string]interface{}{"domain": "developer"}))
	require.NoError(t, err)

	data := map[string]interface{}{
		"entities": []interface{}{map[string]interface{}{"name": "auth-service", "entityType": "component"}},
	}
	result, err := r.handleBuildContext(context.Background(), callReq(map[string]interface{}{
		"type": "entities",
		"data": data,
	}))
	require.NoError(t, err)
	requireTextResult(t, result)

	forwarded := clients["developer"].recordedFor("buildcontext")
	require.Len(t, forwarded, 1)
	assert.Equal(t, "entities", forwarded[0].Args["type"])
	assert.Equal(t, data, forwarded[0].Args["data"], "the router must not reshape the payload")
}

func TestDeleteContextRoutesToActiveDomain(t *testing.T) {
	r, clients := newTestRouter(t)
	_, err := r.handleSetActiveDomain(context.Background(), callReq(map[string]interface{}{"domain": "project"}))
	require.NoError(t, err)

	result, err := r.handleDeleteContext(context.Background(), callReq(map[string]interface{}{
		"type": "relations",
		"data": map[string]interface{}{},
	}))
	require.NoError(t, err)
	requireTextResult(t, result)

	assert.Len(t, clients["project"].recordedFor("deletecontext"), 1)
	assert.Empty(t, clients["developer"].recorded())
}

func TestLoadContextWithoutSession(t *testing.T) {
	r, clients := newTestRouter(t)
	_, err := r.handleSetActiveDomain(context.Background(), callReq(map[string]interface{}{"domain": "developer"}))
	require.NoError(t, err)

	result, err := r.handleLoadContext(context.Background(), callReq(map[string]interface{}{"entityName": "auth-service"}))
	require.NoError(t, err)
	text := requireErrorResult(t, result)
	assert.Contains(t, text, "startsession")
	assert.Empty(t, r.Sessions().All(), "failed resolution must not touch the session table")
	assert.Empty(t, clients["developer"].recordedFor("loadcontext"))
}

func TestLoadContextUsesFirstActiveSession(t *testing.T) {
	r, clients := newTestRouter(t)

	_, err := r.handleStartSession(context.Background(), callReq(map[string]interface{}{"domain": "developer"}))
	require.NoError(t, err)
	_, err = r.handleStartSession(context.Background(), callReq(map[string]interface{}{"domain": "developer"}))
	require.NoError(t, err)

	first := r.Sessions().All()[0]

	result, err := r.handleLoadContext(context.Background(), callReq(map[string]interface{}{"entityName": "auth-service"}))
	require.NoError(t, err)
	requireTextResult(t, result)

	forwarded := clients["developer"].recordedFor("loadcontext")
	require.Len(t, forwarded, 1)
	assert.Equal(t, first.ID, forwarded[0].Args["sessionId"], "first active session wins, not the most recent")
	assert.Equal(t, "unknown", forwarded[0].Args["entityType"], "entityType defaults to unknown")

	got, ok := r.Sessions().Get(first.ID)
	require.True(t, ok)
	assert.Equal(t, "auth-service", got.EntityName)
	assert.Equal(t, "unknown", got.EntityType)
}

func TestLoadContextExplicitSession(t *testing.T) {
	r, clients := newTestRouter(t)

	_, err := r.handleStartSession(context.Background(), callReq(map[string]interface{}{"domain": "developer"}))
	require.NoError(t, err)
	_, err = r.handleStartSession(context.Background(), callReq(map[string]interface{}{"domain": "project"}))
	require.NoError(t, err)

	devSess := r.Sessions().All()[0]

	// Active domain is project now; an explicit developer session id routes
	// to the developer domain anyway.
	result, err := r.handleLoadContext(context.Background(), callReq(map[string]interface{}{
		"entityName": "auth-service",
		"entityType": "component",
		"sessionId":  devSess.ID,
	}))
	require.NoError(t, err)
	requireTextResult(t, result)

	forwarded := clients["developer"].recordedFor("loadcontext")
	require.Len(t, forwarded, 1)
	assert.Equal(t, "component", forwarded[0].Args["entityType"])
	assert.Empty(t, clients["project"].recordedFor("loadcontext"))
}

func TestAdvancedContextInvalidType(t *testing.T) {
	r, _ := newTestRouter(t)
	_, err := r.handleSetActiveDomain(context.Background(), callReq(map[string]interface{}{"domain": "developer"}))
	require.NoError(t, err)

	result, err := r.handleAdvancedContext(context.Background(), callReq(map[string]interface{}{"type": "everything"}))
	require.NoError(t, err)
	text := requireErrorResult(t, result)
	assert.Contains(t, text, "graph, search, nodes, related, decisions, milestone")
}

func TestAdvancedContextPassThrough(t *testing.T) {
	r, clients := newTestRouter(t)
	_, err := r.handleSetActiveDomain(context.Background(), callReq(map[string]interface{}{"domain": "student"}))
	require.NoError(t, err)

	result, err := r.handleAdvancedContext(context.Background(), callReq(map[string]interface{}{
		"type":   "search",
		"params": map[string]interface{}{"query": "linear algebra"},
	}))
	require.NoError(t, err)
	requireTextResult(t, result)

	forwarded := clients["student"].recordedFor("advancedcontext")
	require.Len(t, forwarded, 1)
	assert.Equal(t, "search", forwarded[0].Args["type"])
}

func TestListAllEntitiesFallback(t *testing.T) {
	r, clients := newTestRouter(t)
	clients["developer"].callErrs = map[string]error{"listAllEntities": errors.New("tool not found")}

	_, err := r.handleSetActiveDomain(context.Background(), callReq(map[string]interface{}{"domain": "developer"}))
	require.NoError(t, err)

	result, err := r.handleListAllEntities(context.Background(), callReq(nil))
	require.NoError(t, err)
	text := requireTextResult(t, result)

	for _, entityType := range []string{"project", "component", "decision"} {
		assert.Contains(t, text, entityType, "fallback reports the configured entity-type vocabulary")
	}
}

func TestListAllEntitiesPassThrough(t *testing.T) {
	r, clients := newTestRouter(t)
	clients["developer"].results = map[string]*mcp.CallToolResult{
		"listAllEntities": mcp.NewToolResultText("auth-service, billing-service"),
	}

	_, err := r.handleSetActiveDomain(context.Background(), callReq(map[string]interface{}{"domain": "developer"}))
	require.NoError(t, err)

	result, err := r.handleListAllEntities(context.Background(), callReq(nil))
	require.NoError(t, err)
	assert.Equal(t, "auth-service, billing-service", requireTextResult(t, result))
}

func relateArgs() map[string]interface{} {
	return map[string]interface{}{
		"fromDomain":   "developer",
		"fromEntity":   "A",
		"toDomain":     "project",
		"toEntity":     "B",
		"relationType": "manages",
	}
}

// observationContents digs the observation strings out of a recorded
// buildcontext call.
func observationContents(t *testing.T, call fakeCall) (entityName string, contents []interface{}) {
	t.Helper()
	data, ok := call.Args["data"].(map[string]interface{})
	require.True(t, ok)
	observations, ok := data["observations"].([]interface{})
	require.True(t, ok)
	require.Len(t, observations, 1)
	obs, ok := observations[0].(map[string]interface{})
	require.True(t, ok)
	contents, ok = obs["contents"].([]interface{})
	require.True(t, ok)
	name, ok := obs["entityName"].(string)
	require.True(t, ok)
	return name, contents
}

func TestRelateCrossDomainWritesBothSides(t *testing.T) {
	r, clients := newTestRouter(t)

	result, err := r.handleRelateCrossDomain(context.Background(), callReq(relateArgs()))
	require.NoError(t, err)
	requireTextResult(t, result)

	fromCalls := clients["developer"].recordedFor("buildcontext")
	require.Len(t, fromCalls, 1)
	entity, contents := observationContents(t, fromCalls[0])
	assert.Equal(t, "A", entity)
	require.Len(t, contents, 1)
	assert.Contains(t, contents[0], "Related to B (project domain) via manages")

	toCalls := clients["project"].recordedFor("buildcontext")
	require.Len(t, toCalls, 1)
	entity, contents = observationContents(t, toCalls[0])
	assert.Equal(t, "B", entity)
	require.Len(t, contents, 1)
	assert.Contains(t, contents[0], "Related from A (developer domain) via manages")
}

func TestRelateCrossDomainUnknownDomain(t *testing.T) {
	r, clients := newTestRouter(t)

	args := relateArgs()
	args["toDomain"] = "finance"
	result, err := r.handleRelateCrossDomain(context.Background(), callReq(args))
	require.NoError(t, err)
	requireErrorResult(t, result)

	assert.Empty(t, clients["developer"].recorded(), "no observation may be written when a domain is unknown")
	assert.Empty(t, r.Sessions().All())
	assert.Empty(t, r.ActiveDomain())
}

func TestRelateCrossDomainUnreachableTargetWritesNothing(t *testing.T) {
	r, clients := newTestRouter(t)
	clients["project"].initErr = errors.New("spawn failed")

	result, err := r.handleRelateCrossDomain(context.Background(), callReq(relateArgs()))
	require.NoError(t, err)
	text := requireErrorResult(t, result)
	assert.Contains(t, text, "No observations were written")

	assert.Empty(t, clients["developer"].recordedFor("buildcontext"),
		"both connections are verified before the first write")
}

func TestRelateCrossDomainPartialWriteIsReported(t *testing.T) {
	r, clients := newTestRouter(t)
	clients["project"].callErrs = map[string]error{"buildcontext": errors.New("graph locked")}

	result, err := r.handleRelateCrossDomain(context.Background(), callReq(relateArgs()))
	require.NoError(t, err)
	text := requireErrorResult(t, result)
	assert.Contains(t, text, "one-sided", "a write failure after the first observation must be called out")

	assert.Len(t, clients["developer"].recordedFor("buildcontext"), 1)
}
