package router

import (
	"context"
	"fmt"
	"strings"

	"kgrouter/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
)

// Every handler returns a well-formed result and a nil error: failures are
// signalled through IsError plus actionable text, never through the
// transport layer. MCP clients expect every tool invocation to produce a
// response.

var contextTypes = []string{"entities", "relations", "observations"}

var advancedContextTypes = []string{"graph", "search", "nodes", "related", "decisions", "milestone"}

func validType(valid []string, t string) bool {
	for _, v := range valid {
		if v == t {
			return true
		}
	}
	return false
}

func (r *Router) unknownDomainError(name string) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf(
		"Unknown domain %q. Valid domains: %s", name, strings.Join(r.registry.Names(), ", ")))
}

func noActiveDomainError() *mcp.CallToolResult {
	return mcp.NewToolResultError(
		"No active domain set. Use the setActiveDomain tool (or startsession) first.")
}

// handleSetActiveDomain switches the process-wide active domain. The domain
// is connected before the pointer moves, so a connect failure leaves the
// previous active domain in place.
func (r *Router) handleSetActiveDomain(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("domain")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	d, ok := r.registry.Lookup(name)
	if !ok {
		return r.unknownDomainError(name), nil
	}

	if err := d.Connection.Connect(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf(
			"Failed to connect to %s domain: %v. Active domain unchanged.", d.Info.Name, err)), nil
	}

	r.setActiveDomain(d.Info.Name)
	return mcp.NewToolResultText(fmt.Sprintf(
		"Active domain set to %s. Context tools now target the %s knowledge graph.",
		d.Info.Name, d.Info.Name)), nil
}

// handleStartSession connects a domain, records a new router session, makes
// the domain active and forwards startsession so the domain server can open
// its own session.
func (r *Router) handleStartSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("domain")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	d, ok := r.registry.Lookup(name)
	if !ok {
		return r.unknownDomainError(name), nil
	}

	if err := d.Connection.Connect(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf(
			"Failed to connect to %s domain: %v", d.Info.Name, err)), nil
	}

	sess := r.sessions.Start(d.Info.Name)
	r.setActiveDomain(d.Info.Name)

	// Domain servers issue their own session ids independently of ours.
	result := d.Connection.CallTool(ctx, "startsession", nil)
	if result.IsError {
		return result, nil
	}

	domainText := resultText(result)
	if dsid := ParseDomainSessionID(domainText); dsid != "" {
		r.sessions.SetDomainSessionID(sess.ID, dsid)
		logging.Debug("Router", "Session %s maps to domain session %s", sess.ID, dsid)
	}

	text := fmt.Sprintf("Started %s session %s.", d.Info.Name, sess.ID)
	if domainText != "" {
		text += "\n\n" + domainText
	}
	return mcp.NewToolResultText(text), nil
}

// handleEndSession forwards the staged finalization call to the session's
// domain. The domain server runs the multi-stage state machine; the router
// only flips its own bookkeeping when the final stage lands.
func (r *Router) handleEndSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := req.RequireString("sessionId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sess, ok := r.sessions.Get(sessionID)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf(
			"No session found with id %q. Use the startsession tool first.", sessionID)), nil
	}

	d, ok := r.registry.Lookup(sess.Domain)
	if !ok {
		// Registry is immutable and sessions only reference registry
		// domains, so this indicates table corruption.
		return mcp.NewToolResultError(fmt.Sprintf(
			"Session %q references unknown domain %q", sessionID, sess.Domain)), nil
	}

	result := d.Connection.CallTool(ctx, "endsession", req.GetArguments())
	if result.IsError {
		return result, nil
	}

	if !req.GetBool("nextStageNeeded", false) {
		r.sessions.Deactivate(sess.ID)
		logging.Info("Router", "Session %s ended", sess.ID)
	}
	return result, nil
}

// handleBuildContext forwards an entity/relation/observation creation call
// to the active domain. The data payload is opaque to the router; shape
// validation is the domain server's responsibility.
func (r *Router) handleBuildContext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return r.forwardContextCall(ctx, req, "buildcontext")
}

// handleDeleteContext forwards an entity/relation/observation deletion call
// to the active domain.
func (r *Router) handleDeleteContext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return r.forwardContextCall(ctx, req, "deletecontext")
}

func (r *Router) forwardContextCall(ctx context.Context, req mcp.CallToolRequest, tool string) (*mcp.CallToolResult, error) {
	typ, err := req.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !validType(contextTypes, typ) {
		return mcp.NewToolResultError(fmt.Sprintf(
			"Invalid type %q. Valid types: %s", typ, strings.Join(contextTypes, ", "))), nil
	}

	d, ok := r.activeDomainEntry()
	if !ok {
		return noActiveDomainError(), nil
	}

	return d.Connection.CallTool(ctx, tool, req.GetArguments()), nil
}

// handleLoadContext loads an entity into a session. The target session is
// the explicit sessionId when given, otherwise the first active session for
// the active domain.
func (r *Router) handleLoadContext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entityName, err := req.RequireString("entityName")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	active, ok := r.activeDomainEntry()
	if !ok {
		return noActiveDomainError(), nil
	}

	var sess Session
	if explicit := req.GetString("sessionId", ""); explicit != "" {
		sess, ok = r.sessions.Get(explicit)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf(
				"No session found with id %q. Use the startsession tool first.", explicit)), nil
		}
	} else {
		sess, ok = r.sessions.FirstActive(active.Info.Name)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf(
				"No active session for the %s domain. Use the startsession tool first.", active.Info.Name)), nil
		}
	}

	entityType := req.GetString("entityType", "")
	if entityType == "" {
		entityType = "unknown"
	}
	r.sessions.SetEntity(sess.ID, entityName, entityType)

	// The session's owning domain may differ from the active domain when an
	// explicit sessionId is given; the session's domain wins.
	d, ok := r.registry.Lookup(sess.Domain)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf(
			"Session %q references unknown domain %q", sess.ID, sess.Domain)), nil
	}

	result := d.Connection.CallTool(ctx, "loadcontext", map[string]interface{}{
		"entityName": entityName,
		"entityType": entityType,
		"sessionId":  sess.ID,
	})
	if result.IsError {
		return result, nil
	}

	text := fmt.Sprintf("Loaded %s (%s) into session %s.", entityName, entityType, sess.ID)
	if domainText := resultText(result); domainText != "" {
		text += "\n\n" + domainText
	}
	return mcp.NewToolResultText(text), nil
}

// handleAdvancedContext forwards graph-level queries to the active domain.
// No session is required.
func (r *Router) handleAdvancedContext(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typ, err := req.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !validType(advancedContextTypes, typ) {
		return mcp.NewToolResultError(fmt.Sprintf(
			"Invalid type %q. Valid types: %s", typ, strings.Join(advancedContextTypes, ", "))), nil
	}

	d, ok := r.activeDomainEntry()
	if !ok {
		return noActiveDomainError(), nil
	}

	return d.Connection.CallTool(ctx, "advancedcontext", req.GetArguments()), nil
}

// handleListAllEntities asks the active domain for its entity inventory.
// Domains that predate the listAllEntities tool (or are unreachable) fall
// back to the statically configured entity-type vocabulary, so the agent
// always gets a useful answer.
func (r *Router) handleListAllEntities(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, ok := r.activeDomainEntry()
	if !ok {
		return noActiveDomainError(), nil
	}

	result := d.Connection.CallTool(ctx, "listAllEntities", nil)
	if result.IsError {
		logging.Warn("Router", "listAllEntities unavailable on %s domain, falling back to configured entity types", d.Info.Name)
		return mcp.NewToolResultText(fmt.Sprintf(
			"Entity types available in the %s domain: %s",
			d.Info.Name, strings.Join(d.Info.EntityTypes, ", "))), nil
	}
	return result, nil
}

// handleRelateCrossDomain links two entities in different domains. Domain
// servers have no concept of foreign-domain entity references, so the link
// is a pair of mirrored free-text observations. Both connections are
// verified before either write; a failure on the second write still leaves
// a one-sided relation, which the error text calls out explicitly.
func (r *Router) handleRelateCrossDomain(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	fromDomain, err := req.RequireString("fromDomain")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fromEntity, err := req.RequireString("fromEntity")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	toDomain, err := req.RequireString("toDomain")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	toEntity, err := req.RequireString("toEntity")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	relationType, err := req.RequireString("relationType")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	from, ok := r.registry.Lookup(fromDomain)
	if !ok {
		return r.unknownDomainError(fromDomain), nil
	}
	to, ok := r.registry.Lookup(toDomain)
	if !ok {
		return r.unknownDomainError(toDomain), nil
	}

	// Connect both sides before writing anything, so an unreachable target
	// cannot leave a half-written relation behind.
	if err := from.Connection.Connect(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf(
			"Failed to connect to %s domain: %v. No observations were written.", from.Info.Name, err)), nil
	}
	if err := to.Connection.Connect(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf(
			"Failed to connect to %s domain: %v. No observations were written.", to.Info.Name, err)), nil
	}

	outbound := fmt.Sprintf("Related to %s (%s domain) via %s", toEntity, to.Info.Name, relationType)
	result := from.Connection.CallTool(ctx, "buildcontext", observationArgs(fromEntity, outbound))
	if result.IsError {
		return mcp.NewToolResultError(fmt.Sprintf(
			"Failed to record relation on %s domain: %s. No observations were written.",
			from.Info.Name, resultText(result))), nil
	}

	inbound := fmt.Sprintf("Related from %s (%s domain) via %s", fromEntity, from.Info.Name, relationType)
	result = to.Connection.CallTool(ctx, "buildcontext", observationArgs(toEntity, inbound))
	if result.IsError {
		return mcp.NewToolResultError(fmt.Sprintf(
			"Failed to record relation on %s domain: %s. WARNING: the relation was already recorded on %s %q and is now one-sided.",
			to.Info.Name, resultText(result), from.Info.Name, fromEntity)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Created cross-domain relation: %s (%s) -[%s]-> %s (%s).",
		fromEntity, from.Info.Name, relationType, toEntity, to.Info.Name)), nil
}

// observationArgs builds the buildcontext payload that appends one
// observation to one entity.
func observationArgs(entityName, observation string) map[string]interface{} {
	return map[string]interface{}{
		"type": "observations",
		"data": map[string]interface{}{
			"observations": []interface{}{
				map[string]interface{}{
					"entityName": entityName,
					"contents":   []interface{}{observation},
				},
			},
		},
	}
}
