// Package router implements the knowledge-graph MCP router: one MCP server
// endpoint whose tools fan out to independently-running domain servers.
//
// The routing state is three pieces owned by Router: the immutable domain
// registry, the append-only session table, and the process-wide active
// domain pointer that domain-agnostic tools (buildcontext, deletecontext,
// advancedcontext, listAllEntities) target. setActiveDomain and startsession
// are the only writers of the active domain pointer.
//
// Handlers never fail at the protocol level. Every outcome, including
// unreachable domains and unknown session ids, is a normal tool response
// with IsError set and text telling the agent what to do next.
//
// Tool descriptions are per-domain: when the active domain changes, the
// Refresher re-registers every tool under the same name and schema with help
// text loaded from the descriptions directory, so the agent sees
// domain-appropriate guidance without a contract change.
package router
