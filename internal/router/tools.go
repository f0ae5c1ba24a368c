package router

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// toolSpec couples a tool's name, schema builder and handler. The schema
// builder takes the description as an argument so the description refresher
// can re-register the same tool with domain-specific help text without
// touching name, schema or handler.
type toolSpec struct {
	name               string
	defaultDescription string
	build              func(description string) mcp.Tool
	handler            server.ToolHandlerFunc
}

// serverTool materializes the tool with the given description.
func (s toolSpec) serverTool(description string) server.ServerTool {
	return server.ServerTool{
		Tool:    s.build(description),
		Handler: s.handler,
	}
}

// ToolSpecs returns the router's tool surface. The listAllEntities tool is
// optional; some deployments turn it off.
func (r *Router) ToolSpecs(includeListAllEntities bool) []toolSpec {
	specs := []toolSpec{
		{
			name:               "setActiveDomain",
			defaultDescription: "Set the active knowledge-graph domain targeted by context tools.",
			build: func(description string) mcp.Tool {
				return mcp.NewTool("setActiveDomain",
					mcp.WithDescription(description),
					mcp.WithString("domain",
						mcp.Required(),
						mcp.Description("Name of the domain to activate (case-insensitive)."),
					),
				)
			},
			handler: r.handleSetActiveDomain,
		},
		{
			name:               "startsession",
			defaultDescription: "Start a new session for a domain and make that domain active.",
			build: func(description string) mcp.Tool {
				return mcp.NewTool("startsession",
					mcp.WithDescription(description),
					mcp.WithString("domain",
						mcp.Required(),
						mcp.Description("Name of the domain to start a session for (case-insensitive)."),
					),
				)
			},
			handler: r.handleStartSession,
		},
		{
			name:               "endsession",
			defaultDescription: "Advance a session through its staged finalization; the final stage deactivates the session.",
			build: func(description string) mcp.Tool {
				return mcp.NewTool("endsession",
					mcp.WithDescription(description),
					mcp.WithString("sessionId",
						mcp.Required(),
						mcp.Description("Router session id returned by startsession."),
					),
					mcp.WithString("stage",
						mcp.Required(),
						mcp.Description("Name of the current finalization stage."),
					),
					mcp.WithNumber("stageNumber",
						mcp.Required(),
						mcp.Description("1-based index of the current stage."),
					),
					mcp.WithNumber("totalStages",
						mcp.Required(),
						mcp.Description("Total number of finalization stages."),
					),
					mcp.WithBoolean("nextStageNeeded",
						mcp.Required(),
						mcp.Description("Whether another stage follows. False completes the session."),
					),
					mcp.WithString("analysis",
						mcp.Description("Analysis text produced for this stage."),
					),
					mcp.WithBoolean("isRevision",
						mcp.Description("Whether this call revises an earlier stage."),
					),
					mcp.WithNumber("revisesStage",
						mcp.Description("Stage number being revised, when isRevision is true."),
					),
					mcp.WithObject("stageData",
						mcp.Description("Stage-specific payload, passed to the domain server unmodified."),
					),
				)
			},
			handler: r.handleEndSession,
		},
		{
			name:               "buildcontext",
			defaultDescription: "Create entities, relations or observations in the active domain's knowledge graph.",
			build: func(description string) mcp.Tool {
				return mcp.NewTool("buildcontext",
					mcp.WithDescription(description),
					mcp.WithString("type",
						mcp.Required(),
						mcp.Description("Kind of context to create."),
						mcp.Enum("entities", "relations", "observations"),
					),
					mcp.WithObject("data",
						mcp.Required(),
						mcp.Description("Payload for the chosen type, passed to the domain server unmodified."),
					),
				)
			},
			handler: r.handleBuildContext,
		},
		{
			name:               "deletecontext",
			defaultDescription: "Delete entities, relations or observations from the active domain's knowledge graph.",
			build: func(description string) mcp.Tool {
				return mcp.NewTool("deletecontext",
					mcp.WithDescription(description),
					mcp.WithString("type",
						mcp.Required(),
						mcp.Description("Kind of context to delete."),
						mcp.Enum("entities", "relations", "observations"),
					),
					mcp.WithObject("data",
						mcp.Required(),
						mcp.Description("Payload for the chosen type, passed to the domain server unmodified."),
					),
				)
			},
			handler: r.handleDeleteContext,
		},
		{
			name:               "loadcontext",
			defaultDescription: "Load an entity's context into a session in the active domain.",
			build: func(description string) mcp.Tool {
				return mcp.NewTool("loadcontext",
					mcp.WithDescription(description),
					mcp.WithString("entityName",
						mcp.Required(),
						mcp.Description("Name of the entity to load."),
					),
					mcp.WithString("entityType",
						mcp.Description("Type of the entity; defaults to \"unknown\"."),
					),
					mcp.WithString("sessionId",
						mcp.Description("Router session id; defaults to the first active session for the active domain."),
					),
				)
			},
			handler: r.handleLoadContext,
		},
		{
			name:               "advancedcontext",
			defaultDescription: "Query the active domain's knowledge graph (full graph, search, nodes, related entities, decisions, milestones).",
			build: func(description string) mcp.Tool {
				return mcp.NewTool("advancedcontext",
					mcp.WithDescription(description),
					mcp.WithString("type",
						mcp.Required(),
						mcp.Description("Kind of query to run."),
						mcp.Enum("graph", "search", "nodes", "related", "decisions", "milestone"),
					),
					mcp.WithObject("params",
						mcp.Description("Query parameters for the chosen type, passed to the domain server unmodified."),
					),
				)
			},
			handler: r.handleAdvancedContext,
		},
		{
			name:               "relateCrossDomain",
			defaultDescription: "Link two entities living in different domains via mirrored observations.",
			build: func(description string) mcp.Tool {
				return mcp.NewTool("relateCrossDomain",
					mcp.WithDescription(description),
					mcp.WithString("fromDomain",
						mcp.Required(),
						mcp.Description("Domain of the source entity (case-insensitive)."),
					),
					mcp.WithString("fromEntity",
						mcp.Required(),
						mcp.Description("Name of the source entity."),
					),
					mcp.WithString("toDomain",
						mcp.Required(),
						mcp.Description("Domain of the target entity (case-insensitive)."),
					),
					mcp.WithString("toEntity",
						mcp.Required(),
						mcp.Description("Name of the target entity."),
					),
					mcp.WithString("relationType",
						mcp.Required(),
						mcp.Description("Relation type recorded in both observations, e.g. \"manages\"."),
					),
				)
			},
			handler: r.handleRelateCrossDomain,
		},
	}

	if includeListAllEntities {
		specs = append(specs, toolSpec{
			name:               "listAllEntities",
			defaultDescription: "List the entities in the active domain, falling back to its configured entity types.",
			build: func(description string) mcp.Tool {
				return mcp.NewTool("listAllEntities",
					mcp.WithDescription(description),
				)
			},
			handler: r.handleListAllEntities,
		})
	}

	return specs
}
