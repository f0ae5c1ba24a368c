package config

import (
	"os"
	"path/filepath"
)

// Environment variables honored by the default configuration. They locate
// the domain server binaries and the files where each domain persists its
// own graph and session data.
const (
	// EnvServersDir overrides the directory containing the per-domain server
	// entry points.
	EnvServersDir = "KGROUTER_SERVERS_DIR"

	// EnvDataDir overrides the directory where domain servers persist their
	// knowledge graphs and session state.
	EnvDataDir = "KGROUTER_DATA_DIR"
)

// stockDomains are the five domains kgrouter ships with. Entity-type
// vocabularies mirror what each domain server's schema supports; they are
// also the fallback answer for listAllEntities when a domain server does not
// implement the tool itself.
var stockDomains = []struct {
	name        string
	description string
	entityTypes []string
}{
	{
		name:        "developer",
		description: "Software development knowledge graph: projects, components, decisions and their technical context.",
		entityTypes: []string{"project", "component", "feature", "issue", "technology", "decision", "milestone", "environment", "documentation", "requirement"},
	},
	{
		name:        "project",
		description: "Project management knowledge graph: tasks, milestones, resources and stakeholders.",
		entityTypes: []string{"project", "task", "milestone", "resource", "teammember", "risk", "decision", "dependency", "stakeholder", "status"},
	},
	{
		name:        "student",
		description: "Student learning knowledge graph: courses, assignments, concepts and study material.",
		entityTypes: []string{"course", "assignment", "exam", "concept", "resource", "note", "question", "deadline", "term"},
	},
	{
		name:        "qualitative-research",
		description: "Qualitative research knowledge graph: participants, interviews, codes and emerging themes.",
		entityTypes: []string{"project", "participant", "interview", "document", "code", "theme", "memo", "finding", "quote", "codebook"},
	},
	{
		name:        "quantitative-research",
		description: "Quantitative research knowledge graph: datasets, variables, hypotheses and statistical results.",
		entityTypes: []string{"project", "dataset", "variable", "hypothesis", "statisticaltest", "model", "result", "visualization"},
	},
}

// DefaultConfig returns the built-in configuration: the five stock domains,
// each spawned as a node subprocess with its persistence paths passed through
// the environment, served over stdio.
func DefaultConfig() Config {
	serversDir := os.Getenv(EnvServersDir)
	if serversDir == "" {
		serversDir = "./servers"
	}
	dataDir := os.Getenv(EnvDataDir)
	if dataDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dataDir = filepath.Join(home, ".local", "share", "kgrouter")
		} else {
			dataDir = "./data"
		}
	}

	cfg := Config{
		Router: RouterConfig{
			Host:                  "localhost",
			Port:                  8587,
			Transport:             TransportStdio,
			ConnectTimeoutSeconds: 10,
			CallTimeoutSeconds:    60,
		},
	}

	for _, d := range stockDomains {
		cfg.Domains = append(cfg.Domains, DomainConfig{
			Name:        d.name,
			Description: d.description,
			EntityTypes: d.entityTypes,
			Command:     "node",
			Args:        []string{filepath.Join(serversDir, d.name, "index.js")},
			Env: map[string]string{
				"MEMORY_FILE_PATH":  filepath.Join(dataDir, d.name+"_memory.json"),
				"SESSION_FILE_PATH": filepath.Join(dataDir, d.name+"_sessions.json"),
			},
		})
	}

	return cfg
}
