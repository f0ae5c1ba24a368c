package router

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"kgrouter/pkg/logging"

	"github.com/fsnotify/fsnotify"
	"github.com/mark3labs/mcp-go/server"
)

// DescriptionSource loads per-domain tool description text from side files
// laid out as <dir>/<domain>/<tool>.txt. A missing or empty file falls back
// to the tool's generic description; the fallback is logged but never fatal.
type DescriptionSource struct {
	dir string
}

// NewDescriptionSource creates a source rooted at dir. An empty dir means
// generic descriptions only.
func NewDescriptionSource(dir string) *DescriptionSource {
	return &DescriptionSource{dir: dir}
}

// Describe returns the description for one tool in the context of one
// domain.
func (s *DescriptionSource) Describe(domainName string, spec toolSpec) string {
	if s.dir == "" || domainName == "" {
		return spec.defaultDescription
	}

	path := filepath.Join(s.dir, domainName, spec.name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		logging.Warn("Descriptions", "No description for %s/%s (%v), using generic text", domainName, spec.name, err)
		return spec.defaultDescription
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		logging.Warn("Descriptions", "Empty description file for %s/%s, using generic text", domainName, spec.name)
		return spec.defaultDescription
	}
	return text
}

// Refresher re-registers the router's tools with domain-specific
// descriptions whenever the active domain changes. Names, schemas and
// handlers stay identical; only the help text the agent sees moves with the
// domain.
type Refresher struct {
	srv    *server.MCPServer
	specs  []toolSpec
	source *DescriptionSource
}

// NewRefresher creates a refresher for the given tool surface.
func NewRefresher(srv *server.MCPServer, specs []toolSpec, source *DescriptionSource) *Refresher {
	return &Refresher{
		srv:    srv,
		specs:  specs,
		source: source,
	}
}

// Apply registers every tool with descriptions for the given domain. An
// empty domain name registers the generic descriptions; this doubles as the
// initial registration at boot, before any domain is active.
func (rf *Refresher) Apply(domainName string) {
	tools := make([]server.ServerTool, 0, len(rf.specs))
	for _, spec := range rf.specs {
		tools = append(tools, spec.serverTool(rf.source.Describe(domainName, spec)))
	}

	// Re-adding a tool under an existing name replaces the registration, so
	// one batched AddTools swaps all descriptions and emits a single
	// list_changed notification.
	rf.srv.AddTools(tools...)

	if domainName != "" {
		logging.Debug("Descriptions", "Refreshed %d tool descriptions for %s domain", len(tools), domainName)
	}
}

// Watch re-applies the current domain's descriptions whenever files under
// the descriptions directory change, so edited help text shows up without a
// restart. Returns immediately when the directory does not exist. The
// watcher stops when ctx is cancelled.
func (rf *Refresher) Watch(ctx context.Context, activeDomain func() string) {
	if rf.source.dir == "" {
		return
	}
	if _, err := os.Stat(rf.source.dir); err != nil {
		logging.Debug("Descriptions", "Not watching %s: %v", rf.source.dir, err)
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Warn("Descriptions", "Could not start description watcher: %v", err)
		return
	}

	// fsnotify is not recursive; watch the root and each domain directory.
	watchDirs := []string{rf.source.dir}
	if entries, err := os.ReadDir(rf.source.dir); err == nil {
		for _, e := range entries {
			if e.IsDir() {
				watchDirs = append(watchDirs, filepath.Join(rf.source.dir, e.Name()))
			}
		}
	}
	for _, dir := range watchDirs {
		if err := watcher.Add(dir); err != nil {
			logging.Warn("Descriptions", "Could not watch %s: %v", dir, err)
		}
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				// A new domain directory needs its own watch.
				if event.Op.Has(fsnotify.Create) {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						if err := watcher.Add(event.Name); err != nil {
							logging.Warn("Descriptions", "Could not watch %s: %v", event.Name, err)
						}
					}
				}
				if name := activeDomain(); name != "" {
					logging.Debug("Descriptions", "Description change detected (%s), refreshing %s domain", event.Name, name)
					rf.Apply(name)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Warn("Descriptions", "Description watcher error: %v", err)
			}
		}
	}()
}
