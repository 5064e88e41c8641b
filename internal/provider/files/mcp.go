package files

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/wslkit/internal/domain/backup"
	"github.com/felixgeelhaar/wslkit/internal/domain/config"
	"github.com/felixgeelhaar/wslkit/internal/domain/emitter"
	"github.com/felixgeelhaar/wslkit/internal/ports"
)

// mcpServerEntry is one subprocess definition in mcp.json.
type mcpServerEntry struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// NewMCPConfigStep keeps the configured servers in the mcp.json at
// target. Servers already in the file under other names are kept.
func NewMCPConfigStep(target string, servers []config.MCPServer, em *emitter.Emitter, backups *backup.Manager, fs ports.FileSystem) *ConfigStep {
	return NewConfigStep("write mcp.json", target, MCPRenderer(servers), em, backups, fs)
}

// MCPRenderer merges servers into an existing mcp.json document.
func MCPRenderer(servers []config.MCPServer) Renderer {
	return func(current []byte) ([]byte, error) {
		doc := make(map[string]json.RawMessage)
		existing := make(map[string]json.RawMessage)

		if len(bytes.TrimSpace(current)) > 0 {
			if err := json.Unmarshal(current, &doc); err != nil {
				return nil, fmt.Errorf("existing mcp.json is not valid JSON: %w", err)
			}
			if raw, ok := doc["mcpServers"]; ok {
				if err := json.Unmarshal(raw, &existing); err != nil {
					return nil, fmt.Errorf("existing mcpServers is not an object: %w", err)
				}
			}
		}

		for _, srv := range servers {
			entry, err := json.Marshal(mcpServerEntry{Command: srv.Command, Args: srv.Args, Env: srv.Env})
			if err != nil {
				return nil, err
			}
			existing[srv.Name] = entry
		}

		merged, err := json.Marshal(existing)
		if err != nil {
			return nil, err
		}
		doc["mcpServers"] = merged

		out, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil
	}
}
