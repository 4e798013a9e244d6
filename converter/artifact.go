package converter

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/c360studio/semonto/graph"
	"github.com/c360studio/semonto/jsonld"
	"github.com/c360studio/semonto/metrics"
	"github.com/c360studio/semonto/tracking"
)

// Artifact fields read by the artifact converter.
const (
	FieldFileFormat   = "file_format"
	FieldArtifactPath = "path"
)

// NewArtifact returns the artifact converter. JSON artifacts carrying a
// JSON-LD context are additionally loaded and written into the graph.
func NewArtifact(deps Dependencies) Converter {
	c := newObjectConverter(NameArtifact, Criteria{StorageType: tracking.StorageTypeArtifact}, deps)
	c.finish = c.loadArtifactContent
	return c
}

func (c *objectConverter) loadArtifactContent(ctx context.Context, conv *conversion, g graph.Graph) {
	format, _ := conv.model.Fields[FieldFileFormat].(string)
	if !strings.EqualFold(format, "json") {
		return
	}
	rel, _ := conv.model.Fields[FieldArtifactPath].(string)
	runID := conv.obj.RunID()
	if rel == "" || runID == "" {
		c.deps.Logger.Debug("Artifact has no run or path, not loading content", "uri", conv.model.URI)
		return
	}
	if c.deps.Downloader == nil {
		c.deps.Logger.Warn("No artifact downloader configured, not loading content", "path", rel)
		return
	}

	local, err := c.deps.Downloader.DownloadTmpArtifacts(ctx, runID, rel)
	if err != nil {
		c.deps.Logger.Warn("Cannot download artifact", "run_id", runID, "path", rel, "error", err)
		return
	}
	data, err := os.ReadFile(local)
	if err != nil {
		c.deps.Logger.Warn("Cannot read artifact", "path", local, "error", err)
		return
	}
	var content any
	if err := json.Unmarshal(data, &content); err != nil {
		c.deps.Logger.Warn("Artifact is not valid json", "path", rel, "error", err)
		return
	}

	for _, doc := range documents(content) {
		own, ok := doc[jsonld.KeyContext]
		if !ok {
			c.deps.Logger.Debug("Artifact document has no json-ld context", "path", rel)
			continue
		}
		resolved, err := c.deps.Resolver.Resolve(ctx, own)
		if err != nil {
			c.deps.Logger.Warn("Skipping artifact with unresolvable context", "path", rel, "error", err)
			c.deps.Metrics.Fragment(metrics.OutcomeSkipped)
			continue
		}
		doc[jsonld.KeyContext] = resolved
		if c.write(g, doc, conv.result) {
			conv.result.Fragments++
			c.deps.Metrics.Fragment(metrics.OutcomeOK)
		} else {
			c.deps.Metrics.Fragment(metrics.OutcomeDuplicate)
		}
	}
}

// documents returns the mappings of a decoded JSON value: the value itself or
// the mapping elements of a list.
func documents(v any) []map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return []map[string]any{t}
	case []any:
		var out []map[string]any
		for _, e := range t {
			if m, ok := e.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	default:
		return nil
	}
}
