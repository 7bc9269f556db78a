package mcp

import (
	"github.com/mvp-joe/carve/internal/extract"
	"github.com/mvp-joe/carve/internal/runner"
)

// ListRequest are the carve_list arguments.
type ListRequest struct {
	Path      string `json:"path"`
	Kind      string `json:"kind,omitempty"`
	Pattern   string `json:"pattern,omitempty"`
	Attribute string `json:"attribute,omitempty"`
}

// BlockInfo describes one extractable block.
type BlockInfo struct {
	Key        string   `json:"key"`
	StartLine  int      `json:"start_line"`
	EndLine    int      `json:"end_line"`
	Balanced   bool     `json:"balanced"`
	Attributes []string `json:"attributes,omitempty"`
}

// AnomalyInfo is an extract.Anomaly in wire form.
type AnomalyInfo struct {
	Kind    string   `json:"kind"`
	Keys    []string `json:"keys,omitempty"`
	Line    int      `json:"line"`
	Message string   `json:"message"`
}

// ListResponse is returned by carve_list.
type ListResponse struct {
	Path          string        `json:"path"`
	Blocks        []BlockInfo   `json:"blocks"`
	Anomalies     []AnomalyInfo `json:"anomalies,omitempty"`
	ResidualLines int           `json:"residual_lines"`
}

// CallsRequest are the carve_calls arguments.
type CallsRequest struct {
	Path   string `json:"path"`
	Callee string `json:"callee"`
}

// CallInfo is one located invocation and its split arguments.
type CallInfo struct {
	Line int      `json:"line"`
	Text string   `json:"text"`
	Args []string `json:"args"`
}

// CallsResponse is returned by carve_calls.
type CallsResponse struct {
	Path      string        `json:"path"`
	Callee    string        `json:"callee"`
	Calls     []CallInfo    `json:"calls"`
	Anomalies []AnomalyInfo `json:"anomalies,omitempty"`
}

// ExtractRequest are the carve_extract arguments. DryRun defaults to true.
type ExtractRequest struct {
	Targets []string `json:"targets,omitempty"`
	DryRun  *bool    `json:"dry_run,omitempty"`
}

// SourceResult summarizes one processed source.
type SourceResult struct {
	Target    string        `json:"target"`
	Source    string        `json:"source"`
	Keys      []string      `json:"keys,omitempty"`
	Written   []string      `json:"written,omitempty"`
	Skipped   []string      `json:"skipped,omitempty"`
	Planned   []string      `json:"planned,omitempty"`
	Kept      []string      `json:"kept,omitempty"`
	Rewritten string        `json:"rewritten,omitempty"`
	Anomalies []AnomalyInfo `json:"anomalies,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// ExtractResponse is returned by carve_extract.
type ExtractResponse struct {
	RunID   string         `json:"run_id"`
	DryRun  bool           `json:"dry_run"`
	Sources []SourceResult `json:"sources"`
	Failed  int            `json:"failed"`
	TookMs  int64          `json:"took_ms"`
}

func toAnomalies(in []extract.Anomaly) []AnomalyInfo {
	if len(in) == 0 {
		return nil
	}
	out := make([]AnomalyInfo, 0, len(in))
	for _, a := range in {
		info := AnomalyInfo{Kind: a.Kind.String(), Keys: a.Keys, Line: a.Line}
		if a.Err != nil {
			info.Message = a.Err.Error()
		}
		out = append(out, info)
	}
	return out
}

func toSourceResult(f *runner.FileReport) SourceResult {
	r := SourceResult{
		Target:    f.Target,
		Source:    f.Source,
		Keys:      f.Keys,
		Written:   f.Written,
		Skipped:   f.Skipped,
		Planned:   f.Planned,
		Kept:      f.Kept,
		Rewritten: f.Rewritten,
		Anomalies: toAnomalies(f.Anomalies),
	}
	if f.Err != nil {
		r.Error = f.Err.Error()
	}
	return r
}
