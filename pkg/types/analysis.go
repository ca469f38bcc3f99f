package types

import (
	"encoding/json"
	"time"
)

// AnalyzeRequest is the payload for the backend RCA endpoint.
// Exactly one of Path or Log is normally set: Path asks the server to read
// and prepare the file itself, Log carries already-prepared text.
type AnalyzeRequest struct {
	Repo       string  `json:"repo"`
	Path       *string `json:"path,omitempty"`
	Log        *string `json:"log,omitempty"`
	Screenshot *string `json:"screenshot_b64"`
	ID         *string `json:"id,omitempty"`
}

// AnalysisResult is the structured result of one root-cause analysis.
type AnalysisResult struct {
	RCA       string   `json:"rca"`
	Patch     *string  `json:"patch,omitempty"`
	Test      *string  `json:"test,omitempty"`
	Exception *string  `json:"exception,omitempty"`
	File      *string  `json:"file,omitempty"` // "path:line" form
	Context   []string `json:"context,omitempty"`
	Note      *string  `json:"note,omitempty"`
}

// UnmarshalJSON accepts both wire forms of the rca field: a plain string or
// a structured object, which is kept as its compact JSON text.
func (r *AnalysisResult) UnmarshalJSON(data []byte) error {
	type alias AnalysisResult
	aux := struct {
		RCA json.RawMessage `json:"rca"`
		*alias
	}{alias: (*alias)(r)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if len(aux.RCA) == 0 {
		return nil
	}
	var s string
	if err := json.Unmarshal(aux.RCA, &s); err == nil {
		r.RCA = s
		return nil
	}
	compact := &json.RawMessage{}
	if err := json.Unmarshal(aux.RCA, compact); err != nil {
		return err
	}
	r.RCA = string(*compact)
	return nil
}

// AnalysisRecord is one completed analysis as held by the session history.
// Immutable once created; the history navigator owns it after a push.
type AnalysisRecord struct {
	ID         string          `json:"id"`
	IncidentID string          `json:"incidentID,omitempty"`
	SourcePath *string         `json:"sourcePath,omitempty"`
	Result     *AnalysisResult `json:"result"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// RunTestsRequest is the payload for the backend test runner endpoint.
// Field names mirror the runner API.
type RunTestsRequest struct {
	Repo       string `json:"repo"`
	Path       string `json:"path"`
	Extra      string `json:"extra,omitempty"`
	Quiet      bool   `json:"quiet,omitempty"`
	UseDocker  bool   `json:"useDocker,omitempty"`
	TimeoutSec int    `json:"timeoutSec,omitempty"`
}

// RunCommandRequest is the payload for the backend arbitrary-command endpoint.
type RunCommandRequest struct {
	Cmd        string `json:"cmd"`
	Cwd        string `json:"cwd,omitempty"`
	Shell      bool   `json:"shell,omitempty"`
	TimeoutSec int    `json:"timeoutSec,omitempty"`
}

// RunResult is the structured output of a remote test or command run.
type RunResult struct {
	OK         bool   `json:"ok"`
	ReturnCode int    `json:"returncode"`
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	Cmd        string `json:"cmd"`
	Cwd        string `json:"cwd"`
}
