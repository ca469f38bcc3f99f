package event

import "github.com/debugmate-ai/debugmate/pkg/types"

// AnalysisPushedData accompanies AnalysisPushed.
type AnalysisPushedData struct {
	SessionID string                `json:"sessionID"`
	Record    *types.AnalysisRecord `json:"record"`
}

// HistoryNavigatedData accompanies HistoryNavigated.
type HistoryNavigatedData struct {
	SessionID string                `json:"sessionID"`
	Cursor    int                   `json:"cursor"`
	Record    *types.AnalysisRecord `json:"record"`
}

// HistoryClearedData accompanies HistoryCleared.
type HistoryClearedData struct {
	SessionID string `json:"sessionID"`
}

// FileReadData accompanies FileRead.
type FileReadData struct {
	SessionID string `json:"sessionID"`
	Path      string `json:"path"`
}

// FileWrittenData accompanies FileWritten.
type FileWrittenData struct {
	SessionID string `json:"sessionID"`
	Path      string `json:"path"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
}

// FileChangedData accompanies FileChanged, published by the watcher when the
// cached artifact changes on disk outside the session.
type FileChangedData struct {
	Path string `json:"path"`
}

// SessionClosedData accompanies SessionClosed.
type SessionClosedData struct {
	SessionID string `json:"sessionID"`
}

// MessageOutboundData accompanies MessageOutbound: a message the router sent
// to the presentation surface, mirrored on the bus for the SSE bridge.
type MessageOutboundData struct {
	SessionID string         `json:"sessionID"`
	Message   types.Outbound `json:"message"`
}
