package router

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/debugmate-ai/debugmate/internal/client"
	"github.com/debugmate-ai/debugmate/internal/event"
	"github.com/debugmate-ai/debugmate/internal/textprep"
	"github.com/debugmate-ai/debugmate/pkg/types"
)

func isCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// analysisSource is the resolved input for one analyze operation.
type analysisSource struct {
	path      string // empty when unknown
	text      string
	selection bool
}

// handleAnalyze analyzes the cached artifact. When the cache is empty the
// user is prompted to pick a file, which is then read and cached.
func (r *Router) handleAnalyze(ctx context.Context, sendPath bool) (types.Outbound, error) {
	cached := r.sess.Cached()
	src := analysisSource{path: cached.Path, text: cached.Body}

	if src.text == "" && src.path == "" {
		path, err := r.host.PickOpenPath(ctx)
		if err != nil {
			return nil, err
		}
		body, err := r.host.ReadFile(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		r.sess.Remember(path, body)
		src = analysisSource{path: path, text: body}
	}

	return r.analyze(ctx, src, sendPath)
}

// handleAnalyzeActive analyzes the host's active input, falling back to the
// cache when there is none.
func (r *Router) handleAnalyzeActive(ctx context.Context, sendPath bool) (types.Outbound, error) {
	input, err := r.host.ActiveInput(ctx)
	if err != nil {
		return nil, err
	}

	var src analysisSource
	if input != nil {
		src = analysisSource{path: input.Path, text: input.Text, selection: input.Selection}
	} else {
		cached := r.sess.Cached()
		src = analysisSource{path: cached.Path, text: cached.Body}
	}

	return r.analyze(ctx, src, sendPath)
}

// analyze runs one analysis. Path-mode (server-side read) is used only when
// the caller asked for it, a concrete path is known, and the input is not a
// selection; a selection has no meaningful path semantics and always forces
// content-mode. Content-mode text flows through the preparation pipeline
// first. The cache and history are only updated after the request succeeds.
func (r *Router) analyze(ctx context.Context, src analysisSource, sendPath bool) (types.Outbound, error) {
	if src.text == "" && src.path == "" {
		return nil, ErrEmptyInput
	}

	pathMode := sendPath && src.path != "" && !src.selection
	if pathMode {
		result, err := r.client.AnalyzePath(ctx, src.path)
		if err != nil {
			return nil, err
		}
		record := r.sess.PushResult(ctx, &src.path, "", result)
		return types.AnalysisResultMsg{Path: record.SourcePath, Body: result}, nil
	}

	text := src.text
	if text == "" {
		// A path without content: read it locally for content-mode.
		body, err := r.host.ReadFile(ctx, src.path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", src.path, err)
		}
		text = body
	}

	prepared := textprep.Prepare(src.path, text, textprep.Options{
		Limit:            r.maxPayload(),
		NotebookStrategy: r.notebookStrategy(),
	})
	if strings.TrimSpace(prepared.Text) == "" {
		return nil, ErrEmptyInput
	}

	result, err := r.client.AnalyzeContent(ctx, prepared.Text)
	if err != nil {
		return nil, err
	}
	mergeNote(result, prepared.Note)

	var sourcePath *string
	if src.path != "" && !src.selection {
		sourcePath = &src.path
	}

	r.sess.Remember(src.path, text)
	record := r.sess.PushResult(ctx, sourcePath, client.DeriveIncidentID(prepared.Text), result)
	return types.AnalysisResultMsg{Path: record.SourcePath, Body: result}, nil
}

// mergeNote folds the local preparation note into the result note.
func mergeNote(result *types.AnalysisResult, note string) {
	if note == "" {
		return
	}
	if result.Note == nil || *result.Note == "" {
		result.Note = &note
		return
	}
	merged := *result.Note + "; " + note
	result.Note = &merged
}

// handleReadFile prompts for a file, reads it, and caches the content.
func (r *Router) handleReadFile(ctx context.Context) (types.Outbound, error) {
	path, err := r.host.PickOpenPath(ctx)
	if err != nil {
		return nil, err
	}

	body, err := r.host.ReadFile(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	r.sess.Remember(path, body)
	r.sess.Bus().Publish(event.Event{
		Type: event.FileRead,
		Data: event.FileReadData{SessionID: r.sess.ID, Path: path},
	})

	return types.FileContentMsg{Path: path, Body: body}, nil
}

// handleWriteFile writes the cached body to a newly picked destination.
func (r *Router) handleWriteFile(ctx context.Context) (types.Outbound, error) {
	cached := r.sess.Cached()
	if cached.Body == "" {
		return nil, ErrEmptyInput
	}

	path, err := r.host.PickSavePath(ctx, cached.Path)
	if err != nil {
		return nil, err
	}

	if err := r.host.WriteFile(ctx, path, cached.Body); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}

	r.sess.Remember(path, cached.Body)
	r.sess.Bus().Publish(event.Event{
		Type: event.FileWritten,
		Data: event.FileWrittenData{SessionID: r.sess.ID, Path: path},
	})

	return types.FileWrittenMsg{Path: path, Body: cached.Body}, nil
}

// handleOverwriteFile writes the cached body back to the cached path after
// confirmation, reporting line-diff metadata against the previous content.
func (r *Router) handleOverwriteFile(ctx context.Context) (types.Outbound, error) {
	cached := r.sess.Cached()
	if cached.Path == "" || cached.Body == "" {
		return nil, ErrEmptyInput
	}

	ok, err := r.host.ConfirmOverwrite(ctx, cached.Path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrCancelled
	}

	// Previous content is best-effort; the file may be gone.
	previous, _ := r.host.ReadFile(ctx, cached.Path)
	diff, additions, deletions := diffMetadata(cached.Path, previous, cached.Body)

	if err := r.host.WriteFile(ctx, cached.Path, cached.Body); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", cached.Path, err)
	}

	r.sess.Remember(cached.Path, cached.Body)
	r.sess.Bus().Publish(event.Event{
		Type: event.FileWritten,
		Data: event.FileWrittenData{
			SessionID: r.sess.ID,
			Path:      cached.Path,
			Additions: additions,
			Deletions: deletions,
		},
	})

	return types.FileWrittenMsg{
		Path:      cached.Path,
		Body:      cached.Body,
		Diff:      diff,
		Additions: additions,
		Deletions: deletions,
	}, nil
}

// handleNavigate moves the history cursor and echoes the record there.
func (r *Router) handleNavigate(delta int) types.Outbound {
	record := r.sess.Navigate(delta)
	if record == nil {
		return types.StatusMsg{Message: "History is empty"}
	}
	return types.AnalysisResultMsg{Path: record.SourcePath, Body: record.Result}
}

// handleRunTests runs the remote test suite with configured defaults.
func (r *Router) handleRunTests(ctx context.Context, msg *types.RunTestsMsg) (types.Outbound, error) {
	req := types.RunTestsRequest{
		Repo:       r.cfg.Runner.Repo,
		Path:       msg.Path,
		Extra:      msg.Extra,
		Quiet:      msg.Quiet,
		UseDocker:  r.cfg.Runner.UseDocker,
		TimeoutSec: r.cfg.Runner.TimeoutSec,
	}
	if req.Path == "" {
		req.Path = r.cfg.Runner.TestPath
	}

	result, err := r.client.RunTests(ctx, req)
	if err != nil {
		return nil, err
	}
	return types.RunnerResultMsg{Body: result}, nil
}

// handleRunCommand validates and runs an arbitrary remote command.
func (r *Router) handleRunCommand(ctx context.Context, msg *types.RunCommandMsg) (types.Outbound, error) {
	if err := client.ValidateCommand(msg.Cmd, msg.Shell); err != nil {
		return nil, err
	}

	result, err := r.client.RunCommand(ctx, types.RunCommandRequest{
		Cmd:        msg.Cmd,
		Cwd:        msg.Cwd,
		Shell:      msg.Shell,
		TimeoutSec: r.cfg.Runner.TimeoutSec,
	})
	if err != nil {
		return nil, err
	}
	return types.RunnerResultMsg{Body: result}, nil
}

func (r *Router) maxPayload() int {
	if r.cfg.Backend.MaxPayload > 0 {
		return r.cfg.Backend.MaxPayload
	}
	return types.DefaultMaxPayload
}

func (r *Router) notebookStrategy() string {
	if r.cfg.Backend.NotebookStrategy != "" {
		return r.cfg.Backend.NotebookStrategy
	}
	return types.DefaultNotebookStrategy
}
