package router

import (
	"context"
	"errors"

	"github.com/debugmate-ai/debugmate/pkg/types"
)

// ErrCancelled reports that an interactive prompt or picker was dismissed.
// It propagates as a status note, never as an error message, and no session
// state is mutated.
var ErrCancelled = errors.New("cancelled")

// ErrEmptyInput reports that no usable text or path was available from any
// source. The handler aborts before any network call.
var ErrEmptyInput = errors.New("no usable input available")

// Input is live input from the host: the active document or a selection
// within it. A selection carries no meaningful path semantics for analysis.
type Input struct {
	Path      string
	Text      string
	Selection bool
}

// Host is the environment boundary: file pickers, file IO, and interactive
// prompts. Implementations return ErrCancelled when the user dismisses a
// prompt.
type Host interface {
	// ActiveInput returns the current live input, or nil when there is
	// none (no open editor, nothing selected).
	ActiveInput(ctx context.Context) (*Input, error)
	// PickOpenPath prompts for an existing file.
	PickOpenPath(ctx context.Context) (string, error)
	// PickSavePath prompts for a destination, seeded with a suggestion.
	PickSavePath(ctx context.Context, suggested string) (string, error)
	ReadFile(ctx context.Context, path string) (string, error)
	WriteFile(ctx context.Context, path, body string) error
	// ConfirmOverwrite asks before writing over an existing file.
	ConfirmOverwrite(ctx context.Context, path string) (bool, error)
}

// Surface receives outbound messages for presentation. Implementations must
// not block; the router calls Send from handler goroutines.
type Surface interface {
	Send(msg types.Outbound)
}

// SurfaceFunc adapts a function to the Surface interface.
type SurfaceFunc func(msg types.Outbound)

func (f SurfaceFunc) Send(msg types.Outbound) { f(msg) }
