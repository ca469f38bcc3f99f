package server

import (
	"context"
	"os"

	"github.com/debugmate-ai/debugmate/internal/router"
)

// HeadlessHost is the Host implementation for bridge-driven sessions. There
// is no interactive surface behind the HTTP API, so pickers report
// cancellation and overwrites are taken as already confirmed by the caller.
type HeadlessHost struct{}

func (HeadlessHost) ActiveInput(ctx context.Context) (*router.Input, error) {
	return nil, nil
}

func (HeadlessHost) PickOpenPath(ctx context.Context) (string, error) {
	return "", router.ErrCancelled
}

func (HeadlessHost) PickSavePath(ctx context.Context, suggested string) (string, error) {
	if suggested == "" {
		return "", router.ErrCancelled
	}
	return suggested, nil
}

func (HeadlessHost) ReadFile(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (HeadlessHost) WriteFile(ctx context.Context, path, body string) error {
	return os.WriteFile(path, []byte(body), 0644)
}

func (HeadlessHost) ConfirmOverwrite(ctx context.Context, path string) (bool, error) {
	return true, nil
}
