// Package router dispatches tagged messages from the presentation surface
// to their handlers and emits result, status, and error messages back.
//
// Each message is handled in its own goroutine: while one handler awaits
// remote I/O the router keeps accepting messages, so handler completion
// order is not guaranteed to match delivery order. Two analyze operations in
// flight at once may therefore push their history entries in either order;
// there is no cancellation of in-flight requests. This race is inherited
// from the session model and deliberately left as is.
package router

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/debugmate-ai/debugmate/internal/client"
	"github.com/debugmate-ai/debugmate/internal/event"
	"github.com/debugmate-ai/debugmate/internal/logging"
	"github.com/debugmate-ai/debugmate/internal/session"
	"github.com/debugmate-ai/debugmate/pkg/types"
)

// Router wires one session to its collaborators.
type Router struct {
	sess    *session.Session
	client  *client.Client
	host    Host
	surface Surface
	cfg     *types.Config
	log     zerolog.Logger

	wg sync.WaitGroup
}

// New creates a router for a session.
func New(sess *session.Session, c *client.Client, host Host, surface Surface, cfg *types.Config) *Router {
	return &Router{
		sess:    sess,
		client:  c,
		host:    host,
		surface: surface,
		cfg:     cfg,
		log:     logging.Component("router").With().Str("sessionID", sess.ID).Logger(),
	}
}

// Dispatch begins handling a message and returns immediately. Failures never
// escape: any error or panic inside a handler becomes an error message to
// the surface, and session state is only mutated after a handler fully
// succeeds.
func (r *Router) Dispatch(ctx context.Context, msg types.Inbound) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				r.log.Error().Interface("panic", rec).Str("tag", msg.Tag()).Msg("handler panicked")
				r.send(types.ErrorMsg{Message: fmt.Sprintf("internal error handling %q", msg.Tag())})
			}
		}()
		r.handle(ctx, msg)
	}()
}

// Wait blocks until all in-flight handlers have completed.
func (r *Router) Wait() {
	r.wg.Wait()
}

// handle runs one handler to completion and emits the reply. The type
// switch is exhaustive over the closed inbound message set.
func (r *Router) handle(ctx context.Context, msg types.Inbound) {
	var reply types.Outbound
	var err error

	switch m := msg.(type) {
	case *types.AnalyzeMsg:
		reply, err = r.handleAnalyze(ctx, m.SendPath)
	case *types.AnalyzeActiveMsg:
		reply, err = r.handleAnalyzeActive(ctx, m.SendPath)
	case *types.ReadFileMsg:
		reply, err = r.handleReadFile(ctx)
	case *types.WriteFileMsg:
		reply, err = r.handleWriteFile(ctx)
	case *types.OverwriteFileMsg:
		reply, err = r.handleOverwriteFile(ctx)
	case *types.HistoryPrevMsg:
		reply = r.handleNavigate(-1)
	case *types.HistoryNextMsg:
		reply = r.handleNavigate(1)
	case *types.ClearHistoryMsg:
		r.sess.ClearHistory()
		reply = types.StatusMsg{Message: "History cleared"}
	case *types.RunTestsMsg:
		reply, err = r.handleRunTests(ctx, m)
	case *types.RunCommandMsg:
		reply, err = r.handleRunCommand(ctx, m)
	case *types.UnknownMsg:
		reply = types.StatusMsg{Message: fmt.Sprintf("Unknown message %q", m.RawTag)}
	default:
		// The inbound set is closed; this is unreachable short of a
		// missing case above.
		reply = types.StatusMsg{Message: fmt.Sprintf("Unknown message %q", msg.Tag())}
	}

	switch {
	case err == nil:
		r.send(reply)
	case isCancelled(err):
		r.send(types.StatusMsg{Message: "Cancelled"})
	default:
		r.log.Warn().Err(err).Str("tag", msg.Tag()).Msg("handler failed")
		r.send(types.ErrorMsg{Message: err.Error()})
	}
}

// send delivers a message to the surface and mirrors it on the event bus for
// bridge consumers.
func (r *Router) send(msg types.Outbound) {
	r.surface.Send(msg)
	r.sess.Bus().Publish(event.Event{
		Type: event.MessageOutbound,
		Data: event.MessageOutboundData{SessionID: r.sess.ID, Message: msg},
	})
}
