package exchange

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"sync/atomic"

	"github.com/baalimago/metai/internal/decode"
	"github.com/baalimago/metai/internal/media"
	"github.com/baalimago/metai/internal/models"
	"github.com/baalimago/metai/internal/transport"
)

// SendStream sends text and returns the reply as a lazy, single pass sequence
// of enriched results. The first line is read eagerly and only checked: an
// error envelope or a malformed first line is retried before anything is
// handed to the caller, a valid one is dropped. Once the sequence is returned,
// failures are yielded and never retried.
func (e *Exchanger) SendStream(ctx context.Context, text string, newConversation bool) (iter.Seq2[models.Result, error], error) {
	if text == "" {
		return nil, models.ErrEmptyMessage
	}
	var ls *transport.LineStream
	err := e.retry.Do(ctx, func(ctx context.Context, n int) error {
		out, err := e.prepare(ctx, text, newConversation && n == 0)
		if err != nil {
			return err
		}
		stream, err := out.session.PostLines(ctx, out.target, out.header, out.form)
		if err != nil {
			return fmt.Errorf("failed to send message: %w", err)
		}
		if err := checkFirstLine(stream); err != nil {
			stream.Close()
			return err
		}
		ls = stream
		return nil
	})
	if err != nil {
		return nil, err
	}
	return e.events(ctx, ls), nil
}

// checkFirstLine consumes the first non-blank line and errors if it's an error
// envelope or not a json object.
func checkFirstLine(ls *transport.LineStream) error {
	for ls.Next() {
		line := ls.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		isErr, err := decode.IsErrorEnvelope(line)
		if err != nil {
			return fmt.Errorf("%w: %w", models.ErrDecode, err)
		}
		if isErr {
			return fmt.Errorf("%w: reply starts with an error envelope: %v", models.ErrDecode, line)
		}
		return nil
	}
	if err := ls.Err(); err != nil {
		return fmt.Errorf("%w: %w", models.ErrDecode, err)
	}
	return fmt.Errorf("%w: empty reply", models.ErrDecode)
}

func (e *Exchanger) events(ctx context.Context, ls *transport.LineStream) iter.Seq2[models.Result, error] {
	var consumed atomic.Bool
	return func(yield func(models.Result, error) bool) {
		if consumed.Swap(true) {
			yield(models.Result{}, ErrStreamConsumed)
			return
		}
		defer ls.Close()
		// Partial events repeat the fetch handle. Empty lookups aren't cached,
		// references may not be ready yet.
		sourceCache := make(map[string][]models.Reference)
		emit := func(line string) bool {
			ev, ok := decode.DecodeLine(line)
			if !ok {
				return true
			}
			e.observe(ev)
			if ev.Text == "" {
				return true
			}
			refs, ok := sourceCache[ev.FetchID]
			if !ok {
				refs = e.resolver.Fetch(ctx, ev.FetchID)
				if len(refs) > 0 {
					sourceCache[ev.FetchID] = refs
				}
			}
			return yield(models.Result{
				Message: ev.Text,
				Sources: refs,
				Media:   media.Extract(ev.ImagineCard),
			}, nil)
		}
		for ls.Next() {
			if err := ctx.Err(); err != nil {
				yield(models.Result{}, err)
				return
			}
			if !emit(ls.Text()) {
				return
			}
		}
		if err := ls.Err(); err != nil {
			yield(models.Result{}, err)
		}
	}
}
