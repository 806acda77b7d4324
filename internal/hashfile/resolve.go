package hashfile

import (
	"context"
	"fmt"

	"github.com/whtech/woleet-weblibs/internal/woleet"
)

type resolveConfig struct {
	progress Callback
	opts     []Option
}

type ResolveOption func(*resolveConfig)

// WithProgress forwards progress events of the hashed file to cb.
func WithProgress(cb Callback) ResolveOption {
	return func(c *resolveConfig) { c.progress = cb }
}

// WithHasherOptions configures the Hasher created for a file input.
func WithHasherOptions(opts ...Option) ResolveOption {
	return func(c *resolveConfig) { c.opts = append(c.opts, opts...) }
}

// Resolve normalizes input into a hex SHA-256 digest. A File is hashed with
// a fresh Hasher; a string is accepted unchanged when it is a SHA-256 hex
// digest. Anything else fails with ErrInvalidParameter.
//
// ctx bounds the wait only. A hash already started keeps running to
// completion.
func Resolve(ctx context.Context, input any, opts ...ResolveOption) (string, error) {
	var cfg resolveConfig
	for _, o := range opts {
		o(&cfg)
	}

	switch v := input.(type) {
	case string:
		if !woleet.IsSHA256(v) {
			return "", ErrNotASha256Hash
		}
		return v, nil

	case File:
		return resolveFile(ctx, v, cfg)

	default:
		return "", fmt.Errorf("%w: %T", ErrInvalidParameter, input)
	}
}

func resolveFile(ctx context.Context, f File, cfg resolveConfig) (string, error) {
	type outcome struct {
		digest string
		err    error
	}
	settled := make(chan outcome, 1)

	h := NewHasher(cfg.opts...)
	_ = h.On(EventResult, func(e Event) {
		// the sink always sees completion, even for an empty file
		if cfg.progress != nil {
			cfg.progress(Event{Kind: EventProgress, File: e.File, Progress: 1})
		}
		settled <- outcome{digest: e.Digest}
	})
	_ = h.On(EventError, func(e Event) { settled <- outcome{err: e.Err} })
	if cfg.progress != nil {
		_ = h.On(EventProgress, cfg.progress)
	}

	if _, err := h.Start(f); err != nil {
		return "", err
	}

	select {
	case o := <-settled:
		return o.digest, o.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
