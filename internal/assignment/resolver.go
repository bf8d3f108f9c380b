// Package assignment resolves which project context owns a device tag at a
// point in time. Resolution is a read-only point lookup; an absent result is
// a normal outcome (the segmenter buckets such events under the sentinel
// key), never an error.
package assignment

import (
	"context"
	"strings"
	"time"

	"worklens/aggregator/internal/assignment/domain"
)

// FallbackDeviceTag is used when an event carries an empty device tag.
const FallbackDeviceTag = "unknown-device"

// Repository is the minimal assignment store needed by the resolver.
type Repository interface {
	FindActiveByTagAndTime(ctx context.Context, deviceTag string, at time.Time) (*domain.Assignment, error)
}

// NormalizeDeviceTag lowercases the tag and replaces every character outside
// [a-z0-9-] with '-'. An empty (or all-whitespace) tag falls back to
// FallbackDeviceTag. The same normalization is applied wherever a tag is used
// as a lookup key or stored, so it must stay deterministic.
func NormalizeDeviceTag(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return FallbackDeviceTag
	}
	tag = strings.ToLower(tag)
	var b strings.Builder
	b.Grow(len(tag))
	for _, r := range tag {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

// Resolver answers "which project owned this device tag at this instant".
type Resolver struct {
	repo Repository
}

// NewResolver returns a resolver backed by the given assignment store.
func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve returns the assignment covering the instant, or (nil, nil) when no
// assignment covers it. The tag is normalized before lookup; passing an
// already-normalized tag is fine since normalization is idempotent.
func (r *Resolver) Resolve(ctx context.Context, deviceTag string, at time.Time) (*domain.Assignment, error) {
	return r.repo.FindActiveByTagAndTime(ctx, NormalizeDeviceTag(deviceTag), at)
}
