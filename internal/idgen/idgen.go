// Package idgen produces student identifiers.
//
// Two strategies exist. The sequence strategy formats the next value of
// an atomic store counter (STU-000001, STU-000002, ...). The uuid
// strategy appends a random v4 UUID to the prefix and needs no store
// round trip.
package idgen

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/aanand-mishra/student-registry/internal/storage"
)

// Strategy names accepted by New.
const (
	StrategySequence = "sequence"
	StrategyUUID     = "uuid"
)

// DefaultPrefix is prepended to every generated identifier.
const DefaultPrefix = "STU-"

// Generator produces a new identifier on every call.
type Generator interface {
	NextID(ctx context.Context) (string, error)
}

// Sequence formats values of a store-backed counter.
type Sequence struct {
	seq    storage.Sequence
	name   string
	prefix string
}

// NewSequence returns a generator backed by the named counter in seq.
func NewSequence(seq storage.Sequence, name, prefix string) *Sequence {
	return &Sequence{seq: seq, name: name, prefix: prefix}
}

func (g *Sequence) NextID(ctx context.Context) (string, error) {
	n, err := g.seq.Next(ctx, g.name)
	if err != nil {
		return "", fmt.Errorf("idgen: next %s: %w", g.name, err)
	}
	return fmt.Sprintf("%s%06d", g.prefix, n), nil
}

// UUID generates random identifiers.
type UUID struct {
	prefix string
}

func NewUUID(prefix string) *UUID {
	return &UUID{prefix: prefix}
}

func (g *UUID) NextID(context.Context) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("idgen: uuid: %w", err)
	}
	return g.prefix + id.String(), nil
}

// New builds the generator named by strategy. An empty strategy selects
// the sequence generator.
func New(strategy, prefix string, seq storage.Sequence) (Generator, error) {
	switch strategy {
	case "", StrategySequence:
		return NewSequence(seq, storage.StudentSequence, prefix), nil
	case StrategyUUID:
		return NewUUID(prefix), nil
	default:
		return nil, fmt.Errorf("idgen: unknown strategy %q", strategy)
	}
}
