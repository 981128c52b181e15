/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package trivia

import (
	"context"
	"fmt"
	"math/rand"
)

const (
	DefaultCategories = 6
	DefaultClues      = 5
	DefaultPoolSize   = 100
)

// Rand is the subset of *rand.Rand the sampler draws from.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.Intn(n) }

// Sampler turns a Source into boards of Categories columns by Clues rows.
//
// Both category ids and clues are drawn uniformly with replacement, so a
// board may repeat a category and a category may repeat a clue.
type Sampler struct {
	Source     Source
	Categories int
	Clues      int
	PoolSize   int
	Rand       Rand
}

func NewSampler(src Source, categories, clues, poolSize int) (*Sampler, error) {
	s := &Sampler{
		Source:     src,
		Categories: categories,
		Clues:      clues,
		PoolSize:   poolSize,
	}

	if err := s.validate(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Sampler) validate() error {
	switch {
	case s.Source == nil:
		return fmt.Errorf("%w: no trivia source", ErrInvalidConfig)
	case s.Categories < 1:
		return fmt.Errorf("%w: categories must be positive, got %d", ErrInvalidConfig, s.Categories)
	case s.Clues < 1:
		return fmt.Errorf("%w: clues must be positive, got %d", ErrInvalidConfig, s.Clues)
	case s.PoolSize < 1:
		return fmt.Errorf("%w: category pool must be positive, got %d", ErrInvalidConfig, s.PoolSize)
	}

	return nil
}

func (s *Sampler) intn(n int) int {
	if s.Rand == nil {
		return globalRand{}.IntN(n)
	}
	return s.Rand.IntN(n)
}

// SelectCategoryIDs draws s.Categories ids from a pool of up to s.PoolSize
// candidates fetched from the source.
func (s *Sampler) SelectCategoryIDs(ctx context.Context) ([]int, error) {
	pool, err := s.Source.CategoryIDs(ctx, s.PoolSize)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("%w: empty category pool", ErrMalformed)
	}

	ids := make([]int, s.Categories)
	for i := range ids {
		ids[i] = pool[s.intn(len(pool))]
	}

	return ids, nil
}

// BuildCategory fetches category id and samples s.Clues clues from it, all
// unrevealed.
func (s *Sampler) BuildCategory(ctx context.Context, id int) (Category, error) {
	raw, err := s.Source.Category(ctx, id)
	if err != nil {
		return Category{}, err
	}
	if raw.Title == "" {
		return Category{}, fmt.Errorf("%w: category %d has no title", ErrMalformed, id)
	}
	if len(raw.Clues) == 0 {
		return Category{}, fmt.Errorf("%w: category %d has no clues", ErrMalformed, id)
	}

	clues := make([]Clue, s.Clues)
	for i := range clues {
		picked := raw.Clues[s.intn(len(raw.Clues))]
		clues[i] = Clue{
			Question: picked.Question,
			Answer:   picked.Answer,
		}
	}

	return Category{Title: raw.Title, Clues: clues}, nil
}

// BuildBoard assembles a fresh board. Categories are fetched one after
// another, never in parallel. The first failure aborts the whole board;
// nothing partial is returned.
func (s *Sampler) BuildBoard(ctx context.Context) (*Board, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	ids, err := s.SelectCategoryIDs(ctx)
	if err != nil {
		return nil, err
	}

	board := &Board{Categories: make([]Category, 0, len(ids))}
	for _, id := range ids {
		cat, err := s.BuildCategory(ctx, id)
		if err != nil {
			return nil, err
		}
		board.Categories = append(board.Categories, cat)
	}

	return board, nil
}
