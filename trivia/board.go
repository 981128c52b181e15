/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package trivia holds the game logic behind the jeopardy board: the board
// model, the per-clue reveal state machine, the category sampler, and the
// lifecycle controller that drives a Presenter.
package trivia

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfBounds is returned for a Coord that names no cell.
	ErrOutOfBounds = errors.New("cell is outside the board")
	// ErrMalformed is returned when the trivia source sends data missing
	// required fields.
	ErrMalformed = errors.New("malformed response from trivia source")
	// ErrInvalidConfig is returned for board dimensions that cannot be built.
	ErrInvalidConfig = errors.New("invalid board configuration")
)

// Showing tracks how much of a clue has been revealed.
type Showing int

const (
	Unrevealed Showing = iota
	QuestionShown
	AnswerShown
)

func (s Showing) String() string {
	switch s {
	case QuestionShown:
		return "question"
	case AnswerShown:
		return "answer"
	default:
		return "unrevealed"
	}
}

// Hidden is displayed in place of a clue nobody has clicked yet.
const Hidden = "?"

// Clue is one question/answer pair and how much of it has been revealed.
type Clue struct {
	Question string
	Answer   string
	Showing  Showing
}

// Reveal advances the clue one step and returns the text to display.
// Once the answer is showing further calls are no-ops and report
// changed as false.
func (c *Clue) Reveal() (text string, changed bool) {
	switch c.Showing {
	case Unrevealed:
		c.Showing = QuestionShown
		return c.Question, true
	case QuestionShown:
		c.Showing = AnswerShown
		return c.Answer, true
	default:
		return c.Answer, false
	}
}

// Display returns whatever the clue's cell currently shows.
func (c *Clue) Display() string {
	switch c.Showing {
	case QuestionShown:
		return c.Question
	case AnswerShown:
		return c.Answer
	default:
		return Hidden
	}
}

// Category is a titled column of clues.
type Category struct {
	Title string
	Clues []Clue
}

// Board is the full set of categories for one game session.
type Board struct {
	Categories []Category
}

// Coord addresses a cell: Column picks the category, Row the clue within it.
type Coord struct {
	Column int
	Row    int
}

func (c Coord) String() string {
	return fmt.Sprintf("(%d,%d)", c.Column, c.Row)
}

// Clue returns a pointer to the clue at c, so callers can transition it in place.
func (b *Board) Clue(c Coord) (*Clue, error) {
	if b == nil || c.Column < 0 || c.Column >= len(b.Categories) {
		return nil, fmt.Errorf("%w: %s", ErrOutOfBounds, c)
	}

	clues := b.Categories[c.Column].Clues
	if c.Row < 0 || c.Row >= len(clues) {
		return nil, fmt.Errorf("%w: %s", ErrOutOfBounds, c)
	}

	return &clues[c.Row], nil
}

// Reveal runs the reveal transition for the clue at c.
func (b *Board) Reveal(c Coord) (text string, changed bool, err error) {
	clue, err := b.Clue(c)
	if err != nil {
		return "", false, err
	}

	text, changed = clue.Reveal()

	return text, changed, nil
}

// Validate reports whether the board has the given shape and every clue is
// still unrevealed, which is how a freshly built board must look.
func (b *Board) Validate(categories, clues int) error {
	if len(b.Categories) != categories {
		return fmt.Errorf("%w: have %d categories, want %d", ErrInvalidConfig, len(b.Categories), categories)
	}

	for i, cat := range b.Categories {
		if len(cat.Clues) != clues {
			return fmt.Errorf("%w: category %d has %d clues, want %d", ErrInvalidConfig, i, len(cat.Clues), clues)
		}
		for j, clue := range cat.Clues {
			if clue.Showing != Unrevealed {
				return fmt.Errorf("%w: clue %s already %s", ErrInvalidConfig, Coord{Column: i, Row: j}, clue.Showing)
			}
		}
	}

	return nil
}
