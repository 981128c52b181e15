/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package trivia

import (
	"context"
)

// Presenter draws the board somewhere a player can see it.
type Presenter interface {
	// ShowLoading clears any current board and shows a loading state.
	ShowLoading()
	// RenderBoard draws a freshly built board.
	RenderBoard(b *Board)
	// RenderCell redraws one cell after its clue changed state.
	RenderCell(c Coord, clue Clue)
	// ShowError reports a failed board setup.
	ShowError(err error)
}

// BoardBuilder produces fresh boards; *Sampler is the production one.
type BoardBuilder interface {
	BuildBoard(ctx context.Context) (*Board, error)
}

// Game wires the sampler to a presenter. It keeps no board of its own:
// Start hands back the board and callers pass it to Click.
type Game struct {
	builder   BoardBuilder
	presenter Presenter
}

func NewGame(builder BoardBuilder, presenter Presenter) *Game {
	return &Game{
		builder:   builder,
		presenter: presenter,
	}
}

// Start builds a new board, reporting progress to the presenter.
func (g *Game) Start(ctx context.Context) (*Board, error) {
	g.presenter.ShowLoading()

	board, err := g.builder.BuildBoard(ctx)
	if err != nil {
		g.presenter.ShowError(err)
		return nil, err
	}

	g.presenter.RenderBoard(board)

	return board, nil
}

// Click reveals the next stage of the clue at c and redraws the cell if it
// changed.
func (g *Game) Click(b *Board, c Coord) (changed bool, err error) {
	_, changed, err = b.Reveal(c)
	if err != nil || !changed {
		return false, err
	}

	clue, err := b.Clue(c)
	if err != nil {
		return false, err
	}

	g.presenter.RenderCell(c, *clue)

	return true, nil
}
