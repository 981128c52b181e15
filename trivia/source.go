/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package trivia

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// RawClue is a question/answer pair as the trivia source returns it.
type RawClue struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// RawCategory is a category with its entire clue pool.
type RawCategory struct {
	Title string    `json:"title"`
	Clues []RawClue `json:"clues"`
}

// Source is the remote trivia service.
type Source interface {
	CategoryIDs(ctx context.Context, count int) ([]int, error)
	Category(ctx context.Context, id int) (RawCategory, error)
}

// HTTPSource talks to a jService-compatible API:
//
//	GET {base}/categories?count=N -> [{"id": 1}, ...]
//	GET {base}/category?id=ID     -> {"title": "...", "clues": [{"question": "...", "answer": "..."}]}
type HTTPSource struct {
	base   string
	client *http.Client
}

func NewHTTPSource(baseURL string, client *http.Client) (*HTTPSource, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api url must be http or https: %q", baseURL)
	}

	if client == nil {
		client = http.DefaultClient
	}

	return &HTTPSource{
		base:   strings.TrimSuffix(baseURL, "/"),
		client: client,
	}, nil
}

func (s *HTTPSource) CategoryIDs(ctx context.Context, count int) ([]int, error) {
	var entries []struct {
		ID *int `json:"id"`
	}

	q := url.Values{}
	q.Set("count", strconv.Itoa(count))

	if err := s.getJSON(ctx, "/categories?"+q.Encode(), &entries); err != nil {
		return nil, fmt.Errorf("fetch categories: %w", err)
	}

	ids := make([]int, 0, len(entries))
	for i, e := range entries {
		if e.ID == nil {
			return nil, fmt.Errorf("fetch categories: %w: entry %d has no id", ErrMalformed, i)
		}
		ids = append(ids, *e.ID)
	}

	return ids, nil
}

func (s *HTTPSource) Category(ctx context.Context, id int) (RawCategory, error) {
	var wire struct {
		Title *string `json:"title"`
		Clues []struct {
			Question *string `json:"question"`
			Answer   *string `json:"answer"`
		} `json:"clues"`
	}

	q := url.Values{}
	q.Set("id", strconv.Itoa(id))

	if err := s.getJSON(ctx, "/category?"+q.Encode(), &wire); err != nil {
		return RawCategory{}, fmt.Errorf("fetch category %d: %w", id, err)
	}

	if wire.Title == nil {
		return RawCategory{}, fmt.Errorf("fetch category %d: %w: no title", id, ErrMalformed)
	}

	cat := RawCategory{
		Title: *wire.Title,
		Clues: make([]RawClue, 0, len(wire.Clues)),
	}
	for i, c := range wire.Clues {
		if c.Question == nil || c.Answer == nil {
			return RawCategory{}, fmt.Errorf("fetch category %d: %w: clue %d lacks a question or answer", id, ErrMalformed, i)
		}
		cat.Clues = append(cat.Clues, RawClue{Question: *c.Question, Answer: *c.Answer})
	}

	return cat, nil
}

func (s *HTTPSource) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.base+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return nil
}
