// Package store persists positions and merge operations.
package store

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/scottgpt/career-cli/internal/merge"
	"github.com/scottgpt/career-cli/internal/mergeops"
	"github.com/scottgpt/career-cli/internal/model"
)

// PositionFilter narrows ListPositions. A zero Limit returns every match.
type PositionFilter struct {
	Org    string `json:"org,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for positions and merge operations.
type Store interface {
	// Positions
	ListPositions(ctx context.Context, filter PositionFilter) ([]model.Position, error)
	GetPosition(ctx context.Context, id string) (*model.Position, error)
	UpsertPositions(ctx context.Context, positions []model.Position) (int, error)
	UpdatePosition(ctx context.Context, p model.Position, mergeSourceID string) error
	DeletePosition(ctx context.Context, id string) error

	// Merge operations
	mergeops.StatusStore

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

func marshalSkills(skills []string) ([]byte, error) {
	if skills == nil {
		skills = []string{}
	}
	b, err := json.Marshal(skills)
	return b, eris.Wrap(err, "store: marshal skills")
}

func unmarshalSkills(data []byte) ([]string, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var skills []string
	if err := json.Unmarshal(data, &skills); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal skills")
	}
	if len(skills) == 0 {
		return nil, nil
	}
	return skills, nil
}

func marshalResult(op mergeops.Operation) ([]byte, error) {
	if op.Result == nil {
		return nil, nil
	}
	b, err := json.Marshal(op.Result)
	return b, eris.Wrap(err, "store: marshal merge result")
}

func unmarshalResult(data []byte, op *mergeops.Operation) error {
	if len(data) == 0 {
		return nil
	}
	op.Result = new(merge.MergeResult)
	return eris.Wrap(json.Unmarshal(data, op.Result), "store: unmarshal merge result")
}

type scannable interface {
	Scan(dest ...any) error
}

func scanPosition(row scannable) (*model.Position, error) {
	var p model.Position
	var skills []byte
	if err := row.Scan(&p.ID, &p.Title, &p.Org, &p.DateStart, &p.DateEnd, &skills, &p.Description, &p.Location); err != nil {
		return nil, err
	}
	var err error
	if p.Skills, err = unmarshalSkills(skills); err != nil {
		return nil, err
	}
	return &p, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
