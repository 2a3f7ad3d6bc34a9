package merge

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/scottgpt/career-cli/internal/model"
)

// Lookup loads a position by id. A missing position is (nil, nil).
type Lookup interface {
	GetPosition(ctx context.Context, id string) (*model.Position, error)
}

// SliceLookup serves positions from memory.
type SliceLookup []model.Position

// GetPosition implements Lookup.
func (s SliceLookup) GetPosition(_ context.Context, id string) (*model.Position, error) {
	for i := range s {
		if s[i].ID == id {
			p := s[i].Clone()
			return &p, nil
		}
	}
	return nil, nil
}

// Request identifies the two records to merge.
type Request struct {
	SourceID        string            `json:"sourceId"`
	TargetID        string            `json:"targetId"`
	FieldStrategies map[string]string `json:"fieldStrategies,omitempty"`
}

// Validate checks the request ids.
func (r Request) Validate() error {
	switch {
	case strings.TrimSpace(r.SourceID) == "":
		return model.NewValidationError("sourceId", "is required")
	case strings.TrimSpace(r.TargetID) == "":
		return model.NewValidationError("targetId", "is required")
	case strings.TrimSpace(r.SourceID) == strings.TrimSpace(r.TargetID):
		return model.NewValidationError("targetId", "must differ from sourceId")
	}
	return nil
}

// MergeByID loads both records and merges them. Invalid ids and missing
// records fail before any merge computation.
func (e *Engine) MergeByID(ctx context.Context, lookup Lookup, req Request) (*MergeResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	source, err := load(ctx, lookup, strings.TrimSpace(req.SourceID))
	if err != nil {
		return nil, err
	}
	target, err := load(ctx, lookup, strings.TrimSpace(req.TargetID))
	if err != nil {
		return nil, err
	}

	strategies, warnings := e.Strategies(req.FieldStrategies)
	res := e.Merge(*source, *target, strategies)
	res.Warnings = append(e.Warnings(), warnings...)
	return &res, nil
}

func load(ctx context.Context, lookup Lookup, id string) (*model.Position, error) {
	p, err := lookup.GetPosition(ctx, id)
	if err != nil {
		return nil, eris.Wrapf(err, "merge: load position %s", id)
	}
	if p == nil {
		return nil, model.NewNotFoundError("position", id)
	}
	n := model.NormalizePosition(*p)
	return &n, nil
}
