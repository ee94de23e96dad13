package store

import (
	"context"

	"github.com/amishk599/jobsweep/internal/model"
)

var _ model.RunArchive = (*NopStore)(nil)

// NopStore is the archive used when no database is configured and in check
// mode. It keeps nothing.
type NopStore struct{}

func NewNopStore() *NopStore { return &NopStore{} }

func (s *NopStore) SaveRun(context.Context, model.RunSummary) error { return nil }
func (s *NopStore) RecentRuns(context.Context, int) ([]model.RunSummary, error) {
	return nil, nil
}
func (s *NopStore) Close() error { return nil }
