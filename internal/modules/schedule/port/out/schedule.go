package out

import (
	"context"

	"meetcap/internal/modules/schedule/domain"
)

type ScheduleStore interface {
	// Load returns every entry; a missing file is an empty list.
	Load(ctx context.Context) ([]domain.Entry, error)
	Save(ctx context.Context, entries []domain.Entry) error
}
