package repository

import (
	"context"
	"sort"

	"dispatch-service/internal/model"
	"dispatch-service/internal/rowstore"
)

type PhotoRepository struct {
	store rowstore.Store
}

func NewPhotoRepository(store rowstore.Store) *PhotoRepository {
	return &PhotoRepository{store: store}
}

func (r *PhotoRepository) Create(ctx context.Context, photo *model.Photo) error {
	return r.store.Append(ctx, rowstore.TablePhotos, encodePhoto(photo))
}

// ListByTicket returns a ticket's photos ordered by capture time.
func (r *PhotoRepository) ListByTicket(ctx context.Context, ticketID string) ([]model.Photo, error) {
	rows, err := r.store.Rows(ctx, rowstore.TablePhotos)
	if err != nil {
		return nil, err
	}
	photos := make([]model.Photo, 0, len(rows))
	for _, row := range rows {
		if row["ticket_id"] == ticketID {
			photos = append(photos, decodePhoto(row))
		}
	}
	sort.Slice(photos, func(i, j int) bool {
		return photos[i].CapturedAt.Before(photos[j].CapturedAt)
	})
	return photos, nil
}

func encodePhoto(p *model.Photo) rowstore.Row {
	return rowstore.Row{
		"photo_id":    p.ID,
		"ticket_id":   p.TicketID,
		"job_id":      p.JobID,
		"photo_type":  string(p.PhotoType),
		"url":         p.URL,
		"uploaded_by": p.UploadedBy,
		"notes":       p.Notes,
		"captured_at": formatTime(p.CapturedAt),
	}
}

func decodePhoto(row rowstore.Row) model.Photo {
	return model.Photo{
		ID:         row["photo_id"],
		TicketID:   row["ticket_id"],
		JobID:      row["job_id"],
		PhotoType:  model.PhotoType(row["photo_type"]),
		URL:        row["url"],
		UploadedBy: row["uploaded_by"],
		Notes:      row["notes"],
		CapturedAt: parseTime(row["captured_at"]),
	}
}
