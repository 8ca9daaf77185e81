package model

import (
	"time"

	"github.com/google/uuid"
)

type PhotoType string

const (
	PhotoTypeLoad      PhotoType = "load"
	PhotoTypeDelivery  PhotoType = "delivery"
	PhotoTypeQC        PhotoType = "qc"
	PhotoTypeDamage    PhotoType = "damage"
	PhotoTypeSignature PhotoType = "signature"
)

// Photo is an evidentiary attachment. Records are append-only; there is no
// delete path in this service.
type Photo struct {
	ID         string    `json:"photo_id"`
	TicketID   string    `json:"ticket_id"`
	JobID      string    `json:"job_id,omitempty"`
	PhotoType  PhotoType `json:"photo_type"`
	URL        string    `json:"url"`
	UploadedBy string    `json:"uploaded_by,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	CapturedAt time.Time `json:"captured_at"`
}

func NewPhotoID() string {
	return "PH-" + uuid.NewString()
}
