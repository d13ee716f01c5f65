package result

import (
	"time"

	"github.com/google/uuid"
)

type ProjectResult struct {
	ID              uuid.UUID
	ProjectID       uuid.UUID
	UploadedBy      uuid.UUID
	FileName        string
	FileURL         string
	FileType        string
	ObjectKey       string
	SizeBytes       int64
	IsClientVisible bool
	UploadedAt      time.Time
}

type CreateResultInput struct {
	ProjectID       uuid.UUID
	UploadedBy      uuid.UUID
	FileName        string
	FileURL         string
	FileType        string
	ObjectKey       string
	SizeBytes       int64
	IsClientVisible bool
}
