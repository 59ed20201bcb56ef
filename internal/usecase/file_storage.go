package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// GetExportURL presigns the file of a finished export again. The URL stored
// on the job stops working once it expires.
func (u Usecase) GetExportURL(ctx context.Context, jobID uuid.UUID) (string, error) {
	job, err := u.GetJobByID(ctx, jobID)
	if err != nil {
		return "", err
	}
	if job.Type != JobTypeExportManifest || job.Status != JobStatusCompleted {
		return "", fmt.Errorf("%w: job %s is %s", ErrExportNotReady, jobID, job.Status)
	}

	var res ExportManifestResult
	if err := json.Unmarshal(job.Result, &res); err != nil {
		return "", fmt.Errorf("parse job %s result: %w", jobID, err)
	}
	if res.Path == "" {
		return "", fmt.Errorf("%w: job %s recorded no file", ErrExportNotReady, jobID)
	}

	url, err := u.fileStorageProvider.GetPresignedURL(ctx, res.Path)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", res.Path, err)
	}
	return url, nil
}
