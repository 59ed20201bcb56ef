package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const JobTypeExportManifest = "export:manifest"

type ExportManifestJobPayload struct {
	ProjectID uuid.UUID `json:"project_id"`
}

type ExportManifestResult struct {
	Path    string `json:"path"`
	Name    string `json:"name"`
	Size    int    `json:"size"`
	URL     string `json:"url,omitempty"`
	Objects int    `json:"objects"`
	Dropped int    `json:"dropped"`
}

// SceneManifest renders the live scene as CSV.
func (u Usecase) SceneManifest(ctx context.Context, sceneID uuid.UUID) ([]byte, error) {
	scene, err := u.GetScene(ctx, sceneID)
	if err != nil {
		return nil, err
	}
	return generateManifestCSV(scene.Instances())
}

// ExportProjectManifest queues a manifest export of a saved project and
// returns the job id.
func (u Usecase) ExportProjectManifest(ctx context.Context, projectID uuid.UUID) (string, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return "", err
	}
	if _, err := u.ownedProject(ctx, projectID, userID); err != nil {
		return "", err
	}

	b, err := json.Marshal(ExportManifestJobPayload{ProjectID: projectID})
	if err != nil {
		return "", err
	}
	job, err := u.createJob(ctx, Job{
		Type:    JobTypeExportManifest,
		OwnerID: userID,
		Status:  JobStatusPending,
		Payload: b,
	})
	if err != nil {
		return "", err
	}
	return job.ID.String(), nil
}

func (u Usecase) ProcessExportManifestJob(ctx context.Context, jobID uuid.UUID) error {
	return u.runJob(ctx, jobID, u.executeManifestExport)
}

func (u Usecase) executeManifestExport(ctx context.Context, job Job) ([]byte, error) {
	var payload ExportManifestJobPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse job payload: %w", err)
	}

	p, err := u.ownedProject(ctx, payload.ProjectID, job.OwnerID)
	if err != nil {
		return nil, err
	}
	instances, report, err := u.rehydrate(ctx, p)
	if err != nil {
		return nil, err
	}
	data, err := generateManifestCSV(instances)
	if err != nil {
		return nil, err
	}

	name := fmt.Sprintf("manifest-%s-%s.csv", p.ID.String()[:8], time.Now().Format("20060102-150405"))
	path := job.OwnerID.String() + "/exports/" + name
	if err := u.fileStorageProvider.UploadFile(ctx, path, data); err != nil {
		return nil, fmt.Errorf("failed to upload manifest: %w", err)
	}

	res := ExportManifestResult{
		Path:    path,
		Name:    name,
		Size:    len(data),
		Objects: report.Kept,
		Dropped: len(report.Dropped),
	}
	if url, err := u.fileStorageProvider.GetPresignedURL(ctx, path); err != nil {
		u.logger.WarnContext(ctx, "failed to presign manifest url",
			slog.String("path", path),
			slog.Any("error", err))
	} else {
		res.URL = url
	}
	return json.Marshal(res)
}

var manifestHeader = []string{
	"Instance ID", "Asset ID", "Catalog", "Name", "Category",
	"Position X", "Position Y", "Position Z",
	"Rotation X", "Rotation Y", "Rotation Z",
	"Scale X", "Scale Y", "Scale Z",
	"Color", "Texture",
}

func generateManifestCSV(instances []PlacedInstance) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(manifestHeader); err != nil {
		return nil, err
	}

	for _, inst := range instances {
		t := inst.Transform
		row := []string{
			inst.InstanceID,
			inst.Ref.AssetID,
			string(inst.Ref.Catalog),
			inst.Asset.Name,
			inst.Asset.Category,
		}
		for _, v := range [][3]float64{t.Position, t.Rotation, t.Scale} {
			for _, f := range v {
				row = append(row, strconv.FormatFloat(f, 'f', -1, 64))
			}
		}
		var color, texture string
		if m := inst.CustomMaterial; m != nil {
			color, texture = m.Color, m.Texture
		}
		row = append(row, color, texture)
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
