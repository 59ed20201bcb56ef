package usecase

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSceneManifest(t *testing.T) {
	f := newFixture()
	scene, _ := f.uc.OpenScene(f.ctx)
	a, _ := scene.AddInstance(f.ctx, sofa.ID)
	scene.AddInstance(f.ctx, door.ID)
	scene.SetMaterial(a.InstanceID, Material{Color: "#ff0000"})

	data, err := f.uc.SceneManifest(f.ctx, scene.ID())
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, manifestHeader, rows[0])
	assert.Equal(t, []string{
		a.InstanceID, sofa.ID, "Model3D", "Sofa", "seating",
		"0", "0.5", "0",
		"0", "0", "0",
		"1", "1", "1",
		"#ff0000", "",
	}, rows[1])
	assert.Equal(t, "Component", rows[2][2])

	_, err = f.uc.SceneManifest(f.asUser(uuid.New()), scene.ID())
	assert.ErrorIs(t, err, ErrAuthorization)
}

func TestExportProjectManifest(t *testing.T) {
	f := newFixture()
	scene, _ := f.uc.OpenScene(f.ctx)
	scene.AddInstance(f.ctx, sofa.ID)
	scene.AddInstance(f.ctx, lamp.ID)
	p, _, err := f.uc.SaveScene(f.ctx, scene, SaveProjectRequest{Name: "export"})
	require.NoError(t, err)

	jobID, err := f.uc.ExportProjectManifest(f.ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, f.queue.sent, 1)
	assert.Equal(t, JobTypeExportManifest, f.queue.sent[0].Type)
	assert.Equal(t, jobID, f.queue.sent[0].JobID.String())

	job, err := f.uc.GetJobByID(f.ctx, f.queue.sent[0].JobID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusPending, job.Status)

	f.models.remove(lamp.ID)
	require.NoError(t, f.uc.ProcessExportManifestJob(f.ctx, job.ID))

	job, err = f.uc.GetJobByID(f.ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.NotNil(t, job.StartedAt)
	assert.NotNil(t, job.FinishedAt)

	var res ExportManifestResult
	require.NoError(t, json.Unmarshal(job.Result, &res))
	assert.Equal(t, 1, res.Objects)
	assert.Equal(t, 1, res.Dropped)
	assert.True(t, strings.HasPrefix(res.Path, f.userID.String()+"/exports/manifest-"))
	assert.Equal(t, "https://files.test/"+res.Path, res.URL)

	uploaded := f.storage.files[res.Path]
	assert.Equal(t, len(uploaded), res.Size)
	assert.Contains(t, string(uploaded), "Sofa")
	assert.NotContains(t, string(uploaded), "Lamp")

	_, err = f.uc.GetJobByID(f.asUser(uuid.New()), job.ID)
	assert.ErrorIs(t, err, ErrAuthorization)
}

func TestExportProjectManifestUploadFails(t *testing.T) {
	f := newFixture()
	scene, _ := f.uc.OpenScene(f.ctx)
	scene.AddInstance(f.ctx, sofa.ID)
	p, _, _ := f.uc.SaveScene(f.ctx, scene, SaveProjectRequest{Name: "export"})

	_, err := f.uc.ExportProjectManifest(f.ctx, p.ID)
	require.NoError(t, err)
	f.storage.err = errBoom

	jobID := f.queue.sent[0].JobID
	err = f.uc.ProcessExportManifestJob(f.ctx, jobID)
	assert.ErrorIs(t, err, errBoom)

	job, _ := f.repo.GetJobByID(f.ctx, jobID)
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Contains(t, job.Error, "boom")
}

func TestExportProjectManifestEnqueueFails(t *testing.T) {
	f := newFixture()
	p, _ := f.repo.CreateProject(f.ctx, Project{OwnerID: f.userID, Name: "p", Version: 1})
	f.queue.err = errBoom

	_, err := f.uc.ExportProjectManifest(f.ctx, p.ID)
	assert.ErrorIs(t, err, errBoom)

	require.Len(t, f.repo.jobs, 1)
	for _, j := range f.repo.jobs {
		assert.Equal(t, JobStatusFailed, j.Status)
	}
}

func TestGetExportURL(t *testing.T) {
	f := newFixture()
	scene, _ := f.uc.OpenScene(f.ctx)
	scene.AddInstance(f.ctx, sofa.ID)
	p, _, err := f.uc.SaveScene(f.ctx, scene, SaveProjectRequest{Name: "download"})
	require.NoError(t, err)

	id, err := f.uc.ExportProjectManifest(f.ctx, p.ID)
	require.NoError(t, err)
	jobID := uuid.MustParse(id)

	_, err = f.uc.GetExportURL(f.ctx, jobID)
	assert.ErrorIs(t, err, ErrExportNotReady)

	require.NoError(t, f.uc.ProcessExportManifestJob(f.ctx, jobID))

	url, err := f.uc.GetExportURL(f.ctx, jobID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://files.test/"+f.userID.String()+"/exports/"))

	_, err = f.uc.GetExportURL(f.asUser(uuid.New()), jobID)
	assert.ErrorIs(t, err, ErrAuthorization)
}
