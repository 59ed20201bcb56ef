package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScene() *Scene {
	r := NewResolver(newFakeFinder(sofa, lamp), newFakeFinder(door), 2)
	return NewScene(uuid.New(), r)
}

func TestSceneAddInstance(t *testing.T) {
	s := newTestScene()
	ctx := context.Background()

	inst, err := s.AddInstance(ctx, sofa.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, inst.InstanceID)
	assert.Equal(t, AssetRef{AssetID: sofa.ID, Catalog: CatalogModel}, inst.Ref)
	assert.Equal(t, "Sofa", inst.Asset.Name)
	assert.Equal(t, mgl64.Vec3{0, 0.5, 0}, inst.Transform.Position)
	assert.Equal(t, mgl64.Vec3{}, inst.Transform.Rotation)
	assert.Equal(t, mgl64.Vec3{1, 1, 1}, inst.Transform.Scale)
	assert.Nil(t, inst.CustomMaterial)
	assert.Equal(t, inst.InstanceID, s.Selected())

	second, err := s.AddInstance(ctx, door.ID)
	require.NoError(t, err)
	assert.Equal(t, CatalogComponent, second.Ref.Catalog)
	assert.NotEqual(t, inst.InstanceID, second.InstanceID)
	assert.Equal(t, second.InstanceID, s.Selected())
	assert.Len(t, s.Instances(), 2)
}

func TestSceneAddUnknownAsset(t *testing.T) {
	s := newTestScene()

	_, err := s.AddInstance(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrAssetNotFound)
	assert.Empty(t, s.Instances())
	assert.Empty(t, s.Selected())
}

func TestSceneSelection(t *testing.T) {
	s := newTestScene()
	ctx := context.Background()
	a, _ := s.AddInstance(ctx, sofa.ID)
	b, _ := s.AddInstance(ctx, lamp.ID)

	assert.True(t, s.SelectInstance(a.InstanceID))
	assert.Equal(t, a.InstanceID, s.Selected())

	assert.False(t, s.SelectInstance("ghost"))
	assert.Equal(t, a.InstanceID, s.Selected())

	assert.True(t, s.SelectInstance(""))
	assert.Empty(t, s.Selected())

	s.SelectInstance(b.InstanceID)
	assert.True(t, s.RemoveInstance(b.InstanceID))
	assert.Empty(t, s.Selected())

	s.SelectInstance(a.InstanceID)
	assert.False(t, s.RemoveInstance(b.InstanceID))
	assert.Equal(t, a.InstanceID, s.Selected())
}

func TestSceneTransformMerges(t *testing.T) {
	s := newTestScene()
	inst, _ := s.AddInstance(context.Background(), sofa.ID)

	got, ok := s.TransformInstance(inst.InstanceID, TransformInput{
		Position: VectorAxes(ptr(2.0), nil, nil),
		Scale:    VectorScalar(3),
	})
	require.True(t, ok)
	assert.Equal(t, mgl64.Vec3{2, 0.5, 0}, got.Transform.Position)
	assert.Equal(t, mgl64.Vec3{3, 3, 3}, got.Transform.Scale)

	got, ok = s.TransformInstance(inst.InstanceID, TransformInput{Rotation: VectorArray(0, 1.57)})
	require.True(t, ok)
	assert.Equal(t, mgl64.Vec3{2, 0.5, 0}, got.Transform.Position)
	assert.Equal(t, mgl64.Vec3{0, 1.57, 0}, got.Transform.Rotation)

	before := s.Instances()
	_, ok = s.TransformInstance("ghost", TransformInput{Position: VectorArray(9, 9, 9)})
	assert.False(t, ok)
	assert.Equal(t, before, s.Instances())
}

func TestSceneMaterial(t *testing.T) {
	s := newTestScene()
	inst, _ := s.AddInstance(context.Background(), sofa.ID)

	m := Material{Color: "#aa0000", Roughness: ptr(0.4)}
	got, ok := s.SetMaterial(inst.InstanceID, m)
	require.True(t, ok)
	require.NotNil(t, got.CustomMaterial)
	assert.Equal(t, "#aa0000", got.CustomMaterial.Color)

	*m.Roughness = 0.9
	stored, _ := s.Instance(inst.InstanceID)
	assert.Equal(t, 0.4, *stored.CustomMaterial.Roughness)

	assert.True(t, s.ResetMaterial(inst.InstanceID))
	stored, _ = s.Instance(inst.InstanceID)
	assert.Nil(t, stored.CustomMaterial)

	assert.False(t, s.ResetMaterial("ghost"))
}

func TestSceneInstancesIsACopy(t *testing.T) {
	s := newTestScene()
	inst, _ := s.AddInstance(context.Background(), sofa.ID)
	s.SetMaterial(inst.InstanceID, Material{Color: "#fff"})

	list := s.Instances()
	list[0].Transform.Position = mgl64.Vec3{100, 100, 100}
	list[0].CustomMaterial.Color = "#000"

	again := s.Instances()
	assert.Equal(t, mgl64.Vec3{0, 0.5, 0}, again[0].Transform.Position)
	assert.Equal(t, "#fff", again[0].CustomMaterial.Color)
}

func TestSceneSubscribe(t *testing.T) {
	s := newTestScene()
	ctx := context.Background()

	var mu sync.Mutex
	var got []SceneSnapshot
	cancel := s.Subscribe(func(snap SceneSnapshot) {
		mu.Lock()
		got = append(got, snap)
		mu.Unlock()
	})

	inst, _ := s.AddInstance(ctx, sofa.ID)
	s.TransformInstance(inst.InstanceID, TransformInput{Position: VectorArray(1, 1, 1)})
	s.SelectInstance("")

	mu.Lock()
	require.Len(t, got, 3)
	assert.Len(t, got[0].Instances, 1)
	assert.Equal(t, inst.InstanceID, got[0].Selected)
	assert.Equal(t, mgl64.Vec3{1, 1, 1}, got[1].Instances[0].Transform.Position)
	assert.Empty(t, got[2].Selected)
	mu.Unlock()

	cancel()
	cancel()
	s.RemoveInstance(inst.InstanceID)

	mu.Lock()
	assert.Len(t, got, 3)
	mu.Unlock()
}

func TestSceneConcurrentEdits(t *testing.T) {
	s := newTestScene()
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			inst, err := s.AddInstance(ctx, lamp.ID)
			if err != nil {
				return
			}
			s.TransformInstance(inst.InstanceID, TransformInput{Scale: VectorScalar(2)})
		}()
	}
	wg.Wait()

	list := s.Instances()
	require.Len(t, list, 50)
	seen := make(map[string]bool)
	for _, inst := range list {
		assert.False(t, seen[inst.InstanceID])
		seen[inst.InstanceID] = true
		assert.Equal(t, mgl64.Vec3{2, 2, 2}, inst.Transform.Scale)
	}
}

func TestSessionStore(t *testing.T) {
	r := NewResolver(newFakeFinder(sofa), newFakeFinder(), 1)
	st := NewSessionStore(r)
	owner, other := uuid.New(), uuid.New()

	s := st.Open(owner)
	got, err := st.Get(owner, s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = st.Get(other, s.ID())
	assert.ErrorIs(t, err, ErrAuthorization)

	_, err = st.Get(owner, uuid.New())
	var nf ErrNotFound
	assert.ErrorAs(t, err, &nf)

	assert.ErrorIs(t, st.Close(other, s.ID()), ErrAuthorization)
	require.NoError(t, st.Close(owner, s.ID()))
	_, err = st.Get(owner, s.ID())
	assert.ErrorAs(t, err, &nf)
}

func TestSessionStoreReplaceKeepsSubscribers(t *testing.T) {
	r := NewResolver(newFakeFinder(sofa, lamp), newFakeFinder(), 1)
	st := NewSessionStore(r)
	owner := uuid.New()

	s := st.Open(owner)
	_, err := s.AddInstance(context.Background(), sofa.ID)
	require.NoError(t, err)

	var last SceneSnapshot
	s.Subscribe(func(snap SceneSnapshot) { last = snap })

	projectID := uuid.New()
	loaded := newLoadedScene(owner, r, projectID, 4, []PlacedInstance{
		{InstanceID: "a", Ref: AssetRef{AssetID: lamp.ID, Catalog: CatalogModel}, Transform: DefaultTransform()},
	})
	got, err := st.Replace(owner, s.ID(), loaded)
	require.NoError(t, err)
	assert.Same(t, s, got)

	assert.Equal(t, s.ID(), last.SceneID)
	assert.Equal(t, projectID, last.ProjectID)
	assert.Equal(t, 4, last.Version)
	require.Len(t, last.Instances, 1)
	assert.Equal(t, "a", last.Instances[0].InstanceID)
}

func TestSessionStoreCloseNotifiesSubscribers(t *testing.T) {
	st := NewSessionStore(NewResolver(newFakeFinder(sofa), newFakeFinder(), 1))
	owner := uuid.New()
	s := st.Open(owner)

	var got []SceneSnapshot
	s.Subscribe(func(snap SceneSnapshot) { got = append(got, snap) })

	require.NoError(t, st.Close(owner, s.ID()))
	require.Len(t, got, 1)
	assert.True(t, got[0].Closed)
	assert.Equal(t, s.ID(), got[0].SceneID)

	_, err := s.AddInstance(context.Background(), sofa.ID)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestNewLoadedSceneRepairsIDs(t *testing.T) {
	r := NewResolver(newFakeFinder(sofa), newFakeFinder(), 1)
	ref := AssetRef{AssetID: sofa.ID, Catalog: CatalogModel}
	s := newLoadedScene(uuid.New(), r, uuid.New(), 1, []PlacedInstance{
		{InstanceID: "dup", Ref: ref},
		{InstanceID: "dup", Ref: ref},
		{InstanceID: "", Ref: ref},
	})

	list := s.Instances()
	require.Len(t, list, 3)
	assert.Equal(t, "dup", list[0].InstanceID)
	assert.NotEqual(t, "dup", list[1].InstanceID)
	assert.NotEmpty(t, list[2].InstanceID)
	assert.NotEqual(t, list[1].InstanceID, list[2].InstanceID)
}
