package usecase

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

type Material struct {
	Color     string   `json:"color,omitempty"`
	Texture   string   `json:"texture,omitempty"`
	Roughness *float64 `json:"roughness,omitempty"`
	Metalness *float64 `json:"metalness,omitempty"`
}

func (m *Material) clone() *Material {
	if m == nil {
		return nil
	}
	c := *m
	if m.Roughness != nil {
		r := *m.Roughness
		c.Roughness = &r
	}
	if m.Metalness != nil {
		v := *m.Metalness
		c.Metalness = &v
	}
	return &c
}

// PlacedInstance is one occurrence of an asset in a scene. Asset carries the
// catalog record the renderer draws from.
type PlacedInstance struct {
	InstanceID     string
	Ref            AssetRef
	Asset          Asset
	Transform      Transform
	CustomMaterial *Material
}

func (p PlacedInstance) clone() PlacedInstance {
	p.CustomMaterial = p.CustomMaterial.clone()
	return p
}

type SceneSnapshot struct {
	SceneID   uuid.UUID
	ProjectID uuid.UUID
	Version   int
	Selected  string
	Instances []PlacedInstance
	// Closed marks the last snapshot a subscriber receives.
	Closed bool
}

// Scene is the authoritative list of placed instances for one editing
// session. Every mutation runs to completion under the scene lock.
type Scene struct {
	mu       sync.Mutex
	id       uuid.UUID
	ownerID  uuid.UUID
	resolver *Resolver

	projectID uuid.UUID
	version   int
	instances []PlacedInstance
	selected  string

	subs    map[int]func(SceneSnapshot)
	nextSub int
}

func NewScene(ownerID uuid.UUID, resolver *Resolver) *Scene {
	return &Scene{
		id:       uuid.New(),
		ownerID:  ownerID,
		resolver: resolver,
		subs:     make(map[int]func(SceneSnapshot)),
	}
}

// newLoadedScene builds a scene from already verified instances. Duplicate
// or empty instance ids are replaced with fresh ones.
func newLoadedScene(ownerID uuid.UUID, resolver *Resolver, projectID uuid.UUID, version int, instances []PlacedInstance) *Scene {
	s := NewScene(ownerID, resolver)
	s.projectID = projectID
	s.version = version
	s.instances = make([]PlacedInstance, 0, len(instances))
	seen := make(map[string]struct{}, len(instances))
	for _, inst := range instances {
		inst.InstanceID = AssignInstanceID(inst.InstanceID)
		if _, dup := seen[inst.InstanceID]; dup {
			inst.InstanceID = AssignInstanceID("")
		}
		seen[inst.InstanceID] = struct{}{}
		s.instances = append(s.instances, inst.clone())
	}
	return s
}

func (s *Scene) ID() uuid.UUID {
	return s.id
}

func (s *Scene) OwnerID() uuid.UUID {
	return s.ownerID
}

// Project returns the bound project id and version. uuid.Nil means the scene
// has never been saved.
func (s *Scene) Project() (uuid.UUID, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projectID, s.version
}

// AddInstance resolves assetID and places it at the default position. The
// new instance becomes the selection.
func (s *Scene) AddInstance(ctx context.Context, assetID string) (PlacedInstance, error) {
	resolved, ok, err := s.resolver.Resolve(ctx, assetID)
	if err != nil {
		return PlacedInstance{}, err
	}
	if !ok {
		return PlacedInstance{}, fmt.Errorf("%w: %s", ErrAssetNotFound, assetID)
	}

	t := DefaultTransform()
	t.Position = DefaultPlacement

	s.mu.Lock()
	defer s.mu.Unlock()

	id := AssignInstanceID("")
	for s.indexOf(id) >= 0 {
		id = AssignInstanceID("")
	}
	inst := PlacedInstance{
		InstanceID: id,
		Ref:        resolved.Ref,
		Asset:      resolved.Asset,
		Transform:  t,
	}
	s.instances = append(s.instances, inst)
	s.selected = id
	s.notify()
	return inst.clone(), nil
}

// SelectInstance selects id, or clears the selection when id is empty.
// Unknown ids leave the selection unchanged and report false.
func (s *Scene) SelectInstance(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" && s.indexOf(id) < 0 {
		return false
	}
	if s.selected == id {
		return true
	}
	s.selected = id
	s.notify()
	return true
}

// TransformInstance merges a partial transform onto the instance's current
// transform.
func (s *Scene) TransformInstance(id string, in TransformInput) (PlacedInstance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return PlacedInstance{}, false
	}
	s.instances[i].Transform = NormalizeOnto(s.instances[i].Transform, in)
	s.notify()
	return s.instances[i].clone(), true
}

func (s *Scene) SetMaterial(id string, m Material) (PlacedInstance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return PlacedInstance{}, false
	}
	s.instances[i].CustomMaterial = m.clone()
	s.notify()
	return s.instances[i].clone(), true
}

func (s *Scene) ResetMaterial(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.instances[i].CustomMaterial = nil
	s.notify()
	return true
}

func (s *Scene) RemoveInstance(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.instances = append(s.instances[:i], s.instances[i+1:]...)
	if s.selected == id {
		s.selected = ""
	}
	s.notify()
	return true
}

func (s *Scene) Instance(id string) (PlacedInstance, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return PlacedInstance{}, false
	}
	return s.instances[i].clone(), true
}

// Instances returns a copy of the instance list in placement order.
func (s *Scene) Instances() []PlacedInstance {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyInstances()
}

func (s *Scene) Selected() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

func (s *Scene) Snapshot() SceneSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Subscribe registers fn to receive a snapshot after every change. fn runs
// with the scene locked and must not block or call back into the scene.
func (s *Scene) Subscribe(fn func(SceneSnapshot)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Scene) bind(projectID uuid.UUID, version int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projectID = projectID
	s.version = version
	s.notify()
}

// adopt replaces this scene's content with other's, keeping the session id
// and subscribers.
func (s *Scene) adopt(other *Scene) {
	other.mu.Lock()
	projectID, version := other.projectID, other.version
	instances := other.copyInstances()
	other.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.projectID = projectID
	s.version = version
	s.instances = instances
	s.selected = ""
	s.notify()
}

// closeSubscribers sends every subscriber a closed snapshot and forgets
// them.
func (s *Scene) closeSubscribers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.subs) > 0 {
		snap := s.snapshot()
		snap.Closed = true
		for _, fn := range s.subs {
			fn(snap)
		}
	}
	clear(s.subs)
}

func (s *Scene) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.instances {
		if s.instances[i].InstanceID == id {
			return i
		}
	}
	return -1
}

func (s *Scene) copyInstances() []PlacedInstance {
	out := make([]PlacedInstance, len(s.instances))
	for i, inst := range s.instances {
		out[i] = inst.clone()
	}
	return out
}

func (s *Scene) snapshot() SceneSnapshot {
	return SceneSnapshot{
		SceneID:   s.id,
		ProjectID: s.projectID,
		Version:   s.version,
		Selected:  s.selected,
		Instances: s.copyInstances(),
	}
}

func (s *Scene) notify() {
	if len(s.subs) == 0 {
		return
	}
	snap := s.snapshot()
	for _, fn := range s.subs {
		fn(snap)
	}
}
