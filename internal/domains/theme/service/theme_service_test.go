package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jamin-backend/internal/domains/theme/model"
	"jamin-backend/internal/infrastructure/storage"
	"jamin-backend/internal/shared"
)

// ========================================
// TEST FAKES
// ========================================

type fakeRepo struct {
	themes  map[uuid.UUID]*model.Theme
	markers map[uuid.UUID]model.PendingUpload

	createErr       error
	deleteMarkerErr error
	createdCount    int
	completedIDs    []uuid.UUID
	deletedMarkers  []uuid.UUID
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		themes:  make(map[uuid.UUID]*model.Theme),
		markers: make(map[uuid.UUID]model.PendingUpload),
	}
}

func (r *fakeRepo) Create(ctx context.Context, t *model.Theme) (*model.Theme, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	created := *t
	created.ID = uuid.New()
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	r.themes[created.ID] = &created
	r.createdCount++
	return &created, nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Theme, error) {
	t, ok := r.themes[id]
	if !ok {
		return nil, model.ErrThemeNotFound
	}
	copied := *t
	return &copied, nil
}

func (r *fakeRepo) List(ctx context.Context, filter model.ThemeFilter) ([]model.Theme, int64, error) {
	var out []model.Theme
	for _, t := range r.themes {
		if t.ParentID == nil {
			out = append(out, *t)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeRepo) Update(ctx context.Context, t *model.Theme) (*model.Theme, error) {
	copied := *t
	r.themes[t.ID] = &copied
	return t, nil
}

func (r *fakeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.themes, id)
	for themeID, t := range r.themes {
		if t.ParentID != nil && *t.ParentID == id {
			delete(r.themes, themeID)
		}
	}
	return nil
}

func (r *fakeRepo) MarkComplete(ctx context.Context, id uuid.UUID) error {
	r.completedIDs = append(r.completedIDs, id)
	if t, ok := r.themes[id]; ok {
		t.Status = model.StatusComplete
	}
	return nil
}

func (r *fakeRepo) SetMixURL(ctx context.Context, id uuid.UUID, mixURL string) error {
	if t, ok := r.themes[id]; ok {
		t.MixURL = &mixURL
	}
	return nil
}

func (r *fakeRepo) CreatePendingUpload(ctx context.Context, storageKey string) (uuid.UUID, error) {
	id := uuid.New()
	r.markers[id] = model.PendingUpload{ID: id, StorageKey: storageKey, CreatedAt: time.Now()}
	return id, nil
}

func (r *fakeRepo) DeletePendingUpload(ctx context.Context, id uuid.UUID) error {
	if r.deleteMarkerErr != nil {
		return r.deleteMarkerErr
	}
	delete(r.markers, id)
	r.deletedMarkers = append(r.deletedMarkers, id)
	return nil
}

func (r *fakeRepo) ListStalePendingUploads(ctx context.Context, olderThan time.Duration) ([]model.PendingUpload, error) {
	var out []model.PendingUpload
	for _, m := range r.markers {
		out = append(out, m)
	}
	return out, nil
}

func (r *fakeRepo) RecordingInUse(ctx context.Context, storageKey string) (bool, error) {
	for _, t := range r.themes {
		if strings.Contains(t.RecordingURL, storageKey) {
			return true, nil
		}
	}
	return false, nil
}

type fakeStore struct {
	uploadErr error
	uploads   []string
	deleted   []string
}

func (s *fakeStore) UploadWithRetry(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	s.uploads = append(s.uploads, key)
	return "http://storage/jamin/" + key, nil
}

func (s *fakeStore) Delete(ctx context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *fakeStore) DeleteByPrefix(ctx context.Context, prefix string) error {
	s.deleted = append(s.deleted, prefix)
	return nil
}

type fakeCache struct{}

func (fakeCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	return false, nil
}
func (fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}
func (fakeCache) Delete(ctx context.Context, keys ...string) error     { return nil }
func (fakeCache) DeletePattern(ctx context.Context, p string) error    { return nil }
func (fakeCache) Ping(ctx context.Context) error                       { return nil }
func (fakeCache) Exists(ctx context.Context, key string) (bool, error) { return false, nil }
func (fakeCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return nil
}

type fakeEnqueuer struct {
	enqueued []string
	err      error
}

func (e *fakeEnqueuer) Enqueue(ctx context.Context, taskType string, payload interface{}, queue string) error {
	if e.err != nil {
		return e.err
	}
	e.enqueued = append(e.enqueued, taskType)
	return nil
}

// ========================================
// HELPERS
// ========================================

type fixture struct {
	repo     *fakeRepo
	store    *fakeStore
	enqueuer *fakeEnqueuer
	svc      ThemeService
}

func newFixture() *fixture {
	repo := newFakeRepo()
	store := &fakeStore{}
	enqueuer := &fakeEnqueuer{}
	return &fixture{
		repo:     repo,
		store:    store,
		enqueuer: enqueuer,
		svc:      NewThemeService(repo, store, fakeCache{}, enqueuer),
	}
}

func (f *fixture) seedOriginal(t *testing.T, memberID uuid.UUID) *model.Theme {
	t.Helper()
	theme, err := f.repo.Create(context.Background(), model.NewOriginal(memberID, "Root Theme", "http://storage/jamin/themes/root.wav"))
	require.NoError(t, err)
	return theme
}

func wavPayload() storage.MediaPayload {
	header := []byte("RIFF\x24\x00\x00\x00WAVEfmt ")
	return storage.BytesPayload{Name: "take.wav", Data: append(header, make([]byte, 64)...)}
}

func themeRequest() model.CreateThemeRequest {
	return model.CreateThemeRequest{
		Title:    "Evening Jam",
		Genre:    "jazz",
		Tempo:    "120",
		Duration: "34.5",
	}
}

func layerRequest(parentID uuid.UUID) model.CreateLayerRequest {
	return model.CreateLayerRequest{
		CreateThemeRequest: model.CreateThemeRequest{Title: "Bass Line"},
		ParentID:           parentID.String(),
	}
}

// ========================================
// CREATE THEME
// ========================================

func TestCreateTheme_Success(t *testing.T) {
	f := newFixture()
	memberID := uuid.New()

	result, err := f.svc.CreateTheme(context.Background(), memberID, themeRequest(), wavPayload())
	require.NoError(t, err)
	require.True(t, result.Success)
	require.NotNil(t, result.Theme)

	assert.Equal(t, memberID, result.Theme.MemberID)
	assert.Equal(t, model.StatusInProgress, result.Theme.Status)
	assert.Nil(t, result.Theme.ParentID)
	assert.NotEmpty(t, result.Theme.RecordingURL)
	require.NotNil(t, result.Theme.Tempo)
	assert.Equal(t, 120, *result.Theme.Tempo)

	// Upload đã chạy và marker đã được dọn
	assert.Len(t, f.store.uploads, 1)
	assert.Empty(t, f.repo.markers)
}

func TestCreateTheme_ValidationFailure(t *testing.T) {
	f := newFixture()

	req := themeRequest()
	req.Title = ""

	result, err := f.svc.CreateTheme(context.Background(), uuid.New(), req, wavPayload())
	require.NoError(t, err)
	require.False(t, result.Success)

	assert.Contains(t, result.FieldErrors, "title")
	assert.Zero(t, f.repo.createdCount)
	assert.Empty(t, f.store.uploads)
}

func TestCreateTheme_MissingRecording(t *testing.T) {
	f := newFixture()

	result, err := f.svc.CreateTheme(context.Background(), uuid.New(), themeRequest(), nil)
	require.NoError(t, err)
	require.False(t, result.Success)

	// Recording bắt buộc: không insert, không upload
	assert.Contains(t, result.FieldErrors, "recording")
	assert.Zero(t, f.repo.createdCount)
	assert.Empty(t, f.store.uploads)
}

func TestCreateTheme_UploadFailureRemovesMarker(t *testing.T) {
	f := newFixture()
	f.store.uploadErr = errors.New("connection reset")

	result, err := f.svc.CreateTheme(context.Background(), uuid.New(), themeRequest(), wavPayload())
	require.NoError(t, err)
	require.False(t, result.Success)

	assert.NotEmpty(t, result.Message)
	assert.Zero(t, f.repo.createdCount)
	// Không có object nào được store, marker không cần GC
	assert.Empty(t, f.repo.markers)
	assert.Len(t, f.repo.deletedMarkers, 1)
}

func TestCreateTheme_MarkerDeleteFailureDoesNotFailCreation(t *testing.T) {
	f := newFixture()
	f.repo.deleteMarkerErr = errors.New("connection reset")

	result, err := f.svc.CreateTheme(context.Background(), uuid.New(), themeRequest(), wavPayload())
	require.NoError(t, err)
	require.True(t, result.Success)

	// Theme row đã commit, marker đi lạc chờ GC release
	assert.Equal(t, 1, f.repo.createdCount)
	require.Len(t, f.repo.markers, 1)

	// GC phải thấy key của marker thuộc về theme row vừa commit
	for _, m := range f.repo.markers {
		inUse, err := f.repo.RecordingInUse(context.Background(), m.StorageKey)
		require.NoError(t, err)
		assert.True(t, inUse)
	}
}

func TestCreateTheme_InsertFailureLeavesMarkerForGC(t *testing.T) {
	f := newFixture()
	f.repo.createErr = errors.New("connection refused")

	_, err := f.svc.CreateTheme(context.Background(), uuid.New(), themeRequest(), wavPayload())
	require.Error(t, err)

	// Object đã upload nhưng insert thất bại: marker ở lại cho cleanup job
	assert.Len(t, f.store.uploads, 1)
	assert.Len(t, f.repo.markers, 1)
}

// ========================================
// CREATE LAYER
// ========================================

func TestCreateLayer_Success(t *testing.T) {
	f := newFixture()
	original := f.seedOriginal(t, uuid.New())

	layerMember := uuid.New()
	req := layerRequest(original.ID)
	req.Instrument = "bass"

	result, err := f.svc.CreateLayer(context.Background(), layerMember, req, wavPayload())
	require.NoError(t, err)
	require.True(t, result.Success)
	require.NotNil(t, result.Theme)

	assert.Equal(t, model.StatusComplete, result.Theme.Status)
	require.NotNil(t, result.Theme.ParentID)
	assert.Equal(t, original.ID, *result.Theme.ParentID)
	require.NotNil(t, result.ParentThemeID)
	assert.Equal(t, original.ID, *result.ParentThemeID)

	// Layer creation promotes the parent
	assert.Contains(t, f.repo.completedIDs, original.ID)
}

func TestCreateLayer_MissingRecording(t *testing.T) {
	f := newFixture()
	original := f.seedOriginal(t, uuid.New())

	req := layerRequest(original.ID)
	req.Instrument = "bass"

	result, err := f.svc.CreateLayer(context.Background(), uuid.New(), req, nil)
	require.NoError(t, err)
	require.False(t, result.Success)

	assert.Contains(t, result.FieldErrors, "recording")
	assert.Equal(t, 1, f.repo.createdCount) // chỉ có original từ seed
}

func TestCreateLayer_RequiresInstrumentAndParent(t *testing.T) {
	f := newFixture()

	result, err := f.svc.CreateLayer(context.Background(), uuid.New(), model.CreateLayerRequest{
		CreateThemeRequest: model.CreateThemeRequest{Title: "Bass Line"},
	}, wavPayload())
	require.NoError(t, err)
	require.False(t, result.Success)

	assert.Contains(t, result.FieldErrors, "instrument")
	assert.Contains(t, result.FieldErrors, "parent_id")
}

func TestCreateLayer_ParentNotFound(t *testing.T) {
	f := newFixture()

	req := layerRequest(uuid.New())
	req.Instrument = "bass"

	result, err := f.svc.CreateLayer(context.Background(), uuid.New(), req, wavPayload())
	require.NoError(t, err)
	require.False(t, result.Success)

	assert.Contains(t, result.FieldErrors, "parent_id")
}

func TestCreateLayer_ParentMustBeOriginal(t *testing.T) {
	f := newFixture()
	original := f.seedOriginal(t, uuid.New())

	layer, err := f.repo.Create(context.Background(),
		model.NewLayer(uuid.New(), original.ID, "First Layer", "drums", "http://storage/jamin/themes/l1.wav"))
	require.NoError(t, err)

	req := layerRequest(layer.ID)
	req.Instrument = "bass"

	result, err := f.svc.CreateLayer(context.Background(), uuid.New(), req, wavPayload())
	require.NoError(t, err)
	require.False(t, result.Success)

	assert.Contains(t, result.FieldErrors, "parent_id")
}

func TestCreateLayer_MixWithParentEnqueuesTask(t *testing.T) {
	f := newFixture()
	original := f.seedOriginal(t, uuid.New())

	req := layerRequest(original.ID)
	req.Instrument = "bass"
	req.MixWithParent = true

	result, err := f.svc.CreateLayer(context.Background(), uuid.New(), req, wavPayload())
	require.NoError(t, err)
	require.True(t, result.Success)

	assert.Equal(t, []string{shared.TypeMixLayer}, f.enqueuer.enqueued)
}

func TestCreateLayer_EnqueueFailureDoesNotFailCreation(t *testing.T) {
	f := newFixture()
	f.enqueuer.err = errors.New("redis down")
	original := f.seedOriginal(t, uuid.New())

	req := layerRequest(original.ID)
	req.Instrument = "bass"
	req.MixWithParent = true

	result, err := f.svc.CreateLayer(context.Background(), uuid.New(), req, wavPayload())
	require.NoError(t, err)

	// Mixing là optional: layer vẫn được tạo
	assert.True(t, result.Success)
}

// ========================================
// UPDATE / DELETE
// ========================================

func TestUpdateTheme_OwnershipEnforced(t *testing.T) {
	f := newFixture()
	owner := uuid.New()
	original := f.seedOriginal(t, owner)

	title := "Renamed"
	_, err := f.svc.UpdateTheme(context.Background(), uuid.New(), original.ID, model.UpdateThemeRequest{Title: &title})
	assert.ErrorIs(t, err, model.ErrNotOwner)

	updated, err := f.svc.UpdateTheme(context.Background(), owner, original.ID, model.UpdateThemeRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
}

func TestDeleteTheme_RemovesCollaborationAndStorage(t *testing.T) {
	f := newFixture()
	owner := uuid.New()
	original := f.seedOriginal(t, owner)

	_, err := f.repo.Create(context.Background(),
		model.NewLayer(uuid.New(), original.ID, "First Layer", "drums", "http://storage/jamin/themes/l1.wav"))
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteTheme(context.Background(), owner, original.ID))

	_, err = f.repo.GetByID(context.Background(), original.ID)
	assert.ErrorIs(t, err, model.ErrThemeNotFound)
	assert.Empty(t, f.repo.themes)

	// Storage cleanup: recording của original + prefixes của collaboration
	assert.Contains(t, f.store.deleted, "themes/root.wav")
	assert.Contains(t, f.store.deleted, "themes/"+original.ID.String()+"/")
	assert.Contains(t, f.store.deleted, "mixes/"+original.ID.String()+"/")
}

func TestDeleteTheme_OwnershipEnforced(t *testing.T) {
	f := newFixture()
	original := f.seedOriginal(t, uuid.New())

	err := f.svc.DeleteTheme(context.Background(), uuid.New(), original.ID)
	assert.ErrorIs(t, err, model.ErrNotOwner)
}
