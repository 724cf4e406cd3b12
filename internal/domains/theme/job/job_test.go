package job

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jamin-backend/internal/domains/theme/model"
	"jamin-backend/internal/shared"
)

// ========================================
// TEST FAKES
// ========================================

type fakeRepo struct {
	mixURLs        map[uuid.UUID]string
	stale          []model.PendingUpload
	deletedMarkers []uuid.UUID
	inUseKeys      map[string]bool
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		mixURLs:   make(map[uuid.UUID]string),
		inUseKeys: make(map[string]bool),
	}
}

func (r *fakeRepo) Create(ctx context.Context, t *model.Theme) (*model.Theme, error) { return t, nil }
func (r *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Theme, error) {
	return nil, model.ErrThemeNotFound
}
func (r *fakeRepo) List(ctx context.Context, f model.ThemeFilter) ([]model.Theme, int64, error) {
	return nil, 0, nil
}
func (r *fakeRepo) Update(ctx context.Context, t *model.Theme) (*model.Theme, error) { return t, nil }
func (r *fakeRepo) Delete(ctx context.Context, id uuid.UUID) error                   { return nil }
func (r *fakeRepo) MarkComplete(ctx context.Context, id uuid.UUID) error             { return nil }

func (r *fakeRepo) SetMixURL(ctx context.Context, id uuid.UUID, mixURL string) error {
	r.mixURLs[id] = mixURL
	return nil
}

func (r *fakeRepo) CreatePendingUpload(ctx context.Context, storageKey string) (uuid.UUID, error) {
	return uuid.New(), nil
}

func (r *fakeRepo) DeletePendingUpload(ctx context.Context, id uuid.UUID) error {
	r.deletedMarkers = append(r.deletedMarkers, id)
	return nil
}

func (r *fakeRepo) ListStalePendingUploads(ctx context.Context, olderThan time.Duration) ([]model.PendingUpload, error) {
	return r.stale, nil
}

func (r *fakeRepo) RecordingInUse(ctx context.Context, storageKey string) (bool, error) {
	return r.inUseKeys[storageKey], nil
}

type fakeCache struct {
	deletedKeys []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	return false, nil
}
func (c *fakeCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return nil
}
func (c *fakeCache) Delete(ctx context.Context, keys ...string) error {
	c.deletedKeys = append(c.deletedKeys, keys...)
	return nil
}
func (c *fakeCache) DeletePattern(ctx context.Context, pattern string) error { return nil }
func (c *fakeCache) Ping(ctx context.Context) error                          { return nil }
func (c *fakeCache) Exists(ctx context.Context, key string) (bool, error)    { return false, nil }
func (c *fakeCache) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return nil
}

type fakeMixer struct {
	url string
	err error
}

func (m *fakeMixer) Mix(ctx context.Context, themeID string, sourceURL, layerURL string) (string, error) {
	return m.url, m.err
}

type fakeRemover struct {
	deleted []string
	failOn  string
}

func (r *fakeRemover) Delete(ctx context.Context, key string) error {
	if key == r.failOn {
		return errors.New("storage unavailable")
	}
	r.deleted = append(r.deleted, key)
	return nil
}

// ========================================
// MIX LAYER TASK
// ========================================

func mixTask(t *testing.T, payload shared.MixLayerPayload) *asynq.Task {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(shared.TypeMixLayer, data)
}

func TestMixLayerHandler_Success(t *testing.T) {
	repo := newFakeRepo()
	cacheLayer := &fakeCache{}
	layerID := uuid.New()
	themeID := uuid.New()

	h := NewMixLayerHandler(&fakeMixer{url: "http://storage/jamin/mixes/t1/mix.mp3"}, repo, cacheLayer)

	err := h.ProcessTask(context.Background(), mixTask(t, shared.MixLayerPayload{
		ThemeID:   themeID.String(),
		LayerID:   layerID.String(),
		SourceURL: "http://storage/a.wav",
		LayerURL:  "http://storage/b.wav",
	}))
	require.NoError(t, err)

	assert.Equal(t, "http://storage/jamin/mixes/t1/mix.mp3", repo.mixURLs[layerID])

	// Cached snapshots carry mix_url, nên cả hai view phải bị invalidate
	assert.Contains(t, cacheLayer.deletedKeys, shared.CollabCacheKeyPrefix+themeID.String())
	assert.Contains(t, cacheLayer.deletedKeys, shared.CollabListCacheKey)
}

func TestMixLayerHandler_MixFailurePropagates(t *testing.T) {
	repo := newFakeRepo()
	h := NewMixLayerHandler(&fakeMixer{err: errors.New("ffmpeg exploded")}, repo, &fakeCache{})

	err := h.ProcessTask(context.Background(), mixTask(t, shared.MixLayerPayload{
		ThemeID: uuid.New().String(),
		LayerID: uuid.New().String(),
	}))

	// Asynq retries trên error, nên mix failures phải propagate
	require.Error(t, err)
	assert.Empty(t, repo.mixURLs)
}

func TestMixLayerHandler_BadPayload(t *testing.T) {
	h := NewMixLayerHandler(&fakeMixer{}, newFakeRepo(), &fakeCache{})

	err := h.ProcessTask(context.Background(), asynq.NewTask(shared.TypeMixLayer, []byte("not json")))
	assert.Error(t, err)
}

// ========================================
// CLEANUP PENDING UPLOADS TASK
// ========================================

func TestCleanupPendingUploads_ReclaimsStaleMarkers(t *testing.T) {
	repo := newFakeRepo()
	m1 := model.PendingUpload{ID: uuid.New(), StorageKey: "themes/orphan-1.wav"}
	m2 := model.PendingUpload{ID: uuid.New(), StorageKey: "themes/orphan-2.wav"}
	repo.stale = []model.PendingUpload{m1, m2}

	remover := &fakeRemover{}
	h := NewCleanupPendingUploadsHandler(repo, remover)

	err := h.ProcessTask(context.Background(), asynq.NewTask(shared.TypeCleanupPendingUpload, nil))
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"themes/orphan-1.wav", "themes/orphan-2.wav"}, remover.deleted)
	assert.ElementsMatch(t, []uuid.UUID{m1.ID, m2.ID}, repo.deletedMarkers)
}

func TestCleanupPendingUploads_KeepsMarkerWhenDeleteFails(t *testing.T) {
	repo := newFakeRepo()
	m1 := model.PendingUpload{ID: uuid.New(), StorageKey: "themes/stuck.wav"}
	m2 := model.PendingUpload{ID: uuid.New(), StorageKey: "themes/ok.wav"}
	repo.stale = []model.PendingUpload{m1, m2}

	remover := &fakeRemover{failOn: "themes/stuck.wav"}
	h := NewCleanupPendingUploadsHandler(repo, remover)

	err := h.ProcessTask(context.Background(), asynq.NewTask(shared.TypeCleanupPendingUpload, nil))
	require.NoError(t, err)

	// Marker của object chưa xoá được phải sống sót để lần chạy sau thử lại
	assert.Equal(t, []uuid.UUID{m2.ID}, repo.deletedMarkers)
}

func TestCleanupPendingUploads_SparesRecordingsOwnedByThemes(t *testing.T) {
	// Khi bước xoá marker sau một insert thành công thất bại, marker đi lạc
	// vào danh sách stale dù object đã thuộc về một theme row
	repo := newFakeRepo()
	live := model.PendingUpload{ID: uuid.New(), StorageKey: "themes/live-recording.wav"}
	orphan := model.PendingUpload{ID: uuid.New(), StorageKey: "themes/true-orphan.wav"}
	repo.stale = []model.PendingUpload{live, orphan}
	repo.inUseKeys[live.StorageKey] = true

	remover := &fakeRemover{}
	h := NewCleanupPendingUploadsHandler(repo, remover)

	err := h.ProcessTask(context.Background(), asynq.NewTask(shared.TypeCleanupPendingUpload, nil))
	require.NoError(t, err)

	// Recording của theme đang sống không bao giờ được xoá khỏi storage
	assert.NotContains(t, remover.deleted, live.StorageKey)
	assert.ElementsMatch(t, []string{orphan.StorageKey}, remover.deleted)

	// Cả hai marker đều được dọn: một released, một reclaimed
	assert.ElementsMatch(t, []uuid.UUID{live.ID, orphan.ID}, repo.deletedMarkers)
}
