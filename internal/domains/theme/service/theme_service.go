package service

import (
	"context"
	"errors"
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"jamin-backend/internal/domains/theme/model"
	"jamin-backend/internal/domains/theme/repository"
	"jamin-backend/internal/infrastructure/storage"
	"jamin-backend/internal/shared"
	"jamin-backend/internal/shared/utils"
	"jamin-backend/pkg/cache"
	"jamin-backend/pkg/logger"
)

type themeService struct {
	repo     repository.ThemeRepository
	store    RecordingStore
	cache    cache.Cache
	enqueuer TaskEnqueuer
}

func NewThemeService(
	repo repository.ThemeRepository,
	store RecordingStore,
	cacheLayer cache.Cache,
	enqueuer TaskEnqueuer,
) ThemeService {
	return &themeService{
		repo:     repo,
		store:    store,
		cache:    cacheLayer,
		enqueuer: enqueuer,
	}
}

// CreateTheme persists an original theme: validate -> normalize media ->
// upload (with pending marker) -> insert.
func (s *themeService) CreateTheme(ctx context.Context, memberID uuid.UUID, req model.CreateThemeRequest, media storage.MediaPayload) (*model.CreateResult, error) {
	if err := req.Validate(); err != nil {
		return validationResult(err)
	}

	recordingURL, markerID, result, err := s.uploadRecording(ctx, nil, media)
	if result != nil || err != nil {
		return result, err
	}

	theme := model.NewOriginal(memberID, req.Title, recordingURL)
	applyMetadata(theme, req)

	created, err := s.repo.Create(ctx, theme)
	if err != nil {
		// Marker left in place: the GC job reclaims the uploaded object
		logger.Error("Theme insert failed after upload", err)
		return nil, err
	}

	s.releaseMarker(ctx, markerID)

	return &model.CreateResult{
		Success: true,
		Theme:   created,
	}, nil
}

// CreateLayer persists a layer into an existing collaboration
func (s *themeService) CreateLayer(ctx context.Context, memberID uuid.UUID, req model.CreateLayerRequest, media storage.MediaPayload) (*model.CreateResult, error) {
	if err := req.Validate(); err != nil {
		return validationResult(err)
	}

	parentID := utils.ParseStringToUUID(req.ParentID)

	parent, err := s.repo.GetByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, model.ErrThemeNotFound) {
			return model.FailedResult(map[string][]string{
				"parent_id": {"parent theme not found"},
			}, ""), nil
		}
		return nil, err
	}

	if parent.IsLayer() {
		return model.FailedResult(map[string][]string{
			"parent_id": {model.ErrParentIsLayer.Error()},
		}, ""), nil
	}

	recordingURL, markerID, result, err := s.uploadRecording(ctx, &parentID, media)
	if result != nil || err != nil {
		return result, err
	}

	layer := model.NewLayer(memberID, parentID, req.Title, req.Instrument, recordingURL)
	applyMetadata(layer, req.CreateThemeRequest)

	created, err := s.repo.Create(ctx, layer)
	if err != nil {
		logger.Error("Layer insert failed after upload", err)
		return nil, err
	}

	s.releaseMarker(ctx, markerID)

	// Layer creation implies the original is no longer a lone work in progress
	if parent.Status != model.StatusComplete {
		if err := s.repo.MarkComplete(ctx, parentID); err != nil {
			logger.Warn("Failed to promote parent theme", map[string]interface{}{
				"theme_id": parentID.String(),
				"error":    err.Error(),
			})
		}
	}

	// Invalidate collaboration display path so subsequent reads see the layer
	s.cache.Delete(ctx, shared.CollabCacheKeyPrefix+parentID.String(), shared.CollabListCacheKey)

	if req.MixWithParent {
		payload := shared.MixLayerPayload{
			ThemeID:   parentID.String(),
			LayerID:   created.ID.String(),
			SourceURL: parent.RecordingURL,
			LayerURL:  created.RecordingURL,
		}
		if err := s.enqueuer.Enqueue(ctx, shared.TypeMixLayer, payload, shared.QueueThemes); err != nil {
			// Mixing là optional enhancement: layer đã tồn tại, chỉ log
			logger.Warn("Failed to enqueue mix task", map[string]interface{}{
				"layer_id": created.ID.String(),
				"error":    err.Error(),
			})
		}
	}

	return &model.CreateResult{
		Success:       true,
		Theme:         created,
		ParentThemeID: &parentID,
	}, nil
}

// uploadRecording normalizes the media payload and pushes it to object
// storage behind a pending-upload marker. Returns (url, markerID, nil, nil)
// on success; a non-nil result means a recovered failure the handler should
// render; a non-nil error means infrastructure trouble.
func (s *themeService) uploadRecording(ctx context.Context, parentID *uuid.UUID, media storage.MediaPayload) (string, uuid.UUID, *model.CreateResult, error) {
	file, err := storage.NormalizeMedia(media)
	if err != nil {
		if errors.Is(err, storage.ErrNoPayload) {
			// Recording bắt buộc cho cả original themes và layers
			return "", uuid.Nil, model.FailedResult(map[string][]string{
				"recording": {model.ErrMissingRecording.Error()},
			}, ""), nil
		}
		return "", uuid.Nil, model.FailedResult(map[string][]string{
			"recording": {err.Error()},
		}, ""), nil
	}

	key := utils.RecordingKey("themes", parentID, file.Name)

	// Marker first: nếu insert sau upload thất bại, GC job biết object này
	// chưa có owning row
	markerID, err := s.repo.CreatePendingUpload(ctx, key)
	if err != nil {
		return "", uuid.Nil, nil, err
	}

	recordingURL, err := s.store.UploadWithRetry(ctx, key, file.Data, file.ContentType)
	if err != nil {
		// Nothing stored - marker can go immediately
		s.releaseMarker(ctx, markerID)
		logger.Error("Recording upload failed", err)
		return "", uuid.Nil, model.FailedResult(nil, "failed to store recording, please try again"), nil
	}

	return recordingURL, markerID, nil, nil
}

// releaseMarker drops the pending-upload marker after the owning row đã
// commit. Failure is logged, not returned: the GC job sees the key is
// referenced and releases the marker without touching the object.
func (s *themeService) releaseMarker(ctx context.Context, markerID uuid.UUID) {
	if err := s.repo.DeletePendingUpload(ctx, markerID); err != nil {
		logger.Warn("Failed to release pending upload marker", map[string]interface{}{
			"marker_id": markerID.String(),
			"error":     err.Error(),
		})
	}
}

func (s *themeService) GetTheme(ctx context.Context, id uuid.UUID) (*model.Theme, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *themeService) ListThemes(ctx context.Context, filter model.ThemeFilter) ([]model.Theme, int64, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	return s.repo.List(ctx, filter)
}

func (s *themeService) UpdateTheme(ctx context.Context, memberID, id uuid.UUID, req model.UpdateThemeRequest) (*model.Theme, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	theme, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if theme.MemberID != memberID {
		return nil, model.ErrNotOwner
	}

	if req.Title != nil {
		theme.Title = *req.Title
	}
	if req.Description != nil {
		theme.Description = req.Description
	}
	if req.Genre != nil {
		theme.Genre = req.Genre
	}
	if req.Key != nil {
		theme.Key = req.Key
	}
	if req.Mode != nil {
		theme.Mode = req.Mode
	}
	if req.Chords != nil {
		theme.Chords = req.Chords
	}
	if req.Scale != nil {
		theme.Scale = req.Scale
	}
	if req.Tempo != nil {
		theme.Tempo = req.Tempo
	}
	if req.Instrument != nil {
		theme.Instrument = req.Instrument
	}
	if req.Status != nil {
		theme.Status = model.Status(*req.Status)
	}

	updated, err := s.repo.Update(ctx, theme)
	if err != nil {
		return nil, err
	}

	if theme.ParentID != nil {
		s.cache.Delete(ctx, shared.CollabCacheKeyPrefix+theme.ParentID.String(), shared.CollabListCacheKey)
	}

	return updated, nil
}

// DeleteTheme removes the theme row(s) first, then best-effort cleans up
// object storage. Một original kéo theo toàn bộ layers của collaboration.
func (s *themeService) DeleteTheme(ctx context.Context, memberID, id uuid.UUID) error {
	theme, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if theme.MemberID != memberID {
		return model.ErrNotOwner
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	// Storage cleanup: recording của chính theme + prefix chứa layers/mixes
	if key := extractKeyFromURL(theme.RecordingURL); key != "" {
		if err := s.store.Delete(ctx, key); err != nil {
			logger.Warn("Failed to delete recording object", map[string]interface{}{
				"key":   key,
				"error": err.Error(),
			})
		}
	}
	if !theme.IsLayer() {
		for _, prefix := range []string{"themes/" + id.String() + "/", "mixes/" + id.String() + "/"} {
			if err := s.store.DeleteByPrefix(ctx, prefix); err != nil {
				logger.Warn("Failed to delete storage prefix", map[string]interface{}{
					"prefix": prefix,
					"error":  err.Error(),
				})
			}
		}
		s.cache.Delete(ctx, shared.CollabCacheKeyPrefix+id.String(), shared.CollabListCacheKey)
	} else if theme.ParentID != nil {
		s.cache.Delete(ctx, shared.CollabCacheKeyPrefix+theme.ParentID.String(), shared.CollabListCacheKey)
	}

	return nil
}

// applyMetadata copies the optional musical metadata from the form payload
func applyMetadata(t *model.Theme, req model.CreateThemeRequest) {
	if req.Description != "" {
		t.Description = &req.Description
	}
	if req.Genre != "" {
		t.Genre = &req.Genre
	}
	if req.Key != "" {
		t.Key = &req.Key
	}
	if req.Mode != "" {
		t.Mode = &req.Mode
	}
	if len(req.Chords) > 0 {
		t.Chords = req.Chords
	}
	if req.Scale != "" {
		t.Scale = &req.Scale
	}
	if req.Instrument != "" && t.Instrument == nil {
		t.Instrument = &req.Instrument
	}
	t.Tempo = req.TempoBPM()
	t.Duration = req.DurationSeconds()
}

// validationResult recovers ozzo validation errors into a field error map
func validationResult(err error) (*model.CreateResult, error) {
	var ve validation.Errors
	if errors.As(err, &ve) {
		fields := make(map[string][]string, len(ve))
		for field, fieldErr := range ve {
			fields[field] = append(fields[field], fieldErr.Error())
		}
		return model.FailedResult(fields, ""), nil
	}
	return nil, err
}

// extractKeyFromURL strips the endpoint and bucket from a stored object URL
func extractKeyFromURL(fullURL string) string {
	u, err := url.Parse(fullURL)
	if err != nil {
		return ""
	}

	// Path: /jamin/themes/uuid/1700000000-take1.webm
	path := strings.TrimPrefix(u.Path, "/")

	parts := strings.SplitN(path, "/", 2)
	if len(parts) < 2 {
		return ""
	}

	return parts[1]
}
