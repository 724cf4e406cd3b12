package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"jamin-backend/internal/domains/theme/repository"
	"jamin-backend/internal/shared"
	"jamin-backend/pkg/cache"
)

// AudioMixer blends a layer recording into its parent's
type AudioMixer interface {
	Mix(ctx context.Context, themeID string, sourceURL, layerURL string) (string, error)
}

// MixLayerHandler chạy audio mix job cho một layer mới
type MixLayerHandler struct {
	mixer AudioMixer
	repo  repository.ThemeRepository
	cache cache.Cache
}

func NewMixLayerHandler(mixer AudioMixer, repo repository.ThemeRepository, cacheLayer cache.Cache) *MixLayerHandler {
	return &MixLayerHandler{
		mixer: mixer,
		repo:  repo,
		cache: cacheLayer,
	}
}

// ProcessTask downloads both recordings, mixes them and stores the result
// URL on the layer row
func (h *MixLayerHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload shared.MixLayerPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		log.Error().Err(err).Msg("Failed to unmarshal MixLayer payload")
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	layerID, err := uuid.Parse(payload.LayerID)
	if err != nil {
		return fmt.Errorf("parse layer id: %w", err)
	}

	log.Info().
		Str("theme_id", payload.ThemeID).
		Str("layer_id", payload.LayerID).
		Msg("Mixing layer into parent recording")

	mixURL, err := h.mixer.Mix(ctx, payload.ThemeID, payload.SourceURL, payload.LayerURL)
	if err != nil {
		log.Error().
			Err(err).
			Str("layer_id", payload.LayerID).
			Msg("Failed to mix layer")
		return fmt.Errorf("mix layer: %w", err)
	}

	if err := h.repo.SetMixURL(ctx, layerID, mixURL); err != nil {
		return fmt.Errorf("store mix url: %w", err)
	}

	// Snapshot views carry mix_url, drop cả cached theme view lẫn list
	if err := h.cache.Delete(ctx, shared.CollabCacheKeyPrefix+payload.ThemeID, shared.CollabListCacheKey); err != nil {
		log.Warn().Err(err).Str("theme_id", payload.ThemeID).Msg("Failed to invalidate collaboration cache")
	}

	log.Info().
		Str("layer_id", payload.LayerID).
		Str("mix_url", mixURL).
		Msg("Layer mixed successfully")

	return nil
}
