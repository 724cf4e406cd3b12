package shared

// Asynq task types
const (
	TypeMixLayer             = "theme:mix_layer"
	TypeCleanupPendingUpload = "maintenance:cleanup_pending_uploads"
)

// Asynq queue names
const (
	QueueThemes      = "themes"
	QueueMaintenance = "maintenance"
)

// Cache keys cho collaboration display views. Mọi writer chạm vào một
// collaboration (layer create/update/delete, mix hoàn tất) phải invalidate
// cả hai.
const (
	CollabCacheKeyPrefix = "collaboration:"
	CollabListCacheKey   = "collaborations:all"
)

// MixLayerPayload carries everything the worker needs to mix a layer with
// its parent recording
type MixLayerPayload struct {
	ThemeID   string `json:"theme_id"`
	LayerID   string `json:"layer_id"`
	SourceURL string `json:"source_url"`
	LayerURL  string `json:"layer_url"`
}

// CleanupPendingUploadsPayload là payload cho scheduled GC job
type CleanupPendingUploadsPayload struct{}
