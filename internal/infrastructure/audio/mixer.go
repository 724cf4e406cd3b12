package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"jamin-backend/internal/config"
)

// Mixer combines two recordings into a single track by shelling out to
// ffmpeg. Each invocation works in its own temp directory, so concurrent
// mixes never collide. The pipeline has no retry of its own; retry, if
// desired, is the caller's responsibility.

var (
	// ErrBinaryUnavailable: mixing phải fail loudly, không hang hay silently skip
	ErrBinaryUnavailable = errors.New("audio processor binary unavailable")

	// ErrEmptyOutput: zero-byte hoặc missing output là failure, không phải success
	ErrEmptyOutput = errors.New("audio processor produced empty output")
)

// DownloadError reports a source recording that could not be fetched
type DownloadError struct {
	URL    string
	Status int
	Err    error
}

func (e *DownloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to download %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("failed to download %s: status %d", e.URL, e.Status)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// ProcessError reports a non-zero ffmpeg exit
type ProcessError struct {
	Stderr string
	Err    error
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("audio processor failed: %v: %s", e.Err, e.Stderr)
}

func (e *ProcessError) Unwrap() error { return e.Err }

// Uploader is the slice of object storage the mixer needs
type Uploader interface {
	UploadWithRetry(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

type Mixer struct {
	cfg      config.MixerConfig
	uploader Uploader
	client   *http.Client

	// Binary path resolved lazily, once per instance.
	// Injectable qua config nên tests có thể substitute fake binary.
	resolveOnce sync.Once
	binPath     string
	binErr      error
}

func NewMixer(cfg config.MixerConfig, uploader Uploader) *Mixer {
	return &Mixer{
		cfg:      cfg,
		uploader: uploader,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// resolveBinary tries the configured path first, then the ordered fallback
// list, then PATH. Deployment images install ffmpeg in different places.
func (m *Mixer) resolveBinary() (string, error) {
	m.resolveOnce.Do(func() {
		candidates := append([]string{m.cfg.BinaryPath}, m.cfg.FallbackPaths...)
		for _, candidate := range candidates {
			if candidate == "" {
				continue
			}
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				m.binPath = candidate
				return
			}
		}

		if path, err := exec.LookPath("ffmpeg"); err == nil {
			m.binPath = path
			return
		}

		m.binErr = fmt.Errorf("%w: tried %s", ErrBinaryUnavailable, strings.Join(candidates, ", "))
	})

	return m.binPath, m.binErr
}

// Mix downloads both source recordings, mixes them with longest-duration
// semantics (output length = max of the two input lengths) and uploads the
// result. Returns the stored mix URL.
func (m *Mixer) Mix(ctx context.Context, themeID string, sourceURL, layerURL string) (string, error) {
	bin, err := m.resolveBinary()
	if err != nil {
		log.Error().Err(err).Msg("Mixing aborted: no audio processor")
		return "", err
	}

	// Scoped temp dir, guaranteed cleanup trên mọi exit path
	tmpDir, err := os.MkdirTemp("", "jamin-mix-")
	if err != nil {
		return "", fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	inputA := filepath.Join(tmpDir, "source"+extensionOf(sourceURL))
	inputB := filepath.Join(tmpDir, "layer"+extensionOf(layerURL))
	output := filepath.Join(tmpDir, "mix.mp3")

	if err := m.download(ctx, sourceURL, inputA); err != nil {
		log.Error().Err(err).Str("url", sourceURL).Msg("Failed to download source recording")
		return "", err
	}
	if err := m.download(ctx, layerURL, inputB); err != nil {
		log.Error().Err(err).Str("url", layerURL).Msg("Failed to download layer recording")
		return "", err
	}

	runCtx := ctx
	if m.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, m.cfg.Timeout)
		defer cancel()
	}

	// amix với duration=longest: output không bị truncate theo input ngắn hơn
	cmd := exec.CommandContext(runCtx, bin,
		"-y",
		"-i", inputA,
		"-i", inputB,
		"-filter_complex", "amix=inputs=2:duration=longest:dropout_transition=2",
		"-c:a", "libmp3lame",
		"-q:a", "2",
		output,
	)

	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		procErr := &ProcessError{Stderr: tail(stderr.String(), 512), Err: err}
		log.Error().Err(procErr).Str("theme_id", themeID).Msg("Audio processor exited with error")
		return "", procErr
	}

	// Verify output tồn tại và non-empty
	info, err := os.Stat(output)
	if err != nil {
		log.Error().Str("theme_id", themeID).Msg("Audio processor produced no output file")
		return "", ErrEmptyOutput
	}
	if info.Size() == 0 {
		log.Error().Str("theme_id", themeID).Msg("Audio processor produced zero-byte output")
		return "", ErrEmptyOutput
	}

	data, err := os.ReadFile(output)
	if err != nil {
		return "", fmt.Errorf("failed to read mixed output: %w", err)
	}

	key := fmt.Sprintf("mixes/%s/%d-mix.mp3", themeID, time.Now().UnixNano())
	url, err := m.uploader.UploadWithRetry(ctx, key, data, "audio/mpeg")
	if err != nil {
		log.Error().Err(err).Str("theme_id", themeID).Msg("Failed to upload mixed track")
		return "", fmt.Errorf("failed to upload mix: %w", err)
	}

	log.Info().
		Str("theme_id", themeID).
		Str("mix_url", url).
		Int64("size_bytes", info.Size()).
		Msg("Mixed track uploaded")

	return url, nil
}

func (m *Mixer) download(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &DownloadError{URL: url, Err: err}
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return &DownloadError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &DownloadError{URL: url, Status: resp.StatusCode}
	}

	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dest, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return &DownloadError{URL: url, Err: err}
	}

	return nil
}

func extensionOf(url string) string {
	ext := filepath.Ext(url)
	// Strip query strings từ presigned URLs
	if i := strings.IndexAny(ext, "?#"); i >= 0 {
		ext = ext[:i]
	}
	if ext == "" || len(ext) > 6 {
		return ".audio"
	}
	return ext
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
