package storage

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Media payload normalization.
//
// The submitting client's transport layer is not statically known: browser
// recorders hand the recording over as a multipart file, as raw bytes, or as
// a base64 data-URL string. Each shape is an explicit MediaPayload variant
// with its own normalize step instead of runtime type switching on
// interface{} payloads.

const maxMediaSize = 50 * 1024 * 1024 // 50MB

var (
	ErrNoPayload          = errors.New("no media payload provided")
	ErrUnsupportedPayload = errors.New("unsupported media payload representation")
	ErrMediaTooLarge      = fmt.Errorf("media exceeds %dMB", maxMediaSize/(1024*1024))
)

// MediaFile is the single uploadable representation every payload shape
// normalizes into.
type MediaFile struct {
	Name        string
	Data        []byte
	ContentType string
}

func (f *MediaFile) Size() int64 {
	return int64(len(f.Data))
}

// MediaPayload is one transport-specific shape of an uploaded recording
type MediaPayload interface {
	normalize() (*MediaFile, error)
}

// BytesPayload là raw bytes (vd: body của một PUT request)
type BytesPayload struct {
	Name string
	Data []byte
}

func (p BytesPayload) normalize() (*MediaFile, error) {
	if len(p.Data) == 0 {
		return nil, ErrNoPayload
	}
	return buildMediaFile(p.Name, p.Data)
}

// DataURLPayload là base64 data-URL string (vd: "data:audio/webm;base64,...")
type DataURLPayload struct {
	Name string
	URL  string
}

func (p DataURLPayload) normalize() (*MediaFile, error) {
	if p.URL == "" {
		return nil, ErrNoPayload
	}

	if !strings.HasPrefix(p.URL, "data:") {
		return nil, fmt.Errorf("%w: not a data URL", ErrUnsupportedPayload)
	}

	// Format: data:<mediatype>;base64,<payload>
	idx := strings.Index(p.URL, ",")
	if idx < 0 {
		return nil, fmt.Errorf("%w: malformed data URL", ErrUnsupportedPayload)
	}

	meta := p.URL[len("data:"):idx]
	if !strings.HasSuffix(meta, ";base64") {
		return nil, fmt.Errorf("%w: data URL is not base64 encoded", ErrUnsupportedPayload)
	}

	data, err := base64.StdEncoding.DecodeString(p.URL[idx+1:])
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base64 payload", ErrUnsupportedPayload)
	}
	if len(data) == 0 {
		return nil, ErrNoPayload
	}

	return buildMediaFile(p.Name, data)
}

// MultipartPayload là file part của một multipart form submission
type MultipartPayload struct {
	FileHeader *multipart.FileHeader
}

func (p MultipartPayload) normalize() (*MediaFile, error) {
	if p.FileHeader == nil {
		return nil, ErrNoPayload
	}
	if p.FileHeader.Size > maxMediaSize {
		return nil, ErrMediaTooLarge
	}

	file, err := p.FileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open multipart file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read multipart file: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNoPayload
	}

	return buildMediaFile(p.FileHeader.Filename, data)
}

// NormalizeMedia converts any supported payload shape into a MediaFile with
// sniffed content type. A nil payload is a distinct, recoverable failure so
// the creation action can report a field-level "recording required" error.
func NormalizeMedia(p MediaPayload) (*MediaFile, error) {
	if p == nil {
		return nil, ErrNoPayload
	}
	return p.normalize()
}

func buildMediaFile(name string, data []byte) (*MediaFile, error) {
	if int64(len(data)) > maxMediaSize {
		return nil, ErrMediaTooLarge
	}

	// Content type từ bytes, không tin filename extension
	mtype := mimetype.Detect(data)

	if name == "" {
		name = "recording" + mtype.Extension()
	}

	return &MediaFile{
		Name:        name,
		Data:        data,
		ContentType: mtype.String(),
	}, nil
}
