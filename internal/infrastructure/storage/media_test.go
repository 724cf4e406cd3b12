package storage

import (
	"bytes"
	"encoding/base64"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wavHeader là 44-byte RIFF/WAVE header, đủ cho mimetype sniffing
func wavBytes() []byte {
	header := []byte("RIFF\x24\x00\x00\x00WAVEfmt ")
	return append(header, make([]byte, 64)...)
}

func TestNormalizeMedia_NilPayload(t *testing.T) {
	file, err := NormalizeMedia(nil)
	assert.Nil(t, file)
	assert.ErrorIs(t, err, ErrNoPayload)
}

func TestNormalizeMedia_BytesPayload(t *testing.T) {
	data := wavBytes()

	file, err := NormalizeMedia(BytesPayload{Name: "take1.wav", Data: data})
	require.NoError(t, err)

	assert.Equal(t, "take1.wav", file.Name)
	assert.Equal(t, data, file.Data)
	assert.Equal(t, int64(len(data)), file.Size())
	assert.Contains(t, file.ContentType, "audio/wav")
}

func TestNormalizeMedia_BytesPayloadEmpty(t *testing.T) {
	_, err := NormalizeMedia(BytesPayload{Name: "take1.wav"})
	assert.ErrorIs(t, err, ErrNoPayload)
}

func TestNormalizeMedia_GeneratedNameFromSniffedType(t *testing.T) {
	file, err := NormalizeMedia(BytesPayload{Data: wavBytes()})
	require.NoError(t, err)

	// Tên sinh từ sniffed MIME type, không phải từ input
	assert.Equal(t, "recording.wav", file.Name)
}

func TestNormalizeMedia_DataURLPayload(t *testing.T) {
	data := wavBytes()
	url := "data:audio/wav;base64," + base64.StdEncoding.EncodeToString(data)

	file, err := NormalizeMedia(DataURLPayload{Name: "clip.wav", URL: url})
	require.NoError(t, err)

	// Decoded bytes phải giống hệt original
	assert.Equal(t, data, file.Data)
	assert.Equal(t, "clip.wav", file.Name)
}

func TestNormalizeMedia_DataURLRejectsNonDataURL(t *testing.T) {
	_, err := NormalizeMedia(DataURLPayload{URL: "https://example.com/file.mp3"})
	assert.ErrorIs(t, err, ErrUnsupportedPayload)
}

func TestNormalizeMedia_DataURLRejectsMalformed(t *testing.T) {
	cases := map[string]string{
		"missing comma":  "data:audio/wav;base64",
		"not base64":     "data:audio/wav;charset=utf-8,hello",
		"invalid base64": "data:audio/wav;base64,!!!not-base64!!!",
	}

	for name, url := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := NormalizeMedia(DataURLPayload{URL: url})
			assert.ErrorIs(t, err, ErrUnsupportedPayload)
		})
	}
}

func TestNormalizeMedia_DataURLEmpty(t *testing.T) {
	_, err := NormalizeMedia(DataURLPayload{})
	assert.ErrorIs(t, err, ErrNoPayload)
}

func TestNormalizeMedia_MultipartPayload(t *testing.T) {
	data := wavBytes()

	// Build một multipart request thật để lấy FileHeader
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("recording", "live-take.wav")
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/themes", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))

	fh := req.MultipartForm.File["recording"][0]

	file, err := NormalizeMedia(MultipartPayload{FileHeader: fh})
	require.NoError(t, err)

	assert.Equal(t, "live-take.wav", file.Name)
	assert.Equal(t, data, file.Data)
}

func TestNormalizeMedia_MultipartNilHeader(t *testing.T) {
	_, err := NormalizeMedia(MultipartPayload{})
	assert.ErrorIs(t, err, ErrNoPayload)
}

func TestNormalizeMedia_TooLarge(t *testing.T) {
	_, err := NormalizeMedia(BytesPayload{
		Name: "huge.wav",
		Data: make([]byte, maxMediaSize+1),
	})
	assert.ErrorIs(t, err, ErrMediaTooLarge)
}
