package uploads

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/require"

	"chat-sync/domain"
	cerrors "chat-sync/errors"
)

// pngHeader is enough of a real PNG for content-type sniffing.
var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func Test_Upload_RejectsOversizedBlob(t *testing.T) {
	req := require.New(t)
	u := NewUploader(slogt.New(t), "http://unused", Limits{Image: 4}, time.Second)

	_, err := u.Upload(context.Background(), pngHeader, domain.KindImage, "big.png")

	req.ErrorIs(err, cerrors.ErrUploadTooLarge)
}

func Test_Upload_ZeroLimitMeansUnrestricted(t *testing.T) {
	req := require.New(t)
	server := newUploadServer(t, http.StatusCreated, `{"url": "https://cdn/big.png"}`)
	u := NewUploader(slogt.New(t), server.URL, Limits{}, time.Second)

	got, err := u.Upload(context.Background(), pngHeader, domain.KindImage, "big.png")

	req.NoError(err)
	req.Equal("https://cdn/big.png", got.Media.URL)
}

func Test_Upload_ReturnsDescriptor(t *testing.T) {
	req := require.New(t)
	var receivedName string
	var receivedType string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		receivedName = r.Header.Get("X-File-Name")
		receivedType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"url": "https://cdn/cat.png"}`))
	}))
	t.Cleanup(server.Close)
	u := NewUploader(slogt.New(t), server.URL, Limits{Image: 1 << 20}, time.Second)

	got, err := u.Upload(context.Background(), pngHeader, domain.KindImage, "cat.png")

	req.NoError(err)
	req.Equal(domain.KindImage, got.Kind)
	req.Equal("https://cdn/cat.png", got.Media.URL)
	req.Equal("cat.png", got.Media.FileName)
	req.Equal(int64(len(pngHeader)), got.Media.FileSize)
	req.Equal("cat.png", receivedName)
	req.Equal("image/png", receivedType)
}

func Test_Upload_ServerErrorAbortsSend(t *testing.T) {
	req := require.New(t)
	server := newUploadServer(t, http.StatusInternalServerError, "")
	u := NewUploader(slogt.New(t), server.URL, Limits{}, time.Second)

	_, err := u.Upload(context.Background(), pngHeader, domain.KindImage, "cat.png")

	req.ErrorIs(err, cerrors.ErrUploadFailed)
}

func Test_KindFor_SniffsContent(t *testing.T) {
	req := require.New(t)

	req.Equal(domain.KindImage, KindFor(pngHeader))
	req.Equal(domain.KindFile, KindFor([]byte("plain text attachment")))
}

func newUploadServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}
