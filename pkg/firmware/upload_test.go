package firmware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUpdateServer(t *testing.T, status int, got *[]byte) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/update" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		f, _, err := r.FormFile(FormField)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		*got = b
		w.WriteHeader(status)
		_, _ = w.Write([]byte("done"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestUploadSuccess(t *testing.T) {
	var got []byte
	srv := newUpdateServer(t, http.StatusOK, &got)

	image := bytes.Repeat([]byte{0xE9, 0x01}, 64*1024)
	var last, total int64
	u := &Uploader{Host: srv.URL}
	err := u.Upload(context.Background(), "firmware.bin", bytes.NewReader(image), func(sent, tot int64) {
		assert.GreaterOrEqual(t, sent, last)
		last, total = sent, tot
	})

	require.NoError(t, err)
	assert.Equal(t, image, got)
	assert.Equal(t, total, last)
	assert.Greater(t, total, int64(len(image)))
}

func TestUploadFailureStatus(t *testing.T) {
	var got []byte
	srv := newUpdateServer(t, http.StatusInternalServerError, &got)

	u := &Uploader{Host: srv.URL}
	err := u.Upload(context.Background(), "firmware.bin", bytes.NewReader([]byte("x")), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUploadFailed)
	assert.Contains(t, err.Error(), "500")
}

func TestUploadFile(t *testing.T) {
	var got []byte
	srv := newUpdateServer(t, http.StatusOK, &got)

	p := filepath.Join(t.TempDir(), "fw.bin")
	require.NoError(t, os.WriteFile(p, []byte("image"), 0644))

	u := &Uploader{Host: srv.URL}
	require.NoError(t, u.UploadFile(context.Background(), p, nil))
	assert.Equal(t, []byte("image"), got)

	assert.Error(t, u.UploadFile(context.Background(), filepath.Join(t.TempDir(), "nope.bin"), nil))
}

func TestURL(t *testing.T) {
	assert.Equal(t, "http://192.168.4.1/update", (&Uploader{Host: "192.168.4.1"}).URL())
	assert.Equal(t, "https://bms.example/update", (&Uploader{Host: "https://bms.example/"}).URL())
}
