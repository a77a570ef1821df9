// Package firmware pushes firmware images to the device's HTTP updater.
package firmware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// FormField is the multipart field the device reads the image from.
const FormField = "update"

var ErrUploadFailed = errors.New("firmware upload failed")

// ProgressFunc is called as the request body is sent.
type ProgressFunc func(sent, total int64)

type Uploader struct {
	// Host is the device address, e.g. 192.168.4.1.
	Host   string
	Client *http.Client
}

// URL returns the update endpoint. A host with an http:// or https://
// scheme is kept as is.
func (u *Uploader) URL() string {
	host := strings.TrimSuffix(u.Host, "/")
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return host + "/update"
	}
	return "http://" + host + "/update"
}

// UploadFile uploads the image at path.
func (u *Uploader) UploadFile(ctx context.Context, path string, progress ProgressFunc) error {
	f, err := os.Open(path)
	if err != nil {
		return pkgerrors.Wrapf(err, "failed to open firmware image %s", path)
	}
	defer f.Close()

	return u.Upload(ctx, filepath.Base(path), f, progress)
}

// Upload sends the image read from r. Only HTTP 200 counts as success.
func (u *Uploader) Upload(ctx context.Context, filename string, r io.Reader, progress ProgressFunc) error {
	// The body is built in memory so the request carries a Content-Length;
	// the device updater does not take chunked uploads.
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile(FormField, filename)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to create multipart field")
	}
	if _, err := io.Copy(part, r); err != nil {
		return pkgerrors.Wrap(err, "failed to read firmware image")
	}
	if err := mw.Close(); err != nil {
		return pkgerrors.Wrap(err, "failed to finish multipart body")
	}

	total := int64(body.Len())
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.URL(), &progressReader{r: body, total: total, fn: progress})
	if err != nil {
		return pkgerrors.Wrap(err, "failed to create request")
	}
	req.ContentLength = total
	req.Header.Set("Content-Type", mw.FormDataContentType())

	client := u.Client
	if client == nil {
		client = http.DefaultClient
	}

	logrus.WithFields(logrus.Fields{
		"url":   u.URL(),
		"file":  filename,
		"bytes": total,
	}).Info("uploading firmware")

	resp, err := client.Do(req)
	if err != nil {
		return pkgerrors.Wrap(err, "failed to send firmware")
	}
	defer resp.Body.Close()

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if resp.StatusCode != http.StatusOK {
		return pkgerrors.Wrapf(ErrUploadFailed, "status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	logrus.WithField("response", strings.TrimSpace(string(msg))).Info("firmware uploaded")
	return nil
}

type progressReader struct {
	r     io.Reader
	total int64
	fn    ProgressFunc

	mu   sync.Mutex
	sent int64
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.fn != nil {
		p.mu.Lock()
		p.sent += int64(n)
		sent := p.sent
		p.mu.Unlock()
		p.fn(sent, p.total)
	}
	return n, err
}
