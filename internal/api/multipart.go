package api

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
)

// MultipartBody is a multipart/form-data request body.
//
// The content type, including the boundary, comes from the writer; callers
// never set it themselves.
type MultipartBody struct {
	buf    bytes.Buffer
	w      *multipart.Writer
	closed bool
}

// NewMultipartBody creates an empty [MultipartBody].
func NewMultipartBody() *MultipartBody {
	m := &MultipartBody{}
	m.w = multipart.NewWriter(&m.buf)
	return m
}

// WriteField adds a plain form field.
func (m *MultipartBody) WriteField(name, value string) error {
	return m.w.WriteField(name, value)
}

// WriteFile adds a file part with the given content type.
func (m *MultipartBody) WriteFile(field, filename, contentType string, r io.Reader) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)

	part, err := m.w.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("failed to copy %s: %w", filename, err)
	}
	return nil
}

// ContentType returns the multipart content type with its boundary.
func (m *MultipartBody) ContentType() string {
	return m.w.FormDataContentType()
}

// Reader finalizes the body and returns its contents.
func (m *MultipartBody) Reader() (io.Reader, error) {
	if !m.closed {
		if err := m.w.Close(); err != nil {
			return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
		}
		m.closed = true
	}
	return bytes.NewReader(m.buf.Bytes()), nil
}
