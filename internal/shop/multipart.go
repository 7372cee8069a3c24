package shop

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
)

// Multipart is a pre-encoded multipart/form-data body. It is built once so
// retries resend identical bytes.
type Multipart struct {
	data        []byte
	contentType string
}

// FilePart is a file attached to a multipart body.
type FilePart struct {
	Field    string
	Filename string
	Content  io.Reader
}

// NewMultipart encodes fields and files into a multipart body.
func NewMultipart(fields map[string]string, files ...FilePart) (*Multipart, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("write field %s: %w", name, err)
		}
	}
	for _, f := range files {
		part, err := w.CreateFormFile(f.Field, f.Filename)
		if err != nil {
			return nil, fmt.Errorf("create form file %s: %w", f.Field, err)
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return nil, fmt.Errorf("copy form file %s: %w", f.Field, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}
	return &Multipart{data: buf.Bytes(), contentType: w.FormDataContentType()}, nil
}

// ContentType returns the multipart content type including the boundary.
func (m *Multipart) ContentType() string {
	return m.contentType
}
