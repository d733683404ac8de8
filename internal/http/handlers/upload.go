package handlers

import (
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
)

const (
	uploadField         = "image"
	multipartFormMemory = 32 << 20
)

type UploadKind int

const (
	UploadEmpty UploadKind = iota
	UploadOne
	UploadMany
)

func (k UploadKind) String() string {
	switch k {
	case UploadOne:
		return "one"
	case UploadMany:
		return "many"
	default:
		return "empty"
	}
}

// Upload is the resolved image part of a scene request. Image and MimeType
// are only set for UploadOne.
type Upload struct {
	Kind     UploadKind
	Image    []byte
	MimeType string
	Files    int

	// Fields holds the non-file form values, or the query for raw bodies.
	Fields map[string][]string
}

func (u Upload) Field(name string) string {
	if v := u.Fields[name]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

// readUpload accepts either a multipart form with one "image" file or a raw
// image body.
func readUpload(r *http.Request) (Upload, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return readMultipart(r)
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		return Upload{}, err
	}
	up := Upload{Fields: r.URL.Query()}
	if len(raw) == 0 {
		return up, nil
	}
	up.Kind = UploadOne
	up.Files = 1
	up.Image = raw
	up.MimeType = mediaType
	return up, nil
}

func readMultipart(r *http.Request) (Upload, error) {
	if err := r.ParseMultipartForm(multipartFormMemory); err != nil {
		return Upload{}, err
	}
	form := r.MultipartForm
	defer func() { _ = form.RemoveAll() }()

	fields := map[string][]string{}
	for k, v := range r.URL.Query() {
		fields[k] = v
	}
	for k, v := range form.Value {
		fields[k] = v
	}

	files := form.File[uploadField]
	up := Upload{Files: len(files), Fields: fields}
	switch {
	case len(files) == 0:
		up.Kind = UploadEmpty
		return up, nil
	case len(files) > 1:
		up.Kind = UploadMany
		return up, nil
	}

	fh := files[0]
	f, err := fh.Open()
	if err != nil {
		return Upload{}, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	raw, err := io.ReadAll(f)
	if err != nil {
		return Upload{}, fmt.Errorf("read upload: %w", err)
	}
	if len(raw) == 0 {
		up.Kind = UploadEmpty
		return up, nil
	}
	up.Kind = UploadOne
	up.Image = raw
	up.MimeType, _, _ = mime.ParseMediaType(fh.Header.Get("Content-Type"))
	return up, nil
}

// dimension parses an optional positive pixel size; "" yields 0.
func dimension(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("must be a positive integer, got %q", raw)
	}
	return n, nil
}
