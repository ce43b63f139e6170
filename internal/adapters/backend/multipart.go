package backend

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/textproto"
	"strings"

	"github.com/google/uuid"
	"github.com/secureops/secureops-client/internal/domain/job"
)

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// uploadForm streams the upload form through a pipe. Body may be called
// again for a retry; every call reopens the file and writes the same
// boundary, so the declared content type stays valid.
type uploadForm struct {
	file     job.File
	category job.Category
	boundary string
}

func newUploadForm(file job.File, category job.Category) *uploadForm {
	return &uploadForm{
		file:     file,
		category: category,
		boundary: "secureops-" + strings.ReplaceAll(uuid.NewString(), "-", ""),
	}
}

func (f *uploadForm) contentType() string {
	return "multipart/form-data; boundary=" + f.boundary
}

func (f *uploadForm) Body() (io.ReadCloser, error) {
	if f.file.Open == nil {
		return nil, fmt.Errorf("file %q has no content", f.file.Name)
	}
	src, err := f.file.Open()
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", f.file.Name, err)
	}

	pr, pw := io.Pipe()
	go func() {
		defer src.Close()
		pw.CloseWithError(f.write(pw, src))
	}()
	return pr, nil
}

func (f *uploadForm) write(w io.Writer, src io.Reader) error {
	mw := multipart.NewWriter(w)
	if err := mw.SetBoundary(f.boundary); err != nil {
		return err
	}

	if err := mw.WriteField("upload_type", f.category.String()); err != nil {
		return err
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="files"; filename="%s"`, quoteEscaper.Replace(f.file.Name)))
	ct := f.file.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)

	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, src); err != nil {
		return err
	}
	return mw.Close()
}
