package inkpress

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
)

const (
	maxImageWidth = 1600
	jpegQuality   = 85
	maxUploadSize = 10 << 20 // 10MB
)

// allowedExtensions is the fixed set of file extensions permitted for
// upload, matched case-insensitively against the text after the last dot.
var allowedExtensions = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".pdf":  {},
	".docx": {},
}

// UploadRejectedError marks a policy rejection (missing file, bad
// extension, oversized payload) as opposed to a storage failure. Policy
// rejections surface as flash messages, never error pages.
type UploadRejectedError struct {
	Reason string
}

func (e *UploadRejectedError) Error() string {
	return e.Reason
}

// Uploader validates and stores incoming files in one flat directory.
type Uploader struct {
	dir string
}

// NewUploader creates an Uploader writing into dir.
func NewUploader(dir string) *Uploader {
	return &Uploader{dir: dir}
}

// Save validates the named payload against the extension allow-list,
// sanitizes the filename, and writes it to the upload directory. Name
// collisions get a numeric suffix instead of overwriting. Oversized
// png/jpg/jpeg images are downscaled before writing.
//
// Returns the stored filename, an *UploadRejectedError when rejected by
// policy, or a wrapped error on storage failure.
func (u *Uploader) Save(name string, src io.Reader) (string, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "", &UploadRejectedError{Reason: "no file selected"}
	}

	origExt := filepath.Ext(name)
	ext := strings.ToLower(origExt)
	if _, ok := allowedExtensions[ext]; !ok {
		return "", &UploadRejectedError{Reason: "file type not allowed"}
	}

	stem := Slugify(strings.TrimSuffix(name, origExt))
	if stem == "" {
		stem = "file"
	}

	data, err := io.ReadAll(io.LimitReader(src, maxUploadSize+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) > maxUploadSize {
		return "", &UploadRejectedError{Reason: "file too large (max 10MB)"}
	}

	if ext == ".png" || ext == ".jpg" || ext == ".jpeg" {
		data = downscaleImage(data, ext)
	}

	if err := os.MkdirAll(u.dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	stored := u.uniqueName(stem, ext)
	if err := os.WriteFile(filepath.Join(u.dir, stored), data, 0o644); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	return stored, nil
}

// uniqueName appends a counter when the sanitized name is already taken,
// so an upload never overwrites an existing file.
func (u *Uploader) uniqueName(stem, ext string) string {
	candidate := stem + ext
	counter := 1
	for {
		if _, err := os.Stat(filepath.Join(u.dir, candidate)); os.IsNotExist(err) {
			return candidate
		}
		counter++
		candidate = fmt.Sprintf("%s-%d%s", stem, counter, ext)
	}
}

// downscaleImage resizes an image wider than maxImageWidth, re-encoding
// it in its own format. Payloads that do not decode (or are already
// small enough) are stored verbatim.
func downscaleImage(data []byte, ext string) []byte {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return data
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxImageWidth {
		return data
	}

	newH := h * maxImageWidth / w
	dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	switch ext {
	case ".png":
		err = png.Encode(&buf, dst)
	default:
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality})
	}
	if err != nil {
		return data
	}
	return buf.Bytes()
}
