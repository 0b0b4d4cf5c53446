package domain

import (
	"path/filepath"
	"strings"
)

// FileKind is the lower-cased extension of an accepted resume file
type FileKind string

const (
	KindPDF  FileKind = "pdf"
	KindDOCX FileKind = "docx"
	KindPNG  FileKind = "png"
	KindJPG  FileKind = "jpg"
	KindJPEG FileKind = "jpeg"
	KindWEBP FileKind = "webp"
)

// AllowedKinds lists every accepted extension
var AllowedKinds = []FileKind{KindPDF, KindDOCX, KindPNG, KindJPG, KindJPEG, KindWEBP}

// KindFromFilename resolves the kind from the file extension. ok is false
// when there is no extension or it is not accepted.
func KindFromFilename(name string) (FileKind, bool) {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return "", false
	}
	kind := FileKind(strings.ToLower(ext))
	for _, k := range AllowedKinds {
		if k == kind {
			return kind, true
		}
	}
	return "", false
}

// IsText reports whether the kind carries extractable text
func (k FileKind) IsText() bool {
	return k == KindPDF || k == KindDOCX
}

// IsImage reports whether the kind is a raster image
func (k FileKind) IsImage() bool {
	switch k {
	case KindPNG, KindJPG, KindJPEG, KindWEBP:
		return true
	}
	return false
}

// MIMEType returns the content type sent along with image bytes
func (k FileKind) MIMEType() string {
	switch k {
	case KindPNG:
		return "image/png"
	case KindJPG, KindJPEG:
		return "image/jpeg"
	case KindWEBP:
		return "image/webp"
	case KindPDF:
		return "application/pdf"
	case KindDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	return "application/octet-stream"
}
