// Package uploads holds the attachment policy shared by the API and the console.
package uploads

import (
	"errors"
	"mime"
	"path/filepath"
	"strings"

	"opsdesk/src/config"
)

var (
	ErrTooLarge        = errors.New("file exceeds the 10MB limit")
	ErrUnsupportedType = errors.New("file type is not allowed")
	ErrEmpty           = errors.New("file is empty")
)

var allowedTypes = map[string]bool{
	"application/pdf":    true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   true,
	"application/vnd.ms-powerpoint":                                             true,
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": true,
	"application/rtf": true,
	"text/rtf":        true,
}

var extTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".rtf":  "application/rtf",
}

// File is the metadata the policy looks at.
type File struct {
	Name     string
	MimeType string
	Size     int64
}

// MimeType returns the declared type without parameters, or the type implied
// by the file extension when nothing was declared.
func MimeType(name string, declared string) string {
	if declared != "" && declared != "application/octet-stream" {
		if mt, _, err := mime.ParseMediaType(declared); err == nil {
			return strings.ToLower(mt)
		}
	}
	ext := strings.ToLower(filepath.Ext(name))
	if mt, ok := extTypes[ext]; ok {
		return mt
	}
	if byExt := mime.TypeByExtension(ext); byExt != "" {
		mt, _, _ := mime.ParseMediaType(byExt)
		return mt
	}
	return strings.ToLower(declared)
}

func Allowed(mimeType string) bool {
	if strings.HasPrefix(mimeType, "image/") {
		return true
	}
	return allowedTypes[mimeType]
}

func Check(f File) error {
	if f.Size > config.MAX_UPLOAD_SIZE {
		return ErrTooLarge
	}
	if f.Size == 0 {
		return ErrEmpty
	}
	if !Allowed(MimeType(f.Name, f.MimeType)) {
		return ErrUnsupportedType
	}
	return nil
}
