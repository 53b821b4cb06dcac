package uploads

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheck(t *testing.T) {
	cases := []struct {
		name string
		file File
		want error
	}{
		{"png", File{Name: "shot.png", MimeType: "image/png", Size: 2048}, nil},
		{"pdf with params", File{Name: "r.pdf", MimeType: "application/pdf; charset=binary", Size: 10}, nil},
		{"docx", File{Name: "spec.docx", MimeType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", Size: 10}, nil},
		{"rtf by extension", File{Name: "notes.rtf", Size: 10}, nil},
		{"exactly 10MB", File{Name: "big.pdf", MimeType: "application/pdf", Size: 10 << 20}, nil},
		{"over 10MB", File{Name: "big.pdf", MimeType: "application/pdf", Size: 10<<20 + 1}, ErrTooLarge},
		{"zip", File{Name: "src.zip", MimeType: "application/zip", Size: 10}, ErrUnsupportedType},
		{"exe", File{Name: "setup.exe", MimeType: "application/octet-stream", Size: 10}, ErrUnsupportedType},
		{"empty", File{Name: "a.png", MimeType: "image/png"}, ErrEmpty},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, Check(c.file))
		})
	}
}
