package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"majlis/internal/app/message"
	"majlis/internal/pkg/errs"
)

func TestValidateAttachment(t *testing.T) {
	a, err := ValidateAttachment(message.Attachment{Name: " Photo.PNG ", Type: "IMAGE/PNG"})
	require.Nil(t, err)
	assert.Equal(t, message.Attachment{Name: "Photo.PNG", Type: "image/png"}, a)

	a, err = ValidateAttachment(message.Attachment{Name: "notes.txt", URL: "https://cdn.example.com/attachments/x.txt"})
	require.Nil(t, err)
	assert.Equal(t, "text/plain", a.Type)
}

func TestValidateAttachmentRejects(t *testing.T) {
	cases := map[string]message.Attachment{
		"empty name":      {Name: "  "},
		"path in name":    {Name: "../etc/passwd.txt"},
		"unknown ext":     {Name: "setup.exe"},
		"mismatched type": {Name: "a.png", Type: "image/jpeg"},
		"long name":       {Name: strings.Repeat("a", MaxAttachmentNameLength) + ".png"},
		"script url":      {Name: "a.png", URL: "javascript:alert(1)"},
	}

	for name, a := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ValidateAttachment(a)
			require.NotNil(t, err)
			assert.Equal(t, errs.ErrAttachmentInvalid, err.Code)
		})
	}
}

func TestValidateFileSize(t *testing.T) {
	assert.Nil(t, ValidateFileSize(1024))
	assert.Equal(t, errs.ErrInvalidParams, ValidateFileSize(0).Code)
	assert.Equal(t, errs.ErrFileSizeTooLarge, ValidateFileSize(MaxAttachmentSize+1).Code)
}
