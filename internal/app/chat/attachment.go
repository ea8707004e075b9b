package chat

import (
	"net/url"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"majlis/internal/app/message"
	"majlis/internal/pkg/errs"
)

const (
	// MaxAttachmentSizeMB is the maximum allowed file size in megabytes.
	MaxAttachmentSizeMB = 5

	// MaxAttachmentSize is the maximum allowed file size in bytes.
	MaxAttachmentSize = MaxAttachmentSizeMB * 1024 * 1024

	// MaxAttachmentNameLength bounds the file name, in characters.
	MaxAttachmentNameLength = 255

	// PresignedURLDuration is how long an upload URL stays valid.
	PresignedURLDuration = 5 * time.Minute
)

// ExtToMIME lists the accepted extensions and the MIME type each one must be declared with.
var ExtToMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
	".pdf":  "application/pdf",
	".txt":  "text/plain",
	".zip":  "application/zip",
}

// ValidateFileSize checks if the provided file size is within acceptable limits.
func ValidateFileSize(fileSize int64) *errs.CustomError {
	if fileSize <= 0 {
		return errs.NewError(errs.ErrInvalidParams)
	}

	if fileSize > MaxAttachmentSize {
		return errs.NewError(errs.ErrFileSizeTooLarge)
	}

	return nil
}

// ValidateFileType checks that fileName has an accepted extension matching mimeType.
func ValidateFileType(fileName string, mimeType string) *errs.CustomError {
	ext := strings.ToLower(filepath.Ext(fileName))

	expectedMIME, ok := ExtToMIME[ext]
	if !ok || expectedMIME != strings.ToLower(mimeType) {
		return errs.NewError(errs.ErrAttachmentInvalid)
	}

	return nil
}

// ValidateAttachment checks a selected file before it is attached to a draft. The type is filled in
// from the extension when the client left it empty.
func ValidateAttachment(a message.Attachment) (message.Attachment, *errs.CustomError) {
	a.Name = strings.TrimSpace(a.Name)

	if a.Name == "" || strings.ContainsAny(a.Name, `/\`) || utf8.RuneCountInString(a.Name) > MaxAttachmentNameLength {
		return a, errs.NewError(errs.ErrAttachmentInvalid)
	}

	if a.URL != "" {
		u, err := url.Parse(a.URL)
		if err != nil || (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
			return a, errs.NewError(errs.ErrAttachmentInvalid)
		}
	}

	if a.Type == "" {
		a.Type = ExtToMIME[strings.ToLower(filepath.Ext(a.Name))]
	}

	if err := ValidateFileType(a.Name, a.Type); err != nil {
		return a, err
	}

	a.Type = strings.ToLower(a.Type)
	return a, nil
}
