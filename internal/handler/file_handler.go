package handler

import (
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"majlis/internal/app/chat"
	"majlis/internal/app/message"
	"majlis/internal/pkg/auth/jwt"
	"majlis/internal/pkg/errs"
	"majlis/internal/pkg/logx"
	"majlis/internal/pkg/randx"
	"majlis/internal/pkg/req"
	"majlis/internal/pkg/resp"
)

// PresignUploadInput defines the JSON input structure for generating upload URL.
type PresignUploadInput struct {
	FileName string `json:"file_name"`
	MimeType string `json:"mime_type"`
	FileSize int64  `json:"file_size"`
}

// HandlePresignUploadURL returns a time-limited URL the browser can PUT the file to, together with
// the attachment to send once the upload has finished. Without object storage the attachment is a
// file-name placeholder and no URL is issued.
func HandlePresignUploadURL(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if jwt.GetPayloadFromContext(r) == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var input PresignUploadInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if err := chat.ValidateFileSize(input.FileSize); err != nil {
			resp.RespondError(w, r, err)
			return
		}

		attachment, customErr := chat.ValidateAttachment(message.Attachment{Name: input.FileName, Type: input.MimeType})
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if deps.StorageService == nil {
			resp.RespondSuccess(w, r, map[string]any{
				"presignedUrl": "",
				"attachment":   attachment,
			})
			return
		}

		fileKey, err := randx.ObjectKey(time.Now(), filepath.Ext(attachment.Name))
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		url, err := deps.StorageService.PresignUpload(
			r.Context(),
			fileKey,
			attachment.Type,
			input.FileSize,
			chat.PresignedURLDuration,
		)
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		attachment.URL = deps.StorageService.PublicURL(fileKey)

		resp.RespondSuccess(w, r, map[string]any{
			"presignedUrl": url,
			"fileKey":      fileKey,
			"attachment":   attachment,
		})
	}
}

// HandleUploadFile accepts the file as multipart field "file" and stores it through the server, for
// browsers that cannot PUT to the object store directly.
func HandleUploadFile(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if jwt.GetPayloadFromContext(r) == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		if customErr := req.SetupMultipart(w, r); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}
		defer file.Close()

		if customErr := chat.ValidateFileSize(header.Size); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		mimeType, _, _ := strings.Cut(header.Header.Get("Content-Type"), ";")

		attachment, customErr := chat.ValidateAttachment(message.Attachment{Name: header.Filename, Type: strings.TrimSpace(mimeType)})
		if customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if deps.StorageService == nil {
			resp.RespondSuccess(w, r, map[string]any{
				"attachment": attachment,
			})
			return
		}

		fileKey, err := randx.ObjectKey(time.Now(), filepath.Ext(attachment.Name))
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown, err))
			return
		}

		if err := deps.StorageService.Upload(r.Context(), fileKey, attachment.Type, file); err != nil {
			logx.Warn("upload: object store rejected file", "file_key", fileKey)
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		attachment.URL = deps.StorageService.PublicURL(fileKey)

		resp.RespondSuccess(w, r, map[string]any{
			"fileKey":    fileKey,
			"attachment": attachment,
		})
	}
}
