package handler

import (
	"errors"
	"net/http"

	"majlis/internal/app/chat"
	"majlis/internal/app/message"
	"majlis/internal/app/user"
	"majlis/internal/pkg/auth/jwt"
	"majlis/internal/pkg/errs"
	"majlis/internal/pkg/req"
	"majlis/internal/pkg/resp"
)

// HandleGetMessages returns the visible history, oldest first.
func HandleGetMessages(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !deps.storeReady() {
			resp.RespondError(w, r, errs.NewError(errs.ErrStoreNotConfigured))
			return
		}

		messages, err := deps.Messages.GetMessages(r.Context())
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrStoreUnavailable))
			return
		}

		if messages == nil {
			messages = []message.Message{}
		}

		resp.RespondSuccess(w, r, map[string]any{
			"messages": messages,
		})
	}
}

type SendMessageInput struct {
	Text       string              `json:"text"`
	Attachment *message.Attachment `json:"attachment,omitempty"`
}

// HandleSendMessage stores a message from the bearer of the session token. Open tabs receive it
// through their own subscriptions.
func HandleSendMessage(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !deps.storeReady() {
			resp.RespondError(w, r, errs.NewError(errs.ErrStoreNotConfigured))
			return
		}

		identity := jwt.GetPayloadFromContext(r)
		if identity == nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrUnauthorized))
			return
		}

		var input SendMessageInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		draft := message.Draft{Text: input.Text}
		if input.Attachment != nil {
			attachment, customErr := chat.ValidateAttachment(*input.Attachment)
			if customErr != nil {
				resp.RespondError(w, r, customErr)
				return
			}
			draft.Attachment = &attachment
		}

		sender := user.User{ID: identity.ID, Name: identity.Name}

		if err := deps.Messages.SendMessage(r.Context(), sender, draft); err != nil {
			resp.RespondError(w, r, sendError(err))
			return
		}

		resp.RespondSuccess(w, r, nil)
	}
}

// sendError maps a SendMessage failure to its error code.
func sendError(err error) *errs.CustomError {
	switch {
	case errors.Is(err, message.ErrEmpty):
		return errs.NewError(errs.ErrMessageEmpty)
	case errors.Is(err, message.ErrTooLong):
		return errs.NewError(errs.ErrMessageContentTooLong)
	default:
		return errs.NewError(errs.ErrMessageSendFailed)
	}
}
