package handler

import (
	"net/http"

	"majlis/internal/app/chat"
	"majlis/internal/app/message"
	"majlis/internal/pkg/errs"
	"majlis/internal/pkg/resp"
)

// HandleGetConfig tells the browser which screen it can show before it opens a socket.
func HandleGetConfig(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		configured := deps.storeReady()

		data := map[string]any{
			"configured":        configured,
			"driver":            deps.Config.StoreDriver,
			"attachments":       deps.StorageService != nil,
			"maxAttachmentSize": chat.MaxAttachmentSize,
			"maxTextLength":     message.MaxTextLength,
			"powDifficulty":     deps.Pow.Difficulty(),
		}
		if !configured {
			data["notice"] = errs.Message(errs.ErrStoreNotConfigured)
		}

		resp.RespondSuccess(w, r, data)
	}
}
