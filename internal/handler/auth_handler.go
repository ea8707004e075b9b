/*
Package handler provides HTTP handler functions for registration and login.
*/
package handler

import (
	"net/http"

	"majlis/internal/app/auth"
	"majlis/internal/pkg/auth/jwt"
	"majlis/internal/pkg/errs"
	"majlis/internal/pkg/logx"
	"majlis/internal/pkg/req"
	"majlis/internal/pkg/resp"
)

type CredentialsInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// HandleRegister creates an account. It does not sign the caller in.
func HandleRegister(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !deps.storeReady() {
			resp.RespondError(w, r, errs.NewError(errs.ErrStoreNotConfigured))
			return
		}

		if deps.Pow.Enabled() && !deps.Pow.ConsumeProofToken(r) {
			resp.RespondError(w, r, errs.NewError(errs.ErrPowChallengeRequired))
			return
		}

		var input CredentialsInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		result := deps.Credentials.Register(r.Context(), input.Username, input.Password)
		if !result.Success {
			respondAuthFailure(w, r, result)
			return
		}

		resp.RespondSuccessMessage(w, r, result.Message, map[string]any{
			"user": result.User,
		})
	}
}

// HandleLogin verifies credentials and issues a session token. The token is accepted both as a
// bearer token and as the token query parameter of /ws.
func HandleLogin(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !deps.storeReady() {
			resp.RespondError(w, r, errs.NewError(errs.ErrStoreNotConfigured))
			return
		}

		var input CredentialsInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		result := deps.Credentials.Login(r.Context(), input.Username, input.Password)
		if !result.Success {
			respondAuthFailure(w, r, result)
			return
		}

		payload := &jwt.Payload{
			ID:   result.User.ID,
			Name: result.User.Name,
		}

		token, err := jwt.GenerateToken(payload, deps.Config.JWTSecret, jwt.SessionExpiration)
		if err != nil {
			logx.Error(err, "login: jwt generation failed", "user_id", result.User.ID)
			resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
			return
		}

		resp.RespondSuccessMessage(w, r, result.Message, map[string]any{
			"token": token,
			"user":  result.User,
		})
	}
}

// respondAuthFailure sends the store's message verbatim under its error code.
func respondAuthFailure(w http.ResponseWriter, r *http.Request, result auth.Result) {
	customErr := errs.NewError(result.Code)
	customErr.Message = result.Message
	resp.RespondError(w, r, customErr)
}
