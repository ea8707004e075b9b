package handler

import (
	"errors"
	"net/http"

	"majlis/internal/pkg/errs"
	"majlis/internal/pkg/logx"
	"majlis/internal/pkg/pow"
	"majlis/internal/pkg/req"
	"majlis/internal/pkg/resp"
)

// HandlePowChallenge issues a nonce for the registration challenge.
func HandlePowChallenge(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondSuccess(w, r, map[string]any{
			"nonce":      deps.Pow.GenerateNonce(),
			"difficulty": deps.Pow.Difficulty(),
		})
	}
}

type PowVerifyInput struct {
	Nonce   string `json:"nonce"`
	Counter string `json:"counter"`
}

// HandlePowVerify trades a solved challenge for a single-use proof token.
func HandlePowVerify(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input PowVerifyInput
		if customErr := req.BindJSON(w, r, &input); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		if input.Nonce == "" || input.Counter == "" {
			resp.RespondError(w, r, errs.NewError(errs.ErrInvalidParams))
			return
		}

		token, err := deps.Pow.ValidateProof(input.Nonce, input.Counter)
		if err != nil {
			if !errors.Is(err, pow.ErrProofInsufficient) && !errors.Is(err, pow.ErrNonceInvalid) {
				logx.Error(err, "pow: proof validation failed")
			}
			resp.RespondError(w, r, errs.NewError(errs.ErrPowChallengeInvalid))
			return
		}

		resp.RespondSuccess(w, r, map[string]any{
			"token": token,
		})
	}
}
