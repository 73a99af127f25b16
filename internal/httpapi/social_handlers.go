package httpapi

import (
	"errors"
	"net/http"

	"kauth.org/internal/audit"
	"kauth.org/internal/kakao"
	"kauth.org/internal/member"
	"kauth.org/internal/obs"
)

// handleSocialLogin exchanges a provider access token (query parameter
// accessToken) for the member's claims plus an access/refresh token pair.
// The response body is the claims mapping itself.
func (a *API) handleSocialLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}

	claims, err := a.social.Login(r.Context(), r.URL.Query().Get("accessToken"))
	if err != nil {
		a.handleLoginError(w, r, err)
		return
	}

	obs.CountLogin("ok")
	_ = audit.LogEvent(r.Context(), "login.social", map[string]any{
		"member": claims["email"],
		"social": claims["social"],
	})
	writeJSON(w, http.StatusOK, claims)
}

func (a *API) handleLoginError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, member.ErrInvalidInput):
		obs.CountLogin("invalid_input")
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, kakao.ErrUpstream):
		obs.CountLogin("upstream_error")
		// Upstream details stay in the logs; the client only learns the class.
		writeError(w, r, http.StatusBadGateway, "identity provider request failed")
	default:
		obs.CountLogin("error")
		writeError(w, r, http.StatusInternalServerError, "login failed")
	}
}

type modifyRequest struct {
	Email    string `json:"email"`
	Pw       string `json:"pw"`
	Nickname string `json:"nickname"`
}

// handleAccountModify sets an explicit password and nickname on an existing
// member and clears the social flag. Reachable only with a valid access token.
func (a *API) handleAccountModify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}

	var req modifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := a.members.Modify(r.Context(), req.Email, req.Pw, req.Nickname); err != nil {
		switch {
		case errors.Is(err, member.ErrNotFound):
			writeError(w, r, http.StatusNotFound, "member not found")
		case errors.Is(err, member.ErrInvalidInput):
			writeError(w, r, http.StatusBadRequest, err.Error())
		default:
			writeError(w, r, http.StatusInternalServerError, "modify failed")
		}
		return
	}

	_ = audit.LogEvent(r.Context(), "member.modified", map[string]any{
		"member": req.Email,
	})
	writeJSON(w, http.StatusOK, map[string]string{"result": "modified"})
}
