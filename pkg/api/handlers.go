package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dmitrymomot/gatekeeper/pkg/auth"
)

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type providerRequest struct {
	Token string `json:"token"`
}

type profileRequest struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	Password *string `json:"password,omitempty"`
	Image    *string `json:"image,omitempty"`
}

// SessionView is the body returned by the sign-in endpoints.
type SessionView struct {
	Token     string    `json:"token"`
	AccountID uuid.UUID `json:"account_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AccountView is the public projection of an account. The password hash
// and session reference never leave the service.
type AccountView struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
	Provider    string    `json:"provider,omitempty"`
	Image       string    `json:"image,omitempty"`
	HasPassword bool      `json:"has_password"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newSessionView(s auth.Session) SessionView {
	return SessionView{Token: s.Token, AccountID: s.AccountID, ExpiresAt: s.ExpiresAt}
}

func newAccountView(acc auth.Account) AccountView {
	return AccountView{
		ID:          acc.ID,
		Email:       acc.Email,
		Username:    acc.Username,
		Provider:    acc.Provider.String(),
		Image:       acc.Image,
		HasPassword: acc.HasPassword(),
		CreatedAt:   acc.CreatedAt,
		UpdatedAt:   acc.UpdatedAt,
	}
}

func (a *API) recordAuth(flow string, err error) {
	if err == nil {
		a.metrics.RecordAuth(flow, OutcomeSuccess)
		return
	}
	a.metrics.RecordAuth(flow, classifyError(err).Code)
}

func (a *API) register(w http.ResponseWriter, r *http.Request) (Response, error) {
	var req registerRequest
	if err := bindJSON(w, r, &req); err != nil {
		return nil, err
	}

	sess, err := a.svc.Register(r.Context(), auth.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	a.recordAuth(FlowRegister, err)
	if err != nil {
		return nil, err
	}
	return JSON(newSessionView(sess), WithStatus(http.StatusCreated)), nil
}

func (a *API) login(w http.ResponseWriter, r *http.Request) (Response, error) {
	var req loginRequest
	if err := bindJSON(w, r, &req); err != nil {
		return nil, err
	}

	sess, err := a.svc.Login(r.Context(), req.Email, req.Password)
	a.recordAuth(FlowLogin, err)
	if err != nil {
		return nil, err
	}
	return JSON(newSessionView(sess)), nil
}

func (a *API) thirdPartySignIn(w http.ResponseWriter, r *http.Request) (Response, error) {
	var req providerRequest
	if err := bindJSON(w, r, &req); err != nil {
		return nil, err
	}

	provider := auth.Provider(chi.URLParam(r, "provider"))
	sess, err := a.svc.ThirdPartySignIn(r.Context(), provider, req.Token)
	a.recordAuth(FlowThirdParty, err)
	if err != nil {
		return nil, err
	}
	return JSON(newSessionView(sess)), nil
}

func (a *API) logout(_ http.ResponseWriter, r *http.Request) (Response, error) {
	acc, ok := AccountFromContext(r.Context())
	if !ok {
		return nil, auth.ErrInvalidToken
	}

	err := a.svc.Logout(r.Context(), acc.ID)
	a.recordAuth(FlowLogout, err)
	if err != nil {
		return nil, err
	}
	return NoContent(), nil
}

func (a *API) me(_ http.ResponseWriter, r *http.Request) (Response, error) {
	acc, ok := AccountFromContext(r.Context())
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	return JSON(newAccountView(acc)), nil
}

func (a *API) account(_ http.ResponseWriter, r *http.Request) (Response, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return nil, auth.ErrNotFound
	}

	acc, err := a.svc.Account(r.Context(), id)
	if err != nil {
		return nil, err
	}
	return JSON(newAccountView(acc)), nil
}

// updateProfile lets an account edit only itself.
func (a *API) updateProfile(w http.ResponseWriter, r *http.Request) (Response, error) {
	current, ok := AccountFromContext(r.Context())
	if !ok {
		return nil, auth.ErrInvalidToken
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return nil, auth.ErrNotFound
	}
	if id != current.ID {
		return nil, auth.ErrForbidden
	}

	var req profileRequest
	if err := bindJSON(w, r, &req); err != nil {
		return nil, err
	}

	acc, err := a.svc.UpdateProfile(r.Context(), id, auth.ProfileUpdate{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Image:    req.Image,
	})
	if err != nil {
		return nil, err
	}
	return JSON(newAccountView(acc)), nil
}
