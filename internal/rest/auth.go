package rest

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/dealgrid/dealgrid/internal/convert"
	"github.com/dealgrid/dealgrid/internal/endpoint"
	"github.com/dealgrid/dealgrid/internal/errs"
	"github.com/dealgrid/dealgrid/internal/model"
	"github.com/dealgrid/dealgrid/internal/token"
	"github.com/dealgrid/dealgrid/internal/transport"
)

// AuthService signs the user in and out of the hosted API and keeps the
// token store in step.
type AuthService struct {
	t     *transport.Client
	store *token.Store
	log   *zap.Logger
}

// Login exchanges credentials for a token pair and persists it into the
// scope selected by remember.
func (s *AuthService) Login(ctx context.Context, email, password string, remember bool) (*model.User, error) {
	if email == "" || password == "" {
		return nil, errs.New(http.StatusBadRequest, "", "empty email or password")
	}
	body, err := s.t.Do(ctx, endpoint.UserLogin, nil, convert.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	res, err := decodeOne[convert.LoginResult](body)
	if err != nil {
		return nil, err
	}
	if res.AccessToken == "" || res.RefreshToken == "" {
		return nil, errs.New(http.StatusInternalServerError, "", "login response missing tokens")
	}
	if err := s.store.Save(token.Pair{Access: res.AccessToken, Refresh: res.RefreshToken}, remember); err != nil {
		return nil, err
	}
	u := convert.FromWireUser(res.User)
	s.log.Info("signed in", zap.String("email", u.Email), zap.Bool("remember", remember))
	return &u, nil
}

// Logout revokes the session server-side when it can and always clears
// the local token store.
func (s *AuthService) Logout(ctx context.Context) error {
	if s.store.Has() {
		if body, err := s.t.Do(ctx, endpoint.UserLogout, nil, nil); err != nil {
			s.log.Warn("server-side logout failed", zap.Error(err))
		} else if err := unwrapDiscard(body); err != nil {
			s.log.Warn("server-side logout failed", zap.Error(err))
		}
	}
	return s.store.Clear()
}

// Me returns the signed-in user.
func (s *AuthService) Me(ctx context.Context) (*model.User, error) {
	body, err := s.t.Do(ctx, endpoint.UserMe, nil, nil)
	if err != nil {
		return nil, err
	}
	dto, err := decodeOne[convert.UserDTO](body)
	if err != nil {
		return nil, err
	}
	u := convert.FromWireUser(dto)
	return &u, nil
}
