package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"carelink/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	ctypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

const (
	accessTokenCookieName = "carelink_access_token"
	groupsClaim           = "cognito:groups"
)

// IdentityVerifier turns an access token into the caller's identity.
type IdentityVerifier interface {
	Verify(ctx context.Context, token string) (types.Identity, error)
}

type keySetSource interface {
	Lookup(ctx context.Context, u string) (jwk.Set, error)
}

type cognitoAuthenticator interface {
	InitiateAuth(ctx context.Context, params *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error)
}

// JWKSVerifier checks Cognito access tokens against the pool's published key
// set. The subject must be a UUID; membership of adminGroup grants the admin
// role.
type JWKSVerifier struct {
	keys       keySetSource
	jwksURL    string
	issuer     string
	adminGroup string
}

func NewJWKSVerifier(keys keySetSource, issuerURL, adminGroup string) *JWKSVerifier {
	issuer := strings.TrimSuffix(issuerURL, "/")
	return &JWKSVerifier{
		keys:       keys,
		jwksURL:    fmt.Sprintf("%s/.well-known/jwks.json", issuer),
		issuer:     issuer,
		adminGroup: adminGroup,
	}
}

func (v *JWKSVerifier) JWKSURL() string {
	return v.jwksURL
}

func (v *JWKSVerifier) Verify(ctx context.Context, raw string) (types.Identity, error) {
	set, err := v.keys.Lookup(ctx, v.jwksURL)
	if err != nil {
		return types.Identity{}, fmt.Errorf("failed to fetch JWKS: %w", err)
	}

	options := []jwt.ParseOption{jwt.WithKeySet(set), jwt.WithValidate(true)}
	if v.issuer != "" {
		options = append(options, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.Parse([]byte(raw), options...)
	if err != nil {
		return types.Identity{}, fmt.Errorf("failed to parse JWT: %w", err)
	}

	return identityFromToken(token, v.adminGroup)
}

func identityFromToken(token jwt.Token, adminGroup string) (types.Identity, error) {
	subject, ok := token.Subject()
	if !ok || subject == "" {
		return types.Identity{}, errors.New("no user ID in JWT subject claim")
	}
	if _, err := uuid.Parse(subject); err != nil {
		return types.Identity{}, fmt.Errorf("subject %q is not a uuid: %w", subject, err)
	}

	identity := types.Identity{UserID: subject, Role: types.RoleUser}

	var email string
	if err := token.Get("email", &email); err == nil {
		identity.Email = email
	}

	var groups any
	if err := token.Get(groupsClaim, &groups); err == nil && slices.Contains(claimStrings(groups), adminGroup) {
		identity.Role = types.RoleAdmin
	}

	return identity, nil
}

func claimStrings(v any) []string {
	switch value := v.(type) {
	case []string:
		return value
	case []any:
		out := make([]string, 0, len(value))
		for _, item := range value {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	case string:
		return []string{value}
	}
	return nil
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int32  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

func (s *Service) handlePostLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	input := &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow: ctypes.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(s.config.CognitoClientID),
		AuthParameters: map[string]string{
			"USERNAME": strings.TrimSpace(req.Email),
			"PASSWORD": req.Password,
		},
	}

	resp, err := s.cognitoClient.InitiateAuth(r.Context(), input)
	if err != nil {
		// NotAuthorizedException, UserNotConfirmedException, etc.
		s.logger.WithError(err).Info("login rejected by identity provider")
		s.writeError(w, r, types.WrapError(types.CodeUnauthorized, err, "invalid credentials"))
		return
	}

	if resp.AuthenticationResult == nil || resp.AuthenticationResult.AccessToken == nil {
		s.writeError(w, r, types.NewError(types.CodeUnauthorized, "login requires an additional challenge"))
		return
	}

	accessToken := aws.ToString(resp.AuthenticationResult.AccessToken)
	expiresIn := resp.AuthenticationResult.ExpiresIn

	encrypted, err := s.cookie.Encode(accessTokenCookieName, accessToken)
	if err != nil {
		s.writeError(w, r, fmt.Errorf("failed to encrypt access token: %w", err))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookieName,
		Value:    encrypted,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(expiresIn),
		Path:     "/",
	})

	s.writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: accessToken,
		ExpiresIn:   expiresIn,
		TokenType:   "Bearer",
	})
}

func (s *Service) handlePostLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookieName,
		Value:    "",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
	w.WriteHeader(http.StatusNoContent)
}
