package middleware

import (
	"context"
	"crypto/rsa"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/coralpointe/association-portal/internal/authz"
	"github.com/coralpointe/association-portal/internal/utils"
)

type contextKey string

const ContextKeyActor = contextKey("actor")

// AuthMiddleware resolves the authenticated (role, unit) pair from the
// bearer token and stores it as an authz.Actor in the request context.
// Everything past this point treats that pair as trusted input; the
// core services never read ambient request state themselves.
func AuthMiddleware(pub *rsa.PublicKey) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr, err := extractAccessToken(r)
			if err != nil {
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, err.Error(), nil,
				)
				return
			}

			tok, vErr := validateToken(tokenStr, pub)
			if vErr != nil || !tok.Valid {
				if errors.Is(vErr, jwt.ErrTokenExpired) {
					utils.RespondErrorWithCode(
						w, http.StatusUnauthorized, utils.ErrCodeTokenExpired, "Token expired", nil, vErr,
					)
					return
				}
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid token", nil, vErr,
				)
				return
			}

			actor, err := actorFromClaims(tok)
			if err != nil {
				utils.RespondErrorWithCode(
					w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, err.Error(), nil,
				)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyActor, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorFromContext retrieves the trusted actor placed by AuthMiddleware.
func ActorFromContext(ctx context.Context) (authz.Actor, bool) {
	actor, ok := ctx.Value(ContextKeyActor).(authz.Actor)
	return actor, ok
}

func extractAccessToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Bearer ") {
		return "", errors.New("missing Authorization header")
	}
	return strings.TrimPrefix(h, "Bearer "), nil
}

func validateToken(tokenStr string, pub *rsa.PublicKey) (*jwt.Token, error) {
	return jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return pub, nil
	}, jwt.WithValidMethods([]string{"RS256"}))
}

func actorFromClaims(tok *jwt.Token) (authz.Actor, error) {
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return authz.Actor{}, errors.New("invalid claims")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return authz.Actor{}, errors.New("missing subject")
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return authz.Actor{}, errors.New("malformed subject")
	}

	roleStr, ok := claims["role"].(string)
	if !ok || !authz.Role(roleStr).Valid() {
		return authz.Actor{}, errors.New("missing or unknown role")
	}

	actor := authz.Actor{ID: id, Role: authz.Role(roleStr)}
	if unitStr, ok := claims["unit_id"].(string); ok && unitStr != "" {
		unitID, err := uuid.Parse(unitStr)
		if err != nil {
			return authz.Actor{}, errors.New("malformed unit_id")
		}
		actor.UnitID = unitID
	}
	return actor, nil
}
