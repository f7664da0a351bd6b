package handlers

import (
	"context"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/cfwarrior/tgbot/internal/config"
	"github.com/cfwarrior/tgbot/internal/core/ports/primary"
	"github.com/cfwarrior/tgbot/internal/handlers/response"
	"github.com/cfwarrior/tgbot/internal/static/errs"
)

type MiddlewareProvider struct {
	secret        string
	signingSecret []byte
	logger        primary.Logger
}

func NewMiddlewareProvider(serverCfg *config.ServerConfig, taskCfg *config.TaskQueueConfig, logger primary.Logger) *MiddlewareProvider {
	return &MiddlewareProvider{
		secret:        serverCfg.Secret,
		signingSecret: []byte(taskCfg.SigningSecret),
		logger:        logger,
	}
}

// SharedSecret guards the control plane via X-Auth-Token equality.
func (m *MiddlewareProvider) SharedSecret(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := m.checkSharedSecret(r); err != nil {
			m.logger.Warn("Control plane authentication failed", "path", r.URL.Path, "remote", r.RemoteAddr, "error", err)
			response.WriteAuthFailure(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// checkSharedSecret rejects everything when no secret is configured.
func (m *MiddlewareProvider) checkSharedSecret(r *http.Request) error {
	token := r.Header.Get("X-Auth-Token")
	if m.secret == "" || subtle.ConstantTimeCompare([]byte(token), []byte(m.secret)) != 1 {
		return errs.AuthenticationFailed
	}
	return nil
}

type contextKey string

const taskUserIDKey contextKey = "taskUserId"

// TaskUserID returns the user id carried by the verified task token.
func TaskUserID(r *http.Request) (int64, bool) {
	userID, ok := r.Context().Value(taskUserIDKey).(int64)
	return userID, ok
}

// TaskToken verifies the Bearer token on scheduled task callbacks. The
// token's kind claim must match the task route being called, so a token
// minted for one task cannot trigger another.
func (m *MiddlewareProvider) TaskToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := m.verifyTaskToken(r)
		if err != nil {
			m.logger.Warn("Task callback authentication failed", "path", r.URL.Path, "error", err)
			response.WriteAuthFailure(w)
			return
		}
		ctx := context.WithValue(r.Context(), taskUserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *MiddlewareProvider) verifyTaskToken(r *http.Request) (int64, error) {
	tokenString := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if tokenString == "" {
		return 0, fmt.Errorf("missing bearer token: %w", errs.AuthenticationFailed)
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.signingSecret, nil
	})
	if err != nil || !token.Valid {
		return 0, fmt.Errorf("invalid token: %w", errs.AuthenticationFailed)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fmt.Errorf("unexpected claims type: %w", errs.AuthenticationFailed)
	}
	kind, _ := claims["kind"].(string)
	if kind == "" || kind != r.URL.Path[strings.LastIndexByte(r.URL.Path, '/')+1:] {
		return 0, fmt.Errorf("token kind %q does not match the route: %w", kind, errs.AuthenticationFailed)
	}
	rawUserID, ok := claims["user_id"].(float64)
	if !ok {
		return 0, fmt.Errorf("missing user_id claim: %w", errs.AuthenticationFailed)
	}
	return int64(rawUserID), nil
}
