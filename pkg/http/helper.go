package http

import (
	"net/http"
	"strconv"

	"innkeep/pkg/config"
	apperrors "innkeep/pkg/errors"
)

const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"

	RoleAdmin = "admin"
)

func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	var offset int64
	if s := query.Get("offset"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = v
	}

	return config.NormalizePaginationLimit(limit), config.NormalizeOffset(offset), nil
}

// RequireUser returns the authenticated caller. Authentication happens upstream;
// the gateway forwards the resolved user id in X-User-ID.
func RequireUser(r *http.Request) (string, error) {
	userID := r.Header.Get(HeaderUserID)
	if userID == "" {
		return "", apperrors.Unauthorized("missing " + HeaderUserID + " header")
	}
	return userID, nil
}

func RequireAdmin(r *http.Request) error {
	if _, err := RequireUser(r); err != nil {
		return err
	}
	if r.Header.Get(HeaderUserRole) != RoleAdmin {
		return apperrors.Forbidden("admin role required")
	}
	return nil
}
