package domain

import (
	"net/http"

	apperrors "github.com/spec-kit/school-portal/pkg/util/errorutil"
)

// Session and credential failure kinds. Match with errors.Is; wrapped copies
// made with Wrap still match.
var (
	ErrInvalidCredentials = apperrors.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password", http.StatusUnauthorized, nil)
	ErrProfileNotFound    = apperrors.NewDomainError("PROFILE_NOT_FOUND", "User not found", http.StatusInternalServerError, nil)
	ErrStorageUnavailable = apperrors.NewDomainError("STORAGE_UNAVAILABLE", "session storage unavailable", http.StatusServiceUnavailable, nil)
	ErrSessionCorrupt     = apperrors.NewDomainError("SESSION_CORRUPT", "stored session is unreadable", http.StatusInternalServerError, nil)
	ErrFlowInProgress     = apperrors.NewDomainError("FLOW_IN_PROGRESS", "a sign-in is already in progress", http.StatusConflict, nil)
	ErrLoginSuperseded    = apperrors.NewDomainError("LOGIN_SUPERSEDED", "sign-in was cancelled by a sign-out", http.StatusConflict, nil)
)
