package domain

import (
	"errors"
	"net/http"

	apperrors "github.com/utafrali/TranslateGo/pkg/errors"
)

var (
	// ErrEmailAlreadyExists is returned when registering an email that is taken.
	ErrEmailAlreadyExists = apperrors.New("ALREADY_EXISTS", "an account with this email already exists",
		http.StatusConflict, apperrors.ErrAlreadyExists)

	// ErrInvalidCredentials covers unknown email and wrong password alike.
	ErrInvalidCredentials = apperrors.New("INVALID_CREDENTIALS", "invalid email or password",
		http.StatusUnauthorized, apperrors.ErrUnauthorized)

	// ErrAccountUnavailable is returned for a disabled account.
	ErrAccountUnavailable = apperrors.New("ACCOUNT_UNAVAILABLE", "account is disabled",
		http.StatusForbidden, apperrors.ErrForbidden)

	// ErrIdentityLinkRace means concurrent resolutions kept colliding on the
	// same identity or email and the retry budget ran out.
	ErrIdentityLinkRace = errors.New("identity link race")
)
