package authflow

import apperrors "github.com/makkotwal/venus-auth/internal/errors"

// Flow error sentinels, re-exported so callers matching on flow outcomes
// do not need to import internal packages.
var (
	ErrValidation        = apperrors.ErrValidation
	ErrChallengeIssuance = apperrors.ErrChallengeIssuance
	ErrVerification      = apperrors.ErrVerification
	ErrSessionExpired    = apperrors.ErrSessionExpired
)
