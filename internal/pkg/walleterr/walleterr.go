// Package walleterr classifies errors into the eight-class taxonomy from
// error taxonomy and attaches the HTTP status each class maps to, generalizing
// hivemind/handler/v1/errors.go's numeric coder registry (there keyed by a
// resource-group error code; here keyed by taxonomy class since this
// taxonomy is conceptual, not a code list).
package walleterr

import (
	"errors"
	"net/http"

	"github.com/agentwallet/agentwallet/internal/pkg/errno"
)

// Class is one of the eight error classes in the taxonomy.
type Class string

const (
	ClassValidation     Class = "ValidationFailure"
	ClassAccessDenied   Class = "AccessDenied"
	ClassNotFound       Class = "NotFound"
	ClassStateConflict  Class = "StateConflict"
	ClassPolicyBlock    Class = "PolicyBlock"
	ClassInsufficient   Class = "InsufficientFunds"
	ClassLatchedCircuit Class = "LatchedCircuit"
	ClassInternal       Class = "InternalFailure"
)

// httpStatus maps a class to its HTTP result code.
var httpStatus = map[Class]int{
	ClassValidation:     http.StatusBadRequest,
	ClassAccessDenied:   http.StatusForbidden,
	ClassNotFound:       http.StatusNotFound,
	ClassStateConflict:  http.StatusBadRequest,
	ClassPolicyBlock:    http.StatusBadRequest,
	ClassInsufficient:   http.StatusBadRequest,
	ClassLatchedCircuit: http.StatusBadRequest,
	ClassInternal:       http.StatusInternalServerError,
}

var sentinelClass = map[error]Class{
	errno.ErrOwnerNotFound:        ClassNotFound,
	errno.ErrAgentNotFound:        ClassNotFound,
	errno.ErrWalletNotFound:       ClassNotFound,
	errno.ErrRuleNotFound:         ClassNotFound,
	errno.ErrTransactionNotFound:  ClassNotFound,
	errno.ErrKillSwitchNotFound:   ClassNotFound,
	errno.ErrLineageNotFound:      ClassNotFound,
	errno.ErrGroupNotFound:        ClassNotFound,
	errno.ErrPolicyNotFound:       ClassNotFound,
	errno.ErrCrossTxNotFound:      ClassNotFound,
	errno.ErrDeadManConfigMissing: ClassNotFound,

	errno.ErrInvalidAmount:     ClassValidation,
	errno.ErrInvalidRuleParams: ClassValidation,
	errno.ErrUnknownRuleKind:   ClassValidation,
	errno.ErrInvalidPolicy:     ClassValidation,

	errno.ErrWalletNotActive:     ClassStateConflict,
	errno.ErrAgentNotActive:      ClassStateConflict,
	errno.ErrTxNotAwaiting:       ClassStateConflict,
	errno.ErrLineageExists:       ClassStateConflict,
	errno.ErrSpawnDepthExceeded:  ClassStateConflict,
	errno.ErrSpawnChildrenFull:   ClassStateConflict,
	errno.ErrSpawnNotAllowed:     ClassStateConflict,
	errno.ErrKillSwitchTriggered: ClassStateConflict,
	errno.ErrKillSwitchActive:    ClassStateConflict,
	errno.ErrCrossTxNotEscalated: ClassStateConflict,

	errno.ErrInsufficientFunds:    ClassInsufficient,
	errno.ErrPolicyBlocked:        ClassPolicyBlock,
	errno.ErrSpawnPolicyViolation: ClassPolicyBlock,
	errno.ErrLatchedCircuit:       ClassLatchedCircuit,
}

// Classify returns the taxonomy class for err, defaulting to InternalFailure
// for errors the registry doesn't recognize ("InternalFailure is
// logged and surfaced as an opaque failure").
func Classify(err error) Class {
	for sentinel, class := range sentinelClass {
		if errors.Is(err, sentinel) {
			return class
		}
	}
	return ClassInternal
}

// HTTPStatus returns the status code a class maps to.
func HTTPStatus(c Class) int {
	if s, ok := httpStatus[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}
