package engine

import (
	"github.com/ferdian3456/virdanthread/internal/constant"
	"github.com/ferdian3456/virdanthread/internal/model"
)

type ActionKind string

const (
	ACTION_COMMENT      ActionKind = "comment"
	ACTION_REPLY        ActionKind = "reply"
	ACTION_LIKE_COMMENT ActionKind = "likeComment"
	ACTION_LIKE_POST    ActionKind = "likePost"
)

type ActionState int

const (
	StatePending ActionState = iota + 1
	StateSubmitting
	StateReconciled
	StateRolledBack
)

func (state ActionState) String() string {
	switch state {
	case StatePending:
		return "pending"
	case StateSubmitting:
		return "submitting"
	case StateReconciled:
		return "reconciled"
	case StateRolledBack:
		return "rolled_back"
	default:
		return "unknown"
	}
}

// ActionKey identifies an action for the re-entrancy guard: one in-flight
// submission per kind and target.
type ActionKey struct {
	Kind     ActionKind
	TargetId string
}

// Observer is told about every state transition, outside the engine lock.
type Observer func(key ActionKey, state ActionState)

var ErrActionInFlight = &model.ValidationError{
	Code:    constant.ERR_ACTION_IN_FLIGHT_CODE,
	Message: "This action is already being submitted",
	Param:   "action",
}
