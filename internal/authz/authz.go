package authz

import "github.com/Skotchmaster/userpanel/internal/session"

type Action int

const (
	ActionRead Action = iota
	ActionUpdatePassword
	ActionAddUser
	ActionDeleteUser
)

func (a Action) String() string {
	switch a {
	case ActionRead:
		return "read"
	case ActionUpdatePassword:
		return "update_password"
	case ActionAddUser:
		return "add_user"
	case ActionDeleteUser:
		return "delete_user"
	default:
		return "unknown"
	}
}

type DenialKind int

const (
	Allowed DenialKind = iota
	DenyUnauthenticated
	DenyUnauthorized
	DenyForbiddenTarget
)

func (k DenialKind) String() string {
	switch k {
	case Allowed:
		return "allowed"
	case DenyUnauthenticated:
		return "unauthenticated"
	case DenyUnauthorized:
		return "unauthorized"
	case DenyForbiddenTarget:
		return "forbidden_target"
	default:
		return "unknown"
	}
}

// Target is the account an action is aimed at. IsAdmin only matters for
// deletion.
type Target struct {
	Username string
	IsAdmin  bool
}

type Decision struct {
	Kind   DenialKind
	Reason string
}

func (d Decision) Allowed() bool { return d.Kind == Allowed }

var allow = Decision{Kind: Allowed}

func deny(kind DenialKind, reason string) Decision {
	return Decision{Kind: kind, Reason: reason}
}

var loginRequired = map[Action]string{
	ActionUpdatePassword: "Update not allowed without log in!",
	ActionAddUser:        "Adding not allowed without log in!",
	ActionDeleteUser:     "Delete not allowed without log in!",
}

// Authorize is a pure function of its inputs.
func Authorize(id session.Identity, action Action, target Target) Decision {
	switch action {
	case ActionRead:
		return allow

	case ActionUpdatePassword:
		if id.IsAnonymous() {
			return deny(DenyUnauthenticated, loginRequired[action])
		}
		if id.Username() != target.Username && !id.IsAdmin() {
			return deny(DenyUnauthorized, "You can change only your own password!")
		}
		return allow

	case ActionAddUser:
		if id.IsAnonymous() {
			return deny(DenyUnauthenticated, loginRequired[action])
		}
		if !id.IsAdmin() {
			return deny(DenyUnauthorized, "Only admin can add users!")
		}
		return allow

	case ActionDeleteUser:
		if id.IsAnonymous() {
			return deny(DenyUnauthenticated, loginRequired[action])
		}
		if !id.IsAdmin() {
			return deny(DenyUnauthorized, "Only admin can delete users!")
		}
		// Admin accounts are undeletable whoever asks.
		if target.IsAdmin {
			return deny(DenyForbiddenTarget, "Admin can not be removed !")
		}
		return allow
	}

	return deny(DenyUnauthorized, "Unknown operation!")
}
