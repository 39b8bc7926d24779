package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/Skotchmaster/userpanel/internal/authz"
	"github.com/Skotchmaster/userpanel/internal/directory"
	"github.com/Skotchmaster/userpanel/internal/events"
	"github.com/Skotchmaster/userpanel/internal/forms"
	"github.com/Skotchmaster/userpanel/internal/models"
	"github.com/Skotchmaster/userpanel/internal/repo"
	"github.com/Skotchmaster/userpanel/internal/session"
	pkg_hash "github.com/Skotchmaster/userpanel/pkg/hash"
	"github.com/Skotchmaster/userpanel/pkg/logging"
	"github.com/Skotchmaster/userpanel/pkg/tokens"
)

const (
	msgUnknownLogin  = "Incorrect email or password :("
	msgWrongPassword = "You provided wrong data."
	msgNoSuchUser    = "No such user!"
	msgDuplicate     = "User with this username or email already exists!"
	msgWrongOld      = "Wrong old password provided!"
)

// UserService implements every page operation. Events and Directory are
// optional; nil means no publishing and searching straight from the DB.
// SearchLimit caps search results, directory.DefaultLimit when zero.
type UserService struct {
	Repo        *repo.GormRepo
	Codec       *tokens.Codec
	Events      events.Publisher
	Directory   directory.Directory
	SearchLimit int
}

type LoginResult struct {
	View
	Token     string
	ExpiresAt time.Time
}

// LoggedIn reports whether a session cookie must be set.
func (r LoginResult) LoggedIn() bool { return r.Token != "" }

type AdminAccount struct {
	Username string
	Email    string
	Password string
}

func (s *UserService) Login(ctx context.Context, form url.Values) (LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "user.login")

	res, password := forms.Login(form)
	out := LoginResult{View: viewFrom(TplLogin, res)}
	if !res.Valid() {
		return out, nil
	}
	username := res.Get("username")

	user, err := s.Repo.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		l.Warn("login_failed", "status", 200, "reason", "unknown user", "username", username)
		out.View = out.withError(msgUnknownLogin)
		return out, nil
	case err != nil:
		l.Error("login_failed", "status", 500, "error", err)
		return out, storageErr("login", err)
	}

	if !user.IsActive {
		l.Warn("login_failed", "status", 200, "reason", "inactive user", "username", username)
		out.View = out.withError(msgUnknownLogin)
		return out, nil
	}
	if !pkg_hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login_failed", "status", 200, "reason", "wrong password", "username", username)
		out.View = out.withError(msgWrongPassword)
		return out, nil
	}

	token, exp, err := s.Codec.Issue(user.Username)
	if err != nil {
		l.Error("login_failed", "status", 500, "reason", "cannot issue token", "error", err)
		return out, fmt.Errorf("login: issue token: %w", err)
	}

	l.Info("login_ok", "username", user.Username, "ttl", s.Codec.TTL())
	s.publish(ctx, events.UserLoggedIn, user.Username, user.Username)

	out.View = out.withMsg("Login Successful :)")
	out.Token = token
	out.ExpiresAt = exp
	return out, nil
}

// Logout blacklists the token carried by the session cookie value until it
// expires. Undecodable values are ignored; the caller clears the cookie
// either way.
func (s *UserService) Logout(ctx context.Context, cookieValue string) (View, error) {
	l := logging.FromContext(ctx).With("svc", "user.logout")
	out := View{Template: TplHome, Msg: "You have been logged out."}

	claims, err := s.Codec.DecodeBearer(cookieValue)
	if err != nil {
		l.Debug("logout_without_session", "error", err)
		return out, nil
	}
	raw, _ := tokens.StripBearer(cookieValue)

	if err := s.Repo.BlacklistToken(ctx, session.TokenHash(raw), claims.ExpiresAt.Time); err != nil {
		l.Error("logout_failed", "status", 500, "error", err)
		return out, storageErr("logout", err)
	}

	l.Info("logout_ok", "username", claims.Username)
	s.publish(ctx, events.UserLoggedOut, claims.Username, claims.Username)
	return out, nil
}

func (s *UserService) ListUsers(ctx context.Context) (View, error) {
	users, err := s.Repo.GetAll(ctx)
	if err != nil {
		logging.FromContext(ctx).Error("list_users_failed", "svc", "user.list", "status", 500, "error", err)
		return View{}, storageErr("list users", err)
	}
	return View{Template: TplUserAll, Users: users}, nil
}

func (s *UserService) Lookup(ctx context.Context, form url.Values) (View, error) {
	res := forms.Lookup(form)
	out := viewFrom(TplUserOps, res)
	if !res.Valid() {
		return out, nil
	}

	user, err := s.Repo.GetByUsername(ctx, res.Get("username"))
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return out.withError("No such user !"), nil
	case err != nil:
		logging.FromContext(ctx).Error("lookup_failed", "svc", "user.lookup", "status", 500, "error", err)
		return out, storageErr("lookup", err)
	}
	return View{Template: TplUserInfo, User: user}, nil
}

func (s *UserService) AddUser(ctx context.Context, id session.Identity, form url.Values) (View, error) {
	l := logging.FromContext(ctx).With("svc", "user.add", "actor", id.Username())

	res, password := forms.AddUser(form)
	out := viewFrom(TplUserOps, res)
	if !res.Valid() {
		return out, nil
	}
	username := res.Get("username")

	if d := authz.Authorize(id, authz.ActionAddUser, authz.Target{Username: username}); !d.Allowed() {
		l.Warn("add_user_denied", "status", 200, "reason", d.Kind.String(), "target", username)
		return out.withError(d.Reason), nil
	}

	user, err := s.createUser(ctx, username, res.Get("email"), password, false)
	switch {
	case errors.Is(err, repo.ErrDuplicate):
		l.Warn("add_user_failed", "status", 200, "reason", "duplicate", "target", username)
		return out.withError(msgDuplicate), nil
	case err != nil:
		l.Error("add_user_failed", "status", 500, "error", err)
		return out, err
	}

	l.Info("user_added", "target", user.Username)
	s.publish(ctx, events.UserAdded, user.Username, id.Username())
	return out.withMsg(fmt.Sprintf("User with username: %s, added succesfully.", user.Username)), nil
}

func (s *UserService) UpdatePassword(ctx context.Context, id session.Identity, form url.Values) (View, error) {
	l := logging.FromContext(ctx).With("svc", "user.update_password", "actor", id.Username())

	res, p := forms.UpdatePassword(form)
	out := viewFrom(TplUserOps, res)
	if !res.Valid() {
		return out, nil
	}
	username := res.Get("username")

	if d := authz.Authorize(id, authz.ActionUpdatePassword, authz.Target{Username: username}); !d.Allowed() {
		l.Warn("update_password_denied", "status", 200, "reason", d.Kind.String(), "target", username)
		return out.withError(d.Reason), nil
	}

	target, err := s.Repo.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return out.withError(msgNoSuchUser), nil
	case err != nil:
		l.Error("update_password_failed", "status", 500, "error", err)
		return out, storageErr("update password", err)
	}

	// Changing one's own password needs the current one; an admin resetting
	// someone else's does not.
	if target.Username == id.Username() && !pkg_hash.CheckPassword(target.PasswordHash, p.Old) {
		l.Warn("update_password_failed", "status", 200, "reason", "wrong old password")
		return out.withError(msgWrongOld), nil
	}

	pwHash, err := pkg_hash.HashPassword(p.New)
	if err != nil {
		l.Error("update_password_failed", "status", 500, "reason", "cannot hash the password", "error", err)
		return out, fmt.Errorf("update password: %w", err)
	}

	err = s.Repo.UpdatePassword(ctx, username, pwHash)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return out.withError(msgNoSuchUser), nil
	case err != nil:
		l.Error("update_password_failed", "status", 500, "error", err)
		return out, storageErr("update password", err)
	}

	l.Info("password_updated", "target", username)
	s.publish(ctx, events.PasswordUpdated, username, id.Username())
	return out.withMsg(fmt.Sprintf("Password for user: %s, changed successfully.", username)), nil
}

func (s *UserService) DeleteUser(ctx context.Context, id session.Identity, form url.Values) (View, error) {
	l := logging.FromContext(ctx).With("svc", "user.delete", "actor", id.Username())

	res := forms.Lookup(form)
	out := viewFrom(TplUserOps, res)
	if !res.Valid() {
		return out, nil
	}
	username := res.Get("username")

	if d := authz.Authorize(id, authz.ActionDeleteUser, authz.Target{Username: username}); !d.Allowed() {
		l.Warn("delete_user_denied", "status", 200, "reason", d.Kind.String(), "target", username)
		return out.withError(d.Reason), nil
	}

	target, err := s.Repo.GetByUsername(ctx, username)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return out.withError(msgNoSuchUser), nil
	case err != nil:
		l.Error("delete_user_failed", "status", 500, "error", err)
		return out, storageErr("delete user", err)
	}

	if d := authz.Authorize(id, authz.ActionDeleteUser, authz.Target{Username: target.Username, IsAdmin: target.IsAdmin}); !d.Allowed() {
		l.Warn("delete_user_denied", "status", 200, "reason", d.Kind.String(), "target", username)
		return out.withError(d.Reason), nil
	}

	// The repo guards admin rows too, in case the flag changed since the read.
	err = s.Repo.Delete(ctx, username)
	switch {
	case errors.Is(err, repo.ErrAdminImmune):
		return out.withError("Admin can not be removed !"), nil
	case errors.Is(err, repo.ErrNotFound):
		return out.withError(msgNoSuchUser), nil
	case err != nil:
		l.Error("delete_user_failed", "status", 500, "error", err)
		return out, storageErr("delete user", err)
	}

	l.Info("user_deleted", "target", username)
	if err := s.directory().Remove(ctx, username); err != nil {
		l.Warn("directory_remove_failed", "target", username, "error", err)
	}
	s.publish(ctx, events.UserDeleted, username, id.Username())
	return out.withMsg(fmt.Sprintf("User with username: %s, deleted succesfully.", username)), nil
}

// Search looks users up in the directory and falls back to the users table
// when the directory is unavailable.
func (s *UserService) Search(ctx context.Context, q string) (View, error) {
	l := logging.FromContext(ctx).With("svc", "user.search")
	out := View{Template: TplUserSearch, Query: q}

	limit := s.SearchLimit
	if limit <= 0 {
		limit = directory.DefaultLimit
	}

	entries, err := s.directory().Search(ctx, q, limit)
	if err != nil {
		l.Warn("directory_search_failed", "error", err)
		entries, err = directory.DB{Repo: s.Repo}.Search(ctx, q, limit)
		if err != nil {
			l.Error("search_failed", "status", 500, "error", err)
			return out, storageErr("search", err)
		}
	}
	out.Entries = entries
	return out, nil
}

// Bootstrap creates the configured admin when the store has none. It
// reports whether an account was created.
func (s *UserService) Bootstrap(ctx context.Context, admin AdminAccount) (bool, error) {
	l := logging.FromContext(ctx).With("svc", "user.bootstrap")

	ok, err := s.Repo.HasAdmin(ctx)
	if err != nil {
		return false, storageErr("bootstrap", err)
	}
	if ok {
		n, err := s.Repo.CountUsers(ctx)
		if err != nil {
			return false, storageErr("bootstrap", err)
		}
		l.Info("bootstrap_skipped", "reason", "admin exists", "users", n)
		return false, nil
	}

	if _, err := s.CreateAdmin(ctx, admin); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return false, s.bootstrapClash(ctx, admin, err)
		}
		return false, err
	}
	l.Info("bootstrap_admin_created", "username", admin.Username)
	return true, nil
}

// bootstrapClash names the non-admin account holding the admin's username
// or email.
func (s *UserService) bootstrapClash(ctx context.Context, admin AdminAccount, dup error) error {
	if _, err := s.Repo.GetByUsername(ctx, admin.Username); err == nil {
		return fmt.Errorf("bootstrap admin: username %q is taken by a non-admin account: %w", admin.Username, dup)
	}
	if u, err := s.Repo.GetByEmail(ctx, admin.Email); err == nil {
		return fmt.Errorf("bootstrap admin: email %q is taken by non-admin account %q: %w", admin.Email, u.Username, dup)
	}
	return fmt.Errorf("bootstrap admin %q: %w", admin.Username, dup)
}

func (s *UserService) CreateAdmin(ctx context.Context, admin AdminAccount) (*models.User, error) {
	if admin.Username == "" || admin.Email == "" {
		return nil, errors.New("admin username and email are required")
	}
	if len(admin.Password) < 5 {
		return nil, errors.New("admin password must be at least 5 characters")
	}

	user, err := s.createUser(ctx, admin.Username, admin.Email, admin.Password, true)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.UserAdded, user.Username, "")
	return user, nil
}

func (s *UserService) createUser(ctx context.Context, username, email, password string, isAdmin bool) (*models.User, error) {
	pwHash, err := pkg_hash.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("create user: hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: pwHash,
		IsActive:     true,
		IsAdmin:      isAdmin,
	}
	if err := s.Repo.Add(ctx, user); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, err
		}
		return nil, storageErr("create user", err)
	}

	if err := s.directory().Index(ctx, directory.EntryFrom(user)); err != nil {
		logging.FromContext(ctx).Warn("directory_index_failed", "svc", "user.create", "target", username, "error", err)
	}
	return user, nil
}

// ReindexAll pushes every stored user into the directory.
func (s *UserService) ReindexAll(ctx context.Context) (int, error) {
	users, err := s.Repo.GetAll(ctx)
	if err != nil {
		return 0, storageErr("reindex", err)
	}
	for i := range users {
		if err := s.directory().Index(ctx, directory.EntryFrom(&users[i])); err != nil {
			return i, fmt.Errorf("reindex %s: %w", users[i].Username, err)
		}
	}
	return len(users), nil
}

func (s *UserService) directory() directory.Directory {
	if s.Directory == nil {
		return directory.DB{Repo: s.Repo}
	}
	return s.Directory
}

func (s *UserService) publish(ctx context.Context, kind, username, actor string) {
	if s.Events == nil {
		return
	}
	ev := events.Event{Type: kind, Username: username, Actor: actor, At: time.Now().UTC()}
	if err := s.Events.PublishEvent(ctx, username, ev); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "type", kind, "username", username, "error", err)
	}
}
