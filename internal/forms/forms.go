// Package forms validates the raw form input of each page action.
//
// Every validator takes url.Values and returns a Result holding the echoed
// field values and the list of user-facing errors. Passwords are read but
// never copied into Fields.
package forms

import (
	"net/url"
	"strings"
)

const minPasswordLen = 5

const msgMissingFields = "all requested data must be present within the form!"

type Result struct {
	Fields map[string]string
	Errors []string
}

func (r Result) Valid() bool { return len(r.Errors) == 0 }

func (r Result) Get(key string) string { return r.Fields[key] }

func (r *Result) addError(msg string) { r.Errors = append(r.Errors, msg) }

func newResult() Result {
	return Result{Fields: map[string]string{}}
}

func validPassword(p string) bool {
	return len(p) >= minPasswordLen
}

// Lookup validates the single username field shared by lookup and delete.
func Lookup(form url.Values) Result {
	r := newResult()
	r.Fields["username"] = strings.TrimSpace(form.Get("username"))
	if r.Fields["username"] == "" {
		r.addError("Username is required")
	}
	return r
}

// Login returns the validated fields and the password, which is kept out of
// Fields.
func Login(form url.Values) (Result, string) {
	r := newResult()
	r.Fields["username"] = strings.TrimSpace(form.Get("username"))
	password := form.Get("password")

	if r.Fields["username"] == "" {
		r.addError("Username is required")
	}
	if !validPassword(password) {
		r.addError("A valid password is required")
	}
	return r, password
}

func AddUser(form url.Values) (Result, string) {
	r := newResult()
	for _, key := range []string{"username", "email", "password"} {
		if _, ok := form[key]; !ok {
			r.addError(msgMissingFields)
			break
		}
	}

	username := form.Get("username")
	email := strings.TrimSpace(form.Get("email"))
	password := form.Get("password")
	r.Fields["username"] = username
	r.Fields["email"] = email

	if username == "" || strings.HasPrefix(username, " ") {
		r.addError("Valid username is required")
	}
	if !strings.Contains(email, "@") {
		r.addError("Email is required")
	}
	if !validPassword(password) {
		r.addError("A valid password is required")
	}
	return r, password
}

// Passwords carries the two secret fields of a password update.
type Passwords struct {
	Old string
	New string
}

// UpdatePassword allows an empty old password so an admin can reset another
// account; a non-empty one must still be long enough.
func UpdatePassword(form url.Values) (Result, Passwords) {
	r := newResult()
	username := form.Get("username")
	p := Passwords{Old: form.Get("old_password"), New: form.Get("new_password")}
	r.Fields["username"] = username

	if username == "" || strings.HasPrefix(username, " ") {
		r.addError("Username is obligatory")
	}
	if p.Old != "" && !validPassword(p.Old) {
		r.addError("A valid old password is required")
	}
	if !validPassword(p.New) {
		r.addError("A valid new password is required")
	}
	return r, p
}
