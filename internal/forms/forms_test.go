package forms

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	t.Parallel()

	r := Lookup(url.Values{"username": {" john "}})
	assert.True(t, r.Valid())
	assert.Equal(t, "john", r.Get("username"))

	r = Lookup(url.Values{})
	assert.False(t, r.Valid())
	assert.Equal(t, []string{"Username is required"}, r.Errors)
}

func TestLogin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		form   url.Values
		errors []string
	}{
		{name: "ok", form: url.Values{"username": {"john"}, "password": {"secret"}}},
		{name: "no username", form: url.Values{"password": {"secret"}}, errors: []string{"Username is required"}},
		{name: "short password", form: url.Values{"username": {"john"}, "password": {"abc"}}, errors: []string{"A valid password is required"}},
		{name: "empty", form: url.Values{}, errors: []string{"Username is required", "A valid password is required"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r, password := Login(tt.form)
			assert.Equal(t, tt.errors, r.Errors)
			assert.Equal(t, tt.form.Get("password"), password)
			assert.NotContains(t, r.Fields, "password")
		})
	}
}

func TestAddUser(t *testing.T) {
	t.Parallel()

	full := func(username, email, password string) url.Values {
		return url.Values{"username": {username}, "email": {email}, "password": {password}}
	}

	tests := []struct {
		name   string
		form   url.Values
		errors []string
	}{
		{name: "ok", form: full("mary", "mary@example.com", "secret")},
		{name: "leading space", form: full(" mary", "mary@example.com", "secret"), errors: []string{"Valid username is required"}},
		{name: "bad email", form: full("mary", "mary.example.com", "secret"), errors: []string{"Email is required"}},
		{name: "short password", form: full("mary", "mary@example.com", "1234"), errors: []string{"A valid password is required"}},
		{
			name: "missing keys",
			form: url.Values{"username": {"mary"}},
			errors: []string{
				"all requested data must be present within the form!",
				"Email is required",
				"A valid password is required",
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r, _ := AddUser(tt.form)
			assert.Equal(t, tt.errors, r.Errors)
			assert.Equal(t, len(tt.errors) == 0, r.Valid())
			assert.NotContains(t, r.Fields, "password")
			assert.Equal(t, tt.form.Get("username"), r.Get("username"))
		})
	}
}

func TestUpdatePassword(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		form   url.Values
		errors []string
	}{
		{name: "ok", form: url.Values{"username": {"john"}, "old_password": {"secret"}, "new_password": {"secret2"}}},
		{name: "admin reset without old", form: url.Values{"username": {"john"}, "new_password": {"secret2"}}},
		{name: "no username", form: url.Values{"old_password": {"secret"}, "new_password": {"secret2"}}, errors: []string{"Username is obligatory"}},
		{name: "short old", form: url.Values{"username": {"john"}, "old_password": {"abc"}, "new_password": {"secret2"}}, errors: []string{"A valid old password is required"}},
		{name: "short new", form: url.Values{"username": {"john"}, "old_password": {"secret"}, "new_password": {"abc"}}, errors: []string{"A valid new password is required"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r, p := UpdatePassword(tt.form)
			assert.Equal(t, tt.errors, r.Errors)
			assert.Equal(t, tt.form.Get("new_password"), p.New)
			assert.Equal(t, tt.form.Get("old_password"), p.Old)
			assert.Len(t, r.Fields, 1)
		})
	}
}
