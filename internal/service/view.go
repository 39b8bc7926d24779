package service

import (
	"errors"
	"fmt"

	"github.com/Skotchmaster/userpanel/internal/directory"
	"github.com/Skotchmaster/userpanel/internal/forms"
	"github.com/Skotchmaster/userpanel/internal/models"
)

const (
	TplHome       = "home.html"
	TplLogin      = "login.html"
	TplUserOps    = "user/user_operations.html"
	TplUserAll    = "user/user_all.html"
	TplUserInfo   = "user/user_info.html"
	TplUserSearch = "user/user_search.html"
	TplError      = "error.html"
)

// ErrStorage marks failures of the backing store. Handlers turn it into the
// generic failure page; every other outcome is reported inside a View.
var ErrStorage = errors.New("storage failure")

func storageErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

// View is the template to render plus the data it needs.
type View struct {
	Template string
	Msg      string
	Errors   []string
	Fields   map[string]string
	User     *models.User
	Users    []models.User
	Entries  []directory.Entry
	Query    string
}

func viewFrom(tpl string, r forms.Result) View {
	return View{Template: tpl, Errors: r.Errors, Fields: r.Fields}
}

func (v View) withError(msg string) View {
	v.Errors = append(v.Errors, msg)
	return v
}

func (v View) withMsg(msg string) View {
	v.Msg = msg
	return v
}
