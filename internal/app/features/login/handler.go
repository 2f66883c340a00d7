// internal/app/features/login/handler.go
package login

import (
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/bhangaar/internal/app/features/errors"
	"github.com/dalemusser/bhangaar/internal/app/features/shared"
	"github.com/dalemusser/bhangaar/internal/app/system/appstate"
	"github.com/dalemusser/bhangaar/internal/app/system/auth"
	"github.com/dalemusser/bhangaar/internal/app/system/ratelimit"
	"github.com/dalemusser/bhangaar/internal/app/system/viewdata"
	"github.com/dalemusser/bhangaar/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.uber.org/zap"
)

type Handler struct {
	Log     *zap.Logger
	ErrLog  *uierrors.ErrorLogger
	Limiter *ratelimit.LoginLimiter // nil disables throttling
}

func NewHandler(errLog *uierrors.ErrorLogger, limiter *ratelimit.LoginLimiter, logger *zap.Logger) *Handler {
	return &Handler{
		Log:     logger,
		ErrLog:  errLog,
		Limiter: limiter,
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Template-data                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

type roleOption struct {
	Value string
	Label string
}

type loginFormData struct {
	viewdata.BaseVM
	Register  bool
	Email     string
	Name      string
	Phone     string
	Role      string
	Address   string
	ReturnURL string
	Roles     []roleOption
}

// Accounts created from the form; admins are provisioned on the backend.
var registerRoles = func() []roleOption {
	var opts []roleOption
	for _, role := range models.Roles {
		if _, admin := role.(models.Admin); admin {
			continue
		}
		opts = append(opts, roleOption{Value: role.String(), Label: models.RoleLabel(role.String())})
	}
	return opts
}()

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

// ServeLogin renders the sign-in form, or the registration form with
// ?mode=register. A signed-in browser goes straight to the dashboard.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.CurrentUser(r); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	if ctrl, ok := auth.Controller(r); ok {
		ctrl.Navigate(appstate.ViewLogin)
	}
	h.render(w, r, http.StatusOK, loginFormData{
		Register:  query.Get(r, "mode") == appstate.ModeRegister.String(),
		Role:      models.RoleHousehold,
		ReturnURL: query.Get(r, "return"),
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

// HandleLoginPost signs in or registers depending on the mode field.
func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/login")
		return
	}
	ctrl, ok := shared.Controller(w, r, h.ErrLog)
	if !ok {
		return
	}

	creds := appstate.Credentials{
		Mode:     appstate.ModeLogin,
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	if r.PostFormValue("mode") == appstate.ModeRegister.String() {
		creds.Mode = appstate.ModeRegister
		creds.Name = r.PostFormValue("name")
		creds.Phone = r.PostFormValue("phone")
		creds.Role = r.PostFormValue("role")
		creds.Address = r.PostFormValue("address")
	}
	data := loginFormData{
		Register:  creds.Mode == appstate.ModeRegister,
		Email:     creds.Email,
		Name:      creds.Name,
		Phone:     creds.Phone,
		Role:      creds.Role,
		Address:   creds.Address,
		ReturnURL: r.PostFormValue("return"),
	}
	if data.Role == "" {
		data.Role = models.RoleHousehold
	}

	if h.Limiter != nil {
		if allowed, msg := h.Limiter.Check(r, creds.Email); !allowed {
			h.Log.Warn("login throttled",
				zap.String("ip", ratelimit.ClientIP(r)),
				zap.String("email", creds.Email))
			ctrl.SetError(msg)
			h.render(w, r, http.StatusTooManyRequests, data)
			return
		}
	}

	ctx, cancel := shared.ActionContext(r, h.Log, creds.Mode.String())
	defer cancel()

	// A failed attempt leaves its message on the controller, which the
	// layout shows.
	if _, err := ctrl.Authenticate(ctx, auth.Storage(r), creds); err != nil {
		var ae *appstate.AuthError
		if !errors.As(err, &ae) {
			h.Log.Warn("authenticate returned an unexpected error", zap.Error(err))
		}
		h.render(w, r, http.StatusUnprocessableEntity, data)
		return
	}
	if h.Limiter != nil {
		h.Limiter.ResetEmail(creds.Email)
	}

	dest := urlutil.SafeReturn(data.ReturnURL, "", "/dashboard")
	shared.Redirect(w, r, dest)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, data loginFormData) {
	title := "Sign in"
	if data.Register {
		title = "Create account"
	}
	data.BaseVM = viewdata.NewBaseVM(r, title, "/")
	data.Roles = registerRoles
	w.WriteHeader(status)
	templates.Render(w, r, "login", data)
}
