package handler

import (
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/labstack/echo/v4"
)

const (
	flashStatusKey = "flash_status"
	flashErrorKey  = "flash_error"
)

// FlashForbiddenEdit is shown when someone opens the edit form of a comment
// they neither own nor moderate.
const FlashForbiddenEdit = "No tienes permiso para editar este comentario."

// NewSessionManager returns the cookie session used for flash messages.
func NewSessionManager(lifetime time.Duration, secure bool) *scs.SessionManager {
	sm := scs.New()
	sm.Lifetime = lifetime
	sm.Cookie.Name = "bookstore_session"
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Secure = secure
	return sm
}

// Flash stores one-shot messages in the session.  The session must be
// loaded by echo.WrapMiddleware(sm.LoadAndSave).
type Flash struct {
	sm *scs.SessionManager
}

func NewFlash(sm *scs.SessionManager) *Flash { return &Flash{sm: sm} }

// Status queues a success message.
func (f *Flash) Status(c echo.Context, msg string) {
	f.sm.Put(c.Request().Context(), flashStatusKey, msg)
}

// Error queues an error message.
func (f *Flash) Error(c echo.Context, msg string) {
	f.sm.Put(c.Request().Context(), flashErrorKey, msg)
}

// Pop returns and clears the pending messages.  It returns nil when there
// are none.
func (f *Flash) Pop(c echo.Context) echo.Map {
	ctx := c.Request().Context()
	out := echo.Map{}
	if s := f.sm.PopString(ctx, flashStatusKey); s != "" {
		out["status"] = s
	}
	if s := f.sm.PopString(ctx, flashErrorKey); s != "" {
		out["error"] = s
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// redirectWith queues a status message and answers 303 to path.
func (b *Base) redirectWith(c echo.Context, path, msg string) error {
	b.Flash.Status(c, msg)
	return c.Redirect(http.StatusSeeOther, path)
}
