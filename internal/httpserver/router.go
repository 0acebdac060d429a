package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/Skotchmaster/bus_pass/internal/gate"
	pkgdb "github.com/Skotchmaster/bus_pass/pkg/db"
	"github.com/Skotchmaster/bus_pass/pkg/logging"
	"github.com/Skotchmaster/bus_pass/pkg/tokens"
)

const maxUpload = "10M"

type Deps struct {
	DB           *gorm.DB
	Tokens       *tokens.Issuer
	Policy       gate.Policy
	SecureCookie bool

	// LoginLimiter guards the login endpoints; nil means no limit.
	LoginLimiter echo.MiddlewareFunc

	Auth  *AuthHTTP
	Users *UsersHTTP
	Pass  *PassHTTP
	Chat  *ChatHTTP
	Pages *PagesHTTP
}

func Register(e *echo.Echo, d *Deps) {
	e.Use(gate.Middleware(d.Tokens, d.Policy, d.SecureCookie))

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if err := pkgdb.Ping(c.Request().Context(), d.DB); err != nil {
			logging.FromContext(c.Request().Context()).Error("ready_error", "status", 503, "error", err)
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})

	limit := d.LoginLimiter
	if limit == nil {
		limit = func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}

	e.GET("/", d.Pages.StudentLogin)
	e.GET("/admin", d.Pages.AdminLogin)
	e.GET("/signup", d.Pages.Signup)
	e.GET("/admindash", d.Pages.AdminDashboard)
	e.GET("/studentdash", d.Pages.StudentDashboard)
	e.GET("/studentdash/qr", d.Pages.PassCountdown)

	auth := e.Group("/api/auth")
	auth.POST("/signup", d.Auth.Signup)
	auth.POST("/login", d.Auth.Login, limit)
	auth.POST("/logout", d.Auth.Logout)

	e.POST("/api/admin/login", d.Auth.AdminLogin, limit)
	e.POST("/api/admin/logout", d.Auth.Logout)

	users := e.Group("/api/users")
	users.GET("", d.Users.ListUsers)
	users.POST("", d.Users.BulkCreate)
	users.POST("/bulk", d.Users.BulkCreate)
	users.POST("/manual", d.Users.CreateManual)
	users.POST("/update-password", d.Users.UpdatePassword)
	users.POST("/import", d.Users.Import, echomw.BodyLimit(maxUpload))
	users.POST("/import/preview", d.Users.PreviewImport, echomw.BodyLimit(maxUpload))
	users.GET("/:id", d.Users.GetUser)
	users.PUT("/:id", d.Users.UpdateUser)
	users.DELETE("/:id", d.Users.DeleteUser)

	e.POST("/api/generate-qr", d.Pass.GenerateQR)
	e.POST("/api/chat", d.Chat.Chat)
}
