package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/medflow/internal/jwtmiddleware"
	"github.com/Skotchmaster/medflow/internal/middleware/auth"
	"github.com/Skotchmaster/medflow/internal/middleware/metrics"
	"github.com/Skotchmaster/medflow/internal/models"
	"github.com/Skotchmaster/medflow/internal/repo"
)

const extensionPrefix = "/api/extension/v1"

type Deps struct {
	DB           *gorm.DB
	Repo         *repo.GormRepo
	Metrics      *metrics.Metrics
	Sessions     auth.Authenticator
	JWTSecret    []byte
	SecureCookie bool

	// ExtensionOrigins may call the extension API cross-origin.
	ExtensionOrigins []string

	Auth        *AuthHTTP
	Users       *UsersHTTP
	KeyBindings *KeyBindingsHTTP
	Extension   *ExtensionHTTP
	Activity    *ActivityHTTP
	Admin       *AdminHTTP
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		sqlDB, err := d.DB.DB()
		if err != nil || sqlDB.PingContext(c.Request().Context()) != nil {
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})
	if d.Metrics != nil {
		e.GET("/metrics", d.Metrics.Handler())
	}

	login := auth.RequireLogin(d.Sessions, d.SecureCookie)
	admin := auth.RequireRole(models.RoleAdmin)

	api := e.Group("/api")

	api.GET("/login", d.Auth.LoginRedirect)
	api.POST("/login", d.Auth.Login)
	api.GET("/logout", d.Auth.Logout)
	api.POST("/logout", d.Auth.Logout)

	api.GET("/auth/user", d.Auth.CurrentUser, login)
	api.PATCH("/auth/user", d.Auth.UpdateCurrentUser, login)

	kb := api.Group("/key-bindings", login)

	kb.GET("", d.KeyBindings.List)
	kb.POST("", d.KeyBindings.Create)
	kb.GET("/search", d.KeyBindings.Search)
	kb.PATCH("/:id", d.KeyBindings.Update)
	kb.DELETE("/:id", d.KeyBindings.Delete)

	api.GET("/extension-settings", d.Extension.GetSettings, login)
	api.PATCH("/extension-settings", d.Extension.UpdateSettings, login)
	api.POST("/extension/token", d.Extension.IssueToken, login)
	api.GET("/activity-logs", d.Activity.List, login)

	ext := e.Group(extensionPrefix, jwtmiddleware.Extension(d.JWTSecret), auth.RequireBearerUser(d.Repo))

	ext.GET("/settings", d.Extension.GetSettings)
	ext.PATCH("/settings", d.Extension.SyncSettings)
	ext.GET("/key-bindings", d.Extension.ActiveKeyBindings)

	users := api.Group("/users", login, admin)

	users.GET("", d.Users.List)
	users.POST("", d.Users.Create)
	users.GET("/:id", d.Users.Get)
	users.PATCH("/:id", d.Users.Update)
	users.DELETE("/:id", d.Users.Delete)
	users.GET("/:id/key-bindings", d.Users.KeyBindingsOf)
	users.GET("/:id/activity-logs", d.Users.ActivityOf)

	incidents := api.Group("/security-incidents", login, admin)

	incidents.GET("", d.Admin.ListIncidents)
	incidents.PATCH("/:id/resolve", d.Admin.ResolveIncident)

	settings := api.Group("/admin", login, admin)

	settings.GET("/tool-settings", d.Admin.ListToolSettings)
	settings.PUT("/tool-settings", d.Admin.PutToolSettings)
	settings.GET("/tool-settings/:tool", d.Admin.GetToolSettings)
	settings.PUT("/tool-settings/:tool", d.Admin.PutToolSettings)
	settings.GET("/settings", d.Admin.ListAdminSettings)
	settings.PUT("/settings", d.Admin.PutAdminSettings)
	settings.GET("/settings/:category", d.Admin.GetAdminSettings)
	settings.PUT("/settings/:category", d.Admin.PutAdminSettings)

	api.GET("/stats", d.Admin.GetStats, login, admin)
}
