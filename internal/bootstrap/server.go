package bootstrap

import (
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	app "github.com/mohammadpnp/place-ingest/internal/application/ingest"
	"github.com/mohammadpnp/place-ingest/internal/infrastructure/repository"
	httpecho "github.com/mohammadpnp/place-ingest/internal/interfaces/http/echo"
	"gorm.io/gorm"
)

func NewHTTPServer(db *gorm.DB) *echo.Echo {
	server := echo.New()
	server.HideBanner = true

	server.Use(middleware.Recover())
	server.Use(middleware.RequestID())
	server.Use(middleware.BodyLimit("1M"))

	jobRepo := repository.NewJobRepository(db)
	jobHandler := httpecho.NewJobHandler(
		app.NewStartJob(jobRepo),
		app.NewGetJob(jobRepo),
		app.NewRetryJob(jobRepo),
	)

	httpecho.RegisterRoutes(server, jobHandler)

	server.GET("/healthz", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	return server
}
