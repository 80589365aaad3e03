package bootstrap

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	importapp "github.com/mohammadpnp/catalog-import/internal/application/importjob"
	productapp "github.com/mohammadpnp/catalog-import/internal/application/product"
	httpecho "github.com/mohammadpnp/catalog-import/internal/interfaces/http/echo"
)

func NewHTTPServer(app *App) *echo.Echo {
	server := echo.New()
	server.HideBanner = true

	// Multipart framing on top of the largest accepted file.
	bodyLimit := fmt.Sprintf("%dM", app.Config.MaxUploadMB+1)

	server.Use(middleware.Recover())
	server.Use(middleware.RequestID())
	server.Use(middleware.BodyLimit(bodyLimit))

	importHandler := httpecho.NewImportHandler(
		importapp.NewStartImport(app.ImportJobs, app.JobNotifier()),
		importapp.NewGetImportJob(app.ImportJobs),
		importapp.NewCancelImportJob(app.ImportJobs),
		importapp.NewWatchImportJob(app.ImportJobs, app.Hub),
		app.Config.MaxUploadBytes(),
	)
	productHandler := httpecho.NewProductHandler(
		productapp.NewCreateProduct(app.Products, app.Dispatcher),
		productapp.NewGetProduct(app.Products),
	)

	httpecho.RegisterRoutes(server, importHandler, productHandler)

	server.GET("/healthz", func(c echo.Context) error {
		if err := app.Pool.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	return server
}
