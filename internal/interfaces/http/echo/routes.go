package echo

import e "github.com/labstack/echo/v4"

func RegisterRoutes(server *e.Echo, importHandler *ImportHandler, productHandler *ProductHandler) {
	imports := server.Group("/api/v1/imports")
	imports.POST("", importHandler.StartImport)
	imports.GET("/:id", importHandler.GetImportJob)
	imports.GET("/:id/progress", importHandler.StreamProgress)
	imports.GET("/:id/ws", importHandler.StreamProgressWS)
	imports.POST("/:id/cancel", importHandler.CancelImportJob)

	server.POST("/api/v1/products", productHandler.CreateProduct)
	server.GET("/api/v1/products/:id", productHandler.GetProduct)
}
