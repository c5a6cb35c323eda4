package http

import (
	"github.com/gin-gonic/gin"
	"github.com/iyhunko/shopping-list/internal/http/controller"
	"github.com/iyhunko/shopping-list/internal/http/middleware"
)

func InitRouter(server *gin.Engine, ctr *controller.Controller, productCtr *controller.ProductController, prefsCtr *controller.PreferencesController, storeCtr *controller.StoreController) *gin.Engine {
	// Recovery must stay first
	server.Use(middleware.Recovery(), middleware.RequestID(), middleware.Logger(), middleware.CORS())

	server.GET("/ping", ctr.Ping)
	server.GET("/totals", productCtr.Totals)
	server.GET("/categories", productCtr.Categories)

	// Product endpoints
	products := server.Group("/products")
	{
		products.GET("", productCtr.ListProducts)
		products.POST("", productCtr.CreateProduct)
		products.POST("/reset-month", productCtr.ResetMonth)
		products.POST("/refresh", productCtr.Refresh)
		products.PUT("/:id", productCtr.UpdateProduct)
		products.PATCH("/:id/to-buy", productCtr.ToggleToBuy)
		products.PATCH("/:id/in-cart", productCtr.ToggleInCart)
		products.PATCH("/:id/price", productCtr.UpdatePrice)
		products.DELETE("/:id", productCtr.DeleteProduct)
	}

	server.GET("/store/products", storeCtr.ListStoredProducts)

	prefs := server.Group("/preferences")
	{
		prefs.GET("", prefsCtr.GetPreferences)
		prefs.PUT("", prefsCtr.UpdatePreferences)
	}

	return server
}
