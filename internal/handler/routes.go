package handler

import "github.com/gin-gonic/gin"

// RegisterRoutes 注册制造模块路由，调用方负责在group上挂认证中间件
func RegisterRoutes(api *gin.RouterGroup, h *Handlers) {
	mfg := api.Group("/manufacturing")

	// BOM
	boms := mfg.Group("/boms")
	{
		boms.GET("", h.BOM.List)
		boms.POST("", h.BOM.Create)
		boms.GET("/next-version", h.BOM.NextVersion)
		boms.GET("/compare", h.BOM.Compare)
		boms.GET("/import-template", h.BOM.ImportTemplate)
		boms.GET("/:id", h.BOM.Get)
		boms.PATCH("/:id", h.BOM.Update)
		boms.POST("/:id/toggle-active", h.BOM.ToggleActive)
		boms.POST("/:id/approve", h.BOM.Approve)
		boms.GET("/:id/copy-suggestion", h.BOM.CopySuggestion)
		boms.POST("/:id/copy", h.BOM.Copy)
		boms.POST("/:id/items", h.BOM.AddItem)
		boms.POST("/:id/items/import", h.BOM.ImportItems)
		boms.DELETE("/:id/items/:itemId", h.BOM.DeleteItem)
	}

	// 生产订单
	orders := mfg.Group("/production-orders")
	{
		orders.GET("", h.ProductionOrder.List)
		orders.POST("", h.ProductionOrder.Create)
		orders.POST("/material-plan", h.ProductionOrder.MaterialPlan)
		orders.GET("/:id", h.ProductionOrder.Get)
		orders.PATCH("/:id/status", h.ProductionOrder.UpdateStatus)
		orders.POST("/:id/materials/:materialId/consume", h.ProductionOrder.ReportConsumption)
		orders.POST("/:id/quality-inspections", h.ProductionOrder.AddInspection)
	}

	// 主数据
	mfg.GET("/products", h.Catalog.ListProducts)
	mfg.POST("/products", h.Catalog.CreateProduct)
	mfg.GET("/work-centers", h.Catalog.ListWorkCenters)
	mfg.POST("/work-centers", h.Catalog.CreateWorkCenter)
}
