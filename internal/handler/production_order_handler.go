package handler

import (
	"github.com/bitfantasy/nimo-mfg/internal/repository"
	"github.com/bitfantasy/nimo-mfg/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProductionOrderHandler 生产订单处理器
type ProductionOrderHandler struct {
	svc     *service.ProductionOrderService
	planner *service.MaterialPlanner
	logger  *zap.Logger
}

// NewProductionOrderHandler 创建生产订单处理器
func NewProductionOrderHandler(svc *service.ProductionOrderService, planner *service.MaterialPlanner, logger *zap.Logger) *ProductionOrderHandler {
	return &ProductionOrderHandler{svc: svc, planner: planner, logger: logger}
}

// List GET /production-orders?status=&product_id=&bom_id=
func (h *ProductionOrderHandler) List(c *gin.Context) {
	orders, err := h.svc.List(c.Request.Context(), repository.OrderListParams{
		Status:    c.Query("status"),
		ProductID: c.Query("product_id"),
		BOMID:     c.Query("bom_id"),
	})
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Success(c, gin.H{"items": orders, "total": len(orders)})
}

// MaterialPlan POST /production-orders/material-plan
func (h *ProductionOrderHandler) MaterialPlan(c *gin.Context) {
	var req service.MaterialPlanRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.planner.Plan(c.Request.Context(), &req)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Success(c, result)
}

// Create POST /production-orders
func (h *ProductionOrderHandler) Create(c *gin.Context) {
	var req service.CreateProductionOrderRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.svc.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Created(c, order)
}

// Get GET /production-orders/:id
func (h *ProductionOrderHandler) Get(c *gin.Context) {
	order, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Success(c, order)
}

// UpdateStatus PATCH /production-orders/:id/status
func (h *ProductionOrderHandler) UpdateStatus(c *gin.Context) {
	var req service.UpdateStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	order, err := h.svc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Success(c, order)
}

// ReportConsumption POST /production-orders/:id/materials/:materialId/consume
func (h *ProductionOrderHandler) ReportConsumption(c *gin.Context) {
	var req service.ReportConsumptionRequest
	if !bindJSON(c, &req) {
		return
	}

	line, err := h.svc.ReportConsumption(c.Request.Context(), c.Param("id"), c.Param("materialId"), &req)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Success(c, line)
}

// AddInspection POST /production-orders/:id/quality-inspections
func (h *ProductionOrderHandler) AddInspection(c *gin.Context) {
	var req service.AddInspectionRequest
	if !bindJSON(c, &req) {
		return
	}

	qi, err := h.svc.AddInspection(c.Request.Context(), c.Param("id"), GetUserID(c), &req)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Created(c, qi)
}
