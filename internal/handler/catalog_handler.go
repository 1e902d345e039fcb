package handler

import (
	"github.com/bitfantasy/nimo-mfg/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CatalogHandler 产品与工作中心
type CatalogHandler struct {
	svc    *service.CatalogService
	logger *zap.Logger
}

func NewCatalogHandler(svc *service.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{svc: svc, logger: logger}
}

// ListProducts GET /products?keyword=
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	products, err := h.svc.ListProducts(c.Request.Context(), c.Query("keyword"))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Success(c, gin.H{"items": products, "total": len(products)})
}

// CreateProduct POST /products
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}
	p, err := h.svc.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Created(c, p)
}

// ListWorkCenters GET /work-centers?active=true
func (h *CatalogHandler) ListWorkCenters(c *gin.Context) {
	centers, err := h.svc.ListWorkCenters(c.Request.Context(), c.Query("active") == "true")
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Success(c, gin.H{"items": centers, "total": len(centers)})
}

// CreateWorkCenter POST /work-centers
func (h *CatalogHandler) CreateWorkCenter(c *gin.Context) {
	var req service.CreateWorkCenterRequest
	if !bindJSON(c, &req) {
		return
	}
	wc, err := h.svc.CreateWorkCenter(c.Request.Context(), &req)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Created(c, wc)
}
