package handler

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bitfantasy/nimo-mfg/internal/repository"
	"github.com/bitfantasy/nimo-mfg/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// BOMHandler BOM处理器
type BOMHandler struct {
	svc    *service.BOMService
	logger *zap.Logger
}

// NewBOMHandler 创建BOM处理器
func NewBOMHandler(svc *service.BOMService, logger *zap.Logger) *BOMHandler {
	return &BOMHandler{svc: svc, logger: logger}
}

// List GET /boms?product_id=&is_active=
func (h *BOMHandler) List(c *gin.Context) {
	params := repository.BOMListParams{ProductID: c.Query("product_id")}
	if v := c.Query("is_active"); v != "" {
		active, err := strconv.ParseBool(v)
		if err != nil {
			BadRequest(c, "is_active must be true or false")
			return
		}
		params.IsActive = &active
	}

	boms, err := h.svc.ListBOMs(c.Request.Context(), params)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Success(c, gin.H{"items": boms, "total": len(boms)})
}

// NextVersion GET /boms/next-version?product_id=
func (h *BOMHandler) NextVersion(c *gin.Context) {
	productID := c.Query("product_id")
	version, err := h.svc.NextVersionFor(c.Request.Context(), productID)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Success(c, gin.H{"product_id": productID, "version": version})
}

// Compare GET /boms/compare?bom_a=&bom_b=
func (h *BOMHandler) Compare(c *gin.Context) {
	result, err := h.svc.Compare(c.Request.Context(), c.Query("bom_a"), c.Query("bom_b"))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Success(c, result)
}

// Get GET /boms/:id
func (h *BOMHandler) Get(c *gin.Context) {
	result, err := h.svc.GetBOM(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Success(c, result)
}

// Create POST /boms
func (h *BOMHandler) Create(c *gin.Context) {
	var req service.CreateBOMRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.svc.CreateBOM(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Created(c, result)
}

// Update PATCH /boms/:id
func (h *BOMHandler) Update(c *gin.Context) {
	var req service.UpdateBOMRequest
	if !bindJSON(c, &req) {
		return
	}

	bom, err := h.svc.UpdateBOM(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Success(c, bom)
}

// ToggleActive POST /boms/:id/toggle-active
func (h *BOMHandler) ToggleActive(c *gin.Context) {
	bom, err := h.svc.ToggleActive(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Success(c, bom)
}

// Approve POST /boms/:id/approve
func (h *BOMHandler) Approve(c *gin.Context) {
	bom, err := h.svc.Approve(c.Request.Context(), c.Param("id"), GetUserID(c))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Success(c, bom)
}

// CopySuggestion GET /boms/:id/copy-suggestion
func (h *BOMHandler) CopySuggestion(c *gin.Context) {
	suggestion, err := h.svc.CopySuggestion(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Success(c, suggestion)
}

// Copy POST /boms/:id/copy
func (h *BOMHandler) Copy(c *gin.Context) {
	var req service.CopyBOMRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.svc.CopyBOM(c.Request.Context(), c.Param("id"), GetUserID(c), &req)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Created(c, result)
}

// AddItem POST /boms/:id/items
func (h *BOMHandler) AddItem(c *gin.Context) {
	var req service.AddBOMItemRequest
	if !bindJSON(c, &req) {
		return
	}

	item, err := h.svc.AddItem(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Created(c, item)
}

// DeleteItem DELETE /boms/:id/items/:itemId
func (h *BOMHandler) DeleteItem(c *gin.Context) {
	if err := h.svc.RemoveItem(c.Request.Context(), c.Param("id"), c.Param("itemId")); err != nil {
		handleError(c, h.logger, err)
		return
	}
	Success(c, nil)
}

// ImportItems POST /boms/:id/items/import?encoding= (multipart file, xlsx或csv)
func (h *BOMHandler) ImportItems(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		BadRequest(c, "file is required")
		return
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(header.Filename), ".csv") {
		result, err := h.svc.ImportItemsCSV(c.Request.Context(), c.Param("id"), file, c.Query("encoding"))
		if err != nil {
			handleError(c, h.logger, err)
			return
		}
		Success(c, result)
		return
	}

	f, err := excelize.OpenReader(file)
	if err != nil {
		BadRequest(c, "cannot read workbook: "+err.Error())
		return
	}
	defer f.Close()

	result, err := h.svc.ImportItems(c.Request.Context(), c.Param("id"), f)
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	Success(c, result)
}

// ImportTemplate GET /boms/import-template
func (h *BOMHandler) ImportTemplate(c *gin.Context) {
	f, err := h.svc.GenerateImportTemplate()
	if err != nil {
		handleError(c, h.logger, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=\"BOM_Items_Template.xlsx\"")
	c.Header("Content-Transfer-Encoding", "binary")

	if err := f.Write(c.Writer); err != nil {
		h.logger.Error("Write import template failed", zap.Error(err))
	}
}
