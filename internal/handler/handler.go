package handler

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/bitfantasy/nimo-mfg/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Handlers 处理器集合
type Handlers struct {
	BOM             *BOMHandler
	ProductionOrder *ProductionOrderHandler
	Catalog         *CatalogHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services, logger *zap.Logger) *Handlers {
	registerJSONTagNames()
	return &Handlers{
		BOM:             NewBOMHandler(svc.BOM, logger),
		ProductionOrder: NewProductionOrderHandler(svc.ProductionOrder, svc.Planner, logger),
		Catalog:         NewCatalogHandler(svc.Catalog, logger),
	}
}

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	ErrorWithData(c, code, message, nil)
}

// ErrorWithData 带数据的错误响应
func ErrorWithData(c *gin.Context, code int, message string, data interface{}) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
		Data:    data,
	})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// ValidationFailed 字段校验失败
func ValidationFailed(c *gin.Context, errs []service.FieldError) {
	ErrorWithData(c, 40001, "validation failed", gin.H{"errors": errs})
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// Conflict 冲突响应
func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// GetUserID 从上下文获取用户ID
func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

// handleError 把服务层错误映射为响应
func handleError(c *gin.Context, logger *zap.Logger, err error) {
	var verr *service.ValidationError
	var cerr *service.ConflictError
	var nerr *service.NotFoundError
	switch {
	case errors.As(err, &verr):
		ValidationFailed(c, verr.Errors)
	case errors.As(err, &cerr):
		Conflict(c, cerr.Message)
	case errors.As(err, &nerr):
		NotFound(c, nerr.Error())
	default:
		logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err),
		)
		InternalError(c, "internal server error")
	}
}

// bindJSON 绑定请求体，binding标签校验失败时按字段返回
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			ValidationFailed(c, translateValidationErrors(verrs))
			return false
		}
		BadRequest(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func translateValidationErrors(verrs validator.ValidationErrors) []service.FieldError {
	out := make([]service.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg := "is invalid"
		switch fe.Tag() {
		case "required":
			msg = "is required"
		case "min", "gte":
			msg = "must be at least " + fe.Param()
		case "max", "lte":
			msg = "must be at most " + fe.Param()
		case "oneof":
			msg = "must be one of " + fe.Param()
		}
		out = append(out, service.FieldError{Field: fe.Field(), Message: msg})
	}
	return out
}

var tagNameOnce sync.Once

// registerJSONTagNames 校验错误的字段名使用json标签
func registerJSONTagNames() {
	tagNameOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
	})
}
