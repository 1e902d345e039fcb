package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bitfantasy/nimo-mfg/internal/model/entity"
	"github.com/bitfantasy/nimo-mfg/internal/repository"
	"github.com/shopspring/decimal"
)

// CatalogService 产品与工作中心
type CatalogService struct {
	repos *repository.Repositories
}

func NewCatalogService(repos *repository.Repositories) *CatalogService {
	return &CatalogService{repos: repos}
}

// CreateProductRequest 创建产品请求
type CreateProductRequest struct {
	Code          string          `json:"code" binding:"required"`
	Name          string          `json:"name" binding:"required"`
	Description   string          `json:"description"`
	UnitOfMeasure string          `json:"unit_of_measure"`
	StandardCost  decimal.Decimal `json:"standard_cost"`
}

// CreateWorkCenterRequest 创建工作中心请求
type CreateWorkCenterRequest struct {
	Code            string          `json:"code" binding:"required"`
	Name            string          `json:"name" binding:"required"`
	Description     string          `json:"description"`
	CapacityPerHour decimal.Decimal `json:"capacity_per_hour"`
	IsActive        *bool           `json:"is_active"`
}

func (s *CatalogService) ListProducts(ctx context.Context, keyword string) ([]entity.Product, error) {
	products, err := s.repos.Product.List(ctx, keyword)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// CreateProduct 创建产品，编码唯一
func (s *CatalogService) CreateProduct(ctx context.Context, req *CreateProductRequest) (*entity.Product, error) {
	verr := &ValidationError{}
	code := strings.TrimSpace(req.Code)
	name := strings.TrimSpace(req.Name)
	if code == "" {
		verr.Add("code", "is required")
	}
	if name == "" {
		verr.Add("name", "is required")
	}
	if req.StandardCost.IsNegative() {
		verr.Add("standard_cost", "must not be negative")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	exists, err := s.repos.Product.CodeExists(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("check product code: %w", err)
	}
	if exists {
		return nil, &ConflictError{Message: "product code " + code + " already exists"}
	}

	unit := strings.TrimSpace(req.UnitOfMeasure)
	if unit == "" {
		unit = "Each"
	}
	now := time.Now()
	p := &entity.Product{
		ID:            repository.GenerateID(),
		Code:          code,
		Name:          name,
		Description:   req.Description,
		UnitOfMeasure: unit,
		StandardCost:  req.StandardCost,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repos.Product.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &ConflictError{Message: "product code " + code + " already exists"}
		}
		return nil, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

func (s *CatalogService) ListWorkCenters(ctx context.Context, activeOnly bool) ([]entity.WorkCenter, error) {
	centers, err := s.repos.WorkCenter.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list work centers: %w", err)
	}
	return centers, nil
}

// CreateWorkCenter 创建工作中心，编码唯一
func (s *CatalogService) CreateWorkCenter(ctx context.Context, req *CreateWorkCenterRequest) (*entity.WorkCenter, error) {
	verr := &ValidationError{}
	code := strings.TrimSpace(req.Code)
	name := strings.TrimSpace(req.Name)
	if code == "" {
		verr.Add("code", "is required")
	}
	if name == "" {
		verr.Add("name", "is required")
	}
	if req.CapacityPerHour.IsNegative() {
		verr.Add("capacity_per_hour", "must not be negative")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	exists, err := s.repos.WorkCenter.CodeExists(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("check work center code: %w", err)
	}
	if exists {
		return nil, &ConflictError{Message: "work center code " + code + " already exists"}
	}

	now := time.Now()
	wc := &entity.WorkCenter{
		ID:              repository.GenerateID(),
		Code:            code,
		Name:            name,
		Description:     req.Description,
		CapacityPerHour: req.CapacityPerHour,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if req.IsActive != nil {
		wc.IsActive = *req.IsActive
	}
	if err := s.repos.WorkCenter.Create(ctx, wc); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &ConflictError{Message: "work center code " + code + " already exists"}
		}
		return nil, fmt.Errorf("create work center: %w", err)
	}
	return wc, nil
}
