package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/AnTengye/docsign/middleware"
	"github.com/AnTengye/docsign/model"
	"github.com/AnTengye/docsign/pkg/logger"
	"github.com/AnTengye/docsign/repository"
	"github.com/gin-gonic/gin"
)

type TemplateHandler struct {
	templates repository.TemplateRepository
}

func NewTemplateHandler(templates repository.TemplateRepository) *TemplateHandler {
	return &TemplateHandler{templates: templates}
}

type CreateTemplateRequest struct {
	Key    string                 `json:"key" binding:"required"`
	Name   string                 `json:"name"`
	Fields []model.SignatureField `json:"fields"`
}

type ReplaceFieldsRequest struct {
	Fields []model.SignatureField `json:"fields"`
}

// List returns all templates with their fields
func (h *TemplateHandler) List(c *gin.Context) {
	templates, err := h.templates.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

// Create stores a new template
func (h *TemplateHandler) Create(c *gin.Context) {
	var req CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	key := strings.TrimSpace(req.Key)
	if key == "" {
		badRequest(c, "key is required")
		return
	}
	if err := validateFields(req.Fields); err != nil {
		badRequest(c, err.Error())
		return
	}

	ctx := c.Request.Context()
	if _, err := h.templates.GetByKey(ctx, key); err == nil {
		middleware.Abort(c, http.StatusConflict, kindConflict, fmt.Sprintf("template %q already exists", key))
		return
	} else if !errors.Is(err, repository.ErrNotFound) {
		respondError(c, err)
		return
	}

	tpl := &model.Template{Key: key, Name: strings.TrimSpace(req.Name), Fields: req.Fields}
	if err := h.templates.Create(ctx, tpl); err != nil {
		respondError(c, err)
		return
	}

	logger.Info(ctx, "template created", "template", tpl.Key, "fields", len(tpl.Fields))
	c.JSON(http.StatusCreated, tpl)
}

// Get returns a template by numeric id or key
func (h *TemplateHandler) Get(c *gin.Context) {
	tpl, ok := h.resolve(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, tpl)
}

// ReplaceFields swaps the field layout of a template no document uses yet
func (h *TemplateHandler) ReplaceFields(c *gin.Context) {
	var req ReplaceFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	if err := validateFields(req.Fields); err != nil {
		badRequest(c, err.Error())
		return
	}

	tpl, ok := h.resolve(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.templates.ReplaceFields(ctx, tpl.ID, req.Fields); err != nil {
		respondError(c, err)
		return
	}

	updated, err := h.templates.GetByID(ctx, tpl.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	logger.Info(ctx, "template fields replaced", "template", updated.Key, "fields", len(updated.Fields))
	c.JSON(http.StatusOK, updated)
}

// resolve loads :ref as an id first, then as a key.
func (h *TemplateHandler) resolve(c *gin.Context) (*model.Template, bool) {
	ctx := c.Request.Context()
	ref := strings.TrimSpace(c.Param("ref"))

	var (
		tpl *model.Template
		err = repository.ErrNotFound
	)
	if id, perr := strconv.ParseUint(ref, 10, 64); perr == nil && id > 0 {
		tpl, err = h.templates.GetByID(ctx, uint(id))
	}
	if errors.Is(err, repository.ErrNotFound) {
		tpl, err = h.templates.GetByKey(ctx, ref)
	}
	if errors.Is(err, repository.ErrNotFound) {
		notFound(c, fmt.Sprintf("template %q not found", ref))
		return nil, false
	}
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return tpl, true
}

// validateFields checks field ids, types and geometry. Page numbers above
// the rendered page count are allowed and clamped at placement time.
func validateFields(fields []model.SignatureField) error {
	seen := make(map[string]bool, len(fields))
	for i := range fields {
		f := &fields[i]
		f.FieldID = strings.TrimSpace(f.FieldID)
		f.SignerRole = strings.TrimSpace(f.SignerRole)
		if f.FieldID == "" {
			return fmt.Errorf("fields[%d]: id is required", i)
		}
		if seen[f.FieldID] {
			return fmt.Errorf("fields[%d]: duplicate id %q", i, f.FieldID)
		}
		seen[f.FieldID] = true

		if !model.ValidFieldType(f.FieldType) {
			return fmt.Errorf("fields[%d]: unknown field_type %q", i, f.FieldType)
		}
		if f.PageNumber < 1 {
			return fmt.Errorf("fields[%d]: page_number must be at least 1", i)
		}
		for name, v := range map[string]float64{
			"x_percent":      f.XPercent,
			"y_percent":      f.YPercent,
			"width_percent":  f.WidthPercent,
			"height_percent": f.HeightPercent,
		} {
			if v < 0 || v > 100 {
				return fmt.Errorf("fields[%d]: %s must be within [0, 100]", i, name)
			}
		}
	}
	return nil
}
