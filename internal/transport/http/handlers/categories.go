package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ggontijo/campus-market/internal/transport/http/middleware"
	"github.com/ggontijo/campus-market/internal/usecase"
)

// CategoryHandler serves the two-level listing taxonomy.
type CategoryHandler struct {
	categories *usecase.CategoryService
}

// NewCategoryHandler builds the category handler.
func NewCategoryHandler(categories *usecase.CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

var categoryErrorCases = []ErrorCase{
	{Err: usecase.ErrValidation, Status: http.StatusBadRequest, Message: "invalid category data"},
	{Err: usecase.ErrCategoryNotFound, Status: http.StatusNotFound, Message: "category not found"},
	{Err: usecase.ErrInvalidHierarchy, Status: http.StatusUnprocessableEntity, Message: "categories nest at most one level deep"},
	{Err: usecase.ErrSlugTaken, Status: http.StatusConflict, Message: "category slug already in use"},
	{Err: usecase.ErrPermissionDenied, Status: http.StatusForbidden, Message: "insufficient permissions"},
}

// Create adds a category. Administrator only.
func (h *CategoryHandler) Create(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	category, err := h.categories.Create(c.Request.Context(), middleware.CurrentIdentity(c), usecase.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
		Slug:        req.Slug,
		ParentID:    req.ParentID,
	})
	if err != nil {
		RespondWithMappedError(c, err, categoryErrorCases, http.StatusInternalServerError, "category creation failed")
		return
	}

	c.JSON(http.StatusCreated, newCategoryPayload(*category))
}

// Update renames or re-parents a category. Administrator only.
func (h *CategoryHandler) Update(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid request payload"))
		return
	}

	category, err := h.categories.Update(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"), usecase.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
		Slug:        req.Slug,
		ParentID:    req.ParentID,
	})
	if err != nil {
		RespondWithMappedError(c, err, categoryErrorCases, http.StatusInternalServerError, "category update failed")
		return
	}

	c.JSON(http.StatusOK, newCategoryPayload(*category))
}

// Delete removes a category. Refused while listings or subcategories still
// reference it.
func (h *CategoryHandler) Delete(c *gin.Context) {
	err := h.categories.Delete(c.Request.Context(), middleware.CurrentIdentity(c), c.Param("id"))
	if err != nil {
		cases := append([]ErrorCase{
			{Err: usecase.ErrCategoryInUse, Status: http.StatusConflict, Message: "category is referenced by listings"},
			{Err: usecase.ErrCategoryHasChildren, Status: http.StatusConflict, Message: "category still has subcategories"},
		}, categoryErrorCases...)
		RespondWithMappedError(c, err, cases, http.StatusInternalServerError, "category deletion failed")
		return
	}

	c.Status(http.StatusNoContent)
}

// List returns categories. The parent_id query narrows to one root's
// children; parent_id= (empty) returns only roots.
func (h *CategoryHandler) List(c *gin.Context) {
	var parentID *string
	if raw, exists := c.GetQuery("parent_id"); exists {
		parentID = &raw
	}

	categories, err := h.categories.List(c.Request.Context(), parentID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "category listing failed"))
		return
	}

	payloads := make([]CategoryPayload, 0, len(categories))
	for _, category := range categories {
		payloads = append(payloads, newCategoryPayload(category))
	}

	c.JSON(http.StatusOK, CategoryListResponse{Categories: payloads})
}

// Hierarchy resolves a category together with its parent breadcrumb.
func (h *CategoryHandler) Hierarchy(c *gin.Context) {
	hierarchy, err := h.categories.ResolveHierarchy(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondWithMappedError(c, err, categoryErrorCases, http.StatusInternalServerError, "category lookup failed")
		return
	}

	resp := CategoryHierarchyResponse{Category: newCategoryPayload(hierarchy.Self)}
	if hierarchy.Parent != nil {
		parent := newCategoryPayload(*hierarchy.Parent)
		resp.Parent = &parent
	}

	c.JSON(http.StatusOK, resp)
}
