package server

import (
	"socialapi/internal/models"
	"socialapi/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListCategories handles GET /api/v1/posts/categories/
// @Summary List categories
// @Description Flat list by default; tree=true nests active categories under their parents.
// @Tags taxonomy
// @Produce json
// @Param tree query bool false "Return the nested tree"
// @Param active query bool false "Only active categories"
// @Success 200 {object} models.Envelope{data=[]models.Category}
// @Router /posts/categories/ [get]
func (s *Server) ListCategories(c *fiber.Ctx) error {
	var (
		categories []models.Category
		err        error
	)
	if c.QueryBool("tree", false) {
		categories, err = s.taxonomyService.CategoryTree(c.UserContext())
	} else {
		categories, err = s.taxonomyService.ListCategories(c.UserContext(), c.QueryBool("active", false))
	}
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Categories retrieved", categories)
}

// CreateCategory handles POST /api/v1/posts/categories/
// @Summary Create a category
// @Tags taxonomy
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body categoryRequest true "Category"
// @Success 201 {object} models.Envelope{data=models.Category}
// @Failure 403 {object} models.Envelope
// @Router /posts/categories/ [post]
func (s *Server) CreateCategory(c *fiber.Ctx) error {
	var req categoryRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	category, err := s.taxonomyService.CreateCategory(c.UserContext(), req.input())
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusCreated, "Category created", category)
}

// GetCategory handles GET /api/v1/posts/categories/:id/
// @Summary Get a category
// @Tags taxonomy
// @Produce json
// @Param id path int true "Category ID"
// @Success 200 {object} models.Envelope{data=models.Category}
// @Failure 404 {object} models.Envelope
// @Router /posts/categories/{id}/ [get]
func (s *Server) GetCategory(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	category, err := s.taxonomyService.GetCategory(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Category retrieved", category)
}

// UpdateCategory handles PUT|PATCH /api/v1/posts/categories/:id/
// @Summary Update a category
// @Tags taxonomy
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Category ID"
// @Param request body categoryRequest true "Fields to change"
// @Success 200 {object} models.Envelope{data=models.Category}
// @Router /posts/categories/{id}/ [patch]
func (s *Server) UpdateCategory(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req categoryRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	category, err := s.taxonomyService.UpdateCategory(c.UserContext(), id, req.input())
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Category updated", category)
}

// DeleteCategory handles DELETE /api/v1/posts/categories/:id/
// @Summary Delete a category
// @Description Subcategories are removed with it; posts lose the category.
// @Tags taxonomy
// @Security BearerAuth
// @Produce json
// @Param id path int true "Category ID"
// @Success 200 {object} models.Envelope
// @Router /posts/categories/{id}/ [delete]
func (s *Server) DeleteCategory(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.taxonomyService.DeleteCategory(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Category deleted", nil)
}

// ListTags handles GET /api/v1/posts/tags/
// @Summary List tags
// @Tags taxonomy
// @Produce json
// @Success 200 {object} models.Envelope{data=[]models.Tag}
// @Router /posts/tags/ [get]
func (s *Server) ListTags(c *fiber.Ctx) error {
	tags, err := s.taxonomyService.ListTags(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Tags retrieved", tags)
}

// CreateTag handles POST /api/v1/posts/tags/
// @Summary Create a tag
// @Tags taxonomy
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body tagRequest true "Tag"
// @Success 201 {object} models.Envelope{data=models.Tag}
// @Router /posts/tags/ [post]
func (s *Server) CreateTag(c *fiber.Ctx) error {
	var req tagRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	tag, err := s.taxonomyService.CreateTag(c.UserContext(), req.input())
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusCreated, "Tag created", tag)
}

// GetTag handles GET /api/v1/posts/tags/:id/
// @Summary Get a tag
// @Tags taxonomy
// @Produce json
// @Param id path int true "Tag ID"
// @Success 200 {object} models.Envelope{data=models.Tag}
// @Failure 404 {object} models.Envelope
// @Router /posts/tags/{id}/ [get]
func (s *Server) GetTag(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	tag, err := s.taxonomyService.GetTag(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Tag retrieved", tag)
}

// UpdateTag handles PUT|PATCH /api/v1/posts/tags/:id/
// @Summary Update a tag
// @Tags taxonomy
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Tag ID"
// @Param request body tagRequest true "Fields to change"
// @Success 200 {object} models.Envelope{data=models.Tag}
// @Router /posts/tags/{id}/ [patch]
func (s *Server) UpdateTag(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req tagRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	tag, err := s.taxonomyService.UpdateTag(c.UserContext(), id, req.input())
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Tag updated", tag)
}

// DeleteTag handles DELETE /api/v1/posts/tags/:id/
// @Summary Delete a tag
// @Tags taxonomy
// @Security BearerAuth
// @Produce json
// @Param id path int true "Tag ID"
// @Success 200 {object} models.Envelope
// @Router /posts/tags/{id}/ [delete]
func (s *Server) DeleteTag(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.taxonomyService.DeleteTag(c.UserContext(), id); err != nil {
		return respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Tag deleted", nil)
}

// RecountTags handles POST /api/v1/admin/tags/recount/
// @Summary Recompute tag usage counts
// @Tags admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.Envelope
// @Router /admin/tags/recount/ [post]
func (s *Server) RecountTags(c *fiber.Ctx) error {
	updated, err := s.taxonomyService.RecountTagUsage(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return models.RespondOK(c, fiber.StatusOK, "Tag usage recounted", fiber.Map{"updated": updated})
}

func (r categoryRequest) input() service.CategoryInput {
	return service.CategoryInput{
		Name:        r.Name,
		Slug:        r.Slug,
		Description: r.Description,
		Color:       r.Color,
		ParentID:    r.ParentID,
		Order:       r.Order,
		IsActive:    r.IsActive,
	}
}

func (r tagRequest) input() service.TagInput {
	return service.TagInput{Name: r.Name, Slug: r.Slug, Description: r.Description}
}
