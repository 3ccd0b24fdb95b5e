package handlers

import (
	"math"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/foty/internal/middleware"
	"github.com/example/foty/internal/models"
	"github.com/example/foty/internal/utils"
)

// PostHandler manages the community bulletin board.
type PostHandler struct {
	db *gorm.DB
}

// NewPostHandler constructs a PostHandler.
func NewPostHandler(db *gorm.DB) *PostHandler {
	return &PostHandler{db: db}
}

// ListPosts returns bulletin posts, newest first, paginated.
func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)

	var total int64
	if err := h.db.Model(&models.BulletinPost{}).Count(&total).Error; err != nil {
		return err
	}

	var posts []models.BulletinPost
	if err := h.db.
		Preload("Author", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name")
		}).
		Order("created_at desc").
		Limit(pg.Limit).
		Offset(pg.Offset).
		Find(&posts).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Posts fetched successfully",
		"data":    posts,
		"pagination": fiber.Map{
			"page":       pg.Page,
			"limit":      pg.Limit,
			"totalPages": int(math.Ceil(float64(total) / float64(pg.Limit))),
			"totalPosts": total,
		},
	})
}

// GetPost returns a single post.
func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	post, err := h.findPost(c)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"message": "Post fetched successfully",
		"data":    post,
	})
}

type postRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// CreatePost publishes a new bulletin post authored by the caller.
func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	userID, _ := middleware.GetCurrentUserID(c)

	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Title == "" || req.Content == "" {
		return fiber.NewError(fiber.StatusBadRequest, "title and content are required")
	}

	post := models.BulletinPost{
		Title:    req.Title,
		Content:  req.Content,
		AuthorID: userID,
	}
	if err := h.db.Create(&post).Error; err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Post created successfully",
		"data":    post,
	})
}

// UpdatePost edits a post; only the author may update it.
func (h *PostHandler) UpdatePost(c *fiber.Ctx) error {
	userID, _ := middleware.GetCurrentUserID(c)

	post, err := h.findPost(c)
	if err != nil {
		return err
	}
	if post.AuthorID != userID {
		return fiber.NewError(fiber.StatusForbidden, "not authorized to update this post")
	}

	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	updates := map[string]any{}
	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.Content != "" {
		updates["content"] = req.Content
	}
	if len(updates) > 0 {
		if err := h.db.Model(post).Updates(updates).Error; err != nil {
			return err
		}
	}

	return c.JSON(fiber.Map{
		"message": "Post updated successfully",
		"data":    post,
	})
}

// DeletePost removes a post; allowed for the author or an admin.
func (h *PostHandler) DeletePost(c *fiber.Ctx) error {
	userID, _ := middleware.GetCurrentUserID(c)

	post, err := h.findPost(c)
	if err != nil {
		return err
	}

	var caller models.User
	if err := h.db.Select("role").First(&caller, "id = ?", userID).Error; err != nil {
		return err
	}
	if post.AuthorID != userID && caller.Role != models.RoleAdmin {
		return fiber.NewError(fiber.StatusForbidden, "not authorized to delete this post")
	}

	if err := h.db.Delete(post).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{"message": "Post deleted successfully"})
}

func (h *PostHandler) findPost(c *fiber.Ctx) (*models.BulletinPost, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "invalid post id")
	}

	var post models.BulletinPost
	if err := h.db.
		Preload("Author", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name")
		}).
		First(&post, "id = ?", id).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "post not found")
	}
	return &post, nil
}
