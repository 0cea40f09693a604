package server

import (
	"log/slog"

	"strider/internal/concepts/posting"
	"strider/internal/middleware"
	"strider/internal/models"
	"strider/internal/notifications"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /api/posts?username=
// @Summary List posts
// @Description All posts newest first, or only those by username
// @Tags posts
// @Produce json
// @Param username query string false "Author username"
// @Success 200 {array} PostView
// @Failure 404 {object} models.ErrorResponse
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var posts []posting.PostDoc
	if username := c.Query("username"); username != "" {
		authorID, err := s.lookupUserID(ctx, username)
		if err != nil {
			return err
		}
		if posts, err = s.posts.GetByAuthor(ctx, authorID); err != nil {
			return err
		}
	} else {
		var err error
		if posts, err = s.posts.GetPosts(ctx); err != nil {
			return err
		}
	}

	views, err := s.postViews(ctx, posts)
	if err != nil {
		return err
	}
	return c.JSON(views)
}

// GetPost handles GET /api/posts/single/:id
// @Summary Get a post
// @Tags posts
// @Produce json
// @Param id path string true "Post id"
// @Success 200 {object} PostView
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/single/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	id, err := models.ParseID(c.Params("id"), "post id")
	if err != nil {
		return err
	}

	post, err := s.posts.AssertPostExists(ctx, id)
	if err != nil {
		return err
	}
	view, err := s.postView(ctx, post)
	if err != nil {
		return err
	}
	return c.JSON(view)
}

// CreatePost handles POST /api/posts
// @Summary Create a post
// @Tags posts
// @Accept json
// @Produce json
// @Param request body object{content=string,options=posting.PostOptions,photo=string} true "Post"
// @Success 201 {object} object{msg=string,post=PostView}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}

	var req struct {
		Content string               `json:"content"`
		Options *posting.PostOptions `json:"options"`
		Photo   string               `json:"photo"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}

	post, err := s.posts.Create(ctx, userID, req.Content, req.Options, req.Photo)
	if err != nil {
		return err
	}
	view, err := s.postView(ctx, post)
	if err != nil {
		return err
	}

	s.publish(ctx, notifications.Event{Type: notifications.PostCreated, Actor: userID, Subject: post.ID})
	return message(c, fiber.StatusCreated, "Post successfully created!", fiber.Map{"post": view})
}

// UpdatePost handles PATCH /api/posts/:id. Omitted fields keep their stored value.
// @Summary Update a post
// @Tags posts
// @Accept json
// @Produce json
// @Param id path string true "Post id"
// @Param request body object{content=string,options=posting.PostOptions} false "Fields to change"
// @Success 200 {object} object{msg=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [patch]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	postID, err := models.ParseID(c.Params("id"), "post id")
	if err != nil {
		return err
	}

	var req struct {
		Content *string              `json:"content"`
		Options *posting.PostOptions `json:"options"`
	}
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return err
		}
	}

	if err := s.posts.AssertAuthorIsUser(ctx, postID, userID); err != nil {
		return err
	}
	if err := s.posts.Update(ctx, postID, req.Content, req.Options); err != nil {
		return err
	}
	return message(c, fiber.StatusOK, "Post successfully updated!", nil)
}

// DeletePost handles DELETE /api/posts/:id. The post's comments and caption go with it.
// @Summary Delete a post
// @Tags posts
// @Produce json
// @Param id path string true "Post id"
// @Success 200 {object} object{msg=string,commentsDeleted=int,captionDeleted=bool}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	postID, err := models.ParseID(c.Params("id"), "post id")
	if err != nil {
		return err
	}

	if err := s.posts.AssertAuthorIsUser(ctx, postID, userID); err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, postID); err != nil {
		return err
	}

	// The post is gone at this point; a failed cleanup leaves orphans that readers tolerate.
	commentsDeleted, err := s.comments.DeleteByPost(ctx, postID)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to delete comments of deleted post",
			slog.String("post_id", postID.String()), slog.String("error", err.Error()))
	}
	captionDeleted, err := s.captions.DeleteByPost(ctx, postID)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "failed to delete caption of deleted post",
			slog.String("post_id", postID.String()), slog.String("error", err.Error()))
	}

	s.publish(ctx, notifications.Event{Type: notifications.PostDeleted, Actor: userID, Subject: postID})
	return message(c, fiber.StatusOK, "Deleted post successfully!", fiber.Map{
		"commentsDeleted": commentsDeleted,
		"captionDeleted":  captionDeleted,
	})
}
