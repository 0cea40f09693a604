package server

import (
	"strider/internal/concepts/commenting"
	"strider/internal/middleware"
	"strider/internal/models"
	"strider/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// GetComments handles GET /api/comments?postId=
// @Summary List comments
// @Tags comments
// @Produce json
// @Param postId query string false "Only comments on this post"
// @Success 200 {array} CommentView
// @Failure 400 {object} models.ErrorResponse
// @Router /comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	ctx := c.UserContext()
	postID, err := optionalQueryID(c, "postId", "post id")
	if err != nil {
		return err
	}

	var comments []commenting.CommentDoc
	if postID != uuid.Nil {
		comments, err = s.comments.GetByPost(ctx, postID)
	} else {
		comments, err = s.comments.GetComments(ctx)
	}
	if err != nil {
		return err
	}

	views, err := s.commentViews(ctx, comments)
	if err != nil {
		return err
	}
	return c.JSON(views)
}

// CreateComment handles POST /api/comments. The post must exist.
// @Summary Comment on a post
// @Tags comments
// @Accept json
// @Produce json
// @Param request body object{postId=string,content=string} true "Comment"
// @Success 201 {object} object{msg=string,comment=CommentView}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}

	var req struct {
		PostID  string `json:"postId" form:"postId"`
		Content string `json:"content" form:"content"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	postID, err := models.ParseID(req.PostID, "post id")
	if err != nil {
		return err
	}

	post, err := s.posts.AssertPostExists(ctx, postID)
	if err != nil {
		return err
	}
	comment, err := s.comments.Create(ctx, userID, postID, req.Content)
	if err != nil {
		return err
	}
	view, err := s.commentView(ctx, comment)
	if err != nil {
		return err
	}

	ev := notifications.Event{Type: notifications.CommentCreated, Actor: userID, Subject: comment.ID}
	if post.Author != userID {
		ev.Recipient = &post.Author
	}
	s.publish(ctx, ev)

	return message(c, fiber.StatusCreated, "Comment successfully created!", fiber.Map{"comment": view})
}

// UpdateComment handles PATCH /api/comments/:id
// @Summary Edit a comment
// @Tags comments
// @Accept json
// @Produce json
// @Param id path string true "Comment id"
// @Param request body object{content=string} false "New content"
// @Success 200 {object} object{msg=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{id} [patch]
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	commentID, err := models.ParseID(c.Params("id"), "comment id")
	if err != nil {
		return err
	}

	var req struct {
		Content *string `json:"content"`
	}
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return err
		}
	}

	if err := s.comments.AssertAuthorIsUser(ctx, commentID, userID); err != nil {
		return err
	}
	if err := s.comments.Update(ctx, commentID, req.Content); err != nil {
		return err
	}
	return message(c, fiber.StatusOK, "Comment successfully updated!", nil)
}

// DeleteComment handles DELETE /api/comments/:id
// @Summary Delete a comment
// @Tags comments
// @Produce json
// @Param id path string true "Comment id"
// @Success 200 {object} object{msg=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /comments/{id} [delete]
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	commentID, err := models.ParseID(c.Params("id"), "comment id")
	if err != nil {
		return err
	}

	if err := s.comments.AssertAuthorIsUser(ctx, commentID, userID); err != nil {
		return err
	}
	if err := s.comments.Delete(ctx, commentID); err != nil {
		return err
	}
	return message(c, fiber.StatusOK, "Deleted comment successfully!", nil)
}
