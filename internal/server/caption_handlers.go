package server

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"strider/internal/concepts/autocaptioning"
	"strider/internal/concepts/posting"
	"strider/internal/inference"
	"strider/internal/middleware"
	"strider/internal/models"
	"strider/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const defaultCaptionTimeout = 20 * time.Second

// GenerateCaption handles POST /api/autocaptions
// @Summary Caption a post's photo
// @Description Runs the captioning model on the post's photo and stores the result. A post has at most one caption.
// @Tags captions
// @Accept json
// @Produce json
// @Param request body object{postId=string} true "Target post"
// @Success 201 {object} object{msg=string,caption=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Failure 504 {object} models.ErrorResponse
// @Router /autocaptions [post]
func (s *Server) GenerateCaption(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req struct {
		PostID string `json:"postId" form:"postId"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}
	postID, err := models.ParseID(req.PostID, "post id")
	if err != nil {
		return err
	}

	post, err := s.captionTarget(c, postID)
	if err != nil {
		return err
	}
	if err := s.captions.AssertNoCaptionYet(ctx, postID); err != nil {
		return err
	}

	caption, err := s.inferCaption(ctx, post)
	if err != nil {
		return err
	}
	created, err := s.captions.Create(ctx, postID, caption)
	if err != nil {
		return err
	}
	// DeletePost may have run its cascade while the model was busy.
	if err := s.confirmCaptionedPost(ctx, postID); err != nil {
		return err
	}

	s.publishCaption(c, created)
	return message(c, fiber.StatusCreated, "Caption successfully generated!", fiber.Map{"caption": caption})
}

// GetCaptions handles GET /api/autocaptions?postId=
// @Summary List captions
// @Tags captions
// @Produce json
// @Param postId query string false "Only the caption of this post"
// @Success 200 {array} autocaptioning.AutoCaptionDoc
// @Router /autocaptions [get]
func (s *Server) GetCaptions(c *fiber.Ctx) error {
	ctx := c.UserContext()
	postID, err := optionalQueryID(c, "postId", "post id")
	if err != nil {
		return err
	}

	var captions []autocaptioning.AutoCaptionDoc
	if postID != uuid.Nil {
		captions, err = s.captions.GetByPost(ctx, postID)
	} else {
		captions, err = s.captions.GetAllCaptions(ctx)
	}
	if err != nil {
		return err
	}
	return c.JSON(captions)
}

// RegenerateCaption handles PATCH /api/autocaptions/update/:postid and overwrites the
// existing caption with a fresh inference.
// @Summary Regenerate a caption
// @Tags captions
// @Produce json
// @Param postid path string true "Post id"
// @Success 200 {object} object{msg=string,caption=string}
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 502 {object} models.ErrorResponse
// @Failure 504 {object} models.ErrorResponse
// @Router /autocaptions/update/{postid} [patch]
func (s *Server) RegenerateCaption(c *fiber.Ctx) error {
	ctx := c.UserContext()
	postID, err := models.ParseID(c.Params("postid"), "post id")
	if err != nil {
		return err
	}

	post, err := s.captionTarget(c, postID)
	if err != nil {
		return err
	}
	if err := s.captions.AssertHasCaption(ctx, postID); err != nil {
		return err
	}

	caption, err := s.inferCaption(ctx, post)
	if err != nil {
		return err
	}
	if err := s.captions.Update(ctx, postID, caption); err != nil {
		return err
	}
	if err := s.confirmCaptionedPost(ctx, postID); err != nil {
		return err
	}

	return message(c, fiber.StatusOK, "Caption successfully regenerated!", fiber.Map{"caption": caption})
}

// captionTarget loads the post and, unless captions are public, checks that the caller wrote it.
func (s *Server) captionTarget(c *fiber.Ctx, postID uuid.UUID) (*posting.PostDoc, error) {
	ctx := c.UserContext()
	post, err := s.posts.AssertPostExists(ctx, postID)
	if err != nil {
		return nil, err
	}

	if !s.publicCaptions() {
		userID, err := middleware.CurrentUser(c)
		if err != nil {
			return nil, err
		}
		if post.Author != userID {
			return nil, models.NewNotAuthorError(userID, "post", postID)
		}
	}

	if post.Photo == "" {
		return nil, models.NewBadRequestError("Post " + postID.String() + " has no photo to caption")
	}
	return post, nil
}

// confirmCaptionedPost removes the caption just written when its post has been deleted in
// the meantime. The post delete removes captions after the post, so whichever of the two
// runs last cleans up.
func (s *Server) confirmCaptionedPost(ctx context.Context, postID uuid.UUID) error {
	_, err := s.posts.AssertPostExists(ctx, postID)
	if err == nil || !models.HasCode(err, models.CodeNotFound) {
		return err
	}
	if _, derr := s.captions.DeleteByPost(ctx, postID); derr != nil {
		middleware.Logger.ErrorContext(ctx, "failed to drop caption of deleted post",
			slog.String("post_id", postID.String()), slog.String("error", derr.Error()))
	}
	return err
}

// inferCaption decodes the post's photo and asks the model for a caption within the
// configured timeout. Nothing is written here.
func (s *Server) inferCaption(ctx context.Context, post *posting.PostDoc) (string, error) {
	image, format, err := inference.DecodeImagePayload(post.Photo)
	if err != nil {
		return "", err
	}

	timeout := s.config.CaptionTimeout()
	if timeout <= 0 {
		timeout = defaultCaptionTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	caption, err := s.captioner.GenerateCaption(ctx, image)
	if err != nil {
		return "", models.NewInferenceError(err)
	}
	if caption == "" {
		return "", models.NewInferenceError(errors.New("model returned an empty caption"))
	}

	middleware.Logger.InfoContext(ctx, "caption generated",
		slog.String("post_id", post.ID.String()),
		slog.String("format", format),
	)
	return caption, nil
}

func (s *Server) publishCaption(c *fiber.Ctx, caption *autocaptioning.AutoCaptionDoc) {
	ev := notifications.Event{Type: notifications.CaptionGenerated, Subject: caption.PostID}
	if userID, err := middleware.CurrentUser(c); err == nil {
		ev.Actor = userID
	}
	s.publish(c.UserContext(), ev)
}
