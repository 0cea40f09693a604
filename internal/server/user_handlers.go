package server

import (
	"log/slog"
	"time"

	"strider/internal/concepts/authing"
	"strider/internal/middleware"
	"strider/internal/models"

	"github.com/gofiber/fiber/v2"
)

type credentials struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

func (s *Server) setSessionCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(s.sessions.TTL()),
		HTTPOnly: true,
		Secure:   s.config.IsProduction(),
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func clearSessionCookie(c *fiber.Ctx) {
	c.ClearCookie(middleware.SessionCookie)
}

// GetSessionUser handles GET /api/session
// @Summary Current user
// @Description Returns the profile bound to the caller's session
// @Tags session
// @Produce json
// @Success 200 {object} authing.UserView
// @Failure 401 {object} models.ErrorResponse
// @Router /session [get]
func (s *Server) GetSessionUser(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	profile, err := s.users.GetProfile(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(profile)
}

// Login handles POST /api/login
// @Summary Log in
// @Description Starts a session and sets the session cookie
// @Tags session
// @Accept json
// @Produce json
// @Param request body object{username=string,password=string} true "Credentials"
// @Success 200 {object} object{msg=string,token=string}
// @Failure 403 {object} models.ErrorResponse
// @Router /login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	ctx := c.UserContext()

	var req credentials
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := s.users.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return err
	}

	// Logging in again replaces the previous session. A token that is already dead is fine.
	if old := middleware.SessionToken(c); old != "" {
		if err := s.sessions.End(ctx, old); err != nil && !models.HasCode(err, models.CodeUnauthenticated) {
			return err
		}
	}

	token, err := s.sessions.Start(ctx, user.ID)
	if err != nil {
		return err
	}
	s.setSessionCookie(c, token)
	return message(c, fiber.StatusOK, "Logged in!", fiber.Map{"token": token})
}

// Logout handles POST /api/logout
// @Summary Log out
// @Tags session
// @Produce json
// @Success 200 {object} object{msg=string}
// @Failure 401 {object} models.ErrorResponse
// @Router /logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	if err := s.sessions.End(c.UserContext(), middleware.CurrentToken(c)); err != nil {
		return err
	}
	clearSessionCookie(c)
	return message(c, fiber.StatusOK, "Logged out!", nil)
}

// GetUsers handles GET /api/users
// @Summary List users
// @Tags users
// @Produce json
// @Success 200 {array} authing.UserView
// @Router /users [get]
func (s *Server) GetUsers(c *fiber.Ctx) error {
	users, err := s.users.GetUsers(c.UserContext())
	if err != nil {
		return err
	}
	views := make([]authing.UserView, len(users))
	for i := range users {
		views[i] = users[i].View()
	}
	return c.JSON(views)
}

// GetUser handles GET /api/users/:username
// @Summary Look up a user
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} authing.UserView
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{username} [get]
func (s *Server) GetUser(c *fiber.Ctx) error {
	user, err := s.users.GetUserByUsername(c.UserContext(), c.Params("username"))
	if err != nil {
		return err
	}
	return c.JSON(user.View())
}

// CreateUser handles POST /api/users
// @Summary Register
// @Description Creates an account. Callers must be logged out.
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{username=string,password=string} true "Credentials"
// @Success 201 {object} object{msg=string,user=authing.UserView}
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /users [post]
func (s *Server) CreateUser(c *fiber.Ctx) error {
	var req credentials
	if err := parseBody(c, &req); err != nil {
		return err
	}

	user, err := s.users.Create(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return message(c, fiber.StatusCreated, "Created user successfully!", fiber.Map{"user": user.View()})
}

// UpdateUsername handles PATCH /api/users/username
// @Summary Change username
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{username=string} true "New username"
// @Success 200 {object} object{msg=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /users/username [patch]
func (s *Server) UpdateUsername(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	var req struct {
		Username string `json:"username" form:"username"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := s.users.UpdateUsername(c.UserContext(), userID, req.Username); err != nil {
		return err
	}
	return message(c, fiber.StatusOK, "Updated username successfully!", nil)
}

// UpdatePassword handles PATCH /api/users/password
// @Summary Change password
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{currentPassword=string,newPassword=string} true "Passwords"
// @Success 200 {object} object{msg=string}
// @Failure 403 {object} models.ErrorResponse
// @Router /users/password [patch]
func (s *Server) UpdatePassword(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	var req struct {
		CurrentPassword string `json:"currentPassword" form:"currentPassword"`
		NewPassword     string `json:"newPassword" form:"newPassword"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := s.users.UpdatePassword(c.UserContext(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return message(c, fiber.StatusOK, "Updated password successfully!", nil)
}

// UpdateStepSize handles PATCH /api/users/step
// @Summary Change step size
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{stepSize=string} true "Step size"
// @Success 200 {object} object{msg=string}
// @Failure 400 {object} models.ErrorResponse
// @Router /users/step [patch]
func (s *Server) UpdateStepSize(c *fiber.Ctx) error {
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	var req struct {
		StepSize string `json:"stepSize" form:"stepSize"`
	}
	if err := parseBody(c, &req); err != nil {
		return err
	}

	if err := s.users.UpdateStepSize(c.UserContext(), userID, req.StepSize); err != nil {
		return err
	}
	return message(c, fiber.StatusOK, "Updated step size successfully!", nil)
}

// DeleteUser handles DELETE /api/users. The session ends with the account; posts and
// comments stay and are shown under the deleted-user placeholder.
// @Summary Delete own account
// @Tags users
// @Produce json
// @Success 200 {object} object{msg=string}
// @Failure 401 {object} models.ErrorResponse
// @Router /users [delete]
func (s *Server) DeleteUser(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}

	// The account is gone; a session that fails to end here is refused by requireAccount.
	if err := s.sessions.End(ctx, middleware.CurrentToken(c)); err != nil && !models.HasCode(err, models.CodeUnauthenticated) {
		middleware.Logger.WarnContext(ctx, "failed to end session of deleted account",
			slog.String("user_id", userID.String()), slog.String("error", err.Error()))
	}
	clearSessionCookie(c)
	return message(c, fiber.StatusOK, "Deleted user!", nil)
}
