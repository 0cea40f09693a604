package server

import (
	"log/slog"

	"strider/internal/config"
	"strider/internal/featureflags"
	"strider/internal/middleware"
	"strider/internal/models"

	"github.com/gofiber/fiber/v2"
)

// AuthPolicy says what a route requires of the caller's session.
type AuthPolicy int

const (
	// Public routes ignore the session.
	Public AuthPolicy = iota
	// Session routes need a live session; the handler sees the caller's id.
	Session
	// LoggedOut routes refuse callers that already have a live session.
	LoggedOut
)

func (p AuthPolicy) String() string {
	switch p {
	case Session:
		return "session"
	case LoggedOut:
		return "logged_out"
	default:
		return "public"
	}
}

// MarshalYAML renders the policy by name.
func (p AuthPolicy) MarshalYAML() (any, error) {
	return p.String(), nil
}

// Validator rejects a request whose shape is wrong before any concept runs.
type Validator func(c *fiber.Ctx) error

// Route binds a method and path to its auth policy, validator and handler.
type Route struct {
	Method   string
	Path     string
	Auth     AuthPolicy
	Validate Validator
	Handler  fiber.Handler
}

// RouteInfo is the serialisable part of a Route.
type RouteInfo struct {
	Method string     `yaml:"method"`
	Path   string     `yaml:"path"`
	Auth   AuthPolicy `yaml:"auth"`
}

// Routes is the complete API surface, relative to /api.
func (s *Server) Routes() []Route {
	return []Route{
		// Session
		{Method: fiber.MethodGet, Path: "/session", Auth: Session, Handler: s.GetSessionUser},
		{Method: fiber.MethodPost, Path: "/login", Auth: Public, Validate: requireBody, Handler: s.Login},
		{Method: fiber.MethodPost, Path: "/logout", Auth: Session, Handler: s.Logout},

		// Users
		{Method: fiber.MethodGet, Path: "/users", Auth: Public, Handler: s.GetUsers},
		{Method: fiber.MethodGet, Path: "/users/:username", Auth: Public, Validate: requireParam("username"), Handler: s.GetUser},
		{Method: fiber.MethodPost, Path: "/users", Auth: LoggedOut, Validate: requireBody, Handler: s.CreateUser},
		{Method: fiber.MethodPatch, Path: "/users/username", Auth: Session, Validate: requireBody, Handler: s.UpdateUsername},
		{Method: fiber.MethodPatch, Path: "/users/password", Auth: Session, Validate: requireBody, Handler: s.UpdatePassword},
		{Method: fiber.MethodPatch, Path: "/users/step", Auth: Session, Validate: requireBody, Handler: s.UpdateStepSize},
		{Method: fiber.MethodDelete, Path: "/users", Auth: Session, Handler: s.DeleteUser},

		// Posts
		{Method: fiber.MethodGet, Path: "/posts", Auth: Public, Handler: s.GetPosts},
		{Method: fiber.MethodGet, Path: "/posts/single/:id", Auth: Public, Validate: uuidParam("id", "post id"), Handler: s.GetPost},
		{Method: fiber.MethodPost, Path: "/posts", Auth: Session, Validate: requireBody, Handler: s.CreatePost},
		{Method: fiber.MethodPatch, Path: "/posts/:id", Auth: Session, Validate: uuidParam("id", "post id"), Handler: s.UpdatePost},
		{Method: fiber.MethodDelete, Path: "/posts/:id", Auth: Session, Validate: uuidParam("id", "post id"), Handler: s.DeletePost},

		// Friends
		{Method: fiber.MethodGet, Path: "/friends", Auth: Session, Handler: s.GetFriends},
		{Method: fiber.MethodDelete, Path: "/friends/:friend", Auth: Session, Validate: requireParam("friend"), Handler: s.RemoveFriend},
		{Method: fiber.MethodGet, Path: "/friend/requests", Auth: Session, Handler: s.GetFriendRequests},
		{Method: fiber.MethodPost, Path: "/friend/requests/:to", Auth: Session, Validate: requireParam("to"), Handler: s.SendFriendRequest},
		{Method: fiber.MethodDelete, Path: "/friend/requests/:to", Auth: Session, Validate: requireParam("to"), Handler: s.RemoveFriendRequest},
		{Method: fiber.MethodPut, Path: "/friend/accept/:from", Auth: Session, Validate: requireParam("from"), Handler: s.AcceptFriendRequest},
		{Method: fiber.MethodPut, Path: "/friend/reject/:from", Auth: Session, Validate: requireParam("from"), Handler: s.RejectFriendRequest},

		// Comments
		{Method: fiber.MethodGet, Path: "/comments", Auth: Public, Validate: optionalUUIDQuery("postId", "post id"), Handler: s.GetComments},
		{Method: fiber.MethodPost, Path: "/comments", Auth: Session, Validate: requireBody, Handler: s.CreateComment},
		{Method: fiber.MethodPatch, Path: "/comments/:id", Auth: Session, Validate: uuidParam("id", "comment id"), Handler: s.UpdateComment},
		{Method: fiber.MethodDelete, Path: "/comments/:id", Auth: Session, Validate: uuidParam("id", "comment id"), Handler: s.DeleteComment},

		// Captions
		{Method: fiber.MethodPost, Path: "/autocaptions", Auth: s.captionAuth(), Validate: requireBody, Handler: s.GenerateCaption},
		{Method: fiber.MethodGet, Path: "/autocaptions", Auth: Public, Validate: optionalUUIDQuery("postId", "post id"), Handler: s.GetCaptions},
		{Method: fiber.MethodPatch, Path: "/autocaptions/update/:postid", Auth: s.captionAuth(), Validate: uuidParam("postid", "post id"), Handler: s.RegenerateCaption},
	}
}

// chain turns a route into its Fiber handler chain: auth, then validation, then the handler.
func (s *Server) chain(r Route) []fiber.Handler {
	handlers := make([]fiber.Handler, 0, 4)
	switch r.Auth {
	case Session:
		handlers = append(handlers, middleware.RequireSession(s.sessions), s.requireAccount)
	case LoggedOut:
		handlers = append(handlers, middleware.RequireLoggedOut(s.sessions))
	}
	if r.Validate != nil {
		validate := r.Validate
		handlers = append(handlers, func(c *fiber.Ctx) error {
			if err := validate(c); err != nil {
				return err
			}
			return c.Next()
		})
	}
	return append(handlers, r.Handler)
}

// requireAccount rejects a session whose account no longer exists and ends it. Other
// sessions of a deleted account are caught here on their next request.
func (s *Server) requireAccount(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}

	_, err = s.users.GetUserByID(ctx, userID)
	if err == nil {
		return c.Next()
	}
	if !models.HasCode(err, models.CodeNotFound) {
		return err
	}

	if err := s.sessions.End(ctx, middleware.CurrentToken(c)); err != nil && !models.HasCode(err, models.CodeUnauthenticated) {
		middleware.Logger.WarnContext(ctx, "failed to end session of deleted account",
			slog.String("user_id", userID.String()), slog.String("error", err.Error()))
	}
	clearSessionCookie(c)
	return models.NewUnauthenticatedError("The account for this session no longer exists")
}

// publicCaptions reports whether caption generation is open to anonymous callers.
func (s *Server) publicCaptions() bool {
	return s.featureFlags != nil && s.featureFlags.On(featureflags.PublicCaptions)
}

func (s *Server) captionAuth() AuthPolicy {
	if s.publicCaptions() {
		return Public
	}
	return Session
}

// DescribeRoutes lists the route table for cfg without connecting to anything.
func DescribeRoutes(cfg *config.Config) []RouteInfo {
	s := &Server{config: cfg, featureFlags: featureflags.NewManager(cfg.FeatureFlags)}
	routes := s.Routes()
	out := make([]RouteInfo, len(routes))
	for i, r := range routes {
		out[i] = RouteInfo{Method: r.Method, Path: "/api" + r.Path, Auth: r.Auth}
	}
	return out
}
