package server

import (
	"strider/internal/middleware"
	"strider/internal/notifications"

	"github.com/gofiber/fiber/v2"
)

// GetFriends handles GET /api/friends and lists the caller's friends by username.
// @Summary List friends
// @Tags friends
// @Produce json
// @Success 200 {array} string
// @Failure 401 {object} models.ErrorResponse
// @Router /friends [get]
func (s *Server) GetFriends(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}

	ids, err := s.friends.GetFriends(ctx, userID)
	if err != nil {
		return err
	}
	names, err := s.users.IDsToUsernames(ctx, ids)
	if err != nil {
		return err
	}
	return c.JSON(names)
}

// RemoveFriend handles DELETE /api/friends/:friend
// @Summary Unfriend
// @Tags friends
// @Produce json
// @Param friend path string true "Friend username"
// @Success 200 {object} object{msg=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /friends/{friend} [delete]
func (s *Server) RemoveFriend(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	friendID, err := s.lookupUserID(ctx, c.Params("friend"))
	if err != nil {
		return err
	}

	if err := s.friends.RemoveFriend(ctx, userID, friendID); err != nil {
		return err
	}
	return message(c, fiber.StatusOK, "Unfriended!", nil)
}

// GetFriendRequests handles GET /api/friend/requests: pending requests sent or received.
// @Summary List friend requests
// @Tags friends
// @Produce json
// @Success 200 {array} FriendRequestView
// @Router /friend/requests [get]
func (s *Server) GetFriendRequests(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}

	requests, err := s.friends.GetRequests(ctx, userID)
	if err != nil {
		return err
	}
	views, err := s.friendRequestViews(ctx, requests)
	if err != nil {
		return err
	}
	return c.JSON(views)
}

// SendFriendRequest handles POST /api/friend/requests/:to
// @Summary Send a friend request
// @Tags friends
// @Produce json
// @Param to path string true "Recipient username"
// @Success 201 {object} object{msg=string}
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /friend/requests/{to} [post]
func (s *Server) SendFriendRequest(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	toID, err := s.lookupUserID(ctx, c.Params("to"))
	if err != nil {
		return err
	}

	request, err := s.friends.SendRequest(ctx, userID, toID)
	if err != nil {
		return err
	}

	s.publish(ctx, notifications.Event{
		Type:      notifications.FriendRequestSent,
		Actor:     userID,
		Subject:   request.ID,
		Recipient: &toID,
	})
	return message(c, fiber.StatusCreated, "Sent request!", nil)
}

// RemoveFriendRequest handles DELETE /api/friend/requests/:to and withdraws the caller's request.
// @Summary Withdraw a friend request
// @Tags friends
// @Produce json
// @Param to path string true "Recipient username"
// @Success 200 {object} object{msg=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /friend/requests/{to} [delete]
func (s *Server) RemoveFriendRequest(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	toID, err := s.lookupUserID(ctx, c.Params("to"))
	if err != nil {
		return err
	}

	if err := s.friends.RemoveRequest(ctx, userID, toID); err != nil {
		return err
	}
	return message(c, fiber.StatusOK, "Removed request!", nil)
}

// AcceptFriendRequest handles PUT /api/friend/accept/:from
// @Summary Accept a friend request
// @Tags friends
// @Produce json
// @Param from path string true "Sender username"
// @Success 200 {object} object{msg=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /friend/accept/{from} [put]
func (s *Server) AcceptFriendRequest(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	fromID, err := s.lookupUserID(ctx, c.Params("from"))
	if err != nil {
		return err
	}

	friendship, err := s.friends.AcceptRequest(ctx, fromID, userID)
	if err != nil {
		return err
	}

	s.publish(ctx, notifications.Event{
		Type:      notifications.FriendRequestAccepted,
		Actor:     userID,
		Subject:   friendship.ID,
		Recipient: &fromID,
	})
	return message(c, fiber.StatusOK, "Accepted request!", nil)
}

// RejectFriendRequest handles PUT /api/friend/reject/:from
// @Summary Reject a friend request
// @Tags friends
// @Produce json
// @Param from path string true "Sender username"
// @Success 200 {object} object{msg=string}
// @Failure 404 {object} models.ErrorResponse
// @Router /friend/reject/{from} [put]
func (s *Server) RejectFriendRequest(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID, err := middleware.CurrentUser(c)
	if err != nil {
		return err
	}
	fromID, err := s.lookupUserID(ctx, c.Params("from"))
	if err != nil {
		return err
	}

	if err := s.friends.RejectRequest(ctx, fromID, userID); err != nil {
		return err
	}
	return message(c, fiber.StatusOK, "Rejected request!", nil)
}
