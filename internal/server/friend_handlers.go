package server

import (
	"github.com/gofiber/fiber/v2"
)

// GetFriends handles GET /friends
// @Summary List friends
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{data=[]models.UserSummary}
// @Router /friends [get]
func (s *Server) GetFriends(c *fiber.Ctx) error {
	friends, err := s.relationshipService.ListFriends(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, friends, "Friends fetched successfully")
}

// GetFriendRequests handles GET /friends/requests
// @Summary List pending friend requests
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{data=service.RequestLists}
// @Router /friends/requests [get]
func (s *Server) GetFriendRequests(c *fiber.Ctx) error {
	lists, err := s.relationshipService.ListRequests(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, lists, "Friend requests fetched successfully")
}

// SendFriendRequest handles POST /friends/request/:receiverId
// @Summary Send a friend request
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Param receiverId path int true "Receiver ID"
// @Success 201 {object} object{data=models.FriendRequest}
// @Failure 400 {object} object{message=string}
// @Failure 403 {object} object{message=string}
// @Failure 404 {object} object{message=string}
// @Router /friends/request/{receiverId} [post]
func (s *Server) SendFriendRequest(c *fiber.Ctx) error {
	receiverID, err := parseID(c, "receiverId")
	if err != nil {
		return nil
	}
	req, err := s.relationshipService.SendRequest(c.UserContext(), currentUserID(c), receiverID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusCreated, req, "Friend request sent successfully")
}

// AcceptFriendRequest handles POST /friends/accept/:requestId
// @Summary Accept a friend request
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Param requestId path int true "Request ID"
// @Success 200 {object} object{data=models.FriendRequest}
// @Failure 400 {object} object{message=string}
// @Failure 404 {object} object{message=string}
// @Router /friends/accept/{requestId} [post]
func (s *Server) AcceptFriendRequest(c *fiber.Ctx) error {
	requestID, err := parseID(c, "requestId")
	if err != nil {
		return nil
	}
	req, err := s.relationshipService.AcceptRequest(c.UserContext(), currentUserID(c), requestID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, req, "Friend request accepted")
}

// RejectFriendRequest handles POST /friends/reject/:requestId
// @Summary Reject a friend request
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Param requestId path int true "Request ID"
// @Success 200 {object} object{data=models.FriendRequest}
// @Failure 400 {object} object{message=string}
// @Failure 404 {object} object{message=string}
// @Router /friends/reject/{requestId} [post]
func (s *Server) RejectFriendRequest(c *fiber.Ctx) error {
	requestID, err := parseID(c, "requestId")
	if err != nil {
		return nil
	}
	req, err := s.relationshipService.RejectRequest(c.UserContext(), currentUserID(c), requestID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, req, "Friend request rejected")
}

// Unfriend handles DELETE /friends/unfriend/:friendId
// @Summary Remove a friend
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Param friendId path int true "Friend ID"
// @Success 200 {object} object{data=models.UserSummary}
// @Failure 404 {object} object{message=string}
// @Router /friends/unfriend/{friendId} [delete]
func (s *Server) Unfriend(c *fiber.Ctx) error {
	friendID, err := parseID(c, "friendId")
	if err != nil {
		return nil
	}
	former, err := s.relationshipService.Unfriend(c.UserContext(), currentUserID(c), friendID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, former, "Friend removed successfully")
}

// BlockUser handles POST /friends/block/:blockId
// @Summary Block a user
// @Description Removes any friendship and open requests between the pair.
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Param blockId path int true "User to block"
// @Success 200 {object} object{data=models.UserSummary}
// @Router /friends/block/{blockId} [post]
func (s *Server) BlockUser(c *fiber.Ctx) error {
	targetID, err := parseID(c, "blockId")
	if err != nil {
		return nil
	}
	blocked, err := s.relationshipService.Block(c.UserContext(), currentUserID(c), targetID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, blocked, "User blocked successfully")
}

// UnblockUser handles POST /friends/unblock/:blockId
// @Summary Unblock a user
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Param blockId path int true "User to unblock"
// @Success 200 {object} object{message=string}
// @Router /friends/unblock/{blockId} [post]
func (s *Server) UnblockUser(c *fiber.Ctx) error {
	targetID, err := parseID(c, "blockId")
	if err != nil {
		return nil
	}
	if err := s.relationshipService.Unblock(c.UserContext(), currentUserID(c), targetID); err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, nil, "User unblocked successfully")
}

// GetBlockedUsers handles GET /friends/blocked
// @Summary List blocked users
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{data=[]models.UserSummary}
// @Router /friends/blocked [get]
func (s *Server) GetBlockedUsers(c *fiber.Ctx) error {
	blocked, err := s.relationshipService.ListBlocked(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, blocked, "Blocked users fetched successfully")
}
