package server

import (
	"socialhub/internal/models"
	"socialhub/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateNotification handles POST /notifications
// @Summary Send a notification
// @Description The caller is recorded as sender.
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{receiver=int,type=string,message=string} true "Notification"
// @Success 201 {object} object{data=models.Notification}
// @Failure 400 {object} object{message=string}
// @Failure 404 {object} object{message=string}
// @Router /notifications [post]
func (s *Server) CreateNotification(c *fiber.Ctx) error {
	var req struct {
		Receiver uint   `json:"receiver"`
		Type     string `json:"type"`
		Message  string `json:"message"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, models.NewValidationError("Invalid request body"))
	}
	n, err := s.notificationService.Notify(c.UserContext(), service.NotifyInput{
		SenderID:   currentUserID(c),
		ReceiverID: req.Receiver,
		Type:       models.NotificationType(req.Type),
		Message:    req.Message,
	})
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusCreated, n, "Notification created successfully")
}

// GetNotifications handles GET /notifications
// @Summary List own notifications
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param unread query bool false "Only unread"
// @Param page query int false "Page"
// @Param limit query int false "Page size (default 20)"
// @Success 200 {object} object{data=[]models.Notification}
// @Router /notifications [get]
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	page, limit := pageQuery(c)
	list, err := s.notificationService.List(c.UserContext(), currentUserID(c), c.QueryBool("unread"), page, limit)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, list, "Notifications fetched successfully")
}

// GetUnreadCount handles GET /notifications/unread-count
// @Summary Count unread notifications
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{data=object{count=int}}
// @Router /notifications/unread-count [get]
func (s *Server) GetUnreadCount(c *fiber.Ctx) error {
	n, err := s.notificationService.UnreadCount(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, fiber.Map{"count": n}, "Unread count fetched")
}

// MarkNotificationRead handles PUT /notifications/:notificationId/read
// @Summary Mark a notification read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param notificationId path int true "Notification ID"
// @Success 200 {object} object{data=models.Notification}
// @Failure 403 {object} object{message=string}
// @Failure 404 {object} object{message=string}
// @Router /notifications/{notificationId}/read [put]
func (s *Server) MarkNotificationRead(c *fiber.Ctx) error {
	id, err := parseID(c, "notificationId")
	if err != nil {
		return nil
	}
	n, err := s.notificationService.MarkRead(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, n, "Notification marked as read")
}

// MarkAllNotificationsRead handles PUT /notifications/read-all
// @Summary Mark all notifications read
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{data=object{updated=int}}
// @Router /notifications/read-all [put]
func (s *Server) MarkAllNotificationsRead(c *fiber.Ctx) error {
	n, err := s.notificationService.MarkAllRead(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, fiber.Map{"updated": n}, "All notifications marked as read")
}

// DeleteNotification handles DELETE /notifications/:notificationId
// @Summary Delete a notification
// @Tags notifications
// @Produce json
// @Security BearerAuth
// @Param notificationId path int true "Notification ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} object{message=string}
// @Failure 404 {object} object{message=string}
// @Router /notifications/{notificationId} [delete]
func (s *Server) DeleteNotification(c *fiber.Ctx) error {
	id, err := parseID(c, "notificationId")
	if err != nil {
		return nil
	}
	if err := s.notificationService.Delete(c.UserContext(), currentUserID(c), id); err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, nil, "Notification deleted successfully")
}
