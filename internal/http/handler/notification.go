package handler

import (
	"net/http"

	"lab-service/internal/auth"

	"github.com/labstack/echo/v4"
)

type NotificationHandler struct {
	inbox Inbox
}

func NewNotificationHandler(inbox Inbox) *NotificationHandler {
	return &NotificationHandler{inbox: inbox}
}

func (h *NotificationHandler) List(c echo.Context) error {
	who, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}

	items, err := h.inbox.List(c.Request().Context(), who, queryBool(c, queryUnread))
	if err != nil {
		return err
	}

	out := make([]NotificationResponse, 0, len(items))
	for _, n := range items {
		out = append(out, toNotificationResponse(n))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *NotificationHandler) MarkRead(c echo.Context) error {
	who, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.inbox.MarkRead(c.Request().Context(), who, id); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, msgNotificationRead)
}
