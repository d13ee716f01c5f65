package handler

import (
	"net/http"
	"time"

	"lab-service/internal/auth"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	directory Directory
}

func NewAuthHandler(directory Directory) *AuthHandler {
	return &AuthHandler{directory: directory}
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token     string            `json:"token"`
	ExpiresAt time.Time         `json:"expires_at"`
	Principal PrincipalResponse `json:"principal"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindStrictJSON(c, &req); err != nil {
		return err
	}

	session, err := h.directory.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, LoginResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		Principal: toPrincipalResponse(session.Principal),
	})
}

func (h *AuthHandler) Me(c echo.Context) error {
	who, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}

	me, err := h.directory.Me(c.Request().Context(), who)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPrincipalResponse(me))
}

func (h *AuthHandler) ChangePassword(c echo.Context) error {
	who, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}

	var req ChangePasswordRequest
	if err := bindStrictJSON(c, &req); err != nil {
		return err
	}

	if err := h.directory.ChangePassword(c.Request().Context(), who, req.CurrentPassword, req.NewPassword); err != nil {
		return err
	}
	return respondMessage(c, http.StatusOK, msgPasswordChanged)
}
