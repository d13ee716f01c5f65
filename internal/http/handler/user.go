package handler

import (
	"net/http"

	"lab-service/internal/auth"
	"lab-service/internal/directory"
	"lab-service/internal/domain/principal"

	"github.com/labstack/echo/v4"
)

type UserHandler struct {
	directory Directory
}

func NewUserHandler(directory Directory) *UserHandler {
	return &UserHandler{directory: directory}
}

type ProvisionUserRequest struct {
	Email        string  `json:"email"`
	Password     string  `json:"password"`
	FullName     string  `json:"full_name"`
	Role         string  `json:"role"`
	Organization *string `json:"organization"`
}

type UpdateAccessRequest struct {
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
}

func (h *UserHandler) ListUsers(c echo.Context) error {
	who, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}

	users, err := h.directory.ListUsers(c.Request().Context(), who)
	if err != nil {
		return err
	}

	out := make([]PrincipalResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toPrincipalResponse(u))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *UserHandler) ProvisionUser(c echo.Context) error {
	who, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}

	var req ProvisionUserRequest
	if err := bindStrictJSON(c, &req); err != nil {
		return err
	}

	created, err := h.directory.ProvisionUser(c.Request().Context(), who, directory.ProvisionInput{
		Email:        req.Email,
		Password:     req.Password,
		FullName:     req.FullName,
		Role:         principal.Role(req.Role),
		Organization: req.Organization,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toPrincipalResponse(created))
}

func (h *UserHandler) UpdateAccess(c echo.Context) error {
	who, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}

	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req UpdateAccessRequest
	if err := bindStrictJSON(c, &req); err != nil {
		return err
	}

	input := principal.UpdateAccessInput{IsActive: req.IsActive}
	if req.Role != nil {
		role := principal.Role(*req.Role)
		input.Role = &role
	}

	updated, err := h.directory.UpdateAccess(c.Request().Context(), who, id, input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPrincipalResponse(updated))
}
