package handler

import (
	"net/http"

	"lab-service/internal/auth"
	"lab-service/internal/domain/clientrequest"
	"lab-service/internal/domain/project"
	"lab-service/internal/intake"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type ClientRequestHandler struct {
	intake Intake
}

func NewClientRequestHandler(intake Intake) *ClientRequestHandler {
	return &ClientRequestHandler{intake: intake}
}

type SubmitRequestRequest struct {
	RequestType          string `json:"request_type"`
	Title                string `json:"title"`
	Description          string `json:"description"`
	DetailedRequirements string `json:"detailed_requirements"`
	Priority             string `json:"priority"`
}

type UpdateRequestStatusRequest struct {
	Status string `json:"status"`
}

// AssignRequest defaults to the caller when account_manager_id is omitted.
type AssignRequest struct {
	AccountManagerID *uuid.UUID `json:"account_manager_id"`
}

type ConversionResponse struct {
	Project ProjectResponse       `json:"project"`
	Request ClientRequestResponse `json:"request"`
}

func (h *ClientRequestHandler) ListRequests(c echo.Context) error {
	who, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}

	items, err := h.intake.ListRequests(c.Request().Context(), who)
	if err != nil {
		return err
	}

	out := make([]ClientRequestResponse, 0, len(items))
	for _, r := range items {
		out = append(out, toClientRequestResponse(r))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ClientRequestHandler) SubmitRequest(c echo.Context) error {
	who, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}

	var req SubmitRequestRequest
	if err := bindStrictJSON(c, &req); err != nil {
		return err
	}

	created, err := h.intake.SubmitRequest(c.Request().Context(), who, intake.SubmitInput{
		RequestType:          clientrequest.RequestType(req.RequestType),
		Title:                req.Title,
		Description:          req.Description,
		DetailedRequirements: req.DetailedRequirements,
		Priority:             clientrequest.Priority(req.Priority),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toClientRequestResponse(created))
}

func (h *ClientRequestHandler) GetRequest(c echo.Context) error {
	who, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	req, err := h.intake.GetRequest(c.Request().Context(), who, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toClientRequestResponse(req))
}

func (h *ClientRequestHandler) UpdateStatus(c echo.Context) error {
	who, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req UpdateRequestStatusRequest
	if err := bindStrictJSON(c, &req); err != nil {
		return err
	}

	updated, err := h.intake.UpdateRequestStatus(c.Request().Context(), who, id, clientrequest.Status(req.Status))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toClientRequestResponse(updated))
}

func (h *ClientRequestHandler) Assign(c echo.Context) error {
	who, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req AssignRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		return err
	}
	managerID := who.ID
	if req.AccountManagerID != nil {
		managerID = *req.AccountManagerID
	}

	updated, err := h.intake.AssignAccountManager(c.Request().Context(), who, id, managerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toClientRequestResponse(updated))
}

// Convert seeds a draft project from the request. The body may override any
// of the project content fields.
func (h *ClientRequestHandler) Convert(c echo.Context) error {
	who, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var content project.Content
	if err := bindOptionalJSON(c, &content); err != nil {
		return err
	}

	conv, err := h.intake.ConvertToProject(c.Request().Context(), who, id, content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, ConversionResponse{
		Project: toProjectResponse(conv.Project),
		Request: toClientRequestResponse(conv.Request),
	})
}
