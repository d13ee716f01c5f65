package handler

import (
	"net/http"

	"lab-service/internal/auth"
	"lab-service/internal/domain/approval"
	"lab-service/internal/domain/principal"
	"lab-service/internal/domain/project"
	"lab-service/internal/lifecycle"
	apperrors "lab-service/pkg/errors"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type ProjectHandler struct {
	engine Lifecycle
}

func NewProjectHandler(engine Lifecycle) *ProjectHandler {
	return &ProjectHandler{engine: engine}
}

type DecisionRequest struct {
	Decision string `json:"decision"`
	Comments string `json:"comments"`
}

// projectAction is the shape shared by submit, start and complete.
type projectAction func(ctx echo.Context, who *principal.Principal, id uuid.UUID) (*project.Project, error)

func (h *ProjectHandler) ListProjects(c echo.Context) error {
	who, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}

	items, err := h.engine.ListProjects(c.Request().Context(), who)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProjectList(items))
}

func (h *ProjectHandler) ReviewQueue(c echo.Context) error {
	who, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}

	items, err := h.engine.ListReviewQueue(c.Request().Context(), who)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProjectList(items))
}

func (h *ProjectHandler) CreateProject(c echo.Context) error {
	who, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}

	var content project.Content
	if err := bindStrictJSON(c, &content); err != nil {
		return err
	}

	created, err := h.engine.CreateProject(c.Request().Context(), who, content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toProjectResponse(created))
}

func (h *ProjectHandler) GetProject(c echo.Context) error {
	who, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	p, err := h.engine.GetProject(c.Request().Context(), who, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProjectResponse(p))
}

func (h *ProjectHandler) UpdateProject(c echo.Context) error {
	who, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var content project.Content
	if err := bindStrictJSON(c, &content); err != nil {
		return err
	}

	updated, err := h.engine.UpdateProject(c.Request().Context(), who, id, content)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProjectResponse(updated))
}

func (h *ProjectHandler) Submit(c echo.Context) error {
	return h.run(c, func(ctx echo.Context, who *principal.Principal, id uuid.UUID) (*project.Project, error) {
		return h.engine.SubmitForApproval(ctx.Request().Context(), who, id)
	})
}

func (h *ProjectHandler) Start(c echo.Context) error {
	return h.run(c, func(ctx echo.Context, who *principal.Principal, id uuid.UUID) (*project.Project, error) {
		return h.engine.StartWork(ctx.Request().Context(), who, id)
	})
}

func (h *ProjectHandler) Complete(c echo.Context) error {
	return h.run(c, func(ctx echo.Context, who *principal.Principal, id uuid.UUID) (*project.Project, error) {
		return h.engine.Complete(ctx.Request().Context(), who, id)
	})
}

func (h *ProjectHandler) run(c echo.Context, action projectAction) error {
	who, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	p, err := action(c, who, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProjectResponse(p))
}

func (h *ProjectHandler) Decide(c echo.Context) error {
	who, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req DecisionRequest
	if err := bindStrictJSON(c, &req); err != nil {
		return err
	}

	outcome, err := h.engine.Decide(c.Request().Context(), who, id, approval.Decision(req.Decision), req.Comments)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, DecisionResponse{
		Project:  toProjectResponse(outcome.Project),
		Approval: toApprovalResponse(outcome.Approval, who.FullName),
	})
}

func (h *ProjectHandler) ListApprovals(c echo.Context) error {
	who, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	entries, err := h.engine.GetReviewHistory(c.Request().Context(), who, id)
	if err != nil {
		return err
	}

	out := make([]ApprovalResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toApprovalResponse(&e.Approval, e.ApproverName))
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ProjectHandler) ListResults(c echo.Context) error {
	who, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	results, err := h.engine.ListResults(c.Request().Context(), who, id)
	if err != nil {
		return err
	}

	out := make([]ResultResponse, 0, len(results))
	for _, r := range results {
		out = append(out, toResultResponse(r))
	}
	return c.JSON(http.StatusOK, out)
}

// UploadResult accepts a multipart form with the result under "file" and an
// optional "client_visible" flag.
func (h *ProjectHandler) UploadResult(c echo.Context) error {
	who, err := auth.GetPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	header, err := c.FormFile(formFieldFile)
	if err != nil {
		return apperrors.Validation(msgFileRequired)
	}
	file, err := header.Open()
	if err != nil {
		return apperrors.BadRequest(msgOpenUploadFail)
	}
	defer file.Close()

	saved, err := h.engine.UploadResult(c.Request().Context(), who, id, lifecycle.ResultUpload{
		FileName:        header.Filename,
		ContentType:     header.Header.Get(echo.HeaderContentType),
		Size:            header.Size,
		Body:            file,
		IsClientVisible: c.FormValue(formFieldClientVisible) == "true",
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toResultResponse(saved))
}
