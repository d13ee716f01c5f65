package handler

import (
	"time"

	"lab-service/internal/domain/approval"
	"lab-service/internal/domain/clientrequest"
	"lab-service/internal/domain/notification"
	"lab-service/internal/domain/principal"
	"lab-service/internal/domain/project"
	"lab-service/internal/domain/result"

	"github.com/labstack/echo/v4"
)

func respondMessage(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]string{jsonKeyMessage: message})
}

type PrincipalResponse struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	Organization *string   `json:"organization,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

func toPrincipalResponse(p *principal.Principal) PrincipalResponse {
	return PrincipalResponse{
		ID:           p.ID.String(),
		Email:        p.Email,
		FullName:     p.FullName,
		Role:         string(p.Role),
		Organization: p.Organization,
		IsActive:     p.IsActive,
		CreatedAt:    p.CreatedAt,
	}
}

type ProjectResponse struct {
	ID                    string  `json:"id"`
	EngineerID            string  `json:"engineer_id"`
	Status                string  `json:"status"`
	LinkedClientRequestID *string `json:"linked_client_request_id,omitempty"`
	project.Content
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
}

func toProjectResponse(p *project.Project) ProjectResponse {
	resp := ProjectResponse{
		ID:          p.ID.String(),
		EngineerID:  p.EngineerID.String(),
		Status:      string(p.Status),
		Content:     p.Content,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		SubmittedAt: p.SubmittedAt,
	}
	if resp.EquipmentNeeded == nil {
		resp.EquipmentNeeded = []string{}
	}
	if p.LinkedClientRequestID != nil {
		linked := p.LinkedClientRequestID.String()
		resp.LinkedClientRequestID = &linked
	}
	return resp
}

func toProjectList(items []*project.Project) []ProjectResponse {
	out := make([]ProjectResponse, 0, len(items))
	for _, p := range items {
		out = append(out, toProjectResponse(p))
	}
	return out
}

type ApprovalResponse struct {
	ID           string     `json:"id"`
	ProjectID    string     `json:"project_id"`
	ApproverID   *string    `json:"approver_id,omitempty"`
	ApproverName string     `json:"approver_name,omitempty"`
	ApproverRole string     `json:"approver_role"`
	Status       string     `json:"status"`
	Comments     string     `json:"comments"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty"`
	DecidedAt    time.Time  `json:"decided_at"`
}

func toApprovalResponse(a *approval.Approval, name string) ApprovalResponse {
	resp := ApprovalResponse{
		ID:           a.ID.String(),
		ProjectID:    a.ProjectID.String(),
		ApproverName: name,
		ApproverRole: string(a.ApproverRole),
		Status:       string(a.Status),
		Comments:     a.Comments,
		ApprovedAt:   a.ApprovedAt,
		DecidedAt:    a.DecidedAt,
	}
	if a.ApproverID != nil {
		id := a.ApproverID.String()
		resp.ApproverID = &id
	}
	return resp
}

type DecisionResponse struct {
	Project  ProjectResponse  `json:"project"`
	Approval ApprovalResponse `json:"approval"`
}

type ResultResponse struct {
	ID              string    `json:"id"`
	ProjectID       string    `json:"project_id"`
	UploadedBy      string    `json:"uploaded_by"`
	FileName        string    `json:"file_name"`
	FileURL         string    `json:"file_url"`
	FileType        string    `json:"file_type"`
	SizeBytes       int64     `json:"size_bytes"`
	IsClientVisible bool      `json:"is_client_visible"`
	UploadedAt      time.Time `json:"uploaded_at"`
}

func toResultResponse(r *result.ProjectResult) ResultResponse {
	return ResultResponse{
		ID:              r.ID.String(),
		ProjectID:       r.ProjectID.String(),
		UploadedBy:      r.UploadedBy.String(),
		FileName:        r.FileName,
		FileURL:         r.FileURL,
		FileType:        r.FileType,
		SizeBytes:       r.SizeBytes,
		IsClientVisible: r.IsClientVisible,
		UploadedAt:      r.UploadedAt,
	}
}

type ClientRequestResponse struct {
	ID                       string    `json:"id"`
	ClientID                 string    `json:"client_id"`
	RequestType              string    `json:"request_type"`
	Title                    string    `json:"title"`
	Description              string    `json:"description"`
	DetailedRequirements     string    `json:"detailed_requirements"`
	Priority                 string    `json:"priority"`
	Status                   string    `json:"status"`
	AssignedAccountManagerID *string   `json:"assigned_account_manager_id,omitempty"`
	SubmittedAt              time.Time `json:"submitted_at"`
	UpdatedAt                time.Time `json:"updated_at"`
}

func toClientRequestResponse(r *clientrequest.ClientRequest) ClientRequestResponse {
	resp := ClientRequestResponse{
		ID:                   r.ID.String(),
		ClientID:             r.ClientID.String(),
		RequestType:          string(r.RequestType),
		Title:                r.Title,
		Description:          r.Description,
		DetailedRequirements: r.DetailedRequirements,
		Priority:             string(r.Priority),
		Status:               string(r.Status),
		SubmittedAt:          r.SubmittedAt,
		UpdatedAt:            r.UpdatedAt,
	}
	if r.AssignedAccountManagerID != nil {
		id := r.AssignedAccountManagerID.String()
		resp.AssignedAccountManagerID = &id
	}
	return resp
}

type NotificationResponse struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Payload   map[string]string `json:"payload"`
	IsRead    bool              `json:"is_read"`
	CreatedAt time.Time         `json:"created_at"`
}

func toNotificationResponse(n *notification.Notification) NotificationResponse {
	payload := n.Payload
	if payload == nil {
		payload = map[string]string{}
	}
	return NotificationResponse{
		ID:        n.ID.String(),
		Type:      string(n.Type),
		Payload:   payload,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}
}
