package handler

const (
	jsonKeyMessage = "message"

	paramID = "id"

	formFieldFile          = "file"
	formFieldClientVisible = "client_visible"
	queryUnread            = "unread"

	msgContentTypeJSONRequired = "content type must be application/json"
	msgInvalidRequestBody      = "invalid request body"
	msgInvalidID               = "invalid id"
	msgFileRequired            = "a multipart file field named \"file\" is required"
	msgOpenUploadFail          = "failed to read uploaded file"
	msgPasswordChanged         = "password changed"
	msgNotificationRead        = "notification marked as read"
)
