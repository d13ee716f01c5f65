package notify

import "time"

const (
	DefaultTimeout = 5 * time.Second

	errListNotifications = "failed to list notifications"
	errMarkRead          = "failed to mark notification read"
)

// payload keys read by the email templates
const (
	keyTitle    = "title"
	keyStatus   = "status"
	keyFrom     = "from"
	keyTo       = "to"
	keyRole     = "role"
	keyDecision = "decision"
	keyComments = "comments"
)
