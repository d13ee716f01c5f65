package intake

import (
	"fmt"

	"lab-service/internal/domain/clientrequest"
)

const (
	errCreateRequest     = "failed to create client request"
	errListRequests      = "failed to list client requests"
	errLoadRequest       = "failed to load client request"
	errUpdateRequest     = "failed to update client request"
	errLoadManager       = "failed to load account manager"
	errTransaction       = "failed to complete transaction"
	errAssignOthers      = "account managers can only assign themselves"
	errNotAccountManager = "assignee must be an active account manager"

	errStatusChangeFmt = "cannot move a request from %s to %s"
)

var errStatusChange = func(from, to clientrequest.Status) string {
	return fmt.Sprintf(errStatusChangeFmt, from, to)
}
