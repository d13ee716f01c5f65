package ledger

import (
	"fmt"

	"lab-service/internal/domain/principal"
)

const (
	errLoadApproval   = "failed to load approval"
	errRecordApproval = "failed to record approval"
	errLoadHistory    = "failed to load review history"

	errNotReviewerRoleFmt = "role %s does not review projects"
)

var errNotReviewerRole = func(role principal.Role) string {
	return fmt.Sprintf(errNotReviewerRoleFmt, role)
}
