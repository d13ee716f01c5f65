package policy

import (
	"fmt"

	"lab-service/internal/rbac"
)

const (
	errForbiddenFmt      = "not allowed to %s this %s"
	errStateForbiddenFmt = "cannot %s in the current status"
	errWrongStateFmt     = "cannot %s from the current status"
)

var (
	errForbidden = func(action rbac.Action, kind rbac.Resource) string {
		return fmt.Sprintf(errForbiddenFmt, action, kind)
	}
	errStateForbidden = func(action rbac.Action) string {
		return fmt.Sprintf(errStateForbiddenFmt, action)
	}
	errWrongState = func(action rbac.Action) string {
		return fmt.Sprintf(errWrongStateFmt, action)
	}
)
