package directory

const (
	errLoadPrincipal     = "failed to load principal"
	errCreatePrincipal   = "failed to create principal"
	errListPrincipals    = "failed to list principals"
	errUpdatePrincipal   = "failed to update principal"
	errUpdatePassword    = "failed to update password"
	errHashPassword      = "failed to hash password"
	errIssueToken        = "failed to issue session token"
	errCountDirectors    = "failed to count lab directors"
	errPrincipalNotFound = "principal not found"
	errEmailTaken        = "email already registered"
	errDeactivateSelf    = "cannot deactivate your own account"
	errNothingToUpdate   = "role or is_active is required"
	errWrongPassword     = "current password is incorrect"
	errInactiveAccount   = "account is inactive"

	bootstrapFullName = "Lab Director"
)
