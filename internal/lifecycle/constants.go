package lifecycle

const (
	errUnknownDecisionFmt = "unknown decision: %s"
	errNoTransitionFmt    = "cannot %s a project that is %s"
	errChainGapFmt        = "cannot move project to %s without %s approval"

	errBlobStoreMissing   = "result storage is not configured"
	errLoadProject        = "failed to load project"
	errCreateProject      = "failed to create project"
	errUpdateProject      = "failed to update project"
	errTransitionProject  = "failed to update project status"
	errTransaction        = "failed to complete transaction"
	errListProjects       = "failed to list projects"
	errStoreResultFile    = "failed to store result file"
	errSaveResult         = "failed to save result"
	errListResults        = "failed to list results"
	errResultFileRequired = "file is required"

	resultKeyFmt = "project-results/%s/%d_%s"
)

// payload keys shared with notification consumers
const (
	keyProjectID = "project_id"
	keyTitle     = "title"
	keyStatus    = "status"
	keyFrom      = "from"
	keyTo        = "to"
	keyRole      = "role"
	keyDecision  = "decision"
	keyComments  = "comments"
)
