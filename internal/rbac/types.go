package rbac

// Role is a principal role as seen by the capability table
type Role string

// Resource is a kind of object an action is performed on
type Resource string

// Action is an operation on a resource
type Action string
