package postgres

import (
	"fmt"
	"time"
)

const (
	poolHealthCheckPeriod = time.Minute
	poolMaxConnLifetime   = time.Hour
	poolMaxConnIdleTime   = 30 * time.Minute
	dbPingTimeout         = 5 * time.Second

	pgUniqueViolation = "23505"

	errPrincipalNotFound     = "principal not found"
	errEmailExists           = "a principal with this email already exists"
	errProjectNotFound       = "project not found"
	errApprovalNotFound      = "approval not found"
	errClientRequestNotFound = "client request not found"
	errNotificationNotFound  = "notification not found"

	errProjectStatusChangedFmt = "project is no longer %s"
	errRequestStatusChangedFmt = "client request is no longer %s"

	errFailedParseDatabaseConfigFmt  = "failed to parse database config: %w"
	errFailedCreateConnectionPoolFmt = "failed to create connection pool: %w"
	errFailedPingDatabaseFmt         = "failed to ping database: %w"
	errFailedApplySchemaFmt          = "failed to apply schema: %w"

	errFailedStartTransactionFmt  = "failed to start transaction: %w"
	errFailedCommitTransactionFmt = "failed to commit transaction: %w"

	errFailedCreatePrincipalFmt = "failed to create principal: %w"
	errFailedGetPrincipalFmt    = "failed to get principal: %w"
	errFailedListPrincipalsFmt  = "failed to list principals: %w"
	errFailedScanPrincipalFmt   = "failed to scan principal: %w"
	errIteratePrincipalsFmt     = "error iterating principals: %w"
	errFailedUpdatePrincipalFmt = "failed to update principal: %w"
	errFailedCountPrincipalsFmt = "failed to count principals: %w"

	errFailedCreateProjectFmt     = "failed to create project: %w"
	errFailedGetProjectFmt        = "failed to get project: %w"
	errFailedListProjectsFmt      = "failed to list projects: %w"
	errFailedScanProjectFmt       = "failed to scan project: %w"
	errIterateProjectsFmt         = "error iterating projects: %w"
	errFailedUpdateProjectFmt     = "failed to update project: %w"
	errFailedTransitionProjectFmt = "failed to transition project: %w"

	errFailedGetApprovalFmt    = "failed to get approval: %w"
	errFailedUpsertApprovalFmt = "failed to upsert approval: %w"
	errFailedListApprovalsFmt  = "failed to list approvals: %w"
	errFailedScanApprovalFmt   = "failed to scan approval: %w"
	errIterateApprovalsFmt     = "error iterating approvals: %w"

	errFailedCreateResultFmt = "failed to create result: %w"
	errFailedListResultsFmt  = "failed to list results: %w"
	errFailedScanResultFmt   = "failed to scan result: %w"
	errIterateResultsFmt     = "error iterating results: %w"

	errFailedCreateRequestFmt = "failed to create client request: %w"
	errFailedGetRequestFmt    = "failed to get client request: %w"
	errFailedListRequestsFmt  = "failed to list client requests: %w"
	errFailedScanRequestFmt   = "failed to scan client request: %w"
	errIterateRequestsFmt     = "error iterating client requests: %w"
	errFailedUpdateRequestFmt = "failed to update client request: %w"

	errFailedCreateNotificationFmt = "failed to create notification: %w"
	errFailedListNotificationsFmt  = "failed to list notifications: %w"
	errFailedScanNotificationFmt   = "failed to scan notification: %w"
	errIterateNotificationsFmt     = "error iterating notifications: %w"
	errFailedMarkNotificationFmt   = "failed to mark notification read: %w"
)

var (
	errFailedApplySchema          = func(err error) error { return fmt.Errorf(errFailedApplySchemaFmt, err) }
	errFailedCommitTransaction    = func(err error) error { return fmt.Errorf(errFailedCommitTransactionFmt, err) }
	errFailedCountPrincipals      = func(err error) error { return fmt.Errorf(errFailedCountPrincipalsFmt, err) }
	errFailedCreateConnectionPool = func(err error) error { return fmt.Errorf(errFailedCreateConnectionPoolFmt, err) }
	errFailedCreateNotification   = func(err error) error { return fmt.Errorf(errFailedCreateNotificationFmt, err) }
	errFailedCreatePrincipal      = func(err error) error { return fmt.Errorf(errFailedCreatePrincipalFmt, err) }
	errFailedCreateProject        = func(err error) error { return fmt.Errorf(errFailedCreateProjectFmt, err) }
	errFailedCreateRequest        = func(err error) error { return fmt.Errorf(errFailedCreateRequestFmt, err) }
	errFailedCreateResult         = func(err error) error { return fmt.Errorf(errFailedCreateResultFmt, err) }
	errFailedGetApproval          = func(err error) error { return fmt.Errorf(errFailedGetApprovalFmt, err) }
	errFailedGetPrincipal         = func(err error) error { return fmt.Errorf(errFailedGetPrincipalFmt, err) }
	errFailedGetProject           = func(err error) error { return fmt.Errorf(errFailedGetProjectFmt, err) }
	errFailedGetRequest           = func(err error) error { return fmt.Errorf(errFailedGetRequestFmt, err) }
	errFailedListApprovals        = func(err error) error { return fmt.Errorf(errFailedListApprovalsFmt, err) }
	errFailedListNotifications    = func(err error) error { return fmt.Errorf(errFailedListNotificationsFmt, err) }
	errFailedListPrincipals       = func(err error) error { return fmt.Errorf(errFailedListPrincipalsFmt, err) }
	errFailedListProjects         = func(err error) error { return fmt.Errorf(errFailedListProjectsFmt, err) }
	errFailedListRequests         = func(err error) error { return fmt.Errorf(errFailedListRequestsFmt, err) }
	errFailedListResults          = func(err error) error { return fmt.Errorf(errFailedListResultsFmt, err) }
	errFailedMarkNotification     = func(err error) error { return fmt.Errorf(errFailedMarkNotificationFmt, err) }
	errFailedParseDatabaseConfig  = func(err error) error { return fmt.Errorf(errFailedParseDatabaseConfigFmt, err) }
	errFailedPingDatabase         = func(err error) error { return fmt.Errorf(errFailedPingDatabaseFmt, err) }
	errFailedScanApproval         = func(err error) error { return fmt.Errorf(errFailedScanApprovalFmt, err) }
	errFailedScanNotification     = func(err error) error { return fmt.Errorf(errFailedScanNotificationFmt, err) }
	errFailedScanPrincipal        = func(err error) error { return fmt.Errorf(errFailedScanPrincipalFmt, err) }
	errFailedScanProject          = func(err error) error { return fmt.Errorf(errFailedScanProjectFmt, err) }
	errFailedScanRequest          = func(err error) error { return fmt.Errorf(errFailedScanRequestFmt, err) }
	errFailedScanResult           = func(err error) error { return fmt.Errorf(errFailedScanResultFmt, err) }
	errFailedStartTransaction     = func(err error) error { return fmt.Errorf(errFailedStartTransactionFmt, err) }
	errFailedTransitionProject    = func(err error) error { return fmt.Errorf(errFailedTransitionProjectFmt, err) }
	errFailedUpdatePrincipal      = func(err error) error { return fmt.Errorf(errFailedUpdatePrincipalFmt, err) }
	errFailedUpdateProject        = func(err error) error { return fmt.Errorf(errFailedUpdateProjectFmt, err) }
	errFailedUpdateRequest        = func(err error) error { return fmt.Errorf(errFailedUpdateRequestFmt, err) }
	errFailedUpsertApproval       = func(err error) error { return fmt.Errorf(errFailedUpsertApprovalFmt, err) }
	errIterateApprovals           = func(err error) error { return fmt.Errorf(errIterateApprovalsFmt, err) }
	errIterateNotifications       = func(err error) error { return fmt.Errorf(errIterateNotificationsFmt, err) }
	errIteratePrincipals          = func(err error) error { return fmt.Errorf(errIteratePrincipalsFmt, err) }
	errIterateProjects            = func(err error) error { return fmt.Errorf(errIterateProjectsFmt, err) }
	errIterateRequests            = func(err error) error { return fmt.Errorf(errIterateRequestsFmt, err) }
	errIterateResults             = func(err error) error { return fmt.Errorf(errIterateResultsFmt, err) }
)
