package domain

// StageStatus is the internal status vocabulary for a construction stage.
type StageStatus string

const (
	StagePending     StageStatus = "pending"
	StageInProgress  StageStatus = "in_progress"
	StageCompleted   StageStatus = "completed"
	StageRectify     StageStatus = "rectify"
	StageRectifyDone StageStatus = "rectify_done"
)

// Severity grades an acceptance finding.
type Severity string

const (
	SeverityNone Severity = "none"
	SeverityLow  Severity = "low"
	SeverityMid  Severity = "mid"
	SeverityHigh Severity = "high"
)

// ResultStatus is the outcome of an acceptance submission.
type ResultStatus string

const (
	ResultPending        ResultStatus = "pending"
	ResultPassed         ResultStatus = "passed"
	ResultPendingRecheck ResultStatus = "pending_recheck"
	ResultRectifyNeeded  ResultStatus = "rectify_needed"
)

// AppealStatus tracks the out-of-band human review of a rectification finding.
type AppealStatus string

const (
	AppealNone     AppealStatus = "none"
	AppealPending  AppealStatus = "pending"
	AppealApproved AppealStatus = "approved"
	AppealRejected AppealStatus = "rejected"
)

// MutationOrigin records where a stage status change came from.
type MutationOrigin string

const (
	OriginLocal   MutationOrigin = "local"
	OriginBackend MutationOrigin = "backend"
)
