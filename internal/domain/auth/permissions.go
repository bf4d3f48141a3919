package auth

const (
	PermAppraisalsRead     = "appraisals.read"
	PermAppraisalsWrite    = "appraisals.write"
	PermAppraisalsEvaluate = "appraisals.evaluate"
	PermAppraisalsFinalize = "appraisals.finalize"
	PermReportsRead        = "reports.read"
	PermAuditRead          = "audit.read"
	PermSystemAdmin        = "admin.system"
)

var DefaultPermissions = []string{
	PermAppraisalsRead,
	PermAppraisalsWrite,
	PermAppraisalsEvaluate,
	PermAppraisalsFinalize,
	PermReportsRead,
	PermAuditRead,
	PermSystemAdmin,
}

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermAppraisalsRead,
		PermAppraisalsWrite,
		PermReportsRead,
	},
	RoleManager: {
		PermAppraisalsRead,
		PermAppraisalsWrite,
		PermAppraisalsEvaluate,
		PermAppraisalsFinalize,
		PermReportsRead,
	},
	RoleHR: {
		PermAppraisalsRead,
		PermAppraisalsWrite,
		PermAppraisalsEvaluate,
		PermAppraisalsFinalize,
		PermReportsRead,
		PermAuditRead,
	},
	RoleSystemAdmin: {
		PermSystemAdmin,
	},
}
