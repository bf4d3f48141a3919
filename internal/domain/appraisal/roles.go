package appraisal

// Capability is a single permitted action, resolved per role and status.
type Capability string

const (
	CapRead           Capability = "read"
	CapEditGoals      Capability = "edit_goals"
	CapWriteSelf      Capability = "write_self"
	CapWriteAppraiser Capability = "write_appraiser"
	CapWriteReviewer  Capability = "write_reviewer"
	CapTransition     Capability = "transition"
	CapDiscard        Capability = "discard"
)

// RelationOf derives the actor's role on a specific appraisal from its
// participant assignments. An employee unrelated to the appraisal gets
// RoleOther and no capabilities.
func RelationOf(a *Appraisal, employeeID string) Role {
	switch employeeID {
	case "":
		return RoleOther
	case a.AppraiseeID:
		return RoleAppraisee
	case a.AppraiserID:
		return RoleAppraiser
	case a.ReviewerID:
		return RoleReviewer
	default:
		return RoleOther
	}
}

type capSet map[Capability]bool

// capabilityMatrix maps role and status to the permitted actions. Absent
// entries mean no access at all.
var capabilityMatrix = map[Role]map[Status]capSet{
	RoleAppraisee: {
		StatusDraft:               {CapRead: true, CapEditGoals: true, CapTransition: true, CapDiscard: true},
		StatusSubmitted:           {CapRead: true},
		StatusSelfAssessment:      {CapRead: true, CapWriteSelf: true, CapTransition: true},
		StatusAppraiserEvaluation: {CapRead: true},
		StatusReviewerEvaluation:  {CapRead: true},
		StatusComplete:            {CapRead: true},
	},
	RoleAppraiser: {
		StatusAppraiserEvaluation: {CapRead: true, CapWriteAppraiser: true, CapTransition: true},
		StatusComplete:            {CapRead: true},
	},
	RoleReviewer: {
		StatusReviewerEvaluation: {CapRead: true, CapWriteReviewer: true, CapTransition: true},
		StatusComplete:           {CapRead: true},
	},
}

// Can reports whether role may perform cap while the appraisal is in status.
func Can(role Role, status Status, cap Capability) bool {
	return capabilityMatrix[role][status][cap]
}
