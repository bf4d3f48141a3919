package appraisal

// Redact strips the fields the given role may not see at the appraisal's
// current stage. Once complete, everyone involved sees the full record.
func Redact(a Appraisal, role Role) Appraisal {
	if a.Status == StatusComplete || role == RoleReviewer {
		return a
	}
	goals := make([]Goal, len(a.Goals))
	copy(goals, a.Goals)
	a.Goals = goals
	switch role {
	case RoleAppraisee:
		a.AppraiserOverall = EvaluationPair{}
		a.ReviewerOverall = EvaluationPair{}
		for i := range a.Goals {
			a.Goals[i].Appraiser = EvaluationPair{}
		}
	case RoleAppraiser:
		// The appraiser needs the self pairs to evaluate against, but
		// never sees the reviewer's pass before completion.
		a.ReviewerOverall = EvaluationPair{}
	}
	return a
}
