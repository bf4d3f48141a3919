package notifications

const (
	TypeAppraisalSubmitted     = "appraisal_submitted"
	TypeAppraiserEvaluationDue = "appraiser_evaluation_due"
	TypeReviewerEvaluationDue  = "reviewer_evaluation_due"
	TypeAppraisalCompleted     = "appraisal_completed"
)
