package domain

// Intent is the recognized request type produced by the NLU parser.
type Intent string

const (
	IntentGetIssues  Intent = "get_issues"
	IntentGetReviews Intent = "get_reviews"
	IntentGetForms   Intent = "get_forms"
	IntentGreet      Intent = "greet"
	IntentUnsure     Intent = "unsure"
)

// Actionable reports whether the intent names a data query.
func (i Intent) Actionable() bool {
	switch i {
	case IntentGetIssues, IntentGetReviews, IntentGetForms:
		return true
	}
	return false
}

// AssigneeCurrentUser is the wildcard the parser emits when the requester
// asks about their own items.
const AssigneeCurrentUser = "current_user"

// IssueParams are the filters for an issue query.
type IssueParams struct {
	AssigneeName string   `json:"assignee_name,omitempty"`
	ProjectName  string   `json:"project_name,omitempty"`
	IssueStatus  []string `json:"issue_status,omitempty"`
	IssueType    []string `json:"issue_type,omitempty"`
	DueDate      string   `json:"due_date,omitempty"`
	CountOnly    bool     `json:"count_only,omitempty"`
}

// ReviewParams are the filters for a review query.
type ReviewParams struct {
	AssigneeName   string   `json:"assignee_name,omitempty"`
	ProjectName    string   `json:"project_name,omitempty"`
	ReviewStatus   []string `json:"review_status,omitempty"`
	ReviewWorkflow []string `json:"review_workflow,omitempty"`
	StepNumber     *int     `json:"step_number,omitempty"`
	DueDate        string   `json:"due_date,omitempty"`
	CountOnly      bool     `json:"count_only,omitempty"`
}

// FormParams are the filters for a form query.
type FormParams struct {
	AssigneeName string   `json:"assignee_name,omitempty"`
	ProjectName  string   `json:"project_name,omitempty"`
	FormStatus   []string `json:"form_status,omitempty"`
	FormTemplate []string `json:"form_template,omitempty"`
	CreatedOn    string   `json:"created_on,omitempty"`
	CountOnly    bool     `json:"count_only,omitempty"`
}

// Params is a tagged union over the three query shapes. Exactly the branch
// matching the intent is set; the others are nil.
type Params struct {
	Intent Intent        `json:"intent"`
	Issue  *IssueParams  `json:"issue,omitempty"`
	Review *ReviewParams `json:"review,omitempty"`
	Form   *FormParams   `json:"form,omitempty"`
}

// AssigneeName returns the assignee filter for whichever branch is set.
func (p Params) AssigneeName() string {
	switch {
	case p.Issue != nil:
		return p.Issue.AssigneeName
	case p.Review != nil:
		return p.Review.AssigneeName
	case p.Form != nil:
		return p.Form.AssigneeName
	}
	return ""
}

// ProjectName returns the project filter for whichever branch is set.
func (p Params) ProjectName() string {
	switch {
	case p.Issue != nil:
		return p.Issue.ProjectName
	case p.Review != nil:
		return p.Review.ProjectName
	case p.Form != nil:
		return p.Form.ProjectName
	}
	return ""
}

// CountOnly reports whether the requester asked for a count, not a listing.
func (p Params) CountOnly() bool {
	switch {
	case p.Issue != nil:
		return p.Issue.CountOnly
	case p.Review != nil:
		return p.Review.CountOnly
	case p.Form != nil:
		return p.Form.CountOnly
	}
	return false
}

// Statuses returns the status filter for whichever branch is set.
func (p Params) Statuses() []string {
	switch {
	case p.Issue != nil:
		return p.Issue.IssueStatus
	case p.Review != nil:
		return p.Review.ReviewStatus
	case p.Form != nil:
		return p.Form.FormStatus
	}
	return nil
}

// DueDate returns the due-date (or created-on, for forms) filter.
func (p Params) DueDate() string {
	switch {
	case p.Issue != nil:
		return p.Issue.DueDate
	case p.Review != nil:
		return p.Review.DueDate
	case p.Form != nil:
		return p.Form.CreatedOn
	}
	return ""
}
