package model

// MaxReportImages is the number of image attachments a report may carry.
const MaxReportImages = 3

// Report statuses as emitted by the backend.
const (
	ReportStatusOpen     = "open"
	ReportStatusResolved = "resolved"
)

// Report is the client's cached copy of a backend report.
type Report struct {
	ID            string   `json:"id"`
	Location      string   `json:"location"`
	IssueType     string   `json:"issue_type"`
	Description   string   `json:"description"`
	Agency        string   `json:"agency"`
	OfficialName  string   `json:"official_name"`
	Status        string   `json:"status,omitempty"`
	Urgency       string   `json:"urgency,omitempty"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
	UpvoteCount   int      `json:"upvote_count"`
	DownvoteCount int      `json:"downvote_count"`
	Images        []string `json:"images"`
}

// Clone returns a copy that shares no slices or pointers with r.
func (r Report) Clone() Report {
	c := r
	if r.Images != nil {
		c.Images = append([]string(nil), r.Images...)
	}
	if r.Latitude != nil {
		lat := *r.Latitude
		c.Latitude = &lat
	}
	if r.Longitude != nil {
		lon := *r.Longitude
		c.Longitude = &lon
	}
	return c
}

// ImageAttachment is one binary image of a report draft.
type ImageAttachment struct {
	Filename    string `json:"filename" validate:"required"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-" validate:"required"`
}

// ReportDraft holds the fields of a report being composed by the user.
type ReportDraft struct {
	Location     string            `json:"location" validate:"required"`
	IssueType    string            `json:"issue_type" validate:"required"`
	Description  string            `json:"description" validate:"required,max=500"`
	Agency       string            `json:"agency" validate:"required"`
	OfficialName string            `json:"official_name"`
	Urgency      string            `json:"urgency" validate:"required"`
	Images       []ImageAttachment `json:"images" validate:"max=3,dive"`
}

// DraftFields is the textual part of a draft as sent by the UI.
type DraftFields struct {
	Location     *string `json:"location"`
	IssueType    *string `json:"issue_type"`
	Description  *string `json:"description"`
	Agency       *string `json:"agency"`
	OfficialName *string `json:"official_name"`
	Urgency      *string `json:"urgency"`
}

// AssignTaskRequest assigns a report to an agency member.
type AssignTaskRequest struct {
	ReportID   string `json:"-" url:"reportId"`
	AssignedTo string `json:"assigned_to" url:"assignedTo" validate:"required"`
}

// ReportFilter is the query of the location filter.
type ReportFilter struct {
	Location string `url:"location" validate:"required"`
}

// ReportStats summarises a list of reports for the dashboard.
type ReportStats struct {
	Total         int            `json:"total"`
	Open          int            `json:"open"`
	Resolved      int            `json:"resolved"`
	ByIssueType   map[string]int `json:"by_issue_type"`
	UpvoteTotal   int            `json:"upvote_total"`
	DownvoteTotal int            `json:"downvote_total"`
}
