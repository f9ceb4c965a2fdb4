package domain

import "time"

type MeetingType string

const (
	MeetingRemote MeetingType = "remote"
	MeetingOnSite MeetingType = "on_site"
)

// QuoteRequest asks for a tailored proposal.
type QuoteRequest struct {
	ID               int64
	FullName         string
	CompanyName      string
	Email            string
	Phone            string
	Industry         string
	Location         string
	CurrentChallenge string
	DesiredOutcome   string
	CreatedAt        time.Time
}

// MeetingRequest asks for a remote or on-site consultation.
type MeetingRequest struct {
	ID                 int64
	FullName           string
	CompanyName        string
	Email              string
	Phone              string
	MeetingType        MeetingType
	PreferredDate      *time.Time
	PreferredTimeRange string
	Notes              string
	CreatedAt          time.Time
}
