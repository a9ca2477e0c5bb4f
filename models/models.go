package models

import (
	"strings"
	"time"
)

// DisplayTimeFormat is the day-month-year layout used everywhere a date
// leaves the system (reports, ticket CreatedDate, email bodies).
const DisplayTimeFormat = "02-01-2006 15:04"

// DisplayDateFormat is the date-only prefix of DisplayTimeFormat, used as
// the day key of the ticket-volume trend.
const DisplayDateFormat = "02-01-2006"

type Asset struct {
	LinkID             string     `json:"linkId"`
	SiteName           string     `json:"siteName"`
	Address            string     `json:"address"`
	ModelMake          string     `json:"modelMake"`
	SerialNo           string     `json:"serialNo"`
	IPAddress1         string     `json:"ipAddress1"`
	IPAddress2         string     `json:"ipAddress2"`
	Connectivity       string     `json:"connectivity"`
	LinkBW             string     `json:"linkBW"`
	DiscoveryDate      string     `json:"discoveryDate"`
	EmailID            string     `json:"emailId"`
	ProjectName        string     `json:"projectName"`
	Status             string     `json:"status"`
	FirstDownTime      *time.Time `json:"firstDownTime"`
	LastDownTime       *time.Time `json:"lastDownTime"`
	LastEmailSentTime  *time.Time `json:"lastEmailSentTime"`
	EmailNotifications bool       `json:"emailNotifications"`
}

// Recipients splits the stored emailId field into individual addresses.
func (a *Asset) Recipients() []string {
	out := make([]string, 0, 2)
	for _, addr := range strings.Split(a.EmailID, ",") {
		addr = strings.TrimSpace(addr)
		if addr != "" {
			out = append(out, addr)
		}
	}
	return out
}

type Ticket struct {
	SrNo           int            `json:"SrNo"`
	TicketNo       string         `json:"TicketNo"`
	SiteName       string         `json:"SiteName"`
	LinkID         string         `json:"LinkId"`
	ProblemCode    string         `json:"ProblemCode"`
	Status         string         `json:"Status"`
	DownTimer      string         `json:"Down_Timer"`
	UpTimer        string         `json:"Up_Timer"`
	RFO            string         `json:"RFO"`
	AssignedBy     string         `json:"AssignedBy"`
	AssignedFor    string         `json:"AssignedFor"`
	CreatedBy      string         `json:"CreatedBy"`
	CreatedDate    string         `json:"CreatedDate"`
	LastUpdateBy   string         `json:"LastUpdateBy"`
	LastUpdateDate string         `json:"LastUpdateDate"`
	ProjectName    string         `json:"projectName"`
	Updates        []TicketUpdate `json:"updates,omitempty"`
}

// TicketUpdate is one entry of a ticket's append-only workflow log.
type TicketUpdate struct {
	ID             int    `json:"id"`
	TicketNo       string `json:"ticketNo"`
	ProblemCode    string `json:"ProblemCode"`
	Status         string `json:"Status"`
	RFO            string `json:"RFO"`
	AssignedBy     string `json:"AssignedBy"`
	AssignedFor    string `json:"AssignedFor"`
	LastUpdateBy   string `json:"LastUpdateBy"`
	LastUpdateDate string `json:"LastUpdateDate"`
}

// TicketDayCount is one point of the recent ticket-volume trend.
type TicketDayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// DownAsset is one row of the unreachable-asset report returned by a
// monitoring pass.
type DownAsset struct {
	LinkID       string `json:"linkId"`
	SiteName     string `json:"siteName"`
	IPAddress1   string `json:"ipAddress1"`
	DownFor      string `json:"DownFor"`
	LiveStatus   string `json:"LiveStatus"`
	Connectivity string `json:"connectivity"`
	TicketStatus string `json:"TicketStatus"`
	CreatedDate  string `json:"CreatedDate"`
}

// Scope is the authorization filter applied to store reads and monitoring
// passes. Admins see every project.
type Scope struct {
	Admin       bool
	ProjectName string
}
