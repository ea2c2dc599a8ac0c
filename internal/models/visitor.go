package models

import "time"

// VisitorStatus captures the lifecycle states of a visitor request.
type VisitorStatus string

const (
	StatusPending    VisitorStatus = "pending"
	StatusApproved   VisitorStatus = "approved"
	StatusCheckedIn  VisitorStatus = "checked_in"
	StatusCheckedOut VisitorStatus = "checked_out"
)

// Department enumerates the fixed department codes a visitor may register for.
type Department string

const (
	DeptCSE            Department = "CSE"
	DeptECE            Department = "ECE"
	DeptEEE            Department = "EEE"
	DeptEIE            Department = "EIE"
	DeptMech           Department = "MECH"
	DeptCivil          Department = "CIVIL"
	DeptIT             Department = "IT"
	DeptAdministration Department = "ADMINISTRATION"
	DeptHostel         Department = "HOSTEL"
	DeptLibrary        Department = "LIBRARY"
)

// Departments lists every accepted department code.
var Departments = []Department{
	DeptCSE, DeptECE, DeptEEE, DeptEIE, DeptMech,
	DeptCivil, DeptIT, DeptAdministration, DeptHostel, DeptLibrary,
}

// ValidDepartment reports whether code is a known department.
func ValidDepartment(code Department) bool {
	for _, d := range Departments {
		if d == code {
			return true
		}
	}
	return false
}

// VisitorRequest tracks one visitor's registration through approval and entry/exit.
type VisitorRequest struct {
	ID           string        `db:"id" json:"id"`
	Name         string        `db:"name" json:"name"`
	Designation  string        `db:"designation" json:"designation"`
	Organization string        `db:"organization" json:"organization"`
	Phone        string        `db:"phone" json:"phone"`
	Email        string        `db:"email" json:"email"`
	Purpose      string        `db:"purpose" json:"purpose"`
	Department   Department    `db:"department" json:"department"`
	PhotoURL     string        `db:"photo_url" json:"photo_url"`
	Status       VisitorStatus `db:"status" json:"status"`
	VisitorUID   *string       `db:"visitor_uid" json:"visitor_uid,omitempty"`
	CheckInTime  *time.Time    `db:"check_in_time" json:"check_in_time,omitempty"`
	CheckOutTime *time.Time    `db:"check_out_time" json:"check_out_time,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
}

// StatusChange groups the columns applied by a lifecycle transition.
type StatusChange struct {
	Status       VisitorStatus
	VisitorUID   *string
	CheckInTime  *time.Time
	CheckOutTime *time.Time
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
