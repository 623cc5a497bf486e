package model

import "time"

type EnquiryStatus string

const (
	EnquiryStatusNew       EnquiryStatus = "new"
	EnquiryStatusContacted EnquiryStatus = "contacted"
	EnquiryStatusClosed    EnquiryStatus = "closed"
)

type Enquiry struct {
	ID           int64         `db:"id" json:"id"`
	Name         string        `db:"name" json:"name"`
	Email        string        `db:"email" json:"email"`
	Dog          string        `db:"dog" json:"dog"`
	Message      string        `db:"message" json:"message"`
	Status       EnquiryStatus `db:"status" json:"status"`
	IP           string        `db:"ip" json:"ip"`
	SID          string        `db:"sid" json:"sid"`
	VisitSummary string        `db:"visit_summary" json:"visit_summary"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
}

type CreateEnquiryRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Dog     string `json:"dog"`
	Message string `json:"message"`
	SID     string `json:"sid"`
}
