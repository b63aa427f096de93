package models

// Student belongs to exactly one class; the class field on the roster is the
// single source of truth for membership, so reassigning a student rewrites the
// class attribution of their past attendance.
type Student struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	ClassID  string `json:"class_id"`
}

// ClassGroup is a school class referenced by students and attendance queries.
type ClassGroup struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
