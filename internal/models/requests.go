package models

// AttendanceEntry is one student's mark inside a submitted sheet.
type AttendanceEntry struct {
	StudentID     string `json:"student_id" validate:"required"`
	Status        string `json:"status" validate:"required,attendance_status"`
	Justification string `json:"justification" validate:"omitempty,absence_justification"`
}

// SubmitAttendanceRequest replaces the sheet of one class on one date.
type SubmitAttendanceRequest struct {
	ClassID string            `json:"class_id" validate:"required"`
	Date    string            `json:"date" validate:"required,attendance_date"`
	Entries []AttendanceEntry `json:"entries" validate:"dive"`
}

// SheetEntry is one roster line of a class sheet, merged with any existing
// record for the requested date.
type SheetEntry struct {
	StudentID     string           `json:"student_id"`
	StudentName   string           `json:"student_name"`
	Status        AttendanceStatus `json:"status,omitempty"`
	Justification Justification    `json:"justification,omitempty"`
	Recorded      bool             `json:"recorded"`
}

// ClassSheet is the editable attendance view for a class on a date.
type ClassSheet struct {
	ClassID   string       `json:"class_id"`
	ClassName string       `json:"class_name"`
	Date      string       `json:"date"`
	Entries   []SheetEntry `json:"entries"`
}

// CreateClassRequest registers a new class.
type CreateClassRequest struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
}

// CreateStudentRequest enrolls a student into an existing class.
type CreateStudentRequest struct {
	FullName string `json:"full_name" validate:"required,min=1,max=200"`
	ClassID  string `json:"class_id" validate:"required"`
}

// MoveStudentRequest reassigns a student to another class.
type MoveStudentRequest struct {
	ClassID string `json:"class_id" validate:"required"`
}

// CreateUserRequest registers a new account.
type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3,max=64"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"required"`
	Role     string `json:"role" validate:"required,user_role"`
}
