package models

import "time"

// AttendanceStatus is the recorded state for a student on a given day.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "PRESENT"
	AttendanceStatusAbsent  AttendanceStatus = "ABSENT"
	AttendanceStatusDropped AttendanceStatus = "DROPPED"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusDropped:
		return true
	default:
		return false
	}
}

// Countable reports whether the status participates in presence-rate math.
// Dropped students count as neither presence nor absence.
func (s AttendanceStatus) Countable() bool {
	return s == AttendanceStatusPresent || s == AttendanceStatusAbsent
}

// Justification qualifies an absence. It is fixed to JustificationNone for any
// non-absent record.
type Justification string

const (
	JustificationNone      Justification = "none"
	JustificationIllness   Justification = "illness"
	JustificationTransport Justification = "transport"
	JustificationFamily    Justification = "family"
	JustificationOther     Justification = "other"
)

// Valid returns true when the justification is a recognised value.
func (j Justification) Valid() bool {
	switch j {
	case JustificationNone, JustificationIllness, JustificationTransport, JustificationFamily, JustificationOther:
		return true
	default:
		return false
	}
}

// AttendanceRecord is one student's state for one day as stored. Class is
// deliberately not part of the record; it is derived by joining the roster at
// read time so that analytics always reflect current class membership.
type AttendanceRecord struct {
	StudentID     string           `json:"student_id"`
	Date          time.Time        `json:"date"`
	Status        AttendanceStatus `json:"status"`
	Justification Justification    `json:"justification"`
	TeacherID     string           `json:"teacher_id"`
}

// AttendanceRecordDetail extends the stored record with roster metadata
// resolved at read time.
type AttendanceRecordDetail struct {
	AttendanceRecord
	StudentName string `json:"student_name"`
	ClassID     string `json:"class_id"`
	ClassName   string `json:"class_name,omitempty"`
}

// AttendanceFilter narrows record queries. Zero values mean "no constraint".
type AttendanceFilter struct {
	ClassID   string
	StudentID string
	TeacherID string
	Status    *AttendanceStatus
	DateFrom  *time.Time
	DateTo    *time.Time
}

// Matches applies every non-zero constraint except class, which requires the
// roster join and is handled by the repository.
func (f AttendanceFilter) Matches(rec AttendanceRecord) bool {
	if f.StudentID != "" && rec.StudentID != f.StudentID {
		return false
	}
	if f.TeacherID != "" && rec.TeacherID != f.TeacherID {
		return false
	}
	if f.Status != nil && rec.Status != *f.Status {
		return false
	}
	if f.DateFrom != nil && rec.Date.Before(*f.DateFrom) {
		return false
	}
	if f.DateTo != nil && rec.Date.After(*f.DateTo) {
		return false
	}
	return true
}
