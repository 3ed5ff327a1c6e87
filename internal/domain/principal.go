package domain

import (
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownRole is returned when a record carries a role tag outside Roles().
	ErrUnknownRole = errors.New("unknown role")
	// ErrPayloadMismatch is returned when a principal's payload does not match its role tag.
	ErrPayloadMismatch = errors.New("role payload mismatch")
)

// Profile holds the attributes shared by every principal.
type Profile struct {
	ID         string `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	Email      string `json:"email" yaml:"email"`
	Avatar     string `json:"avatar,omitempty" yaml:"avatar,omitempty"`
	Phone      string `json:"phone,omitempty" yaml:"phone,omitempty"`
	Address    string `json:"address,omitempty" yaml:"address,omitempty"`
	DateJoined string `json:"dateJoined" yaml:"dateJoined"`
}

// FeeSummary aggregates a student's fee position.
type FeeSummary struct {
	Total   float64 `json:"total" yaml:"total"`
	Paid    float64 `json:"paid" yaml:"paid"`
	Pending float64 `json:"pending" yaml:"pending"`
	DueDate string  `json:"dueDate" yaml:"dueDate"`
}

// AttendanceSummary aggregates a student's attendance.
type AttendanceSummary struct {
	Present    int     `json:"present" yaml:"present"`
	Absent     int     `json:"absent" yaml:"absent"`
	Total      int     `json:"total" yaml:"total"`
	Percentage float64 `json:"percentage" yaml:"percentage"`
}

// SubjectGrade is the per-subject grade summary.
type SubjectGrade struct {
	Assignments float64 `json:"assignments" yaml:"assignments"`
	Tests       float64 `json:"tests" yaml:"tests"`
	Final       float64 `json:"final" yaml:"final"`
	Overall     string  `json:"overall" yaml:"overall"`
}

// StudentProfile is the student-only payload.
type StudentProfile struct {
	StudentID        string                  `json:"studentId" yaml:"studentId"`
	Grade            string                  `json:"grade" yaml:"grade"`
	Section          string                  `json:"section" yaml:"section"`
	RollNumber       int                     `json:"rollNumber" yaml:"rollNumber"`
	ParentID         string                  `json:"parentId,omitempty" yaml:"parentId,omitempty"`
	DateOfBirth      string                  `json:"dateOfBirth" yaml:"dateOfBirth"`
	BloodGroup       string                  `json:"bloodGroup,omitempty" yaml:"bloodGroup,omitempty"`
	EmergencyContact string                  `json:"emergencyContact,omitempty" yaml:"emergencyContact,omitempty"`
	Fees             FeeSummary              `json:"fees" yaml:"fees"`
	Attendance       AttendanceSummary       `json:"attendance" yaml:"attendance"`
	Grades           map[string]SubjectGrade `json:"grades" yaml:"grades"`
}

// TeacherProfile is the teacher-only payload.
type TeacherProfile struct {
	TeacherID      string   `json:"teacherId" yaml:"teacherId"`
	Subjects       []string `json:"subjects" yaml:"subjects"`
	Classes        []string `json:"classes" yaml:"classes"`
	Qualifications []string `json:"qualifications" yaml:"qualifications"`
	Experience     int      `json:"experience" yaml:"experience"`
	Salary         *int     `json:"salary,omitempty" yaml:"salary,omitempty"`
	JoiningDate    string   `json:"joiningDate" yaml:"joiningDate"`
}

// Relationship describes how a parent relates to their children.
type Relationship string

const (
	RelationshipFather   Relationship = "Father"
	RelationshipMother   Relationship = "Mother"
	RelationshipGuardian Relationship = "Guardian"
)

// ParentProfile is the parent-only payload.
type ParentProfile struct {
	ParentID     string       `json:"parentId" yaml:"parentId"`
	Children     []string     `json:"children" yaml:"children"`
	Occupation   string       `json:"occupation,omitempty" yaml:"occupation,omitempty"`
	Relationship Relationship `json:"relationship" yaml:"relationship"`
}

// AdminProfile is the admin-only payload.
type AdminProfile struct {
	AdminID     string   `json:"adminId" yaml:"adminId"`
	Permissions []string `json:"permissions" yaml:"permissions"`
	LastLogin   string   `json:"lastLogin" yaml:"lastLogin"`
}

// Principal is an identity with exactly one role-specific payload. The role
// tag is fixed by the constructor and cannot be changed afterwards.
//
// Serialized form is a single flat object: shared profile fields, the
// "role" tag and the payload fields side by side.
type Principal struct {
	Profile

	role    Role
	student *StudentProfile
	teacher *TeacherProfile
	parent  *ParentProfile
	admin   *AdminProfile
}

// NewStudent builds a student principal.
func NewStudent(profile Profile, payload StudentProfile) Principal {
	return Principal{Profile: profile, role: RoleStudent, student: &payload}
}

// NewTeacher builds a teacher principal.
func NewTeacher(profile Profile, payload TeacherProfile) Principal {
	return Principal{Profile: profile, role: RoleTeacher, teacher: &payload}
}

// NewParent builds a parent principal.
func NewParent(profile Profile, payload ParentProfile) Principal {
	return Principal{Profile: profile, role: RoleParent, parent: &payload}
}

// NewAdmin builds an admin principal.
func NewAdmin(profile Profile, payload AdminProfile) Principal {
	return Principal{Profile: profile, role: RoleAdmin, admin: &payload}
}

// Role returns the role tag.
func (p Principal) Role() Role { return p.role }

// Student returns the student payload if p is a student.
func (p Principal) Student() (StudentProfile, bool) {
	if p.role != RoleStudent || p.student == nil {
		return StudentProfile{}, false
	}
	return *p.student, true
}

// Teacher returns the teacher payload if p is a teacher.
func (p Principal) Teacher() (TeacherProfile, bool) {
	if p.role != RoleTeacher || p.teacher == nil {
		return TeacherProfile{}, false
	}
	return *p.teacher, true
}

// Parent returns the parent payload if p is a parent.
func (p Principal) Parent() (ParentProfile, bool) {
	if p.role != RoleParent || p.parent == nil {
		return ParentProfile{}, false
	}
	return *p.parent, true
}

// Admin returns the admin payload if p is an admin.
func (p Principal) Admin() (AdminProfile, bool) {
	if p.role != RoleAdmin || p.admin == nil {
		return AdminProfile{}, false
	}
	return *p.admin, true
}

// Validate checks that the principal is addressable and that exactly the
// payload of its role is present.
func (p Principal) Validate() error {
	if p.ID == "" {
		return errors.New("principal id is required")
	}
	if p.Email == "" {
		return fmt.Errorf("principal %s: email is required", p.ID)
	}
	present := 0
	for _, set := range []bool{p.student != nil, p.teacher != nil, p.parent != nil, p.admin != nil} {
		if set {
			present++
		}
	}
	if _, err := p.payload(); err != nil {
		return fmt.Errorf("principal %s: %w", p.ID, err)
	}
	if present != 1 {
		return fmt.Errorf("principal %s: %w", p.ID, ErrPayloadMismatch)
	}
	return nil
}

func (p Principal) payload() (any, error) {
	var payload any
	switch p.role {
	case RoleStudent:
		if p.student != nil {
			payload = p.student
		}
	case RoleTeacher:
		if p.teacher != nil {
			payload = p.teacher
		}
	case RoleParent:
		if p.parent != nil {
			payload = p.parent
		}
	case RoleAdmin:
		if p.admin != nil {
			payload = p.admin
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, p.role)
	}
	if payload == nil {
		return nil, ErrPayloadMismatch
	}
	return payload, nil
}

// MarshalJSON writes the flat representation.
func (p Principal) MarshalJSON() ([]byte, error) {
	payload, err := p.payload()
	if err != nil {
		return nil, err
	}
	fields := make(map[string]json.RawMessage)
	if err := mergeJSONFields(fields, p.Profile); err != nil {
		return nil, err
	}
	if err := mergeJSONFields(fields, payload); err != nil {
		return nil, err
	}
	role, err := json.Marshal(p.role)
	if err != nil {
		return nil, err
	}
	fields["role"] = role
	return json.Marshal(fields)
}

// UnmarshalJSON reads the flat representation, dispatching on "role".
func (p *Principal) UnmarshalJSON(data []byte) error {
	var head struct {
		Role Role `json:"role"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return err
	}
	var profile Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return err
	}
	decoded, err := decodePrincipal(head.Role, profile, func(v any) error {
		return json.Unmarshal(data, v)
	})
	if err != nil {
		return err
	}
	*p = decoded
	return nil
}

// UnmarshalYAML reads the same flat representation from YAML seed files.
func (p *Principal) UnmarshalYAML(value *yaml.Node) error {
	var head struct {
		Role Role `yaml:"role"`
	}
	if err := value.Decode(&head); err != nil {
		return err
	}
	var profile Profile
	if err := value.Decode(&profile); err != nil {
		return err
	}
	decoded, err := decodePrincipal(head.Role, profile, value.Decode)
	if err != nil {
		return err
	}
	*p = decoded
	return nil
}

func decodePrincipal(role Role, profile Profile, decode func(any) error) (Principal, error) {
	switch role {
	case RoleStudent:
		var payload StudentProfile
		if err := decode(&payload); err != nil {
			return Principal{}, err
		}
		return NewStudent(profile, payload), nil
	case RoleTeacher:
		var payload TeacherProfile
		if err := decode(&payload); err != nil {
			return Principal{}, err
		}
		return NewTeacher(profile, payload), nil
	case RoleParent:
		var payload ParentProfile
		if err := decode(&payload); err != nil {
			return Principal{}, err
		}
		return NewParent(profile, payload), nil
	case RoleAdmin:
		var payload AdminProfile
		if err := decode(&payload); err != nil {
			return Principal{}, err
		}
		return NewAdmin(profile, payload), nil
	default:
		return Principal{}, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
}

func mergeJSONFields(dst map[string]json.RawMessage, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return err
	}
	for key, val := range fields {
		dst[key] = val
	}
	return nil
}
