package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func sampleStudent() Principal {
	return NewStudent(Profile{
		ID:         "student1",
		Name:       "Alice Johnson",
		Email:      "alice.johnson@school.edu",
		Phone:      "+1234567890",
		DateJoined: "2020-04-01",
	}, StudentProfile{
		StudentID:  "STU001",
		Grade:      "10th",
		Section:    "A",
		RollNumber: 1,
		ParentID:   "parent1",
		Fees:       FeeSummary{Total: 5000, Paid: 3500, Pending: 1500, DueDate: "2024-02-15"},
		Attendance: AttendanceSummary{Present: 180, Absent: 20, Total: 200, Percentage: 90},
		Grades: map[string]SubjectGrade{
			"Mathematics": {Assignments: 85, Tests: 88, Final: 87, Overall: "A"},
		},
	})
}

func TestPrincipalJSONIsFlat(t *testing.T) {
	raw, err := json.Marshal(sampleStudent())
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, "student", fields["role"])
	assert.Equal(t, "alice.johnson@school.edu", fields["email"])
	assert.Equal(t, "STU001", fields["studentId"])
	assert.NotContains(t, fields, "teacherId")
}

func TestPrincipalJSONRoundTripKeepsVariant(t *testing.T) {
	salary := 85000
	principals := []Principal{
		sampleStudent(),
		NewTeacher(Profile{ID: "teacher1", Email: "t@school.edu"}, TeacherProfile{TeacherID: "TCH001", Subjects: []string{"Mathematics"}, Salary: &salary}),
		NewParent(Profile{ID: "parent1", Email: "p@email.com"}, ParentProfile{ParentID: "PAR001", Children: []string{"student1"}, Relationship: RelationshipFather}),
		NewAdmin(Profile{ID: "admin1", Email: "a@school.edu"}, AdminProfile{AdminID: "ADM001", Permissions: []string{"all"}}),
	}

	for _, p := range principals {
		t.Run(string(p.Role()), func(t *testing.T) {
			raw, err := json.Marshal(p)
			require.NoError(t, err)

			var decoded Principal
			require.NoError(t, json.Unmarshal(raw, &decoded))
			assert.Equal(t, p, decoded)
			assert.NoError(t, decoded.Validate())
		})
	}
}

func TestPrincipalUnmarshalRejectsUnknownRole(t *testing.T) {
	var p Principal
	err := json.Unmarshal([]byte(`{"id":"x","email":"x@y","role":"janitor"}`), &p)
	assert.True(t, errors.Is(err, ErrUnknownRole))
}

func TestPrincipalVariantAccessorsFollowRole(t *testing.T) {
	p := sampleStudent()

	_, ok := p.Student()
	assert.True(t, ok)
	_, ok = p.Teacher()
	assert.False(t, ok)
	_, ok = p.Parent()
	assert.False(t, ok)
	_, ok = p.Admin()
	assert.False(t, ok)
}

func TestPrincipalValidate(t *testing.T) {
	assert.Error(t, Principal{}.Validate())
	assert.Error(t, NewAdmin(Profile{ID: "a"}, AdminProfile{}).Validate())
	assert.NoError(t, sampleStudent().Validate())
}

func TestPrincipalFromYAML(t *testing.T) {
	doc := `
id: parent2
name: Jennifer Smith
email: jennifer.smith@email.com
role: parent
parentId: PAR002
children: [student2]
relationship: Mother
dateJoined: "2020-04-01"
`
	var p Principal
	require.NoError(t, yaml.Unmarshal([]byte(doc), &p))

	assert.Equal(t, RoleParent, p.Role())
	parent, ok := p.Parent()
	require.True(t, ok)
	assert.Equal(t, []string{"student2"}, parent.Children)
	assert.Equal(t, RelationshipMother, parent.Relationship)
}

func TestRoleSet(t *testing.T) {
	set := NewRoleSet(RoleTeacher, RoleAdmin)
	assert.True(t, set.Contains(RoleAdmin))
	assert.False(t, set.Contains(RoleStudent))
	assert.Equal(t, []Role{RoleAdmin, RoleTeacher}, set.Slice())
	assert.False(t, Role("guest").Valid())
}
