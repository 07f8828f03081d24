// Package dummydb provides in-memory repositories for tests and local
// development without a postgres instance.
package dummydb

import (
	"sync"

	"github.com/trezcool/matokeo/core/course"
	"github.com/trezcool/matokeo/core/grade"
	"github.com/trezcool/matokeo/core/outcome"
	"github.com/trezcool/matokeo/core/user"
)

type (
	DB struct {
		user    *userTable
		outcome *outcomeTable
		course  *courseTable
		grade   *gradeTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	outcomeTable struct {
		sync.RWMutex
		deptSeq     int
		poSeq       int
		departments map[int]*outcome.Department
		outcomes    map[int]*outcome.ProgramOutcome
	}

	courseTable struct {
		sync.RWMutex
		seq         int
		templates   map[int]*course.Template
		instances   map[int]*course.Instance
		los         map[int]*course.LearningOutcome
		assessments map[int]*course.Assessment
		edgesA      map[int]*course.AssessmentLOContribution
		edgesB      map[int]*course.LOPOContribution
		enrollments map[int]map[string]bool // instance id -> student ids
	}

	gradeKey struct {
		studentID    string
		assessmentID int
	}

	gradeTable struct {
		sync.RWMutex
		seq   int
		table map[gradeKey]*grade.AssessmentGrade
	}
)

func Open() (*DB, error) {
	db := &DB{
		user: &userTable{table: make(map[string]*user.User)},
		outcome: &outcomeTable{
			departments: make(map[int]*outcome.Department),
			outcomes:    make(map[int]*outcome.ProgramOutcome),
		},
		course: &courseTable{
			templates:   make(map[int]*course.Template),
			instances:   make(map[int]*course.Instance),
			los:         make(map[int]*course.LearningOutcome),
			assessments: make(map[int]*course.Assessment),
			edgesA:      make(map[int]*course.AssessmentLOContribution),
			edgesB:      make(map[int]*course.LOPOContribution),
			enrollments: make(map[int]map[string]bool),
		},
		grade: &gradeTable{table: make(map[gradeKey]*grade.AssessmentGrade)},
	}
	return db, nil
}
