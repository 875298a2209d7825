package visitor

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/makazi/core"
	"github.com/trezcool/makazi/core/student"
)

var (
	nowFunc = time.Now // mockable

	// errors
	ErrNotFound          = errors.New("visit not found")
	ErrAlreadyCheckedOut = errors.New("visitor has already checked out")
)

type (
	Repository interface {
		CreateVisit(ctx context.Context, v Visit) (Visit, error)
		GetVisitByID(ctx context.Context, id string) (Visit, error)
		QueryVisits(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Visit, error)
		// SetCheckedOut stamps the checkout time only while the visit is still
		// open, ErrAlreadyCheckedOut otherwise.
		SetCheckedOut(ctx context.Context, id string, at time.Time) (Visit, error)
	}

	StudentDirectory interface {
		GetByID(id string) (student.Student, error)
	}

	ServiceInterface interface {
		CheckIn(nv NewVisit) (Visit, error)
		GetByID(id string) (Visit, error)
		Query(filter *QueryFilter, ordering []core.DBOrdering) ([]Visit, error)
		CheckOut(id string) (Visit, error)
	}

	Service struct {
		repo     Repository
		students StudentDirectory
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, students StudentDirectory) *Service {
	return &Service{repo: repo, students: students}
}

func (svc *Service) CheckIn(nv NewVisit) (Visit, error) {
	stu, err := svc.students.GetByID(nv.StudentID)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return Visit{}, core.NewValidationError(err, core.FieldError{Field: "student_id", Error: err.Error()})
		}
		return Visit{}, errors.Wrap(err, "finding student")
	}
	if !stu.IsActive() {
		return Visit{}, core.NewValidationError(student.ErrStudentRemoved,
			core.FieldError{Field: "student_id", Error: student.ErrStudentRemoved.Error()})
	}

	now := nowFunc().UTC()
	v := Visit{
		StudentID:   stu.ID,
		Name:        nv.Name,
		Relation:    nv.Relation,
		Phone:       nv.Phone,
		CheckedInAt: now,
		CreatedAt:   now,
	}
	return svc.repo.CreateVisit(context.Background(), v)
}

func (svc *Service) GetByID(id string) (Visit, error) {
	return svc.repo.GetVisitByID(context.Background(), id)
}

func (svc *Service) Query(filter *QueryFilter, ordering []core.DBOrdering) ([]Visit, error) {
	return svc.repo.QueryVisits(context.Background(), filter, ordering)
}

// CheckOut closes an open visit; a second checkout is ErrAlreadyCheckedOut.
func (svc *Service) CheckOut(id string) (Visit, error) {
	return svc.repo.SetCheckedOut(context.Background(), id, nowFunc().UTC())
}
