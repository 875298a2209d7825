package complaint

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/makazi/core"
	"github.com/trezcool/makazi/core/student"
	"github.com/trezcool/makazi/core/user"
)

var (
	nowFunc = time.Now // mockable

	// errors
	ErrNotFound          = errors.New("complaint not found")
	ErrAlreadySettled    = errors.New("complaint has already been settled")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotPermitted      = errors.New("not enough rights to act on this complaint")
)

type (
	Repository interface {
		CreateComplaint(ctx context.Context, c Complaint) (Complaint, error)
		GetComplaintByID(ctx context.Context, id string) (Complaint, error)
		QueryComplaints(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Complaint, error)
		UpdateComplaint(ctx context.Context, c Complaint) (Complaint, error)
	}

	StudentDirectory interface {
		GetByID(id string) (student.Student, error)
	}

	ServiceInterface interface {
		File(nc NewComplaint) (Complaint, error)
		GetByID(id string) (Complaint, error)
		Query(filter *QueryFilter, ordering []core.DBOrdering) ([]Complaint, error)
		Advance(id string, p Progress, actor user.User) (Complaint, error)
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

func (svc *Service) File(nc NewComplaint) (Complaint, error) {
	stu, err := svc.students.GetByID(nc.StudentID)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return Complaint{}, core.NewValidationError(err, core.FieldError{Field: "student_id", Error: err.Error()})
		}
		return Complaint{}, errors.Wrap(err, "finding student")
	}

	now := nowFunc().UTC()
	c := Complaint{
		StudentID:   stu.ID,
		Block:       stu.Block,
		Category:    nc.Category,
		Description: nc.Description,
		Status:      StatusOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateComplaint(context.Background(), c)
}

func (svc *Service) GetByID(id string) (Complaint, error) {
	return svc.repo.GetComplaintByID(context.Background(), id)
}

func (svc *Service) Query(filter *QueryFilter, ordering []core.DBOrdering) ([]Complaint, error) {
	return svc.repo.QueryComplaints(context.Background(), filter, ordering)
}

// Advance moves a complaint along open -> in_progress -> resolved/dismissed.
// Settled complaints never change again.
func (svc *Service) Advance(id string, p Progress, actor user.User) (Complaint, error) {
	ctx := context.Background()

	c, err := svc.repo.GetComplaintByID(ctx, id)
	if err != nil {
		return Complaint{}, err
	}
	if c.IsTerminal() {
		return Complaint{}, ErrAlreadySettled
	}
	if !actor.ManagesBlock(c.Block) {
		return Complaint{}, ErrNotPermitted
	}
	// in_progress cannot loop back onto itself
	if c.Status == StatusInProgress && p.Status == StatusInProgress {
		return Complaint{}, ErrInvalidTransition
	}

	c.Status = p.Status
	if c.IsTerminal() {
		c.Resolution = p.Resolution
		c.ResolvedBy = actorRef(actor)
	}
	c.UpdatedAt = nowFunc().UTC()
	return svc.repo.UpdateComplaint(ctx, c)
}

func actorRef(actor user.User) string {
	if s := strings.TrimSpace(actor.Username); s != "" {
		return s
	}
	return actor.Email
}
