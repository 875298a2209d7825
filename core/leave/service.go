package leave

import (
	"context"
	"net/mail"
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
	ErrNotFound       = errors.New("leave request not found")
	ErrAlreadyDecided = errors.New("leave request has already been decided")
	ErrInvalidPeriod  = errors.New("end date cannot precede start date")
	ErrNotPermitted   = errors.New("not enough rights to decide on this request")
)

type (
	Repository interface {
		CreateLeave(ctx context.Context, l Leave) (Leave, error)
		GetLeaveByID(ctx context.Context, id string) (Leave, error)
		QueryLeaves(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Leave, error)
		// UpdateLeaveStatus settles a request conditionally: the write only
		// happens while the stored status is still pending, ErrAlreadyDecided
		// otherwise. Two racing deciders cannot both win.
		UpdateLeaveStatus(ctx context.Context, id, status, decidedBy string, decidedAt time.Time) (Leave, error)
	}

	// StudentDirectory resolves the requesting student.
	StudentDirectory interface {
		GetByID(id string) (student.Student, error)
	}

	ServiceInterface interface {
		Request(nl NewLeave) (Leave, error)
		GetByID(id string) (Leave, error)
		Query(filter *QueryFilter, ordering []core.DBOrdering) ([]Leave, error)
		Decide(id string, d Decision, actor user.User) (Leave, error)
	}

	Service struct {
		repo     Repository
		students StudentDirectory
		mailSvc  core.EmailService
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(repo Repository, students StudentDirectory, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, students: students, mailSvc: mailSvc}
}

func (svc *Service) Request(nl NewLeave) (Leave, error) {
	ctx := context.Background()

	stu, err := svc.students.GetByID(nl.StudentID)
	if err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return Leave{}, core.NewValidationError(err, core.FieldError{Field: "student_id", Error: err.Error()})
		}
		return Leave{}, errors.Wrap(err, "finding student")
	}
	if !stu.IsActive() {
		return Leave{}, core.NewValidationError(student.ErrStudentRemoved,
			core.FieldError{Field: "student_id", Error: student.ErrStudentRemoved.Error()})
	}

	start, err := core.ParseDay(nl.StartDate)
	if err != nil {
		return Leave{}, core.NewValidationError(err, core.FieldError{Field: "start_date", Error: "invalid date"})
	}
	end, err := core.ParseDay(nl.EndDate)
	if err != nil {
		return Leave{}, core.NewValidationError(err, core.FieldError{Field: "end_date", Error: "invalid date"})
	}
	if end.Before(start) {
		return Leave{}, core.NewValidationError(ErrInvalidPeriod, core.FieldError{Field: "end_date", Error: ErrInvalidPeriod.Error()})
	}

	now := nowFunc().UTC()
	l := Leave{
		StudentID: stu.ID,
		Block:     stu.Block,
		StartDate: start,
		EndDate:   end,
		Reason:    nl.Reason,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateLeave(ctx, l)
}

func (svc *Service) GetByID(id string) (Leave, error) {
	return svc.repo.GetLeaveByID(context.Background(), id)
}

func (svc *Service) Query(filter *QueryFilter, ordering []core.DBOrdering) ([]Leave, error) {
	return svc.repo.QueryLeaves(context.Background(), filter, ordering)
}

// Decide settles a pending request. Admins may decide on any block, wardens
// only on their own; approved and rejected are terminal either way.
func (svc *Service) Decide(id string, d Decision, actor user.User) (Leave, error) {
	ctx := context.Background()

	l, err := svc.repo.GetLeaveByID(ctx, id)
	if err != nil {
		return Leave{}, err
	}
	if !l.IsPending() {
		return Leave{}, ErrAlreadyDecided
	}
	if !actor.ManagesBlock(l.Block) {
		return Leave{}, ErrNotPermitted
	}

	decidedBy := actor.Username
	if decidedBy == "" {
		decidedBy = actor.Email
	}
	l, err = svc.repo.UpdateLeaveStatus(ctx, id, d.Status, decidedBy, nowFunc().UTC())
	if err != nil {
		return Leave{}, err
	}

	svc.sendDecisionMail(l)
	return l, nil
}

func (svc *Service) sendDecisionMail(l Leave) {
	if svc.mailSvc == nil {
		return
	}
	stu, err := svc.students.GetByID(l.StudentID)
	if err != nil || stu.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: stu.Name, Address: stu.Email}},
		Subject:      "Your leave request has been " + l.Status,
		TemplateName: "leave-decision",
		TemplateData: struct {
			Name, Decision, DecidedBy, StartDate, EndDate string
		}{
			Name:      stu.Name,
			Decision:  strings.ToUpper(l.Status),
			DecidedBy: l.DecidedBy,
			StartDate: l.StartDate.Format(core.DateFormat),
			EndDate:   l.EndDate.Format(core.DateFormat),
		},
	})
}
