package student

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/makazi/core"
	"github.com/trezcool/makazi/core/room"
)

var (
	nowFunc = time.Now // mockable

	// errors
	ErrNotFound          = errors.New("student not found")
	ErrStudentRemoved    = errors.New("student has been removed")
	ErrRoomBlockMismatch = errors.New("room does not belong to the student's block")
)

type (
	Repository interface {
		CreateStudent(ctx context.Context, stu Student) (Student, error)
		GetStudentByID(ctx context.Context, id string) (Student, error)
		GetStudentByCode(ctx context.Context, code string) (Student, error)
		QueryStudents(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error)
		// UpdateStudent overwrites the student's mutable fields (profile,
		// status, room assignment); Code and CreatedAt are immutable.
		UpdateStudent(ctx context.Context, stu Student) (Student, error)
		// UsedBeds returns the bed numbers held by active students of a room.
		UsedBeds(ctx context.Context, roomID string) ([]int, error)
		// NextStudentSeq atomically increments and returns the per-(year, block)
		// admission counter. Sequences are monotonic and never reused.
		NextStudentSeq(ctx context.Context, year int, block string) (int, error)
	}

	ServiceInterface interface {
		Admit(ns NewStudent) (Student, error)
		GetByID(id string) (Student, error)
		GetByCode(code string) (Student, error)
		Query(filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error)
		Update(id string, us UpdateStudent) (Student, error)
		TransferRoom(id string, tr TransferRequest) (Student, error)
		Remove(id string) (Student, error)
	}

	Service struct {
		repo       Repository
		rooms      room.ServiceInterface
		mailSvc    core.EmailService
		codePrefix string
		locks      *roomLocks
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(conf *core.Config, repo Repository, rooms room.ServiceInterface, mailSvc core.EmailService) *Service {
	return &Service{
		repo:       repo,
		rooms:      rooms,
		mailSvc:    mailSvc,
		codePrefix: conf.StudentCodePrefix,
		locks:      newRoomLocks(),
	}
}

// Admit registers a new student and, when a room is supplied, allocates a bed
// and bumps the room's occupancy counter as one logical step: if any part of
// the allocation fails the student record is not created, and if creation
// itself fails the counter increment is compensated.
func (svc *Service) Admit(ns NewStudent) (Student, error) {
	ctx := context.Background()
	now := nowFunc().UTC()

	admissionDate := core.Day(now)
	if ns.AdmissionDate != "" {
		var err error
		if admissionDate, err = core.ParseDay(ns.AdmissionDate); err != nil {
			return Student{}, core.NewValidationError(err, core.FieldError{Field: "admission_date", Error: "invalid date"})
		}
	}

	code, err := svc.nextCode(ctx, admissionDate.Year(), ns.Block)
	if err != nil {
		return Student{}, errors.Wrap(err, "generating student code")
	}

	stu := Student{
		Code:          code,
		Name:          ns.Name,
		Email:         ns.Email,
		Phone:         ns.Phone,
		GuardianName:  ns.GuardianName,
		GuardianPhone: ns.GuardianPhone,
		Block:         ns.Block,
		Status:        StatusActive,
		AdmissionDate: admissionDate,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if ns.RoomID == "" {
		stu, err = svc.repo.CreateStudent(ctx, stu)
		if err != nil {
			return Student{}, err
		}
		svc.sendWelcome(stu)
		return stu, nil
	}

	unlock := svc.locks.Lock(ns.RoomID)
	defer unlock()

	rm, err := svc.rooms.GetByID(ns.RoomID)
	if err != nil {
		return Student{}, err
	}
	if rm.Block != ns.Block {
		return Student{}, ErrRoomBlockMismatch
	}

	bed, err := svc.resolveBed(ctx, rm, ns.BedNumber)
	if err != nil {
		return Student{}, err
	}

	if _, err = svc.rooms.IncrementOccupied(rm.ID, +1); err != nil {
		return Student{}, err
	}

	stu.RoomID = rm.ID
	stu.RoomNumber = rm.Number
	stu.BedNumber = bed

	stu, err = svc.repo.CreateStudent(ctx, stu)
	if err != nil {
		// roll the counter back so the failed admission leaves no trace
		if _, derr := svc.rooms.IncrementOccupied(rm.ID, -1); derr != nil {
			return Student{}, core.NewShutdownError(fmt.Sprintf(
				"occupancy counter for room %s left inconsistent after failed admission: %v", rm.ID, derr))
		}
		return Student{}, err
	}

	svc.sendWelcome(stu)
	return stu, nil
}

func (svc *Service) GetByID(id string) (Student, error) {
	return svc.repo.GetStudentByID(context.Background(), id)
}

func (svc *Service) GetByCode(code string) (Student, error) {
	return svc.repo.GetStudentByCode(context.Background(), core.CleanString(code))
}

func (svc *Service) Query(filter *QueryFilter, ordering []core.DBOrdering) ([]Student, error) {
	return svc.repo.QueryStudents(context.Background(), filter, ordering)
}

// Update edits profile fields only; occupancy is never touched here.
func (svc *Service) Update(id string, us UpdateStudent) (Student, error) {
	ctx := context.Background()

	stu, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}

	stu.Name = us.Name
	stu.Email = us.Email
	stu.Phone = us.Phone
	stu.GuardianName = us.GuardianName
	stu.GuardianPhone = us.GuardianPhone
	stu.UpdatedAt = nowFunc().UTC()
	return svc.repo.UpdateStudent(ctx, stu)
}

// TransferRoom moves a student to another room: a bed is resolved against the
// destination's current occupants, the destination counter is incremented
// first, the student record is rewritten, and only then is the source counter
// decremented.
func (svc *Service) TransferRoom(id string, tr TransferRequest) (Student, error) {
	ctx := context.Background()

	stu, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if !stu.IsActive() {
		return Student{}, ErrStudentRemoved
	}

	unlock := svc.locks.LockPair(tr.RoomID, stu.RoomID)
	defer unlock()

	// re-read under the locks; a concurrent Remove may have won
	if stu, err = svc.repo.GetStudentByID(ctx, id); err != nil {
		return Student{}, err
	}
	if !stu.IsActive() {
		return Student{}, ErrStudentRemoved
	}

	dest, err := svc.rooms.GetByID(tr.RoomID)
	if err != nil {
		return Student{}, err
	}
	if dest.Block != stu.Block {
		return Student{}, ErrRoomBlockMismatch
	}

	sameRoom := stu.RoomID == dest.ID

	used, err := svc.repo.UsedBeds(ctx, dest.ID)
	if err != nil {
		return Student{}, errors.Wrap(err, "listing used beds")
	}
	if sameRoom {
		used = withoutBed(used, stu.BedNumber)
	}

	bed, err := room.ResolveBed(dest.Capacity, used, tr.BedNumber)
	if err != nil {
		return Student{}, err
	}

	if sameRoom {
		stu.BedNumber = bed
		stu.UpdatedAt = nowFunc().UTC()
		return svc.repo.UpdateStudent(ctx, stu)
	}

	if _, err = svc.rooms.IncrementOccupied(dest.ID, +1); err != nil {
		return Student{}, err
	}

	oldRoomID := stu.RoomID
	stu.RoomID = dest.ID
	stu.RoomNumber = dest.Number
	stu.BedNumber = bed
	stu.UpdatedAt = nowFunc().UTC()

	stu, err = svc.repo.UpdateStudent(ctx, stu)
	if err != nil {
		if _, derr := svc.rooms.IncrementOccupied(dest.ID, -1); derr != nil {
			return Student{}, core.NewShutdownError(fmt.Sprintf(
				"occupancy counter for room %s left inconsistent after failed transfer: %v", dest.ID, derr))
		}
		return Student{}, err
	}

	if oldRoomID != "" {
		if _, err = svc.rooms.IncrementOccupied(oldRoomID, -1); err != nil {
			return Student{}, errors.Wrapf(err, "releasing room %s after transfer", oldRoomID)
		}
	}
	return stu, nil
}

// Remove marks the student removed, clears the room assignment and decrements
// the room's counter exactly once. A second call is a clean ErrStudentRemoved
// and never touches the counter again.
func (svc *Service) Remove(id string) (Student, error) {
	ctx := context.Background()

	stu, err := svc.repo.GetStudentByID(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if !stu.IsActive() {
		return Student{}, ErrStudentRemoved
	}

	roomID := stu.RoomID
	if roomID != "" {
		unlock := svc.locks.Lock(roomID)
		defer unlock()

		// re-read under the lock; a concurrent Remove may have won
		if stu, err = svc.repo.GetStudentByID(ctx, id); err != nil {
			return Student{}, err
		}
		if !stu.IsActive() {
			return Student{}, ErrStudentRemoved
		}
	}

	stu.Status = StatusRemoved
	stu.RoomID = ""
	stu.RoomNumber = ""
	stu.BedNumber = 0
	stu.UpdatedAt = nowFunc().UTC()

	stu, err = svc.repo.UpdateStudent(ctx, stu)
	if err != nil {
		return Student{}, err
	}

	if roomID != "" {
		if _, err = svc.rooms.IncrementOccupied(roomID, -1); err != nil {
			return Student{}, errors.Wrapf(err, "releasing room %s after removal", roomID)
		}
	}
	return stu, nil
}

func (svc *Service) nextCode(ctx context.Context, year int, block string) (string, error) {
	seq, err := svc.repo.NextStudentSeq(ctx, year, block)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%02d%s%03d", svc.codePrefix, year%100, block, seq), nil
}

func (svc *Service) resolveBed(ctx context.Context, rm room.Room, preferred int) (int, error) {
	used, err := svc.repo.UsedBeds(ctx, rm.ID)
	if err != nil {
		return 0, errors.Wrap(err, "listing used beds")
	}
	return room.ResolveBed(rm.Capacity, used, preferred)
}

func (svc *Service) sendWelcome(stu Student) {
	if svc.mailSvc == nil || stu.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: stu.Name, Address: stu.Email}},
		Subject:      "Welcome! Your admission is confirmed",
		TemplateName: "student-welcome",
		TemplateData: stu,
	})
}

func withoutBed(beds []int, bed int) []int {
	out := beds[:0]
	for _, b := range beds {
		if b != bed {
			out = append(out, b)
		}
	}
	return out
}
