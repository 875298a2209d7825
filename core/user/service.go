package user

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/makazi/core"
)

var (
	// errors
	ErrNotFound       = errors.New("user not found")
	ErrEmailExists    = errors.New("a user with this email already exists")
	ErrUsernameExists = errors.New("a user with this username already exists")
	ErrBlockHasWarden = errors.New("this block already has a warden")
)

type (
	Repository interface {
		CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...User) error
		// CheckWardenBlockUniqueness enforces at most one active warden per block.
		CheckWardenBlockUniqueness(ctx context.Context, block string, excludedUsers ...User) error
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByUsername(ctx context.Context, username string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		GetUserByUsernameOrEmail(ctx context.Context, username string) (User, error)
		// FilterUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.Name, User.Username or User.Email.
		FilterUsers(ctx context.Context, filter QueryFilter) ([]User, error)
		UpdateUser(ctx context.Context, usr User, isActive *bool) (User, error)
		UpdateLastLogin(ctx context.Context, id string, at time.Time) error
		DeleteUsersByID(ctx context.Context, ids ...string) error
	}

	ServiceInterface interface {
		CheckUniqueness(uname, email string, exclUsers ...User) error
		Create(nu NewUser) (User, error)
		GetByID(id string) (User, error)
		GetByUsername(uname string) (User, error)
		GetByEmail(email string) (User, error)
		GetByUsernameOrEmail(uname string) (User, error)
		Filter(filter QueryFilter) ([]User, error)
		Update(id string, uu UpdateUser) (User, error)
		SetLastLogin(usr User) error
		Delete(ids ...string) error
		RequestPasswordReset(email string) error
		ResetPassword(rp ResetUserPassword) error
	}

	Service struct {
		repo    Repository
		mailSvc core.EmailService
	}
)

var _ ServiceInterface = (*Service)(nil)

func NewService(conf *core.Config, repo Repository, mailSvc core.EmailService) *Service {
	secretKey = conf.SecretKey
	passwordResetTimeoutDelta = conf.PasswordResetTimeoutDelta
	return &Service{repo: repo, mailSvc: mailSvc}
}

func (svc *Service) CheckUniqueness(uname, email string, exclUsers ...User) error {
	if err := svc.repo.CheckUsernameUniqueness(context.Background(), uname, email, exclUsers...); err != nil {
		var field string
		switch errors.Cause(err) {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *Service) Create(nu NewUser) (User, error) {
	ctx := context.Background()

	if err := svc.checkWardenBlock(ctx, nu.Roles, nu.Block); err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	usr := User{
		Name:      nu.Name,
		Username:  nu.Username,
		Email:     nu.Email,
		IsActive:  true,
		Roles:     nu.Roles,
		Block:     nu.Block,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, err
	}
	return svc.repo.CreateUser(ctx, usr)
}

func (svc *Service) GetByID(id string) (User, error) {
	return svc.repo.GetUserByID(context.Background(), id)
}

func (svc *Service) GetByUsername(uname string) (User, error) {
	return svc.repo.GetUserByUsername(context.Background(), core.CleanString(uname, true /* lower */))
}

func (svc *Service) GetByEmail(email string) (User, error) {
	return svc.repo.GetUserByEmail(context.Background(), core.CleanString(email, true /* lower */))
}

func (svc *Service) GetByUsernameOrEmail(uname string) (User, error) {
	return svc.repo.GetUserByUsernameOrEmail(context.Background(), core.CleanString(uname, true /* lower */))
}

func (svc *Service) Filter(filter QueryFilter) ([]User, error) {
	return svc.repo.FilterUsers(context.Background(), filter)
}

func (svc *Service) Update(id string, uu UpdateUser) (User, error) {
	ctx := context.Background()

	if err := svc.checkWardenBlock(ctx, uu.Roles, uu.Block, User{ID: id}); err != nil {
		return User{}, err
	}

	usr := User{
		ID:        id,
		Name:      uu.Name,
		Username:  uu.Username,
		Email:     uu.Email,
		Roles:     uu.Roles,
		Block:     uu.Block,
		UpdatedAt: time.Now().UTC(),
	}
	if uu.Password != "" {
		if err := usr.SetPassword(uu.Password); err != nil {
			return User{}, err
		}
	}
	return svc.repo.UpdateUser(ctx, usr, uu.IsActive)
}

func (svc *Service) SetLastLogin(usr User) error {
	return svc.repo.UpdateLastLogin(context.Background(), usr.ID, time.Now().UTC())
}

func (svc *Service) Delete(ids ...string) error {
	return svc.repo.DeleteUsersByID(context.Background(), ids...)
}

// RequestPasswordReset emails a signed reset link to the account's address.
func (svc *Service) RequestPasswordReset(email string) error {
	usr, err := svc.GetByEmail(email)
	if err != nil {
		return err
	}
	go svc.sendPasswordResetMail(usr)
	return nil
}

// ResetPassword sets a new password after checking the (uid, token) pair
// issued by RequestPasswordReset. Tokens are single-use: hashing the new
// password invalidates them.
func (svc *Service) ResetPassword(rp ResetUserPassword) error {
	ctx := context.Background()

	id, err := decodeUID(rp.UID)
	if err != nil {
		return core.NewValidationError(errInvalidToken, core.FieldError{Field: "uid", Error: errInvalidToken.Error()})
	}
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		return err
	}
	if err = verifyToken(usr, rp.Token); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "token", Error: err.Error()})
	}

	if err = usr.SetPassword(rp.Password); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateUser(ctx, usr, nil)
	return err
}

// checkWardenBlock requires a block on warden accounts and keeps one warden
// per block.
func (svc *Service) checkWardenBlock(ctx context.Context, roles []string, block string, exclUsers ...User) error {
	probe := User{Roles: roles}
	if !probe.IsWarden() {
		return nil
	}
	if block == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "block", Error: "a warden must be assigned a block"})
	}
	if err := svc.repo.CheckWardenBlockUniqueness(ctx, block, exclUsers...); err != nil {
		if errors.Cause(err) == ErrBlockHasWarden {
			return core.NewValidationError(err, core.FieldError{Field: "block", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) sendPasswordResetMail(usr User) {
	if svc.mailSvc == nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Password reset",
		TemplateName: "password-reset",
		TemplateData: struct {
			Name, UID, Token string
		}{
			Name:  usr.Name,
			UID:   EncodeUID(usr),
			Token: makeToken(usr),
		},
	})
}
