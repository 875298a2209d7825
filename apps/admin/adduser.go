package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/makazi/core"
	"github.com/trezcool/makazi/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(uname, email, pwd string, isAdmin bool) error {
	var usr user.User
	var err error
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	lookup := uname
	if lookup == "" {
		lookup = email
	}

	now := time.Now().UTC()
	exists := true
	if usr, err = cli.usrRepo.GetUserByUsernameOrEmail(ctx, lookup); err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return err
		}
		exists = false
		usr = user.User{
			Username:  uname,
			Email:     email,
			CreatedAt: now,
		}
	}
	if uname != "" {
		usr.Username = uname
	}
	if email != "" {
		usr.Email = email
	}
	if isAdmin {
		usr.Roles = user.AllRoles
	}
	usr.IsActive = true
	usr.UpdatedAt = now
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	if exists {
		isActive := true
		_, err = cli.usrRepo.UpdateUser(ctx, usr, &isActive)
	} else {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	}
	return err
}
