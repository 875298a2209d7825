package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/makazi/core/student"
)

type studentApi struct {
	svc      student.ServiceInterface
	validate *validator.Validate
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc student.ServiceInterface, validate *validator.Validate) {
	api := studentApi{svc: svc, validate: validate}

	sg := g.Group("/students", jwt, staffMiddleware())
	sg.POST("", api.admit)
	sg.GET("", api.query)
	sg.GET("/:id", api.retrieve)
	sg.PUT("/:id", api.update)
	sg.POST("/:id/transfer", api.transfer)
	sg.DELETE("/:id", api.remove)
}

func (api *studentApi) admit(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	// wardens can only admit into their own block
	actor, err := contextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	if !actor.ManagesBlock(data.Block) {
		return errHttpForbidden
	}

	stu, err := api.svc.Admit(data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, stu)
}

func (api *studentApi) query(ctx echo.Context) error {
	filter := new(student.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []student.Student{})
	}
	filter.Clean()

	// wardens only see their own block
	actor, err := contextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	if actor.IsWarden() && !actor.IsAdmin() {
		filter.Block = actor.Block
	}

	ordering := new(Ordering)
	ordering.Bind(ctx)

	students, err := api.svc.Query(filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	if students == nil {
		students = []student.Student{}
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	stu, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stu)
}

func (api *studentApi) update(ctx echo.Context) error {
	stu, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}

	var data student.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err := data.Validate(stu, api.validate); err != nil {
		return err
	}

	stu, err = api.svc.Update(stu.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stu)
}

func (api *studentApi) transfer(ctx echo.Context) error {
	var data student.TransferRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TransferRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	stu, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}

	// wardens can only move students of their own block
	actor, err := contextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	if !actor.ManagesBlock(stu.Block) {
		return errHttpForbidden
	}

	stu, err = api.svc.TransferRoom(stu.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stu)
}

// remove marks the student removed and frees their bed; the record itself
// stays for the books.
func (api *studentApi) remove(ctx echo.Context) error {
	stu, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}

	// wardens can only remove students of their own block
	actor, err := contextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	if !actor.ManagesBlock(stu.Block) {
		return errHttpForbidden
	}

	stu, err = api.svc.Remove(stu.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stu)
}
