package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/makazi/core/leave"
)

type leaveApi struct {
	svc      leave.ServiceInterface
	validate *validator.Validate
}

func registerLeaveAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc leave.ServiceInterface, validate *validator.Validate) {
	api := leaveApi{svc: svc, validate: validate}

	lg := g.Group("/leaves", jwt)
	lg.POST("", api.request)
	lg.GET("", api.query, staffMiddleware())
	lg.GET("/:id", api.retrieve)
	lg.PUT("/:id/decision", api.decide, staffMiddleware())
}

func (api *leaveApi) request(ctx echo.Context) error {
	var data leave.NewLeave
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLeave")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	l, err := api.svc.Request(data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, l)
}

func (api *leaveApi) query(ctx echo.Context) error {
	filter := new(leave.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []leave.Leave{})
	}
	filter.Clean()

	actor, err := contextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	if actor.IsWarden() && !actor.IsAdmin() {
		filter.Block = actor.Block
	}

	ordering := new(Ordering)
	ordering.Bind(ctx)

	leaves, err := api.svc.Query(filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying leaves")
	}
	if leaves == nil {
		leaves = []leave.Leave{}
	}
	return ctx.JSON(http.StatusOK, leaves)
}

func (api *leaveApi) retrieve(ctx echo.Context) error {
	l, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, l)
}

// decide settles a pending request; approved and rejected are terminal.
func (api *leaveApi) decide(ctx echo.Context) error {
	var data leave.Decision
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Decision")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := contextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	l, err := api.svc.Decide(ctx.Param("id"), data, actor)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, l)
}
