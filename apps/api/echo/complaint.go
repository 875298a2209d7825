package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/makazi/core/complaint"
)

type complaintApi struct {
	svc      complaint.ServiceInterface
	validate *validator.Validate
}

func registerComplaintAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc complaint.ServiceInterface, validate *validator.Validate) {
	api := complaintApi{svc: svc, validate: validate}

	cg := g.Group("/complaints", jwt)
	cg.POST("", api.file)
	cg.GET("", api.query, staffMiddleware())
	cg.GET("/:id", api.retrieve)
	cg.PUT("/:id/progress", api.advance, staffMiddleware())
}

func (api *complaintApi) file(ctx echo.Context) error {
	var data complaint.NewComplaint
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewComplaint")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.File(data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *complaintApi) query(ctx echo.Context) error {
	filter := new(complaint.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []complaint.Complaint{})
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

	complaints, err := api.svc.Query(filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying complaints")
	}
	if complaints == nil {
		complaints = []complaint.Complaint{}
	}
	return ctx.JSON(http.StatusOK, complaints)
}

func (api *complaintApi) retrieve(ctx echo.Context) error {
	c, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *complaintApi) advance(ctx echo.Context) error {
	var data complaint.Progress
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Progress")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := contextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	c, err := api.svc.Advance(ctx.Param("id"), data, actor)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}
