package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/makazi/core/visitor"
)

type visitorApi struct {
	svc      visitor.ServiceInterface
	validate *validator.Validate
}

func registerVisitorAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc visitor.ServiceInterface, validate *validator.Validate) {
	api := visitorApi{svc: svc, validate: validate}

	vg := g.Group("/visits", jwt, staffMiddleware())
	vg.POST("", api.checkIn)
	vg.GET("", api.query)
	vg.GET("/:id", api.retrieve)
	vg.POST("/:id/checkout", api.checkOut)
}

func (api *visitorApi) checkIn(ctx echo.Context) error {
	var data visitor.NewVisit
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewVisit")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	v, err := api.svc.CheckIn(data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, v)
}

func (api *visitorApi) query(ctx echo.Context) error {
	filter := new(visitor.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []visitor.Visit{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	visits, err := api.svc.Query(filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying visits")
	}
	if visits == nil {
		visits = []visitor.Visit{}
	}
	return ctx.JSON(http.StatusOK, visits)
}

func (api *visitorApi) retrieve(ctx echo.Context) error {
	v, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, v)
}

func (api *visitorApi) checkOut(ctx echo.Context) error {
	v, err := api.svc.CheckOut(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, v)
}
