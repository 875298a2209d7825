package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/makazi/core/mess"
)

type messApi struct {
	svc      mess.ServiceInterface
	validate *validator.Validate
}

func registerMessAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc mess.ServiceInterface, validate *validator.Validate) {
	api := messApi{svc: svc, validate: validate}

	mg := g.Group("/mess/menu", jwt)
	mg.PUT("", api.set, staffMiddleware())
	mg.GET("", api.query)
	mg.DELETE("/:id", api.destroy, staffMiddleware())
}

// set creates or overwrites the menu for one (block, weekday, meal) slot.
func (api *messApi) set(ctx echo.Context) error {
	var data mess.SetMenuEntry
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetMenuEntry")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	actor, err := contextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	if !actor.ManagesBlock(data.Block) {
		return errHttpForbidden
	}

	updatedBy := actor.Username
	if updatedBy == "" {
		updatedBy = actor.Email
	}

	e, err := api.svc.Set(data, updatedBy)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *messApi) query(ctx echo.Context) error {
	filter := new(mess.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []mess.MenuEntry{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	entries, err := api.svc.Query(filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying mess menu")
	}
	if entries == nil {
		entries = []mess.MenuEntry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}

func (api *messApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
