package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/makazi/core/room"
)

type roomApi struct {
	svc      room.ServiceInterface
	validate *validator.Validate
}

func registerRoomAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc room.ServiceInterface, validate *validator.Validate) {
	api := roomApi{svc: svc, validate: validate}

	rg := g.Group("/rooms", jwt)
	rg.POST("", api.create, adminMiddleware())
	rg.GET("", api.query, staffMiddleware())
	rg.POST("/reconcile", api.reconcile, adminMiddleware())
	rg.GET("/:id", api.retrieve, staffMiddleware())
	rg.PUT("/:id/occupancy", api.setOccupied, adminMiddleware())
	rg.DELETE("/:id", api.destroy, adminMiddleware())
}

func (api *roomApi) create(ctx echo.Context) error {
	var data room.NewRoom
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRoom")
	}
	if err := data.Validate(api.validate, api.svc); err != nil {
		return err
	}

	rm, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating room")
	}
	return ctx.JSON(http.StatusCreated, rm)
}

func (api *roomApi) query(ctx echo.Context) error {
	filter := new(room.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []room.Room{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	rooms, err := api.svc.Query(filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying rooms")
	}
	if rooms == nil {
		rooms = []room.Room{}
	}
	return ctx.JSON(http.StatusOK, rooms)
}

func (api *roomApi) retrieve(ctx echo.Context) error {
	rm, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rm)
}

// setOccupied is the administrative override; normal occupancy movement only
// happens through admissions, transfers and removals.
func (api *roomApi) setOccupied(ctx echo.Context) error {
	var data room.SetOccupied
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetOccupied")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rm, err := api.svc.SetOccupied(ctx.Param("id"), *data.Occupied)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rm)
}

func (api *roomApi) reconcile(ctx echo.Context) error {
	rooms, err := api.svc.Reconcile()
	if err != nil {
		return errors.Wrap(err, "reconciling room occupancy")
	}
	if rooms == nil {
		rooms = []room.Room{}
	}
	return ctx.JSON(http.StatusOK, ReconcileResponse{Corrected: rooms})
}

func (api *roomApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// ReconcileResponse lists the rooms whose occupancy counters drifted and were
// corrected.
type ReconcileResponse struct {
	Corrected []room.Room `json:"corrected"`
}
