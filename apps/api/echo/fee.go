package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/makazi/core/fee"
)

type feeApi struct {
	svc      fee.ServiceInterface
	validate *validator.Validate
}

func registerFeeAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc fee.ServiceInterface, validate *validator.Validate) {
	api := feeApi{svc: svc, validate: validate}

	fg := g.Group("/fees", jwt)
	fg.POST("", api.create, adminMiddleware())
	fg.GET("", api.query, staffMiddleware())
	fg.POST("/sweep-overdue", api.sweepOverdue, adminMiddleware())
	fg.GET("/:id", api.retrieve, staffMiddleware())
	fg.PUT("/:id", api.update, adminMiddleware())
	fg.POST("/:id/payments", api.recordPayment, adminMiddleware())
	fg.DELETE("/:id", api.destroy, adminMiddleware())
}

func (api *feeApi) create(ctx echo.Context) error {
	var data fee.NewFee
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewFee")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	f, err := api.svc.Create(data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, f)
}

func (api *feeApi) query(ctx echo.Context) error {
	filter := new(fee.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []fee.Fee{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	fees, err := api.svc.Query(filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying fees")
	}
	if fees == nil {
		fees = []fee.Fee{}
	}
	return ctx.JSON(http.StatusOK, fees)
}

func (api *feeApi) retrieve(ctx echo.Context) error {
	f, err := api.svc.GetByID(ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, f)
}

func (api *feeApi) update(ctx echo.Context) error {
	var data fee.UpdateFee
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateFee")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	f, err := api.svc.Update(ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, f)
}

func (api *feeApi) recordPayment(ctx echo.Context) error {
	var data fee.Payment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Payment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	f, err := api.svc.RecordPayment(ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, f)
}

func (api *feeApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *feeApi) sweepOverdue(ctx echo.Context) error {
	n, err := api.svc.SweepOverdue()
	if err != nil {
		return errors.Wrap(err, "sweeping overdue fees")
	}
	return ctx.JSON(http.StatusOK, SweepResponse{Marked: n})
}

// SweepResponse reports how many pending fees were flipped to overdue.
type SweepResponse struct {
	Marked int `json:"marked"`
}
