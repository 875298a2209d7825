package echoapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/makazi/core"
	"github.com/trezcool/makazi/core/attendance"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type attendanceApi struct {
	svc      attendance.ServiceInterface
	validate *validator.Validate
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc attendance.ServiceInterface, validate *validator.Validate) {
	api := attendanceApi{svc: svc, validate: validate}

	ag := g.Group("/attendance", jwt, staffMiddleware())
	ag.POST("/bulk", api.markBulk)
	ag.GET("", api.query)
	ag.GET("/export", api.exportDay)
}

// markBulk records a whole day's sheet for one block, replacing whatever was
// previously recorded for that day.
func (api *attendanceApi) markBulk(ctx echo.Context) error {
	var data attendance.BulkSheet
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BulkSheet")
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

	markedBy := actor.Username
	if markedBy == "" {
		markedBy = actor.Email
	}

	res, err := api.svc.MarkBulk(data, markedBy)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *attendanceApi) query(ctx echo.Context) error {
	filter := new(attendance.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []attendance.Record{})
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

	records, err := api.svc.Query(filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	if records == nil {
		records = []attendance.Record{}
	}
	return ctx.JSON(http.StatusOK, records)
}

// exportDay streams one (block, day) sheet as an XLSX workbook.
func (api *attendanceApi) exportDay(ctx echo.Context) error {
	block := strings.ToUpper(core.CleanString(ctx.QueryParam("block")))
	day := core.CleanString(ctx.QueryParam("day"))
	if block == "" || day == "" {
		return core.NewValidationError(nil,
			core.FieldError{Field: "block", Error: "block and day are required"})
	}

	actor, err := contextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	if !actor.ManagesBlock(block) {
		return errHttpForbidden
	}

	data, err := api.svc.ExportDay(block, day)
	if err != nil {
		return err
	}

	fname := fmt.Sprintf("attendance_%s_%s.xlsx", block, day)
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+fname+`"`)
	return ctx.Blob(http.StatusOK, xlsxContentType, data)
}
