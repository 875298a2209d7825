package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/makazi/core"
	"github.com/trezcool/makazi/core/attendance"
	"github.com/trezcool/makazi/core/complaint"
	"github.com/trezcool/makazi/core/fee"
	"github.com/trezcool/makazi/core/leave"
	"github.com/trezcool/makazi/core/mess"
	"github.com/trezcool/makazi/core/room"
	"github.com/trezcool/makazi/core/student"
	"github.com/trezcool/makazi/core/user"
	"github.com/trezcool/makazi/core/visitor"
)

var (
	errUnauthorized         = echo.NewHTTPError(http.StatusUnauthorized, "user not authenticated")
	errAuthenticationFailed = echo.NewHTTPError(http.StatusBadRequest, "authentication failed")
	errAccountDeactivated   = echo.NewHTTPError(http.StatusForbidden, "account deactivated")
	errRefreshExpired       = echo.NewHTTPError(http.StatusForbidden, "refresh has expired")
	errHttpForbidden        = echo.NewHTTPError(http.StatusForbidden, "permission denied")
	errHttpNotFound         = echo.NewHTTPError(http.StatusNotFound, "not found")
)

// domainErrStatuses maps sentinel errors from the core packages to HTTP
// status codes. Anything not listed here is a server error.
var domainErrStatuses = map[error]int{
	user.ErrNotFound:       http.StatusNotFound,
	room.ErrNotFound:       http.StatusNotFound,
	student.ErrNotFound:    http.StatusNotFound,
	fee.ErrNotFound:        http.StatusNotFound,
	attendance.ErrNotFound: http.StatusNotFound,
	leave.ErrNotFound:      http.StatusNotFound,
	visitor.ErrNotFound:    http.StatusNotFound,
	complaint.ErrNotFound:  http.StatusNotFound,
	mess.ErrNotFound:       http.StatusNotFound,

	room.ErrRoomExists:           http.StatusConflict,
	room.ErrRoomOccupied:         http.StatusConflict,
	room.ErrRoomFull:             http.StatusConflict,
	user.ErrBlockHasWarden:       http.StatusConflict,
	student.ErrStudentRemoved:    http.StatusConflict,
	leave.ErrAlreadyDecided:      http.StatusConflict,
	complaint.ErrAlreadySettled:  http.StatusConflict,
	visitor.ErrAlreadyCheckedOut: http.StatusConflict,

	room.ErrInvalidOccupancy:         http.StatusBadRequest,
	student.ErrRoomBlockMismatch:     http.StatusBadRequest,
	fee.ErrInvalidAmount:             http.StatusBadRequest,
	attendance.ErrUnknownRosterEntry: http.StatusBadRequest,
	leave.ErrInvalidPeriod:           http.StatusBadRequest,
	complaint.ErrInvalidTransition:   http.StatusBadRequest,

	leave.ErrNotPermitted:     http.StatusForbidden,
	complaint.ErrNotPermitted: http.StatusForbidden,
}

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var code int
		var message interface{}

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				code = http.StatusUnauthorized
				message = origErr.Message
				break
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			message = origErr.Message
		case validator.ValidationErrors:
			fldErrs := make(map[string]string, len(origErr))
			for _, vErr := range origErr {
				fldErrs[vErr.Field()] = vErr.Translate(translator)
			}
			code = http.StatusBadRequest
			message = fldErrs
		case *core.ValidationError:
			if origErr.Fields != nil {
				fldErrs := make(map[string]string, len(origErr.Fields))
				for _, fErr := range origErr.Fields {
					fldErrs[fErr.Field] = fErr.Error
				}
				message = fldErrs
			} else {
				message = origErr.Error()
			}
			code = http.StatusBadRequest
		default:
			if status, ok := domainErrStatuses[origErr]; ok {
				code = status
				message = origErr.Error()
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			message = msg

			var usr user.User
			if claims, cErr := getContextClaims(ctx); cErr == nil {
				usr.ID = claims.Subject
				usr.Username = claims.Username
				usr.Email = claims.Email
			}
			logger.Error(msg, errors.Wrap(err, msg), usr)

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		if ctx.Echo().Debug {
			message = err.Error()
		} else if m, ok := message.(string); ok {
			message = echo.Map{"error": m}
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, message)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}
