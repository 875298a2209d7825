package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

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

type (
	ServerDeps struct {
		Conf           *core.Config
		Logger         core.Logger
		DisableReqLogs bool

		UserSvc       user.ServiceInterface
		RoomSvc       room.ServiceInterface
		StudentSvc    student.ServiceInterface
		FeeSvc        fee.ServiceInterface
		AttendanceSvc attendance.ServiceInterface
		LeaveSvc      leave.ServiceInterface
		VisitorSvc    visitor.ServiceInterface
		ComplaintSvc  complaint.ServiceInterface
		MessSvc       mess.ServiceInterface

		Validate   *validator.Validate
		Translator ut.Translator
	}

	Server interface {
		http.Handler
		Start()
		Errors() <-chan error
		ShutdownSignal() <-chan os.Signal
		Shutdown(context.Context) error
		Close() error
	}

	server struct {
		deps     ServerDeps
		app      *echo.Echo
		errs     chan error
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(deps ServerDeps) Server {
	s := &server{
		deps:     deps,
		app:      echo.New(),
		errs:     make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, syscall.SIGINT, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.deps.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := initJWTAuth(conf)

	registerUserAPI(v1, jwt, s.deps.UserSvc, s.deps.Validate, s.deps.Translator)
	registerRoomAPI(v1, jwt, s.deps.RoomSvc, s.deps.Validate)
	registerStudentAPI(v1, jwt, s.deps.StudentSvc, s.deps.Validate)
	registerFeeAPI(v1, jwt, s.deps.FeeSvc, s.deps.Validate)
	registerAttendanceAPI(v1, jwt, s.deps.AttendanceSvc, s.deps.Validate)
	registerLeaveAPI(v1, jwt, s.deps.LeaveSvc, s.deps.Validate)
	registerVisitorAPI(v1, jwt, s.deps.VisitorSvc, s.deps.Validate)
	registerComplaintAPI(v1, jwt, s.deps.ComplaintSvc, s.deps.Validate)
	registerMessAPI(v1, jwt, s.deps.MessSvc, s.deps.Validate)
}

// signalShutdown lets the error handler request a graceful stop when a
// data-integrity error is caught.
func (s *server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *server) Start() {
	s.errs <- s.app.Start(s.deps.Conf.Server.Address())
}

func (s *server) Errors() <-chan error { return s.errs }

func (s *server) ShutdownSignal() <-chan os.Signal { return s.shutdown }

func (s *server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) Close() error {
	return s.app.Close()
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Makazi API!")
}
