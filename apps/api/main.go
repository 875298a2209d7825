package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/trezcool/makazi/apps/api/echo"
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
	appfs "github.com/trezcool/makazi/fs"
	emailsvc "github.com/trezcool/makazi/services/email"
	logsvc "github.com/trezcool/makazi/services/logger"
	"github.com/trezcool/makazi/storage/database"
	sqlxrepos "github.com/trezcool/makazi/storage/database/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf, err := core.NewConfig()
	if err != nil {
		log.Fatalf("loading configuration: %v", err)
	}

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = db.Close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	usrSvc := user.NewService(conf, sqlxrepos.NewUserRepository(db), mailSvc)
	roomSvc := room.NewService(sqlxrepos.NewRoomRepository(db))
	stuSvc := student.NewService(conf, sqlxrepos.NewStudentRepository(db), roomSvc, mailSvc)
	feeSvc := fee.NewService(sqlxrepos.NewFeeRepository(db), stuSvc)
	attSvc := attendance.NewService(conf, sqlxrepos.NewAttendanceRepository(db), stuSvc)
	leaveSvc := leave.NewService(sqlxrepos.NewLeaveRepository(db), stuSvc, mailSvc)
	visitSvc := visitor.NewService(sqlxrepos.NewVisitorRepository(db), stuSvc)
	complaintSvc := complaint.NewService(sqlxrepos.NewComplaintRepository(db), stuSvc)
	messSvc := mess.NewService(sqlxrepos.NewMessRepository(db))

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator, conf)
	user.RegisterValidators(validate, translator)

	core.InitMail(conf, appfs.FS)

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			UserSvc:       usrSvc,
			RoomSvc:       roomSvc,
			StudentSvc:    stuSvc,
			FeeSvc:        feeSvc,
			AttendanceSvc: attSvc,
			LeaveSvc:      leaveSvc,
			VisitorSvc:    visitSvc,
			ComplaintSvc:  complaintSvc,
			MessSvc:       messSvc,
			Validate:      validate,
			Translator:    translator,
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
