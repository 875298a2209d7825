package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

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
	emailsvc "github.com/trezcool/makazi/services/email"
	dummydb "github.com/trezcool/makazi/storage/database/dummy"
)

type testEnv struct {
	server Server
	db     *dummydb.DB

	userRepo    user.Repository
	roomRepo    room.Repository
	studentRepo student.Repository
	feeRepo     fee.Repository

	userSvc    user.ServiceInterface
	roomSvc    room.ServiceInterface
	studentSvc student.ServiceInterface
	feeSvc     fee.ServiceInterface
}

func testConfig() *core.Config {
	return &core.Config{
		TestMode:          true,
		AppName:           "Makazi",
		SecretKey:         []byte("secret"),
		Blocks:            []string{"A", "B"},
		StudentCodePrefix: "MKZ",

		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,

		Server: core.ServerConfig{
			Host:                      "localhost",
			Port:                      8000,
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
	}
}

// testLogger satisfies core.Logger without reporting anywhere.
type testLogger struct {
	std *log.Logger
}

func newTestLogger() *testLogger {
	return &testLogger{std: log.New(os.Stdout, "TEST : ", log.LstdFlags)}
}

func (l testLogger) Enable(bool)                        {}
func (l testLogger) Debug(msg string, _ ...interface{}) { l.std.Println(msg) }
func (l testLogger) Info(msg string, _ ...interface{})  { l.std.Println(msg) }
func (l testLogger) Warn(msg string, _ ...interface{})  { l.std.Println(msg) }
func (l testLogger) Error(msg string, _ ...interface{}) { l.std.Println(msg) }
func (l testLogger) Fatal(msg string, _ ...interface{}) { l.std.Println(msg) }

func setup(t *testing.T) *testEnv {
	t.Helper()

	conf := testConfig()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}

	validate := validator.New()
	translator := newTestTranslator()
	core.InitValidators(validate, translator, conf)
	user.RegisterValidators(validate, translator)

	mailSvc := emailsvc.NewConsoleServiceMock(conf)

	userRepo := dummydb.NewUserRepository(db)
	roomRepo := dummydb.NewRoomRepository(db)
	studentRepo := dummydb.NewStudentRepository(db)
	feeRepo := dummydb.NewFeeRepository(db)

	userSvc := user.NewService(conf, userRepo, mailSvc)
	roomSvc := room.NewService(roomRepo)
	studentSvc := student.NewService(conf, studentRepo, roomSvc, nil)
	feeSvc := fee.NewService(feeRepo, studentSvc)
	attendanceSvc := attendance.NewService(conf, dummydb.NewAttendanceRepository(db), studentSvc)
	leaveSvc := leave.NewService(dummydb.NewLeaveRepository(db), studentSvc, mailSvc)
	visitorSvc := visitor.NewService(dummydb.NewVisitorRepository(db), studentSvc)
	complaintSvc := complaint.NewService(dummydb.NewComplaintRepository(db), studentSvc)
	messSvc := mess.NewService(dummydb.NewMessRepository(db))

	server := NewServer(ServerDeps{
		Conf:           conf,
		Logger:         newTestLogger(),
		DisableReqLogs: true,
		UserSvc:        userSvc,
		RoomSvc:        roomSvc,
		StudentSvc:     studentSvc,
		FeeSvc:         feeSvc,
		AttendanceSvc:  attendanceSvc,
		LeaveSvc:       leaveSvc,
		VisitorSvc:     visitorSvc,
		ComplaintSvc:   complaintSvc,
		MessSvc:        messSvc,
		Validate:       validate,
		Translator:     translator,
	})

	return &testEnv{
		server:      server,
		db:          db,
		userRepo:    userRepo,
		roomRepo:    roomRepo,
		studentRepo: studentRepo,
		feeRepo:     feeRepo,
		userSvc:     userSvc,
		roomSvc:     roomSvc,
		studentSvc:  studentSvc,
		feeSvc:      feeSvc,
	}
}

func newTestTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func createUser(t *testing.T, repo user.Repository, name, uname, email, pwd string, roles []string, block string, isActive bool) user.User {
	t.Helper()
	now := time.Now().UTC()
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		Block:     block,
		IsActive:  isActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func createRoom(t *testing.T, svc room.ServiceInterface, block, number string, capacity int) room.Room {
	t.Helper()
	rm, err := svc.Create(room.NewRoom{Block: block, Number: number, Capacity: capacity})
	if err != nil {
		t.Fatalf("createRoom() failed: %v", err)
	}
	return rm
}

func admitStudent(t *testing.T, svc student.ServiceInterface, name, block, roomID string) student.Student {
	t.Helper()
	stu, err := svc.Admit(student.NewStudent{Name: name, Block: block, RoomID: roomID})
	if err != nil {
		t.Fatalf("admitStudent() failed: %v", err)
	}
	return stu
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	t.Helper()
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
