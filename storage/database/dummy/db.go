package dummydb

import (
	"sync"

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
	DB struct {
		user       *userTable
		room       *roomTable
		student    *studentTable
		counter    *counterTable
		fee        *feeTable
		attendance *attendanceTable
		leave      *leaveTable
		visitor    *visitorTable
		complaint  *complaintTable
		mess       *messTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}
	roomTable struct {
		sync.RWMutex
		table map[string]*room.Room
	}
	studentTable struct {
		sync.RWMutex
		table map[string]*student.Student
	}
	counterTable struct {
		sync.Mutex
		seqs map[counterKey]int
	}
	counterKey struct {
		year  int
		block string
	}
	feeTable struct {
		sync.RWMutex
		table map[string]*fee.Fee
	}
	attendanceTable struct {
		sync.RWMutex
		table map[string]*attendance.Record
	}
	leaveTable struct {
		sync.RWMutex
		table map[string]*leave.Leave
	}
	visitorTable struct {
		sync.RWMutex
		table map[string]*visitor.Visit
	}
	complaintTable struct {
		sync.RWMutex
		table map[string]*complaint.Complaint
	}
	messTable struct {
		sync.RWMutex
		table map[string]*mess.MenuEntry
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		room:       &roomTable{table: make(map[string]*room.Room)},
		student:    &studentTable{table: make(map[string]*student.Student)},
		counter:    &counterTable{seqs: make(map[counterKey]int)},
		fee:        &feeTable{table: make(map[string]*fee.Fee)},
		attendance: &attendanceTable{table: make(map[string]*attendance.Record)},
		leave:      &leaveTable{table: make(map[string]*leave.Leave)},
		visitor:    &visitorTable{table: make(map[string]*visitor.Visit)},
		complaint:  &complaintTable{table: make(map[string]*complaint.Complaint)},
		mess:       &messTable{table: make(map[string]*mess.MenuEntry)},
	}
	return db, nil
}
