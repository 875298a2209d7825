package main

import (
	"log"
	"os"

	"github.com/trezcool/makazi/core"
	"github.com/trezcool/makazi/core/fee"
	"github.com/trezcool/makazi/core/room"
	"github.com/trezcool/makazi/storage/database"
	sqlxrepos "github.com/trezcool/makazi/storage/database/sqlx"
)

var logger *log.Logger // todo: logger service

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf, err := core.NewConfig()
	errAndDie(err)

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()
	errAndDie(db.Ping())

	roomSvc := room.NewService(sqlxrepos.NewRoomRepository(db))

	// start CLI
	cli := commandLine{
		db:      db.DB,
		usrRepo: sqlxrepos.NewUserRepository(db),
		roomSvc: roomSvc,
		feeSvc:  fee.NewService(sqlxrepos.NewFeeRepository(db), nil),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
