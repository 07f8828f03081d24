package main

import (
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	echoapi "github.com/trezcool/matokeo/apps/api/echo"
	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/achievement"
	"github.com/trezcool/matokeo/core/course"
	"github.com/trezcool/matokeo/core/grade"
	"github.com/trezcool/matokeo/core/outcome"
	"github.com/trezcool/matokeo/core/user"
	emailsvc "github.com/trezcool/matokeo/services/email"
	logsvc "github.com/trezcool/matokeo/services/logger"
	"github.com/trezcool/matokeo/storage/database"
	sqlxrepos "github.com/trezcool/matokeo/storage/database/sqlx"
)

func main() {
	std := log.New(os.Stdout, core.Conf.AppName+" ", log.LstdFlags|log.Lshortfile)

	var logger core.Logger
	if core.Conf.Debug {
		logger = logsvc.NewStdLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, core.Conf)
	}

	// set up DB
	db, err := database.Open(core.Conf)
	errAndDie(std, err)
	defer func() { _ = db.Close() }()
	xdb := sqlx.NewDb(db, core.Conf.Database.Engine)

	// set up services
	var mailSvc core.EmailService
	if core.Conf.Debug {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	usrRepo := sqlxrepos.NewUserRepository(xdb)
	outcomeRepo := sqlxrepos.NewOutcomeRepository(xdb)
	courseRepo := sqlxrepos.NewCourseRepository(xdb)
	gradeRepo := sqlxrepos.NewGradeRepository(xdb)

	usrSvc := user.NewService(xdb, usrRepo, mailSvc)
	outcomeSvc := outcome.NewService(xdb, outcomeRepo)
	courseSvc := course.NewService(xdb, courseRepo, outcomeRepo, mailSvc)
	gradeSvc := grade.NewService(xdb, gradeRepo, courseRepo)

	engine := achievement.NewEngine(sqlxrepos.NewAchievementSource(xdb))

	// start API server
	app := echoapi.NewServer(&echoapi.Options{
		Address:    core.Conf.Server.Host + ":" + core.Conf.Server.Port,
		Logger:     logger,
		UserSvc:    usrSvc,
		OutcomeSvc: outcomeSvc,
		CourseSvc:  courseSvc,
		GradeSvc:   gradeSvc,
		Engine:     engine,
	})
	errAndDie(std, app.Start())
}

func errAndDie(std *log.Logger, err error) {
	if err != nil {
		std.Fatalf("%+v", err)
	}
}
