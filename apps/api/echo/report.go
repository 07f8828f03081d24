package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/matokeo/core/achievement"
	"github.com/trezcool/matokeo/core/course"
	"github.com/trezcool/matokeo/core/user"
)

type reportApi struct {
	engine    *achievement.Engine
	courseSvc course.ServiceInterface
	userSvc   user.ServiceInterface
}

func registerReportAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	engine *achievement.Engine,
	courseSvc course.ServiceInterface,
	userSvc user.ServiceInterface,
) {
	api := reportApi{engine: engine, courseSvc: courseSvc, userSvc: userSvc}

	rg := g.Group("/reports", jwt)
	rg.GET("/students/:id/courses/:instanceID", api.coursePOAchievements)
	rg.GET("/students/:id/overall", api.overallPOAchievements)
	rg.GET("/instances/:id/lo-stats", api.courseLOStatistics,
		roleMiddleware(user.RoleInstructor, user.RoleDepartmentHead))
}

func (api *reportApi) coursePOAchievements(ctx echo.Context) error {
	studentID, err := studentIDParam(ctx, api.userSvc)
	if err != nil {
		return err
	}
	instanceID, err := intParam(ctx, "instanceID")
	if err != nil {
		return err
	}

	inst, err := api.courseSvc.GetInstance(ctx.Request().Context(), instanceID)
	if err != nil {
		return err
	}

	report, err := api.engine.CoursePOAchievements(ctx.Request().Context(), studentID, inst)
	if err != nil {
		return errors.Wrap(err, "computing course PO achievements")
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *reportApi) overallPOAchievements(ctx echo.Context) error {
	studentID, err := studentIDParam(ctx, api.userSvc)
	if err != nil {
		return err
	}

	student, err := api.userSvc.GetByID(ctx.Request().Context(), studentID)
	if err != nil {
		return err
	}

	report, err := api.engine.OverallPOAchievements(ctx.Request().Context(), student)
	if err != nil {
		return errors.Wrap(err, "computing overall PO achievements")
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *reportApi) courseLOStatistics(ctx echo.Context) error {
	instanceID, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	inst, err := api.courseSvc.GetInstance(ctx.Request().Context(), instanceID)
	if err != nil {
		return err
	}

	stats, err := api.engine.CourseLOStatistics(ctx.Request().Context(), inst)
	if err != nil {
		return errors.Wrap(err, "computing course LO statistics")
	}
	return ctx.JSON(http.StatusOK, stats)
}
