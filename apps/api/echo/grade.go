package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/matokeo/core/grade"
	"github.com/trezcool/matokeo/core/user"
)

type gradeApi struct {
	svc     grade.ServiceInterface
	userSvc user.ServiceInterface
}

func registerGradeAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc grade.ServiceInterface, userSvc user.ServiceInterface) {
	api := gradeApi{svc: svc, userSvc: userSvc}

	gg := g.Group("/grades", jwt)
	gg.POST("", api.record, roleMiddleware(user.RoleInstructor, user.RoleDepartmentHead))
	gg.GET("/students/:id/assessments/:assessmentID", api.retrieve)
	gg.GET("/students/:id/performance", api.performance)
}

func (api *gradeApi) record(ctx echo.Context) error {
	var data grade.NewGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGrade")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	g, err := api.svc.Record(ctx.Request().Context(), actor, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, g)
}

func (api *gradeApi) retrieve(ctx echo.Context) error {
	studentID, err := studentIDParam(ctx, api.userSvc)
	if err != nil {
		return err
	}
	assessmentID, err := intParam(ctx, "assessmentID")
	if err != nil {
		return err
	}

	g, err := api.svc.Get(ctx.Request().Context(), studentID, assessmentID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, g)
}

type performanceResponse struct {
	StudentID        string   `json:"student_id"`
	PerformanceScore *float64 `json:"performance_score"`
}

func (api *gradeApi) performance(ctx echo.Context) error {
	studentID, err := studentIDParam(ctx, api.userSvc)
	if err != nil {
		return err
	}

	score, err := api.svc.PerformanceScore(ctx.Request().Context(), studentID)
	if err != nil {
		return errors.Wrap(err, "computing performance score")
	}
	return ctx.JSON(http.StatusOK, performanceResponse{StudentID: studentID, PerformanceScore: score})
}

// studentIDParam resolves the ":id" student path param. Students may only read
// their own records; staff may read anyone's.
func studentIDParam(ctx echo.Context, userSvc user.ServiceInterface) (string, error) {
	ctxUsr, err := getContextUser(ctx, userSvc)
	if err != nil {
		return "", errors.Wrap(err, "getting context user")
	}

	id := ctx.Param("id")
	if ctxUsr.IsStudent() && id != ctxUsr.ID {
		return "", errHttpForbidden
	}
	return id, nil
}
