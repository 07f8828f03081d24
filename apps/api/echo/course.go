package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/matokeo/core"
	"github.com/trezcool/matokeo/core/course"
	"github.com/trezcool/matokeo/core/user"
)

type courseApi struct {
	svc     course.ServiceInterface
	userSvc user.ServiceInterface
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc course.ServiceInterface, userSvc user.ServiceInterface) {
	api := courseApi{svc: svc, userSvc: userSvc}

	staff := roleMiddleware(user.RoleInstructor, user.RoleDepartmentHead)

	cg := g.Group("/courses", jwt)
	cg.POST("", api.createTemplate, roleMiddleware(user.RoleDepartmentHead))
	cg.GET("/:id", api.retrieveTemplate)
	cg.POST("/:id/outcomes", api.createLearningOutcome, staff)

	ig := g.Group("/instances", jwt)
	ig.POST("", api.createInstance, roleMiddleware(user.RoleDepartmentHead))
	ig.GET("/:id", api.retrieveInstance)
	ig.POST("/:id/enroll", api.enroll, roleMiddleware(user.RoleDepartmentHead))
	ig.POST("/:id/unenroll", api.unenroll, roleMiddleware(user.RoleDepartmentHead))
	ig.POST("/:id/assessments", api.createAssessment, staff)

	ctg := g.Group("/contributions", jwt)
	ctg.POST("/assessment-lo", api.createAssessmentLOContribution, staff)
	ctg.POST("/lo-po", api.createLOPOContribution, staff)
	// role check deferred to the service; non-heads get a 403
	ctg.POST("/lo-po/:id/approve", api.approveLOPOContribution)
}

func (api *courseApi) createTemplate(ctx echo.Context) error {
	var data course.NewTemplate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewTemplate")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	tpl, err := api.svc.CreateTemplate(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, tpl)
}

func (api *courseApi) retrieveTemplate(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	tpl, err := api.svc.GetTemplate(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tpl)
}

func (api *courseApi) createLearningOutcome(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	var data course.NewLearningOutcome
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLearningOutcome")
	}
	data.TemplateID = id
	if err := data.Validate(); err != nil {
		return err
	}

	lo, err := api.svc.CreateLearningOutcome(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, lo)
}

func (api *courseApi) createInstance(ctx echo.Context) error {
	var data course.NewInstance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewInstance")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	inst, err := api.svc.CreateInstance(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, inst)
}

func (api *courseApi) retrieveInstance(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	inst, err := api.svc.GetInstance(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, inst)
}

type enrollmentRequest struct {
	StudentID string `json:"student_id" validate:"required,uuid4"`
}

func (er *enrollmentRequest) Validate() error {
	return core.Validate.Struct(er)
}

func (api *courseApi) enroll(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	var data enrollmentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to enrollmentRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.svc.Enroll(ctx.Request().Context(), id, data.StudentID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) unenroll(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	var data enrollmentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to enrollmentRequest")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	if err := api.svc.Unenroll(ctx.Request().Context(), id, data.StudentID); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) createAssessment(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	var data course.NewAssessment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssessment")
	}
	data.InstanceID = id
	if err := data.Validate(); err != nil {
		return err
	}

	a, err := api.svc.CreateAssessment(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *courseApi) createAssessmentLOContribution(ctx echo.Context) error {
	var data course.NewAssessmentLOContribution
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssessmentLOContribution")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	c, err := api.svc.CreateAssessmentLOContribution(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *courseApi) createLOPOContribution(ctx echo.Context) error {
	var data course.NewLOPOContribution
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLOPOContribution")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	c, err := api.svc.CreateLOPOContribution(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *courseApi) approveLOPOContribution(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	c, err := api.svc.ApproveLOPOContribution(ctx.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}
