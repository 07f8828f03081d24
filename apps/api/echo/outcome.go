package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/matokeo/core/outcome"
	"github.com/trezcool/matokeo/core/user"
)

type outcomeApi struct {
	svc     outcome.ServiceInterface
	userSvc user.ServiceInterface
}

func registerOutcomeAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc outcome.ServiceInterface, userSvc user.ServiceInterface) {
	api := outcomeApi{svc: svc, userSvc: userSvc}

	dg := g.Group("/departments", jwt)
	dg.POST("", api.createDepartment, roleMiddleware(user.RoleDepartmentHead))
	dg.GET("", api.queryDepartments)
	dg.GET("/:id", api.retrieveDepartment)
	dg.GET("/:id/outcomes", api.queryActiveOutcomes)

	og := g.Group("/outcomes", jwt)
	og.POST("", api.createOutcome, roleMiddleware(user.RoleDepartmentHead))
	og.GET("/:id", api.retrieveOutcome)
	og.PUT("/:id", api.updateOutcome, roleMiddleware(user.RoleDepartmentHead))
}

func (api *outcomeApi) createDepartment(ctx echo.Context) error {
	var data outcome.NewDepartment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewDepartment")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	dept, err := api.svc.CreateDepartment(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating department")
	}
	return ctx.JSON(http.StatusCreated, dept)
}

func (api *outcomeApi) queryDepartments(ctx echo.Context) error {
	activeOnly := false
	if b := boolQueryParam(ctx, "active"); b != nil {
		activeOnly = *b
	}

	depts, err := api.svc.QueryDepartments(ctx.Request().Context(), activeOnly)
	if err != nil {
		return errors.Wrap(err, "querying departments")
	}
	return ctx.JSON(http.StatusOK, depts)
}

func (api *outcomeApi) retrieveDepartment(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	dept, err := api.svc.GetDepartment(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, dept)
}

func (api *outcomeApi) queryActiveOutcomes(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	pos, err := api.svc.ActiveProgramOutcomes(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "querying active program outcomes")
	}
	return ctx.JSON(http.StatusOK, pos)
}

func (api *outcomeApi) createOutcome(ctx echo.Context) error {
	var data outcome.NewProgramOutcome
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProgramOutcome")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	actor, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	po, err := api.svc.CreateProgramOutcome(ctx.Request().Context(), actor, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, po)
}

func (api *outcomeApi) retrieveOutcome(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}
	po, err := api.svc.GetProgramOutcome(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, po)
}

func (api *outcomeApi) updateOutcome(ctx echo.Context) error {
	id, err := intParam(ctx, "id")
	if err != nil {
		return err
	}

	var data outcome.UpdateProgramOutcome
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProgramOutcome")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	po, err := api.svc.UpdateProgramOutcome(ctx.Request().Context(), id, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, po)
}
