package controllers

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/HSouheill/resellhub_backend/models"
	"github.com/HSouheill/resellhub_backend/repositories"
	"github.com/HSouheill/resellhub_backend/services"
)

const requestTimeout = 15 * time.Second

func respond(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, models.Response{
		Status:  status,
		Message: message,
		Data:    data,
	})
}

// failure is an error the echo error handler renders as a Response envelope
func failure(status int, message string) error {
	return echo.NewHTTPError(status, models.Response{Status: status, Message: message})
}

// bindAndValidate decodes the body into req and runs the struct validator
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return failure(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(req); err != nil {
		return failure(http.StatusBadRequest, "Validation failed: "+err.Error())
	}
	return nil
}

// storeError maps repository errors onto responses; unexpected ones are logged and hidden
func storeError(c echo.Context, action string, err error) error {
	var couponErr *services.CouponError
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return failure(http.StatusNotFound, "Not found")
	case errors.Is(err, repositories.ErrInvalidID):
		return failure(http.StatusBadRequest, "Invalid ID format")
	case errors.Is(err, repositories.ErrDuplicate):
		return failure(http.StatusConflict, "Already exists")
	case errors.As(err, &couponErr):
		return failure(http.StatusBadRequest, couponErr.Reason)
	}
	log.Printf("Failed to %s: %v", action, err)
	return failure(http.StatusInternalServerError, "Failed to "+action)
}

// dateRange reads ?range=, ?from= and ?to=
func dateRange(c echo.Context) (models.DateRange, error) {
	return services.ResolveDateRange(c.QueryParam("range"), c.QueryParam("from"), c.QueryParam("to"), time.Now())
}
