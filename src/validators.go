package main

import (
	"opsdesk/src/config"
	"opsdesk/src/models"
	"opsdesk/src/permissions"
	"opsdesk/src/status"
	"reflect"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

func statusOf(d *status.Domain) validator.Func {
	return func(fl validator.FieldLevel) bool {
		_, ok := d.Lookup(fl.Field().String())
		return ok
	}
}

var resolution validator.Func = func(fl validator.FieldLevel) bool {
	return models.ValidResolution(fl.Field().String())
}

var role validator.Func = func(fl validator.FieldLevel) bool {
	_, ok := permissions.ParseRole(fl.Field().String())
	return ok
}

// gtdate passes when the sibling date named by the param is absent or not after this one.
var gtdate validator.Func = func(fl validator.FieldLevel) bool {
	date, err := time.Parse(config.DATE_FORMAT, fl.Field().String())
	if err != nil {
		return false
	}
	parent := reflect.Indirect(fl.Parent())
	field := reflect.Indirect(parent.FieldByName(fl.Param()))
	if !field.IsValid() || field.Kind() != reflect.String || field.String() == "" {
		return true
	}
	other, err := time.Parse(config.DATE_FORMAT, field.String())
	if err != nil {
		return true
	}
	return !other.After(date)
}

func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("bugstatus", statusOf(status.Bug))
		v.RegisterValidation("projectstatus", statusOf(status.Project))
		v.RegisterValidation("milestonestatus", statusOf(status.Milestone))
		v.RegisterValidation("employeestatus", statusOf(status.Employee))
		v.RegisterValidation("assetstatus", statusOf(status.Asset))
		v.RegisterValidation("resolution", resolution)
		v.RegisterValidation("role", role)
		v.RegisterValidation("gtdate", gtdate)
	}
}
