package validator

import (
	"fmt"
	"reflect"
)

// Validator validates a piece of device state before it is reported.
type Validator interface {
	// Validate returns an error when the data should not be reported.
	Validate(data interface{}) error
}

// RangeValidator checks that a numeric field lies within [Min, Max]. The
// field may be a plain number or a pointer to one; a nil pointer fails
// validation since there is no value to report.
type RangeValidator struct {
	Field string
	Min   float64
	Max   float64
}

// Validate checks the named field of a struct (or pointer to struct).
func (rv *RangeValidator) Validate(data interface{}) error {
	v := reflect.ValueOf(data)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	if v.Kind() != reflect.Struct {
		return fmt.Errorf("data must be a struct")
	}

	field := v.FieldByName(rv.Field)
	if !field.IsValid() {
		return fmt.Errorf("field %s does not exist", rv.Field)
	}

	if field.Kind() == reflect.Ptr {
		if field.IsNil() {
			return fmt.Errorf("field %s has no value", rv.Field)
		}
		field = field.Elem()
	}

	var value float64
	switch field.Kind() {
	case reflect.Float32, reflect.Float64:
		value = field.Float()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		value = float64(field.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		value = float64(field.Uint())
	default:
		return fmt.Errorf("field %s is not numeric", rv.Field)
	}

	if value < rv.Min || value > rv.Max {
		return fmt.Errorf("field %s value %v is outside range [%v, %v]", rv.Field, value, rv.Min, rv.Max)
	}

	return nil
}
