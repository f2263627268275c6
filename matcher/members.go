package matcher

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
)

const memberTag = "poly"

// FieldMembers builds the members of a struct type from its exported
// fields. The member name is the field name, or the value of the poly
// struct tag. Fields tagged with "-" are skipped.
//
// Set accepts values assignable to the field, numbers representable by it,
// and strings parsed according to the field kind.
func FieldMembers[T any]() Members[T] {
	members := make(Members[T])
	typ := reflect.TypeOf((*T)(nil)).Elem()
	if typ.Kind() != reflect.Struct {
		return members
	}

	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		if !f.IsExported() || f.Anonymous {
			continue
		}

		name := f.Name
		if tag, ok := f.Tag.Lookup(memberTag); ok {
			if tag == "-" {
				continue
			}

			if tag != "" {
				name = tag
			}
		}

		index := i
		members[name] = Member[T]{
			Get: func(p *T) (any, bool) {
				return reflect.ValueOf(p).Elem().Field(index).Interface(), true
			},
			Set: func(p *T, v any) error {
				return assignField(reflect.ValueOf(p).Elem().Field(index), v)
			},
		}
	}

	return members
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

func assignField(field reflect.Value, v any) error {
	if v == nil {
		field.Set(reflect.Zero(field.Type()))
		return nil
	}

	rv := reflect.ValueOf(v)
	switch {
	case rv.Type().AssignableTo(field.Type()):
		field.Set(rv)
		return nil
	case isNumeric(rv.Kind()) && isNumeric(field.Kind()):
		return assignNumber(field, rv)
	}

	s, ok := v.(string)
	if !ok {
		return fmt.Errorf("%w: cannot assign %T to %s", ErrInvalidMember, v, field.Type())
	}

	return assignString(field, s)
}

func numberError(v, field reflect.Value) error {
	return fmt.Errorf("%w: %v out of range for %s", ErrInvalidMember, v.Interface(), field.Type())
}

// assignNumber sets a numeric field from a number of another type. Values
// that do not fit, negative values for unsigned fields, and fractions for
// integer fields are rejected.
func assignNumber(field, v reflect.Value) error {
	switch field.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		var n int64
		switch {
		case v.CanInt():
			n = v.Int()
		case v.CanUint():
			u := v.Uint()
			if u > math.MaxInt64 {
				return numberError(v, field)
			}

			n = int64(u)
		default:
			f := v.Float()
			if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
				return numberError(v, field)
			}

			n = int64(f)
		}

		if field.OverflowInt(n) {
			return numberError(v, field)
		}

		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		var n uint64
		switch {
		case v.CanUint():
			n = v.Uint()
		case v.CanInt():
			i := v.Int()
			if i < 0 {
				return numberError(v, field)
			}

			n = uint64(i)
		default:
			f := v.Float()
			if f != math.Trunc(f) || f < 0 || f >= math.MaxUint64 {
				return numberError(v, field)
			}

			n = uint64(f)
		}

		if field.OverflowUint(n) {
			return numberError(v, field)
		}

		field.SetUint(n)
	default:
		var f float64
		switch {
		case v.CanInt():
			f = float64(v.Int())
		case v.CanUint():
			f = float64(v.Uint())
		default:
			f = v.Float()
		}

		if field.OverflowFloat(f) {
			return numberError(v, field)
		}

		field.SetFloat(f)
	}

	return nil
}

func assignString(field reflect.Value, s string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(s)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidMember, err)
		}

		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidMember, err)
		}

		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidMember, err)
		}

		field.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidMember, err)
		}

		field.SetBool(b)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedField, field.Type())
	}

	return nil
}
