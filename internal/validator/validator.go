package validator

import (
	"fmt"
	"reflect"
)

func Validate(name string, deps ...any) error {
	for _, dep := range deps {
		v := reflect.ValueOf(dep)
		if !v.IsValid() || isNil(v) || v.IsZero() {
			return fmt.Errorf("missing required deps for component: %s", name)
		}
	}

	return nil
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice, reflect.UnsafePointer:
		return v.IsNil()
	default:
		return false
	}
}
