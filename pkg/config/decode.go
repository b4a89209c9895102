// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// TagName is the struct tag consulted when decoding a Document.
const TagName = "config"

// Unmarshal decodes the whole document into v, which must be a pointer.
func (d *Document) Unmarshal(v any) error {
	return d.UnmarshalAt("", v)
}

// UnmarshalAt decodes the value found at the dotted path into v.
// An empty path decodes the whole document. Decoding an unset path
// leaves v untouched.
func (d *Document) UnmarshalAt(path string, v any) error {
	var input any = d.k.Raw()
	if path != "" {
		input = d.Get(path)
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          TagName,
		Result:           v,
		WeaklyTypedInput: true,
		DecodeHook: composeDecodeHooks(
			textUnmarshalerHookFunc(),
			timeDurationHookFunc(),
		),
	})
	if err != nil {
		return err
	}

	err = dec.Decode(input)
	if err != nil {
		return newDecodeError(path, err)
	}
	return nil
}

// DecodeError occurs when the merged document cannot be coerced
// into the shape of the target value.
type DecodeError struct {
	// Key is the dotted path of the first offending value, if known.
	Key   string
	Cause error
}

// Error implements the error interface.
func (e DecodeError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("failed to decode config: %s", e.Cause)
	}
	return fmt.Sprintf("failed to decode config key %s: %s", e.Key, e.Cause)
}

// Unwrap implements the implicit interface for usage with errors.Is and errors.As.
func (e DecodeError) Unwrap() error {
	return e.Cause
}

var quotedName = regexp.MustCompile(`'([^']*)'`)

func newDecodeError(path string, err error) DecodeError {
	derr := DecodeError{Cause: err}

	var merr *mapstructure.Error
	if !errors.As(err, &merr) || len(merr.Errors) == 0 {
		return derr
	}
	m := quotedName.FindStringSubmatch(merr.Errors[0])
	if m == nil {
		return derr
	}
	derr.Key = m[1]
	if path != "" && derr.Key != "" {
		derr.Key = path + "." + derr.Key
	}
	return derr
}

var errInvalidDecodeCondition = errors.New("invalid decode condition")

// TypeCoercionError occurs when attempting to unmarshal a config
// value to a struct field whose type does not match the config
// value type, up to, coercion.
type TypeCoercionError struct {
	from  reflect.Value
	to    reflect.Value
	Cause error
}

// Error implements the error interface.
func (e TypeCoercionError) Error() string {
	return fmt.Sprintf("failed to coerce value from %s to %s: %s", e.from.Type(), e.to.Type(), e.Cause)
}

// Unwrap implements the implicit interface for usage with errors.Is and errors.As.
func (e TypeCoercionError) Unwrap() error {
	return e.Cause
}

func composeDecodeHooks(hs ...mapstructure.DecodeHookFunc) mapstructure.DecodeHookFuncValue {
	return func(f, t reflect.Value) (any, error) {
		for _, h := range hs {
			v, err := mapstructure.DecodeHookExec(h, f, t)
			if err == nil {
				return v, nil
			}
			if err == errInvalidDecodeCondition {
				continue
			}
			return nil, TypeCoercionError{
				from:  f,
				to:    t,
				Cause: err,
			}
		}
		return f.Interface(), nil
	}
}

func textUnmarshalerHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String {
			return nil, errInvalidDecodeCondition
		}
		result := reflect.New(t)
		u, ok := result.Interface().(encoding.TextUnmarshaler)
		if !ok {
			return nil, errInvalidDecodeCondition
		}
		err := u.UnmarshalText([]byte(reflect.ValueOf(data).String()))
		if err != nil {
			return nil, err
		}
		return result.Elem().Interface(), nil
	}
}

func timeDurationHookFunc() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if t != reflect.TypeOf(time.Duration(0)) {
			return nil, errInvalidDecodeCondition
		}

		v := reflect.ValueOf(data)
		switch f.Kind() {
		case reflect.String:
			return time.ParseDuration(v.String())
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return time.Duration(v.Int()), nil
		default:
			return nil, errInvalidDecodeCondition
		}
	}
}
