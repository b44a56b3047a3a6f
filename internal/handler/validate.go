package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/msomdec/gadget-registry/internal/domain"
	"github.com/msomdec/gadget-registry/internal/validation"
)

type inputKey[T any] struct{}

// Input returns the validated value of type T stored by Body, Params or
// Query. It panics if no such middleware ran for the route.
func Input[T any](ctx context.Context) T {
	v, ok := ctx.Value(inputKey[T]{}).(T)
	if !ok {
		var zero T
		panic(fmt.Sprintf("handler: no validated %T in context", zero))
	}
	return v
}

func withInput[T any](r *http.Request, v T) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), inputKey[T]{}, v))
}

// Body decodes the JSON request body into T and validates it.
func Body[T any](v *validation.Validator) func(http.Handler) http.Handler {
	return gate(v, func(r *http.Request) (T, error) {
		var in T
		err := decodeBody(r, &in)
		return in, err
	})
}

// Params decodes chi URL parameters into T and validates them.
func Params[T any](v *validation.Validator) func(http.Handler) http.Handler {
	return gate(v, func(r *http.Request) (T, error) {
		values := map[string]string{}
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			for i, k := range rctx.URLParams.Keys {
				values[k] = rctx.URLParams.Values[i]
			}
		}
		var in T
		err := validation.DecodeMap(values, &in)
		return in, err
	})
}

// Query decodes URL query parameters into T and validates them. Only the
// first value of a repeated key is used.
func Query[T any](v *validation.Validator) func(http.Handler) http.Handler {
	return gate(v, func(r *http.Request) (T, error) {
		values := map[string]string{}
		for k, vs := range r.URL.Query() {
			if len(vs) > 0 {
				values[k] = vs[0]
			}
		}
		var in T
		err := validation.DecodeMap(values, &in)
		return in, err
	})
}

func gate[T any](v *validation.Validator, decode func(*http.Request) (T, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			in, err := decode(r)
			if err == nil {
				err = v.Struct(in)
			}
			if err != nil {
				respondError(w, r, err)
				return
			}
			next.ServeHTTP(w, withInput(r, in))
		})
	}
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err == nil {
		if dec.More() {
			return bodyError("body", "must contain a single JSON object")
		}
		return nil
	}

	var (
		syntaxErr  *json.SyntaxError
		typeErr    *json.UnmarshalTypeError
		maxSizeErr *http.MaxBytesError
	)
	switch {
	case errors.Is(err, io.EOF):
		return bodyError("body", "must not be empty")
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return bodyError("body", "must be valid JSON")
	case errors.As(err, &typeErr):
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		return bodyError(field, "must be of type "+jsonType(typeErr.Type))
	case errors.As(err, &maxSizeErr):
		return bodyError("body", fmt.Sprintf("must not exceed %d bytes", maxSizeErr.Limit))
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		name := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return bodyError(name, "is not allowed")
	default:
		return fmt.Errorf("decode body: %w", err)
	}
}

func bodyError(field, message string) error {
	return domain.NewValidationError([]domain.FieldError{{Field: field, Message: message}})
}

func jsonType(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Struct, reflect.Map:
		return "object"
	default:
		return t.String()
	}
}
