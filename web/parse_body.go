package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"reflect"
	"strconv"
	"strings"
)

// maxBodySize bounds form and JSON bodies.
const maxBodySize = 1 << 20

// ErrUnsupportedContentType is returned by ParseBody for bodies it cannot
// decode.
var ErrUnsupportedContentType = errors.New("content type not supported")

// MissingFieldsError lists the required form fields that were absent or
// blank, in struct order.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return fmt.Sprintf("required fields missing: %s", strings.Join(e.Fields, ", "))
}

// ParseBody parses the HTTP request body into the provided struct
// based on the Content-Type header. Media type parameters such as charset
// or the multipart boundary are accepted.
//
// Supported content types:
//   - application/x-www-form-urlencoded, multipart/form-data:
//     Uses `form:"fieldname"` struct tags to map form fields to struct fields.
//   - application/json: Uses `json` struct tags for mapping.
//
// The dst parameter must be a pointer to a struct.
//
// Form parsing supports string, signed and unsigned integer, float and
// bool fields ("on"/"off", "1"/"0", "yes"/"no", "true"/"false") and slices
// of those. Values are trimmed of surrounding whitespace. The only tag
// option is "required", which also rejects blank values; every missing
// field is reported in one *MissingFieldsError after the others are bound:
//
//	type Contact struct {
//	    Email string `form:"email,required"`
//	}
func ParseBody(r *http.Request, dst any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ErrUnsupportedContentType
	}

	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		return parseBodyForm(r, dst)
	case "application/json":
		return parseBodyJSON(r, dst)
	default:
		return ErrUnsupportedContentType
	}
}

func parseBodyForm(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodySize)

	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		err = r.ParseMultipartForm(maxBodySize)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return fmt.Errorf("failed to parse form: %w", err)
	}

	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return errors.New("destination must be a pointer to a struct")
	}

	rv = rv.Elem()
	rt := rv.Type()

	var missing []string

	for i := 0; i < rv.NumField(); i++ {
		field := rv.Field(i)
		fieldType := rt.Field(i)

		if !field.CanSet() {
			continue
		}

		formTag := fieldType.Tag.Get("form")
		if formTag == "" || formTag == "-" {
			continue
		}

		name, opts, _ := strings.Cut(formTag, ",")
		required := opts == "required"

		values := make([]string, 0, len(r.PostForm[name]))
		for _, v := range r.PostForm[name] {
			if v = strings.TrimSpace(v); v != "" {
				values = append(values, v)
			}
		}

		if len(values) == 0 {
			if required {
				missing = append(missing, name)
			}
			continue
		}

		if err := bindFieldValue(field, values); err != nil {
			return fmt.Errorf("failed to bind field '%s': %w", name, err)
		}
	}

	if len(missing) > 0 {
		return &MissingFieldsError{Fields: missing}
	}
	return nil
}

// bindFieldValue converts and assigns form values to a struct field.
func bindFieldValue(field reflect.Value, values []string) error {
	switch field.Kind() {
	case reflect.String:
		field.SetString(values[0])

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		val, err := strconv.ParseInt(values[0], 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid integer value: %s", values[0])
		}
		field.SetInt(val)

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		val, err := strconv.ParseUint(values[0], 10, field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid unsigned integer value: %s", values[0])
		}
		field.SetUint(val)

	case reflect.Float32, reflect.Float64:
		val, err := strconv.ParseFloat(values[0], field.Type().Bits())
		if err != nil {
			return fmt.Errorf("invalid float value: %s", values[0])
		}
		field.SetFloat(val)

	case reflect.Bool:
		switch strings.ToLower(values[0]) {
		case "on", "1", "yes", "true":
			field.SetBool(true)
		case "off", "0", "no", "false":
			field.SetBool(false)
		default:
			return fmt.Errorf("invalid boolean value: %s", values[0])
		}

	case reflect.Slice:
		slice := reflect.MakeSlice(field.Type(), len(values), len(values))

		for i, value := range values {
			if err := bindFieldValue(slice.Index(i), []string{value}); err != nil {
				return fmt.Errorf("failed to bind slice element at index %d: %w", i, err)
			}
		}

		field.Set(slice)

	default:
		return fmt.Errorf("unsupported field type: %s", field.Kind())
	}

	return nil
}

func parseBodyJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodySize))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("failed to decode json: %w", err)
	}
	return nil
}
