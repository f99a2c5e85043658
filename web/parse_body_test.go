package web_test

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bluescreen10/storefront/web"
)

func TestSimpleForm(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader("email=ab@c.com&name=+test+&age=40&subscribed=on&tags=a&tags=b&missing=1234"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=utf-8")

	type user struct {
		Email      string   `form:"email"`
		FullName   string   `form:"name"`
		Age        int      `form:"age"`
		Subscribed bool     `form:"subscribed"`
		Tags       []string `form:"tags"`
		Dummy      int
	}

	u := user{}
	if err := web.ParseBody(r, &u); err != nil {
		t.Fatal(err)
	}

	if u.Email != "ab@c.com" || u.FullName != "test" || u.Age != 40 || !u.Subscribed {
		t.Fatalf("error parsing form: %+v", u)
	}
	if len(u.Tags) != 2 || u.Tags[1] != "b" {
		t.Fatalf("expected tags [a b] got %v", u.Tags)
	}
}

func TestMultipartForm(t *testing.T) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	mw.WriteField("email", "ab@c.com")
	mw.Close()

	r := httptest.NewRequest("POST", "/", body)
	r.Header.Set("Content-Type", mw.FormDataContentType())

	var u struct {
		Email string `form:"email,required"`
	}
	if err := web.ParseBody(r, &u); err != nil {
		t.Fatal(err)
	}
	if u.Email != "ab@c.com" {
		t.Fatalf("expected 'ab@c.com' got '%s'", u.Email)
	}
}

func TestRequiredFields(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader("name=test&email=++"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var u struct {
		Name  string `form:"name,required"`
		Email string `form:"email,required"`
		Phone string `form:"phone,required"`
	}

	err := web.ParseBody(r, &u)

	var missing *web.MissingFieldsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingFieldsError got %v", err)
	}
	if len(missing.Fields) != 2 || missing.Fields[0] != "email" || missing.Fields[1] != "phone" {
		t.Fatalf("expected [email phone] got %v", missing.Fields)
	}
	if u.Name != "test" {
		t.Fatal("expected present fields to be bound")
	}
}

func TestInvalidValue(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader("age=old"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var u struct {
		Age int `form:"age"`
	}
	if err := web.ParseBody(r, &u); err == nil {
		t.Fatal("expected an error")
	}
}

func TestSimpleJSON(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader(`{ "email": "ab@c.com", "name": "test", "age":40}`))
	r.Header.Set("Content-Type", "application/json")

	var u struct {
		Email    string `json:"email"`
		FullName string `json:"name"`
	}
	if err := web.ParseBody(r, &u); err != nil {
		t.Fatal(err)
	}

	if u.Email != "ab@c.com" || u.FullName != "test" {
		t.Fatal("error parsing json")
	}
}

func TestUnsupportedContentType(t *testing.T) {
	for _, ct := range []string{"", "text/csv", "application/xml"} {
		r := httptest.NewRequest("POST", "/", strings.NewReader("a,b"))
		r.Header.Set("Content-Type", ct)

		var u struct{}
		if err := web.ParseBody(r, &u); !errors.Is(err, web.ErrUnsupportedContentType) {
			t.Fatalf("%q: expected ErrUnsupportedContentType got %v", ct, err)
		}
	}
}

func TestNonStructDestination(t *testing.T) {
	r := httptest.NewRequest("POST", "/", strings.NewReader("a=1"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var s string
	if err := web.ParseBody(r, &s); err == nil {
		t.Fatal("expected an error")
	}
}
