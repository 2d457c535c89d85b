package web

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/erazemk/logistika/internal/audit"
	"github.com/erazemk/logistika/internal/logging"
	"github.com/erazemk/logistika/internal/store"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("form")
	})
	return v
}

// validateForm checks a form struct and returns the first failure as a
// message fit for the page.
func validateForm(s any) string {
	err := validate.Struct(s)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), strings.ReplaceAll(fe.Param(), " ", ", "))
	case "url":
		return fe.Field() + " must be a valid URL"
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}

// pageData builds the base page data, picking up the notice and error left
// by a redirect.
func pageData(r *http.Request, title, nav string) PageData {
	q := r.URL.Query()
	return PageData{
		Title:   title,
		Nav:     nav,
		Success: q.Get("notice"),
		Error:   q.Get("error"),
	}
}

// redirectNotice sends the browser back to path with a success message.
func redirectNotice(w http.ResponseWriter, r *http.Request, path, msg string) {
	http.Redirect(w, r, path+"?notice="+url.QueryEscape(msg), http.StatusSeeOther)
}

// redirectError sends the browser back to path with an error message.
func redirectError(w http.ResponseWriter, r *http.Request, path, msg string) {
	http.Redirect(w, r, path+"?error="+url.QueryEscape(msg), http.StatusSeeOther)
}

// failureMessage turns a store error into a message for the page. Unexpected
// errors are logged and reported generically.
func failureMessage(r *http.Request, entity string, err error) string {
	switch {
	case errors.Is(err, store.ErrForeignKey):
		return "referenced entity not found"
	case errors.Is(err, store.ErrNotFound):
		return entity + " not found"
	case errors.Is(err, store.ErrDuplicate):
		return entity + " already exists"
	case errors.Is(err, store.ErrInvalidTransition):
		return err.Error()
	case errors.Is(err, store.ErrConstraint):
		return "constraint violation"
	}
	logging.FromContext(r.Context()).Error("dashboard action failed",
		zap.String("entity", entity),
		zap.Error(err),
	)
	return "internal error"
}

// notFoundOr answers a failed page load: 404 for missing rows, 500 otherwise.
func notFoundOr(w http.ResponseWriter, r *http.Request, entity string, err error) {
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, entity+" not found", http.StatusNotFound)
		return
	}
	logging.FromContext(r.Context()).Error("loading page",
		zap.String("entity", entity),
		zap.Error(err),
	)
	http.Error(w, "internal error", http.StatusInternalServerError)
}

// pathID parses the {id} path value.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// optional returns nil for an empty form value.
func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

// formInt parses an integer form value; empty values are zero.
func formInt(r *http.Request, name string) (int64, error) {
	v := strings.TrimSpace(r.FormValue(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole number", name)
	}
	return n, nil
}

// record writes an audit entry tagged with the dashboard as its origin.
func (s *Server) record(r *http.Request, e audit.Entry) {
	if e.Metadata == nil {
		e.Metadata = map[string]any{}
	}
	e.Metadata["via"] = "dashboard"
	s.Audit.Record(r.Context(), e)
}
