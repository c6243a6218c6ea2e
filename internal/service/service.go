// Package service implements the account and post/comment operations on top of
// the store, translating store failures into apperr kinds.
package service

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"strings"
	"time"

	appkafka "example.com/placefeed/internal/broker"
	"example.com/placefeed/internal/apperr"
	"example.com/placefeed/internal/logger"
	"example.com/placefeed/internal/store"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var logg = logger.New()

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// report fields by their JSON names, which is what clients send
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// validateInput runs struct validation and folds failures into one ValidationError.
func validateInput(in any) error {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Internal("Server error", err)
	}

	seen := make(map[string]bool)
	var fields []string
	for _, fe := range verrs {
		name := fe.Namespace()
		// drop the root struct name: "AddPostInput.placeLocation.speed" -> "placeLocation.speed"
		if i := strings.IndexByte(name, '.'); i >= 0 {
			name = name[i+1:]
		}
		if !seen[name] {
			seen[name] = true
			fields = append(fields, name)
		}
	}
	sort.Strings(fields)
	return apperr.Validation("Missing or invalid fields: " + strings.Join(fields, ", "))
}

// validID reports whether s is a well-formed entity identifier.
func validID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

func newID() string {
	return uuid.NewString()
}

// storeErr maps store.ErrNotFound to a NotFound error and anything else to Internal.
func storeErr(err error, notFoundMsg, internalMsg string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound(notFoundMsg)
	}
	return apperr.Internal(internalMsg, err)
}

// publish is best effort: the mutation already happened, so a broker failure
// is logged and swallowed.
func publish(ctx context.Context, pub appkafka.Publisher, ev appkafka.Event, module string) {
	ev.OccurredAt = time.Now().UTC()
	if err := pub.Publish(ctx, ev); err != nil {
		logg.Warn(module, "Failed to publish "+string(ev.Type)+" event", err)
	}
}

func orNop(pub appkafka.Publisher) appkafka.Publisher {
	if pub == nil {
		return appkafka.NopPublisher{}
	}
	return pub
}
