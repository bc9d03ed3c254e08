package system

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/visgate/visgate/api/pkg/types"
)

// functions that understand they need to return an API error
type httpWrapper[T any] func(res http.ResponseWriter, req *http.Request) (T, *types.APIError)

// Wrapper wraps a handler that returns (data, *types.APIError), encoding the
// data as JSON on success and the {error, message, details} body on failure.
func Wrapper[T any](handler httpWrapper[T]) func(res http.ResponseWriter, req *http.Request) {
	return func(res http.ResponseWriter, req *http.Request) {
		data, apiErr := handler(res, req)
		if apiErr != nil {
			WriteError(res, apiErr)
			return
		}
		res.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(res).Encode(data); err != nil {
			log.Ctx(req.Context()).Error().Msgf("error for json encoding: %s", err.Error())
			http.Error(res, err.Error(), http.StatusInternalServerError)
		}
	}
}

// WriteError writes the error-kind body with the kind's HTTP status.
func WriteError(res http.ResponseWriter, apiErr *types.APIError) {
	status := apiErr.HTTPStatus()
	if status >= http.StatusInternalServerError {
		log.Error().Str("kind", string(apiErr.Kind)).Msgf("error for route: %s", apiErr.Message)
	}
	res.Header().Set("Content-Type", "application/json")
	res.WriteHeader(status)
	if err := json.NewEncoder(res).Encode(apiErr); err != nil {
		log.Error().Msgf("error for json encoding: %s", err.Error())
	}
}

// AsAPIError converts any error into an APIError, defaulting unknown errors
// to internal_error so provider payload details are not echoed verbatim.
func AsAPIError(err error) *types.APIError {
	var apiErr *types.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return types.NewAPIError(types.ErrorKindInternal, "%s", err.Error())
}
