package main

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/ehr/fhirpath/internal/platform/auth"
	"github.com/ehr/fhirpath/internal/platform/db"
	"github.com/ehr/fhirpath/pkg/fhirpath"
)

// handler holds the shared, concurrency-safe dependencies every route
// needs: an Engine configured once at startup (mirroring the teacher's
// pattern of building one service per domain and closing over it in
// route handlers), plus the optional named-expression store.
type handler struct {
	logger zerolog.Logger
	engine *fhirpath.Engine
	cache  *db.ExpressionCache
}

func newHandler(logger zerolog.Logger, precision int32, cache *db.ExpressionCache) *handler {
	return &handler{
		logger: logger,
		engine: fhirpath.NewEngine(fhirpath.WithPrecision(precision), fhirpath.WithLogger(logger)),
		cache:  cache,
	}
}

type evaluateRequest struct {
	Expression string                 `json:"expression"`
	Resource   map[string]interface{} `json:"resource"`
	Vars       map[string]string      `json:"vars"`
}

type evaluateResponse struct {
	Result []string `json:"result"`
}

func (h *handler) evaluate(c echo.Context) error {
	var req evaluateRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
	}
	if req.Expression == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "expression is required")
	}
	return h.evaluateAndRespond(c, req.Expression, req.Resource, req.Vars)
}

func (h *handler) registerExpression(c echo.Context) error {
	if h.cache == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "named-expression registry is disabled (no DATABASE_URL)")
	}
	name := c.Param("name")
	var body struct {
		Expression string `json:"expression"`
	}
	if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
	}
	if body.Expression == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "expression is required")
	}
	if _, err := h.engine.Parse(body.Expression); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "expression does not parse: "+err.Error())
	}
	if err := h.cache.Save(c.Request().Context(), name, body.Expression); err != nil {
		h.logger.Error().Err(err).Str("name", name).Str("user", auth.UserIDFromContext(c.Request().Context())).
			Msg("failed to save expression")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to save expression")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handler) evaluateNamed(c echo.Context) error {
	if h.cache == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "named-expression registry is disabled (no DATABASE_URL)")
	}
	name := c.Param("name")
	expr, err := h.cache.Get(c.Request().Context(), name)
	if err != nil {
		if err == db.ErrExpressionNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "no expression registered under that name")
		}
		h.logger.Error().Err(err).Str("name", name).Msg("failed to load expression")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load expression")
	}

	var body struct {
		Resource map[string]interface{} `json:"resource"`
		Vars     map[string]string      `json:"vars"`
	}
	if c.Request().ContentLength != 0 {
		if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
		}
	}
	return h.evaluateAndRespond(c, expr, body.Resource, body.Vars)
}

func (h *handler) evaluateAndRespond(c echo.Context, expr string, resource map[string]interface{}, rawVars map[string]string) error {
	var elem fhirpath.Element
	if resource != nil {
		elem = fhirpath.NewMapElement(resource)
	}

	var vars map[string]*fhirpath.Value
	if len(rawVars) > 0 {
		vars = make(map[string]*fhirpath.Value, len(rawVars))
		for k, v := range rawVars {
			val := fhirpath.NewString(v)
			vars[k] = &val
		}
	}

	result, err := h.engine.EvaluateString(expr, elem, vars)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	out := make([]string, len(result))
	for i, v := range result {
		out[i] = v.Display()
	}
	return c.JSON(http.StatusOK, evaluateResponse{Result: out})
}

func (h *handler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
