package server

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/ironsheep/file-tools/internal/errs"
)

// formInt returns the integer form value name, or def when it is absent.
func formInt(c echo.Context, name string, def int) (int, error) {
	v, ok, err := optionalInt(c, name)
	if err != nil || !ok {
		return def, err
	}
	return v, nil
}

// optionalInt returns the integer form value name and whether it was set.
func optionalInt(c echo.Context, name string) (int, bool, error) {
	raw := strings.TrimSpace(c.FormValue(name))
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, errs.Invalid("Invalid %s: must be an integer", name)
	}
	return v, true, nil
}

func formFloat(c echo.Context, name string, def float64) (float64, error) {
	raw := strings.TrimSpace(c.FormValue(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errs.Invalid("Invalid %s: must be a number", name)
	}
	return v, nil
}

func formBool(c echo.Context, name string, def bool) (bool, error) {
	raw := strings.TrimSpace(c.FormValue(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(strings.ToLower(raw))
	if err != nil {
		return false, errs.Invalid("Invalid %s: must be true or false", name)
	}
	return v, nil
}

func formString(c echo.Context, name, def string) string {
	if v := strings.TrimSpace(c.FormValue(name)); v != "" {
		return v
	}
	return def
}
