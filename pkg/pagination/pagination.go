package pagination

import (
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Params holds pagination parameters extracted from a request.
type Params struct {
	Limit  int
	Offset int
}

// FromContext extracts pagination parameters from the echo context.
// Accepts limit/offset and the page/page_size aliases some screens use.
func FromContext(c echo.Context) Params {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 {
		limit, _ = strconv.Atoi(c.QueryParam("page_size"))
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if offset <= 0 {
		if page, _ := strconv.Atoi(c.QueryParam("page")); page > 1 {
			offset = (page - 1) * limit
		}
	}
	if offset < 0 {
		offset = 0
	}

	return Params{Limit: limit, Offset: offset}
}

// Query writes the parameters into vals for forwarding upstream. The portal
// never rebuilds a pagination envelope itself: the backend's response body,
// totals included, is forwarded verbatim.
func (p Params) Query(vals url.Values) url.Values {
	if vals == nil {
		vals = url.Values{}
	}
	vals.Set("limit", strconv.Itoa(p.Limit))
	vals.Set("offset", strconv.Itoa(p.Offset))
	return vals
}
