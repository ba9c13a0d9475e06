// Package dashboard assembles per-role dashboards by fanning out widget
// fetches concurrently and reporting every widget's outcome explicitly. A
// page is loaded only when every fetch has settled; a failed widget carries
// its error instead of data, and no placeholder is ever presented as data.
package dashboard

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/carelink/portal/internal/platform/upstream"
)

// Widget statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Loader fetches one widget's payload.
type Loader func(ctx context.Context) ([]byte, error)

// Widget names one dashboard card and how to load it.
type Widget struct {
	Name string
	Load Loader
}

// WidgetError is the normalized failure a widget renders in place of data.
type WidgetError struct {
	Message string `json:"message"`
	Status  int    `json:"status,omitempty"`
}

// WidgetResult is one settled widget: ok with data, or error with the
// normalized failure. Never both.
type WidgetResult struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data,omitempty"`
	Error  *WidgetError    `json:"error,omitempty"`
}

// Page is an assembled dashboard. Loaded is true exactly when every widget
// has settled, success or not.
type Page struct {
	Widgets map[string]WidgetResult `json:"widgets"`
	Loaded  bool                    `json:"loaded"`
}

// Assemble runs every widget loader concurrently and waits for all of them.
// The request context flows into each loader, so an abandoned request
// cancels all in-flight upstream calls.
func Assemble(ctx context.Context, widgets []Widget) Page {
	results := make([]WidgetResult, len(widgets))

	var wg sync.WaitGroup
	wg.Add(len(widgets))
	for i, w := range widgets {
		go func(i int, w Widget) {
			defer wg.Done()
			data, err := w.Load(ctx)
			if err != nil {
				results[i] = WidgetResult{Status: StatusError, Error: normalizeWidgetError(err)}
				return
			}
			results[i] = WidgetResult{Status: StatusOK, Data: json.RawMessage(data)}
		}(i, w)
	}
	wg.Wait()

	page := Page{Widgets: make(map[string]WidgetResult, len(widgets)), Loaded: true}
	for i, w := range widgets {
		page.Widgets[w.Name] = results[i]
	}
	return page
}

func normalizeWidgetError(err error) *WidgetError {
	if ue, ok := upstream.AsError(err); ok {
		if ue.Transport {
			return &WidgetError{Message: "The clinical service is temporarily unavailable."}
		}
		return &WidgetError{Message: ue.Message, Status: ue.Status}
	}
	return &WidgetError{Message: "This section could not be loaded."}
}
