// Package telemetry reports internal errors to Sentry. Every function is
// safe to call when Sentry was not initialized.
package telemetry

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// InitSentry initializes the Sentry SDK. An empty dsn disables reporting
// and returns false.
func InitSentry(dsn, environment, release string) (bool, error) {
	if dsn == "" {
		return false, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		Release:          release,
		AttachStacktrace: true,
		Tags:             map[string]string{"service": "minihub"},
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			return scrub(event)
		},
	})
	if err != nil {
		return false, fmt.Errorf("sentry init: %w", err)
	}
	return true, nil
}

// CaptureError sends err to Sentry with the given tags.
func CaptureError(err error, tags map[string]string) {
	if err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureException(err)
	})
}

// Flush waits for buffered events to be sent.
func Flush() {
	sentry.Flush(2 * time.Second)
}

// scrub removes credentials and addresses before an event leaves the process.
func scrub(event *sentry.Event) *sentry.Event {
	if event == nil {
		return nil
	}
	if event.User.Email != "" {
		event.User.Email = "[redacted]"
	}
	event.User.IPAddress = ""
	if event.Request != nil {
		for k := range event.Request.Headers {
			switch k {
			case "Authorization", "Cookie":
				event.Request.Headers[k] = "[redacted]"
			}
		}
	}
	return event
}
