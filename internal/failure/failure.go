// Package failure records operational failures that are logged and reported
// instead of being returned to the caller.
package failure

import (
	"fmt"
	"sync/atomic"

	"github.com/bassista/go_catalog/internal/logger"
	honeybadger "github.com/honeybadger-io/honeybadger-go"
	"github.com/sirupsen/logrus"
)

type Kind string

const (
	KindFetch                     Kind = "fetch"
	KindLoadFromPersistentStore   Kind = "loadFromPersistentStore"
	KindSaveToPersistentStore     Kind = "saveToPersistentStore"
	KindDeleteFromPersistentStore Kind = "deleteFromPersistentStore"
)

// Failure is a classified failure raised by From (a component name).
type Failure struct {
	Kind   Kind
	From   string
	Reason string
}

func Fetch(from string, err error) Failure {
	return Failure{Kind: KindFetch, From: from, Reason: reason(err)}
}

func Load(from string, err error) Failure {
	return Failure{Kind: KindLoadFromPersistentStore, From: from, Reason: reason(err)}
}

func Save(from string, err error) Failure {
	return Failure{Kind: KindSaveToPersistentStore, From: from, Reason: reason(err)}
}

func Delete(from string, err error) Failure {
	return Failure{Kind: KindDeleteFromPersistentStore, From: from, Reason: reason(err)}
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s failed in %s: %s", f.Kind, f.From, f.Reason)
}

// Log writes the failure to the component logger and, when enabled, to Honeybadger.
func (f Failure) Log() {
	logger.WithComponent(f.From).WithFields(logrus.Fields{
		"failure": string(f.Kind),
		"reason":  f.Reason,
	}).Error(f.Error())

	if reporting.Load() {
		notify(f)
	}
}

var reporting atomic.Bool

var notify = func(f Failure) {
	honeybadger.Notify(f, honeybadger.Tags{string(f.Kind), f.From}, honeybadger.Context{"reason": f.Reason})
}

// EnableReporting configures Honeybadger with apiKey. An empty key leaves reporting off.
func EnableReporting(apiKey, env string) bool {
	if apiKey == "" {
		reporting.Store(false)
		return false
	}
	honeybadger.Configure(honeybadger.Configuration{APIKey: apiKey, Env: env})
	reporting.Store(true)
	return true
}

func reason(err error) string {
	if err == nil {
		return "unknown"
	}
	return err.Error()
}

// Reporting reports whether Honeybadger reporting is enabled.
func Reporting() bool {
	return reporting.Load()
}
