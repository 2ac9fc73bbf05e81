// Package source turns external telemetry sources into full reading series.
// Both adapter shapes share one contract: deliver the complete current series
// at least once, possibly many times.
package source

import (
	"context"
	"errors"
	"fmt"

	"air_quality_monitor/internal/models"
)

// Adapter kinds.
const (
	KindSnapshot = "snapshot"
	KindStream   = "stream"
)

// ValidKind reports whether kind names an adapter kind.
func ValidKind(kind string) bool {
	return kind == KindSnapshot || kind == KindStream
}

// ErrSourceUnavailable wraps any failure to fetch or subscribe.
var ErrSourceUnavailable = errors.New("source unavailable")

// Adapter delivers full reading series. Run blocks until the source is done
// (snapshot) or ctx is cancelled (stream). No deliver call happens after Run
// returns.
type Adapter interface {
	Kind() string
	Run(ctx context.Context, deliver func(models.Delivery)) error
}

// Unavailable is an Adapter whose source could not even be reached, e.g. the
// broker refused the connection at startup. Run reports the error and
// delivers nothing.
type Unavailable struct {
	kind string
	err  error
}

var _ Adapter = (*Unavailable)(nil)

func NewUnavailable(kind string, err error) *Unavailable {
	return &Unavailable{kind: kind, err: err}
}

func (u *Unavailable) Kind() string { return u.kind }

func (u *Unavailable) Run(context.Context, func(models.Delivery)) error {
	if errors.Is(u.err, ErrSourceUnavailable) {
		return u.err
	}
	return fmt.Errorf("%w: %w", ErrSourceUnavailable, u.err)
}
