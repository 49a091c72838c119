package postgresadapter

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SystemClock supplies block time from the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// UUIDGenerator mints transfer handles and archive batch ids.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}
