// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"sync"

	"github.com/dalemusser/collabhub/internal/app/system/ratelimit"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app, plus the
// background helpers BuildHandler starts and Shutdown stops.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	Background *Background
}

// Background owns helpers that keep goroutines running for the life of
// the handler.
type Background struct {
	mu       sync.Mutex
	limiters []*ratelimit.Limiter
}

// NewBackground returns an empty Background.
func NewBackground() *Background {
	return &Background{}
}

func (b *Background) addLimiter(l *ratelimit.Limiter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.limiters = append(b.limiters, l)
}

// Stop stops every tracked helper. Calling it again is a no-op.
func (b *Background) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, l := range b.limiters {
		l.Stop()
	}
	b.limiters = nil
}
