package ports

import "context"

// Reloader signals connected browser clients to refresh.
//
//go:generate go run go.uber.org/mock/mockgen -source=reloader.go -destination=mocks/mock_reloader.go -package=mocks
type Reloader interface {
	// Reload broadcasts a reload signal to every connected client.
	Reload(ctx context.Context) error
}
