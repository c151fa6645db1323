// Package archive provides durable off-box sinks for sealed artifacts.
package archive

import "context"

// Sink is the archival collaborator. Put uploads a local file and returns a
// remote identifier; the caller removes the local copy only after Put
// reports success.
type Sink interface {
	Put(ctx context.Context, localPath string) (remoteID string, err error)
}
