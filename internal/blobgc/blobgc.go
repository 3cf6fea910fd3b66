// Package blobgc runs the best-effort blob removal queue. Registry
// entries are deleted synchronously; the backing bytes (original and
// thumbnail) are removed here afterwards, so a failed removal leaves a
// dangling blob instead of a registry entry pointing at nothing.
package blobgc

import (
	"context"
	"errors"
	"time"

	"github.com/patric-chuzhbe/cloudalbum/internal/blobstore"
	"github.com/patric-chuzhbe/cloudalbum/internal/logger"
	"github.com/patric-chuzhbe/cloudalbum/internal/models"
)

type task struct {
	namespace   string
	keyToDelete string
}

// BlobRemover drains a queue of blob delete tasks on a fixed interval.
type BlobRemover struct {
	queue                    chan *task
	blobs                    blobstore.BlobStore
	delayBetweenQueueFetches time.Duration
	errorChannel             chan error
}

// New creates a BlobRemover over the given blob store.
func New(
	blobs blobstore.BlobStore,
	channelCapacity int,
	delayBetweenQueueFetches time.Duration,
) *BlobRemover {
	return &BlobRemover{
		blobs:                    blobs,
		queue:                    make(chan *task, channelCapacity),
		delayBetweenQueueFetches: delayBetweenQueueFetches,
		errorChannel:             make(chan error, channelCapacity),
	}
}

// ListenErrors invokes the callback for every removal error.
func (r *BlobRemover) ListenErrors(callback func(error)) {
	go func() {
		for err := range r.errorChannel {
			callback(err)
		}
	}()
}

// Run starts the background draining loop. The loop stops when the
// context is cancelled.
func (r *BlobRemover) Run(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(r.delayBetweenQueueFetches)
		defer ticker.Stop()

		var tasks []task

		for {
			select {
			case <-ctx.Done():
				return
			case t := <-r.queue:
				tasks = append(tasks, *t)
			case <-ticker.C:
				if len(tasks) == 0 {
					continue
				}
				tasks = r.processTasks(ctx, tasks)
			}
		}
	}()
}

// processTasks deletes the queued blobs. Already-absent blobs count as
// done; a thumbnail that was never generated looks exactly like that.
func (r *BlobRemover) processTasks(ctx context.Context, tasks []task) []task {
	removed := 0
	for _, t := range tasks {
		err := r.blobs.Delete(ctx, t.namespace, t.keyToDelete)
		if err != nil && !errors.Is(err, blobstore.ErrBlobNotFound) {
			select {
			case r.errorChannel <- err:
			default:
			}
			continue
		}
		removed++
	}

	logger.Log.Infof("processed removing of %d blobs", removed)

	return nil
}

// EnqueueJob queues all keys of a delete job. Enqueueing never blocks
// the caller beyond channel capacity.
func (r *BlobRemover) EnqueueJob(job *models.BlobDeleteJob) {
	for _, key := range job.Keys {
		r.queue <- &task{
			namespace:   job.Namespace,
			keyToDelete: key,
		}
	}
}
