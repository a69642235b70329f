// Package celery implements the client side of the Celery task protocol
// (protocol v2) over a Redis broker and result backend.
//
// Only what the transcriber worker contract needs is implemented: publish
// a task message to the broker list and await the result key written by
// the worker. Retries, workflows, and rate limits are the queue
// infrastructure's concern, not this client's.
package celery
