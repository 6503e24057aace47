// Package album orchestrates the shared-album download pipeline.
//
// The pipeline runs in three stages, strictly forward:
//
//  1. Fetch the album manifest (one webstream call).
//  2. Resolve download URLs for the best derivative of every photo, in
//     sequential batches of up to 25 GUIDs (webasseturls calls).
//  3. Transfer the resolved assets to disk with a bounded-concurrency
//     worker pool, counting successes and failures independently.
//
// Stages 1 and 2 fail the whole run on any error; stage 3 isolates failures
// per transfer and reports them in the aggregate Summary. A run over an
// empty album completes successfully without touching stages 2 and 3.
package album
