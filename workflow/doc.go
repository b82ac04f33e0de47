// Package workflow routes study-assistant requests.
//
// A request is classified into an Intent by a single model call, the
// handler registered for that intent assembles context from a
// retrieval.Retriever and the memory store, calls the Generator once and
// persists the exchange. Engine.Run walks
//
//	start -> routed -> handler_running -> done | failed
//
// Classification never fails: unknown or failed replies route to
// IntentExplain. Generation failures fail the request with ErrGeneration;
// memory write failures only clear Result.Persisted.
package workflow
