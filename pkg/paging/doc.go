// Package paging walks paginated listing endpoints.
//
// A Cursor issues one request per call to Next, following the continuation
// link the server returns. Drain collects every page into one slice. Walks
// are loop driven; the depth of a listing never grows the call stack.
package paging
