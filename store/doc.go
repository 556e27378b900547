// Package store persists conversation history.
//
// [History] is the append-only message log an agent session owns. Callers
// outside the session only ever see copies. A History can be synced to and
// reloaded from an [Adapter]; [MemoryAdapter] keeps data in process and
// [FileAdapter] writes one JSON file per key.
package store
