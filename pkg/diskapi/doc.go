// Package diskapi provides a client for the Yandex.Disk cloud storage
// API v1 (https://yandex.ru/dev/disk-api/doc/ru/).
//
// The client layers two behaviours over the shared request engine:
//
//   - Mutations on a path the backend is still settling may come back
//     as 423 Locked; those are retried with a bounded budget through
//     the lock-retry decorator.
//   - Large mutations (permanent deletes in particular) may return
//     202 Accepted plus an operation link; the client polls the
//     operation-status endpoint until the backend reports success,
//     turning the asynchronous call into a synchronous one.
package diskapi
