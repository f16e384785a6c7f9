// Package remote implements cluster.Cluster on top of a socket.io
// connection to an external worker fleet.
//
// The fleet is not part of this module. The client speaks a small event
// protocol:
//
//	submit  client -> fleet  {"task_id", "node", "op", "args"}
//	cancel  client -> fleet  {"task_id"}
//	result  fleet -> client  {"task_id", "value", "error"}
//
// Operations are sent by name, so the fleet must know the same operation
// catalog, and arguments and results must be JSON-encodable. A lost
// connection fails every pending task with ErrDisconnected; there are no
// retries.
package remote
