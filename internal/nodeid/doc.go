// internal/nodeid/doc.go

/*
Package nodeid provides the identity of a node in a task graph.

Two forms exist. Generated identities are produced for every deferred call
and have the shape `<name>-<uuid>`, e.g. `inc-3f0c8a2e-...`, so two calls of
the same function never collide. Keyed identities are chosen by the user
(keyed graphs and HCL graph files) and are used verbatim after validation.

Identity is what the result cache and the scheduler key on; two nodes with
equal arguments but different identities are computed separately.
*/
package nodeid
