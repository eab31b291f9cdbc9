/*
Package crdt implements the operation-based replicated growable array (RGA)
structure upon that the replicated sequence parts of this system are built.

CAUTION! Consider these two requirements:
* The broadcast communication to all other replicas is expected to be reliable
  and at-least-once. This repository's package comm retries each delivery a
  bounded number of times and does not deliver a record whose attempts all fail.
  Causal ordering of deliveries is not(!) required: operations arriving before
  their dependencies are parked in the causal buffer and applied once every
  identifier they reference has been observed.
* Access to the functions this package provides is expected to be synchronized
  explicitly by some outside measures, e.g. by wrapping calls to this package
  with a mutex lock if concurrent access is possible. This package does not(!)
  synchronize access by itself. Package replica provides such a wrapper.

The RGA implementation of this package is a practical derivation from its
specification by Roh, Jeon, Kim and Lee, available under:
https://doi.org/10.1016/j.jpdc.2010.12.006
*/
package crdt
