/*
Package domain contains the value types and the failure taxonomy shared by
portlets and the runtime that hosts them.

It is kept free of I/O so that every other package can depend on it.

# Key Types

  - PortletMode / WindowState: small closed vocabularies with well-known values.
  - Error: the single failure type, discriminated by Kind, carrying an
    optional mode, state, failed validation keys and one nested cause.
  - LifecycleHooks: observability callbacks emitted around invocations,
    includes and preference commits.
*/
package domain
