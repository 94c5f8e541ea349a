/*
Package ports defines the contract between a portlet and the runtime that hosts it.

Every type here is an interface implemented by the host (or by the reference
implementations in the sibling packages) and consumed by portlets, except
Portlet and PreferencesValidator which portlets implement and the host calls.

# Key Interfaces

  - ActionRequest / RenderRequest: inbound data of one invocation.
  - ActionResponse / RenderResponse: outbound properties, redirects, markup.
  - RequestDispatcher: includes another server-side resource into a render.
  - Preferences / PreferencesValidator: persistent settings gated by validation.
  - PreferencesStore / PreferencesLoader / DistributedLocker: driven ports for persistence.

The Run*Contract helpers verify that an implementation honours the contract.
*/
package ports
