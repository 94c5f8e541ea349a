/*
Package session implements the portlet session.

A session is shared by every portlet of an application for one user.
Attributes live in application scope, visible to all portlets, or in portlet
scope, private to one portlet window. Portlet-scope attributes are stored in
the shared map under an encoded name; DecodeAttributeName and DecodeScope
recover the original name and scope from it.
*/
package session
