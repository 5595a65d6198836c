/*
Package client provides the request-facing facade of the destination publisher.
It resolves a destination catalog once at construction, then runs one publish
pass per call on a fresh transport session, with per-destination error isolation.
*/
package client
