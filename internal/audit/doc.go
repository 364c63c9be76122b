// Package audit implements asynchronous security-event dispatch. The engine
// emits events on its request path; a background dispatcher forwards them to
// a pluggable sink so slow consumers never block authentication.
package audit
