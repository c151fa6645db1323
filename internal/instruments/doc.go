// Package instruments maintains the session-scoped instrument directory and
// the subscription selection rules.
//
// The directory maps an exchange instrument token to static contract
// metadata. It is built once per session from the exchange's CSV instrument
// dump and is immutable afterward, so lookups need no locking.
package instruments
