// Package journal persists the clear log of the masked alarm clearer.
//
// The FileRepository stores alarm identifiers with the time of their last
// accepted clear as JSON on disk, so repeated cycles and restarts do not send
// the same clear request again within the cooldown.
package journal
