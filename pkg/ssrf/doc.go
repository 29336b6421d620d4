// Package ssrf guards every outbound URL against server-side request
// forgery: requests coerced toward addresses reachable only from the
// gateway's own network position (loopback, cloud metadata, private
// ranges).
//
// Validation parses the URL, strips userinfo, resolves the host to the
// full set of A/AAAA addresses, and rejects if any address is loopback,
// link-local (including the cloud-metadata range 169.254.0.0/16),
// private, unique-local, multicast, reserved, in 0.0.0.0/8, or the IPv6
// unspecified address. Only http and https schemes are accepted.
//
// DNS results are cached only within a single validation call. Every new
// request resolves afresh, so a flipped DNS answer (rebinding) cannot
// reuse a stale approval.
package ssrf
