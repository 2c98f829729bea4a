// Package transport builds the HTTP client shared by the crawler and
// the analyzers. It applies the session timeout, cookie handling, the
// redirect cap, optional upstream SOCKS5 proxying, and per-host header
// overrides for authenticated targets.
package transport
