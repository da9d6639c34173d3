// Package flow defines the captured-exchange record that flowlens enriches.
//
// A [Flow] is produced by a capture backend and is treated as read-mostly:
// the enricher only fills the derived App* fields, and always on a copy.
//
// # Bodies
//
// Capture backends hand bodies over in different shapes: decoded text,
// raw bytes, or nothing at all. [Body] models that explicitly as a tagged
// union, and [Body.Canonical] is the single normalization step that turns any
// of them into the text the decoding strategies operate on:
//
//	b := flow.BytesBody(raw)
//	text := b.Canonical(f.Response.Headers.Get("Content-Type"))
//
// # Headers
//
// Headers are kept as ordered name/value pairs so that duplicate headers and
// the original casing survive. Lookups are case-insensitive:
//
//	ua := f.Request.Headers.Get("user-agent")
package flow
