// Package variant probes the alternate scheme and host forms of a site's
// canonical origin and checks that each one permanently redirects to it.
//
// For a canonical origin such as https://example.com the prober requests
// http://example.com/, https://www.example.com/ and http://www.example.com/
// without following redirects, then classifies each response. Network
// failures are reported as informational findings and never abort the
// other variants.
package variant
