// Package document contains the Document bounded context.
// A document is a printable page template made of positioned objects whose
// text may carry {{placeholder}} tokens. Documents come from two sources:
// the bundled catalog shipped with the binary, and the local store where
// imported and duplicated documents are persisted.
package document
