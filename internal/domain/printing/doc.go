// Package printing describes a printable page. Assemble turns a document
// model and a placeholder map into a Page: a sized sheet with an optional
// background and a list of draw commands in paint order. Output back ends
// consume a Page without ever seeing the document model.
package printing
