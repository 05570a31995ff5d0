// Package documents reads analyzed documents that the Unstructured
// destination connector writes to MongoDB. Only the text field is used.
package documents
