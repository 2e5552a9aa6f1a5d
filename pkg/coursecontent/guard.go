package coursecontent

// ConfirmItemExists reports whether doc is of contentType and currently holds
// an item at position. Used before an edit so that a stale or mismatched
// client view cannot overwrite the wrong item.
func ConfirmItemExists(doc *ContentDocument, contentType string, position Position) bool {
	if doc == nil || string(doc.ContentType) != contentType {
		return false
	}
	for _, item := range doc.ContentData {
		if item.ItemPosition().Equal(position) {
			return true
		}
	}
	return false
}

// ConfirmDocumentType reports whether doc's stored type (ignoring case) and
// sequence number match the ones an operation declares.
func ConfirmDocumentType(doc *ContentDocument, contentNo int, contentType string) bool {
	if doc == nil {
		return false
	}
	return doc.ContentType.Matches(contentType) && doc.ContentNo == contentNo
}
