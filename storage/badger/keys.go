package badger

// Key layout: one prefix per namespace, record ID appended verbatim.
const recordKeyPrefix = "vec"

// makeNamespacePrefix returns the key prefix covering every record in a namespace.
func makeNamespacePrefix(namespace string) []byte {
	return []byte(recordKeyPrefix + ":" + namespace + ":")
}

// makeRecordKey generates the key for a record in a namespace.
func makeRecordKey(namespace, id string) []byte {
	prefix := makeNamespacePrefix(namespace)
	buf := make([]byte, 0, len(prefix)+len(id))
	buf = append(buf, prefix...)
	buf = append(buf, id...)
	return buf
}
