package messaging

import "strings"

const (
	// RecordsStream is the JetStream stream holding record change events.
	RecordsStream = "RECORDS"
	// RecordsSubjectPrefix is the first token of every record change subject.
	RecordsSubjectPrefix = "records"
	// AllRecordsSubject matches every record change subject.
	AllRecordsSubject = RecordsSubjectPrefix + ".>"
)

// RecordSubject builds records.<collection>.<action>.
func RecordSubject(collection, action string) string {
	return strings.Join([]string{RecordsSubjectPrefix, collection, action}, ".")
}

// CollectionSubject matches every change of one collection.
func CollectionSubject(collection string) string {
	return RecordsSubjectPrefix + "." + collection + ".*"
}
