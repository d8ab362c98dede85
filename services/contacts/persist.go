package contacts

import (
	"encoding/json"
	"os"
)

// writeJSON overwrites path with v, prior runs' artifacts are replaced
// wholesale.
func writeJSON(path string, v any) error {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(body, '\n'), 0644)
}

// WriteEmailList persists the repos-mode artifact: a bare array of email
// strings.
func WriteEmailList(path string, records []Record) error {
	emails := make([]string, 0, len(records))
	for _, record := range records {
		emails = append(emails, record.Email)
	}
	return writeJSON(path, emails)
}

// WriteRecordList persists the marketplace-mode artifact: an array of
// {email, source} records.
func WriteRecordList(path string, records []Record) error {
	if records == nil {
		records = []Record{}
	}
	return writeJSON(path, records)
}
