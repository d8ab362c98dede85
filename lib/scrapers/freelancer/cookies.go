package freelancer

import (
	"encoding/json"
	"net/http"
	"os"
)

type cookieRecord struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain"`
	Path   string `json:"path"`
}

// LoadCookies reads a session cookie export produced by the interactive
// browser-login helper. Running without cookies is fully supported, the
// marketplace just blocks more aggressively.
func LoadCookies(path string) ([]*http.Cookie, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var records []cookieRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, err
	}

	cookies := make([]*http.Cookie, 0, len(records))
	for _, record := range records {
		cookies = append(cookies, &http.Cookie{
			Name:   record.Name,
			Value:  record.Value,
			Domain: record.Domain,
			Path:   record.Path,
		})
	}
	return cookies, nil
}
