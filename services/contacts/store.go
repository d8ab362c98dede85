package contacts

import (
	"devscout/lib/extract"
)

// Record is one discovered email plus where it was found. When the same
// email surfaces through several paths the first provenance wins, later
// inserts are no-ops (documented policy, see DESIGN.md).
type Record struct {
	Email  string `json:"email"`
	Source string `json:"source"`
}

// Store is the single deduplication set of a run. Identifiers are compared
// by exact case-sensitive string match, insertion order is preserved so runs
// against fixtures stay reproducible. Not safe for concurrent use, each
// pipeline run owns exactly one store on one goroutine.
type Store struct {
	emailOrder    []string
	emailSources  map[string]string
	usernameOrder []string
	usernames     map[string]bool
}

func NewStore() *Store {
	s := &Store{}
	s.Clear()
	return s
}

// InsertEmail records an email with its provenance, reporting whether it was
// new. GitHub no-reply placeholder addresses are rejected here, at the
// insertion boundary, no matter which extraction path produced them.
func (s *Store) InsertEmail(email string, source string) bool {
	if email == "" || extract.IsNoReply(email) {
		return false
	}
	if _, ok := s.emailSources[email]; ok {
		return false
	}
	s.emailSources[email] = source
	s.emailOrder = append(s.emailOrder, email)
	return true
}

// InsertUsername records a code-host username, reporting whether it was new.
func (s *Store) InsertUsername(username string) bool {
	if username == "" || s.usernames[username] {
		return false
	}
	s.usernames[username] = true
	s.usernameOrder = append(s.usernameOrder, username)
	return true
}

// Emails returns every stored email record in insertion order.
func (s *Store) Emails() []Record {
	out := make([]Record, 0, len(s.emailOrder))
	for _, email := range s.emailOrder {
		out = append(out, Record{Email: email, Source: s.emailSources[email]})
	}
	return out
}

// Usernames returns every stored username in insertion order.
func (s *Store) Usernames() []string {
	out := make([]string, len(s.usernameOrder))
	copy(out, s.usernameOrder)
	return out
}

// Clear resets the store. Every pipeline run clears before starting so that
// consecutive runs inside one process cannot contaminate each other.
func (s *Store) Clear() {
	s.emailOrder = nil
	s.emailSources = map[string]string{}
	s.usernameOrder = nil
	s.usernames = map[string]bool{}
}
